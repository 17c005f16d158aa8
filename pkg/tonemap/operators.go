package tonemap

import (
	"fmt"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/tmo"

	"github.com/luminancehdr/hdr-batch/internal/models"
)

// NewOperator builds the operator named by opts over img. Parameters that are
// not set keep the operator defaults.
func NewOperator(img hdr.Image, opts *models.ToneMappingOptions) (tmo.ToneMappingOperator, error) {
	switch opts.Operator {
	case models.OperatorDrago03:
		op := tmo.NewDefaultDrago03(img)
		op.Bias = opts.Param(models.ParamBias, op.Bias)
		return op, nil

	case models.OperatorDurand:
		return tmo.NewDefaultDurand(img), nil

	case models.OperatorICam06:
		op := tmo.NewDefaultICam06(img)
		op.Contrast = opts.Param(models.ParamContrast, op.Contrast)
		op.MaxClipping = opts.Param(models.ParamMaxClipping, op.MaxClipping)
		return op, nil

	case models.OperatorLinear:
		return tmo.NewLinear(img), nil

	case models.OperatorReinhard05:
		op := tmo.NewDefaultReinhard05(img)
		op.Brightness = opts.Param(models.ParamBrightness, op.Brightness)
		op.Chromatic = opts.Param(models.ParamChromaticAdaptation, op.Chromatic)
		op.Light = opts.Param(models.ParamLightAdaptation, op.Light)
		return op, nil
	}

	return nil, fmt.Errorf("invalid tone mapping operator: %s", opts.Operator)
}
