package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Operator names a tone-mapping operator.
type Operator string

const (
	OperatorLinear     Operator = "linear"
	OperatorDrago03    Operator = "drago03"
	OperatorDurand     Operator = "durand"
	OperatorICam06     Operator = "icam06"
	OperatorReinhard05 Operator = "reinhard05"
)

// Operators lists every operator the tone-mapping backend knows.
var Operators = []Operator{OperatorDrago03, OperatorDurand, OperatorICam06, OperatorLinear, OperatorReinhard05}

// ParseOperator accepts both our names and the ones written by LuminanceHDR
// settings files (e.g. "Drago", "Reinhard05").
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear":
		return OperatorLinear, nil
	case "drago", "drago03":
		return OperatorDrago03, nil
	case "durand", "durand02":
		return OperatorDurand, nil
	case "icam06":
		return OperatorICam06, nil
	case "reinhard05":
		return OperatorReinhard05, nil
	default:
		return "", fmt.Errorf("invalid tone mapping operator: %s", s)
	}
}

// Parameter keys understood by the operators.
const (
	ParamBias                = "bias"
	ParamBrightness          = "brightness"
	ParamChromaticAdaptation = "chromaticadaptation"
	ParamLightAdaptation     = "lightadaptation"
	ParamContrast            = "contrast"
	ParamMaxClipping         = "maxclipping"
)

// ToneMappingOptions is one parsed tone-mapping settings file.
// It is read-only once a batch has started.
type ToneMappingOptions struct {
	// Name is the settings file base name, used in output file names.
	Name      string
	Source    string
	Operator  Operator
	Width     int
	PreGamma  float64
	PostGamma float64
	Params    map[string]float64
	Extra     map[string]string
}

// Param returns the named parameter or def when unset.
func (o *ToneMappingOptions) Param(key string, def float64) float64 {
	if v, ok := o.Params[key]; ok {
		return v
	}
	return def
}

// Postfix is a stable, file-name safe summary of the options.
func (o *ToneMappingOptions) Postfix() string {
	if o.Name != "" {
		return o.Name
	}

	keys := make([]string, 0, len(o.Params))
	for k := range o.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := []string{string(o.Operator)}
	for _, k := range keys {
		parts = append(parts, k+"-"+strconv.FormatFloat(o.Params[k], 'f', -1, 64))
	}
	return strings.Join(parts, "_")
}
