// Package tmoptions reads tone-mapping settings files.
//
// Two formats are accepted. Files ending in .yaml or .yml are decoded as YAML:
//
//	name: soft
//	tmo: reinhard05
//	xsize: 1024
//	postgamma: 1.0
//	params:
//	  brightness: -10
//	  chromaticadaptation: 0.5
//
// Anything else is read as a LuminanceHDR settings text file, one KEY=VALUE per
// line, with a mandatory TMOSETTINGSVERSION key:
//
//	# LuminanceHDR tone mapping settings
//	TMOSETTINGSVERSION=0.6
//	XSIZE=1024
//	TMO=Reinhard05
//	BRIGHTNESS=-10
//	CHROMATICADAPTATION=0.5
//	LIGHTADAPTATION=1
//	PREGAMMA=1
package tmoptions

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/luminancehdr/hdr-batch/internal/models"
	srvErrors "github.com/luminancehdr/hdr-batch/pkg/errors"
)

const versionKey = "TMOSETTINGSVERSION"

// keys that map onto operator parameters
var paramKeys = map[string]string{
	"BIAS":                models.ParamBias,
	"BRIGHTNESS":          models.ParamBrightness,
	"CHROMATICADAPTATION": models.ParamChromaticAdaptation,
	"LIGHTADAPTATION":     models.ParamLightAdaptation,
	"CONTRAST":            models.ParamContrast,
	"MAXCLIPPING":         models.ParamMaxClipping,
}

// ParseFile reads one settings file.
func ParseFile(path string) (*models.ToneMappingOptions, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}

	var opts *models.ToneMappingOptions
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		opts, err = ParseYAML(path, content)
	default:
		opts, err = ParseText(path, content)
	}
	if err != nil {
		return nil, err
	}

	opts.Source = path
	if opts.Name == "" {
		opts.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return opts, nil
}

// ParseAll parses every path, keeping the good ones. The errors slice holds
// one entry per rejected file.
func ParseAll(paths []string) ([]*models.ToneMappingOptions, []error) {
	var (
		opts []*models.ToneMappingOptions
		errs []error
	)
	for _, p := range paths {
		o, err := ParseFile(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		opts = append(opts, o)
	}
	return opts, errs
}

func ParseYAML(path string, content []byte) (*models.ToneMappingOptions, error) {
	var raw struct {
		Name      string             `yaml:"name"`
		Operator  string             `yaml:"tmo"`
		Width     int                `yaml:"xsize"`
		PreGamma  float64            `yaml:"pregamma"`
		PostGamma float64            `yaml:"postgamma"`
		Params    map[string]float64 `yaml:"params"`
	}
	if err := yaml.UnmarshalStrict(content, &raw); err != nil {
		return nil, srvErrors.NewMalformedSettingsError(path, 0, err.Error())
	}

	op, err := models.ParseOperator(raw.Operator)
	if err != nil {
		return nil, srvErrors.NewMalformedSettingsError(path, 0, err.Error())
	}

	params := map[string]float64{}
	for k, v := range raw.Params {
		params[strings.ToLower(k)] = v
	}

	opts := &models.ToneMappingOptions{
		Name:      raw.Name,
		Operator:  op,
		Width:     raw.Width,
		PreGamma:  raw.PreGamma,
		PostGamma: raw.PostGamma,
		Params:    params,
		Extra:     map[string]string{},
	}
	return opts, validate(path, opts)
}

func ParseText(path string, content []byte) (*models.ToneMappingOptions, error) {
	opts := &models.ToneMappingOptions{
		Params: map[string]float64{},
		Extra:  map[string]string{},
	}

	var (
		sawVersion bool
		sawTMO     bool
		lineNo     int
	)

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, srvErrors.NewMalformedSettingsError(path, lineNo, fmt.Sprintf("expected KEY=VALUE, got %q", line))
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case versionKey:
			sawVersion = true
		case "TMO":
			op, err := models.ParseOperator(value)
			if err != nil {
				return nil, srvErrors.NewMalformedSettingsError(path, lineNo, err.Error())
			}
			opts.Operator = op
			sawTMO = true
		case "XSIZE":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, srvErrors.NewMalformedSettingsError(path, lineNo, fmt.Sprintf("XSIZE: %v", err))
			}
			opts.Width = n
		case "PREGAMMA", "POSTGAMMA":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, srvErrors.NewMalformedSettingsError(path, lineNo, fmt.Sprintf("%s: %v", key, err))
			}
			if key == "PREGAMMA" {
				opts.PreGamma = f
			} else {
				opts.PostGamma = f
			}
		default:
			name, isParam := paramKeys[key]
			if !isParam {
				opts.Extra[key] = value
				continue
			}
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, srvErrors.NewMalformedSettingsError(path, lineNo, fmt.Sprintf("%s: %v", key, err))
			}
			opts.Params[name] = f
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}

	if !sawVersion {
		return nil, srvErrors.NewMalformedSettingsError(path, 0, "not a tone mapping settings file: missing "+versionKey)
	}
	if !sawTMO {
		return nil, srvErrors.NewMalformedSettingsError(path, 0, "missing TMO")
	}
	return opts, validate(path, opts)
}

func validate(path string, opts *models.ToneMappingOptions) error {
	if opts.Width < 0 {
		return srvErrors.NewMalformedSettingsError(path, 0, fmt.Sprintf("negative XSIZE %d", opts.Width))
	}
	if opts.PreGamma < 0 || opts.PostGamma < 0 {
		return srvErrors.NewMalformedSettingsError(path, 0, "gamma must not be negative")
	}
	return nil
}
