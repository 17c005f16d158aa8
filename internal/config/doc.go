// Package config defines the configuration structure for hdr-batch.
//
// Configuration is organized into logical sections (Server, Batch, HDR, Store).
// Defaults come from creasty/defaults struct tags; values are then overlaid by
// viper from an optional config file, HDR_BATCH_* environment variables and
// the cobra flags bound by each command.
//
// # Configuration Structure
//
//	Configuration
//	├── Server         - HTTP server settings
//	├── Batch          - Tone mapping batch settings
//	├── HDR            - HDR creation settings
//	├── Store          - History database
//	├── LogFormat      - Logging format
//	└── LogLevel       - Logging verbosity
//
// # Server Configuration
//
//	┌──────────────────┬─────────┬────────────────────────────────────────┐
//	│ Field            │ Default │ Description                            │
//	├──────────────────┼─────────┼────────────────────────────────────────┤
//	│ ServerMode       │ "dev"   │ Server mode: "prod" or "dev"           │
//	│ HTTPPort         │ 8000    │ HTTP server listen port                │
//	└──────────────────┴─────────┴────────────────────────────────────────┘
//
// # Batch Configuration
//
//	┌──────────────────┬─────────┬────────────────────────────────────────┐
//	│ Field            │ Default │ Description                            │
//	├──────────────────┼─────────┼────────────────────────────────────────┤
//	│ NumThreads       │ 1       │ Number of worker slots                 │
//	│ Format           │ "jpg"   │ LDR output format: png, jpg, tiff      │
//	│ JPEGQuality      │ 98      │ JPEG quality, 1-100                    │
//	│ OutputDir        │ ""      │ Default output directory               │
//	└──────────────────┴─────────┴────────────────────────────────────────┘
//
// # HDR Configuration
//
//	┌──────────────────┬─────────┬────────────────────────────────────────┐
//	│ Field            │ Default │ Description                            │
//	├──────────────────┼─────────┼────────────────────────────────────────┤
//	│ NumBracketed     │ 3       │ Exposures per bracketed set            │
//	│ Align            │ true    │ Align exposures before merging         │
//	│ MaxShift         │ 32      │ Largest translation searched, pixels   │
//	└──────────────────┴─────────┴────────────────────────────────────────┘
//
// # Usage Example
//
//	v := config.NewViper()
//	_ = v.BindPFlags(cmd.Flags())
//	cfg, err := config.Load(v, configFile)
//	if err != nil {
//	    return err
//	}
package config
