package config

const (
	defaultStorePath         = "~/.local/share/subedit/sessions.db"
	defaultStoreDir          = "~/.local/share/subedit/sessions"
	defaultMaxLineChars      = 84
	defaultMaxLineDurationMS = 7000
	defaultProvider          = "openai"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Store: Store{
			Backend: BackendSQLite,
			Path:    defaultStorePath,
			Dir:     defaultStoreDir,
		},
		Editor: Editor{
			MaxLineChars:      defaultMaxLineChars,
			MaxLineDurationMS: defaultMaxLineDurationMS,
		},
		Logging: Logging{
			Level:  "info",
			Format: "auto",
		},
		Transcribe: Transcribe{
			Provider: defaultProvider,
		},
	}
}
