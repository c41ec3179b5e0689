package config

const (
	defaultStoreDriver       = "sqlite"
	defaultSQLitePath        = "~/.agent-tutor/tutor.db"
	defaultRedisURL          = "redis://localhost:6379/0"
	defaultKeyPrefix         = "agent-tutor:"
	defaultGeminiBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel       = "gemini-2.5-flash"
	defaultGeminiAnalysis    = "gemini-3-pro-preview"
	defaultGeminiTTSModel    = "gemini-2.5-flash-preview-tts"
	defaultGeminiVoice       = "Kore"
	defaultGeminiTimeout     = 120
	defaultServerBind        = "127.0.0.1:8080"
	defaultServerMaxUploadMB = 20
	defaultLogLevel          = "info"
	defaultLogFormat         = "auto"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Store: Store{
			Driver:     defaultStoreDriver,
			SQLitePath: defaultSQLitePath,
			RedisURL:   defaultRedisURL,
			KeyPrefix:  defaultKeyPrefix,
		},
		Gemini: Gemini{
			BaseURL:        defaultGeminiBaseURL,
			Model:          defaultGeminiModel,
			AnalysisModel:  defaultGeminiAnalysis,
			TTSModel:       defaultGeminiTTSModel,
			Voice:          defaultGeminiVoice,
			TimeoutSeconds: defaultGeminiTimeout,
			WebSearch:      true,
		},
		Server: Server{
			Bind: defaultServerBind,
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			},
			MaxUploadMB: defaultServerMaxUploadMB,
		},
		Log: Log{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
