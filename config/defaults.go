package config

import "time"

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Engine:    DefaultEngineConfig(),
		Ollama:    DefaultOllamaConfig(),
		Redis:     DefaultRedisConfig(),
		Hitl:      DefaultHitlConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultEngineConfig returns the default scheduling settings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxConcurrency:     0,
		MergeSeparator:     " | ",
		DeterministicMerge: false,
		DefaultRetryLimit:  2,
		DefaultNodeTimeout: 2 * time.Minute,
	}
}

// DefaultOllamaConfig returns the default Ollama settings.
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		BaseURL: "http://localhost:11434",
		Timeout: 120 * time.Second,
		Model:   "llama3.2",
	}
}

// DefaultRedisConfig returns the default Redis settings.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     "localhost:6379",
		DB:       0,
		PoolSize: 10,
	}
}

// DefaultHitlConfig returns the default human-in-the-loop settings.
func DefaultHitlConfig() HitlConfig {
	return HitlConfig{
		Store:        "memory",
		RequestTTL:   24 * time.Hour,
		PollInterval: time.Second,
	}
}

// DefaultLogConfig returns the default logging settings.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "console",
		OutputPaths: []string{"stderr"},
	}
}

// DefaultTelemetryConfig returns the default tracing settings.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "agent-workflow",
		SampleRate:   1.0,
	}
}
