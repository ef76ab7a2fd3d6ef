package config

const (
	defaultDataDir          = "~/.local/share/jokebox"
	defaultLogDir           = "~/.local/share/jokebox/logs"
	defaultRequestTimeout   = 15
	defaultFetchLimit       = 20
	defaultLocalCatalogMax  = 50
	defaultUserAgent        = "jokebox/0.1"
	defaultBatchSize        = 50
	defaultNearDupThreshold = 3
	defaultFailCap          = 3
	defaultHashLength       = 32
	defaultAgeTier          = 2
	defaultLanguage         = "zh-Hans"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Fetch: Fetch{
			RequestTimeout:  defaultRequestTimeout,
			DefaultLimit:    defaultFetchLimit,
			LocalCatalogMax: defaultLocalCatalogMax,
			UserAgent:       defaultUserAgent,
		},
		Process: Process{
			BatchSize:        defaultBatchSize,
			NearDupThreshold: defaultNearDupThreshold,
			FailCap:          defaultFailCap,
			HashLength:       defaultHashLength,
		},
		Content: Content{
			AgeTier:  defaultAgeTier,
			Language: defaultLanguage,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
