package config

import "path/filepath"

const (
	defaultPlatform             = "pegasus"
	defaultLaunch               = `/opt/retropie/supplementary/runcommand/runcommand.sh 0 _SYS_ zxspectrum "{file.path}"`
	defaultCollection           = "ZX Spectrum"
	defaultShortName            = "zxspectrum"
	defaultZXInfoBaseURL        = "https://api.zxinfo.dk/v3"
	defaultMediaBaseURL         = "https://zxinfo.dk/media"
	defaultWikipediaBaseURL     = "https://en.wikipedia.org/api/rest_v1"
	defaultIGDBBaseURL          = "https://api.igdb.com/v4"
	defaultTwitchTokenURL       = "https://id.twitch.tv/oauth2/token"
	defaultUserAgent            = "zxspectrum-frontend-meta-generator"
	defaultLookupTimeoutSeconds = 20
	defaultWorkers              = 4
	maxWorkers                  = 32
	defaultExtractor            = "7za"
	defaultFailedLogName        = "failed.log"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogMaxSizeMB         = 10
	defaultLogMaxBackups        = 3
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	data := defaultDataDir()
	return Config{
		Paths: Paths{
			CacheDir:      filepath.Join(data, "cache"),
			DescriptionDB: filepath.Join(data, "descriptions.db"),
			LogDir:        filepath.Join(data, "logs"),
			FailedLogName: defaultFailedLogName,
		},
		Output: Output{
			Platform:   defaultPlatform,
			Launch:     defaultLaunch,
			Collection: defaultCollection,
			ShortName:  defaultShortName,
			DecodeText: true,
		},
		Lookup: Lookup{
			ZXInfoBaseURL:    defaultZXInfoBaseURL,
			MediaBaseURL:     defaultMediaBaseURL,
			WikipediaBaseURL: defaultWikipediaBaseURL,
			IGDBBaseURL:      defaultIGDBBaseURL,
			TwitchTokenURL:   defaultTwitchTokenURL,
			UserAgent:        defaultUserAgent,
			TimeoutSeconds:   defaultLookupTimeoutSeconds,
			Workers:          defaultWorkers,
		},
		Scan: Scan{
			Include:   []string{"**/*"},
			Extractor: defaultExtractor,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
		},
	}
}
