package config

// Version is the application version reported in presence tooltips and logs.
const Version = "1.4.0"

const (
	defaultConfigPath            = "~/.config/dawpresence/config.toml"
	defaultDataDir               = "~/.local/share/dawpresence"
	defaultLogDir                = "~/.local/share/dawpresence/logs"
	defaultCatalogFile           = "daws.json"
	defaultSettingsFile          = "settings.db"
	defaultSocketFile            = "dawpresence.sock"
	defaultLargeImage            = "icon"
	defaultIPCTimeoutSeconds     = 5
	defaultPollIntervalMS        = 2500
	defaultVersionProbeTimeoutMS = 500
	defaultNtfyTimeoutSeconds    = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"

	// MinPollIntervalMS and MaxPollIntervalMS bound the reconciliation period.
	MinPollIntervalMS int64 = 1000
	MaxPollIntervalMS int64 = 100_000_000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Presence: Presence{
			LargeImage:        defaultLargeImage,
			LargeText:         "DAWPresence v" + Version,
			IPCTimeoutSeconds: defaultIPCTimeoutSeconds,
		},
		Defaults: Defaults{
			PollIntervalMS: defaultPollIntervalMS,
		},
		Platform: Platform{
			VersionProbeTimeoutMS: defaultVersionProbeTimeoutMS,
			VersionProbeEnabled:   true,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
