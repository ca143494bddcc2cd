package config

const (
	defaultDataDir              = "~/.local/share/enrichd"
	defaultLogDir               = "~/.local/share/enrichd/logs"
	defaultChannelsCSV          = "~/.config/enrichd/channels.csv"
	defaultBind                 = "127.0.0.1:8085"
	defaultAristoteTimeout      = 30
	defaultMediaServerTimeout   = 30
	defaultStuckAfterHours      = 2
	defaultResourceOrder        = "smallest"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultAristotePortalSuffix = "/enrichments"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			LogDir:      defaultLogDir,
			ChannelsCSV: defaultChannelsCSV,
		},
		Server: Server{
			Bind: defaultBind,
		},
		Aristote: Aristote{
			TimeoutSeconds: defaultAristoteTimeout,
		},
		MediaServer: MediaServer{
			TimeoutSeconds: defaultMediaServerTimeout,
		},
		Workflow: Workflow{
			StuckAfterHours: defaultStuckAfterHours,
			ResourceOrder:   defaultResourceOrder,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
