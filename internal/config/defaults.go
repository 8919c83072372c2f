package config

import "time"

const (
	defaultFetchWorkers  = 4
	defaultSourceTimeout = 30 * time.Second
	defaultInterval      = 15 * time.Minute
	defaultDebounce      = 2 * time.Second
	defaultSiteDataDir   = "./data"
	defaultCMSConfig     = "./admin/config.yml"
	defaultNotifySubject = "sitesync.runs"
)

// applyDefaults fills omitted settings in place. Validation runs after, so
// defaults only cover values a minimal config leaves out.
func applyDefaults(cfg *Config) {
	applyOutputDefaults(cfg)
	applyFetchDefaults(cfg)
	applyDaemonDefaults(cfg)
	applyNotifyDefaults(cfg)
}

func applyOutputDefaults(cfg *Config) {
	if cfg.Output.SiteDataDir == "" {
		cfg.Output.SiteDataDir = defaultSiteDataDir
	}
	if cfg.Output.CMSConfigPath == "" {
		cfg.Output.CMSConfigPath = defaultCMSConfig
	}
}

func applyFetchDefaults(cfg *Config) {
	if cfg.Fetch.Workers <= 0 {
		cfg.Fetch.Workers = defaultFetchWorkers
	}
	if cfg.Fetch.SourceTimeout == "" {
		cfg.Fetch.SourceTimeout = defaultSourceTimeout.String()
	}
}

func applyDaemonDefaults(cfg *Config) {
	if cfg.Daemon == nil {
		return
	}
	if cfg.Daemon.Interval == "" {
		cfg.Daemon.Interval = defaultInterval.String()
	}
	if cfg.Daemon.Debounce == "" {
		cfg.Daemon.Debounce = defaultDebounce.String()
	}
}

func applyNotifyDefaults(cfg *Config) {
	if cfg.Notify == nil {
		return
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = defaultNotifySubject
	}
}
