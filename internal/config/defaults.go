package config

import (
	"runtime"
	"time"
)

const (
	defaultMaxAge    = 7 * 24 * time.Hour
	defaultHighWater = 20
	defaultRetain    = 10
)

func (c *Config) applyDefaults() {
	if c.Output == "" {
		c.Output = "./site"
	}
	if len(c.Include) == 0 {
		c.Include = []string{"**/*"}
	}
	if c.Parallelism == 0 {
		c.Parallelism = runtime.NumCPU()
	}
	if c.Cache.Scope == "" {
		c.Cache.Scope = CacheScopeApplication
	}
	if c.Cache.MaxAge == 0 {
		c.Cache.MaxAge = Duration(defaultMaxAge)
	}
	if c.Cache.HighWater == 0 {
		c.Cache.HighWater = defaultHighWater
	}
	if c.Cache.Retain == 0 {
		c.Cache.Retain = min(defaultRetain, c.Cache.HighWater)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = LogLevelInfo
	}
	if c.Logging.Format == "" {
		c.Logging.Format = LogFormatText
	}
}
