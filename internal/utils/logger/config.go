// internal/utils/logger/config.go
package logger

type Config struct {
	LogFile     string
	MaxSize     int  // megabytes
	MaxAge      int  // days
	MaxBackups  int  // number of files
	Compress    bool // compress rotated files
	Development bool
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		LogFile:     "launchpad.log",
		MaxSize:     100, // 100 MB
		MaxAge:      7,   // 7 days
		MaxBackups:  3,
		Compress:    true,
		Development: false,
	}
}
