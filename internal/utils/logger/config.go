// internal/utils/logger/config.go
package logger

// Config controls logger output and rotation.
type Config struct {
	LogFile     string
	MaxSize     int // megabytes per file before rotation
	MaxBackups  int
	MaxAge      int // days
	Compress    bool
	Development bool
}

// DefaultConfig returns production logging defaults.
func DefaultConfig() *Config {
	return &Config{
		LogFile:    "logs/launchpad.log",
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
	}
}
