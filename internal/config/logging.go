package config

import (
	"strings"

	"github.com/rshade/greenledger/internal/logging"
)

// ToLoggingConfig converts the logging section into a logging.Config. A set
// File selects file output; otherwise logs go to stderr. Caller information
// is attached only at trace level.
func (lc *LoggingConfig) ToLoggingConfig() logging.Config {
	output := logging.OutputStderr
	if lc.File != "" {
		output = logging.OutputFile
	}

	return logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: output,
		File:   lc.File,
		Caller: strings.EqualFold(lc.Level, "trace"),
	}
}

// GetLoggingConfig returns a copy of the global logging section. Flag
// overrides such as --debug are applied by the caller.
func GetLoggingConfig() LoggingConfig {
	return GetGlobalConfig().Logging
}
