package observability

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// MigrateLogger adapts zerolog to golang-migrate's Logger interface.
type MigrateLogger struct {
	logger  zerolog.Logger
	verbose bool
}

// NewMigrateLogger creates a MigrateLogger that delegates to logger, adding a
// "component":"migrate" field. Verbose output is enabled when the logger
// level is debug or lower.
func NewMigrateLogger(logger zerolog.Logger) *MigrateLogger {
	return &MigrateLogger{
		logger:  logger.With().Str("component", "migrate").Logger(),
		verbose: logger.GetLevel() <= zerolog.DebugLevel,
	}
}

// Printf logs a formatted migration message at info level.
func (l *MigrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Info().Msg(strings.TrimRight(fmt.Sprintf(format, v...), "\n"))
}

// Verbose reports whether golang-migrate should emit detailed progress.
func (l *MigrateLogger) Verbose() bool {
	return l.verbose
}
