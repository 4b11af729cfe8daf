package common

import (
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LoggerNames lists every logger used by the dLock packages.
var LoggerNames = []string{
	"store",
	"primitives",
	"redlock",
	"lease",
	"lockmgr",
	"cli",
}

// levelNames maps the accepted spellings of a log level to the dragonboat level.
// The first spelling of each level is the one written to the log.
var levelNames = []struct {
	level    logger.LogLevel
	spelling []string
}{
	{logger.DEBUG, []string{"debug"}},
	{logger.INFO, []string{"info"}},
	{logger.WARNING, []string{"warn", "warning"}},
	{logger.ERROR, []string{"error"}},
	{logger.CRITICAL, []string{"crit", "critical"}},
}

// ParseLogLevel converts a level name (case insensitive) to a dragonboat log level
func ParseLogLevel(level string) (logger.LogLevel, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	for _, l := range levelNames {
		for _, s := range l.spelling {
			if s == level {
				return l.level, nil
			}
		}
	}
	return logger.INFO, fmt.Errorf("invalid log level %q, must be one of debug, info, warn, error", level)
}

func levelTag(level logger.LogLevel) string {
	for _, l := range levelNames {
		if l.level == level {
			return strings.ToUpper(l.spelling[0])
		}
	}
	return "?"
}

// --------------------------------------------------------------------------
// Line logger (implements dragonboat logger.ILogger)
// --------------------------------------------------------------------------

// lineLogger writes one line per message: time, level, logger name, message.
// Lines of all loggers sharing a writer are serialized by a common mutex.
type lineLogger struct {
	name  string
	level atomic.Int32
	out   *syncWriter
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lineLogger) SetLevel(level logger.LogLevel) {
	l.level.Store(int32(level))
}

func (l *lineLogger) Debugf(format string, args ...interface{}) {
	l.write(logger.DEBUG, format, args)
}

func (l *lineLogger) Infof(format string, args ...interface{}) {
	l.write(logger.INFO, format, args)
}

func (l *lineLogger) Warningf(format string, args ...interface{}) {
	l.write(logger.WARNING, format, args)
}

func (l *lineLogger) Errorf(format string, args ...interface{}) {
	l.write(logger.ERROR, format, args)
}

// Panicf logs the message and panics regardless of the level
func (l *lineLogger) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.write(logger.CRITICAL, "%s", []interface{}{msg})
	panic(msg)
}

func (l *lineLogger) write(level logger.LogLevel, format string, args []interface{}) {
	if logger.LogLevel(l.level.Load()) < level {
		return
	}
	line := fmt.Sprintf("%s %-5s | %-10s | %s\n",
		time.Now().Format("2006/01/02 15:04:05"), levelTag(level), l.name, fmt.Sprintf(format, args...))

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	_, _ = io.WriteString(l.out.w, line)
}

// --------------------------------------------------------------------------
// Factory
// --------------------------------------------------------------------------

// NewLoggerFactory returns a dragonboat logger factory writing to w.
// New loggers start at INFO.
func NewLoggerFactory(w io.Writer) logger.Factory {
	out := &syncWriter{w: w}
	return func(name string) logger.ILogger {
		l := &lineLogger{name: name, out: out}
		l.SetLevel(logger.INFO)
		return l
	}
}

var factoryOnce sync.Once

// InitLoggers installs the dLock line logger (writing to stderr, so logs never
// mix with the output of commands run under a lock) and sets the level of all
// dLock loggers
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	factoryOnce.Do(func() {
		logger.SetLoggerFactory(NewLoggerFactory(os.Stderr))
	})

	for _, name := range LoggerNames {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
