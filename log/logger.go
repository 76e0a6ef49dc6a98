package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"
)

type Level logging.Level

// The levels that can be passed to the SetLevel function.
const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var levelNames = map[string]Level{
	"debug":   Debug,
	"info":    Info,
	"notice":  Notice,
	"warning": Warning,
	"error":   Error,
}

// The logger format
var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
)

// The internal leveled logger backend
var leveledBackend logging.LeveledBackend

// The logger interface
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// Create a new named logger. The name is reported as the log module.
func New(name string) Logger {
	return logging.MustGetLogger(name)
}

// Override the backend output sink. The current verbosity is retained.
func SetSink(sink io.Writer) {
	level := Notice
	if leveledBackend != nil {
		level = fromGoLogging(leveledBackend.GetLevel(""))
	}

	backend := logging.NewLogBackend(sink, "", 0)
	backendWithFormatter := logging.NewBackendFormatter(backend, format)
	leveledBackend = logging.AddModuleLevel(backendWithFormatter)
	logging.SetBackend(leveledBackend)
	SetLevel(level)
}

// Set logger verbosity.
func SetLevel(level Level) {
	leveledBackend.SetLevel(toGoLogging(level), "")
}

// Parse a level name (debug, info, notice, warning, error).
func ParseLevel(name string) (Level, error) {
	level, exists := levelNames[strings.ToLower(strings.TrimSpace(name))]
	if !exists {
		return Notice, fmt.Errorf("log: unknown level %q", name)
	}
	return level, nil
}

func (l Level) String() string {
	for name, level := range levelNames {
		if level == l {
			return name
		}
	}
	return "unknown"
}

func toGoLogging(level Level) logging.Level {
	switch level {
	case Debug:
		return logging.DEBUG
	case Info:
		return logging.INFO
	case Warning:
		return logging.WARNING
	case Error:
		return logging.ERROR
	}
	return logging.NOTICE
}

func fromGoLogging(level logging.Level) Level {
	switch level {
	case logging.DEBUG:
		return Debug
	case logging.INFO:
		return Info
	case logging.WARNING:
		return Warning
	case logging.ERROR, logging.CRITICAL:
		return Error
	}
	return Notice
}

func init() {
	SetSink(os.Stdout)
	SetLevel(Notice)
}
