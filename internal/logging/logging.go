// Package logging builds the leveled logger shared by the acquisition layer and the HTTP server.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/labstack/gommon/log"
)

const textHeader = "${time_rfc3339} ${level} ${prefix}"

// Logger is the subset of the gommon logger the components depend on.
// *log.Logger from gommon satisfies it, and so does echo.Logger.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// New returns a text logger writing to w at the given level (debug, info, warn, error, off).
func New(level string, w io.Writer) (*log.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	l := log.New("notionblog")
	l.SetHeader(textHeader)
	l.SetOutput(w)
	l.SetLevel(lvl)
	return l, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	l := log.New("notionblog")
	l.SetOutput(io.Discard)
	l.SetLevel(log.OFF)
	return l
}

// ParseLevel maps a config level name to a gommon level.
func ParseLevel(level string) (log.Lvl, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DEBUG, nil
	case "", "info":
		return log.INFO, nil
	case "warn", "warning":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (want debug, info, warn, error or off)", level)
	}
}
