// Package logging configures the logrus logger shared by the launcher
// and the init process.
package logging

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// DefaultLevel keeps a successful run quiet.
const DefaultLevel = "warn"

// Log formats accepted by Configure.
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

// Configure points l at out with the given level and format. The auto
// format (also used for an empty string) writes coloured text to a
// terminal and JSON to anything else.
func Configure(l *logrus.Logger, level, format string, out *os.File) error {
	if level == "" {
		level = DefaultLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	var formatter logrus.Formatter
	switch format {
	case "", FormatAuto:
		if term.IsTerminal(int(out.Fd())) {
			formatter = &logrus.TextFormatter{ForceColors: true, FullTimestamp: true}
		} else {
			formatter = &logrus.JSONFormatter{}
		}
	case FormatText:
		formatter = &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}
	case FormatJSON:
		formatter = &logrus.JSONFormatter{}
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	l.SetOutput(out)
	l.SetLevel(lvl)
	l.SetFormatter(formatter)
	return nil
}
