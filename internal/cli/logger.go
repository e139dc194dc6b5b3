// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/gohl/hlsdk/internal/extract"
)

// newLogger returns the status logger for one command run. Output that is
// not a terminal gets logfmt lines.
func newLogger(w io.Writer, prefix string, verbose bool) *log.Logger {
	opts := log.Options{Prefix: prefix}
	if verbose {
		opts.Level = log.DebugLevel
	}
	if !isTerminal(w) {
		opts.Formatter = log.LogfmtFormatter
	}
	return log.NewWithOptions(w, opts)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// progressLogger turns extraction events into status lines.
func progressLogger(logger *log.Logger) func(extract.Event) {
	return func(ev extract.Event) {
		switch ev.Kind {
		case extract.EventEntry:
			logger.Infof("Extracting %s", ev.Name)
		case extract.EventPercent:
			logger.Infof("%d%% complete", ev.Percent)
		}
	}
}
