package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"golang.org/x/term"
)

// logOptions come from the environment so logging can be tuned
// without touching the config file.
type logOptions struct {
	Debug   bool   `env:"KOE_DEBUG"`
	LogFile string `env:"KOE_LOG_FILE"`
}

// setupLog configures the global logger and returns a closer for any
// log file it opened.
func setupLog() (func() error, error) {
	opts, err := env.ParseAs[logOptions]()
	if err != nil {
		return nil, fmt.Errorf("error parsing log options: %w", err)
	}

	log.SetTimeFormat(time.Kitchen)
	if opts.Debug {
		log.SetLevel(log.DebugLevel)
		log.SetReportCaller(true)
	}

	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("error opening log file: %w", err)
		}
		log.SetOutput(f)
		return f.Close, nil
	}

	// Keep stdout clean for command output; logs go to stderr, and
	// are dropped entirely when stderr is not a terminal unless debug
	// logging was asked for.
	if !term.IsTerminal(int(os.Stderr.Fd())) && !opts.Debug {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stderr)
	}
	return func() error { return nil }, nil
}
