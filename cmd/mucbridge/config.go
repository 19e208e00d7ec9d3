// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

/* #nosec */
const (
	envAddr = "XMPP_ADDR"
	envPass = "XMPP_PASS"
)

type config struct {
	Addr     string `env:"XMPP_ADDR"`
	Pass     string `env:"XMPP_PASS"`
	Listen   string `env:"MUCBRIDGE_LISTEN" envDefault:"localhost:8080"`
	Compress bool   `env:"MUCBRIDGE_COMPRESS"`
	NoTLS    bool   `env:"MUCBRIDGE_NO_TLS"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	verbose int
}

// loadConfig reads the environment and then lets flags override it.
func loadConfig(name string, args []string, output io.Writer) (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(output)
	flags.Usage = func() {
		fmt.Fprintf(output, "Usage of %s:\n", name)
		fmt.Fprintf(output, "\n  $%s: The JID used to log in\n  $%s: The password\n\n", envAddr, envPass)
		flags.PrintDefaults()
	}
	flags.StringVar(&cfg.Addr, "addr", cfg.Addr, "the JID used to log in")
	flags.StringVarP(&cfg.Listen, "listen", "l", cfg.Listen, "the address to accept websocket connections on")
	flags.BoolVar(&cfg.Compress, "compress", cfg.Compress, "negotiate stream compression")
	flags.BoolVar(&cfg.NoTLS, "no-tls", cfg.NoTLS, "do not negotiate StartTLS")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "the minimum level to log")
	flags.CountVarP(&cfg.verbose, "verbose", "v", "turns on debug logging, repeat to log trace output")

	if err := flags.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.Addr == "" {
		return cfg, fmt.Errorf("address not specified, use the --addr flag or set $%s", envAddr)
	}
	return cfg, nil
}

// level returns the log level, letting -v lower it.
func (c config) level() (zerolog.Level, error) {
	switch {
	case c.verbose > 1:
		return zerolog.TraceLevel, nil
	case c.verbose == 1:
		return zerolog.DebugLevel, nil
	}
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parse log level: %w", err)
	}
	return level, nil
}
