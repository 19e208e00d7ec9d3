// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"io"
	"os"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

var configTestCases = [...]struct {
	env   map[string]string
	args  []string
	err   bool
	cfg   config
	level zerolog.Level
}{
	0: {
		env:   map[string]string{"XMPP_ADDR": "me@example.net"},
		cfg:   config{Addr: "me@example.net", Listen: "localhost:8080", LogLevel: "info"},
		level: zerolog.InfoLevel,
	},
	1: {
		env:   map[string]string{"XMPP_ADDR": "me@example.net", "LOG_LEVEL": "warn", "MUCBRIDGE_COMPRESS": "true"},
		args:  []string{"--addr", "you@example.org", "-l", ":9000", "--no-tls"},
		cfg:   config{Addr: "you@example.org", Listen: ":9000", LogLevel: "warn", Compress: true, NoTLS: true},
		level: zerolog.WarnLevel,
	},
	2: {
		args:  []string{"--addr", "me@example.net", "-vv"},
		cfg:   config{Addr: "me@example.net", Listen: "localhost:8080", LogLevel: "info", verbose: 2},
		level: zerolog.TraceLevel,
	},
	3: {
		err: true,
	},
	4: {
		env: map[string]string{"MUCBRIDGE_NO_TLS": "maybe"},
		err: true,
	},
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"XMPP_ADDR", "XMPP_PASS", "MUCBRIDGE_LISTEN", "MUCBRIDGE_COMPRESS", "MUCBRIDGE_NO_TLS", "LOG_LEVEL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestConfig(t *testing.T) {
	for i, tc := range configTestCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			cfg, err := loadConfig("mucbridge", tc.args, io.Discard)
			if tc.err {
				if err == nil {
					t.Fatalf("expected error, got config %+v", cfg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg != tc.cfg {
				t.Errorf("wrong config: want=%+v, got=%+v", tc.cfg, cfg)
			}
			level, err := cfg.level()
			if err != nil {
				t.Fatalf("unexpected error parsing level: %v", err)
			}
			if level != tc.level {
				t.Errorf("wrong level: want=%v, got=%v", tc.level, level)
			}
		})
	}
}

func TestConfigHelp(t *testing.T) {
	clearEnv(t)
	_, err := loadConfig("mucbridge", []string{"-h"}, io.Discard)
	if !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("want pflag.ErrHelp, got %v", err)
	}
}
