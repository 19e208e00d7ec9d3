// Copyright 2021 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// The mucbridge command logs in to an XMPP server and lets websocket clients
// use multi-user chat through JSON events.
//
// For more information try running:
//
//     mucbridge --help
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"mellium.im/legacy/compress"
	"mellium.im/mucbridge/bridge"
	"mellium.im/mucbridge/muc"
	"mellium.im/sasl"
	"mellium.im/xmpp"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := loadConfig(os.Args[0], os.Args[1:], os.Stderr)
	switch {
	case errors.Is(err, pflag.ErrHelp):
		return
	case err != nil:
		log.Fatal().Err(err).Msg("bad configuration")
	}
	level, err := cfg.level()
	if err != nil {
		log.Fatal().Err(err).Msg("bad configuration")
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Pass == "" {
		log.Debug().Msgf("the environment variable $%s is empty", envPass)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("mucbridge stopped")
	}
}

func run(ctx context.Context, cfg config, logger zerolog.Logger) error {
	j, err := jid.Parse(cfg.Addr)
	if err != nil {
		return fmt.Errorf("error parsing address %q: %w", cfg.Addr, err)
	}

	features := []xmpp.StreamFeature{xmpp.BindResource()}
	if !cfg.NoTLS {
		features = append(features, xmpp.StartTLS(&tls.Config{
			ServerName: j.Domain().String(),
			MinVersion: tls.VersionTLS12,
		}))
	}
	features = append(features, xmpp.SASL("", cfg.Pass, sasl.ScramSha1Plus, sasl.ScramSha1, sasl.Plain))
	if cfg.Compress {
		features = append(features, compress.New(compress.LZW))
	}

	session, err := xmpp.DialClientSession(ctx, j, features...)
	if err != nil {
		return fmt.Errorf("error establishing a session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Debug().Err(err).Msg("error closing session")
		}
	}()
	logger.Info().Str("jid", session.LocalAddr().String()).Msg("logged in")

	client := muc.NewClient(session)
	client.Logger = logger.With().Str("component", "muc").Logger()
	h := newHub(logger.With().Str("component", "hub").Logger())
	b := bridge.New(client, h, bridge.Logger(logger.With().Str("component", "bridge").Logger()))
	h.bridge = b

	err = session.Send(ctx, stanza.Presence{Type: stanza.AvailablePresence}.Wrap(nil))
	if err != nil {
		return fmt.Errorf("error sending initial presence: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.Listen).Strs("events", b.Events()).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server error")
			session.Close()
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server forced to shut down")
		}
		session.Close()
	}()

	err = session.Serve(client.Handler(nil))
	if ctx.Err() != nil {
		return nil
	}
	return err
}
