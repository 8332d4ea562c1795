package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/omochice/socket-chat-client/internal/chat"
	"github.com/omochice/socket-chat-client/internal/config"
	"github.com/omochice/socket-chat-client/internal/logging"
	"github.com/omochice/socket-chat-client/internal/transport/ws"
)

func main() {
	fs := flag.NewFlagSet("devserver", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to a YAML config file")
	fs.String("addr", "", "Address to listen on (e.g., 127.0.0.1:8000)")
	fs.String("channel", "", "Channel used when a login names none")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
	fs.Parse(os.Args[1:])

	cfg, err := config.LoadServer(*configPath)
	if err == nil {
		err = cfg.ApplyFlags(fs)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "devserver:", err)
		os.Exit(1)
	}

	logger, err := logging.Console(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "devserver:", err)
		os.Exit(1)
	}

	srv := ws.New(cfg.Addr, chat.NewHub(cfg.Channel, logger), logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("channel", cfg.Channel).Msg("starting development server")
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			logger.Fatal().Err(err).Msg("server error")
		}
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		srv.Stop()
	}

	logger.Info().Msg("development server stopped")
}
