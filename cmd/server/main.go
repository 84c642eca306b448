package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hearthcall/hearth/internal/adapter/driven/directory/file"
	"github.com/hearthcall/hearth/internal/adapter/driven/gateway/ws"
	"github.com/hearthcall/hearth/internal/adapter/driven/notify/smtp"
	"github.com/hearthcall/hearth/internal/adapter/driven/store/memory"
	handler "github.com/hearthcall/hearth/internal/adapter/driving/http"
	"github.com/hearthcall/hearth/internal/config"
	"github.com/hearthcall/hearth/internal/core/port"
	"github.com/hearthcall/hearth/internal/core/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var l zerolog.Logger
	if cfg.Logging.Pretty {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	} else {
		l = zerolog.New(os.Stdout)
	}
	l = l.Level(level).With().Timestamp().Logger()
	log.Logger = l

	contacts, err := file.New(cfg.Directory.File)
	if err != nil {
		l.Fatal().Err(err).Str("path", cfg.Directory.File).Msg("Failed to load contact directory")
	}

	var invites port.InviteSender = smtp.Noop{}
	if cfg.SMTP.Host != "" {
		invites = smtp.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		l.Warn().Msg("SMTP not configured, invitations disabled")
	}

	registry := memory.NewRegistry()
	rooms := memory.NewRoomStore()
	lifecycle := service.NewLifecycle(registry, rooms)
	router := service.NewRouter(registry, rooms, lifecycle)

	callService := service.NewCallService(rooms, contacts, invites, cfg.Call.JoinBaseURL)
	directoryService := service.NewDirectoryService(contacts)

	hub := ws.NewHub()
	h := handler.NewHandler(callService, directoryService, router, hub, registry, cfg)

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: h.NewRouter(),
	}

	go func() {
		l.Info().Str("addr", cfg.HTTP.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	l.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("Server forced to shutdown")
	}

	hub.Stop()
	l.Info().Msg("Server exited")
}
