// Command cuba-server serves approximate search and alignment over a
// prebuilt index as a REST API.
//
// Usage:
//
//	cuba-server --index ref.bifmi [--sequences ref.seqs] [options]
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aria-lang/cuba-go/api/handlers"
	"github.com/aria-lang/cuba-go/api/middleware"
	"github.com/aria-lang/cuba-go/internal/config"
	"github.com/aria-lang/cuba-go/internal/logging"
	"github.com/aria-lang/cuba-go/internal/storage"
	"github.com/aria-lang/cuba-go/pkg/cuba"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		confPath string
		verbose  bool
	)
	flags := config.Default()

	cmd := &cobra.Command{
		Use:           "cuba-server",
		Short:         "REST API for approximate search over an FM-index",
		Version:       cuba.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(os.Stderr, verbose)
			fileConf, err := config.LoadFile(confPath)
			if err != nil {
				logger.WithError(err).Error("loading configuration")
				return err
			}
			conf := flags.FlagMerge(fileConf, cmd.Flags().Changed)
			if err := serve(conf, logger); err != nil {
				logger.WithError(err).Error("server failed")
				return err
			}
			return nil
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	f := cmd.Flags()
	f.StringVarP(&confPath, "config", "c", "", "TOML configuration file")
	f.BoolVarP(&verbose, "verbose", "v", false, "Log debug output")
	f.StringVar(&flags.Server.Addr, "addr", flags.Server.Addr, "Address to listen on")
	f.StringVarP(&flags.Server.IndexPath, "index", "i", "", "Index file (.fmi or .bifmi)")
	f.StringVarP(&flags.Server.SequencesPath, "sequences", "s", "", "Sequence file written by 'cuba index --vector'")
	f.IntVar(&flags.Server.TimeoutSeconds, "timeout", flags.Server.TimeoutSeconds, "Per-request timeout in seconds")
	f.IntVarP(&flags.Search.Threads, "threads", "t", flags.Search.Threads, "Worker threads for batch search and realignment")
	return cmd
}

func serve(conf *config.Conf, logger *log.Logger) error {
	if conf.Server.IndexPath == "" {
		return errors.New("no index given, set --index or server.index_path")
	}
	kind, err := storage.KindOf(conf.Server.IndexPath)
	if err != nil {
		return err
	}
	engine, err := cuba.Open(conf.Server.IndexPath, conf.Server.SequencesPath, kind, logger)
	if err != nil {
		return err
	}

	timeout := time.Duration(conf.Server.TimeoutSeconds) * time.Second
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(timeout))
	handlers.New(engine, conf, logger).Routes(r)

	server := &http.Server{
		Addr:         conf.Server.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan error, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("server is shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		done <- server.Shutdown(ctx)
	}()

	logger.Infof("cuba API server listening on http://%s", conf.Server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listening on %s: %w", conf.Server.Addr, err)
	}
	if err := <-done; err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
