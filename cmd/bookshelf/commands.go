package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ugur10/go-bookshelf/internal/books"
	"github.com/ugur10/go-bookshelf/internal/config"
	"github.com/ugur10/go-bookshelf/internal/logging"
	"github.com/ugur10/go-bookshelf/internal/metrics"
	"github.com/ugur10/go-bookshelf/internal/server"
	"github.com/ugur10/go-bookshelf/internal/tui"
)

var errNoTerminal = errors.New("the tui command needs an interactive terminal")

type app struct {
	configPath string
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "bookshelf",
		Short:         "Keep an in-memory list of books",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"path to a YAML config file (default "+config.DefaultPath+" if present)")

	root.AddCommand(newServeCmd(a), newTUICmd(a))
	return root
}

// seed returns the initial books, or none when seeding is disabled.
func (a *app) seed() []books.Book {
	if !a.cfg.Seed {
		return nil
	}
	return books.SeedData()
}

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the book list over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			out, closeLog, err := logging.Open(a.cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()
			logger, err := logging.New(a.cfg.Log, out)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			gin.SetMode(a.cfg.Server.Mode)

			seed := a.seed()
			repo := books.NewMemoryRepository(seed)

			var m *metrics.Collector
			if a.cfg.Metrics.Enabled {
				m = metrics.New()
				m.SetSize(len(seed))
				repo.OnChange(m.ObserveChange)
			}

			hub := server.NewHub(a.cfg.Websocket.Buffer, logger, m)
			repo.OnChange(hub.Broadcast)

			router := server.NewRouter(server.Options{
				Repo:        repo,
				Hub:         hub,
				Metrics:     m,
				MetricsPath: a.cfg.Metrics.Path,
				Logger:      logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("book list ready", "books", len(seed), "metrics", a.cfg.Metrics.Enabled)
			return server.Run(ctx, a.cfg.Server.Addr, router, logger, hub.Close)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the book list in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fd := os.Stdin.Fd()
			if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
				return errNoTerminal
			}

			// The screen owns the terminal, so logs go to a file or nowhere.
			out, closeLog, err := logging.Open(a.cfg.Log, io.Discard)
			if err != nil {
				return err
			}
			defer closeLog()
			logger, err := logging.New(a.cfg.Log, out)
			if err != nil {
				return err
			}

			return tui.Run(books.NewCollection(a.seed()...), logger)
		},
	}
}
