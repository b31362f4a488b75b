// File: cmd/netsessd/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// netsessd is a small session daemon over the netsess library: it
// accepts TCP connections, runs the session workers, and echoes
// buffered input back to the peer.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/momentics/netsess/control"
	"github.com/momentics/netsess/server"
	"github.com/momentics/netsess/session"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "netsessd",
		Short: "Session management daemon",
	}
	root.AddCommand(serveCmd())
	return root
}

func serveCmd() *cobra.Command {
	var (
		addr      string
		debug     bool
		watchPath string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept connections and serve sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(log)

			cfg, err := control.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if watchPath != "" {
				store := control.NewConfigStore(cfg)
				go func() {
					if err := control.Watch(ctx, watchPath, store, log); err != nil && ctx.Err() == nil {
						log.Warn("config watch stopped", "err", err)
					}
				}()
			}

			srv := server.New(
				server.WithConfig(cfg),
				server.WithLogger(log),
				server.WithHandler(echoHandler),
			)
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides NETSESS_LISTEN_ADDR)")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	cmd.Flags().StringVar(&watchPath, "watch-config", "", "env file to watch for hot reload")
	return cmd
}

// echoHandler sends back whatever the receive worker buffered.
func echoHandler(s *session.Session) {
	buf := make([]byte, 4096)
	for s.IsActive() {
		n, err := s.ReadBuffered(buf)
		if err != nil {
			return
		}
		if n == 0 {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if err := s.EnqueueSend(buf[:n]); err != nil {
			return
		}
	}
}
