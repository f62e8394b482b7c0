package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/marcus/academy/internal/config"
	"github.com/marcus/academy/internal/serve"
	"github.com/marcus/academy/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the academy fragment server",
	Long: `Start the HTTP server that renders the admin UI as HTML fragments.

The server speaks the partial-update protocol the browser front end
uses: fragment GETs return rendered HTML, successful mutations return
204 with an HX-Trigger header, and /events pushes refresh triggers to
connected clients. It supports optional bearer token authentication
and CORS for browser-based clients.

If --port is 0 (the default), a random available port is assigned.
The actual port is written to .academy/serve-port for discovery.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (0 = auto-assign)")
	serveCmd.Flags().StringP("addr", "a", "localhost", "Address to bind to")
	serveCmd.Flags().String("token", "", "Bearer token for authentication (optional)")
	serveCmd.Flags().String("cors", "", "Allowed CORS origin (optional, e.g. http://localhost:3000)")
	serveCmd.Flags().Duration("interval", 15*time.Second, "SSE keepalive ping interval")
}

func runServe(cmd *cobra.Command, args []string) error {
	dir := getBaseDir()

	st, err := store.Open(dir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	// SQLite in WAL mode serializes writers anyway; one connection avoids
	// busy errors under concurrent handlers.
	st.SetMaxOpenConns(1)

	port, _ := cmd.Flags().GetInt("port")
	addr, _ := cmd.Flags().GetString("addr")
	token, _ := cmd.Flags().GetString("token")
	cors, _ := cmd.Flags().GetString("cors")
	interval, _ := cmd.Flags().GetDuration("interval")

	// Fall back to the config file for flags not set explicitly.
	if cfg, err := config.Load(dir); err == nil {
		if !flagChanged(cmd.Flags(), "token") && cfg.Token != "" {
			token = cfg.Token
		}
		if !flagChanged(cmd.Flags(), "interval") && cfg.PollInterval != "" {
			interval = config.PollInterval(cfg)
		}
	}

	srv := serve.NewServer(st, serve.ServeConfig{
		Port:         port,
		Addr:         addr,
		Token:        token,
		CORSOrigin:   cors,
		PingInterval: interval,
	})

	listenAddr := fmt.Sprintf("%s:%d", addr, port)
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", listenAddr, err)
	}

	actualPort := ln.Addr().(*net.TCPAddr).Port
	portInfo := &serve.PortInfo{
		Port:      actualPort,
		PID:       os.Getpid(),
		StartedAt: time.Now(),
	}
	if err := serve.WritePortFile(dir, portInfo); err != nil {
		ln.Close()
		return fmt.Errorf("write port file: %w", err)
	}
	defer func() { _ = serve.DeletePortFile(dir) }()

	fmt.Fprintf(os.Stderr, "academy serve listening on http://%s:%d\n", addr, actualPort)
	fmt.Fprintf(os.Stderr, "  base dir:   %s\n", st.BaseDir())
	fmt.Fprintf(os.Stderr, "  database:   %s\n", filepath.Join(st.BaseDir(), ".academy", "users.db"))
	fmt.Fprintf(os.Stderr, "  port file:  %s\n", filepath.Join(st.BaseDir(), ".academy", "serve-port"))
	if n, err := st.CountUsers(); err == nil {
		fmt.Fprintf(os.Stderr, "  users:      %d\n", n)
		if n == 0 {
			fmt.Fprintf(os.Stderr, "  hint: run 'academy adduser' to create the first admin\n")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ctx, ln)
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	fmt.Fprintf(os.Stderr, "academy serve stopped\n")
	return nil
}
