package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/scoutfm/scoutfm/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the scout HTTP API until the process is stopped.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.openArchive(); err != nil {
		r.logger.Warn("archive unavailable, serving without persistence", "err", err)
	}
	if r.db != nil {
		defer r.db.Close()
	}

	serverConfig := r.config.Server
	if host := cmd.String("host"); host != "" {
		serverConfig.Host = host
	}
	if port := int(cmd.Int("port")); port != 0 {
		serverConfig.Port = port
	}

	api := server.NewJobAPI(r.engine, r.archive, r.logger)
	router := server.NewRouter(api, serverConfig)

	addr := net.JoinHostPort(serverConfig.Host, strconv.Itoa(serverConfig.Port))
	httpServer := &http.Server{Addr: addr, Handler: router}

	r.logger.Info("listening", "addr", addr, "protected", serverConfig.APIKey != "")

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
