package main

import (
	"context"
	"net"
	"strconv"

	"github.com/desertthunder/spotifetch/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the playlist HTTP server until the context is canceled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	client, err := r.requireClient()
	if err != nil {
		return err
	}

	host, port := r.config.Server.Host, r.config.Server.Port
	if cmd.IsSet("host") {
		host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		port = cmd.Int("port")
	}

	srv := server.New(net.JoinHostPort(host, strconv.Itoa(port)), client, r.logger)
	r.writePlain("Serving playlists on http://%s\n", srv.Addr())
	return srv.ListenAndServe(ctx)
}
