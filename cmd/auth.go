package main

import (
	"context"
	"time"

	"github.com/desertthunder/spotifetch/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthToken obtains a client-credentials token and prints its type and expiry.
//
// The token value is masked unless --show is given.
func (r *Runner) AuthToken(ctx context.Context, cmd *cli.Command) error {
	client, err := r.requireClient()
	if err != nil {
		return err
	}

	if cmd.Bool("force") {
		r.logger.Info("forcing token refresh")
		if _, err := client.Authenticate(ctx, true); err != nil {
			return err
		}
	}

	token, err := client.Token()
	if err != nil {
		return err
	}

	value := shared.MaskSecret(token.AccessToken)
	if cmd.Bool("show") {
		value = token.AccessToken
	}

	r.writePlain("✓ Authenticated with client credentials\n")
	r.writePlain("Token type: %s\n", token.Type())
	r.writePlain("Expires: %s (in %s)\n", token.Expiry.Format(time.RFC3339), time.Until(token.Expiry).Round(time.Second))
	r.writePlain("Access token: %s\n", value)
	return nil
}
