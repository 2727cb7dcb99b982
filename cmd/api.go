package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/spotifetch/internal/shared"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
)

// APIGet makes an authenticated GET to the Web API and prints the JSON body.
//
// Relative paths resolve against the configured API URL. With --query only the matching gjson value is printed.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	client, err := r.requireClient()
	if err != nil {
		return err
	}

	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: API path or URL is required", shared.ErrMissingArgument)
	}

	url := client.URL(path)
	r.logger.Info("GET request", "url", url)

	body, err := client.FetchAuthenticated(ctx, url)
	if err != nil {
		return err
	}

	if query := cmd.String("query"); query != "" {
		res := gjson.GetBytes(body, query)
		if !res.Exists() {
			return fmt.Errorf("%w: no value at %q", shared.ErrInvalidArgument, query)
		}
		if res.IsObject() || res.IsArray() {
			return r.writeJSON(json.RawMessage(res.Raw), cmd.Bool("pretty"))
		}
		return r.writePlain("%s\n", res.String())
	}

	return r.writeJSON(body, cmd.Bool("pretty"))
}
