package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/alignx/internal/services"
	"github.com/desertthunder/alignx/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the alignment API
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	r.prepareKey()

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, !cmd.Bool("json"))
}

// APIPost makes a direct POST request to the alignment API
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}
	r.prepareKey()

	r.logger.Info("POST request", "path", path)

	resp, err := r.api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, true)
}

// prepareKey loads a saved key for raw requests when none is configured.
func (r *Runner) prepareKey() {
	if r.api.HasKey() {
		return
	}
	if err := r.openDB(); err != nil {
		r.logger.Warn("could not open database", "error", err)
		return
	}
	r.resolveKey()
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	r.logger.Debug("response", "status", resp.StatusCode, "request_id", resp.RequestID)
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}
