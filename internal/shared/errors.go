package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// API and service errors
	ErrAPIRequest   = fmt.Errorf("API request failed")
	ErrTaskNotFound = fmt.Errorf("task not found")
	ErrTaskFailed   = fmt.Errorf("task failed")
	ErrPollLimit    = fmt.Errorf("task did not finish within the polling limit")

	// Alignment resolution errors
	ErrNoAlignmentTarget = fmt.Errorf("task has no alignment target")
	ErrNoAlignmentOutput = fmt.Errorf("task has no alignment JSON output")
	ErrNoPlayableAudio   = fmt.Errorf("no playable audio found")
	ErrAssetNotFound     = fmt.Errorf("asset not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
