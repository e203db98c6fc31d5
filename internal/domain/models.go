package domain

import (
	"encoding/json"
	"fmt"
)

// Models currently offered by the BFL API. Submit accepts any model name;
// these constants cover the documented ones.
const (
	ModelFluxPro11 = "flux-pro-1.1"
	ModelFluxPro   = "flux-pro"
	ModelFluxDev   = "flux-dev"
)

// Status is the lifecycle state the service reports for a generation task.
type Status string

const (
	StatusPending          Status = "Pending"
	StatusQueued           Status = "Queued"
	StatusReady            Status = "Ready"
	StatusError            Status = "Error"
	StatusFailed           Status = "Failed"
	StatusRequestModerated Status = "Request Moderated"
	StatusContentModerated Status = "Content Moderated"
	StatusNotFound         Status = "Task not found"

	// StatusUnknown covers any status string this client does not recognize.
	// Unknown statuses count as terminal failure so a poll loop never spins
	// forever on an undocumented state.
	StatusUnknown Status = "Unknown"
)

// ParseStatus maps a wire status string onto the known set, folding anything
// undocumented into StatusUnknown.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusPending, StatusQueued, StatusReady, StatusError, StatusFailed,
		StatusRequestModerated, StatusContentModerated, StatusNotFound:
		return Status(s)
	default:
		return StatusUnknown
	}
}

// Terminal reports whether no further transition is expected for a task in
// this status. Pending and Queued are the only non-terminal states.
func (s Status) Terminal() bool {
	switch s {
	case StatusPending, StatusQueued:
		return false
	default:
		return true
	}
}

// Succeeded reports whether this is the terminal-success state. Every other
// terminal state is a failure.
func (s Status) Succeeded() bool {
	return s == StatusReady
}

// Task is an immutable snapshot of one submitted generation job. Each poll
// produces a fresh snapshot; the service is the sole source of truth, so a
// Task is never mutated in place.
type Task struct {
	ID     string  `json:"id"`
	Status Status  `json:"status"`
	Result *Result `json:"result,omitempty"`
}

// Done reports whether the task has reached a terminal state, success or
// failure. Callers must still check Status (or Status.Succeeded) to tell
// which.
func (t Task) Done() bool {
	return t.Status.Terminal()
}

// Result is the payload produced once a task completes successfully. It is
// present on a Task exactly when the status is Ready.
type Result struct {
	// Prompt is the original text prompt, echoed back by the service.
	Prompt string `json:"prompt"`
	// Sample is the URL of the generated image. Empty when the service
	// returned null; the service may rotate this URL between polls.
	Sample string `json:"sample,omitempty"`
}

// FluxPro11Params are the generation options accepted by the flux-pro-1.1
// model. Zero-valued optional fields are omitted from the request body and
// fall back to the service defaults.
type FluxPro11Params struct {
	Prompt           string `json:"prompt"`
	Width            int    `json:"width,omitempty"`
	Height           int    `json:"height,omitempty"`
	PromptUpsampling bool   `json:"prompt_upsampling,omitempty"`
	Seed             int    `json:"seed,omitempty"`
	SafetyTolerance  int    `json:"safety_tolerance,omitempty"`
}

// FluxProParams are the generation options accepted by the flux-pro model.
// It extends FluxPro11Params with sampler controls.
type FluxProParams struct {
	Prompt           string  `json:"prompt"`
	Width            int     `json:"width,omitempty"`
	Height           int     `json:"height,omitempty"`
	PromptUpsampling bool    `json:"prompt_upsampling,omitempty"`
	Seed             int     `json:"seed,omitempty"`
	SafetyTolerance  int     `json:"safety_tolerance,omitempty"`
	Steps            int     `json:"steps,omitempty"`
	Guidance         float64 `json:"guidance,omitempty"`
	Interval         float64 `json:"interval,omitempty"`
}

// FluxDevParams are the generation options accepted by the flux-dev model.
// Same shape as FluxProParams minus the interval control; the service
// applies different defaults.
type FluxDevParams struct {
	Prompt           string  `json:"prompt"`
	Width            int     `json:"width,omitempty"`
	Height           int     `json:"height,omitempty"`
	PromptUpsampling bool    `json:"prompt_upsampling,omitempty"`
	Seed             int     `json:"seed,omitempty"`
	SafetyTolerance  int     `json:"safety_tolerance,omitempty"`
	Steps            int     `json:"steps,omitempty"`
	Guidance         float64 `json:"guidance,omitempty"`
}

// ParamMap flattens a typed parameter struct into the open parameter mapping
// accepted by Submit. Fields tagged omitempty disappear when zero-valued.
func ParamMap(params any) (map[string]any, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encoding parameters: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("flattening parameters: %w", err)
	}
	return m, nil
}
