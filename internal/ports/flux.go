package ports

import (
	"context"

	"bfl-cli/internal/domain"
)

// FluxClient defines the hexagonal port used by the application layer to
// talk to the image-generation service. Implementations of this interface
// may communicate over HTTP, mocks or other transports.
type FluxClient interface {
	// Generate submits a generation job for the named model and returns a
	// Task handle in a non-terminal state.
	Generate(ctx context.Context, model string, params map[string]any) (domain.Task, error)
	// GetResult fetches the current snapshot of a previously submitted task
	// by its id.
	GetResult(ctx context.Context, id string) (domain.Task, error)
}
