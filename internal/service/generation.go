package service

import (
	"context"

	"bfl-cli/internal/domain"
	"bfl-cli/internal/ports"
)

// GenerationService provides a clean application layer for submitting and
// monitoring generation tasks. It depends on the FluxClient port, which
// abstracts the underlying API.
//
// The service performs exactly one remote call per method invocation. It
// never sleeps, retries or loops: poll cadence, backoff and timeouts are the
// caller's policy, driven from outside against Task.Done.
type GenerationService struct {
	client ports.FluxClient
}

// NewGenerationService constructs a new GenerationService given a client.
func NewGenerationService(client ports.FluxClient) *GenerationService {
	return &GenerationService{client: client}
}

// Submit starts a generation job on the named model by delegating to the
// underlying client. The parameter map is passed through untouched, since
// its validity is enforced remotely.
func (s *GenerationService) Submit(ctx context.Context, model string, params map[string]any) (domain.Task, error) {
	return s.client.Generate(ctx, model, params)
}

// Poll fetches a fresh snapshot of an existing task by delegating to the
// client.
func (s *GenerationService) Poll(ctx context.Context, id string) (domain.Task, error) {
	return s.client.GetResult(ctx, id)
}

// SubmitFluxPro11 submits to the flux-pro-1.1 model with typed parameters.
func (s *GenerationService) SubmitFluxPro11(ctx context.Context, params domain.FluxPro11Params) (domain.Task, error) {
	m, err := domain.ParamMap(params)
	if err != nil {
		return domain.Task{}, err
	}
	return s.Submit(ctx, domain.ModelFluxPro11, m)
}

// SubmitFluxPro submits to the flux-pro model with typed parameters.
func (s *GenerationService) SubmitFluxPro(ctx context.Context, params domain.FluxProParams) (domain.Task, error) {
	m, err := domain.ParamMap(params)
	if err != nil {
		return domain.Task{}, err
	}
	return s.Submit(ctx, domain.ModelFluxPro, m)
}

// SubmitFluxDev submits to the flux-dev model with typed parameters.
func (s *GenerationService) SubmitFluxDev(ctx context.Context, params domain.FluxDevParams) (domain.Task, error) {
	m, err := domain.ParamMap(params)
	if err != nil {
		return domain.Task{}, err
	}
	return s.Submit(ctx, domain.ModelFluxDev, m)
}
