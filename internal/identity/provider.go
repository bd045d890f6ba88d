package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/rpsroom/internal/dependencies/random"
	"github.com/mcoot/rpsroom/internal/model"
)

// Provider hands out the client's identity, generating and persisting it on first use.
//
// Persistence failures are not fatal: the provider logs them and keeps using the
// freshly generated token, so the identity is stable for this process but may
// change on the next start.
type Provider struct {
	store  Store
	random random.Random
	logger *slog.Logger

	mu sync.Mutex
	id model.Identity
}

// NewProvider creates a Provider backed by store
func NewProvider(store Store, random random.Random, logger *slog.Logger) *Provider {
	return &Provider{
		store:  store,
		random: random,
		logger: logger.With(slog.String("component", "identity")),
	}
}

// GetOrCreate returns the persisted identity, creating one if none exists
func (p *Provider) GetOrCreate(ctx context.Context) model.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.id != "" {
		return p.id
	}

	id, err := p.store.Load(ctx)
	if err == nil {
		p.id = id
		return id
	}
	if !errors.Is(err, ErrNotFound) {
		p.logger.Warn("could not load identity, generating a fresh one",
			slog.String("error", err.Error()))
	}

	id = model.Identity(p.random.UUID())
	if err := p.store.Save(ctx, id); err != nil {
		p.logger.Warn("could not persist identity, it will change on restart",
			slog.String("identity", string(id)),
			slog.String("error", err.Error()))
	} else {
		p.logger.Info("identity created", slog.String("identity", string(id)))
	}

	p.id = id
	return id
}
