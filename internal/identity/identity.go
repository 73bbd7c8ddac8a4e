// Package identity issues the per-device user identifier.
package identity

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sandeepkv93/dailytodo/internal/storage"
)

const (
	UserIDKey = "dailyTodoUserId"
	prefix    = "user_"
)

type Provider struct {
	store  storage.KeyValueStore
	logger *log.Logger
	newID  func() string

	mu     sync.Mutex
	cached string
}

func NewProvider(store storage.KeyValueStore, logger *log.Logger) *Provider {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Provider{store: store, logger: logger, newID: generate}
}

// GetOrCreateUserID returns the stored identifier, creating and persisting one
// on first use. It never fails: when the store cannot be read or written the
// identifier lives only for this process.
func (p *Provider) GetOrCreateUserID(ctx context.Context) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != "" {
		return p.cached
	}
	if p.store == nil {
		p.cached = p.newID()
		p.logger.WithField("user_id", p.cached).Warn("no local store; using ephemeral user id")
		return p.cached
	}

	stored, err := p.store.Get(ctx, UserIDKey)
	switch {
	case err == nil && strings.TrimSpace(stored) != "":
		p.cached = stored
		return p.cached
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		p.cached = p.newID()
		p.logger.WithError(err).WithField("user_id", p.cached).Warn("read user id failed; using ephemeral user id")
		return p.cached
	}

	id := p.newID()
	if err := p.store.Set(ctx, UserIDKey, id); err != nil {
		p.logger.WithError(err).WithField("user_id", id).Warn("persist user id failed; id is ephemeral")
	}
	p.cached = id
	return id
}

func generate() string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
