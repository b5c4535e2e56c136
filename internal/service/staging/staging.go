package staging

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/treadstock/internal/domain/models"
)

// DefaultTTL applies when the store is built with a non-positive TTL.
const DefaultTTL = 15 * time.Minute

// PendingImport is a parsed upload waiting for the operator to confirm it.
type PendingImport struct {
	Token     string
	Mode      models.ImportMode
	Source    string
	Rows      []models.CanonicalRow
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store keeps pending imports in memory between preview and confirm.
type Store struct {
	pending map[string]PendingImport
	ttl     time.Duration
	mu      sync.Mutex
	logger  *zap.Logger
	now     func() time.Time
}

// NewStore creates a new staging store.
func NewStore(ttl time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		pending: make(map[string]PendingImport),
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// Stage records rows under a fresh token.
func (s *Store) Stage(mode models.ImportMode, source string, rows []models.CanonicalRow) PendingImport {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)

	p := PendingImport{
		Token:     uuid.NewString(),
		Mode:      mode,
		Source:    source,
		Rows:      rows,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.pending[p.Token] = p

	s.logger.Debug("import staged", zap.String("token", p.Token), zap.String("mode", string(mode)), zap.Int("rows", len(rows)), zap.Int("pending", len(s.pending)))
	return p
}

// Take removes and returns the pending import. A token can be taken once;
// unknown and expired tokens report ErrNotFound.
func (s *Store) Take(token string) (PendingImport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[token]
	if !ok {
		return PendingImport{}, fmt.Errorf("pending import %q: %w", token, models.ErrNotFound)
	}
	delete(s.pending, token)

	if !s.now().Before(p.ExpiresAt) {
		return PendingImport{}, fmt.Errorf("pending import %q expired: %w", token, models.ErrNotFound)
	}
	return p, nil
}

// Peek returns the pending import without consuming it.
func (s *Store) Peek(token string) (PendingImport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[token]
	if !ok || !s.now().Before(p.ExpiresAt) {
		return PendingImport{}, fmt.Errorf("pending import %q: %w", token, models.ErrNotFound)
	}
	return p, nil
}

func (s *Store) pruneLocked(now time.Time) {
	for token, p := range s.pending {
		if !now.Before(p.ExpiresAt) {
			delete(s.pending, token)
		}
	}
}
