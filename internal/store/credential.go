package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/topgenres/internal/models"
	"github.com/desertthunder/topgenres/internal/shared"
)

// DefaultKey is the single key holding the persisted credential.
const DefaultKey = "topgenres.credential"

// CredentialStore saves, loads and clears the credential record.
type CredentialStore struct {
	kv     KeyValue
	key    string
	now    func() time.Time
	logger *log.Logger
}

// Option configures a [CredentialStore].
type Option func(*CredentialStore)

// WithKey overrides [DefaultKey].
func WithKey(key string) Option {
	return func(s *CredentialStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock sets the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *CredentialStore) { s.now = now }
}

// WithLogger sets the logger for eviction messages.
func WithLogger(l *log.Logger) Option {
	return func(s *CredentialStore) { s.logger = l }
}

// NewCredentialStore creates a [CredentialStore] over kv.
func NewCredentialStore(kv KeyValue, opts ...Option) *CredentialStore {
	s := &CredentialStore{
		kv:     kv,
		key:    DefaultKey,
		now:    time.Now,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the key the credential is stored under.
func (s *CredentialStore) Key() string { return s.key }

// Load returns the stored credential, or nil when none is usable.
//
// Malformed and expired records are deleted before returning nil. The error is non-nil only when the medium itself fails.
func (s *CredentialStore) Load(ctx context.Context) (*models.Credential, error) {
	data, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStore, err)
	}
	if !ok {
		return nil, nil
	}

	var cred models.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		s.logger.Warn("discarding malformed credential record", "key", s.key, "error", err)
		s.evict(ctx)
		return nil, nil
	}

	if now := s.now(); !cred.Valid(now) {
		s.logger.Info("discarding expired credential", "key", s.key, "expired_at", cred.ExpiresAt)
		s.evict(ctx)
		return nil, nil
	}

	return &cred, nil
}

// Save overwrites the stored record.
func (s *CredentialStore) Save(ctx context.Context, cred *models.Credential) error {
	if cred == nil {
		return fmt.Errorf("%w: nil credential", shared.ErrInvalidArgument)
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStore, err)
	}
	return nil
}

// Clear deletes the stored record.
func (s *CredentialStore) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStore, err)
	}
	return nil
}

func (s *CredentialStore) evict(ctx context.Context) {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		s.logger.Warn("failed to evict credential", "key", s.key, "error", err)
	}
}
