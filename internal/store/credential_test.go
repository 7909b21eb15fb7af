package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/topgenres/internal/models"
	"github.com/desertthunder/topgenres/internal/shared"
)

// failingKV returns err from every operation.
type failingKV struct {
	err     error
	deletes int
}

func (f *failingKV) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f *failingKV) Set(context.Context, string, []byte) error         { return f.err }
func (f *failingKV) Delete(context.Context, string) error {
	f.deletes++
	return f.err
}

func TestCredentialStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("Load Absent", func(t *testing.T) {
		s := NewCredentialStore(NewMemoryKV(), WithClock(clock))

		cred, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cred != nil {
			t.Errorf("expected nil credential, got %+v", cred)
		}
	})

	t.Run("Save And Load", func(t *testing.T) {
		s := NewCredentialStore(NewMemoryKV(), WithClock(clock))
		saved := models.NewCredential("abc", now, time.Hour)

		if err := s.Save(ctx, saved); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		cred, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if cred == nil || cred.AccessToken != "abc" {
			t.Fatalf("expected stored credential, got %+v", cred)
		}
		if !cred.ExpiresAt.Equal(saved.ExpiresAt) {
			t.Errorf("expected expiry %v, got %v", saved.ExpiresAt, cred.ExpiresAt)
		}
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		s := NewCredentialStore(NewMemoryKV(), WithClock(clock))

		_ = s.Save(ctx, models.NewCredential("first", now, time.Hour))
		_ = s.Save(ctx, models.NewCredential("second", now, time.Hour))

		cred, _ := s.Load(ctx)
		if cred == nil || cred.AccessToken != "second" {
			t.Errorf("expected second credential, got %+v", cred)
		}
	})

	t.Run("Expired Record Is Purged", func(t *testing.T) {
		kv := NewMemoryKV()
		s := NewCredentialStore(kv, WithClock(clock))

		if err := s.Save(ctx, models.NewCredential("old", now.Add(-2*time.Hour), time.Hour)); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		cred, err := s.Load(ctx)
		if err != nil || cred != nil {
			t.Fatalf("expected nil credential and no error, got %+v, %v", cred, err)
		}

		if _, ok, _ := kv.Get(ctx, DefaultKey); ok {
			t.Error("expected expired record to be deleted")
		}

		cred, err = s.Load(ctx)
		if err != nil || cred != nil {
			t.Errorf("expected subsequent load to find nothing, got %+v, %v", cred, err)
		}
	})

	t.Run("Expiry Boundary", func(t *testing.T) {
		kv := NewMemoryKV()
		s := NewCredentialStore(kv, WithClock(clock))

		_ = s.Save(ctx, &models.Credential{AccessToken: "edge", ExpiresAt: now})

		if cred, _ := s.Load(ctx); cred != nil {
			t.Error("credential expiring exactly now must not be returned")
		}
		if kv.Len() != 0 {
			t.Error("expected record to be purged")
		}
	})

	t.Run("Malformed Record Is Purged", func(t *testing.T) {
		for _, raw := range []string{`not json`, `{"accessToken":"abc"}`, `{"expiresAt":123}`} {
			kv := NewMemoryKV()
			_ = kv.Set(ctx, DefaultKey, []byte(raw))
			s := NewCredentialStore(kv, WithClock(clock))

			cred, err := s.Load(ctx)
			if err != nil || cred != nil {
				t.Errorf("%s: expected nil credential and no error, got %+v, %v", raw, cred, err)
			}
			if kv.Len() != 0 {
				t.Errorf("%s: expected record to be purged", raw)
			}
		}
	})

	t.Run("Clear", func(t *testing.T) {
		kv := NewMemoryKV()
		s := NewCredentialStore(kv, WithClock(clock), WithKey("custom"))

		_ = s.Save(ctx, models.NewCredential("abc", now, time.Hour))
		if _, ok, _ := kv.Get(ctx, "custom"); !ok {
			t.Fatal("expected record under custom key")
		}

		if err := s.Clear(ctx); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if cred, _ := s.Load(ctx); cred != nil {
			t.Error("expected no credential after clear")
		}
		if err := s.Clear(ctx); err != nil {
			t.Errorf("clearing twice should succeed, got %v", err)
		}
	})

	t.Run("Backend Failures", func(t *testing.T) {
		boom := errors.New("disk on fire")
		s := NewCredentialStore(&failingKV{err: boom}, WithClock(clock))

		if _, err := s.Load(ctx); !errors.Is(err, shared.ErrStore) {
			t.Errorf("expected ErrStore from Load, got %v", err)
		}
		if err := s.Save(ctx, models.NewCredential("abc", now, time.Hour)); !errors.Is(err, shared.ErrStore) {
			t.Errorf("expected ErrStore from Save, got %v", err)
		}
		if err := s.Clear(ctx); !errors.Is(err, shared.ErrStore) {
			t.Errorf("expected ErrStore from Clear, got %v", err)
		}
	})

	t.Run("Save Nil", func(t *testing.T) {
		s := NewCredentialStore(NewMemoryKV())
		if err := s.Save(ctx, nil); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
