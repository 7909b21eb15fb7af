package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCredential(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	t.Run("Valid", func(t *testing.T) {
		cred := NewCredential("abc", now, time.Minute)

		if !cred.Valid(now) {
			t.Error("expected credential to be valid before expiry")
		}
		if cred.Valid(now.Add(time.Minute)) {
			t.Error("expected credential to be invalid at expiry")
		}
		if cred.Remaining(now.Add(2*time.Minute)) != 0 {
			t.Error("expected zero remaining after expiry")
		}

		var missing *Credential
		if missing.Valid(now) {
			t.Error("nil credential must not be valid")
		}
	})

	t.Run("JSON Shape", func(t *testing.T) {
		cred := NewCredential("abc", now, time.Second)

		data, err := json.Marshal(cred)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		want := `{"accessToken":"abc","expiresAt":1700000001000}`
		if string(data) != want {
			t.Errorf("expected %s, got %s", want, data)
		}
	})

	t.Run("Rejects Malformed Records", func(t *testing.T) {
		for _, raw := range []string{
			`{"expiresAt":1}`,
			`{"accessToken":"abc"}`,
			`{"accessToken":"","expiresAt":1}`,
			`not json`,
		} {
			var cred Credential
			if err := json.Unmarshal([]byte(raw), &cred); err == nil {
				t.Errorf("expected error for %s", raw)
			}
		}
	})

	t.Run("Token", func(t *testing.T) {
		tok := NewCredential("abc", now, time.Hour).Token()
		if tok.Type() != "Bearer" || tok.AccessToken != "abc" {
			t.Errorf("unexpected token %+v", tok)
		}
	})
}

func TestGenreTable(t *testing.T) {
	table := GenreTable{{"rock", 3}, {"pop", 2}, {"jazz", 1}}

	if table.Total() != 6 {
		t.Errorf("expected total 6, got %d", table.Total())
	}
	if len(table.Top(2)) != 2 || len(table.Top(0)) != 3 || len(table.Top(10)) != 3 {
		t.Error("unexpected Top lengths")
	}
	if table.Max() != 3 || (GenreTable{}).Max() != 0 {
		t.Error("unexpected Max")
	}
}
