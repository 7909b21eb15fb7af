package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/topgenres/internal/models"
	"github.com/desertthunder/topgenres/internal/shared"
	tu "github.com/desertthunder/topgenres/internal/testing"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(baseURL string, httpClient *http.Client) *SpotifyClient {
	return NewSpotifyClient(ClientOpts{
		BaseURL:    baseURL,
		HTTPClient: httpClient,
		Now:        func() time.Time { return testNow },
	})
}

func validCredential() *models.Credential {
	return models.NewCredential("test_token", testNow, time.Hour)
}

func TestSpotifyClient(t *testing.T) {
	ctx := context.Background()

	t.Run("FetchTopArtists", func(t *testing.T) {
		t.Run("Request Shape", func(t *testing.T) {
			var gotPath, gotLimit, gotRange, gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotLimit = r.URL.Query().Get("limit")
				gotRange = r.URL.Query().Get("time_range")
				gotAuth = r.Header.Get("Authorization")
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"items":[]}`))
			}))
			defer srv.Close()

			if _, err := newTestClient(srv.URL, srv.Client()).FetchTopArtists(ctx, validCredential()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if gotPath != "/v1/me/top/artists" {
				t.Errorf("expected path /v1/me/top/artists, got %s", gotPath)
			}
			if gotLimit != "50" {
				t.Errorf("expected limit 50, got %s", gotLimit)
			}
			if gotRange != "medium_term" {
				t.Errorf("expected time_range medium_term, got %s", gotRange)
			}
			if gotAuth != "Bearer test_token" {
				t.Errorf("expected bearer header, got %q", gotAuth)
			}
		})

		t.Run("Decodes Items", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"items":[
					{"id":"1","name":"Phoebe Bridgers","genres":["indie pop","Rock"]},
					{"id":"2","name":"No Genres"}
				],"total":2,"limit":50}`))
			}))
			defer srv.Close()

			artists, err := newTestClient(srv.URL, srv.Client()).FetchTopArtists(ctx, validCredential())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(artists) != 2 {
				t.Fatalf("expected 2 artists, got %d", len(artists))
			}
			if artists[0].Name != "Phoebe Bridgers" || len(artists[0].Genres) != 2 {
				t.Errorf("unexpected first artist %+v", artists[0])
			}
			if artists[1].Genres != nil {
				t.Errorf("expected nil genres for second artist, got %v", artists[1].Genres)
			}
		})

		t.Run("Missing Items Defaults To Empty", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			}))
			defer srv.Close()

			artists, err := newTestClient(srv.URL, srv.Client()).FetchTopArtists(ctx, validCredential())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if artists == nil || len(artists) != 0 {
				t.Errorf("expected empty non-nil slice, got %#v", artists)
			}
		})

		t.Run("Non Success Status", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":{"status":401,"message":"The access token expired"}}`))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL, srv.Client()).FetchTopArtists(ctx, validCredential())

			var apiErr *RemoteAPIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected RemoteAPIError, got %v", err)
			}
			if apiErr.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", apiErr.StatusCode)
			}
			if apiErr.Message != "The access token expired" {
				t.Errorf("expected provider message, got %q", apiErr.Message)
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Error("expected RemoteAPIError to match ErrAPIRequest")
			}
		})

		t.Run("No Retry", func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL, srv.Client()).FetchTopArtists(ctx, validCredential())
			if err == nil {
				t.Fatal("expected error")
			}
			if calls != 1 {
				t.Errorf("expected exactly one request, got %d", calls)
			}
		})

		t.Run("Invalid JSON", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"items":`))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL, srv.Client()).FetchTopArtists(ctx, validCredential())
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Network Failure", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}

			_, err := newTestClient("http://spotify.invalid", client).FetchTopArtists(ctx, validCredential())
			if !errors.Is(err, shared.ErrNetwork) {
				t.Errorf("expected ErrNetwork, got %v", err)
			}
		})

		t.Run("Body Read Failure", func(t *testing.T) {
			resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: make(http.Header)}
			client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}

			_, err := newTestClient("http://spotify.invalid", client).FetchTopArtists(ctx, validCredential())
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Expired Credential Sends Nothing", func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
			}))
			defer srv.Close()

			expired := models.NewCredential("old", testNow.Add(-2*time.Hour), time.Hour)
			_, err := newTestClient(srv.URL, srv.Client()).FetchTopArtists(ctx, expired)
			if !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired, got %v", err)
			}
			if calls != 0 {
				t.Errorf("expected no request, got %d", calls)
			}
		})

		t.Run("Nil Credential", func(t *testing.T) {
			_, err := newTestClient("http://spotify.invalid", nil).FetchTopArtists(ctx, nil)
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})

	t.Run("CurrentUser", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/me" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`{"id":"u1","display_name":"Listener","product":"premium"}`))
		}))
		defer srv.Close()

		user, err := newTestClient(srv.URL, srv.Client()).CurrentUser(ctx, validCredential())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.DisplayName != "Listener" || user.Product != "premium" {
			t.Errorf("unexpected user %+v", user)
		}
	})

	t.Run("Rate Limited Client", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"items":[]}`))
		}))
		defer srv.Close()

		client := NewSpotifyClient(ClientOpts{
			BaseURL:           srv.URL,
			HTTPClient:        srv.Client(),
			RequestsPerSecond: 100,
			Now:               func() time.Time { return testNow },
		})
		if client.limiter == nil {
			t.Fatal("expected limiter to be configured")
		}

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := client.FetchTopArtists(ctx, validCredential()); err != nil {
			t.Fatalf("expected first request to pass the limiter, got %v", err)
		}
		if _, err := client.FetchTopArtists(cancelled, validCredential()); !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork on cancelled wait, got %v", err)
		}
	})

	t.Run("NewSpotifyClientFromConfig", func(t *testing.T) {
		client := NewSpotifyClientFromConfig(shared.DefaultConfig().Spotify, nil)
		if client.baseURL != "https://api.spotify.com" {
			t.Errorf("unexpected base url %s", client.baseURL)
		}
		if client.httpClient.Timeout != 15*time.Second {
			t.Errorf("expected 15s timeout, got %v", client.httpClient.Timeout)
		}
		if client.limiter == nil {
			t.Error("expected limiter from config")
		}
	})
}
