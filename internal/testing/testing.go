// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/desertthunder/topgenres/internal/models"
)

// FakeFetch is one scripted response of a [FakeListeningData].
type FakeFetch struct {
	Artists []models.Artist
	Err     error
	// Release, when non-nil, blocks the fetch until it is closed.
	Release chan struct{}
}

// FakeListeningData is a test double for services.ListeningData that replays scripted responses in order.
//
// Once the script is exhausted the last entry is repeated.
type FakeListeningData struct {
	mu      sync.Mutex
	script  []FakeFetch
	calls   int
	tokens  []string
	started chan int
}

// NewFakeListeningData creates a [FakeListeningData] replaying script.
func NewFakeListeningData(script ...FakeFetch) *FakeListeningData {
	return &FakeListeningData{script: script, started: make(chan int, 16)}
}

func (f *FakeListeningData) FetchTopArtists(ctx context.Context, cred *models.Credential) ([]models.Artist, error) {
	f.mu.Lock()
	idx := f.calls
	f.calls++
	if cred != nil {
		f.tokens = append(f.tokens, cred.AccessToken)
	}
	var step FakeFetch
	if len(f.script) > 0 {
		step = f.script[min(idx, len(f.script)-1)]
	}
	f.mu.Unlock()

	f.started <- idx

	if step.Release != nil {
		select {
		case <-step.Release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return step.Artists, step.Err
}

// Started yields the index of each fetch as it begins.
func (f *FakeListeningData) Started() <-chan int { return f.started }

// Calls returns the number of fetches made.
func (f *FakeListeningData) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Tokens returns the access tokens presented, in call order.
func (f *FakeListeningData) Tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tokens...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}
