package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/topgenres/internal/auth"
	"github.com/desertthunder/topgenres/internal/genres"
	"github.com/desertthunder/topgenres/internal/models"
	"github.com/desertthunder/topgenres/internal/services"
	"github.com/desertthunder/topgenres/internal/shared"
)

// ErrClosed is returned by operations on a closed [Controller].
var ErrClosed = errors.New("session controller closed")

const (
	msgNetwork = "network error: could not reach Spotify"
	msgExpired = "session expired, please reconnect"
)

// CredentialStore is the persistence the controller needs. *store.CredentialStore satisfies it.
type CredentialStore interface {
	Load(ctx context.Context) (*models.Credential, error)
	Save(ctx context.Context, cred *models.Credential) error
	Clear(ctx context.Context) error
}

// Navigator sends the user to the authorization URL, typically by opening a browser.
type Navigator func(url string) error

type Options struct {
	Store     CredentialStore
	Client    services.ListeningData
	Codec     *auth.Codec
	Navigator Navigator
	Logger    *log.Logger
	// Aggregate overrides [genres.Aggregate].
	Aggregate func([]models.Artist) models.GenreTable
	Now       func() time.Time
}

// Controller owns the session state machine.
type Controller struct {
	store     CredentialStore
	client    services.ListeningData
	codec     *auth.Codec
	navigate  Navigator
	logger    *log.Logger
	aggregate func([]models.Artist) models.GenreTable
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	generation uint64
	started    bool
	closed     bool
	subs       map[int]func(State)
	nextSub    int

	loads    sync.WaitGroup
	dispatch *dispatcher
}

// New creates a Disconnected controller. Store, Client and Codec are required.
func New(opts Options) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		store:     opts.Store,
		client:    opts.Client,
		codec:     opts.Codec,
		navigate:  opts.Navigator,
		logger:    opts.Logger,
		aggregate: opts.Aggregate,
		now:       opts.Now,
		ctx:       ctx,
		cancel:    cancel,
		state:     disconnectedState(),
		subs:      make(map[int]func(State)),
		dispatch:  newDispatcher(),
	}

	if c.logger == nil {
		c.logger = shared.NewLogger(os.Stderr)
	}
	if c.aggregate == nil {
		c.aggregate = genres.Aggregate
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Start performs the one-time startup check.
//
// A usable redirect fragment wins over a stored credential. An unusable fragment is ignored.
// With neither the controller stays Disconnected. Start may only be called once.
func (c *Controller) Start(ctx context.Context, fragment string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("%w: controller already started", shared.ErrInvalidArgument)
	}
	c.started = true
	gen := c.generation
	c.mu.Unlock()

	if fragment != "" {
		cred, err := c.codec.Parse(fragment)
		switch {
		case err != nil:
			c.logger.Warn("ignoring redirect", "error", err)
		case !cred.Valid(c.now()):
			c.logger.Warn("ignoring redirect", "error", shared.ErrTokenExpired)
		default:
			c.logger.Info("received credential from redirect", "expires_at", cred.ExpiresAt)
			return c.Receive(ctx, cred)
		}
	}

	cred, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Warn("could not read stored credential", "error", err)
		cred = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.generation != gen {
		c.logger.Debug("startup check superseded")
		return nil
	}
	if cred == nil {
		c.logger.Debug("no stored credential")
		c.setLocked(disconnectedState())
		return nil
	}
	c.logger.Info("resuming stored credential", "expires_at", cred.ExpiresAt)
	c.beginLoadLocked(cred)
	return nil
}

// Connect builds the authorization URL and hands it to the Navigator, if any.
//
// The state never changes here. Missing configuration is reported without navigating.
func (c *Controller) Connect(state string) (string, error) {
	authURL, err := c.codec.AuthorizationURL(state)
	if err != nil {
		return "", err
	}

	if c.navigate != nil {
		if err := c.navigate(authURL); err != nil {
			return authURL, fmt.Errorf("failed to open authorization page: %w", err)
		}
	}
	return authURL, nil
}

// Receive persists a freshly obtained credential and starts loading genres with it.
//
// A failed save leaves the controller Failed and returns the error.
func (c *Controller) Receive(ctx context.Context, cred *models.Credential) error {
	if cred == nil || cred.AccessToken == "" {
		return fmt.Errorf("%w: empty credential", shared.ErrInvalidArgument)
	}
	if !cred.Valid(c.now()) {
		return shared.ErrTokenExpired
	}

	saveErr := c.store.Save(ctx, cred)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if saveErr != nil {
		c.generation++
		c.setLocked(failedState(cred, "could not save credential"))
		return saveErr
	}
	c.beginLoadLocked(cred)
	return nil
}

// Reload re-enters LoadingGenres with the current credential.
//
// An expired credential is purged and the controller returns to Disconnected.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	cred := c.state.Credential
	if cred == nil {
		c.mu.Unlock()
		return shared.ErrNotAuthenticated
	}
	if cred.Valid(c.now()) {
		c.beginLoadLocked(cred)
		c.mu.Unlock()
		return nil
	}
	c.generation++
	c.setLocked(disconnectedState())
	c.mu.Unlock()

	c.logger.Info("credential expired", "expired_at", cred.ExpiresAt)
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("failed to purge expired credential", "error", err)
	}
	return shared.ErrTokenExpired
}

// Disconnect clears the stored credential and returns to Disconnected.
//
// Any outstanding load is discarded. The state changes even when clearing the store fails.
func (c *Controller) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	err := c.store.Clear(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.generation++
	c.setLocked(disconnectedState())
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	c.logger.Info("disconnected")
	return nil
}

// Close tears the controller down. Outstanding loads are cancelled and their results discarded.
// Queued notifications are still delivered before Close returns, unless Close is called from a
// subscriber, in which case they are delivered after that subscriber returns.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.generation++
	c.mu.Unlock()

	c.cancel()
	c.loads.Wait()
	c.dispatch.close()
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until every load started so far has finished.
func (c *Controller) Wait() {
	c.loads.Wait()
}

// Subscribe registers fn for state changes. fn first receives the current state.
//
// The returned function unsubscribes. Deliveries already queued may still arrive after it returns.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	current := c.state
	c.dispatch.enqueue(func() { fn(current) })

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// setLocked replaces the state and queues a notification. c.mu must be held.
func (c *Controller) setLocked(next State) {
	c.state = next

	subs := make([]func(State), 0, len(c.subs))
	for id := 0; id < c.nextSub; id++ {
		if fn, ok := c.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	if len(subs) == 0 {
		return
	}
	c.dispatch.enqueue(func() {
		for _, fn := range subs {
			fn(next)
		}
	})
}

// beginLoadLocked enters LoadingGenres under a new generation and starts the fetch. c.mu must be held.
func (c *Controller) beginLoadLocked(cred *models.Credential) {
	c.generation++
	gen := c.generation
	c.setLocked(loadingState(cred))

	c.loads.Add(1)
	go c.load(gen, cred)
}

func (c *Controller) load(gen uint64, cred *models.Credential) {
	defer c.loads.Done()

	c.logger.Debug("fetching top artists", "generation", gen)
	artists, err := c.client.FetchTopArtists(c.ctx, cred)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.logger.Debug("discarding superseded load", "generation", gen, "current", c.generation)
		return
	}

	switch {
	case err == nil:
		table := c.aggregate(artists)
		c.logger.Info("genres loaded", "artists", len(artists), "genres", len(table))
		c.setLocked(readyState(cred, table))
	case errors.Is(err, shared.ErrTokenExpired):
		c.logger.Info("credential expired during load")
		c.generation++
		c.setLocked(failedState(cred, msgExpired))
		c.loads.Add(1)
		go c.purge()
	default:
		c.logger.Error("failed to load genres", "error", err)
		c.setLocked(failedState(cred, FailureMessage(err)))
	}
}

func (c *Controller) purge() {
	defer c.loads.Done()
	if err := c.store.Clear(c.ctx); err != nil {
		c.logger.Warn("failed to purge expired credential", "error", err)
	}
}

// FailureMessage renders a load error for display.
func FailureMessage(err error) string {
	var apiErr *services.RemoteAPIError
	switch {
	case errors.As(err, &apiErr):
		return fmt.Sprintf("Spotify API error (status %d)", apiErr.StatusCode)
	case errors.Is(err, shared.ErrNetwork):
		return msgNetwork
	case errors.Is(err, shared.ErrTokenExpired):
		return msgExpired
	default:
		return fmt.Sprintf("failed to load genres: %v", err)
	}
}
