package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/topgenres/internal/session"
)

// Session is the part of [session.Controller] the view drives.
type Session interface {
	Connect(state string) (string, error)
	Reload(ctx context.Context) error
	Disconnect(ctx context.Context) error
	State() session.State
	Subscribe(fn func(session.State)) func()
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	sess       Session
	oauthState string

	state     session.State
	genreList list.Model
	spinner   spinner.Model
	help      help.Model
	keys      keyMap
	authURL   string
	err       error
	width     int
	height    int

	updates     chan session.State
	done        chan struct{}
	closeOnce   sync.Once
	unsubscribe func()
}

// NewModel creates a TUI model subscribed to sess.
//
// oauthState is passed to [Session.Connect] so the callback can verify it. Call [Model.Close] after the program exits.
func NewModel(ctx context.Context, sess Session, oauthState string) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.ok

	m := &Model{
		ctx:        ctx,
		sess:       sess,
		oauthState: oauthState,
		state:      sess.State(),
		genreList:  list.New(nil, list.NewDefaultDelegate(), 0, 0),
		spinner:    sp,
		help:       help.New(),
		keys:       newKeyMap(),
		updates:    make(chan session.State, 16),
		done:       make(chan struct{}),
	}
	m.genreList.Title = "Top Genres"
	m.genreList.SetShowHelp(false)

	m.unsubscribe = sess.Subscribe(func(s session.State) {
		select {
		case m.updates <- s:
		case <-m.done:
		}
	})
	return m
}

// Close unsubscribes from the session and releases a blocked delivery.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		m.unsubscribe()
		close(m.done)
	})
}

// Init starts the spinner and begins draining state changes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForState())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.genreList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgStateChanged:
		m.setState(msg.data.(session.State))
		return m, m.waitForState()

	case MsgConnectStarted:
		data := msg.data.(struct {
			url string
			err error
		})
		m.authURL = data.url
		m.err = data.err
		return m, nil

	case MsgActionFailed:
		m.err, _ = msg.data.(error)
		return m, nil
	}
	return m, nil
}

func (m *Model) setState(s session.State) {
	m.state = s
	m.err = nil

	switch s.Status {
	case session.Ready:
		m.genreList.SetItems(genreItems(s.Genres))
		m.genreList.ResetSelected()
	case session.LoadingGenres:
		m.authURL = ""
	}
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state.Status == session.Ready && m.genreList.FilterState() == list.Filtering {
		return m.updateList(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.connect):
		if m.state.Status == session.Disconnected || m.state.Status == session.Failed {
			return m, m.connect()
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		if m.state.Credential != nil && m.state.Status != session.LoadingGenres {
			return m, m.reload()
		}
		return m, nil
	case key.Matches(msg, m.keys.disconnect):
		if m.state.Status != session.Disconnected {
			return m, m.disconnect()
		}
		return m, nil
	}

	return m.updateList(msg)
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state.Status != session.Ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.genreList, cmd = m.genreList.Update(msg)
	return m, cmd
}

func (m *Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-m.updates:
			return stateChangedMsg(s)
		case <-m.done:
			return nil
		}
	}
}

func (m *Model) connect() tea.Cmd {
	return func() tea.Msg {
		url, err := m.sess.Connect(m.oauthState)
		return connectStartedMsg(url, err)
	}
}

func (m *Model) reload() tea.Cmd {
	return func() tea.Msg {
		if err := m.sess.Reload(m.ctx); err != nil {
			return actionFailedMsg(err)
		}
		return nil
	}
}

func (m *Model) disconnect() tea.Cmd {
	return func() tea.Msg {
		if err := m.sess.Disconnect(m.ctx); err != nil {
			return actionFailedMsg(err)
		}
		return nil
	}
}

// View renders the screen for the current session status.
func (m *Model) View() string {
	var body string
	switch m.state.Status {
	case session.Disconnected:
		body = m.renderDisconnected()
	case session.LoadingGenres:
		body = m.renderLoading()
	case session.Ready:
		body = m.renderReady()
	case session.Failed:
		body = m.renderFailed()
	}

	if m.err != nil {
		body = fmt.Sprintf("%s\n\n%s", body, styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	return body
}

func (m *Model) renderDisconnected() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("topgenres"))
	b.WriteString("\nNot connected to Spotify.\n")

	if m.authURL != "" {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render("Waiting for authorization in your browser."))
		b.WriteString("\nIf it did not open, visit:\n")
		b.WriteString(styles.help.Render(m.authURL))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.connect, m.keys.quit}))
	return b.String()
}

func (m *Model) renderLoading() string {
	return fmt.Sprintf("%s\n%s Loading your top genres...\n\n%s",
		styles.title.Render("topgenres"),
		m.spinner.View(),
		m.help.ShortHelpView([]key.Binding{m.keys.disconnect, m.keys.quit}),
	)
}

func (m *Model) renderReady() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.reload, m.keys.disconnect, m.keys.quit})
	if len(m.state.Genres) == 0 {
		return fmt.Sprintf("%s\nNo genres found for your top artists.\n\n%s", styles.title.Render("Top Genres"), helpView)
	}
	return fmt.Sprintf("%s\n\n%s", m.genreList.View(), helpView)
}

func (m *Model) renderFailed() string {
	return fmt.Sprintf("%s\n%s\n\n%s",
		styles.title.Render("topgenres"),
		styles.err.Render(m.state.Message),
		m.help.ShortHelpView([]key.Binding{m.keys.reload, m.keys.connect, m.keys.disconnect, m.keys.quit}),
	)
}
