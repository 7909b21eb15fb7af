package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/topgenres/internal/session"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgStateChanged MsgKind = iota
	MsgConnectStarted
	MsgActionFailed
)

// stateChangedMsg is the constructor for [MsgStateChanged]
func stateChangedMsg(state session.State) Msg {
	return Msg{kind: MsgStateChanged, data: state}
}

// connectStartedMsg is the constructor for [MsgConnectStarted]
func connectStartedMsg(url string, err error) Msg {
	return Msg{
		kind: MsgConnectStarted,
		data: struct {
			url string
			err error
		}{url, err},
	}
}

// actionFailedMsg is the constructor for [MsgActionFailed]
func actionFailedMsg(err error) Msg {
	return Msg{kind: MsgActionFailed, data: err}
}
