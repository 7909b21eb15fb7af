// Package ui implements an interactive terminal view of the session using bubbletea's Elm architecture.
//
// The (view) [Model] subscribes to a [Session] and renders one screen per session status:
//   - disconnected: prompt to connect, plus the authorization URL once requested
//   - loading genres: spinner
//   - ready: filterable list of genres with counts and shares
//   - failed: the failure message with retry and disconnect hints
//
// State changes flow from the subscription through a channel that a [tea.Cmd] drains one message at a time,
// so the controller never blocks on the render loop.
//
// Keyboard bindings: c connect, r reload, d disconnect, q quit, plus the list's own navigation and filtering.
package ui
