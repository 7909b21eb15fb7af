package session

import (
	"github.com/desertthunder/topgenres/internal/models"
)

// Status enumerates the controller states.
type Status int

const (
	Disconnected Status = iota
	LoadingGenres
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case LoadingGenres:
		return "loading_genres"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// State is an immutable snapshot of the controller.
//
// Credential is nil only when Disconnected. Genres is set only when Ready, Message only when Failed.
type State struct {
	Status     Status
	Credential *models.Credential
	Genres     models.GenreTable
	Message    string
}

func disconnectedState() State {
	return State{Status: Disconnected}
}

func loadingState(cred *models.Credential) State {
	return State{Status: LoadingGenres, Credential: cred}
}

func readyState(cred *models.Credential, table models.GenreTable) State {
	return State{Status: Ready, Credential: cred, Genres: table}
}

func failedState(cred *models.Credential, message string) State {
	return State{Status: Failed, Credential: cred, Message: message}
}
