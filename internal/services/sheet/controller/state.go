package controller

import "github.com/louisbranch/swnsheet/internal/services/sheet/client"

// State is what the sheet renders. Character is nil until the first load
// succeeds.
type State struct {
	Character *client.Record
	Loading   bool
	// Error is the display text of the latest failure; empty when none.
	Error string
	// ErrorKey is the catalog key for Error. Server-supplied messages have none.
	ErrorKey string
}

// ActionKind enumerates reducer actions.
type ActionKind int

const (
	// LoadStarted marks a dispatched remote call.
	LoadStarted ActionKind = iota + 1
	// LoadSucceeded settles a call. A nil Record keeps the current character.
	LoadSucceeded
	// LoadFailed settles a call with an error.
	LoadFailed
	// Rejected records a local validation error without touching loading.
	Rejected
)

// Action is one state transition. Seq ties a settle to its dispatch.
type Action struct {
	Kind     ActionKind
	Seq      uint64
	Record   *client.Record
	Error    string
	ErrorKey string
}

// Reduce applies action to state. latest is the sequence of the newest
// dispatch; settles from older dispatches are dropped whole, including
// their loading reset, so the newer call still shows as in flight.
func Reduce(state State, latest uint64, action Action) State {
	switch action.Kind {
	case LoadStarted:
		state.Loading = true
	case LoadSucceeded:
		if action.Seq < latest {
			return state
		}
		if action.Record != nil {
			rec := *action.Record
			state.Character = &rec
		}
		state.Loading = false
		state.Error = ""
		state.ErrorKey = ""
	case LoadFailed:
		if action.Seq < latest {
			return state
		}
		state.Loading = false
		state.Error = action.Error
		state.ErrorKey = action.ErrorKey
	case Rejected:
		state.Error = action.Error
		state.ErrorKey = action.ErrorKey
	}
	return state
}
