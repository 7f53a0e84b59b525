// Package pipeline is the sole authority for changing an application's status.
package pipeline

import "hiretrack/internal/store"

// transitions is the fixed adjacency table. Terminal statuses have no entry.
// Who may drive each edge is decided by auth.Policy.
var transitions = map[store.Status][]store.Status{
	store.StatusPending:   {store.StatusReviewing, store.StatusRejected, store.StatusWithdrawn},
	store.StatusReviewing: {store.StatusInterview, store.StatusRejected, store.StatusWithdrawn},
	store.StatusInterview: {store.StatusOffer, store.StatusRejected, store.StatusWithdrawn},
	store.StatusOffer:     {store.StatusRejected, store.StatusAccepted},
}

// CanTransition reports whether to is reachable from from in one step.
func CanTransition(from, to store.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s.
func NextStatuses(s store.Status) []store.Status {
	return append([]store.Status(nil), transitions[s]...)
}
