package models

// SearchState selects which of a user's bookings a listing returns.
type SearchState string

const (
	StateAll      SearchState = "ALL"
	StateCurrent  SearchState = "CURRENT"
	StatePast     SearchState = "PAST"
	StateFuture   SearchState = "FUTURE"
	StateWaiting  SearchState = "WAITING"
	StateRejected SearchState = "REJECTED"
)

// SearchStates lists every supported search state.
var SearchStates = []SearchState{
	StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected,
}

const (
	// DefaultPageFrom and DefaultPageSize apply when a listing omits from/size.
	DefaultPageFrom = 0
	DefaultPageSize = 10

	// UserRateLimitRequests requests per user in UserRateLimitWindow seconds.
	UserRateLimitRequests = 120
	UserRateLimitWindow   = 60
)
