package session

// RxWin identifies which receive window a wait/timeout state concerns.
type RxWin int

const (
	RxWin1 RxWin = iota
	RxWin2
)

// Kind enumerates every sub-state of the NoSession/Session super-states
// from §4.4's state diagram. Encoding the whole tagged variant as one
// Kind plus a handful of contextual fields (rather than a Go interface
// per sub-state) keeps transitions allocation-free: a transition just
// returns a new State by value, never heap-allocates, and the cyclic
// edges (e.g. WaitingForRx -> WaitingForRxWindow(Rx2)) are plain value
// assignments instead of pointer rewiring.
type Kind int

const (
	NoSessionIdle Kind = iota
	NoSessionSendingJoin
	NoSessionWaitingForJoinWindow
	NoSessionWaitingForJoinRx

	SessionIdle
	SessionSendingData
	SessionWaitingForRxWindow
	SessionWaitingForRx
)

func (k Kind) hasSession() bool { return k >= SessionIdle }

// State is the tagged variant Device owns. T0Ms is the TX-done
// timestamp a wait state is scheduled relative to; Confirmed is only
// meaningful for the Session variants (§4.4 carries it on SendingData/
// WaitingForRxWindow/WaitingForRx, not on the NoSession join path,
// where confirmability is implicit in the join itself).
type State struct {
	Kind      Kind
	Win       RxWin
	T0Ms      uint64
	Confirmed bool
}

// Idle reports the two "nothing in flight" states (NoSessionIdle,
// SessionIdle) that take/join/send transitions from.
func (s State) Idle() bool { return s.Kind == NoSessionIdle || s.Kind == SessionIdle }

// HasSession reports whether a valid session exists in this state.
func (s State) HasSession() bool { return s.Kind.hasSession() }
