package session

import "github.com/tinylora/lorawan-mac/lwerr"

var (
	// ErrSendWhileWaitingForRx is returned by Send when a session exists
	// but the machine is not idle: the caller must serialize calls.
	ErrSendWhileWaitingForRx error = lwerr.SendDataWhileWaitingForRx
	// ErrSendWhileNoSession is returned by Send before a successful join.
	ErrSendWhileNoSession error = lwerr.SendDataWhileNoSession
	// ErrRadioEventWhileIdle is returned when a radio-driven transition
	// fires but the state machine has nothing outstanding, and by Join
	// when neither join window yields a valid JoinAccept.
	ErrRadioEventWhileIdle error = lwerr.RadioEventWhileIdle
	// ErrJoinWhileJoining is returned by Join when a join is already
	// in flight.
	ErrJoinWhileJoining error = lwerr.JoinWhileJoining
	// ErrUnexpectedEvent covers any other (event, state) combination
	// that is categorically wrong per §4.4.
	ErrUnexpectedEvent error = lwerr.UnexpectedEvent
)
