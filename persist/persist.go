// Package persist defines the optional persisted-state contract of
// §6: the stack itself never persists anything, but exposes the
// Session and Region state in a shape a caller's Store can save and
// restore across power cycles.
package persist

import (
	"context"

	"github.com/tinylora/lorawan-mac/mac"
	"github.com/tinylora/lorawan-mac/phy"
	"github.com/tinylora/lorawan-mac/region"
)

// SessionState is the persisted subset of mac.Session: keys, identity
// and both frame counters. Pending-ack/confirmed flags are not
// persisted — they are re-derived from in-flight behavior after
// restore, never assumed durable across a reset.
type SessionState struct {
	NwkSKey phy.NwkSKey
	AppSKey phy.AppSKey
	DevAddr phy.DevAddr
	NetId   phy.NetId

	FCntUp   uint32
	FCntDown uint32
}

// RegionState is the persisted subset of region.State: channel mask,
// data rate, TX power, and the RX1/RX2 overrides any RXParamSetupReq
// applied.
type RegionState struct {
	DataRate     uint8
	TXPower      uint8
	ChannelMask  []bool
	RX1DROffset  uint8
	RX2DataRate  uint8
	RX2Frequency uint32
}

// FromSession extracts the persisted fields of a live session.
func FromSession(s *mac.Session) SessionState {
	return SessionState{
		NwkSKey: s.NwkSKey, AppSKey: s.AppSKey, DevAddr: s.DevAddr, NetId: s.NetId,
		FCntUp: s.FCntUp, FCntDown: s.FCntDown,
	}
}

// FromRegion extracts the persisted fields of a live region state.
func FromRegion(s *region.State) RegionState {
	return RegionState{
		DataRate: s.DataRate, TXPower: s.TXPower,
		ChannelMask:  append([]bool(nil), s.ChannelMask...),
		RX1DROffset:  s.RX1DROffset,
		RX2DataRate:  s.RX2DataRate,
		RX2Frequency: s.RX2Frequency,
	}
}

// Restore writes a persisted SessionState back into a mac.Session.
func (ss SessionState) Restore(s *mac.Session) {
	s.NwkSKey, s.AppSKey, s.DevAddr, s.NetId = ss.NwkSKey, ss.AppSKey, ss.DevAddr, ss.NetId
	s.FCntUp, s.FCntDown = ss.FCntUp, ss.FCntDown
}

// Restore writes a persisted RegionState back into a region.State.
func (rs RegionState) Restore(s *region.State) {
	s.DataRate, s.TXPower = rs.DataRate, rs.TXPower
	copy(s.ChannelMask, rs.ChannelMask)
	s.RX1DROffset, s.RX2DataRate, s.RX2Frequency = rs.RX1DROffset, rs.RX2DataRate, rs.RX2Frequency
}

// Store is the capability a caller implements to persist device state
// across resets, keyed by DevEUI. The core stack never calls this
// itself — it is wired up by host-side code that owns the device's
// lifecycle.
type Store interface {
	SaveSession(ctx context.Context, devEUI phy.EUI64, s SessionState) error
	LoadSession(ctx context.Context, devEUI phy.EUI64) (SessionState, bool, error)
	SaveRegion(ctx context.Context, devEUI phy.EUI64, s RegionState) error
	LoadRegion(ctx context.Context, devEUI phy.EUI64) (RegionState, bool, error)
}
