package mac

import (
	"math"
	"time"

	"github.com/tinylora/lorawan-mac/maccmd"
	"github.com/tinylora/lorawan-mac/phy"
	"github.com/tinylora/lorawan-mac/region"
)

// Engine ties a Session to a region.Band/region.State pair and applies
// downlink MAC commands against them, per §4.3's atomic-apply contract:
// a whole chained run of LinkADRReq commands validates before any of
// them mutates region state.
type Engine struct {
	Session   *Session
	Band      region.Band
	Region    *region.State
	DutyCycle DutyCycleTracker
}

// NewEngine constructs an Engine over an existing session and region.
// The duty-cycle budget starts unrestricted (0xFF) until a
// DutyCycleReq configures one.
func NewEngine(s *Session, band region.Band, rs *region.State) *Engine {
	e := &Engine{Session: s, Band: band, Region: rs}
	e.DutyCycle.SetMaxDutyCycle(0xFF)
	return e
}

// CheckDutyCycle reports whether transmitting payloadSize bytes at the
// region's currently configured data rate would stay within the
// duty-cycle budget, without recording the transmission.
func (e *Engine) CheckDutyCycle(now time.Time, payloadSize int) (time.Duration, bool) {
	dr, ok := e.Band.DataRateTable(e.Region.DataRate)
	if !ok {
		return 0, true
	}
	onAir, err := TimeOnAir(payloadSize, dr, 8, CodingRate45, true, false)
	if err != nil {
		return 0, true
	}
	return onAir, e.DutyCycle.Allow(now, onAir)
}

// RecordTX accounts for a transmission already sent, advancing the
// duty-cycle window.
func (e *Engine) RecordTX(now time.Time, onAir time.Duration) {
	e.DutyCycle.RecordTX(now, onAir)
}

// NextUplinkFCnt returns the frame counter to use for the next uplink
// and advances it, or ErrSessionExpired if advancing would overflow,
// per the Open Questions resolution in §9: counter exhaustion ends the
// session and requires a new join.
func (e *Engine) NextUplinkFCnt() (uint32, error) {
	if e.Session.FCntUp == math.MaxUint32 {
		return 0, ErrSessionExpired
	}
	fcnt := e.Session.FCntUp
	e.Session.FCntUp++
	return fcnt, nil
}

// AcceptDownlinkFCnt reassembles the wire FCnt against the session's
// last-known downlink counter and enforces the replay guard of §4.1:
// a reassembled value that is not strictly greater than the last
// accepted one is rejected outright, and counter exhaustion surfaces
// ErrSessionExpired exactly as it does for uplinks.
func (e *Engine) AcceptDownlinkFCnt(wireLow16 uint16) (uint32, error) {
	fcnt := phy.ReassembleFCnt(e.Session.FCntDown, wireLow16)
	if e.Session.FCntDown != 0 || wireLow16 != 0 {
		if fcnt <= e.Session.FCntDown {
			return 0, ErrReplay
		}
	}
	if fcnt == math.MaxUint32 {
		return fcnt, ErrSessionExpired
	}
	e.Session.FCntDown = fcnt
	return fcnt, nil
}

// linkADRRun accumulates the chained LinkADRReq commands seen in one
// downlink before resolving the single proposal that gets validated
// and, if accepted, applied — the "whole run" atomicity unit of §4.5's
// design notes. dataRate/txPower track the latest non-keep (0xF) value
// seen so far, so a later command in the chain overrides an earlier
// one exactly as §4.3 requires.
type linkADRRun struct {
	dataRate, txPower uint8
	masks             []maccmd.LinkADRReqPayload
	seen              bool
}

func (r *linkADRRun) add(p maccmd.LinkADRReqPayload) {
	if !r.seen {
		r.dataRate, r.txPower = maccmd.Keep, maccmd.Keep
		r.seen = true
	}
	if p.DataRate != maccmd.Keep {
		r.dataRate = p.DataRate
	}
	if p.TXPower != maccmd.Keep {
		r.txPower = p.TXPower
	}
	r.masks = append(r.masks, p)
}

// ApplyDownlinkCommands consumes every MAC command in a downlink's
// FOpts (or FPort-0 FRMPayload) buffer, mutating Region/Session as
// appropriate and queuing the corresponding Ans bytes. LinkADRReq
// commands are collected across the whole buffer and applied as one
// atomic unit: if any LinkADRReq in the chain fails validation, none of
// the region mutation happens and every chained request gets the same
// Ans, each ack bit being the AND of that bit across the run (S5 yields
// 03 06 three times). NewChannelReq on a fixed-channel region is
// silently dropped with no Ans queued at all, per §4.3.
func (e *Engine) ApplyDownlinkCommands(dir maccmd.Direction, data []byte) {
	cmds := maccmd.ParseCommands(dir, data)

	var run linkADRRun
	for _, c := range cmds {
		switch c.CID {
		case maccmd.LinkADR:
			p, err := maccmd.ParseLinkADRReqPayload(c.Payload)
			if err != nil {
				continue
			}
			run.add(p)
		case maccmd.DutyCycle:
			if p, err := maccmd.ParseDutyCycleReqPayload(c.Payload); err == nil {
				e.DutyCycle.SetMaxDutyCycle(p.MaxDutyCycle)
				e.Session.Ans.Push(maccmd.EncodeCommand(maccmd.DutyCycle, nil), false)
			}
		case maccmd.RXParamSetup:
			p, err := maccmd.ParseRXParamSetupReqPayload(c.Payload)
			if err != nil {
				continue
			}
			diff, chOK, rx2OK, rx1OK := e.Band.ValidateRXParamSetup(e.Region, p.RX1DROffset, p.RX2DataRate, p.Frequency)
			region.Apply(e.Region, diff)
			ans := maccmd.RXParamSetupAnsPayload{ChannelACK: chOK, RX2DataRateACK: rx2OK, RX1DROffsetACK: rx1OK}
			e.Session.Ans.Push(maccmd.EncodeCommand(maccmd.RXParamSetup, ans.Marshal()), true)
		case maccmd.NewChannel:
			p, err := maccmd.ParseNewChannelReqPayload(c.Payload)
			if err != nil {
				continue
			}
			diff, applicable, freqOK, drOK := e.Band.ValidateNewChannel(e.Region, p.ChIndex, p.Freq, p.MinDR, p.MaxDR)
			if !applicable {
				continue
			}
			region.Apply(e.Region, diff)
			ans := maccmd.NewChannelAnsPayload{ChannelFrequencyOK: freqOK, DataRateRangeOK: drOK}
			e.Session.Ans.Push(maccmd.EncodeCommand(maccmd.NewChannel, ans.Marshal()), false)
		case maccmd.RXTimingSetup:
			if _, err := maccmd.ParseRXTimingSetupReqPayload(c.Payload); err == nil {
				e.Session.Ans.Push(maccmd.EncodeCommand(maccmd.RXTimingSetup, nil), false)
			}
		case maccmd.TXParamSetup:
			if _, err := maccmd.ParseTXParamSetupReqPayload(c.Payload); err == nil {
				e.Session.Ans.Push(maccmd.EncodeCommand(maccmd.TXParamSetup, nil), false)
			}
		case maccmd.DLChannel:
			p, err := maccmd.ParseDLChannelReqPayload(c.Payload)
			if err != nil {
				continue
			}
			diff, freqOK, uplinkOK := e.Band.ValidateDLChannel(e.Region, p.ChIndex, p.Frequency)
			region.Apply(e.Region, diff)
			ans := maccmd.DLChannelAnsPayload{ChannelFrequencyOK: freqOK, UplinkFrequencyOK: uplinkOK}
			e.Session.Ans.Push(maccmd.EncodeCommand(maccmd.DLChannel, ans.Marshal()), false)
		case maccmd.DeviceTime:
			if p, err := maccmd.ParseDeviceTimeAnsPayload(c.Payload); err == nil {
				_ = p // the parsed DeviceTimeAns is discarded; device time is not tracked
			}
		}
	}

	if run.seen {
		e.applyLinkADRRun(run)
	}
}

// applyLinkADRRun resolves the final (DR, TXPower, ChMask) proposal
// from every chained LinkADRReq and validates it once against Region,
// per the atomic-LinkADR design note in §9: "the engine computes the
// final proposal from the whole run before calling it once."
//
// The channel mask is folded cumulatively: each command's (ChMaskCntl,
// ChMask) is validated and applied in order against a scratch copy of
// Region, so a bank-0 selection from an earlier command in the chain
// survives a later command that only touches a different bank —
// mirroring the teacher's GetEnabledUplinkChannelIndicesForLinkADRReqPayloads,
// which folds the whole payload list before deciding anything. DR and
// TXPower are the single final values the whole run resolved to
// (linkADRRun.add already applied the keep-sentinel/override rule), so
// every command in the chain is validated against that same pair
// rather than its own, individual fields.
func (e *Engine) applyLinkADRRun(run linkADRRun) {
	scratch := e.Region.Clone()

	maskOK, drOK, powOK := true, true, true
	for _, p := range run.masks {
		diff, cmdMaskOK, cmdDROK, cmdPowOK := e.Band.ValidateLinkADR(scratch, run.dataRate, run.txPower, p.Redundancy.ChMaskCntl, uint16(p.ChMask))
		maskOK = maskOK && cmdMaskOK
		drOK = drOK && cmdDROK
		powOK = powOK && cmdPowOK
		if cmdMaskOK && cmdDROK && cmdPowOK {
			region.Apply(scratch, diff)
		}
	}

	if maskOK && drOK && powOK {
		e.Region.DataRate = scratch.DataRate
		e.Region.TXPower = scratch.TXPower
		copy(e.Region.ChannelMask, scratch.ChannelMask)
	}

	ans := maccmd.LinkADRAnsPayload{ChannelMaskACK: maskOK, DataRateACK: drOK, PowerACK: powOK}
	encoded := maccmd.EncodeCommand(maccmd.LinkADR, ans.Marshal())
	for range run.masks {
		e.Session.Ans.Push(encoded, false)
	}
}
