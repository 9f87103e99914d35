// Package region implements the end-device-side regional parameters of
// §4.5: per-band channel plans, data-rate tables and the atomic
// validate-then-apply contract LinkADR/NewChannel/RXParamSetup/
// DLChannel mutate region state through.
package region

import "github.com/tinylora/lorawan-mac/lwerr"

// DataRate describes one entry of a region's data-rate table.
type DataRate struct {
	SpreadFactor int // 0 for FSK
	Bandwidth    int // kHz, 0 for FSK
	BitRate      int // bps, FSK only
	Uplink       bool
	Downlink     bool
}

// Channel is one uplink/downlink channel slot.
type Channel struct {
	Frequency uint32 // Hz, 0 means unset/disabled slot
	MinDR     uint8
	MaxDR     uint8
	Enabled   bool
}

// TXParams is what the MAC layer needs to schedule an uplink.
type TXParams struct {
	Frequency uint32
	DataRate  uint8
	TXPower   int // dBm, already offset-adjusted
}

// RXWindowParams is what the MAC layer needs to open an RX window.
type RXWindowParams struct {
	Frequency uint32
	DataRate  uint8
}

// Defaults are the region's fixed timing/behavior constants.
type Defaults struct {
	RX1Delay         uint8 // seconds
	RX2Frequency     uint32
	RX2DataRate      uint8
	MaxFCntGap       uint32
	JoinAcceptDelay1 uint8 // seconds
	JoinAcceptDelay2 uint8 // seconds
}

// Diff is the set of mutations a validated LinkADR/NewChannel/
// RXParamSetup/DLChannel request would make, computed but not yet
// applied. The engine calls Apply only once the whole chained request
// has validated successfully, per the atomic-application design.
type Diff struct {
	apply func(*State)
}

// ChMaskCntl special values. On US915, 6 enables and 7 disables all 64
// 125 kHz channels, and ChMask's low 8 bits then select the 500 kHz
// channels. EU868 treats 6 as "enable every configured channel" and
// rejects 7.
const (
	ChMaskCntlAll125kHzOn  = 6
	ChMaskCntlAll125kHzOff = 7
)

// Band is the capability a region exposes to the MAC engine. All
// mutating calls validate first and report Diff/ok without touching
// State; the engine applies the Diff only after a whole atomic run of
// chained requests has validated, per §4.5's atomic LinkADR contract.
type Band interface {
	Name() string
	Defaults() Defaults

	// DataRateTable looks up a region data-rate index, for callers (e.g.
	// duty-cycle airtime accounting) that need the modulation parameters
	// behind a DR rather than just validating it.
	DataRateTable(dr uint8) (DataRate, bool)

	// TXParamsFor resolves the uplink radio parameters for the channel
	// currently selected by State's data rate and enabled-channel set.
	TXParamsFor(s *State, channelIdx int) (TXParams, error)

	// RX1ParamsFor derives the RX1 window parameters from the uplink
	// channel/data-rate that was just transmitted.
	RX1ParamsFor(s *State, uplinkChannelIdx int, uplinkDR uint8) (RXWindowParams, error)

	// RX2Params derives the RX2 window parameters from current state
	// (RX2 frequency/DR may have been changed by RXParamSetupReq).
	RX2Params(s *State) RXWindowParams

	// JoinTXParams resolves radio parameters for a join-request, always
	// sent on the region's fixed join channel set at the lowest DR.
	JoinTXParams(s *State) (TXParams, error)

	// ValidateLinkADR checks one LinkADRReq payload against s and
	// returns the mutation it would make without applying it. ok=false
	// means this single request in the chain failed validation; the
	// engine is responsible for zeroing the corresponding Ans bits and
	// aborting the whole chained apply per §4.3/§4.5.
	ValidateLinkADR(s *State, dataRate, txPower uint8, chMaskCntl uint8, chMask uint16) (diff Diff, channelMaskOK, dataRateOK, powerOK bool)

	// ValidateNewChannel checks a NewChannelReq. Fixed-channel regions
	// report ok=false unconditionally and emit no Diff: §4.3 requires
	// NewChannelReq be inert there, with zero Ans bytes queued by the
	// engine (not even a nacked Ans).
	ValidateNewChannel(s *State, chIndex uint8, freq uint32, minDR, maxDR uint8) (diff Diff, applicable, freqOK, drRangeOK bool)

	// ValidateRXParamSetup checks an RXParamSetupReq.
	ValidateRXParamSetup(s *State, rx1DROffset, rx2DataRate uint8, frequency uint32) (diff Diff, channelOK, rx2DROK, rx1OffsetOK bool)

	// ValidateDLChannel checks a DLChannelReq.
	ValidateDLChannel(s *State, chIndex uint8, frequency uint32) (diff Diff, freqOK, uplinkFreqOK bool)
}

// Apply commits a validated Diff to s. A zero Diff (returned alongside
// ok=false from any Validate* call) is a no-op.
func Apply(s *State, d Diff) {
	if d.apply == nil {
		return
	}
	d.apply(s)
}

// ErrChannelDoesNotExist mirrors the region/parameter error kind for a
// channel index or bank outside what this region plan defines.
var ErrChannelDoesNotExist error = lwerr.InvalidChannelList
