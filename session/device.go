package session

import (
	"context"
	"time"

	"github.com/tinylora/lorawan-mac/crypto"
	"github.com/tinylora/lorawan-mac/lwerr"
	"github.com/tinylora/lorawan-mac/mac"
	"github.com/tinylora/lorawan-mac/maccmd"
	"github.com/tinylora/lorawan-mac/phy"
	"github.com/tinylora/lorawan-mac/region"
)

// Device is the single entry point of §6's Application API: new, join,
// send, take_downlink, rxc_listen, set_datarate, get_session, get_region.
// Every public method consumes and returns synchronously; suspension
// only happens inside the Radio/Timer calls it drives, per §5's
// single-threaded cooperative scheduling model.
type Device struct {
	radio   Radio
	timer   Timer
	rng     RNG
	crypto  crypto.Factory
	band    region.Band
	region  *region.State
	appKey  phy.AppKey
	devEUI  phy.EUI64
	appEUI  phy.EUI64
	classC  bool

	state State
	engine *mac.Engine // nil until a session exists

	pending *Downlink // Class A buffer, D=1
}

// NewDevice constructs a Device over a region configuration and the
// three capability collaborators. classC enables the Class C hooks
// (rxc_listen); Class A devices should pass false.
func NewDevice(band region.Band, rs *region.State, radio Radio, timer Timer, rng RNG, f crypto.Factory, classC bool) *Device {
	return &Device{
		radio:  radio,
		timer:  timer,
		rng:    rng,
		crypto: f,
		band:   band,
		region: rs,
		classC: classC,
		state:  State{Kind: NoSessionIdle},
	}
}

// GetSession returns the current session, or nil if none exists.
func (d *Device) GetSession() *mac.Session {
	if d.engine == nil {
		return nil
	}
	return d.engine.Session
}

// GetRegion returns the current region state for the caller to inspect
// or persist.
func (d *Device) GetRegion() *region.State { return d.region }

// SetDataRate overrides the region's current data rate directly,
// bypassing LinkADR — used for manual ADR-off operation.
func (d *Device) SetDataRate(dr uint8) { d.region.DataRate = dr }

func (d *Device) randDevNonce() (phy.DevNonce, error) {
	var n phy.DevNonce
	if err := d.rng.Fill(n[:]); err != nil {
		return n, err
	}
	return n, nil
}

// Join drives the OTAA join flow: build JoinRequest, TX, wait RX1 then
// RX2 for a JoinAccept, derive session keys on success. Per §4.4 a join
// already in flight is rejected with ErrJoinWhileJoining; a caller
// calling Join from any other non-idle state gets ErrUnexpectedEvent.
func (d *Device) Join(ctx context.Context, mode JoinMode) JoinResponse {
	switch d.state.Kind {
	case NoSessionIdle, SessionIdle:
		// ok: a Session->NoSessionIdle rejoin intentionally drops the
		// old session per §4.4's NewSessionRequest transition.
	case NoSessionSendingJoin, NoSessionWaitingForJoinWindow, NoSessionWaitingForJoinRx:
		return JoinResponse{Err: ErrJoinWhileJoining}
	default:
		return JoinResponse{Err: ErrUnexpectedEvent}
	}

	d.appKey = mode.AppKey
	d.devEUI = mode.DevEUI
	d.appEUI = mode.AppEUI
	d.engine = nil
	d.state = State{Kind: NoSessionSendingJoin}

	devNonce, err := d.randDevNonce()
	if err != nil {
		d.state = State{Kind: NoSessionIdle}
		return JoinResponse{Err: err}
	}

	raw, err := phy.BuildJoinRequest(d.crypto, d.appKey, phy.JoinRequestPayload{
		AppEUI: d.appEUI, DevEUI: d.devEUI, DevNonce: devNonce,
	})
	if err != nil {
		d.state = State{Kind: NoSessionIdle}
		return JoinResponse{Err: err}
	}

	txParams, err := d.band.JoinTXParams(d.region)
	if err != nil {
		d.state = State{Kind: NoSessionIdle}
		return JoinResponse{Err: err}
	}

	txDoneMs, err := d.radio.TX(ctx, TxConfig{Frequency: txParams.Frequency, DataRate: txParams.DataRate, TXPower: txParams.TXPower}, raw)
	if err != nil {
		d.state = State{Kind: NoSessionIdle}
		return JoinResponse{Err: err}
	}

	defaults := d.band.Defaults()
	d.state = State{Kind: NoSessionWaitingForJoinWindow, Win: RxWin1, T0Ms: uint64(txDoneMs)}

	jap, err := d.waitJoinAccept(ctx, devNonce, defaults)
	d.state = State{Kind: NoSessionIdle}
	if err != nil {
		return JoinResponse{Err: err}
	}

	nwk, app, err := phy.DeriveSessionKeys(d.appKey, jap.AppNonce, jap.NetId, devNonce)
	if err != nil {
		return JoinResponse{Err: err}
	}
	d.engine = mac.NewEngine(mac.NewSession(nwk, app, jap.DevAddr, jap.NetId), d.band, d.region)
	d.region.RX1DROffset = jap.DLSettings.RX1DROffset
	d.region.RX2DataRate = jap.DLSettings.RX2DataRate
	d.state = State{Kind: SessionIdle}
	return JoinResponse{Accepted: true}
}

// waitJoinAccept opens RX1 then, on timeout, RX2, per the
// "skip RX2 if RX1 succeeds" rule of §4.4.
func (d *Device) waitJoinAccept(ctx context.Context, devNonce phy.DevNonce, defaults region.Defaults) (phy.JoinAcceptPayload, error) {
	for _, attempt := range []struct {
		win     RxWin
		delayMs uint64
		dr      uint8
		freq    uint32
	}{
		{RxWin1, uint64(defaults.JoinAcceptDelay1) * 1000, 0, 0},
		{RxWin2, uint64(defaults.JoinAcceptDelay2) * 1000, defaults.RX2DataRate, defaults.RX2Frequency},
	} {
		d.state.Win = attempt.win
		if err := d.timer.At(ctx, attempt.delayMs-uint64(d.radio.RXWindowLeadTimeMs())); err != nil {
			return phy.JoinAcceptPayload{}, err
		}
		freq := attempt.freq
		dr := attempt.dr
		if attempt.win == RxWin1 {
			jp, err := d.band.JoinTXParams(d.region)
			if err != nil {
				return phy.JoinAcceptPayload{}, err
			}
			freq, dr = jp.Frequency, jp.DataRate
		}
		if err := d.radio.SetupRX(ctx, RxConfig{Frequency: freq, DataRate: dr, TimeoutMs: d.radio.RXWindowDurationMs()}); err != nil {
			return phy.JoinAcceptPayload{}, err
		}
		buf := make([]byte, 64)
		status, err := d.radio.RXSingle(ctx, buf)
		if err != nil {
			return phy.JoinAcceptPayload{}, err
		}
		if status.Timeout {
			continue
		}
		pp, err := phy.Parse(buf[:status.Len])
		if err != nil || pp.EncryptedJoinAccept == nil {
			continue
		}
		jap, err := phy.ParseJoinAccept(d.crypto, d.appKey, buf[0], pp.EncryptedJoinAccept)
		if err != nil {
			continue
		}
		return jap, nil
	}
	return phy.JoinAcceptPayload{}, ErrRadioEventWhileIdle
}

// Send drives one uplink through RX1/RX2 and returns once a downlink
// was processed or both windows timed out. Per §4.4's synchronous vs
// asynchronous radio note, both paths converge on the same
// WaitingForRxWindow state; this implementation models the common
// synchronous TX case (radio.TX already blocks until done).
func (d *Device) Send(ctx context.Context, payload []byte, fport uint8, confirmed bool) SendResponse {
	if !d.state.HasSession() {
		return SendResponse{Err: ErrSendWhileNoSession}
	}
	if d.state.Kind != SessionIdle {
		return SendResponse{Err: ErrSendWhileWaitingForRx}
	}

	d.state = State{Kind: SessionSendingData, Confirmed: confirmed}

	fcnt, err := d.engine.NextUplinkFCnt()
	if err != nil {
		d.state = State{Kind: SessionIdle}
		return SendResponse{Err: err}
	}

	fOpts := d.engine.Session.Ans.Bytes()
	mtype := phy.UnconfirmedUp
	if confirmed {
		mtype = phy.ConfirmedUp
	}
	var fctrl phy.FCtrl
	if d.engine.Session.AckPending {
		fc, _ := phy.NewFCtrl(false, false, true, false, uint8(len(fOpts)))
		fctrl = fc
		d.engine.Session.AckPending = false
	} else {
		fc, _ := phy.NewFCtrl(false, false, false, false, uint8(len(fOpts)))
		fctrl = fc
	}

	raw, err := phy.BuildDataFrame(d.crypto, d.engine.Session.NwkSKey, d.engine.Session.AppSKey, mtype, d.engine.Session.DevAddr, fcnt, fctrl, &fport, payload, fOpts)
	if err != nil {
		d.state = State{Kind: SessionIdle}
		return SendResponse{Err: err}
	}

	txParams, err := d.band.TXParamsFor(d.region, 0)
	if err != nil {
		d.state = State{Kind: SessionIdle}
		return SendResponse{Err: err}
	}

	now := time.Now()
	onAir, allowed := d.engine.CheckDutyCycle(now, len(raw))
	if !allowed {
		d.state = State{Kind: SessionIdle}
		return SendResponse{Err: mac.ErrDutyCycleExceeded}
	}

	txDoneMs, err := d.radio.TX(ctx, TxConfig{Frequency: txParams.Frequency, DataRate: txParams.DataRate, TXPower: txParams.TXPower}, raw)
	if err != nil {
		d.state = State{Kind: SessionIdle}
		return SendResponse{Err: lwerr.WrapRadio(err)}
	}
	d.engine.RecordTX(now, onAir)

	d.engine.Session.Ans.ClearNonSticky()
	d.state = State{Kind: SessionWaitingForRxWindow, Win: RxWin1, T0Ms: uint64(txDoneMs), Confirmed: confirmed}

	acked, err := d.waitDataDownlink(ctx, 0, txDoneMs)
	d.state = State{Kind: SessionIdle}
	return SendResponse{Acked: acked, Err: err}
}

// waitDataDownlink opens RX1 then RX2 for a data-frame downlink,
// processes any MAC commands piggybacked in FOpts/FPort0, reassembles
// and replay-checks FCnt, and buffers an application-bound payload for
// take_downlink. uplinkChannelIdx selects which channel's RX1
// parameters to derive.
func (d *Device) waitDataDownlink(ctx context.Context, uplinkChannelIdx int, txDoneMs uint32) (acked bool, err error) {
	defaults := d.band.Defaults()
	rx1DelayMs := uint64(defaults.RX1Delay) * 1000

	for _, win := range []RxWin{RxWin1, RxWin2} {
		d.state.Win = win
		var rxp region.RXWindowParams
		if win == RxWin1 {
			rxp, err = d.band.RX1ParamsFor(d.region, uplinkChannelIdx, d.region.DataRate)
		} else {
			rxp = d.band.RX2Params(d.region)
		}
		if err != nil {
			d.state = State{Kind: SessionIdle}
			return false, err
		}

		delay := rx1DelayMs
		if win == RxWin2 {
			delay = rx1DelayMs + 1000
		}
		if err := d.timer.At(ctx, uint64(txDoneMs)+delay-uint64(d.radio.RXWindowLeadTimeMs())); err != nil {
			return false, err
		}

		d.state = State{Kind: SessionWaitingForRx, Win: win, T0Ms: uint64(txDoneMs), Confirmed: d.state.Confirmed}

		if err := d.radio.SetupRX(ctx, RxConfig{Frequency: rxp.Frequency, DataRate: rxp.DataRate, TimeoutMs: d.radio.RXWindowDurationMs()}); err != nil {
			return false, err
		}
		buf := make([]byte, 256)
		status, rerr := d.radio.RXSingle(ctx, buf)
		if rerr != nil {
			if cerr := d.radio.CancelRX(ctx); cerr != nil {
				return false, cerr
			}
			return false, rerr
		}
		if status.Timeout {
			continue
		}

		acked, ferr := d.processDownlinkFrame(buf[:status.Len])
		if ferr != nil {
			// An unparseable frame or a failed MIC is not this
			// device's downlink — drop it silently and keep
			// listening in the next window, per §4.4/§7, rather
			// than treating it as a fatal receive error.
			continue
		}
		return acked, nil
	}
	return false, nil
}

// processDownlinkFrame validates and decodes one received data frame,
// applies any MAC commands it carries, and buffers the application
// payload if present.
func (d *Device) processDownlinkFrame(raw []byte) (acked bool, err error) {
	pp, err := phy.Parse(raw)
	if err != nil || pp.Data == nil {
		return false, err
	}

	fcnt := phy.ReassembleFCnt(d.engine.Session.FCntDown, pp.Data.FHDR.FCnt)
	ok, err := phy.ValidateDataMIC(d.crypto, d.engine.Session.NwkSKey, false, d.engine.Session.DevAddr, fcnt, raw)
	if err != nil || !ok {
		return false, phy.ErrInvalidMIC
	}

	fcnt, err = d.engine.AcceptDownlinkFCnt(pp.Data.FHDR.FCnt)
	if err != nil {
		return false, err
	}

	if len(pp.Data.FHDR.FOpts) > 0 {
		d.engine.ApplyDownlinkCommands(maccmd.Downlink, pp.Data.FHDR.FOpts)
	}

	pt, err := phy.CryptFRMPayload(d.engine.Session.NwkSKey, d.engine.Session.AppSKey, pp.Data.FPort, false, d.engine.Session.DevAddr, fcnt, pp.Data.FRMPayload)
	if err != nil {
		return false, err
	}

	if pp.Data.FPort != nil && *pp.Data.FPort == 0 && len(pt) > 0 {
		d.engine.ApplyDownlinkCommands(maccmd.Downlink, pt)
	} else if len(pt) > 0 || pp.Data.FPort != nil {
		d.pending = &Downlink{FPort: pp.Data.FPort, Payload: pt, FCnt: fcnt}
	}

	acked = pp.Data.FHDR.FCtrl.ACK()
	if acked {
		d.engine.Session.Ans.ClearAll()
	}
	return acked, nil
}

// TakeDownlink drains and returns the single buffered Class A downlink,
// or nil if none is pending.
func (d *Device) TakeDownlink() *Downlink {
	dl := d.pending
	d.pending = nil
	return dl
}

// RxcListen performs one Class C continuous-receive wait, cancellable
// by the timer firing at deadlineMs (the start of the device's next
// scheduled uplink), per §5's cancellation contract: the RX future and
// the timer race, and the timer winning does not count as a radio error.
func (d *Device) RxcListen(ctx context.Context, deadlineMs uint64) ListenResponse {
	if !d.classC {
		return ListenResponse{Err: ErrUnexpectedEvent}
	}
	if !d.state.Idle() {
		return ListenResponse{Err: ErrUnexpectedEvent}
	}

	rxCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		n   int
		q   RxQuality
		err error
	}
	done := make(chan result, 1)
	buf := make([]byte, 256)
	go func() {
		n, q, err := d.radio.RXContinuous(rxCtx, buf)
		done <- result{n, q, err}
	}()

	timerDone := make(chan error, 1)
	go func() { timerDone <- d.timer.At(ctx, deadlineMs) }()

	select {
	case r := <-done:
		if r.err != nil {
			return ListenResponse{Err: r.err}
		}
		acked, err := d.processDownlinkFrame(buf[:r.n])
		if err != nil {
			return ListenResponse{Err: err}
		}
		_ = acked
		return ListenResponse{Downlink: d.TakeDownlink()}
	case <-timerDone:
		cancel()
		if err := d.radio.CancelRX(ctx); err != nil {
			return ListenResponse{Err: err}
		}
		return ListenResponse{}
	}
}
