package mac

import "time"

// dutyCycleWindow is the rolling accounting window the MaxDutyCycle
// exponent from a DutyCycleReq is enforced over.
const dutyCycleWindow = time.Hour

// DutyCycleTracker enforces the transmit duty-cycle limit most recently
// set by a DutyCycleReq MAC command: at MaxDutyCycle exponent n, at
// most 1/2^n of dutyCycleWindow may be spent transmitting. 0xFF means
// no duty-cycle limit at all (the region's own band plan still applies
// independently, enforced elsewhere).
type DutyCycleTracker struct {
	maxDutyCycle uint8
	windowStart  time.Time
	onAirInWin   time.Duration
}

// SetMaxDutyCycle installs a new exponent, as applied by a DutyCycleReq.
func (t *DutyCycleTracker) SetMaxDutyCycle(exp uint8) {
	t.maxDutyCycle = exp
}

// Allow reports whether a transmission lasting onAir may proceed at
// now without exceeding the configured budget.
func (t *DutyCycleTracker) Allow(now time.Time, onAir time.Duration) bool {
	if t.maxDutyCycle == 0xFF {
		return true
	}
	t.rollWindow(now)
	budget := dutyCycleWindow >> t.maxDutyCycle
	return t.onAirInWin+onAir <= budget
}

// RecordTX accounts for a transmission that was allowed to proceed.
func (t *DutyCycleTracker) RecordTX(now time.Time, onAir time.Duration) {
	t.rollWindow(now)
	t.onAirInWin += onAir
}

func (t *DutyCycleTracker) rollWindow(now time.Time) {
	if t.windowStart.IsZero() || now.Sub(t.windowStart) >= dutyCycleWindow {
		t.windowStart = now
		t.onAirInWin = 0
	}
}
