package session

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tinylora/lorawan-mac/crypto"
	"github.com/tinylora/lorawan-mac/phy"
	"github.com/tinylora/lorawan-mac/region"
)

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// fakeRadio plays back a scripted sequence of RXSingle results and
// records every TX payload, standing in for the hardware driver.
type fakeRadio struct {
	txLog     [][]byte
	rxResults []RxStatus
	rxIdx     int
	rxBuf     [][]byte
}

func (r *fakeRadio) TX(ctx context.Context, cfg TxConfig, payload []byte) (uint32, error) {
	r.txLog = append(r.txLog, append([]byte(nil), payload...))
	return 1000, nil
}
func (r *fakeRadio) SetupRX(ctx context.Context, cfg RxConfig) error { return nil }
func (r *fakeRadio) RXSingle(ctx context.Context, buf []byte) (RxStatus, error) {
	if r.rxIdx >= len(r.rxResults) {
		return RxStatus{Timeout: true}, nil
	}
	res := r.rxResults[r.rxIdx]
	if !res.Timeout {
		copy(buf, r.rxBuf[r.rxIdx])
	}
	r.rxIdx++
	return res, nil
}
func (r *fakeRadio) RXContinuous(ctx context.Context, buf []byte) (int, RxQuality, error) {
	<-ctx.Done()
	return 0, RxQuality{}, ctx.Err()
}
func (r *fakeRadio) CancelRX(ctx context.Context) error { return nil }
func (r *fakeRadio) LowPower(ctx context.Context) error { return nil }
func (r *fakeRadio) RXWindowLeadTimeMs() uint32         { return 0 }
func (r *fakeRadio) RXWindowOffsetMs() int32            { return 0 }
func (r *fakeRadio) RXWindowDurationMs() uint32         { return 100 }
func (r *fakeRadio) MaxRadioPower() int8                { return 20 }
func (r *fakeRadio) AntennaGain() int8                  { return 0 }

type fakeTimer struct{}

func (fakeTimer) At(ctx context.Context, ms uint64) error { return nil }
func (fakeTimer) Reset()                                  {}

// fakeRNG fills with seq first, then with fill for any remaining bytes.
type fakeRNG struct {
	fill byte
	seq  []byte
}

func (r fakeRNG) Fill(buf []byte) error {
	for i := range buf {
		if i < len(r.seq) {
			buf[i] = r.seq[i]
		} else {
			buf[i] = r.fill
		}
	}
	return nil
}

// TestDeviceJoinSucceedsOnRX1 drives a full OTAA join using the S1/S2
// test-vector material, with the JoinAccept arriving in RX1.
func TestDeviceJoinSucceedsOnRX1(t *testing.T) {
	band, _, rs := region.NewEU868()
	radio := &fakeRadio{
		rxResults: []RxStatus{{Len: 17}},
		rxBuf:     [][]byte{hexBytes(t, "20" + "493eeb51" + "fba2116f" + "810edb37" + "42975142")},
	}
	dev := NewDevice(band, rs, radio, fakeTimer{}, fakeRNG{seq: []byte{0x2d, 0x10}}, crypto.SoftwareFactory{}, false)

	appKey := phy.AppKey(mustHexKey(t, "00112233445566778899aabbccddeeff"))
	resp := dev.Join(context.Background(), JoinMode{AppKey: appKey})
	require.NoError(t, resp.Err)
	require.True(t, resp.Accepted)

	sess := dev.GetSession()
	require.NotNil(t, sess)
	require.Equal(t, phy.NwkSKey(mustHexKey(t, "7bb25f89e0d1371e1fbf4d997e1468a3")), sess.NwkSKey)
	require.Equal(t, phy.AppSKey(mustHexKey(t, "148820dfb1e0c9d6289cde16c1af249f")), sess.AppSKey)
	require.Len(t, radio.txLog, 1)
}

func TestDeviceJoinTimesOutBothWindows(t *testing.T) {
	band, _, rs := region.NewEU868()
	radio := &fakeRadio{rxResults: []RxStatus{{Timeout: true}, {Timeout: true}}}
	dev := NewDevice(band, rs, radio, fakeTimer{}, fakeRNG{fill: 0x01}, crypto.SoftwareFactory{}, false)

	resp := dev.Join(context.Background(), JoinMode{})
	require.Error(t, resp.Err)
	require.False(t, resp.Accepted)
	require.Nil(t, dev.GetSession())
}

func TestDeviceSendWithoutSessionRejected(t *testing.T) {
	band, _, rs := region.NewEU868()
	dev := NewDevice(band, rs, &fakeRadio{}, fakeTimer{}, fakeRNG{}, crypto.SoftwareFactory{}, false)
	resp := dev.Send(context.Background(), []byte("hi"), 1, false)
	require.ErrorIs(t, resp.Err, ErrSendWhileNoSession)
}

func mustHexKey(t *testing.T, s string) (k [16]byte) {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	copy(k[:], b)
	return
}
