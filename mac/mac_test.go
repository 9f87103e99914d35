package mac

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tinylora/lorawan-mac/maccmd"
	"github.com/tinylora/lorawan-mac/phy"
	"github.com/tinylora/lorawan-mac/region"
)

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func newTestSession() *Session {
	var nwk phy.NwkSKey
	var app phy.AppSKey
	return NewSession(nwk, app, phy.DevAddr{}, phy.NetId{})
}

// S5 — chained LinkADRReq, all rejected because the final mask is
// empty; three identical Ans bytes queued with the channel-mask bit
// cleared (DR and power acked), state unchanged.
func TestEngineS5AtomicRejectAll(t *testing.T) {
	band, _, rs := region.NewEU868()
	e := NewEngine(newTestSession(), band, rs)
	before := append([]bool(nil), rs.ChannelMask...)

	data := hexBytes(t, "03"+"44010000"+"03"+"31000061"+"03"+"50000001")
	e.ApplyDownlinkCommands(maccmd.Downlink, data)

	require.Equal(t, before, rs.ChannelMask)
	require.Equal(t, hexBytes(t, "03"+"06"+"03"+"06"+"03"+"06"), e.Session.Ans.Bytes())
}

// S6 — single LinkADRReq accepted, region mutates, one acked Ans.
func TestEngineS6Success(t *testing.T) {
	band, _, rs := region.NewEU868()
	e := NewEngine(newTestSession(), band, rs)

	req := maccmd_linkADRReqBytes(5, 3, 0x0007, 0, 1)
	e.ApplyDownlinkCommands(maccmd.Downlink, req)

	require.Equal(t, uint8(5), rs.DataRate)
	require.Equal(t, uint8(3), rs.TXPower)
	require.Equal(t, hexBytes(t, "03"+"07"), e.Session.Ans.Bytes())
}

// S7 — US915 ChMaskCntl=7, mask=0x0001 validates under bank-8 semantics.
func TestEngineS7USBankEight(t *testing.T) {
	band, _, rs := region.NewUS915()
	e := NewEngine(newTestSession(), band, rs)

	req := maccmd_linkADRReqBytes(4, 0, 0x0001, 7, 1)
	e.ApplyDownlinkCommands(maccmd.Downlink, req)

	require.True(t, rs.ChannelMask[64])
	require.Equal(t, hexBytes(t, "03"+"07"), e.Session.Ans.Bytes())
}

// Regression: a later LinkADRReq's DR/TXPower override an earlier
// one's within the same chained run, per §4.3.
func TestEngineLinkADRRunLaterDataRateOverridesEarlier(t *testing.T) {
	band, _, rs := region.NewEU868()
	e := NewEngine(newTestSession(), band, rs)

	first := maccmd_linkADRReqBytes(5, 4, 0x0007, 0, 0)
	second := maccmd_linkADRReqBytes(2, 4, 0x0007, 0, 0)
	data := append(first, second...)
	e.ApplyDownlinkCommands(maccmd.Downlink, data)

	require.Equal(t, uint8(2), rs.DataRate)
	require.Equal(t, uint8(4), rs.TXPower)
}

// Regression: a bank-0 channel selection from an earlier command in a
// chain must survive a later command that only edits a different
// bank — the cumulative per-bank fold the teacher's
// GetEnabledUplinkChannelIndicesForLinkADRReqPayloads performs.
func TestEngineLinkADRRunFoldsMultipleBanksCumulatively(t *testing.T) {
	band, _, rs := region.NewUS915()
	e := NewEngine(newTestSession(), band, rs)

	bank0 := maccmd_linkADRReqBytes(3, 0, 0x00FF, 0, 1)
	bank1 := maccmd_linkADRReqBytes(3, 0, 0x00FF, 1, 1)
	data := append(bank0, bank1...)
	e.ApplyDownlinkCommands(maccmd.Downlink, data)

	for i := 0; i < 8; i++ {
		require.True(t, rs.ChannelMask[i], "bank0 channel %d should stay enabled", i)
	}
	for i := 8; i < 16; i++ {
		require.False(t, rs.ChannelMask[i], "bank0 channel %d should be disabled", i)
	}
	for i := 16; i < 24; i++ {
		require.True(t, rs.ChannelMask[i], "bank1 channel %d should be enabled", i)
	}
	for i := 24; i < 32; i++ {
		require.False(t, rs.ChannelMask[i], "bank1 channel %d should be disabled", i)
	}
	for i := 32; i < 72; i++ {
		require.True(t, rs.ChannelMask[i], "untouched channel %d should keep its default", i)
	}
}

func maccmd_linkADRReqBytes(dr, power uint8, chMask uint16, chMaskCntl, nbTrans uint8) []byte {
	p := maccmd.LinkADRReqPayload{
		DataRate: dr, TXPower: power, ChMask: maccmd.ChMask(chMask),
		Redundancy: maccmd.Redundancy{ChMaskCntl: chMaskCntl, NbTrans: nbTrans},
	}
	return maccmd.EncodeCommand(maccmd.LinkADR, p.Marshal())
}

func TestFCntReplayGuardRejectsNonIncreasing(t *testing.T) {
	e := NewEngine(newTestSession(), nil, nil)
	fcnt, err := e.AcceptDownlinkFCnt(5)
	require.NoError(t, err)
	require.Equal(t, uint32(5), fcnt)

	_, err = e.AcceptDownlinkFCnt(5)
	require.ErrorIs(t, err, ErrReplay)

	_, err = e.AcceptDownlinkFCnt(3)
	require.ErrorIs(t, err, ErrReplay)

	fcnt, err = e.AcceptDownlinkFCnt(6)
	require.NoError(t, err)
	require.Equal(t, uint32(6), fcnt)
}

func TestNextUplinkFCntOverflowExpiresSession(t *testing.T) {
	e := NewEngine(newTestSession(), nil, nil)
	e.Session.FCntUp = ^uint32(0)
	_, err := e.NextUplinkFCnt()
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestAnsQueueStickyPersistsNonStickyClears(t *testing.T) {
	var q AnsQueue
	q.Push([]byte{0x05, 0x01}, true)
	q.Push([]byte{0x07, 0x02}, false)
	require.Equal(t, 4, q.Len())

	q.ClearNonSticky()
	require.Equal(t, []byte{0x05, 0x01}, q.Bytes())

	q.ClearAll()
	require.Equal(t, 0, q.Len())
}
