package maccmd

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// S5 — LinkADR atomic sequence: three chained LinkADRReq commands in a
// single FOpts/FPort-0 buffer must all parse out distinctly.
func TestParseCommandsLinkADRChain(t *testing.T) {
	data := hexBytes(t, "03"+"44010000"+"03"+"31000061"+"03"+"50000001")

	cmds := ParseCommands(Downlink, data)
	require.Len(t, cmds, 3)

	for _, c := range cmds {
		require.Equal(t, LinkADR, c.CID)
		require.Len(t, c.Payload, 4)
	}

	p0, err := ParseLinkADRReqPayload(cmds[0].Payload)
	require.NoError(t, err)
	require.Equal(t, uint8(4), p0.DataRate)
	require.Equal(t, uint8(4), p0.TXPower)
	require.Equal(t, ChMask(0x0001), p0.ChMask)
	require.Equal(t, Redundancy{ChMaskCntl: 0, NbTrans: 0}, p0.Redundancy)

	p1, err := ParseLinkADRReqPayload(cmds[1].Payload)
	require.NoError(t, err)
	require.Equal(t, uint8(3), p1.DataRate)
	require.Equal(t, uint8(1), p1.TXPower)
	require.Equal(t, ChMask(0x0000), p1.ChMask)
	require.Equal(t, Redundancy{ChMaskCntl: 6, NbTrans: 1}, p1.Redundancy)

	p2, err := ParseLinkADRReqPayload(cmds[2].Payload)
	require.NoError(t, err)
	require.Equal(t, uint8(5), p2.DataRate)
	require.Equal(t, uint8(0), p2.TXPower)
	require.Equal(t, Redundancy{ChMaskCntl: 0, NbTrans: 1}, p2.Redundancy)

	// A fully nacked LinkADRAns encodes as 03 00, once per chained request.
	ans := LinkADRAnsPayload{}
	wire := append(EncodeCommand(LinkADR, ans.Marshal()), EncodeCommand(LinkADR, ans.Marshal())...)
	wire = append(wire, EncodeCommand(LinkADR, ans.Marshal())...)
	require.Equal(t, hexBytes(t, "03"+"00"+"03"+"00"+"03"+"00"), wire)
}

// S6 — LinkADR success: a single request, encoded Ans is CID 03 + 0x07
// (all three ack bits set).
func TestLinkADRAnsAllAcked(t *testing.T) {
	ans := LinkADRAnsPayload{ChannelMaskACK: true, DataRateACK: true, PowerACK: true}
	wire := EncodeCommand(LinkADR, ans.Marshal())
	require.Equal(t, hexBytes(t, "03"+"07"), wire)
}

// S7 — US915 ChMaskCntl=7 request parses with DR=4, mask=0x0001 (wire
// bytes 01 00, little-endian), ChMaskCntl=7; whether it is accepted is
// decided by the region layer, not the codec.
func TestParseLinkADRReqChMaskCntl7(t *testing.T) {
	data := hexBytes(t, "03"+"40010071")
	cmds := ParseCommands(Downlink, data)
	require.Len(t, cmds, 1)
	require.Equal(t, LinkADR, cmds[0].CID)

	p, err := ParseLinkADRReqPayload(cmds[0].Payload)
	require.NoError(t, err)
	require.Equal(t, uint8(4), p.DataRate)
	require.Equal(t, ChMask(0x0001), p.ChMask)
	require.Equal(t, uint8(7), p.Redundancy.ChMaskCntl)
	require.Equal(t, uint8(1), p.Redundancy.NbTrans)

	// An Ans with the channel mask nacked and DR/power acked encodes as
	// 03 06 (ChannelMaskACK=0, DataRateACK=1, PowerACK=1).
	ans := LinkADRAnsPayload{ChannelMaskACK: false, DataRateACK: true, PowerACK: true}
	require.Equal(t, hexBytes(t, "03"+"06"), EncodeCommand(LinkADR, ans.Marshal()))
}

// Round-trip every command payload type through Marshal/Parse.
func TestCommandRoundTrips(t *testing.T) {
	t.Run("LinkCheckAns", func(t *testing.T) {
		p := LinkCheckAnsPayload{Margin: 20, GwCnt: 2}
		got, err := ParseLinkCheckAnsPayload(p.Marshal())
		require.NoError(t, err)
		require.Equal(t, p, got)
	})
	t.Run("LinkADRReq", func(t *testing.T) {
		p := LinkADRReqPayload{DataRate: 5, TXPower: 3, ChMask: 0x0007, Redundancy: Redundancy{ChMaskCntl: 0, NbTrans: 1}}
		got, err := ParseLinkADRReqPayload(p.Marshal())
		require.NoError(t, err)
		require.Equal(t, p, got)
	})
	t.Run("DutyCycleReq", func(t *testing.T) {
		p := DutyCycleReqPayload{MaxDutyCycle: 4}
		got, err := ParseDutyCycleReqPayload(p.Marshal())
		require.NoError(t, err)
		require.Equal(t, p, got)
	})
	t.Run("RXParamSetupReq", func(t *testing.T) {
		p := RXParamSetupReqPayload{RX1DROffset: 2, RX2DataRate: 8, Frequency: 869525000}
		got, err := ParseRXParamSetupReqPayload(p.Marshal())
		require.NoError(t, err)
		require.Equal(t, p, got)
	})
	t.Run("DevStatusAns negative margin", func(t *testing.T) {
		p := DevStatusAnsPayload{Battery: 200, Margin: -10}
		got, err := ParseDevStatusAnsPayload(p.Marshal())
		require.NoError(t, err)
		require.Equal(t, p, got)
	})
	t.Run("NewChannelReq", func(t *testing.T) {
		p := NewChannelReqPayload{ChIndex: 3, Freq: 867100000, MinDR: 0, MaxDR: 5}
		got, err := ParseNewChannelReqPayload(p.Marshal())
		require.NoError(t, err)
		require.Equal(t, p, got)
	})
	t.Run("DLChannelReq", func(t *testing.T) {
		p := DLChannelReqPayload{ChIndex: 1, Frequency: 868500000}
		got, err := ParseDLChannelReqPayload(p.Marshal())
		require.NoError(t, err)
		require.Equal(t, p, got)
	})
	t.Run("TXParamSetupReq", func(t *testing.T) {
		p := TXParamSetupReqPayload{DownlinkDwellTime: true, UplinkDwellTime: false, MaxEIRPIndex: 9}
		got, err := ParseTXParamSetupReqPayload(p.Marshal())
		require.NoError(t, err)
		require.Equal(t, p, got)
	})
	t.Run("DeviceTimeAns", func(t *testing.T) {
		p := DeviceTimeAnsPayload{Seconds: 1234567890, FracSecond: 128}
		got, err := ParseDeviceTimeAnsPayload(p.Marshal())
		require.NoError(t, err)
		require.Equal(t, p, got)
	})
}

// Commands whose declared length exceeds the remaining buffer terminate
// parsing silently, keeping whatever parsed cleanly before the cut.
func TestParseCommandsTruncatedTail(t *testing.T) {
	// One full DevStatusAns (CID 06, 2 bytes) followed by a truncated
	// NewChannelAns (CID 07 needs 1 byte, but buffer ends right after CID).
	data := hexBytes(t, "06"+"c814"+"07")
	cmds := ParseCommands(Uplink, data)
	require.Len(t, cmds, 1)
	require.Equal(t, DevStatus, cmds[0].CID)
}

// Zero-length downlink commands (DevStatusReq carries no payload) parse
// with no payload and do not consume any following bytes.
func TestParseCommandsZeroLengthDownlink(t *testing.T) {
	data := hexBytes(t, "06"+"06")
	cmds := ParseCommands(Downlink, data)
	require.Len(t, cmds, 2)
	require.Equal(t, DevStatus, cmds[0].CID)
	require.Empty(t, cmds[0].Payload)
	require.Equal(t, DevStatus, cmds[1].CID)
	require.Empty(t, cmds[1].Payload)
}

// Zero-length uplink commands (e.g. LinkCheckReq, RXTimingSetupAns)
// parse with no payload and do not consume any following bytes.
func TestParseCommandsZeroLengthUplink(t *testing.T) {
	data := hexBytes(t, "02"+"08")
	cmds := ParseCommands(Uplink, data)
	require.Len(t, cmds, 2)
	require.Equal(t, LinkCheck, cmds[0].CID)
	require.Empty(t, cmds[0].Payload)
	require.Equal(t, RXTimingSetup, cmds[1].CID)
	require.Empty(t, cmds[1].Payload)
}
