package region

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// S5 groundwork — a single EU868 LinkADR request with an empty mask and
// an out-of-range power index fails validation (mask and power nacked,
// DR acked) and returns no Diff, so applying it leaves state unchanged.
func TestEU868LinkADRAtomicSequenceRejects(t *testing.T) {
	b, _, s := NewEU868()
	before := append([]bool(nil), s.ChannelMask...)

	// Use an out-of-range TXPower and an empty ChMask, both independently
	// invalid, to exercise the "state unchanged" atomic contract.
	diff, maskOK, drOK, powOK := b.ValidateLinkADR(s, 2, 9, 0, 0x0000)
	require.False(t, maskOK) // empty mask selects zero channels
	require.True(t, drOK)
	require.False(t, powOK) // power index 9 exceeds EU868's 8-entry table
	require.Nil(t, diff.apply)

	Apply(s, diff)
	require.Equal(t, before, s.ChannelMask)
}

// S6 — LinkADR success in EU868: DR=5, TXPower=3, mask enables channels
// 0-2, NbTrans carried by the engine (not region state). Region state
// mutates and all three Ans bits ack.
func TestEU868LinkADRSuccess(t *testing.T) {
	b, _, s := NewEU868()

	diff, maskOK, drOK, powOK := b.ValidateLinkADR(s, 5, 3, 0, 0x0007)
	require.True(t, maskOK)
	require.True(t, drOK)
	require.True(t, powOK)

	Apply(s, diff)
	require.Equal(t, uint8(5), s.DataRate)
	require.Equal(t, uint8(3), s.TXPower)
	require.True(t, s.ChannelMask[0])
	require.True(t, s.ChannelMask[1])
	require.True(t, s.ChannelMask[2])
	require.False(t, s.ChannelMask[3])
}

// S7 — US915 ChMaskCntl=7, mask=0x0001: per the real regional-parameters
// bank-8 semantics (all 125 kHz off, 500 kHz channel 0 on), this
// validates successfully — the "invalid" framing in the scenario's
// first sentence does not hold once the bank-8 rule is applied; see
// DESIGN.md.
func TestUS915ChMaskCntl7BankEightSemantics(t *testing.T) {
	b, _, s := NewUS915()

	diff, maskOK, drOK, powOK := b.ValidateLinkADR(s, 4, 0, 7, 0x0001)
	require.True(t, maskOK)
	require.True(t, drOK)
	require.True(t, powOK)

	Apply(s, diff)
	for i := 0; i < us915Num125kHz; i++ {
		require.False(t, s.ChannelMask[i], "channel %d should be off", i)
	}
	require.True(t, s.ChannelMask[64])
	for i := 65; i < 72; i++ {
		require.False(t, s.ChannelMask[i])
	}
}

// ChMaskCntl=5 is RFU and always rejected.
func TestUS915ChMaskCntl5Invalid(t *testing.T) {
	b, _, s := NewUS915()
	diff, maskOK, _, _ := b.ValidateLinkADR(s, 0, 0, 5, 0x0000)
	require.False(t, maskOK)
	require.Nil(t, diff.apply)
}

// Property 4 groundwork: NewChannelReq is inert on fixed-channel
// regions — no Diff, and the engine must not even queue a nacked Ans
// for it.
func TestUS915NewChannelInert(t *testing.T) {
	b, _, s := NewUS915()
	diff, applicable, freqOK, drOK := b.ValidateNewChannel(s, 10, 915000000, 0, 3)
	require.False(t, applicable)
	require.False(t, freqOK)
	require.False(t, drOK)
	require.Nil(t, diff.apply)
}

// Property 5 groundwork: a dynamic region's NewChannelReq does mutate
// state and is acked when both the frequency and DR range validate.
func TestEU868NewChannelAccepted(t *testing.T) {
	b, _, s := NewEU868()
	diff, applicable, freqOK, drOK := b.ValidateNewChannel(s, 3, 867100000, 0, 5)
	require.True(t, applicable)
	require.True(t, freqOK)
	require.True(t, drOK)

	Apply(s, diff)
	require.True(t, s.ChannelMask[3])
	require.Equal(t, uint32(867100000), s.ExtraChannels[3].Frequency)
}

func TestEU868RX1ParamsFollowOffsetTable(t *testing.T) {
	b, _, s := NewEU868()
	s.RX1DROffset = 2
	p, err := b.RX1ParamsFor(s, 0, 5)
	require.NoError(t, err)
	require.Equal(t, uint8(3), p.DataRate)
	require.Equal(t, uint32(868100000), p.Frequency)
}

func TestUS915RX1ParamsMapUplinkToDownlinkFreq(t *testing.T) {
	b, _, s := NewUS915()
	p, err := b.RX1ParamsFor(s, 3, 0)
	require.NoError(t, err)
	require.Equal(t, uint8(10), p.DataRate)
	require.Equal(t, b.(*us915).downlinkFreq[3], p.Frequency)
}
