package region

// State is the mutable region-tracked portion of a session: the
// current data rate, TX power index, per-channel enable mask and RX
// window overrides. It carries no behavior of its own — Band
// implementations interpret it. Validated Diffs change it through Apply;
// the LinkADR run commit in package mac, the join path,
// Device.SetDataRate and persisted-state restore write its fields
// directly.
type State struct {
	DataRate uint8
	TXPower  uint8 // region-defined power index, not dBm

	// ChannelMask is indexed by channel number; fixed-channel regions
	// size this to their full bank (e.g. 72 for US915), dynamic regions
	// to the max number of channels they support (16).
	ChannelMask []bool

	// ExtraChannels holds the channel definitions of dynamic regions:
	// EU868 seeds its join channels into slots 0-2 and NewChannelReq
	// fills the rest; nil/unused for fixed-channel regions.
	ExtraChannels []Channel

	RX1DROffset uint8
	RX2DataRate uint8
	RX2Frequency uint32

	// DLChannels overrides a channel's downlink frequency (DLChannelReq);
	// indexed the same as ChannelMask. Zero means "use uplink frequency".
	DLChannels []uint32
}

// NewState allocates a State with the given channel-mask capacity, all
// channels disabled, ready for a Band constructor to seed defaults into.
func NewState(numChannels int) *State {
	return &State{
		ChannelMask: make([]bool, numChannels),
		DLChannels:  make([]uint32, numChannels),
	}
}

// Clone returns a deep copy, for speculatively resolving a chained
// request (e.g. a LinkADRReq run) against a scratch state before
// committing anything to the original.
func (s *State) Clone() *State {
	c := *s
	c.ChannelMask = append([]bool(nil), s.ChannelMask...)
	c.ExtraChannels = append([]Channel(nil), s.ExtraChannels...)
	c.DLChannels = append([]uint32(nil), s.DLChannels...)
	return &c
}
