package region

// eu868 is a dynamic-channel region: 3 fixed join/default channels plus
// up to 13 user-added channels (16 total), a single ChMaskCntl bank.
// Grounded on the teacher's band_eu863_870.go channel plan and data-rate
// table.
type eu868 struct {
	dataRates      map[uint8]DataRate
	rx1DRTable     map[uint8][]uint8 // indexed by RX1DROffset
	txPowerOffsets []int             // dBm offset from 16 dBm max, by TXPower index
	joinChannels   [3]Channel
}

const eu868MaxChannels = 16

// NewEU868 constructs the EU868 band with its 3 mandatory join channels
// enabled and the rest of the 16-channel mask empty, ready for
// NewChannelReq to populate.
func NewEU868() (Band, string, *State) {
	b := &eu868{
		dataRates: map[uint8]DataRate{
			0: {SpreadFactor: 12, Bandwidth: 125, Uplink: true, Downlink: true},
			1: {SpreadFactor: 11, Bandwidth: 125, Uplink: true, Downlink: true},
			2: {SpreadFactor: 10, Bandwidth: 125, Uplink: true, Downlink: true},
			3: {SpreadFactor: 9, Bandwidth: 125, Uplink: true, Downlink: true},
			4: {SpreadFactor: 8, Bandwidth: 125, Uplink: true, Downlink: true},
			5: {SpreadFactor: 7, Bandwidth: 125, Uplink: true, Downlink: true},
			6: {SpreadFactor: 7, Bandwidth: 250, Uplink: true, Downlink: true},
			7: {BitRate: 50000, Uplink: true, Downlink: true},
		},
		rx1DRTable: map[uint8][]uint8{
			0: {0, 0, 0, 0, 0, 0},
			1: {1, 0, 0, 0, 0, 0},
			2: {2, 1, 0, 0, 0, 0},
			3: {3, 2, 1, 0, 0, 0},
			4: {4, 3, 2, 1, 0, 0},
			5: {5, 4, 3, 2, 1, 0},
			6: {6, 5, 4, 3, 2, 1},
			7: {7, 6, 5, 4, 3, 2},
		},
		txPowerOffsets: []int{0, -2, -4, -6, -8, -10, -12, -14},
		joinChannels: [3]Channel{
			{Frequency: 868100000, MinDR: 0, MaxDR: 5, Enabled: true},
			{Frequency: 868300000, MinDR: 0, MaxDR: 5, Enabled: true},
			{Frequency: 868500000, MinDR: 0, MaxDR: 5, Enabled: true},
		},
	}

	s := NewState(eu868MaxChannels)
	for i, c := range b.joinChannels {
		s.ChannelMask[i] = true
		s.ExtraChannels = append(s.ExtraChannels, c)
	}
	for i := len(b.joinChannels); i < eu868MaxChannels; i++ {
		s.ExtraChannels = append(s.ExtraChannels, Channel{})
	}
	s.RX2Frequency = 869525000
	s.RX2DataRate = 0

	return b, "EU868", s
}

func (b *eu868) Name() string { return "EU868" }

func (b *eu868) DataRateTable(dr uint8) (DataRate, bool) {
	d, ok := b.dataRates[dr]
	return d, ok
}

func (b *eu868) Defaults() Defaults {
	return Defaults{
		RX1Delay:         1,
		RX2Frequency:     869525000,
		RX2DataRate:      0,
		MaxFCntGap:       16384,
		JoinAcceptDelay1: 5,
		JoinAcceptDelay2: 6,
	}
}

func (b *eu868) channel(s *State, idx int) (Channel, bool) {
	if idx < 0 || idx >= len(s.ExtraChannels) {
		return Channel{}, false
	}
	c := s.ExtraChannels[idx]
	if c.Frequency == 0 || !s.ChannelMask[idx] {
		return Channel{}, false
	}
	return c, true
}

func (b *eu868) TXParamsFor(s *State, channelIdx int) (TXParams, error) {
	c, ok := b.channel(s, channelIdx)
	if !ok {
		return TXParams{}, ErrChannelDoesNotExist
	}
	offset := 0
	if int(s.TXPower) < len(b.txPowerOffsets) {
		offset = b.txPowerOffsets[s.TXPower]
	}
	return TXParams{Frequency: c.Frequency, DataRate: s.DataRate, TXPower: 16 + offset}, nil
}

func (b *eu868) RX1ParamsFor(s *State, uplinkChannelIdx int, uplinkDR uint8) (RXWindowParams, error) {
	c, ok := b.channel(s, uplinkChannelIdx)
	if !ok {
		return RXWindowParams{}, ErrChannelDoesNotExist
	}
	freq := c.Frequency
	if uplinkChannelIdx < len(s.DLChannels) && s.DLChannels[uplinkChannelIdx] != 0 {
		freq = s.DLChannels[uplinkChannelIdx]
	}
	row, ok := b.rx1DRTable[uplinkDR]
	if !ok {
		return RXWindowParams{}, ErrChannelDoesNotExist
	}
	offset := int(s.RX1DROffset)
	if offset >= len(row) {
		offset = len(row) - 1
	}
	return RXWindowParams{Frequency: freq, DataRate: row[offset]}, nil
}

func (b *eu868) RX2Params(s *State) RXWindowParams {
	return RXWindowParams{Frequency: s.RX2Frequency, DataRate: s.RX2DataRate}
}

func (b *eu868) JoinTXParams(s *State) (TXParams, error) {
	return TXParams{Frequency: b.joinChannels[0].Frequency, DataRate: 0, TXPower: 16}, nil
}

func (b *eu868) ValidateLinkADR(s *State, dataRate, txPower uint8, chMaskCntl uint8, chMask uint16) (Diff, bool, bool, bool) {
	if chMaskCntl == 6 {
		// ChMaskCntl 6 enables every configured channel; ChMask is ignored.
		chMask = 0
		for i := 0; i < eu868MaxChannels && i < len(s.ExtraChannels); i++ {
			if s.ExtraChannels[i].Frequency != 0 {
				chMask |= 1 << uint(i)
			}
		}
		chMaskCntl = 0
	}
	channelMaskOK := chMaskCntl == 0
	if channelMaskOK {
		any := false
		for i := 0; i < eu868MaxChannels; i++ {
			if chMask&(1<<uint(i)) != 0 {
				if i >= len(s.ExtraChannels) || s.ExtraChannels[i].Frequency == 0 {
					channelMaskOK = false
					break
				}
				any = true
			}
		}
		if !any {
			channelMaskOK = false
		}
	}

	_, dataRateOK := b.dataRates[dataRate]
	if dataRate == 0xF {
		dataRateOK = true
	}
	powerOK := int(txPower) < len(b.txPowerOffsets) || txPower == 0xF
	if !(channelMaskOK && dataRateOK && powerOK) {
		return Diff{}, channelMaskOK, dataRateOK, powerOK
	}

	diff := Diff{apply: func(st *State) {
		if dataRate != 0xF {
			st.DataRate = dataRate
		}
		if txPower != 0xF {
			st.TXPower = txPower
		}
		for i := 0; i < eu868MaxChannels; i++ {
			st.ChannelMask[i] = chMask&(1<<uint(i)) != 0
		}
	}}
	return diff, channelMaskOK, dataRateOK, powerOK
}

func (b *eu868) ValidateNewChannel(s *State, chIndex uint8, freq uint32, minDR, maxDR uint8) (Diff, bool, bool, bool) {
	if chIndex < 3 || int(chIndex) >= eu868MaxChannels {
		// channels 0-2 are the fixed join channels and cannot be
		// redefined; out-of-range indices don't exist in a 16-channel plan.
		return Diff{}, true, false, false
	}
	freqOK := freq >= 863000000 && freq <= 870000000
	drRangeOK := minDR <= maxDR && maxDR <= 7
	if !(freqOK && drRangeOK) {
		return Diff{}, true, freqOK, drRangeOK
	}
	diff := Diff{apply: func(st *State) {
		st.ExtraChannels[chIndex] = Channel{Frequency: freq, MinDR: minDR, MaxDR: maxDR, Enabled: true}
		st.ChannelMask[chIndex] = true
	}}
	return diff, true, true, true
}

func (b *eu868) ValidateRXParamSetup(s *State, rx1DROffset, rx2DataRate uint8, frequency uint32) (Diff, bool, bool, bool) {
	_, rx2OK := b.dataRates[rx2DataRate]
	rx1OK := int(rx1DROffset) < len(b.rx1DRTable[0])
	freqOK := frequency >= 863000000 && frequency <= 870000000
	if !(freqOK && rx2OK && rx1OK) {
		return Diff{}, freqOK, rx2OK, rx1OK
	}
	diff := Diff{apply: func(st *State) {
		st.RX2Frequency = frequency
		st.RX2DataRate = rx2DataRate
		st.RX1DROffset = rx1DROffset
	}}
	return diff, true, true, true
}

func (b *eu868) ValidateDLChannel(s *State, chIndex uint8, frequency uint32) (Diff, bool, bool) {
	if int(chIndex) >= len(s.ExtraChannels) || s.ExtraChannels[chIndex].Frequency == 0 {
		return Diff{}, false, false
	}
	freqOK := frequency >= 863000000 && frequency <= 870000000
	if !freqOK {
		return Diff{}, false, true
	}
	diff := Diff{apply: func(st *State) {
		st.DLChannels[chIndex] = frequency
	}}
	return diff, true, true
}
