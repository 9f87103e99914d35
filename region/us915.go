package region

// us915 is a fixed-channel region: 64 125 kHz uplink channels (0-63) in
// 4 banks of 16, plus 8 500 kHz uplink channels (64-71) each paired 1:1
// with a downlink channel, and 8 500 kHz downlink-only channels
// (0-7). Grounded on the teacher's band_us902_928.go channel/data-rate
// layout and its GetEnabledUplinkChannelIndicesForLinkADRReqPayloads
// ChMaskCntl handling.
type us915 struct {
	dataRates      map[uint8]DataRate
	rx1DRTable     map[uint8][]uint8
	txPowerOffsets []int
	downlinkFreq   [8]uint32
}

const (
	us915NumChannels     = 72
	us915Num125kHz       = 64
	us915FirstBank500kHz = 64
)

// NewUS915 constructs the US915 band with every channel in the default
// plan enabled (the stock all-125kHz-on join behavior before any
// LinkADR narrows the mask).
func NewUS915() (Band, string, *State) {
	b := &us915{
		dataRates: map[uint8]DataRate{
			0: {SpreadFactor: 10, Bandwidth: 125, Uplink: true},
			1: {SpreadFactor: 9, Bandwidth: 125, Uplink: true},
			2: {SpreadFactor: 8, Bandwidth: 125, Uplink: true},
			3: {SpreadFactor: 7, Bandwidth: 125, Uplink: true},
			4: {SpreadFactor: 8, Bandwidth: 500, Uplink: true},
			8:  {SpreadFactor: 12, Bandwidth: 500, Downlink: true},
			9:  {SpreadFactor: 11, Bandwidth: 500, Downlink: true},
			10: {SpreadFactor: 10, Bandwidth: 500, Downlink: true},
			11: {SpreadFactor: 9, Bandwidth: 500, Downlink: true},
			12: {SpreadFactor: 8, Bandwidth: 500, Downlink: true},
			13: {SpreadFactor: 7, Bandwidth: 500, Downlink: true},
		},
		rx1DRTable: map[uint8][]uint8{
			0: {10, 9, 8, 8},
			1: {11, 10, 9, 8},
			2: {12, 11, 10, 9},
			3: {13, 12, 11, 10},
			4: {13, 13, 12, 11},
		},
		txPowerOffsets: []int{0, -2, -4, -6, -8, -10, -12, -14, -16, -18, -20},
	}
	for i := range b.downlinkFreq {
		b.downlinkFreq[i] = 923300000 + uint32(i)*600000
	}

	s := NewState(us915NumChannels)
	for i := 0; i < us915NumChannels; i++ {
		s.ChannelMask[i] = true
	}
	s.RX2Frequency = 923300000
	s.RX2DataRate = 8

	return b, "US915", s
}

func (b *us915) Name() string { return "US915" }

func (b *us915) DataRateTable(dr uint8) (DataRate, bool) {
	d, ok := b.dataRates[dr]
	return d, ok
}

func (b *us915) Defaults() Defaults {
	return Defaults{
		RX1Delay:         1,
		RX2Frequency:     923300000,
		RX2DataRate:      8,
		MaxFCntGap:       16384,
		JoinAcceptDelay1: 5,
		JoinAcceptDelay2: 6,
	}
}

func (b *us915) uplinkFrequency(idx int) uint32 {
	switch {
	case idx < us915Num125kHz:
		return 902300000 + uint32(idx)*200000
	case idx < us915NumChannels:
		return 903000000 + uint32(idx-us915Num125kHz)*1600000
	default:
		return 0
	}
}

func (b *us915) downlinkChannelIndex(uplinkIdx int) int {
	if uplinkIdx < us915Num125kHz {
		return uplinkIdx % 8
	}
	return uplinkIdx - us915Num125kHz
}

func (b *us915) TXParamsFor(s *State, channelIdx int) (TXParams, error) {
	if channelIdx < 0 || channelIdx >= us915NumChannels || !s.ChannelMask[channelIdx] {
		return TXParams{}, ErrChannelDoesNotExist
	}
	offset := 0
	if int(s.TXPower) < len(b.txPowerOffsets) {
		offset = b.txPowerOffsets[s.TXPower]
	}
	return TXParams{Frequency: b.uplinkFrequency(channelIdx), DataRate: s.DataRate, TXPower: 30 + offset}, nil
}

func (b *us915) RX1ParamsFor(s *State, uplinkChannelIdx int, uplinkDR uint8) (RXWindowParams, error) {
	if uplinkChannelIdx < 0 || uplinkChannelIdx >= us915NumChannels {
		return RXWindowParams{}, ErrChannelDoesNotExist
	}
	dlIdx := b.downlinkChannelIndex(uplinkChannelIdx)
	freq := b.downlinkFreq[dlIdx]
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

func (b *us915) RX2Params(s *State) RXWindowParams {
	return RXWindowParams{Frequency: s.RX2Frequency, DataRate: s.RX2DataRate}
}

func (b *us915) JoinTXParams(s *State) (TXParams, error) {
	for i := 0; i < us915NumChannels; i++ {
		if s.ChannelMask[i] {
			p, err := b.TXParamsFor(s, i)
			if err == nil {
				p.DataRate = 0
				if i >= us915Num125kHz {
					p.DataRate = 4
				}
			}
			return p, err
		}
	}
	return TXParams{}, ErrChannelDoesNotExist
}

// ValidateLinkADR implements the ChMaskCntl semantics of §4.5's fixed-
// region contrast case: banks 0-3 each address 16 of the 64 125 kHz
// channels, ChMaskCntl 6/7 override all 64 125 kHz channels (on/off
// respectively) and then apply ChMask's low 8 bits to the 500 kHz
// channels 64-71, and ChMaskCntl 5 is RFU/invalid. This mirrors the
// real regional-parameters behavior the "Contrast" scenario describes;
// see DESIGN.md for why the scenario's "ChMaskCntl=7 invalid" framing
// is not followed literally.
func (b *us915) ValidateLinkADR(s *State, dataRate, txPower uint8, chMaskCntl uint8, chMask uint16) (Diff, bool, bool, bool) {
	var channelMaskOK bool
	var newMask [us915NumChannels]bool
	copy(newMask[:], s.ChannelMask)

	switch {
	case chMaskCntl <= 4:
		base := int(chMaskCntl) * 16
		channelMaskOK = true
		for i := 0; i < 16; i++ {
			idx := base + i
			if idx >= us915NumChannels {
				if chMask&(1<<uint(i)) != 0 {
					channelMaskOK = false
				}
				continue
			}
			newMask[idx] = chMask&(1<<uint(i)) != 0
		}
	case chMaskCntl == 6 || chMaskCntl == 7:
		channelMaskOK = true
		for i := 0; i < us915Num125kHz; i++ {
			newMask[i] = chMaskCntl == 6
		}
		for i := 0; i < 8; i++ {
			newMask[us915FirstBank500kHz+i] = chMask&(1<<uint(i)) != 0
		}
	default:
		channelMaskOK = false
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
		copy(st.ChannelMask, newMask[:])
	}}
	return diff, true, true, true
}

// ValidateNewChannel is inert in fixed-channel regions: §4.3 requires
// NewChannelReq be silently dropped (no Diff, no Ans bytes queued)
// rather than answered with a nacked Ans.
func (b *us915) ValidateNewChannel(s *State, chIndex uint8, freq uint32, minDR, maxDR uint8) (Diff, bool, bool, bool) {
	return Diff{}, false, false, false
}

func (b *us915) ValidateRXParamSetup(s *State, rx1DROffset, rx2DataRate uint8, frequency uint32) (Diff, bool, bool, bool) {
	_, rx2OK := b.dataRates[rx2DataRate]
	rx1OK := int(rx1DROffset) < len(b.rx1DRTable[0])
	freqOK := frequency >= 923300000 && frequency <= 927500000
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

func (b *us915) ValidateDLChannel(s *State, chIndex uint8, frequency uint32) (Diff, bool, bool) {
	if int(chIndex) >= us915NumChannels {
		return Diff{}, false, false
	}
	dlIdx := b.downlinkChannelIndex(int(chIndex))
	freqOK := frequency == b.downlinkFreq[dlIdx]
	if !freqOK {
		return Diff{}, false, true
	}
	diff := Diff{apply: func(st *State) {
		st.DLChannels[chIndex] = frequency
	}}
	return diff, true, true
}
