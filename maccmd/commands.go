package maccmd

import (
	"encoding/binary"

	"github.com/tinylora/lorawan-mac/lwerr"
)

var errLen error = lwerr.InvalidPayload

// ChMask is a 16-channel bitmask as carried by LinkADRReq, little-
// endian packed 2 bytes on the wire (bit i = channel i).
type ChMask uint16

func (m ChMask) marshal() []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(m))
	return b
}

func parseChMask(b []byte) ChMask {
	return ChMask(binary.LittleEndian.Uint16(b))
}

// Enabled reports whether channel i (0-15) is set.
func (m ChMask) Enabled(i uint) bool { return m&(1<<i) != 0 }

// Redundancy packs ChMaskCntl(3 bits) and NbTrans(4 bits).
type Redundancy struct {
	ChMaskCntl uint8
	NbTrans    uint8
}

func (r Redundancy) marshal() byte {
	return (r.ChMaskCntl << 4) | (r.NbTrans & 0x0F)
}

func parseRedundancy(b byte) Redundancy {
	return Redundancy{ChMaskCntl: (b >> 4) & 0x07, NbTrans: b & 0x0F}
}

// LinkADRReqPayload is the LinkADRReq payload: DR(4 bits)|TXPower(4
// bits) || ChMask(2 LE) || Redundancy(1). DR/TXPower == 0xF means
// "don't change" (§4.3 sentinels), represented here as Keep.
const Keep = 0xF

type LinkADRReqPayload struct {
	DataRate   uint8
	TXPower    uint8
	ChMask     ChMask
	Redundancy Redundancy
}

func (p LinkADRReqPayload) Marshal() []byte {
	b := make([]byte, 0, 4)
	b = append(b, (p.DataRate<<4)|(p.TXPower&0x0F))
	b = append(b, p.ChMask.marshal()...)
	b = append(b, p.Redundancy.marshal())
	return b
}

func ParseLinkADRReqPayload(data []byte) (LinkADRReqPayload, error) {
	if len(data) != 4 {
		return LinkADRReqPayload{}, errLen
	}
	return LinkADRReqPayload{
		DataRate:   (data[0] >> 4) & 0x0F,
		TXPower:    data[0] & 0x0F,
		ChMask:     parseChMask(data[1:3]),
		Redundancy: parseRedundancy(data[3]),
	}, nil
}

// LinkADRAnsPayload is the 1-byte LinkADRAns: bit0 ChannelMaskACK, bit1
// DataRateACK, bit2 PowerACK.
type LinkADRAnsPayload struct {
	ChannelMaskACK bool
	DataRateACK    bool
	PowerACK       bool
}

func (p LinkADRAnsPayload) Marshal() []byte {
	var b byte
	if p.ChannelMaskACK {
		b |= 1 << 0
	}
	if p.DataRateACK {
		b |= 1 << 1
	}
	if p.PowerACK {
		b |= 1 << 2
	}
	return []byte{b}
}

func ParseLinkADRAnsPayload(data []byte) (LinkADRAnsPayload, error) {
	if len(data) != 1 {
		return LinkADRAnsPayload{}, errLen
	}
	return LinkADRAnsPayload{
		ChannelMaskACK: data[0]&(1<<0) != 0,
		DataRateACK:    data[0]&(1<<1) != 0,
		PowerACK:       data[0]&(1<<2) != 0,
	}, nil
}

// LinkCheckAnsPayload reports link margin and gateway count.
type LinkCheckAnsPayload struct {
	Margin uint8
	GwCnt  uint8
}

func ParseLinkCheckAnsPayload(data []byte) (LinkCheckAnsPayload, error) {
	if len(data) != 2 {
		return LinkCheckAnsPayload{}, errLen
	}
	return LinkCheckAnsPayload{Margin: data[0], GwCnt: data[1]}, nil
}

func (p LinkCheckAnsPayload) Marshal() []byte { return []byte{p.Margin, p.GwCnt} }

// DutyCycleReqPayload carries the max duty-cycle exponent (0-15, or 255
// for "no limit").
type DutyCycleReqPayload struct {
	MaxDutyCycle uint8
}

func ParseDutyCycleReqPayload(data []byte) (DutyCycleReqPayload, error) {
	if len(data) != 1 {
		return DutyCycleReqPayload{}, errLen
	}
	return DutyCycleReqPayload{MaxDutyCycle: data[0]}, nil
}

func (p DutyCycleReqPayload) Marshal() []byte { return []byte{p.MaxDutyCycle} }

// RXParamSetupReqPayload updates RX1 DR offset, RX2 DR and frequency.
type RXParamSetupReqPayload struct {
	RX1DROffset uint8
	RX2DataRate uint8
	Frequency   uint32 // Hz
}

func ParseRXParamSetupReqPayload(data []byte) (RXParamSetupReqPayload, error) {
	if len(data) != 4 {
		return RXParamSetupReqPayload{}, errLen
	}
	p := RXParamSetupReqPayload{
		RX1DROffset: (data[0] >> 4) & 0x07,
		RX2DataRate: data[0] & 0x0F,
	}
	freqB := []byte{data[1], data[2], data[3], 0}
	p.Frequency = binary.LittleEndian.Uint32(freqB) * 100
	return p, nil
}

func (p RXParamSetupReqPayload) Marshal() []byte {
	b := make([]byte, 4)
	b[0] = (p.RX1DROffset << 4) | (p.RX2DataRate & 0x0F)
	freqB := make([]byte, 4)
	binary.LittleEndian.PutUint32(freqB, p.Frequency/100)
	copy(b[1:4], freqB[0:3])
	return b
}

// RXParamSetupAnsPayload is the sticky 1-byte Ans for RXParamSetupReq.
type RXParamSetupAnsPayload struct {
	ChannelACK     bool
	RX2DataRateACK bool
	RX1DROffsetACK bool
}

func ParseRXParamSetupAnsPayload(data []byte) (RXParamSetupAnsPayload, error) {
	if len(data) != 1 {
		return RXParamSetupAnsPayload{}, errLen
	}
	return RXParamSetupAnsPayload{
		ChannelACK:     data[0]&(1<<0) != 0,
		RX2DataRateACK: data[0]&(1<<1) != 0,
		RX1DROffsetACK: data[0]&(1<<2) != 0,
	}, nil
}

func (p RXParamSetupAnsPayload) Marshal() []byte {
	var b byte
	if p.ChannelACK {
		b |= 1 << 0
	}
	if p.RX2DataRateACK {
		b |= 1 << 1
	}
	if p.RX1DROffsetACK {
		b |= 1 << 2
	}
	return []byte{b}
}

// DevStatusAnsPayload reports battery level and SNR margin.
type DevStatusAnsPayload struct {
	Battery uint8
	Margin  int8 // -32..31
}

func ParseDevStatusAnsPayload(data []byte) (DevStatusAnsPayload, error) {
	if len(data) != 2 {
		return DevStatusAnsPayload{}, errLen
	}
	p := DevStatusAnsPayload{Battery: data[0]}
	if data[1] > 31 {
		p.Margin = int8(data[1]) - 64
	} else {
		p.Margin = int8(data[1])
	}
	return p, nil
}

func (p DevStatusAnsPayload) Marshal() []byte {
	m := p.Margin
	var mb uint8
	if m < 0 {
		mb = uint8(64 + m)
	} else {
		mb = uint8(m)
	}
	return []byte{p.Battery, mb}
}

// NewChannelReqPayload adds or replaces a dynamic-region channel.
type NewChannelReqPayload struct {
	ChIndex uint8
	Freq    uint32 // Hz
	MinDR   uint8
	MaxDR   uint8
}

func ParseNewChannelReqPayload(data []byte) (NewChannelReqPayload, error) {
	if len(data) != 5 {
		return NewChannelReqPayload{}, errLen
	}
	freqB := []byte{data[1], data[2], data[3], 0}
	return NewChannelReqPayload{
		ChIndex: data[0],
		Freq:    binary.LittleEndian.Uint32(freqB) * 100,
		MinDR:   data[4] & 0x0F,
		MaxDR:   (data[4] >> 4) & 0x0F,
	}, nil
}

func (p NewChannelReqPayload) Marshal() []byte {
	b := make([]byte, 5)
	b[0] = p.ChIndex
	freqB := make([]byte, 4)
	binary.LittleEndian.PutUint32(freqB, p.Freq/100)
	copy(b[1:4], freqB[0:3])
	b[4] = p.MinDR | (p.MaxDR << 4)
	return b
}

// NewChannelAnsPayload is the 1-byte Ans for NewChannelReq.
type NewChannelAnsPayload struct {
	ChannelFrequencyOK bool
	DataRateRangeOK    bool
}

func ParseNewChannelAnsPayload(data []byte) (NewChannelAnsPayload, error) {
	if len(data) != 1 {
		return NewChannelAnsPayload{}, errLen
	}
	return NewChannelAnsPayload{
		ChannelFrequencyOK: data[0]&(1<<0) != 0,
		DataRateRangeOK:    data[0]&(1<<1) != 0,
	}, nil
}

func (p NewChannelAnsPayload) Marshal() []byte {
	var b byte
	if p.ChannelFrequencyOK {
		b |= 1 << 0
	}
	if p.DataRateRangeOK {
		b |= 1 << 1
	}
	return []byte{b}
}

// RXTimingSetupReqPayload sets RX1 delay; Delay == 0 means 1 second.
type RXTimingSetupReqPayload struct {
	Delay uint8 // seconds, 0 means 1
}

func ParseRXTimingSetupReqPayload(data []byte) (RXTimingSetupReqPayload, error) {
	if len(data) != 1 {
		return RXTimingSetupReqPayload{}, errLen
	}
	return RXTimingSetupReqPayload{Delay: data[0] & 0x0F}, nil
}

func (p RXTimingSetupReqPayload) Marshal() []byte { return []byte{p.Delay & 0x0F} }

// TXParamSetupReqPayload sets max EIRP and whether dwell-time limiting
// applies, per region (used by AS923-family regions).
type TXParamSetupReqPayload struct {
	DownlinkDwellTime bool
	UplinkDwellTime   bool
	MaxEIRPIndex      uint8
}

func ParseTXParamSetupReqPayload(data []byte) (TXParamSetupReqPayload, error) {
	if len(data) != 1 {
		return TXParamSetupReqPayload{}, errLen
	}
	return TXParamSetupReqPayload{
		MaxEIRPIndex:      data[0] & 0x0F,
		UplinkDwellTime:   data[0]&(1<<4) != 0,
		DownlinkDwellTime: data[0]&(1<<5) != 0,
	}, nil
}

func (p TXParamSetupReqPayload) Marshal() []byte {
	b := p.MaxEIRPIndex & 0x0F
	if p.UplinkDwellTime {
		b |= 1 << 4
	}
	if p.DownlinkDwellTime {
		b |= 1 << 5
	}
	return []byte{b}
}

// DLChannelReqPayload repoints an existing channel's downlink frequency.
type DLChannelReqPayload struct {
	ChIndex   uint8
	Frequency uint32 // Hz
}

func ParseDLChannelReqPayload(data []byte) (DLChannelReqPayload, error) {
	if len(data) != 4 {
		return DLChannelReqPayload{}, errLen
	}
	freqB := []byte{data[1], data[2], data[3], 0}
	return DLChannelReqPayload{
		ChIndex:   data[0],
		Frequency: binary.LittleEndian.Uint32(freqB) * 100,
	}, nil
}

func (p DLChannelReqPayload) Marshal() []byte {
	b := make([]byte, 4)
	b[0] = p.ChIndex
	freqB := make([]byte, 4)
	binary.LittleEndian.PutUint32(freqB, p.Frequency/100)
	copy(b[1:4], freqB[0:3])
	return b
}

// DLChannelAnsPayload is the 1-byte Ans for DLChannelReq.
type DLChannelAnsPayload struct {
	ChannelFrequencyOK bool
	UplinkFrequencyOK  bool
}

func ParseDLChannelAnsPayload(data []byte) (DLChannelAnsPayload, error) {
	if len(data) != 1 {
		return DLChannelAnsPayload{}, errLen
	}
	return DLChannelAnsPayload{
		ChannelFrequencyOK: data[0]&(1<<0) != 0,
		UplinkFrequencyOK:  data[0]&(1<<1) != 0,
	}, nil
}

func (p DLChannelAnsPayload) Marshal() []byte {
	var b byte
	if p.ChannelFrequencyOK {
		b |= 1 << 0
	}
	if p.UplinkFrequencyOK {
		b |= 1 << 1
	}
	return []byte{b}
}

// DeviceTimeAnsPayload carries GPS epoch seconds and fractional seconds.
type DeviceTimeAnsPayload struct {
	Seconds    uint32
	FracSecond uint8 // 1/256ths
}

func ParseDeviceTimeAnsPayload(data []byte) (DeviceTimeAnsPayload, error) {
	if len(data) != 5 {
		return DeviceTimeAnsPayload{}, errLen
	}
	return DeviceTimeAnsPayload{
		Seconds:    binary.LittleEndian.Uint32(data[0:4]),
		FracSecond: data[4],
	}, nil
}

func (p DeviceTimeAnsPayload) Marshal() []byte {
	b := make([]byte, 5)
	binary.LittleEndian.PutUint32(b[0:4], p.Seconds)
	b[4] = p.FracSecond
	return b
}
