package mac

import (
	"math"
	"time"

	"github.com/tinylora/lorawan-mac/region"
)

// CodingRate is the forward-error-correction coding rate a LoRa frame
// was sent at. The stack always transmits at 4/5; the type exists so
// TimeOnAir's signature stays explicit about the units it spends.
type CodingRate int

const (
	CodingRate45 CodingRate = 1
	CodingRate46 CodingRate = 2
	CodingRate47 CodingRate = 3
	CodingRate48 CodingRate = 4
)

// TimeOnAir computes how long a LoRa-modulated frame of payloadSize
// bytes occupies the channel at dr, per the Semtech LoRa design guide
// formula. FSK data rates (SpreadFactor 0) return 0: duty-cycle
// accounting only applies to the LoRa channels a region defines.
func TimeOnAir(payloadSize int, dr region.DataRate, preambleSymbols int, cr CodingRate, headerEnabled, lowDataRateOptimize bool) (time.Duration, error) {
	if dr.SpreadFactor == 0 {
		return 0, nil
	}
	symbolDuration := loRaSymbolDuration(dr.SpreadFactor, dr.Bandwidth)
	preambleDuration := loRaPreambleDuration(symbolDuration, preambleSymbols)

	payloadSymbols, err := loRaPayloadSymbolCount(payloadSize, dr.SpreadFactor, cr, headerEnabled, lowDataRateOptimize)
	if err != nil {
		return 0, err
	}
	return preambleDuration + time.Duration(payloadSymbols)*symbolDuration, nil
}

func loRaSymbolDuration(sf, bandwidthKHz int) time.Duration {
	return time.Duration((1 << uint(sf)) * 1000000 / bandwidthKHz)
}

func loRaPreambleDuration(symbolDuration time.Duration, preambleSymbols int) time.Duration {
	return time.Duration((100*preambleSymbols)+425) * symbolDuration / 100
}

func loRaPayloadSymbolCount(payloadSize, sf int, cr CodingRate, headerEnabled, lowDataRateOptimize bool) (int, error) {
	if cr < 1 || cr > 4 {
		return 0, errCodingRate
	}
	var de, h float64
	if lowDataRateOptimize {
		de = 1
	}
	if !headerEnabled {
		h = 1
	}

	pl := float64(payloadSize)
	spreadFactor := float64(sf)
	codeRate := float64(cr) + 4

	a := 8*pl - 4*spreadFactor + 28 + 16 - 20*h
	b := 4 * (spreadFactor - 2*de)
	return int(8 + math.Max(math.Ceil(a/b)*codeRate, 0)), nil
}
