package phy

// PHYPayload is the result of Parse: a typed envelope over whichever
// concrete frame kind the MType dispatched to. Exactly one of the
// payload fields is non-nil/non-zero, selected by MHDR.MType.
type PHYPayload struct {
	MHDR MHDR

	JoinRequest        *JoinRequestPayload
	EncryptedJoinAccept []byte // 16 or 32 bytes, still encrypted
	Data               *DataFrame

	MIC MIC // only meaningful for JoinRequest; Data/JoinAccept carry their own trailing MIC inline
}

// Parse dispatches raw bytes to the appropriate frame parser per §4.1:
//   - reject if len < 12 (InvalidPayload)
//   - reject if Major != R1 (UnsupportedMajorVersion)
//   - dispatch on MType: JoinRequest (len must be 23), encrypted
//     JoinAccept (len 17 or 33), or a data frame (len >= 12 and
//     1 + fhdr_length + 4 <= len)
//   - unknown MType: InvalidMessageType
func Parse(data []byte) (PHYPayload, error) {
	if len(data) < 12 {
		return PHYPayload{}, ErrInvalidPayload
	}

	mhdr := ParseMHDR(data[0])
	if mhdr.Major != MajorR1 {
		return PHYPayload{}, ErrUnsupportedMajorVersion
	}

	switch mhdr.MType {
	case MTypeJoinRequest:
		if len(data) != 23 {
			return PHYPayload{}, ErrInvalidPayload
		}
		jr, err := ParseJoinRequestPayload(data[1:19])
		if err != nil {
			return PHYPayload{}, err
		}
		var mic MIC
		copy(mic[:], data[19:23])
		return PHYPayload{MHDR: mhdr, JoinRequest: &jr, MIC: mic}, nil

	case MTypeJoinAccept:
		if len(data) != 17 && len(data) != 33 {
			return PHYPayload{}, ErrInvalidPayload
		}
		return PHYPayload{MHDR: mhdr, EncryptedJoinAccept: append([]byte(nil), data[1:]...)}, nil

	case MTypeUnconfirmedDataUp, MTypeUnconfirmedDataDown, MTypeConfirmedDataUp, MTypeConfirmedDataDown:
		if len(data) < 12 {
			return PHYPayload{}, ErrInvalidPayload
		}
		fhdrLen := FHDRLength(data[1+4])
		if 1+fhdrLen+4 > len(data) {
			return PHYPayload{}, ErrInvalidPayload
		}
		mtype := dataMTypeFor(mhdr.MType)
		df, err := ParseDataFrame(mtype, data[1:])
		if err != nil {
			return PHYPayload{}, err
		}
		return PHYPayload{MHDR: mhdr, Data: &df}, nil

	default:
		return PHYPayload{}, ErrInvalidMessageType
	}
}

func dataMTypeFor(m MType) DataMType {
	switch m {
	case MTypeUnconfirmedDataUp:
		return UnconfirmedUp
	case MTypeUnconfirmedDataDown:
		return UnconfirmedDown
	case MTypeConfirmedDataUp:
		return ConfirmedUp
	default:
		return ConfirmedDown
	}
}
