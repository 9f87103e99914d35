package maccmd

// Direction disambiguates which payload shape a CID parses to.
type Direction int

const (
	Downlink Direction = iota // network server -> device (Req)
	Uplink                    // device -> network server (Ans)
)

// Command is one parsed MAC command: a CID plus its raw payload bytes,
// still in wire form. Callers that need the typed payload call the
// matching ParseXxxPayload function with Payload.
type Command struct {
	CID     CID
	Payload []byte
}

// ParseCommands splits a FOpts or FPort-0 FRMPayload buffer into a
// sequence of commands for the given direction. Per §4.3, a command
// whose declared length cannot be satisfied by the remaining buffer
// terminates parsing silently at that point: commands already parsed
// are returned with no error, and the truncated tail is discarded.
// Unknown CIDs behave the same way: length is unknown so parsing stops
// there, since a single unknown command would otherwise desynchronize
// every command after it in the stream.
func ParseCommands(dir Direction, data []byte) []Command {
	var out []Command
	lenTable := ansPayloadLen
	if dir == Downlink {
		lenTable = reqPayloadLen
	}

	for len(data) > 0 {
		cid := CID(data[0])
		data = data[1:]

		n, known := lenTable[cid]
		if !known && cid.String() == "Unknown" {
			break
		}
		if !known {
			// Zero-length commands (LinkCheckReq, DutyCycleAns,
			// RXTimingSetupAns, TXParamSetupAns, DeviceTimeReq) are
			// absent from the length table and carry no payload.
			out = append(out, Command{CID: cid})
			continue
		}
		if len(data) < n {
			break
		}
		out = append(out, Command{CID: cid, Payload: data[:n]})
		data = data[n:]
	}
	return out
}

// EncodeCommand prepends a command's CID byte to its marshaled payload.
func EncodeCommand(cid CID, payload []byte) []byte {
	return append([]byte{byte(cid)}, payload...)
}
