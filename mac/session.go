// Package mac implements the device-side MAC engine of §4.2-§4.5: the
// session tuple, FCnt tracking and replay guard, the MAC-command Ans
// queue, and the atomic LinkADR/NewChannel/RXParamSetup/DLChannel
// apply contract wiring maccmd and region together.
package mac

import (
	"github.com/tinylora/lorawan-mac/phy"
)

// Session is the tuple defined in §4.2: session keys, identity, the two
// frame counters and the two pending-ack flags. It is created by OTAA
// success or ABP and destroyed by an explicit new-session request or by
// counter exhaustion.
type Session struct {
	NwkSKey phy.NwkSKey
	AppSKey phy.AppSKey
	DevAddr phy.DevAddr
	NetId   phy.NetId

	FCntUp   uint32
	FCntDown uint32

	ConfirmedPending bool // this device is waiting for an ack of a confirmed uplink
	AckPending       bool // the next uplink must set FCtrl.ACK

	Ans AnsQueue
}

// NewSession builds a fresh Session from freshly derived keys, as OTAA
// join success does.
func NewSession(nwkSKey phy.NwkSKey, appSKey phy.AppSKey, devAddr phy.DevAddr, netID phy.NetId) *Session {
	return &Session{NwkSKey: nwkSKey, AppSKey: appSKey, DevAddr: devAddr, NetId: netID}
}
