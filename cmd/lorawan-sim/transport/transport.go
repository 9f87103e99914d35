// Package transport carries simulated PHY frames between a simulated
// device and network server over NATS, standing in for the air
// interface a real radio would provide.
package transport

import (
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Frame is one simulated over-the-air transmission.
type Frame struct {
	ID      string `json:"id"`
	Payload []byte `json:"payload"`
}

// AirInterface publishes uplinks and subscribes to downlinks over a
// pair of NATS subjects, one per direction.
type AirInterface struct {
	nc         *nats.Conn
	uplinkSubj string
	downSubj   string
}

// Dial connects to the configured NATS server.
func Dial(url, uplinkSubj, downSubj string) (*AirInterface, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &AirInterface{nc: nc, uplinkSubj: uplinkSubj, downSubj: downSubj}, nil
}

// Close drains and closes the underlying NATS connection.
func (a *AirInterface) Close() { _ = a.nc.Drain() }

// PublishUplink sends a raw PHYPayload as a simulated uplink frame.
func (a *AirInterface) PublishUplink(raw []byte) error {
	return a.nc.Publish(a.uplinkSubj, raw)
}

// SubscribeDownlink registers handler for every simulated downlink
// frame arriving on the downlink subject, tagging each with a fresh
// correlation ID for the status feed to key off of.
func (a *AirInterface) SubscribeDownlink(handler func(Frame)) (*nats.Subscription, error) {
	return a.nc.Subscribe(a.downSubj, func(msg *nats.Msg) {
		handler(Frame{ID: uuid.NewString(), Payload: msg.Data})
	})
}
