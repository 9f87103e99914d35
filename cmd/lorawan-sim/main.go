// Command lorawan-sim drives a simulated end device through OTAA join
// and periodic uplinks over a NATS-based air interface, for exercising
// the stack without real radio hardware.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tinylora/lorawan-mac/cmd/lorawan-sim/config"
	"github.com/tinylora/lorawan-mac/cmd/lorawan-sim/status"
	"github.com/tinylora/lorawan-mac/cmd/lorawan-sim/transport"
	"github.com/tinylora/lorawan-mac/crypto"
	"github.com/tinylora/lorawan-mac/region"
	"github.com/tinylora/lorawan-mac/session"
)

func main() {
	root := &cobra.Command{
		Use:   "lorawan-sim",
		Short: "Simulates a LoRaWAN end device for exercising the MAC stack",
	}

	var cfgPath string
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Join and send periodic uplinks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cfgPath)
		},
	}
	runCmd.Flags().StringVarP(&cfgPath, "config", "c", "sim.yaml", "path to simulator config")
	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Fatal("lorawan-sim exited with error")
		os.Exit(1)
	}
}

func runSimulation(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var band region.Band
	var regionState *region.State
	switch cfg.Device.Region {
	case "US915":
		band, _, regionState = region.NewUS915()
	default:
		band, _, regionState = region.NewEU868()
	}

	air, err := transport.Dial(cfg.Transport.NATSURL, cfg.Transport.UplinkSubj, cfg.Transport.DownSubj)
	if err != nil {
		return fmt.Errorf("dial transport: %w", err)
	}
	defer air.Close()

	feed := status.NewFeed()
	go func() {
		if cfg.Status.ListenAddr == "" {
			return
		}
		http.Handle("/status", feed)
		logrus.WithField("addr", cfg.Status.ListenAddr).Info("serving status feed")
		if err := http.ListenAndServe(cfg.Status.ListenAddr, nil); err != nil {
			logrus.WithError(err).Error("status feed server stopped")
		}
	}()

	radio := &simRadio{air: air, downlinks: make(chan []byte, 4)}
	if _, err := air.SubscribeDownlink(func(f transport.Frame) {
		radio.downlinks <- f.Payload
	}); err != nil {
		return fmt.Errorf("subscribe downlink: %w", err)
	}

	appKey, err := decodeKey16(cfg.Device.AppKey)
	if err != nil {
		return fmt.Errorf("decode app_key: %w", err)
	}
	devEUI, err := decodeEUI(cfg.Device.DevEUI)
	if err != nil {
		return fmt.Errorf("decode dev_eui: %w", err)
	}
	appEUI, err := decodeEUI(cfg.Device.AppEUI)
	if err != nil {
		return fmt.Errorf("decode app_eui: %w", err)
	}

	dev := session.NewDevice(band, regionState, radio, systemTimer{}, cryptoRNG{}, crypto.SoftwareFactory{}, cfg.Device.ClassC)

	ctx := context.Background()
	joinResp := dev.Join(ctx, session.JoinMode{DevEUI: devEUI, AppEUI: appEUI, AppKey: appKey})
	feed.Broadcast(status.Event{Kind: "join", DevEUI: cfg.Device.DevEUI, Detail: joinResp})
	if joinResp.Err != nil {
		return fmt.Errorf("join failed: %w", joinResp.Err)
	}
	logrus.WithField("dev_eui", cfg.Device.DevEUI).Info("join accepted")

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		resp := dev.Send(ctx, []byte("hello"), 1, false)
		feed.Broadcast(status.Event{Kind: "send", DevEUI: cfg.Device.DevEUI, Detail: resp})
		if resp.Err != nil {
			logrus.WithError(resp.Err).Warn("uplink failed")
			continue
		}
		if dl := dev.TakeDownlink(); dl != nil {
			feed.Broadcast(status.Event{Kind: "downlink", DevEUI: cfg.Device.DevEUI, Detail: dl})
		}
	}
	return nil
}

func decodeKey16(s string) (out [16]byte, err error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != 16 {
		return out, fmt.Errorf("expected 16 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

func decodeEUI(s string) (out [8]byte, err error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != 8 {
		return out, fmt.Errorf("expected 8 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

// systemTimer sleeps in real wall-clock time; the simulator has no
// virtual clock, unlike a deterministic test harness.
type systemTimer struct{}

func (systemTimer) At(ctx context.Context, ms uint64) error {
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
func (systemTimer) Reset() {}

// cryptoRNG fills buffers from crypto/rand, standing in for a
// hardware RNG peripheral.
type cryptoRNG struct{}

func (cryptoRNG) Fill(buf []byte) error {
	_, err := rand.Read(buf)
	return err
}

// simRadio implements session.Radio over the NATS air interface: TX
// publishes the raw PHYPayload, RX reads from the subscription channel
// fed by transport.AirInterface.
type simRadio struct {
	air       *transport.AirInterface
	downlinks chan []byte
}

func (r *simRadio) TX(ctx context.Context, cfg session.TxConfig, payload []byte) (uint32, error) {
	if err := r.air.PublishUplink(payload); err != nil {
		return 0, err
	}
	return uint32(time.Now().UnixMilli()), nil
}

func (r *simRadio) SetupRX(ctx context.Context, cfg session.RxConfig) error { return nil }

func (r *simRadio) RXSingle(ctx context.Context, buf []byte) (session.RxStatus, error) {
	select {
	case data := <-r.downlinks:
		n := copy(buf, data)
		return session.RxStatus{Len: n}, nil
	case <-time.After(5 * time.Second):
		return session.RxStatus{Timeout: true}, nil
	case <-ctx.Done():
		return session.RxStatus{}, ctx.Err()
	}
}

func (r *simRadio) RXContinuous(ctx context.Context, buf []byte) (int, session.RxQuality, error) {
	select {
	case data := <-r.downlinks:
		n := copy(buf, data)
		return n, session.RxQuality{}, nil
	case <-ctx.Done():
		return 0, session.RxQuality{}, ctx.Err()
	}
}

func (r *simRadio) CancelRX(ctx context.Context) error { return nil }
func (r *simRadio) LowPower(ctx context.Context) error { return nil }
func (r *simRadio) RXWindowLeadTimeMs() uint32         { return 0 }
func (r *simRadio) RXWindowOffsetMs() int32            { return 0 }
func (r *simRadio) RXWindowDurationMs() uint32         { return 3000 }
func (r *simRadio) MaxRadioPower() int8                { return 20 }
func (r *simRadio) AntennaGain() int8                  { return 0 }
