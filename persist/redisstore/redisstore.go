// Package redisstore is a reference persist.Store backed by Redis, with
// session key material wrapped at rest per the teacher's join-server
// key-envelope pattern (backend/joinserver/key_wrap.go): AES key-wrap
// under an operator-supplied KEK rather than storing raw session keys.
package redisstore

import (
	"context"
	"crypto/aes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	keywrap "github.com/NickBall/go-aes-key-wrap"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/tinylora/lorawan-mac/persist"
	"github.com/tinylora/lorawan-mac/phy"
)

// Store persists session and region state to Redis under
// "lorawan:{devEUI}:session" / "lorawan:{devEUI}:region" keys.
type Store struct {
	client redis.UniversalClient
	kek    []byte // 16/24/32-byte key-encryption key; nil disables wrapping
}

// New constructs a Store. kek may be nil, in which case session keys
// are stored unwrapped — acceptable only when the Redis instance itself
// is trusted, matching getKeyEnvelope's "no KEK configured" fallback.
func New(client redis.UniversalClient, kek []byte) *Store {
	return &Store{client: client, kek: kek}
}

type wireSession struct {
	NwkSKey string `json:"nwk_s_key"` // hex, wrapped if kek is set
	AppSKey string `json:"app_s_key"`
	Wrapped bool   `json:"wrapped"`
	DevAddr string `json:"dev_addr"`
	NetId   string `json:"net_id"`
	FCntUp   uint32 `json:"fcnt_up"`
	FCntDown uint32 `json:"fcnt_down"`
}

func (s *Store) wrapKey(key []byte) (string, bool, error) {
	if s.kek == nil {
		return hex.EncodeToString(key), false, nil
	}
	block, err := aes.NewCipher(s.kek)
	if err != nil {
		return "", false, errors.Wrap(err, "new cipher error")
	}
	wrapped, err := keywrap.Wrap(block, key)
	if err != nil {
		return "", false, errors.Wrap(err, "key wrap error")
	}
	return hex.EncodeToString(wrapped), true, nil
}

func (s *Store) unwrapKey(hexStr string, wrapped bool) ([]byte, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, errors.Wrap(err, "decode hex error")
	}
	if !wrapped {
		return raw, nil
	}
	block, err := aes.NewCipher(s.kek)
	if err != nil {
		return nil, errors.Wrap(err, "new cipher error")
	}
	return keywrap.Unwrap(block, raw)
}

func sessionKey(devEUI phy.EUI64) string { return fmt.Sprintf("lorawan:%s:session", devEUI) }
func regionKey(devEUI phy.EUI64) string  { return fmt.Sprintf("lorawan:%s:region", devEUI) }

func (s *Store) SaveSession(ctx context.Context, devEUI phy.EUI64, ss persist.SessionState) error {
	nwk, wrapped, err := s.wrapKey(ss.NwkSKey[:])
	if err != nil {
		return err
	}
	app, _, err := s.wrapKey(ss.AppSKey[:])
	if err != nil {
		return err
	}

	w := wireSession{
		NwkSKey: nwk, AppSKey: app, Wrapped: wrapped,
		DevAddr: hex.EncodeToString(ss.DevAddr[:]), NetId: hex.EncodeToString(ss.NetId[:]),
		FCntUp: ss.FCntUp, FCntDown: ss.FCntDown,
	}
	b, err := json.Marshal(w)
	if err != nil {
		return errors.Wrap(err, "marshal session error")
	}
	if err := s.client.Set(ctx, sessionKey(devEUI), b, 0).Err(); err != nil {
		return errors.Wrap(err, "redis set error")
	}
	logrus.WithField("dev_eui", devEUI.String()).Debug("persisted session state")
	return nil
}

func (s *Store) LoadSession(ctx context.Context, devEUI phy.EUI64) (persist.SessionState, bool, error) {
	b, err := s.client.Get(ctx, sessionKey(devEUI)).Bytes()
	if err == redis.Nil {
		return persist.SessionState{}, false, nil
	}
	if err != nil {
		return persist.SessionState{}, false, errors.Wrap(err, "redis get error")
	}

	var w wireSession
	if err := json.Unmarshal(b, &w); err != nil {
		return persist.SessionState{}, false, errors.Wrap(err, "unmarshal session error")
	}

	nwk, err := s.unwrapKey(w.NwkSKey, w.Wrapped)
	if err != nil {
		return persist.SessionState{}, false, err
	}
	app, err := s.unwrapKey(w.AppSKey, w.Wrapped)
	if err != nil {
		return persist.SessionState{}, false, err
	}
	devAddrB, err := hex.DecodeString(w.DevAddr)
	if err != nil {
		return persist.SessionState{}, false, errors.Wrap(err, "decode dev_addr error")
	}
	netIDB, err := hex.DecodeString(w.NetId)
	if err != nil {
		return persist.SessionState{}, false, errors.Wrap(err, "decode net_id error")
	}

	var ss persist.SessionState
	copy(ss.NwkSKey[:], nwk)
	copy(ss.AppSKey[:], app)
	copy(ss.DevAddr[:], devAddrB)
	copy(ss.NetId[:], netIDB)
	ss.FCntUp, ss.FCntDown = w.FCntUp, w.FCntDown
	return ss, true, nil
}

func (s *Store) SaveRegion(ctx context.Context, devEUI phy.EUI64, rs persist.RegionState) error {
	b, err := json.Marshal(rs)
	if err != nil {
		return errors.Wrap(err, "marshal region error")
	}
	if err := s.client.Set(ctx, regionKey(devEUI), b, 0).Err(); err != nil {
		return errors.Wrap(err, "redis set error")
	}
	return nil
}

func (s *Store) LoadRegion(ctx context.Context, devEUI phy.EUI64) (persist.RegionState, bool, error) {
	b, err := s.client.Get(ctx, regionKey(devEUI)).Bytes()
	if err == redis.Nil {
		return persist.RegionState{}, false, nil
	}
	if err != nil {
		return persist.RegionState{}, false, errors.Wrap(err, "redis get error")
	}
	var rs persist.RegionState
	if err := json.Unmarshal(b, &rs); err != nil {
		return persist.RegionState{}, false, errors.Wrap(err, "unmarshal region error")
	}
	return rs, true, nil
}
