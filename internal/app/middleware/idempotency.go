package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"staycal/internal/app/commands"
)

// IdempotentCommand is implemented by commands a client may retry with the same key.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any
}

// IdempotencyRecord is a stored result. Fingerprint identifies the command body the key was
// first used with; records written without one match any body.
type IdempotencyRecord struct {
	Key         string
	Fingerprint string
	Payload     []byte
	OccurredAt  time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var (
	// ErrIdempotencyKeyReused means the key was already used with a different request body.
	ErrIdempotencyKeyReused = errors.New("idempotency key reused with a different request")

	errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")
)

type idempotency struct {
	store IdempotencyStore
	codec ResultCodec
	next  func(ctx context.Context, cmd commands.Command) (any, error)
}

// Idempotency replays the stored result of a successful command with the same key and body.
// Failed attempts are not stored, so a client can retry them.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		m := &idempotency{store: store, codec: codec, next: wrapCommand(next)}
		return commandFunc(m.dispatch)
	}
}

func (m *idempotency) dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	idCmd, ok := cmd.(IdempotentCommand)
	if !ok || idCmd.IdempotencyKey() == "" {
		return m.next(ctx, cmd)
	}
	key := cmd.Key() + ":" + idCmd.IdempotencyKey()
	fingerprint, err := m.fingerprint(cmd)
	if err != nil {
		return nil, err
	}

	rec, found, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if found {
		if rec.Fingerprint != "" && rec.Fingerprint != fingerprint {
			return nil, ErrIdempotencyKeyReused
		}
		return m.replay(idCmd, rec)
	}

	result, err := m.next(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if err := m.save(ctx, key, fingerprint, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (m *idempotency) replay(cmd IdempotentCommand, rec IdempotencyRecord) (any, error) {
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if err := m.codec.Decode(rec.Payload, proto); err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface(), nil
	}
	return proto, nil
}

func (m *idempotency) save(ctx context.Context, key, fingerprint string, result any) error {
	rec := IdempotencyRecord{Key: key, Fingerprint: fingerprint, OccurredAt: time.Now().UTC()}
	if result != nil {
		payload, err := m.codec.Encode(result)
		if err != nil {
			return err
		}
		rec.Payload = payload
	}
	return m.store.Save(ctx, rec)
}

func (m *idempotency) fingerprint(cmd commands.Command) (string, error) {
	body, err := m.codec.Encode(cmd)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}
