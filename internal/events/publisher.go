package events

import (
	"context"
	"encoding/json"
	"time"
)

// Publisher pushes change-feed envelopes out to subscribers.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Emit marshals record into an envelope and publishes it on the
// table's feed channel. Feed emission is best effort: the durable
// write has already committed, so errors are returned for logging but
// must not roll anything back.
func Emit(ctx context.Context, pub Publisher, op Op, table string, record interface{}) error {
	if pub == nil {
		return nil
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	env := Envelope{
		Op:         op,
		Table:      table,
		OccurredAt: time.Now(),
		Record:     raw,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return pub.Publish(ctx, ChannelFor(table), payload)
}
