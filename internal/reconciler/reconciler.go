// Package reconciler folds remote change-feed events into the
// conversation store. It is the second writer next to the local
// services; both go through the store's id-keyed upserts, so neither
// can clobber the other's in-flight state.
package reconciler

import (
	"context"
	"encoding/json"

	"ebox-messaging/internal/domain/broadcast"
	"ebox-messaging/internal/domain/conversation"
	"ebox-messaging/internal/domain/invitation"
	"ebox-messaging/internal/domain/message"
	"ebox-messaging/internal/events"
	"ebox-messaging/internal/state"
	"ebox-messaging/pkg/logger"
)

// Feed is the subscription side of the change feed.
type Feed interface {
	Subscribe(ctx context.Context, patterns []string, handler func(channel string, payload []byte)) error
}

type Reconciler struct {
	store *state.Store
	feed  Feed
	log   *logger.Logger
}

func New(store *state.Store, feed Feed, log *logger.Logger) *Reconciler {
	return &Reconciler{store: store, feed: feed, log: log}
}

// Run consumes the feed until ctx is canceled. Callers run it on its
// own goroutine.
func (r *Reconciler) Run(ctx context.Context) error {
	return r.feed.Subscribe(ctx, []string{events.ChannelPrefix + "*"}, func(channel string, payload []byte) {
		var env events.Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			r.log.Errorf("change feed: bad envelope on %s: %v", channel, err)
			return
		}
		r.Apply(env)
	})
}

// Apply folds a single envelope into the store. Unknown tables are
// ignored; the feed may carry tables this session does not track.
func (r *Reconciler) Apply(env events.Envelope) {
	switch env.Table {
	case events.TableConversations:
		r.applyConversation(env)
	case events.TableMessages:
		r.applyMessage(env)
	case events.TableMembers:
		r.applyMembership(env)
	case events.TableInvitations:
		r.applyInvitation(env)
	case events.TableBroadcasts:
		r.applyBroadcast(env)
	}
}

func (r *Reconciler) applyConversation(env events.Envelope) {
	// Conversations are never deleted in this design; a delete envelope
	// for one is a feed anomaly worth logging.
	if env.Op == events.OpDelete {
		r.log.Warnf("change feed: ignoring conversation delete")
		return
	}
	var c conversation.Conversation
	if err := json.Unmarshal(env.Record, &c); err != nil {
		r.log.Errorf("change feed: bad conversation record: %v", err)
		return
	}
	r.store.UpsertConversation(c)
}

func (r *Reconciler) applyMessage(env events.Envelope) {
	var m message.Message
	if err := json.Unmarshal(env.Record, &m); err != nil {
		r.log.Errorf("change feed: bad message record: %v", err)
		return
	}
	if env.Op == events.OpDelete {
		r.store.RemoveMessage(m.ID)
		return
	}
	// A message that made it onto the feed exists durably; remote rows
	// carry no transient status, so they enter the session as sent and
	// advance from there.
	if m.Status == "" {
		m.Status = message.StatusSent
	}
	r.store.UpsertMessage(m)
}

// applyBroadcast folds a broadcast row into its conversation as an
// ordinary sent message; the separate table is a storage concern the
// session view does not mirror.
func (r *Reconciler) applyBroadcast(env events.Envelope) {
	var b broadcast.Message
	if err := json.Unmarshal(env.Record, &b); err != nil {
		r.log.Errorf("change feed: bad broadcast record: %v", err)
		return
	}
	if env.Op == events.OpDelete {
		r.store.RemoveMessage(b.ID)
		return
	}
	r.store.UpsertMessage(message.Message{
		ID:             b.ID,
		ConversationID: b.ConversationID,
		SenderID:       b.SenderID,
		Content:        b.Content,
		Status:         message.StatusSent,
		CreatedAt:      b.CreatedAt,
	})
}

func (r *Reconciler) applyMembership(env events.Envelope) {
	var m conversation.Membership
	if err := json.Unmarshal(env.Record, &m); err != nil {
		r.log.Errorf("change feed: bad membership record: %v", err)
		return
	}
	if env.Op == events.OpDelete {
		r.store.RemoveMembership(m.ID)
		return
	}
	r.store.UpsertMembership(m)
}

func (r *Reconciler) applyInvitation(env events.Envelope) {
	var inv invitation.Invitation
	if err := json.Unmarshal(env.Record, &inv); err != nil {
		r.log.Errorf("change feed: bad invitation record: %v", err)
		return
	}
	if env.Op == events.OpDelete {
		r.store.RemoveInvitation(inv.ID)
		return
	}
	r.store.UpsertInvitation(inv)
}
