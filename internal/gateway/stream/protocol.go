package stream

import (
	"encoding/json"

	"github.com/quirelab/quire/pkg/model"
	"github.com/quirelab/quire/pkg/ordering"
)

// Message types
const (
	TypeSubscribe      = "subscribe"
	TypeSubscribeAck   = "subscribe_ack"
	TypeUnsubscribe    = "unsubscribe"
	TypeUnsubscribeAck = "unsubscribe_ack"
	TypeRecord         = "record"
	TypeComplete       = "complete"
	TypeEvent          = "event"
	TypeError          = "error"
)

// BaseMessage is the envelope for all messages. The ID of a subscribe
// message becomes the subscription id; server frames for that
// subscription carry it back in their payloads.
type BaseMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SubscribePayload opens a live query on one collection. Filter is the
// nested filter document, Sort orders the snapshot. With SendSnapshot
// the current matching records stream back as record frames followed by
// a complete frame; either way the subscription stays open and store
// changes arrive as event frames.
type SubscribePayload struct {
	Collection    string          `json:"collection"`
	Filter        json.RawMessage `json:"filter,omitempty"`
	Sort          ordering.Spec   `json:"sort,omitempty"`
	SendSnapshot  bool            `json:"sendSnapshot"`
	IncludeRecord bool            `json:"includeRecord"`
}

// UnsubscribePayload closes the subscription with the given id.
type UnsubscribePayload struct {
	ID string `json:"id"`
}

// RecordPayload carries one snapshot record.
type RecordPayload struct {
	SubID  string       `json:"subId"`
	Record model.Record `json:"record"`
}

// CompletePayload terminates a snapshot with the streamed record count.
type CompletePayload struct {
	SubID string `json:"subId"`
	Count int    `json:"count"`
}

// EventPayload announces a store change on a subscribed collection. The
// record is present only for upserts on subscriptions that asked for it.
type EventPayload struct {
	SubID  string       `json:"subId"`
	Type   string       `json:"type"`
	ID     string       `json:"id"`
	Record model.Record `json:"record,omitempty"`
}

// ErrorPayload reports a per-message failure without closing the
// connection.
type ErrorPayload struct {
	SubID   string `json:"subId,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
