package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/gorilla/websocket"

	"github.com/quirelab/quire/internal/gateway"
	"github.com/quirelab/quire/pkg/collection"
	"github.com/quirelab/quire/pkg/filter"
	"github.com/quirelab/quire/pkg/model"
	"github.com/quirelab/quire/pkg/ordering"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024

	// Outbound frames buffered per connection.
	sendBufferSize = 256

	// Upper bound on one snapshot stream.
	snapshotTimeout = 10 * time.Second

	// How long a full send buffer is retried before the frame is dropped.
	slowClientWait = 50 * time.Millisecond
)

// Send pings to peer with this period. Must be less than pongWait.
var pingPeriod = (pongWait * 9) / 10

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     safeCheckOrigin,
}

// safeCheckOrigin accepts empty origins (non-browser clients), exact
// host matches, and same-host origins on a different port so local dev
// setups keep working.
func safeCheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}

	originHost := strings.Split(u.Host, ":")[0]
	requestHost := strings.Split(r.Host, ":")[0]
	return strings.EqualFold(originHost, requestHost)
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub      *Hub
	registry *gateway.Registry

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan BaseMessage

	// Live subscriptions keyed by the subscribe message id.
	subscriptions map[string]*subscription
	mu            sync.Mutex
}

// subscription is one live query. The program is the compiled event
// matcher; nil matches every record.
type subscription struct {
	collection    string
	includeRecord bool
	program       cel.Program
}

// matches reports whether a store event should reach this subscription.
// Deletes carry no record to test, so every subscription on the
// collection hears them.
func (s *subscription) matches(evt collection.Event) bool {
	if evt.Type == collection.EventDelete {
		return true
	}
	if s.program == nil {
		return true
	}

	out, _, err := s.program.Eval(map[string]interface{}{
		"record": map[string]interface{}(evt.Record),
	})
	if err != nil {
		// Missing fields and kind mismatches surface as eval errors,
		// which mirrors the engine's treat-as-no-match policy.
		return false
	}
	matched, ok := out.Value().(bool)
	return ok && matched
}

// readPump pumps messages from the websocket connection to the client.
//
// The application runs readPump in a per-connection goroutine, which
// keeps all reads on one goroutine as the websocket package requires.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	slog.Debug("Websocket connection established", "remote", c.conn.RemoteAddr())

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Warn("Websocket connection closed", "error", err)
			} else {
				slog.Debug("Websocket connection closed")
			}
			break
		}

		var msg BaseMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			slog.Warn("Unmarshalling websocket message", "error", err)
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg BaseMessage) {
	switch msg.Type {
	case TypeSubscribe:
		c.handleSubscribe(msg)
	case TypeUnsubscribe:
		c.handleUnsubscribe(msg)
	default:
		c.sendError(msg.ID, "unknown_type", fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (c *Client) handleSubscribe(msg BaseMessage) {
	var payload SubscribePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.sendError(msg.ID, "bad_payload", "invalid subscribe payload")
		return
	}

	col, ok := c.registry.Get(payload.Collection)
	if !ok {
		c.sendError(msg.ID, "unknown_collection", fmt.Sprintf("unknown collection %q", payload.Collection))
		return
	}

	var expr filter.Expr
	if len(payload.Filter) > 0 {
		var err error
		expr, err = filter.Parse(payload.Filter)
		if err == nil {
			err = filter.Validate(expr, col.Schema)
		}
		if err != nil {
			c.sendError(msg.ID, "invalid_filter", err.Error())
			return
		}
		expr = gateway.CoerceTimeOperands(expr, col.Schema)
	}

	if err := payload.Sort.Validate(col.Schema); err != nil {
		c.sendError(msg.ID, "invalid_sort", err.Error())
		return
	}

	prg, err := compileMatcher(expr)
	if err != nil {
		c.sendError(msg.ID, "invalid_filter", err.Error())
		return
	}

	c.mu.Lock()
	c.subscriptions[msg.ID] = &subscription{
		collection:    payload.Collection,
		includeRecord: payload.IncludeRecord,
		program:       prg,
	}
	c.mu.Unlock()
	slog.Debug("Subscribed", "collection", payload.Collection, "subscription", msg.ID, "snapshot", payload.SendSnapshot)

	c.send <- BaseMessage{ID: msg.ID, Type: TypeSubscribeAck}

	if payload.SendSnapshot {
		c.sendSnapshot(msg.ID, col, expr, payload.Sort)
	}
}

// sendSnapshot streams the current filtered and ordered records as
// record frames, then a complete frame with the count. The timeout
// bounds how long a slow consumer can hold the read loop.
func (c *Client) sendSnapshot(subID string, col *gateway.Collection, expr filter.Expr, spec ordering.Spec) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	count := 0
	err := col.Engine().Stream(ctx, col.Store.Snapshot(), expr, spec, func(r model.Record) error {
		frame := BaseMessage{
			ID:      subID,
			Type:    TypeRecord,
			Payload: mustMarshal(RecordPayload{SubID: subID, Record: r}),
		}
		select {
		case c.send <- frame:
		case <-ctx.Done():
			return model.WrapError(ctx.Err())
		}
		count++
		return nil
	})
	if err != nil {
		slog.Warn("Snapshot stream aborted", "subscription", subID, "error", err)
		c.sendError(subID, "snapshot_failed", err.Error())
		return
	}

	complete := BaseMessage{
		ID:      subID,
		Type:    TypeComplete,
		Payload: mustMarshal(CompletePayload{SubID: subID, Count: count}),
	}
	select {
	case c.send <- complete:
	case <-ctx.Done():
	}
}

func (c *Client) handleUnsubscribe(msg BaseMessage) {
	var payload UnsubscribePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.sendError(msg.ID, "bad_payload", "invalid unsubscribe payload")
		return
	}

	c.mu.Lock()
	delete(c.subscriptions, payload.ID)
	c.mu.Unlock()
	slog.Debug("Unsubscribed", "subscription", payload.ID)

	c.send <- BaseMessage{ID: msg.ID, Type: TypeUnsubscribeAck}
}

func (c *Client) sendError(id, code, message string) {
	c.send <- BaseMessage{
		ID:      id,
		Type:    TypeError,
		Payload: mustMarshal(ErrorPayload{SubID: id, Code: code, Message: message}),
	}
}

// deliver fans one store change out to the client's matching
// subscriptions. A full send buffer is retried briefly, then the frame
// is dropped so one stalled connection cannot wedge the hub.
func (c *Client) deliver(ch change) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for subID, sub := range c.subscriptions {
		if sub.collection != ch.Collection || !sub.matches(ch.Event) {
			continue
		}

		payload := EventPayload{
			SubID: subID,
			Type:  string(ch.Event.Type),
			ID:    ch.Event.ID,
		}
		if sub.includeRecord {
			payload.Record = ch.Event.Record
		}
		msg := BaseMessage{Type: TypeEvent, Payload: mustMarshal(payload)}

		select {
		case c.send <- msg:
		default:
			select {
			case c.send <- msg:
			case <-time.After(slowClientWait):
				slog.Warn("Dropping event for slow client", "subscription", subID)
			}
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
//
// A goroutine running writePump is started for each connection, which
// keeps all writes on one goroutine as the websocket package requires.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
