// Package rpc answers page and stream queries over NATS request-reply
// with msgpack framing. The page subject returns one windowed reply;
// the stream subject publishes one frame per record to the reply inbox
// followed by a terminal done frame, so arbitrarily large traversals
// never materialize on either side.
package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/quirelab/quire/internal/gateway"
	"github.com/quirelab/quire/pkg/engine"
	"github.com/quirelab/quire/pkg/model"
)

const (
	// DefaultSubjectPrefix namespaces the served subjects.
	DefaultSubjectPrefix = "quire"

	// connectTimeout bounds the initial NATS dial.
	connectTimeout = 5 * time.Second

	// requestTimeout bounds one query execution.
	requestTimeout = 30 * time.Second
)

// natsConnectFunc allows test injection.
var natsConnectFunc = nats.Connect

// conn is the subset of *nats.Conn the responder uses. Handlers reply
// through Publish on the reply inbox, which keeps the seam mockable.
type conn interface {
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
	Publish(subj string, data []byte) error
	Flush() error
	Drain() error
}

var _ conn = (*nats.Conn)(nil)

// Responder serves the query subjects over one NATS connection.
type Responder struct {
	registry *gateway.Registry
	prefix   string
	conn     conn
}

// NewResponder creates a responder over the registry's collections. An
// empty prefix falls back to DefaultSubjectPrefix.
func NewResponder(registry *gateway.Registry, prefix string) *Responder {
	if registry == nil {
		panic("registry cannot be nil")
	}
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Responder{registry: registry, prefix: prefix}
}

// Connect dials the NATS server with reconnect enabled.
func (r *Responder) Connect(url string) error {
	if url == "" {
		url = nats.DefaultURL
	}

	nc, err := natsConnectFunc(url,
		nats.Name("quire-rpc"),
		nats.Timeout(connectTimeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	r.conn = nc

	slog.Info("Connected to NATS", "url", url)
	return nil
}

// Serve subscribes the page and stream subjects. Connect must have
// succeeded first.
func (r *Responder) Serve() error {
	if r.conn == nil {
		return fmt.Errorf("not connected, call Connect first")
	}

	pageSubject := r.prefix + ".query.page"
	if _, err := r.conn.Subscribe(pageSubject, r.handlePage); err != nil {
		return fmt.Errorf("subscribing %s: %w", pageSubject, err)
	}

	streamSubject := r.prefix + ".query.stream"
	if _, err := r.conn.Subscribe(streamSubject, r.handleStream); err != nil {
		return fmt.Errorf("subscribing %s: %w", streamSubject, err)
	}

	if err := r.conn.Flush(); err != nil {
		return fmt.Errorf("flushing subscriptions: %w", err)
	}

	slog.Info("Serving NATS query subjects", "page", pageSubject, "stream", streamSubject)
	return nil
}

// Close drains the connection so in-flight replies finish.
func (r *Responder) Close() {
	if r.conn == nil {
		return
	}
	if err := r.conn.Drain(); err != nil {
		slog.Warn("Draining NATS connection", "error", err)
	}
}

func (r *Responder) handlePage(msg *nats.Msg) {
	if msg.Reply == "" {
		slog.Warn("Dropping page query without reply subject")
		return
	}

	reply := r.executePage(msg.Data)
	data, err := msgpack.Marshal(reply)
	if err != nil {
		slog.Error("Marshalling page reply", "error", err)
		return
	}
	if err := r.conn.Publish(msg.Reply, data); err != nil {
		slog.Warn("Publishing page reply", "error", err)
	}
}

func (r *Responder) executePage(data []byte) *PageReply {
	var q PageQuery
	if err := msgpack.Unmarshal(data, &q); err != nil {
		return &PageReply{Error: &WireError{
			Code:    gateway.ErrCodeBadRequest,
			Message: "invalid page query: " + err.Error(),
		}}
	}

	col, ok := r.registry.Get(q.Collection)
	if !ok {
		return &PageReply{Error: &WireError{
			Code:    gateway.ErrCodeNotFound,
			Message: fmt.Sprintf("unknown collection %q", q.Collection),
		}}
	}

	expr, err := buildFilter(q.Filters, col.Schema)
	if err != nil {
		return &PageReply{Error: wireError(err)}
	}
	expr = gateway.CoerceTimeOperands(expr, col.Schema)

	spec, err := buildSort(q.Sort)
	if err != nil {
		return &PageReply{Error: wireError(err)}
	}

	req, err := q.pageRequest()
	if err != nil {
		return &PageReply{Error: wireError(err)}
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	window, err := col.Engine().Paginate(ctx, col.Store.Snapshot(), expr, spec, req)
	if err != nil {
		return &PageReply{Error: wireError(err)}
	}
	connection, err := window.Connection()
	if err != nil {
		return &PageReply{Error: wireError(err)}
	}

	reply := &PageReply{
		Records:     make([]model.Record, len(connection.Edges)),
		Cursors:     make([]string, len(connection.Edges)),
		HasNext:     connection.PageInfo.HasNextPage,
		HasPrevious: connection.PageInfo.HasPreviousPage,
		TotalCount:  connection.TotalCount,
	}
	for i, edge := range connection.Edges {
		reply.Records[i] = edge.Node
		reply.Cursors[i] = edge.Cursor
	}
	if connection.PageInfo.StartCursor != nil {
		reply.StartCursor = *connection.PageInfo.StartCursor
	}
	if connection.PageInfo.EndCursor != nil {
		reply.EndCursor = *connection.PageInfo.EndCursor
	}
	if req.Mode == engine.ModeOffset {
		reply.Page = window.Page
		reply.TotalPages = window.TotalPages
	}
	return reply
}

func (r *Responder) handleStream(msg *nats.Msg) {
	if msg.Reply == "" {
		slog.Warn("Dropping stream query without reply subject")
		return
	}

	var q StreamQuery
	if err := msgpack.Unmarshal(msg.Data, &q); err != nil {
		r.publishFrame(msg.Reply, StreamFrame{Done: true, Error: &WireError{
			Code:    gateway.ErrCodeBadRequest,
			Message: "invalid stream query: " + err.Error(),
		}})
		return
	}

	col, ok := r.registry.Get(q.Collection)
	if !ok {
		r.publishFrame(msg.Reply, StreamFrame{Done: true, Error: &WireError{
			Code:    gateway.ErrCodeNotFound,
			Message: fmt.Sprintf("unknown collection %q", q.Collection),
		}})
		return
	}

	expr, err := buildFilter(q.Filters, col.Schema)
	if err != nil {
		r.publishFrame(msg.Reply, StreamFrame{Done: true, Error: wireError(err)})
		return
	}
	expr = gateway.CoerceTimeOperands(expr, col.Schema)

	spec, err := buildSort(q.Sort)
	if err != nil {
		r.publishFrame(msg.Reply, StreamFrame{Done: true, Error: wireError(err)})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	count := 0
	err = col.Engine().Stream(ctx, col.Store.Snapshot(), expr, spec, func(rec model.Record) error {
		frame, err := msgpack.Marshal(StreamFrame{Record: rec})
		if err != nil {
			return fmt.Errorf("marshalling record frame: %w", err)
		}
		if err := r.conn.Publish(msg.Reply, frame); err != nil {
			return fmt.Errorf("publishing record frame: %w", err)
		}
		count++
		return nil
	})
	if err != nil {
		r.publishFrame(msg.Reply, StreamFrame{Done: true, Error: wireError(err)})
		return
	}

	r.publishFrame(msg.Reply, StreamFrame{Done: true, Count: count})
}

func (r *Responder) publishFrame(subject string, frame StreamFrame) {
	data, err := msgpack.Marshal(frame)
	if err != nil {
		slog.Error("Marshalling stream frame", "error", err)
		return
	}
	if err := r.conn.Publish(subject, data); err != nil {
		slog.Warn("Publishing stream frame", "error", err)
	}
}

func wireError(err error) *WireError {
	return &WireError{Code: gateway.ErrorCode(err), Message: err.Error()}
}
