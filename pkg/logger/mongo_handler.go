package logger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoQueueSize = 4096
	mongoBatchSize = 50
	mongoDrainTick = 2 * time.Second
)

// LogEntry is one stored log line.
type LogEntry struct {
	Time      time.Time `bson:"time"`
	Level     string    `bson:"level"`
	Msg       string    `bson:"msg"`
	RequestID string    `bson:"request_id,omitempty"`
	UserID    string    `bson:"user_id,omitempty"`
	Attrs     bson.M    `bson:"attrs,omitempty"`
}

// batchWriter is the slice of *mongo.Collection the handler needs.
type batchWriter interface {
	InsertMany(ctx context.Context, docs []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

// MongoHandler ships log records to a collection in batches from a
// background goroutine. Records are dropped when the queue is full.
type MongoHandler struct {
	level  slog.Level
	sink   *mongoSink
	attrs  []slog.Attr
	prefix string
}

type mongoSink struct {
	out       batchWriter
	queue     chan LogEntry
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	onClose   func(context.Context) error
}

// DialMongoHandler connects to uri and writes into db.collection.
func DialMongoHandler(ctx context.Context, uri, db, collection string, level slog.Level) (*MongoHandler, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second).
		SetMaxPoolSize(4))
	if err != nil {
		return nil, fmt.Errorf("log sink connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("log sink ping: %w", err)
	}

	col := client.Database(db).Collection(collection)
	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "time", Value: -1}},
	})

	h := newMongoHandler(col, level)
	h.sink.onClose = client.Disconnect
	return h, nil
}

func newMongoHandler(out batchWriter, level slog.Level) *MongoHandler {
	s := &mongoSink{
		out:     out,
		queue:   make(chan LogEntry, mongoQueueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return &MongoHandler{level: level, sink: s}
}

func (h *MongoHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.level }

func (h *MongoHandler) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{
		Time:  r.Time,
		Level: r.Level.String(),
		Msg:   r.Message,
		Attrs: bson.M{},
	}
	add := func(a slog.Attr) bool {
		switch a.Key {
		case "request_id":
			entry.RequestID = a.Value.String()
		case "user_id":
			entry.UserID = a.Value.String()
		default:
			entry.Attrs[h.prefix+a.Key] = a.Value.Resolve().Any()
		}
		return true
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(add)

	select {
	case h.sink.queue <- entry:
	default:
	}
	return nil
}

func (h *MongoHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &MongoHandler{level: h.level, sink: h.sink, attrs: merged, prefix: h.prefix}
}

func (h *MongoHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &MongoHandler{level: h.level, sink: h.sink, attrs: h.attrs, prefix: h.prefix + name + "."}
}

// Close flushes queued entries and releases the client. Safe to call twice.
func (h *MongoHandler) Close(ctx context.Context) error {
	var err error
	h.sink.closeOnce.Do(func() {
		close(h.sink.done)
		select {
		case <-h.sink.stopped:
		case <-ctx.Done():
		}
		if h.sink.onClose != nil {
			err = h.sink.onClose(ctx)
		}
	})
	return err
}

func (s *mongoSink) run() {
	defer close(s.stopped)

	ticker := time.NewTicker(mongoDrainTick)
	defer ticker.Stop()

	batch := make([]interface{}, 0, mongoBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, _ = s.out.InsertMany(ctx, batch)
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case e := <-s.queue:
			batch = append(batch, e)
			if len(batch) >= mongoBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.done:
			for {
				select {
				case e := <-s.queue:
					batch = append(batch, e)
					if len(batch) >= mongoBatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// MultiHandler sends every record to each enabled handler.
type MultiHandler struct {
	handlers []slog.Handler
}

func NewMultiHandler(hs ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: hs}
}

func (m *MultiHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			_ = h.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: hs}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: hs}
}
