package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/repodoc/internal/config"
	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
	"git.home.luguber.info/inful/repodoc/internal/logfields"
)

// NATSStore keeps artifacts in a JetStream key-value bucket with a history of
// one, and publishes run events on a subject.
type NATSStore struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	kv      jetstream.KeyValue
	subject string
}

// NewNATSStore connects and opens or creates the bucket.
func NewNATSStore(ctx context.Context, cfg config.NATSConfig) (*NATSStore, error) {
	conn, err := nats.Connect(cfg.URL, nats.Name("repodoc"))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStore, "failed to connect to NATS").
			Retryable().
			WithContext("url", cfg.URL).
			Build()
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.CategoryStore, "failed to create JetStream context").Build()
	}

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	kv, err := js.KeyValue(initCtx, cfg.Bucket)
	if err != nil {
		kv, err = js.CreateKeyValue(initCtx, jetstream.KeyValueConfig{
			Bucket:      cfg.Bucket,
			Description: "repodoc artifacts and regeneration blocks",
			History:     1,
		})
		if err != nil {
			conn.Close()
			return nil, errors.WrapError(err, errors.CategoryStore, "failed to create KV bucket").
				WithContext("bucket", cfg.Bucket).
				Build()
		}
		slog.Info("Created KV bucket", slog.String("bucket", cfg.Bucket))
	}

	slog.Info("NATS artifact store initialized",
		slog.String("url", cfg.URL),
		slog.String("bucket", cfg.Bucket),
		slog.String("subject", cfg.Subject))
	return &NATSStore{conn: conn, js: js, kv: kv, subject: cfg.Subject}, nil
}

func (s *NATSStore) Put(ctx context.Context, key string, data []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	if _, err := s.kv.Put(ctx, key, data); err != nil {
		return storeErr(err, "failed to put artifact", key)
	}
	return nil
}

func (s *NATSStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	entry, err := s.kv.Get(ctx, key)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr(err, "failed to get artifact", key)
	}
	return entry.Value(), nil
}

// Delete leaves a tombstone; a later Get reports ErrNotFound.
func (s *NATSStore) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, key); err != nil && !stderrors.Is(err, jetstream.ErrKeyNotFound) {
		return storeErr(err, "failed to delete artifact", key)
	}
	return nil
}

// PublishRunCompleted publishes ev as JSON on the configured subject.
func (s *NATSStore) PublishRunCompleted(ctx context.Context, ev RunEvent) error {
	if s.subject == "" {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal run event").Build()
	}
	subject := s.subject + "." + ev.TargetID
	if _, err := s.js.Publish(ctx, subject, data); err != nil {
		// Without a stream bound to the subject, fall back to core NATS.
		if stderrors.Is(err, jetstream.ErrNoStreamResponse) || stderrors.Is(err, nats.ErrNoResponders) {
			if perr := s.conn.Publish(subject, data); perr != nil {
				return storeErr(perr, "failed to publish run event", subject)
			}
			return nil
		}
		return storeErr(err, "failed to publish run event", subject)
	}
	slog.Debug("Published run event", logfields.RunID(ev.RunID), logfields.Target(ev.TargetID))
	return nil
}

func (s *NATSStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}
