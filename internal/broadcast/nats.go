package broadcast

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/logfields"
)

// NATSTransport publishes on a core NATS connection and keeps state in a JetStream
// key-value bucket.
type NATSTransport struct {
	conn *nats.Conn
	js   jetstream.JetStream
	kv   jetstream.KeyValue
}

// DialNATS connects to url and opens (or creates) the state bucket.
func DialNATS(ctx context.Context, url, bucket string) (*NATSTransport, error) {
	conn, err := nats.Connect(url,
		nats.Name("steptimer"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, errors.NetworkError("failed to connect to NATS").
			WithCause(err).WithContext("url", url).Build()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.NetworkError("failed to create JetStream context").
			WithCause(err).WithContext("url", url).Build()
	}

	t := &NATSTransport{conn: conn, js: js}
	if err := t.initKVBucket(ctx, bucket); err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("NATS broadcaster connected", logfields.URL(url), slog.String("kv_bucket", bucket))
	return t, nil
}

func (t *NATSTransport) initKVBucket(ctx context.Context, bucket string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	kv, err := t.js.KeyValue(ctx, bucket)
	if err == nil {
		t.kv = kv
		return nil
	}

	kv, err = t.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Latest state of each steptimer timer",
		History:     1,
	})
	if err != nil {
		return errors.NetworkError("failed to create KV bucket").
			WithCause(err).WithContext("bucket", bucket).Build()
	}
	t.kv = kv
	slog.Info("Created KV bucket for timer state", slog.String("bucket", bucket))
	return nil
}

// Publish sends data on subject.
func (t *NATSTransport) Publish(_ context.Context, subject string, data []byte) error {
	return t.conn.Publish(subject, data)
}

// PutState stores the latest state document under key.
func (t *NATSTransport) PutState(ctx context.Context, key string, data []byte) error {
	_, err := t.kv.Put(ctx, key, data)
	return err
}

// GetState reads the state document under key. It reports false when the key is absent.
func (t *NATSTransport) GetState(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := t.kv.Get(ctx, key)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return entry.Value(), true, nil
}

// Close drains pending messages and closes the connection.
func (t *NATSTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Drain()
}
