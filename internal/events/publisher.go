package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/pkg/errors"

	"github.com/dwarvesf/walletpay-backend/internal/model"
	"github.com/dwarvesf/walletpay-backend/internal/utils/config"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
)

const (
	DefaultStreamName = "WALLET_TRANSACTIONS"
	subjectPrefix     = "walletpay.txns"
	streamRetention   = 30 * 24 * time.Hour
)

// Publisher sends transaction lifecycle events to the message bus.
type Publisher interface {
	Publish(ctx context.Context, event *TransactionEvent) error
	Close() error
}

// Subject returns the stream subject for a chain.
func Subject(chain model.Chain) string {
	return fmt.Sprintf("%s.%s", subjectPrefix, chain)
}

// New returns a JetStream publisher, or a no-op publisher when NATS is not configured.
func New(cfg config.NATSConfig, logger *logger.Logger) (Publisher, error) {
	if cfg.URL == "" {
		logger.Info("[events.New] NATS_URL not set, transaction events disabled")
		return NopPublisher{}, nil
	}
	return NewJetStreamPublisher(cfg, logger)
}

type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	stream string
	logger *logger.Logger
}

func NewJetStreamPublisher(cfg config.NATSConfig, logger *logger.Logger) (*JetStreamPublisher, error) {
	stream := cfg.StreamName
	if stream == "" {
		stream = DefaultStreamName
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name("walletpay-publisher"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errors.Wrap(err, "connect to NATS")
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, errors.Wrap(err, "create JetStream context")
	}

	p := &JetStreamPublisher{nc: nc, js: js, stream: stream, logger: logger}
	if err := p.ensureStream(); err != nil {
		nc.Close()
		return nil, err
	}

	logger.Info("[NewJetStreamPublisher] NATS publisher initialized", map[string]string{
		"url":    cfg.URL,
		"stream": stream,
	})
	return p, nil
}

func (p *JetStreamPublisher) ensureStream() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := p.js.Stream(ctx, p.stream); err == nil {
		return nil
	}

	p.logger.Info("[ensureStream] creating JetStream stream", map[string]string{"stream": p.stream})
	_, err := p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        p.stream,
		Description: "Wallet payment transaction lifecycle events",
		Subjects:    []string{subjectPrefix + ".*"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      streamRetention,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		return errors.Wrap(err, "create stream")
	}
	return nil
}

func (p *JetStreamPublisher) Publish(ctx context.Context, event *TransactionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal transaction event")
	}

	subject := Subject(event.Chain)
	if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(msgID(event))); err != nil {
		return errors.Wrap(err, "publish transaction event")
	}

	p.logger.Debug("[Publish] published transaction event", map[string]string{
		"subject": subject,
		"event":   string(event.Event),
		"tx_hash": event.TxHash,
	})
	return nil
}

func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

// msgID lets JetStream drop duplicate publishes of the same lifecycle step.
func msgID(event *TransactionEvent) string {
	return fmt.Sprintf("%s:%s:%s", event.Chain, event.TxHash, event.Event)
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *TransactionEvent) error { return nil }
func (NopPublisher) Close() error                                     { return nil }

// PublishQuietly publishes and logs failures instead of returning them.
func PublishQuietly(ctx context.Context, p Publisher, logger *logger.Logger, event *TransactionEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.Error("[PublishQuietly] failed to publish transaction event", map[string]string{
			"event":   string(event.Event),
			"chain":   string(event.Chain),
			"tx_hash": event.TxHash,
			"error":   err.Error(),
		})
	}
}
