package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

type JetStreamConfig struct {
	URL             string
	StreamName      string
	SubjectPrefix   string
	MaxReconnects   int
	ReconnectWait   time.Duration
	MaxAge          time.Duration // How long to keep messages
	MaxMsgs         int64         // Max number of messages to keep
	Replicas        int           // Number of replicas for the stream
	DuplicateWindow time.Duration // Window for duplicate detection
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:             nats.DefaultURL,
		StreamName:      "DRAFT_EVENTS",
		SubjectPrefix:   "draft.events",
		MaxReconnects:   -1, // Infinite
		ReconnectWait:   2 * time.Second,
		MaxAge:          7 * 24 * time.Hour,
		MaxMsgs:         -1,
		Replicas:        1,
		DuplicateWindow: 2 * time.Hour,
	}
}

// Subject is where an event of typ for draftID is published.
func (c JetStreamConfig) Subject(draftID uuid.UUID, typ events.Type) string {
	return fmt.Sprintf("%s.%s.%s", c.SubjectPrefix, draftID, typ)
}

// DraftFilter matches every event of one draft.
func (c JetStreamConfig) DraftFilter(draftID uuid.UUID) string {
	return fmt.Sprintf("%s.%s.>", c.SubjectPrefix, draftID)
}

// JetStreamBroadcaster persists events to a JetStream stream for downstream consumers.
type JetStreamBroadcaster struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
}

func connect(cfg JetStreamConfig) (*nats.Conn, jetstream.JetStream, error) {
	opts := []nats.Option{
		nats.Name("dynasty-draft"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create JetStream context: %w", err)
	}
	return nc, js, nil
}

func NewJetStreamBroadcaster(ctx context.Context, cfg JetStreamConfig) (*JetStreamBroadcaster, error) {
	nc, js, err := connect(cfg)
	if err != nil {
		return nil, err
	}

	b := &JetStreamBroadcaster{nc: nc, js: js, config: cfg}
	if err := b.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	return b, nil
}

func (b *JetStreamBroadcaster) streamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        b.config.StreamName,
		Description: "Draft session state-diff events",
		Subjects:    []string{fmt.Sprintf("%s.>", b.config.SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      b.config.MaxAge,
		MaxMsgs:     b.config.MaxMsgs,
		Storage:     jetstream.FileStorage,
		Replicas:    b.config.Replicas,
		Duplicates:  b.config.DuplicateWindow,
	}
}

func (b *JetStreamBroadcaster) ensureStream(ctx context.Context) error {
	sc := b.streamConfig()

	stream, err := b.js.Stream(ctx, b.config.StreamName)
	if err != nil {
		if _, err = b.js.CreateStream(ctx, sc); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		log.Info().Str("stream", b.config.StreamName).Msg("created JetStream stream")
		return nil
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("get stream info: %w", err)
	}
	if !isStreamConfigEqual(info.Config, sc) {
		if _, err = b.js.UpdateStream(ctx, sc); err != nil {
			return fmt.Errorf("update stream: %w", err)
		}
		log.Info().Str("stream", b.config.StreamName).Msg("updated JetStream stream")
	}
	return nil
}

func (b *JetStreamBroadcaster) Name() string { return "jetstream" }

func (b *JetStreamBroadcaster) Broadcast(ctx context.Context, event events.Event) error {
	subject := b.config.Subject(event.DraftID, event.Type)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ack, err := b.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Event-Type":     []string{string(event.Type)},
			"Draft-ID":       []string{event.DraftID.String()},
			"Event-ID":       []string{event.ID.String()},
			"Event-Sequence": []string{strconv.FormatUint(event.Sequence, 10)},
		},
	},
		jetstream.WithMsgID(event.ID.String()),
		jetstream.WithExpectStream(b.config.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	log.Debug().
		Str("subject", subject).
		Str("event_id", event.ID.String()).
		Uint64("stream_sequence", ack.Sequence).
		Msg("published to JetStream")
	return nil
}

func (b *JetStreamBroadcaster) Close() error {
	if b.nc != nil {
		b.nc.Close()
	}
	return nil
}

// Tail replays and then follows every event of one draft from the stream, calling fn in order
// until ctx is cancelled.
func Tail(ctx context.Context, cfg JetStreamConfig, draftID uuid.UUID, fn func(events.Event)) error {
	nc, js, err := connect(cfg)
	if err != nil {
		return err
	}
	defer nc.Close()

	consumer, err := js.OrderedConsumer(ctx, cfg.StreamName, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{cfg.DraftFilter(draftID)},
		DeliverPolicy:  jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		var event events.Event
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			log.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to unmarshal event")
			return
		}
		fn(event)
	})
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	defer cc.Stop()

	<-ctx.Done()
	return nil
}

func isStreamConfigEqual(a, b jetstream.StreamConfig) bool {
	return a.Name == b.Name &&
		a.MaxAge == b.MaxAge &&
		a.MaxMsgs == b.MaxMsgs &&
		a.Replicas == b.Replicas &&
		a.Duplicates == b.Duplicates
}
