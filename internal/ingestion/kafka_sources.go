package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"t2e-leaderboard/internal/domain"
)

// KafkaConfig configures KafkaTradeSource.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	// Oldest starts a new group at the beginning of the topic.
	Oldest bool
}

// tradeMessage is the JSON value of a trade message.
type tradeMessage struct {
	Trader        string `json:"trader"`
	Volume        uint64 `json:"volume"`
	ExecutionTime uint64 `json:"execution_time"`
	PnL           int64  `json:"pnl"`
	Signature     string `json:"signature,omitempty"`
}

// DecodeTradeMessage decodes a trade message value.
func DecodeTradeMessage(value []byte) (domain.TradeEvent, error) {
	var msg tradeMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return domain.TradeEvent{}, fmt.Errorf("%w: %v", ErrMalformedTrade, err)
	}
	trader, err := domain.ParsePubkey(msg.Trader)
	if err != nil {
		return domain.TradeEvent{}, fmt.Errorf("%w: %v", ErrMalformedTrade, err)
	}
	return domain.TradeEvent{
		Trader:        trader,
		Volume:        msg.Volume,
		ExecutionTime: msg.ExecutionTime,
		PnL:           msg.PnL,
		Signature:     msg.Signature,
	}, nil
}

// KafkaTradeSource consumes trade messages from a topic as a consumer group.
// Offsets are marked once an event has been handed to the subscriber.
type KafkaTradeSource struct {
	group  sarama.ConsumerGroup
	topic  string
	logger *zap.Logger
}

var _ TradeSource = (*KafkaTradeSource)(nil)

// NewKafkaTradeSource connects a consumer group to the brokers.
func NewKafkaTradeSource(cfg KafkaConfig, logger *zap.Logger) (*KafkaTradeSource, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		return nil, errors.New("kafka source requires brokers, topic and group id")
	}

	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	if cfg.Oldest {
		config.Consumer.Offsets.Initial = sarama.OffsetOldest
	}

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, config)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}
	return NewKafkaTradeSourceWithGroup(group, cfg.Topic, logger), nil
}

// NewKafkaTradeSourceWithGroup wraps an existing consumer group.
func NewKafkaTradeSourceWithGroup(group sarama.ConsumerGroup, topic string, logger *zap.Logger) *KafkaTradeSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaTradeSource{
		group:  group,
		topic:  topic,
		logger: logger.With(zap.String("source", "kafka"), zap.String("topic", topic)),
	}
}

// Name implements TradeSource.
func (s *KafkaTradeSource) Name() string { return "kafka" }

// Subscribe consumes until ctx is cancelled. Consume returns on every
// rebalance, so it is called in a loop.
func (s *KafkaTradeSource) Subscribe(ctx context.Context) (<-chan domain.TradeEvent, error) {
	events := make(chan domain.TradeEvent, 256)
	handler := &tradeGroupHandler{out: events, source: s.Name(), logger: s.logger}

	go func() {
		defer close(events)
		for {
			if err := s.group.Consume(ctx, []string{s.topic}, handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				s.logger.Warn("consume failed", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	return events, nil
}

// Close leaves the consumer group.
func (s *KafkaTradeSource) Close() error {
	return s.group.Close()
}

// tradeGroupHandler implements sarama.ConsumerGroupHandler.
type tradeGroupHandler struct {
	out    chan<- domain.TradeEvent
	source string
	logger *zap.Logger
}

func (h *tradeGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *tradeGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *tradeGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok || msg == nil {
				return nil
			}

			ev, err := DecodeTradeMessage(msg.Value)
			if err != nil {
				// Poison messages are skipped so the partition keeps moving.
				h.logger.Warn("skipping malformed trade message",
					zap.Int32("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
					zap.Error(err))
				session.MarkMessage(msg, "")
				continue
			}
			ev.Source = h.source
			if ev.Signature == "" {
				ev.Signature = fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
			}

			select {
			case h.out <- ev:
				session.MarkMessage(msg, "")
			case <-session.Context().Done():
				return nil
			}

		case <-session.Context().Done():
			return nil
		}
	}
}
