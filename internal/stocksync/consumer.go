package stocksync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"stockfinder/internal/domain"
	"stockfinder/internal/log"
	"stockfinder/internal/metrics"
	"stockfinder/internal/repos"
)

var ErrBadUpdate = errors.New("invalid stock update")

// retryBackoff is the pause before a session gives up on a failed write and rejoins.
var retryBackoff = 2 * time.Second

// Update is one stock change published by the inventory system.
type Update struct {
	ProductID *int64 `json:"productId"`
	StoreID   *int64 `json:"storeId"`
	Quantity  *int64 `json:"quantity"`
}

type StockWriter interface {
	Upsert(ctx context.Context, e domain.StockEntry) error
}

// Applier turns raw messages into stock upserts.
type Applier struct {
	Stock   StockWriter
	Metrics *metrics.Metrics
	// OnApplied runs after each successful upsert, e.g. to drop cached responses.
	OnApplied func(ctx context.Context)
}

// Parse decodes and validates a message value.
func Parse(value []byte) (domain.StockEntry, error) {
	var u Update
	if err := json.Unmarshal(value, &u); err != nil {
		return domain.StockEntry{}, fmt.Errorf("%w: %v", ErrBadUpdate, err)
	}
	switch {
	case u.ProductID == nil || *u.ProductID <= 0:
		return domain.StockEntry{}, fmt.Errorf("%w: productId missing or not positive", ErrBadUpdate)
	case u.StoreID == nil || *u.StoreID <= 0:
		return domain.StockEntry{}, fmt.Errorf("%w: storeId missing or not positive", ErrBadUpdate)
	case u.Quantity == nil || *u.Quantity < 0:
		return domain.StockEntry{}, fmt.Errorf("%w: quantity missing or negative", ErrBadUpdate)
	}
	return domain.StockEntry{ProductID: *u.ProductID, StoreID: *u.StoreID, Quantity: *u.Quantity}, nil
}

// Apply parses one message and writes it. See Committable for which errors are final.
func (a *Applier) Apply(ctx context.Context, value []byte) error {
	e, err := Parse(value)
	if err != nil {
		a.Metrics.StockUpdate("rejected")
		return err
	}
	if err := a.Stock.Upsert(ctx, e); err != nil {
		a.Metrics.StockUpdate("failed")
		return err
	}
	a.Metrics.StockUpdate("applied")
	if a.OnApplied != nil {
		a.OnApplied(ctx)
	}
	return nil
}

// Committable reports whether a message may be marked consumed after Apply returned err.
// Malformed updates and unknown references never succeed on redelivery; any other
// failure leaves the offset uncommitted so the message is read again.
func Committable(err error) bool {
	return err == nil || errors.Is(err, ErrBadUpdate) || errors.Is(err, repos.ErrUnknownReference)
}

// Consumer reads stock updates from a Kafka topic with a consumer group.
type Consumer struct {
	group   sarama.ConsumerGroup
	topics  []string
	groupID string
	applier *Applier
}

func NewConsumer(brokers []string, groupID, topic string, applier *Applier) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_6_0_0
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}
	log.Info(nil, "stocksync.init", map[string]any{"brokers": brokers, "group_id": groupID, "topic": topic})
	return &Consumer{group: group, topics: []string{topic}, groupID: groupID, applier: applier}, nil
}

// Start consumes until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	handler := &groupHandler{applier: c.applier}
	go func() {
		for {
			if err := c.group.Consume(ctx, c.topics, handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				log.Error(nil, "stocksync.consume", err, nil)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
	go func() {
		for err := range c.group.Errors() {
			log.Error(nil, "stocksync.error", err, nil)
		}
	}()
	log.Info(nil, "stocksync.start", map[string]any{"topics": c.topics, "group_id": c.groupID})
}

func (c *Consumer) Close() error {
	if c.group != nil {
		return c.group.Close()
	}
	return nil
}

type groupHandler struct {
	applier *Applier
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := h.handle(session.Context(), msg); err != nil {
			// ending the claim ends the session; the group rejoins from the last commit
			return err
		}
		session.MarkMessage(msg, "")
	}
	return nil
}

func (h *groupHandler) handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	fields := map[string]any{"topic": msg.Topic, "partition": msg.Partition, "offset": msg.Offset}
	err := h.applier.Apply(ctx, msg.Value)
	switch {
	case err == nil:
		log.Audit(nil, "stocksync.applied", fields)
		return nil
	case Committable(err):
		log.Warn(nil, "stocksync.reject", err, fields)
		return nil
	}
	log.Error(nil, "stocksync.retry", err, fields)
	select {
	case <-ctx.Done():
	case <-time.After(retryBackoff):
	}
	return fmt.Errorf("stock update at offset %d: %w", msg.Offset, err)
}
