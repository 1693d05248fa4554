package kafka

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler processes a single message. Returning an error causes the
// message to be retried a bounded number of times before it is parked on the
// dead-letter topic.
type MessageHandler func(ctx context.Context, msg kafkago.Message) error

const (
	maxHandlerAttempts   = 3
	defaultRetryInterval = 200 * time.Millisecond
	deadLetterSuffix     = ".dlq"
)

// Dead-letter headers.
const (
	HeaderOriginalTopic     = "x-original-topic"
	HeaderOriginalPartition = "x-original-partition"
	HeaderOriginalOffset    = "x-original-offset"
	HeaderError             = "x-error"
)

// DeadLetterTopic returns the topic failed messages of topic are parked on.
func DeadLetterTopic(topic string) string {
	return topic + deadLetterSuffix
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// Consumer reads a topic as part of a consumer group and commits offsets
// after each message is handled or parked.
type Consumer struct {
	reader        *kafkago.Reader
	deadLetter    messageWriter
	closeDLQ      func() error
	topic         string
	retryInterval time.Duration
	logger        *zap.Logger
}

// NewConsumer creates a group consumer for topic.
func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	dlq := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  DeadLetterTopic(topic),
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Consumer{
		reader:        reader,
		deadLetter:    dlq,
		closeDLQ:      dlq.Close,
		topic:         topic,
		retryInterval: defaultRetryInterval,
		logger:        logger,
	}
}

// Consume blocks, dispatching messages to handler until ctx is cancelled. A
// message is committed only once it was handled or parked; if parking fails
// Consume returns without committing so the message is redelivered.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to fetch message from %s: %w", c.topic, err)
		}

		if err := c.process(ctx, handler, msg); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("failed to commit offset",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

// process handles msg with retries and parks it on the dead-letter topic when
// the handler keeps failing. A nil return means msg may be committed.
func (c *Consumer) process(ctx context.Context, handler MessageHandler, msg kafkago.Message) error {
	err := c.handleWithRetry(ctx, handler, msg)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	c.logger.Error("giving up on message, parking it",
		zap.String("topic", msg.Topic),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
		zap.Error(err),
	)

	parked := kafkago.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(append([]kafkago.Header(nil), msg.Headers...),
			kafkago.Header{Key: HeaderOriginalTopic, Value: []byte(msg.Topic)},
			kafkago.Header{Key: HeaderOriginalPartition, Value: []byte(strconv.Itoa(msg.Partition))},
			kafkago.Header{Key: HeaderOriginalOffset, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
			kafkago.Header{Key: HeaderError, Value: []byte(err.Error())},
		),
	}
	if dlqErr := c.deadLetter.WriteMessages(ctx, parked); dlqErr != nil {
		return fmt.Errorf("failed to park message %s/%d/%d: %w",
			msg.Topic, msg.Partition, msg.Offset, errors.Join(err, dlqErr))
	}
	return nil
}

func (c *Consumer) handleWithRetry(ctx context.Context, handler MessageHandler, msg kafkago.Message) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, maxHandlerAttempts-1), ctx)

	return backoff.RetryNotify(func() error {
		return handler(ctx, msg)
	}, policy, func(err error, wait time.Duration) {
		c.logger.Warn("message handler failed, retrying",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
	})
}

// Close closes the reader and the dead-letter writer.
func (c *Consumer) Close() error {
	err := c.reader.Close()
	if c.closeDLQ != nil {
		err = errors.Join(err, c.closeDLQ())
	}
	return err
}
