package listener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
	"github.com/fekuna/omnipos-storefront-service/internal/order"
	"github.com/fekuna/omnipos-storefront-service/internal/order/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
)

// MessageReader is satisfied by *broker.KafkaConsumer. Offsets are committed only after an
// event is applied or judged unprocessable.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type PaymentListener struct {
	consumer   MessageReader
	uc         order.UseCase
	logger     logger.ZapLogger
	backoff    time.Duration
	maxBackoff time.Duration
}

func NewPaymentListener(consumer MessageReader, uc order.UseCase, logger logger.ZapLogger) *PaymentListener {
	return &PaymentListener{
		consumer:   consumer,
		uc:         uc,
		logger:     logger,
		backoff:    time.Second,
		maxBackoff: 30 * time.Second,
	}
}

func (l *PaymentListener) Start(ctx context.Context) {
	l.logger.Info("Starting Payment Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Payment Kafka Listener")
			return
		default:
			msg, err := l.consumer.FetchMessage(ctx)
			if err != nil {
				// Don't log context canceled error as error
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to fetch kafka message", zap.Error(err))
				l.sleep(ctx, l.backoff)
				continue
			}
			if !l.handle(ctx, msg.Value) {
				// Shutting down mid-retry: leave the offset uncommitted so the event is redelivered.
				return
			}
			if err := l.consumer.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
				l.logger.Error("Failed to commit kafka message",
					zap.Int("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
			}
		}
	}
}

// handle applies one message, retrying transient failures with backoff until it succeeds
// or ctx ends. It reports false only when ctx ended before the message was settled.
func (l *PaymentListener) handle(ctx context.Context, value []byte) bool {
	wait := l.backoff
	for {
		if !l.processMessage(ctx, value) {
			return true
		}
		if !l.sleep(ctx, wait) {
			return false
		}
		wait *= 2
		if wait > l.maxBackoff {
			wait = l.maxBackoff
		}
	}
}

// processMessage reports whether the message should be retried.
func (l *PaymentListener) processMessage(ctx context.Context, value []byte) (retry bool) {
	var event dto.PaymentEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return false
	}

	log := l.logger.With(
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.String("reference", event.Payload.Reference),
	)

	err := l.uc.HandlePaymentEvent(ctx, &event)
	if err == nil {
		log.Debug("Processed payment event")
		return false
	}

	var (
		nf *apperr.NotFoundError
		ve *apperr.ValidationError
	)
	switch {
	case errors.As(err, &nf):
		// Events for payments this service never recorded are not retried.
		log.Warn("Payment event for unknown reference")
		return false
	case errors.As(err, &ve):
		log.Warn("Invalid payment event", zap.Error(err))
		return false
	}
	log.Error("Failed to apply payment event, will retry", zap.Error(err))
	return true
}

func (l *PaymentListener) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
