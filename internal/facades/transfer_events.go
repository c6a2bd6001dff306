package facades

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/gw-wallet-ledger/internal/logger"
	"github.com/sbilibin2017/gw-wallet-ledger/internal/models"
)

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// TransferEventsKafkaFacade publishes committed transfers to Kafka.
type TransferEventsKafkaFacade struct {
	writer  KafkaWriter
	timeout time.Duration
}

// NewTransferEventsKafkaFacade creates a publisher. A nil writer disables publishing.
func NewTransferEventsKafkaFacade(writer KafkaWriter, timeout time.Duration) *TransferEventsKafkaFacade {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &TransferEventsKafkaFacade{writer: writer, timeout: timeout}
}

// Publish sends one message per transfer keyed by the transfer id. Failures are
// logged; the transfer is already committed and stays valid.
func (f *TransferEventsKafkaFacade) Publish(ctx context.Context, transfer *models.Transfer) {
	if f.writer == nil {
		logger.Log.Warnw("Kafka writer not configured, skipping publishing", "transfer_id", transfer.ID)
		return
	}

	event := models.NewTransferEvent(transfer)
	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("Failed to marshal transfer for Kafka", "transfer_id", event.TransferID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.TransferID),
		Value: data,
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("Failed to publish transfer to Kafka", "transfer_id", event.TransferID, "error", err)
		return
	}
	logger.Log.Infow("Transfer published to Kafka", "transfer_id", event.TransferID, "purpose", event.Purpose, "legs", len(event.Legs))
}

// Close flushes and closes the writer.
func (f *TransferEventsKafkaFacade) Close() error {
	if f.writer == nil {
		return nil
	}
	return f.writer.Close()
}
