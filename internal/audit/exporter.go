// Package audit publishes a flat, human-readable row per cancelled slot for
// the spreadsheet sync. It is not authoritative; the refund ledger is.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kreede/internal/shared/config"

	"github.com/IBM/sarama"
)

// Row is one cancelled slot as it appears in the audit sheet.
type Row struct {
	BookingID    string    `json:"booking_id"`
	Date         string    `json:"date"`
	Court        string    `json:"court"`
	Start        string    `json:"start"`
	End          string    `json:"end"`
	PayerName    string    `json:"payer_name"`
	PayerClass   string    `json:"payer_class"`
	BookingType  string    `json:"booking_type"`
	PaymentTag   string    `json:"payment_tag"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
	RefundStatus string    `json:"refund_status"`
	Note         string    `json:"note,omitempty"`
	CancelledAt  time.Time `json:"cancelled_at"`
}

type Exporter interface {
	Export(ctx context.Context, rows []Row) error
	Close() error
}

type kafkaExporter struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaExporter connects a sync producer to the audit topic.
func NewKafkaExporter(cfg config.AuditConfig) (Exporter, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Retry.Max = 2
	saramaConfig.Producer.Timeout = 5 * time.Second
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit producer: %w", err)
	}
	return NewExporterWithProducer(producer, cfg.Topic), nil
}

func NewExporterWithProducer(producer sarama.SyncProducer, topic string) Exporter {
	return &kafkaExporter{producer: producer, topic: topic}
}

func (k *kafkaExporter) Export(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	messages := make([]*sarama.ProducerMessage, 0, len(rows))
	for _, row := range rows {
		payload, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to marshal audit row: %w", err)
		}
		messages = append(messages, &sarama.ProducerMessage{
			Topic: k.topic,
			// Rows of one booking stay ordered on one partition.
			Key:   sarama.StringEncoder(row.BookingID),
			Value: sarama.ByteEncoder(payload),
			Headers: []sarama.RecordHeader{
				{Key: []byte("row_type"), Value: []byte("slot_cancellation")},
				{Key: []byte("producer"), Value: []byte("kreede-admin")},
			},
			Timestamp: row.CancelledAt,
		})
	}

	if err := k.producer.SendMessages(messages); err != nil {
		return fmt.Errorf("failed to publish audit rows: %w", err)
	}
	return nil
}

func (k *kafkaExporter) Close() error {
	if err := k.producer.Close(); err != nil {
		return fmt.Errorf("failed to close audit producer: %w", err)
	}
	return nil
}

type noopExporter struct{}

// NoopExporter drops rows. Used when export is disabled.
func NoopExporter() Exporter {
	return noopExporter{}
}

func (noopExporter) Export(context.Context, []Row) error { return nil }
func (noopExporter) Close() error                        { return nil }
