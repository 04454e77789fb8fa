// Package events publica los movimientos confirmados del libro mayor en Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/numeric"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var (
	_ inventory.MovementPublisher = (*KafkaPublisher)(nil)
	_ inventory.MovementPublisher = NopPublisher{}
)

// MovementEvent payload JSON de un movimiento confirmado. Cantidades y costos van como texto
// con 4 decimales para no perder precisión en consumidores con float.
type MovementEvent struct {
	EventID       string    `json:"event_id"`
	TenantID      string    `json:"tenant_id"`
	WarehouseID   string    `json:"warehouse_id"`
	ProductID     string    `json:"product_id"`
	VariantID     string    `json:"variant_id,omitempty"`
	Type          string    `json:"type"`
	Direction     int       `json:"direction"`
	Quantity      string    `json:"quantity"`
	UnitCost      string    `json:"unit_cost"`
	TotalCost     string    `json:"total_cost"`
	ReferenceType string    `json:"reference_type,omitempty"`
	ReferenceID   string    `json:"reference_id,omitempty"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewMovementEvent arma el evento de un movimiento.
func NewMovementEvent(e *entity.StockLedgerEntry) MovementEvent {
	return MovementEvent{
		EventID:       e.ID,
		TenantID:      e.TenantID,
		WarehouseID:   e.WarehouseID,
		ProductID:     e.ProductID,
		VariantID:     e.VariantID,
		Type:          string(e.Type),
		Direction:     int(e.Type.Direction()),
		Quantity:      numeric.Format(e.Quantity),
		UnitCost:      numeric.Format(e.UnitCost),
		TotalCost:     numeric.Format(e.TotalCost),
		ReferenceType: e.ReferenceType,
		ReferenceID:   e.ReferenceID,
		CreatedBy:     e.CreatedBy,
		CreatedAt:     e.CreatedAt,
	}
}

// messageWriter subconjunto de *kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica un mensaje por movimiento. La clave es tenant|bodega|producto para
// que los movimientos de una misma llave conserven el orden dentro de la partición.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	log    *logger.Logger
}

// NewPublisher devuelve un KafkaPublisher si hay brokers configurados; si no, NopPublisher.
func NewPublisher(cfg config.KafkaConfig, log *logger.Logger) inventory.MovementPublisher {
	if !cfg.Enabled() {
		return NopPublisher{}
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}
	return newKafkaPublisher(w, cfg.Topic, log)
}

func newKafkaPublisher(w messageWriter, topic string, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, log: log.Named("events")}
}

// PublishMovements envía los movimientos en un solo lote.
func (p *KafkaPublisher) PublishMovements(ctx context.Context, entries ...*entity.StockLedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(entries))
	for _, e := range entries {
		payload, err := json.Marshal(NewMovementEvent(e))
		if err != nil {
			return fmt.Errorf("serializar movimiento %s: %w", e.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.TenantID + "|" + e.WarehouseID + "|" + e.ProductID),
			Value: payload,
			Headers: []kafka.Header{
				{Key: "type", Value: []byte(e.Type)},
			},
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.log.Error().Err(err).Str("topic", p.topic).Int("count", len(msgs)).Msg("no se pudo publicar movimientos")
		return fmt.Errorf("publicar movimientos: %w", err)
	}
	p.log.Debug().Str("topic", p.topic).Int("count", len(msgs)).Msg("movimientos publicados")
	return nil
}

// Close vacía el buffer del writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher descarta los movimientos (KAFKA_BROKERS vacío).
type NopPublisher struct{}

func (NopPublisher) PublishMovements(context.Context, ...*entity.StockLedgerEntry) error { return nil }
func (NopPublisher) Close() error                                                     { return nil }
