package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/clearpath/warehouse-flow/internal/shipment"
	"github.com/clearpath/warehouse-flow/internal/shipment/dto"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const eventShipmentRequested = "ShipmentRequested"

// MessageReader is satisfied by *broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type ShipmentListener struct {
	consumer MessageReader
	uc       shipment.UseCase
	logger   logger.ZapLogger
}

func NewShipmentListener(consumer MessageReader, uc shipment.UseCase, logger logger.ZapLogger) *ShipmentListener {
	return &ShipmentListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *ShipmentListener) Start(ctx context.Context) {
	l.logger.Info("Starting Shipment Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Shipment Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

func (l *ShipmentListener) processMessage(ctx context.Context, value []byte) {
	var event dto.ShipmentRequestedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != eventShipmentRequested {
		return
	}

	l.logger.Info("Processing ShipmentRequested event",
		zap.String("event_id", event.EventID),
		zap.String("company_id", event.Payload.CompanyID),
	)

	result, err := l.uc.CreateShipment(ctx, &dto.CreateShipmentInput{
		CompanyID:         event.Payload.CompanyID,
		Destination:       event.Payload.Destination,
		Items:             event.Payload.Items,
		CreatedBy:         event.Payload.RequestedBy,
		RejectOnShortfall: event.Payload.RejectOnShortfall,
		SourceEventID:     event.EventID,
	})
	if err != nil {
		l.logger.Error("Failed to create shipment from event",
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
		return
	}
	if result.Duplicate {
		l.logger.Info("Skipping redelivered ShipmentRequested event",
			zap.String("event_id", event.EventID),
			zap.String("shipment_id", result.Shipment.ID),
		)
		return
	}

	for _, item := range result.Items {
		if item.Shortfall > 0 {
			l.logger.Warn("Shipment item short",
				zap.String("shipment_id", result.Shipment.ID),
				zap.String("product_id", item.ProductID),
				zap.Int("shortfall", item.Shortfall),
			)
		}
	}
}
