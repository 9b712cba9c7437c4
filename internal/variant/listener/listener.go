package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/broker"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/variant"
	"github.com/fekuna/omnipos-stock-service/internal/variant/dto"
	"go.uber.org/zap"
)

const (
	EventSaleCompleted    = "SaleCompleted"
	EventPurchaseReceived = "PurchaseReceived"

	systemUser = "system"
)

type StockListener struct {
	consumer broker.Consumer
	uc       variant.UseCase
	logger   logger.ZapLogger
}

func NewStockListener(consumer broker.Consumer, uc variant.UseCase, logger logger.ZapLogger) *StockListener {
	return &StockListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *StockListener) Start(ctx context.Context) {
	l.logger.Info("Starting stock Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping stock Kafka listener")
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

type SalePayload struct {
	SaleID   string            `json:"sale_id"`
	BranchID string            `json:"branch_id"`
	Items    []SaleItemPayload `json:"items"`
}

// SaleItemPayload names a serialized unit by Serial, or a standard variant
// by VariantID and Quantity.
type SaleItemPayload struct {
	VariantID string `json:"variant_id"`
	Serial    string `json:"serial"`
	Quantity  int    `json:"quantity"`
}

type PurchasePayload struct {
	PurchaseID string                `json:"purchase_id"`
	BranchID   string                `json:"branch_id"`
	Items      []PurchaseItemPayload `json:"items"`
}

type PurchaseItemPayload struct {
	VariantID string        `json:"variant_id"`
	Quantity  int           `json:"quantity"`
	Units     []UnitPayload `json:"units"`
}

type UnitPayload struct {
	Serial       string                 `json:"serial"`
	IMEI         string                 `json:"imei"`
	SerialNumber string                 `json:"serial_number"`
	MACAddress   string                 `json:"mac_address"`
	Condition    string                 `json:"condition"`
	Attributes   map[string]interface{} `json:"attributes"`
}

func (l *StockListener) processMessage(ctx context.Context, value []byte) {
	var event broker.Event
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	switch event.EventType {
	case EventSaleCompleted:
		var payload SalePayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			l.logger.Error("Failed to unmarshal sale payload", zap.String("event_id", event.EventID), zap.Error(err))
			return
		}
		l.handleSale(ctx, &payload)
	case EventPurchaseReceived:
		var payload PurchasePayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			l.logger.Error("Failed to unmarshal purchase payload", zap.String("event_id", event.EventID), zap.Error(err))
			return
		}
		l.handlePurchase(ctx, &payload)
	}
}

func (l *StockListener) handleSale(ctx context.Context, p *SalePayload) {
	l.logger.Info("Processing SaleCompleted event", zap.String("sale_id", p.SaleID))

	for _, item := range p.Items {
		var err error
		if item.Serial != "" {
			_, err = l.uc.DeactivateBySerial(ctx, &dto.DeactivateBySerialInput{
				Serial:    item.Serial,
				Reason:    dto.ReasonSale,
				SaleID:    p.SaleID,
				CreatedBy: systemUser,
			})
		} else {
			_, err = l.uc.AdjustStock(ctx, &dto.AdjustStockInput{
				VariantID:     item.VariantID,
				Delta:         -item.Quantity,
				Reason:        "sale",
				ReferenceType: model.RefSale,
				ReferenceID:   p.SaleID,
				CreatedBy:     systemUser,
			})
		}
		if err != nil {
			l.logger.Error("Failed to apply sale item",
				zap.String("sale_id", p.SaleID),
				zap.String("variant_id", item.VariantID),
				zap.String("serial", item.Serial),
				zap.Error(err),
			)
		}
	}
}

func (l *StockListener) handlePurchase(ctx context.Context, p *PurchasePayload) {
	l.logger.Info("Processing PurchaseReceived event", zap.String("purchase_id", p.PurchaseID))

	for _, item := range p.Items {
		if len(item.Units) == 0 {
			if _, err := l.uc.ReceiveStock(ctx, &dto.ReceiveStockInput{
				VariantID:     item.VariantID,
				Quantity:      item.Quantity,
				ReferenceType: model.RefPurchase,
				ReferenceID:   p.PurchaseID,
				CreatedBy:     systemUser,
			}); err != nil {
				l.logger.Error("Failed to receive stock",
					zap.String("purchase_id", p.PurchaseID),
					zap.String("variant_id", item.VariantID),
					zap.Error(err),
				)
			}
			continue
		}

		units := make([]dto.UnitInput, len(item.Units))
		for i, u := range item.Units {
			units[i] = dto.UnitInput{
				Serial:       u.Serial,
				IMEI:         u.IMEI,
				SerialNumber: u.SerialNumber,
				MACAddress:   u.MACAddress,
				Condition:    u.Condition,
				Attributes:   u.Attributes,
			}
		}
		res, err := l.uc.CreateChildren(ctx, &dto.CreateChildrenInput{
			ParentID:      item.VariantID,
			Units:         units,
			ReferenceType: model.RefPurchase,
			ReferenceID:   p.PurchaseID,
			CreatedBy:     systemUser,
		})
		if err != nil {
			l.logger.Error("Failed to receive units",
				zap.String("purchase_id", p.PurchaseID),
				zap.String("variant_id", item.VariantID),
				zap.Error(err),
			)
			continue
		}
		for _, r := range res.Results {
			if r.Err != nil {
				l.logger.Warn("Unit rejected",
					zap.String("purchase_id", p.PurchaseID),
					zap.String("serial", r.Serial),
					zap.Error(r.Err),
				)
			}
		}
	}
}
