package handler

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/reconcile"
	"github.com/fekuna/omnipos-stock-service/internal/reconcile/dto"
	"github.com/fekuna/omnipos-stock-service/internal/rpc"
	"go.uber.org/zap"
)

var _ MaintenanceServiceServer = (*MaintenanceHandler)(nil)

type MaintenanceHandler struct {
	uc     reconcile.UseCase
	logger logger.ZapLogger
}

func NewMaintenanceHandler(uc reconcile.UseCase, log logger.ZapLogger) *MaintenanceHandler {
	return &MaintenanceHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *MaintenanceHandler) Reconcile(ctx context.Context, req *ReconcileRequest) (*ReconcileResponse, error) {
	mode := dto.Mode(req.Mode)
	if mode == "" {
		mode = dto.ModeReport
	}
	summary, err := h.uc.ReconcileAll(ctx, mode)
	if err != nil {
		h.logger.Error("reconciliation failed", zap.String("mode", string(mode)), zap.Error(err))
		return nil, rpc.ToStatus(err)
	}
	return &ReconcileResponse{Summary: summary}, nil
}
