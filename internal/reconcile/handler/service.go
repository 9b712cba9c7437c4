package handler

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/reconcile/dto"
	"github.com/fekuna/omnipos-stock-service/internal/rpc"
	"google.golang.org/grpc"
)

const serviceName = "stock.v1.MaintenanceService"

type ReconcileRequest struct {
	Mode string `json:"mode"` // report (default) or repair
}

type ReconcileResponse struct {
	Summary *dto.Summary `json:"summary"`
}

type MaintenanceServiceServer interface {
	Reconcile(context.Context, *ReconcileRequest) (*ReconcileResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*MaintenanceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.UnaryMethod(serviceName, "Reconcile", (*MaintenanceHandler).Reconcile),
	},
	Streams: []grpc.StreamDesc{},
}
