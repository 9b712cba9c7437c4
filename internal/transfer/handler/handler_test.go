package handler

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/branch"
	branchdto "github.com/fekuna/omnipos-stock-service/internal/branch/dto"
	branchrepo "github.com/fekuna/omnipos-stock-service/internal/branch/repository"
	branchuc "github.com/fekuna/omnipos-stock-service/internal/branch/usecase"
	ledgerrepo "github.com/fekuna/omnipos-stock-service/internal/ledger/repository"
	ledgeruc "github.com/fekuna/omnipos-stock-service/internal/ledger/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/logger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	productrepo "github.com/fekuna/omnipos-stock-service/internal/product/repository"
	"github.com/fekuna/omnipos-stock-service/internal/rpc"
	serialrepo "github.com/fekuna/omnipos-stock-service/internal/serial/repository"
	serialuc "github.com/fekuna/omnipos-stock-service/internal/serial/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/storage/memory"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/repository"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/usecase"
	variantdto "github.com/fekuna/omnipos-stock-service/internal/variant/dto"
	variantrepo "github.com/fekuna/omnipos-stock-service/internal/variant/repository"
	variantuc "github.com/fekuna/omnipos-stock-service/internal/variant/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/visibility"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type harness struct {
	conn      *grpc.ClientConn
	branchA   string
	branchB   string
	variantID string
	branches  branch.UseCase
}

func start(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNop()
	db := memory.NewDB(time.Second)

	branches := branchuc.NewBranchUseCase(branchrepo.NewMemoryRepository(db), nil, log)
	a, err := branches.RegisterBranch(ctx, &branchdto.RegisterBranchInput{Name: "Dar", Code: "DAR"})
	require.NoError(t, err)
	b, err := branches.RegisterBranch(ctx, &branchdto.RegisterBranchInput{Name: "Dodoma", Code: "DOD"})
	require.NoError(t, err)

	products := productrepo.NewMemoryRepository(db)
	now := time.Now().UTC()
	p := &model.Product{BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}, Name: "Router", SKU: "RT-AX", IsActive: true}
	require.NoError(t, products.Create(ctx, p))

	variants := variantrepo.NewMemoryRepository(db)
	ledgerUC := ledgeruc.NewLedgerUseCase(ledgerrepo.NewMemoryRepository(db), nil, log)
	serials := serialuc.NewSerialUseCase(serialrepo.NewMemoryRepository(db), nil, log)
	stock := variantuc.NewVariantUseCase(db, variants, products, nil, branches, serials, ledgerUC, visibility.NewResolver(branches), nil, log)
	v, err := stock.CreateStandard(ctx, &variantdto.CreateVariantInput{ProductID: p.ID, BranchID: a.ID, Name: "AX3000", InitialQuantity: 3})
	require.NoError(t, err)

	uc := usecase.NewTransferUseCase(usecase.Config{}, db, repository.NewMemoryRepository(db), variants, stock, ledgerUC, branches, nil, nil, nil, log)

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer(grpc.UnaryInterceptor(rpc.ContextInterceptor(log)))
	server.RegisterService(&ServiceDesc, NewTransferHandler(uc, log))
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype("json")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &harness{conn: conn, branchA: a.ID, branchB: b.ID, variantID: v.ID, branches: branches}
}

func (h *harness) call(branchID, method string, req, resp interface{}) error {
	ctx := metadata.AppendToOutgoingContext(context.Background(), auth.BranchHeader, branchID, auth.UserHeader, "user-1")
	return h.conn.Invoke(ctx, "/"+serviceName+"/"+method, req, resp)
}

func TestTransferLifecycleOverGRPC(t *testing.T) {
	h := start(t)

	var created TransferResponse
	require.NoError(t, h.call(h.branchA, "RequestTransfer", &RequestTransferRequest{
		VariantID: h.variantID, ToBranchID: h.branchB, Quantity: 2,
	}, &created))
	assert.Equal(t, "pending", created.Transfer.Status)
	assert.Equal(t, "user-1", created.Transfer.RequestedBy)

	id := created.Transfer.ID
	var out TransferResponse
	require.NoError(t, h.call(h.branchA, "Approve", &TransferActionRequest{ID: id}, &out))
	require.NoError(t, h.call(h.branchB, "Complete", &TransferActionRequest{ID: id}, &out))
	assert.Equal(t, "completed", out.Transfer.Status)
	assert.NotEmpty(t, out.Transfer.DestinationVariantID)

	err := h.call(h.branchB, "Complete", &TransferActionRequest{ID: id}, &out)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	var list ListTransfersResponse
	require.NoError(t, h.call(h.branchB, "ListTransfers", &ListTransfersRequest{Direction: "incoming"}, &list))
	assert.Equal(t, int32(1), list.Total)

	var stats StatsResponse
	require.NoError(t, h.call(h.branchA, "Stats", &rpc.Empty{}, &stats))
	assert.Equal(t, int32(1), stats.ByStatus["completed"])
}

func TestTransferErrorsMapToCodes(t *testing.T) {
	h := start(t)
	var out TransferResponse

	err := h.call(h.branchA, "RequestTransfer", &RequestTransferRequest{VariantID: h.variantID, ToBranchID: h.branchA, Quantity: 1}, &out)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = h.call(h.branchA, "RequestTransfer", &RequestTransferRequest{VariantID: h.variantID, ToBranchID: h.branchB, Quantity: 10}, &out)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	require.NoError(t, h.call(h.branchA, "RequestTransfer", &RequestTransferRequest{VariantID: h.variantID, ToBranchID: h.branchB, Quantity: 1}, &out))
	err = h.call(uuid.New().String(), "GetTransfer", &GetTransferRequest{ID: out.Transfer.ID}, &TransferResponse{})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	err = h.conn.Invoke(context.Background(), "/"+serviceName+"/GetTransfer", &GetTransferRequest{ID: out.Transfer.ID}, &TransferResponse{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestDestinationCannotReserveInvisibleStock(t *testing.T) {
	h := start(t)
	var out TransferResponse

	err := h.call(h.branchB, "RequestTransfer", &RequestTransferRequest{
		VariantID: h.variantID, FromBranchID: h.branchA, ToBranchID: h.branchB, Quantity: 3,
	}, &out)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	// Nothing was reserved, so the source can still ship everything.
	require.NoError(t, h.call(h.branchA, "RequestTransfer", &RequestTransferRequest{
		VariantID: h.variantID, ToBranchID: h.branchB, Quantity: 3,
	}, &out))
	assert.Equal(t, "pending", out.Transfer.Status)
}

func TestDestinationMayRequestSharedStock(t *testing.T) {
	h := start(t)
	ctx := context.Background()
	for _, id := range []string{h.branchA, h.branchB} {
		_, err := h.branches.UpdatePolicy(ctx, &branchdto.UpdatePolicyInput{ID: id, Mode: model.IsolationShared})
		require.NoError(t, err)
	}

	var out TransferResponse
	require.NoError(t, h.call(h.branchB, "RequestTransfer", &RequestTransferRequest{
		VariantID: h.variantID, FromBranchID: h.branchA, ToBranchID: h.branchB, Quantity: 2,
	}, &out))
	assert.Equal(t, h.branchA, out.Transfer.FromBranchID)
	assert.Equal(t, "pending", out.Transfer.Status)
}
