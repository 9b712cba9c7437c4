package dto

import "github.com/fekuna/omnipos-stock-service/internal/model"

type Direction string

const (
	DirectionAny      Direction = ""
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

type TransferFilters struct {
	BranchID  string
	Direction Direction
	Status    model.TransferStatus
	VariantID string
	ProductID string
	Page      int
	PageSize  int
}

// StatusCount is one row of the per-branch status breakdown.
type StatusCount struct {
	Status   model.TransferStatus `db:"status"`
	Incoming bool                 `db:"incoming"`
	Count    int                  `db:"count"`
}

type TransferStats struct {
	BranchID     string                       `json:"branch_id"`
	ByStatus     map[model.TransferStatus]int `json:"by_status"`
	OpenIncoming int                          `json:"open_incoming"`
	OpenOutgoing int                          `json:"open_outgoing"`
	Total        int                          `json:"total"`
}
