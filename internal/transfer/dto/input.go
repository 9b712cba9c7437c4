package dto

type RequestTransferInput struct {
	VariantID    string
	FromBranchID string
	ToBranchID   string
	Quantity     int
	RequestedBy  string
	Notes        string
	// RequestingBranchID is the caller's branch. When it is not the source
	// the variant must be visible to it.
	RequestingBranchID string
	// IdempotencyKey is optional. A repeated key is rejected for as long as
	// the key lives in Redis.
	IdempotencyKey string
}

// ActionInput drives the status transitions after a transfer is requested.
type ActionInput struct {
	TransferID string
	Reason     string // reject and cancel only
	By         string
}
