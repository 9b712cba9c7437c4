package dto

import "github.com/fekuna/omnipos-stock-service/internal/model"

type RegisterBranchInput struct {
	Name  string
	Code  string
	Mode  model.IsolationMode
	Flags model.SharingFlags
}

type UpdatePolicyInput struct {
	ID       string
	Mode     model.IsolationMode
	Flags    model.SharingFlags
	IsActive *bool // nil leaves the flag unchanged
}
