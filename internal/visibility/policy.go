// Package visibility decides which branch-owned records a requesting branch
// may see.
package visibility

import "github.com/fekuna/omnipos-stock-service/internal/model"

type EntityKind string

const (
	Products   EntityKind = "products"
	Inventory  EntityKind = "inventory"
	Categories EntityKind = "categories"
	Customers  EntityKind = "customers"
	Suppliers  EntityKind = "suppliers"
	Employees  EntityKind = "employees"
)

// Scoped is implemented by every branch-owned record.
type Scoped interface {
	OwnerBranchID() *string
	Shared() bool
}

// Decide applies the visibility rules in order:
//  1. an unknown or inactive requesting branch sees nothing
//  2. the owning branch sees its own records
//  3. global (no owner) and explicitly shared records are visible to all
//  4. otherwise both branches must allow sharing the entity kind
//
// owning may be nil when the owner branch no longer exists.
func Decide(kind EntityKind, owner *string, shared bool, requesting, owning *model.Branch) bool {
	if requesting == nil || !requesting.IsActive {
		return false
	}
	if owner == nil {
		return true
	}
	if *owner == requesting.ID {
		return true
	}
	if shared {
		return true
	}
	if owning == nil {
		return false
	}
	return allowsSharing(requesting, kind) && allowsSharing(owning, kind)
}

func allowsSharing(b *model.Branch, kind EntityKind) bool {
	switch b.DataIsolationMode {
	case model.IsolationShared:
		return true
	case model.IsolationHybrid:
		return flagFor(b.SharingFlags, kind)
	default:
		return false
	}
}

func flagFor(f model.SharingFlags, kind EntityKind) bool {
	switch kind {
	case Products:
		return f.ShareProducts
	case Inventory:
		return f.ShareInventory
	case Categories:
		return f.ShareCategories
	case Customers:
		return f.ShareCustomers
	case Suppliers:
		return f.ShareSuppliers
	case Employees:
		return f.ShareEmployees
	}
	return false
}
