package model

type IsolationMode string

const (
	IsolationIsolated IsolationMode = "isolated"
	IsolationShared   IsolationMode = "shared"
	IsolationHybrid   IsolationMode = "hybrid"
)

func (m IsolationMode) Valid() bool {
	switch m {
	case IsolationIsolated, IsolationShared, IsolationHybrid:
		return true
	}
	return false
}

type Branch struct {
	BaseModel
	Name              string        `db:"name" json:"name"`
	Code              string        `db:"code" json:"code"`
	IsActive          bool          `db:"is_active" json:"is_active"`
	DataIsolationMode IsolationMode `db:"data_isolation_mode" json:"data_isolation_mode"`
	SharingFlags
}

// SharingFlags only take effect when the branch runs in hybrid mode.
type SharingFlags struct {
	ShareProducts   bool `db:"share_products" json:"share_products"`
	ShareInventory  bool `db:"share_inventory" json:"share_inventory"`
	ShareSuppliers  bool `db:"share_suppliers" json:"share_suppliers"`
	ShareCustomers  bool `db:"share_customers" json:"share_customers"`
	ShareCategories bool `db:"share_categories" json:"share_categories"`
	ShareEmployees  bool `db:"share_employees" json:"share_employees"`
}
