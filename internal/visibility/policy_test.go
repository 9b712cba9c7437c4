package visibility

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func branch(id string, mode model.IsolationMode, flags model.SharingFlags) *model.Branch {
	return &model.Branch{
		BaseModel:         model.BaseModel{ID: id},
		Name:              id,
		IsActive:          true,
		DataIsolationMode: mode,
		SharingFlags:      flags,
	}
}

func ptr(s string) *string { return &s }

func TestDecide(t *testing.T) {
	isolated := branch("iso", model.IsolationIsolated, model.SharingFlags{})
	shared := branch("shr", model.IsolationShared, model.SharingFlags{})
	hybridInv := branch("hyb-inv", model.IsolationHybrid, model.SharingFlags{ShareInventory: true})
	hybridNone := branch("hyb-none", model.IsolationHybrid, model.SharingFlags{ShareProducts: true})
	inactive := branch("off", model.IsolationShared, model.SharingFlags{})
	inactive.IsActive = false

	cases := []struct {
		name       string
		kind       EntityKind
		owner      *string
		shared     bool
		requesting *model.Branch
		owning     *model.Branch
		want       bool
	}{
		{"own record", Inventory, ptr("iso"), false, isolated, isolated, true},
		{"global record", Products, nil, false, isolated, nil, true},
		{"explicitly shared", Inventory, ptr("iso"), true, shared, isolated, true},
		{"isolated owner hides from shared requester", Inventory, ptr("iso"), false, shared, isolated, false},
		{"isolated requester sees nothing foreign", Inventory, ptr("shr"), false, isolated, shared, false},
		{"shared to shared", Inventory, ptr("shr"), false, branch("shr2", model.IsolationShared, model.SharingFlags{}), shared, true},
		{"hybrid with flag to shared", Inventory, ptr("shr"), false, hybridInv, shared, true},
		{"hybrid without flag", Inventory, ptr("shr"), false, hybridNone, shared, false},
		{"hybrid flag is per kind", Products, ptr("hyb-none"), false, hybridInv, hybridNone, false},
		{"hybrid both flags", Products, ptr("hyb-none"), false, branch("h2", model.IsolationHybrid, model.SharingFlags{ShareProducts: true}), hybridNone, true},
		{"unknown owner branch", Inventory, ptr("gone"), false, shared, nil, false},
		{"inactive requester sees nothing", Products, nil, true, inactive, nil, false},
		{"unknown requester sees nothing", Products, nil, true, nil, nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(tc.kind, tc.owner, tc.shared, tc.requesting, tc.owning))
		})
	}
}

func TestSharedEntityVisibleFromEveryActiveBranchAndIsolatedOnlyFromOwner(t *testing.T) {
	branches := []*model.Branch{
		branch("a", model.IsolationIsolated, model.SharingFlags{}),
		branch("b", model.IsolationShared, model.SharingFlags{}),
		branch("c", model.IsolationHybrid, model.SharingFlags{ShareInventory: true}),
		branch("d", model.IsolationHybrid, model.SharingFlags{}),
	}
	owner := branches[0]

	for _, req := range branches {
		assert.True(t, Decide(Inventory, &owner.ID, true, req, owner), "shared entity from %s", req.ID)
		assert.Equal(t, req.ID == owner.ID, Decide(Inventory, &owner.ID, false, req, owner), "isolated entity from %s", req.ID)
	}
}

type stubBranches struct {
	byID    map[string]*model.Branch
	lookups int
}

func (s *stubBranches) Lookup(_ context.Context, id string) (*model.Branch, error) {
	s.lookups++
	return s.byID[id], nil
}

func TestFilterLooksUpEachOwnerOnce(t *testing.T) {
	stub := &stubBranches{byID: map[string]*model.Branch{
		"a": branch("a", model.IsolationShared, model.SharingFlags{}),
		"b": branch("b", model.IsolationShared, model.SharingFlags{}),
		"c": branch("c", model.IsolationIsolated, model.SharingFlags{}),
	}}
	r := NewResolver(stub)

	variants := []model.Variant{
		{BaseModel: model.BaseModel{ID: "1"}, BranchID: "a"},
		{BaseModel: model.BaseModel{ID: "2"}, BranchID: "b"},
		{BaseModel: model.BaseModel{ID: "3"}, BranchID: "b"},
		{BaseModel: model.BaseModel{ID: "4"}, BranchID: "c"},
		{BaseModel: model.BaseModel{ID: "5"}, BranchID: "c", IsShared: true},
	}

	got, err := Filter(context.Background(), r, Inventory, variants, "a")
	require.NoError(t, err)

	ids := []string{}
	for _, v := range got {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{"1", "2", "3", "5"}, ids)
	// requesting branch + owners b and c
	assert.Equal(t, 3, stub.lookups)
}

func TestCheckReturnsEntityNotVisible(t *testing.T) {
	stub := &stubBranches{byID: map[string]*model.Branch{
		"a": branch("a", model.IsolationIsolated, model.SharingFlags{}),
		"b": branch("b", model.IsolationIsolated, model.SharingFlags{}),
	}}
	r := NewResolver(stub)

	p := model.Product{BaseModel: model.BaseModel{ID: "p1"}, BranchID: ptr("b")}
	err := r.Check(context.Background(), Products, p.ID, p, "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entity_not_visible")

	assert.NoError(t, r.Check(context.Background(), Products, p.ID, p, "b"))
}
