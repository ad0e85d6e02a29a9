package route

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/cdss/cdss-web/internal/core/menu"
	"github.com/cdss/cdss-web/internal/core/role"
)

func testTree() *menu.Tree {
	return &menu.Tree{Roots: []*menu.Node{
		{ID: "DASHBOARD", Path: "/dashboard", DefaultLabel: "Dashboard"},
		{ID: "PATIENT", DefaultLabel: "Patients", Children: []*menu.Node{
			{ID: "PATIENT_LIST", Path: "/patients", DefaultLabel: "Patient Management"},
			{ID: "PATIENT_DETAIL", Path: "/patients/:patientId", BreadcrumbOnly: true, DefaultLabel: "Patient Detail"},
		}},
		{ID: "ADMIN", DefaultLabel: "Administration", Children: []*menu.Node{
			{ID: "ADMIN_USER", Path: "/admin/users", DefaultLabel: "User Management"},
		}},
	}}
}

func testRegistry() map[string]string {
	return map[string]string{
		"DASHBOARD":      "DashboardPage",
		"PATIENT_LIST":   "PatientListPage",
		"PATIENT_DETAIL": "PatientDetailPage",
		"ADMIN_USER":     "UserManagementPage",
	}
}

func newTestResolver(granted ...string) (*Resolver, *menu.Store) {
	store := menu.NewStore()
	store.Replace(testTree(), granted)
	return NewResolver(store, testRegistry(), zerolog.Nop()), store
}

func entryIDs(entries []Entry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestBuildAccessibleList_LeavesOnly(t *testing.T) {
	all := func(*menu.Node) bool { return true }
	nodes := BuildAccessibleList(testTree(), all)

	for _, n := range nodes {
		if n.IsGroup() {
			t.Errorf("group %q in accessible list", n.ID)
		}
		if n.BreadcrumbOnly {
			t.Errorf("breadcrumb-only node %q in accessible list", n.ID)
		}
	}
	if len(nodes) != 3 {
		t.Errorf("got %d nodes, want 3", len(nodes))
	}
}

func TestAccessibleList_GrantedOnly(t *testing.T) {
	r, _ := newTestResolver("PATIENT_LIST")

	entries := r.AccessibleList(role.Nurse)
	if len(entries) != 1 || entries[0].ID != "PATIENT_LIST" {
		t.Fatalf("entries = %v", entryIDs(entries))
	}
	e := entries[0]
	if e.Path != "/patients" || e.Component != "PatientListPage" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.Label != "Patient Management" {
		t.Errorf("label = %q", e.Label)
	}
}

func TestAccessibleList_SystemManagerBypass(t *testing.T) {
	// System manager sees every routable leaf regardless of the grant set,
	// but breadcrumb-only leaves stay excluded.
	r, _ := newTestResolver() // empty grant set

	entries := r.AccessibleList(role.SystemManager)
	got := entryIDs(entries)
	want := []string{"DASHBOARD", "PATIENT_LIST", "ADMIN_USER"}
	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entries = %v, want %v", got, want)
		}
	}
}

func TestAccessibleList_SkipsUnregisteredIDs(t *testing.T) {
	store := menu.NewStore()
	store.Replace(testTree(), []string{"DASHBOARD", "PATIENT_LIST"})
	registry := map[string]string{"DASHBOARD": "DashboardPage"} // PATIENT_LIST missing
	r := NewResolver(store, registry, zerolog.Nop())

	entries := r.AccessibleList(role.Doctor)
	if len(entries) != 1 || entries[0].ID != "DASHBOARD" {
		t.Errorf("entries = %v, want only DASHBOARD", entryIDs(entries))
	}
}

func TestAccessibleList_RecomputedAfterReplace(t *testing.T) {
	r, store := newTestResolver("DASHBOARD")

	first := r.AccessibleList(role.Doctor)
	if len(first) != 1 || first[0].ID != "DASHBOARD" {
		t.Fatalf("entries = %v", entryIDs(first))
	}

	store.Replace(testTree(), []string{"ADMIN_USER"})
	second := r.AccessibleList(role.Doctor)
	if len(second) != 1 || second[0].ID != "ADMIN_USER" {
		t.Errorf("entries after replace = %v, want ADMIN_USER", entryIDs(second))
	}
}

func TestHomePath(t *testing.T) {
	r, _ := newTestResolver("ADMIN_USER")

	home, ok := r.HomePath(role.Admin)
	if !ok || home != "/admin/users" {
		t.Errorf("HomePath = %q/%v, want /admin/users", home, ok)
	}
}

func TestHomePath_NoAccessibleNode(t *testing.T) {
	r, _ := newTestResolver("PATIENT_DETAIL") // breadcrumb-only: not a home

	if home, ok := r.HomePath(role.Doctor); ok {
		t.Errorf("expected no home, got %q", home)
	}
}

func TestHomePath_SystemManagerBypass(t *testing.T) {
	r, _ := newTestResolver() // nothing granted

	home, ok := r.HomePath(role.SystemManager)
	if !ok || home != "/dashboard" {
		t.Errorf("HomePath = %q/%v, want /dashboard", home, ok)
	}
}
