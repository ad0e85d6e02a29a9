package menu

import "testing"

// grantTree exercises leaf vs group semantics:
//
//	DASH (leaf /dashboard)
//	PATIENT (group)
//	  PATIENT_LIST (leaf /patients)
//	  PATIENT_DETAIL (leaf, breadcrumb-only)
//	ADMIN (group)
//	  ADMIN_USER (leaf /admin/users)
func grantTree() *Tree {
	return &Tree{Roots: []*Node{
		{ID: "DASH", Path: "/dashboard"},
		{ID: "PATIENT", Children: []*Node{
			{ID: "PATIENT_LIST", Path: "/patients"},
			{ID: "PATIENT_DETAIL", Path: "/patients/:patientId", BreadcrumbOnly: true},
		}},
		{ID: "ADMIN", Children: []*Node{
			{ID: "ADMIN_USER", Path: "/admin/users"},
		}},
	}}
}

func TestIsGranted_LeafMembership(t *testing.T) {
	s := NewStore()
	s.Replace(grantTree(), []string{"PATIENT_LIST"})

	if !s.IsGranted("PATIENT_LIST") {
		t.Error("granted leaf reported inaccessible")
	}
	if s.IsGranted("DASH") {
		t.Error("ungranted leaf reported accessible")
	}
	if s.IsGranted("NO_SUCH_NODE") {
		t.Error("unknown id reported accessible")
	}
}

func TestIsGranted_GroupIsOrOverDescendantLeaves(t *testing.T) {
	s := NewStore()
	s.Replace(grantTree(), []string{"PATIENT_DETAIL"})

	if !s.IsGranted("PATIENT") {
		t.Error("group with a granted descendant reported inaccessible")
	}
	if s.IsGranted("ADMIN") {
		t.Error("group with no granted descendants reported accessible")
	}
}

func TestIsGranted_GroupIDInGrantSetIsIgnored(t *testing.T) {
	// A group never carries an independent grant; only descendant leaves
	// count.
	s := NewStore()
	s.Replace(grantTree(), []string{"ADMIN"})

	if s.IsGranted("ADMIN") {
		t.Error("group granted by its own id; must be derived from leaves")
	}
}

func TestFindFirstAccessiblePath_FirstInDocumentOrder(t *testing.T) {
	s := NewStore()
	s.Replace(grantTree(), []string{"PATIENT_LIST", "ADMIN_USER"})

	path, ok := s.FindFirstAccessiblePath()
	if !ok {
		t.Fatal("expected an accessible path")
	}
	if path != "/patients" {
		t.Errorf("path = %q, want /patients (first granted leaf in order)", path)
	}
}

func TestFindFirstAccessiblePath_SkipsBreadcrumbOnly(t *testing.T) {
	s := NewStore()
	s.Replace(grantTree(), []string{"PATIENT_DETAIL", "ADMIN_USER"})

	path, ok := s.FindFirstAccessiblePath()
	if !ok {
		t.Fatal("expected an accessible path")
	}
	if path != "/admin/users" {
		t.Errorf("path = %q, want /admin/users (breadcrumb-only leaf skipped)", path)
	}
}

func TestFindFirstAccessiblePath_NoneAccessible(t *testing.T) {
	s := NewStore()
	s.Replace(grantTree(), []string{"PATIENT_DETAIL"})

	if path, ok := s.FindFirstAccessiblePath(); ok {
		t.Errorf("expected no path, got %q", path)
	}

	s.Replace(grantTree(), nil)
	if _, ok := s.FindFirstAccessiblePath(); ok {
		t.Error("expected no path with an empty grant set")
	}
}

func TestReplace_SwapsWholesaleAndBumpsGeneration(t *testing.T) {
	s := NewStore()
	gen0 := s.Generation()

	s.Replace(grantTree(), []string{"DASH"})
	if s.Generation() != gen0+1 {
		t.Error("Replace did not bump the generation")
	}
	if !s.IsGranted("DASH") {
		t.Fatal("grant lost after Replace")
	}

	// A second Replace fully supersedes the first grant set.
	s.Replace(grantTree(), []string{"ADMIN_USER"})
	if s.IsGranted("DASH") {
		t.Error("stale grant survived Replace")
	}
	if !s.IsGranted("ADMIN_USER") {
		t.Error("fresh grant missing after Replace")
	}
	if s.Generation() != gen0+2 {
		t.Error("generation not bumped on second Replace")
	}
}

func TestClear_EmptiesStore(t *testing.T) {
	s := NewStore()
	s.Replace(grantTree(), []string{"DASH"})
	s.Clear()

	if !s.Empty() {
		t.Error("store not empty after Clear")
	}
	if s.IsGranted("DASH") {
		t.Error("grant survived Clear")
	}
	if _, ok := s.FindFirstAccessiblePath(); ok {
		t.Error("path resolvable after Clear")
	}
}

func TestOnReplace_ObservesEveryPublish(t *testing.T) {
	s := NewStore()
	var published []*Tree
	s.OnReplace(func(tr *Tree) { published = append(published, tr) })

	tree := grantTree()
	s.Replace(tree, []string{"DASH"})
	s.Clear()

	if len(published) != 2 {
		t.Fatalf("callback fired %d times, want 2", len(published))
	}
	if published[0] != tree {
		t.Error("callback did not receive the published tree")
	}
	if published[1] != nil {
		t.Error("Clear should publish a nil tree")
	}
}

func TestGrantedIDs(t *testing.T) {
	s := NewStore()
	s.Replace(grantTree(), []string{"DASH", "ADMIN_USER"})

	ids := s.GrantedIDs()
	if len(ids) != 2 {
		t.Fatalf("got %d ids, want 2", len(ids))
	}
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen["DASH"] || !seen["ADMIN_USER"] {
		t.Errorf("unexpected grant set: %v", ids)
	}
}
