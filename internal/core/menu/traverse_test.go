package menu

import (
	"reflect"
	"testing"
)

func fixtureTree() *Tree {
	return &Tree{Roots: []*Node{
		{ID: "A", Path: "/a"},
		{ID: "B", Children: []*Node{
			{ID: "B1", Path: "/b1"},
			{ID: "B2", Path: "/b2"},
		}},
		{ID: "C", Path: "/c"},
	}}
}

func visitedIDs(t *Tree, order func(n *Node) WalkOrder) []string {
	var ids []string
	Walk(t, func(n *Node) WalkOrder {
		ids = append(ids, n.ID)
		return order(n)
	})
	return ids
}

func TestWalk_DepthFirstLeftToRight(t *testing.T) {
	got := visitedIDs(fixtureTree(), func(*Node) WalkOrder { return Continue })
	want := []string{"A", "B", "B1", "B2", "C"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("visit order = %v, want %v", got, want)
	}
}

func TestWalk_SkipChildren(t *testing.T) {
	got := visitedIDs(fixtureTree(), func(n *Node) WalkOrder {
		if n.ID == "B" {
			return SkipChildren
		}
		return Continue
	})
	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("visit order = %v, want %v", got, want)
	}
}

func TestWalk_Stop(t *testing.T) {
	got := visitedIDs(fixtureTree(), func(n *Node) WalkOrder {
		if n.ID == "B1" {
			return Stop
		}
		return Continue
	})
	want := []string{"A", "B", "B1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("visit order = %v, want %v", got, want)
	}
}

func TestWalk_NilTree(t *testing.T) {
	Walk(nil, func(*Node) WalkOrder {
		t.Fatal("visit called on nil tree")
		return Stop
	})
}

func TestFindFirst(t *testing.T) {
	n := FindFirst(fixtureTree(), func(n *Node) bool { return n.Path == "/b2" })
	if n == nil || n.ID != "B2" {
		t.Fatalf("FindFirst = %v, want B2", n)
	}
	if FindFirst(fixtureTree(), func(n *Node) bool { return false }) != nil {
		t.Error("expected nil when nothing matches")
	}
}

func TestFlatten(t *testing.T) {
	nodes := Flatten(fixtureTree())
	if len(nodes) != 5 {
		t.Fatalf("got %d nodes, want 5", len(nodes))
	}
	if nodes[2].ID != "B1" {
		t.Errorf("nodes[2] = %s, want B1", nodes[2].ID)
	}
}
