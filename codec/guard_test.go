package codec

import (
	stderrors "errors"
	"reflect"
	"testing"

	gcerrors "github.com/wirebeam/graphcodec/errors"
)

func TestGuardEnterExit(t *testing.T) {
	g := recursionGuard{limit: 8}

	cycle, err := g.enter("a", identity{ptr: 1})
	if err != nil || cycle {
		t.Fatalf("enter(a) = (%v, %v), want clean push", cycle, err)
	}
	cycle, err = g.enter("b", identity{ptr: 2})
	if err != nil || cycle {
		t.Fatalf("enter(b) = (%v, %v), want clean push", cycle, err)
	}
	if g.depth() != 2 {
		t.Errorf("depth = %d, want 2", g.depth())
	}

	g.exit()
	if g.depth() != 1 {
		t.Errorf("depth after exit = %d, want 1", g.depth())
	}

	// identity 2 left the stack; re-entering it is a fresh descent
	cycle, err = g.enter("b2", identity{ptr: 2})
	if err != nil || cycle {
		t.Errorf("re-enter after exit = (%v, %v), want clean push", cycle, err)
	}
}

func TestGuardDetectsCycle(t *testing.T) {
	g := recursionGuard{limit: 8}
	g.enter("root", identity{ptr: 10})
	g.enter("child", identity{ptr: 20})

	cycle, err := g.enter("back", identity{ptr: 10})
	if err != nil {
		t.Fatalf("enter() error: %v", err)
	}
	if !cycle {
		t.Fatalf("repeated identity not reported as cycle")
	}
	// a severed edge pushes no frame
	if g.depth() != 2 {
		t.Errorf("depth after cycle = %d, want 2", g.depth())
	}
}

func TestGuardZeroIdentityNeverCycles(t *testing.T) {
	g := recursionGuard{limit: 8}
	for i := 0; i < 3; i++ {
		cycle, err := g.enter("v", identity{})
		if err != nil || cycle {
			t.Fatalf("enter #%d with zero identity = (%v, %v)", i, cycle, err)
		}
	}
}

func TestGuardDepthLimit(t *testing.T) {
	g := recursionGuard{limit: 2}
	g.enter("a", identity{ptr: 1})
	g.enter("b", identity{ptr: 2})

	_, err := g.enter("c", identity{ptr: 3})
	if !stderrors.Is(err, &gcerrors.Error{Phase: gcerrors.PhaseEncode, Kind: gcerrors.KindDepthExceeded}) {
		t.Fatalf("error = %v, want depth_exceeded", err)
	}
	var ce *gcerrors.Error
	if !stderrors.As(err, &ce) {
		t.Fatal("error is not a codec error")
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(ce.Path, want) {
		t.Errorf("path = %v, want %v", ce.Path, want)
	}
}

func TestGuardCycleAtDepthLimit(t *testing.T) {
	g := recursionGuard{limit: 2}
	g.enter("a", identity{ptr: 1})
	g.enter("b", identity{ptr: 2})

	// a back edge found exactly at the limit severs, it does not fail
	cycle, err := g.enter("back", identity{ptr: 1})
	if err != nil {
		t.Fatalf("enter() error: %v, want severed cycle", err)
	}
	if !cycle {
		t.Errorf("back edge at the depth limit not reported as cycle")
	}
}

func TestGuardSliceAliasIdentity(t *testing.T) {
	g := recursionGuard{limit: 8}
	backing := []any{1, 2, 3}

	g.enter("root", identityOf(reflect.ValueOf(backing)))
	if g.wouldCycle(identityOf(reflect.ValueOf(backing[:1]))) {
		t.Errorf("prefix of an in-progress slice reported as the same reference")
	}
	if !g.wouldCycle(identityOf(reflect.ValueOf(backing))) {
		t.Errorf("the slice itself not reported as on-stack")
	}
}

func TestGuardWouldCycle(t *testing.T) {
	g := recursionGuard{limit: 8}
	g.enter("root", identity{ptr: 10})

	if !g.wouldCycle(identity{ptr: 10}) {
		t.Errorf("wouldCycle(on-stack) = false")
	}
	if g.wouldCycle(identity{ptr: 11}) {
		t.Errorf("wouldCycle(fresh) = true")
	}
	if g.wouldCycle(identity{}) {
		t.Errorf("wouldCycle(0) = true, zero identity cannot cycle")
	}
	if g.depth() != 1 {
		t.Errorf("wouldCycle changed the stack")
	}
}

func TestGuardPathSkipsUnnamedFrames(t *testing.T) {
	g := recursionGuard{limit: 8}
	g.enter("", identity{ptr: 1}) // root
	g.enter("items", identity{ptr: 2})
	g.enter("[0]", identity{ptr: 3})

	if want := []string{"items", "[0]"}; !reflect.DeepEqual(g.path(), want) {
		t.Errorf("path = %v, want %v", g.path(), want)
	}
	if want := []string{"items", "[0]", "name"}; !reflect.DeepEqual(g.path("name"), want) {
		t.Errorf("path(pending) = %v, want %v", g.path("name"), want)
	}
}
