package sparkframe

import (
	"errors"
	"testing"
)

func joinFixtures(t *testing.T) (*Frame, *Frame) {
	t.Helper()
	left := mustFrame(t,
		NewSeriesInt64("id", []int64{1, 2, 3}),
		NewSeriesString("name", []string{"ann", "bob", "cid"}),
	)
	right := mustFrame(t,
		NewSeriesInt64("id", []int64{1, 1, 4}),
		NewSeriesInt64("score", []int64{10, 20, 40}),
	)
	return left, right
}

func TestInnerJoin(t *testing.T) {
	left, right := joinFixtures(t)
	out, err := left.Join(right, []string{"id"}, JoinInner)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	assertCells(t, out, "id", []any{int64(1), int64(1)})
	assertCells(t, out, "name", []any{"ann", "ann"})
	assertCells(t, out, "score", []any{int64(10), int64(20)})
}

func TestLeftJoin(t *testing.T) {
	left, right := joinFixtures(t)
	out, err := left.Join(right, []string{"id"}, JoinLeft)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	assertCells(t, out, "id", []any{int64(1), int64(1), int64(2), int64(3)})
	assertCells(t, out, "score", []any{int64(10), int64(20), nil, nil})
}

func TestRightJoin(t *testing.T) {
	left, right := joinFixtures(t)
	out, err := left.Join(right, []string{"id"}, JoinRight)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	assertCells(t, out, "id", []any{int64(1), int64(1), int64(4)})
	assertCells(t, out, "name", []any{"ann", "ann", nil})
	assertCells(t, out, "score", []any{int64(10), int64(20), int64(40)})
}

func TestOuterJoin(t *testing.T) {
	left, right := joinFixtures(t)
	out, err := left.Join(right, []string{"id"}, JoinOuter)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if out.Height() != 5 {
		t.Fatalf("Height = %d, want 5", out.Height())
	}
	assertCells(t, out, "id", []any{int64(1), int64(1), int64(2), int64(3), int64(4)})
	assertCells(t, out, "name", []any{"ann", "ann", "bob", "cid", nil})
}

func TestCrossJoin(t *testing.T) {
	a := mustFrame(t, NewSeriesInt64("x", []int64{1, 2}))
	b := mustFrame(t, NewSeriesString("y", []string{"p", "q"}))
	out, err := a.CrossJoin(b)
	if err != nil {
		t.Fatalf("CrossJoin failed: %v", err)
	}
	assertCells(t, out, "x", []any{int64(1), int64(1), int64(2), int64(2)})
	assertCells(t, out, "y", []any{"p", "q", "p", "q"})
}

func TestSemiAndAntiJoins(t *testing.T) {
	left, right := joinFixtures(t)

	semi, err := left.Join(right, []string{"id"}, JoinLeftSemi)
	if err != nil {
		t.Fatalf("semi join failed: %v", err)
	}
	assertCells(t, semi, "id", []any{int64(1)})
	assertCells(t, semi, "name", []any{"ann"})

	anti, err := left.Join(right, []string{"id"}, JoinLeftAnti)
	if err != nil {
		t.Fatalf("anti join failed: %v", err)
	}
	assertCells(t, anti, "id", []any{int64(2), int64(3)})

	rightAnti, err := left.Join(right, []string{"id"}, JoinRightAnti)
	if err != nil {
		t.Fatalf("right anti join failed: %v", err)
	}
	assertCells(t, rightAnti, "id", []any{int64(4)})
	assertCells(t, rightAnti, "score", []any{int64(40)})
}

func TestJoinNonKeyCollision(t *testing.T) {
	a := mustFrame(t,
		NewSeriesInt64("id", []int64{1}),
		NewSeriesInt64("v", []int64{1}),
	)
	b := mustFrame(t,
		NewSeriesInt64("id", []int64{1}),
		NewSeriesInt64("v", []int64{2}),
	)
	if _, err := a.Join(b, []string{"id"}, JoinInner); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("err = %v, want ErrDuplicateName", err)
	}
}

func TestJoinUnknownMode(t *testing.T) {
	a := mustFrame(t, NewSeriesInt64("id", []int64{1}))
	if _, err := a.Join(a, []string{"id"}, JoinHow("sideways")); err == nil {
		t.Fatal("unknown join mode should fail")
	}
}

func TestUnionDropsDuplicates(t *testing.T) {
	a := mustFrame(t, NewSeriesInt64("v", []int64{1, 2}))
	b := mustFrame(t, NewSeriesInt64("v", []int64{2, 3}))
	out, err := a.Union(b)
	if err != nil {
		t.Fatalf("Union failed: %v", err)
	}
	assertCells(t, out, "v", []any{int64(1), int64(2), int64(3)})
}

func TestIntersect(t *testing.T) {
	a := mustFrame(t, NewSeriesInt64("v", []int64{1, 2, 2, 3}))
	b := mustFrame(t, NewSeriesInt64("v", []int64{2, 3, 4}))
	out, err := a.Intersect(b)
	if err != nil {
		t.Fatalf("Intersect failed: %v", err)
	}
	assertCells(t, out, "v", []any{int64(2), int64(3)})
}

func TestSubtract(t *testing.T) {
	a := mustFrame(t, NewSeriesInt64("v", []int64{1, 2, 3}))
	b := mustFrame(t, NewSeriesInt64("v", []int64{2}))
	out, err := a.Subtract(b)
	if err != nil {
		t.Fatalf("Subtract failed: %v", err)
	}
	assertCells(t, out, "v", []any{int64(1), int64(3)})
}
