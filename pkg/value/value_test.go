package value

import (
	"math/big"
	"testing"
)

func mustSet(t *testing.T, members ...Value) Set {
	t.Helper()

	s, err := NewSet(members...)
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}

	return s
}

func TestRatArithmeticIsExact(t *testing.T) {
	a := NewRatFromInt64(1)
	b := NewRatFromInt64(3)

	v, err := BinaryOp("/", a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := v.(Rat)
	if r.RatString() != "1/3" {
		t.Fatalf("expected exact 1/3, got %s", r.RatString())
	}
}

func TestRatDivisionByZero(t *testing.T) {
	_, err := BinaryOp("/", NewRatFromInt64(1), NewRatFromInt64(0))
	if err == nil {
		t.Fatalf("expected division-by-zero error")
	}
}

func TestRatAdditionCommutative(t *testing.T) {
	a := NewRatFromInt64(7)
	b := NewRatFromInt64(-3)

	ab, err := BinaryOp("+", a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ba, err := BinaryOp("+", b, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ab.(Rat).Cmp(ba.(Rat).Rat) != 0 {
		t.Fatalf("+ is not commutative: %v != %v", ab, ba)
	}
}

func TestBitwiseRequiresIntegral(t *testing.T) {
	half := Rat{big.NewRat(1, 2)}

	if _, err := BinaryOp("|", half, NewRatFromInt64(1)); err == nil {
		t.Fatalf("expected error for non-integral bitwise operand")
	}
}

func TestSetUnionIntersectionXor(t *testing.T) {
	a := mustSet(t, NewRatFromInt64(1), NewRatFromInt64(2), NewRatFromInt64(3))
	b := mustSet(t, NewRatFromInt64(3), NewRatFromInt64(4))

	union, err := BinaryOp("|", a, b)
	if err != nil {
		t.Fatalf("union failed: %v", err)
	}

	if len(union.(Set).Members()) != 4 {
		t.Fatalf("expected 4 members in union, got %d", len(union.(Set).Members()))
	}

	inter, err := BinaryOp("&", a, b)
	if err != nil {
		t.Fatalf("intersection failed: %v", err)
	}

	if len(inter.(Set).Members()) != 1 {
		t.Fatalf("expected 1 member in intersection, got %d", len(inter.(Set).Members()))
	}

	xor, err := BinaryOp("^", a, b)
	if err != nil {
		t.Fatalf("xor failed: %v", err)
	}

	if len(xor.(Set).Members()) != 3 {
		t.Fatalf("expected 3 members in xor, got %d", len(xor.(Set).Members()))
	}
}

func TestSetSubsetOperators(t *testing.T) {
	a := mustSet(t, NewRatFromInt64(1), NewRatFromInt64(2))
	b := mustSet(t, NewRatFromInt64(1), NewRatFromInt64(2), NewRatFromInt64(3))

	lt, err := BinaryOp("<", a, b)
	if err != nil || !bool(lt.(Bool)) {
		t.Fatalf("expected a < b (proper subset), got %v, %v", lt, err)
	}

	le, err := BinaryOp("<=", b, b)
	if err != nil || !bool(le.(Bool)) {
		t.Fatalf("expected b <= b, got %v, %v", le, err)
	}
}

func TestElementwisePrimitiveRight(t *testing.T) {
	s := mustSet(t, NewRatFromInt64(1), NewRatFromInt64(2), NewRatFromInt64(3))

	v, err := BinaryOp("*", s, NewRatFromInt64(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := v.(Set)
	if len(result.Members()) != 3 {
		t.Fatalf("expected 3 members, got %d", len(result.Members()))
	}
}

func TestElementwisePrimitiveLeftNonCommutative(t *testing.T) {
	s := mustSet(t, NewRatFromInt64(1), NewRatFromInt64(2))

	// 10 - {1, 2} = {9, 8}
	v, err := BinaryOp("-", NewRatFromInt64(10), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := map[string]bool{}
	for _, m := range v.(Set).Members() {
		got[m.String()] = true
	}

	if !got["9"] || !got["8"] {
		t.Fatalf("expected {9, 8}, got %v", v)
	}

	// {1, 2} - 10 = {-9, -8}
	v2, err := BinaryOp("-", s, NewRatFromInt64(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got2 := map[string]bool{}
	for _, m := range v2.(Set).Members() {
		got2[m.String()] = true
	}

	if !got2["-9"] || !got2["-8"] {
		t.Fatalf("expected {-9, -8}, got %v", v2)
	}
}

func TestSetMinMaxCount(t *testing.T) {
	s := mustSet(t, NewRatFromInt64(3), NewRatFromInt64(1), NewRatFromInt64(2))

	min, err := s.Min()
	if err != nil || min.(Rat).Cmp(NewRatFromInt64(1).Rat) != 0 {
		t.Fatalf("expected min 1, got %v, %v", min, err)
	}

	max, err := s.Max()
	if err != nil || max.(Rat).Cmp(NewRatFromInt64(3).Rat) != 0 {
		t.Fatalf("expected max 3, got %v, %v", max, err)
	}

	if s.Count().Cmp(NewRatFromInt64(3).Rat) != 0 {
		t.Fatalf("expected count 3, got %v", s.Count())
	}
}

func TestHeterogeneousSetRejected(t *testing.T) {
	_, err := NewSet(NewRatFromInt64(1), Bool(true))
	if err == nil {
		t.Fatalf("expected error constructing heterogeneous set")
	}
}
