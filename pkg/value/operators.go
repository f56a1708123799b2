package value

import (
	"fmt"
	"math/big"
)

// OpError is returned when an operator cannot be applied to the given
// operand(s), either because the operator is undefined for their kind
// (UndefinedOperator) or because the operand values themselves are invalid
// for an otherwise well-typed application (InvalidOperand), per §7.
type OpError struct {
	// Undefined is true for an UndefinedOperator failure, false for an
	// InvalidOperand failure.
	Undefined bool
	msg       string
}

// Error implements the error interface.
func (e *OpError) Error() string { return e.msg }

func undefinedOperator(op string, operands ...Value) *OpError {
	kinds := make([]string, len(operands))
	for i, o := range operands {
		kinds[i] = o.Kind().String()
	}

	return &OpError{true, fmt.Sprintf("operator %q is not defined for operand type(s) %v", op, kinds)}
}

func invalidOperand(msg string) *OpError {
	return &OpError{false, msg}
}

// commutative operators for which the primitive-with-set elementwise lift
// is order-independent: swapping operands and re-applying the same
// operator yields the same result set.
var commutativeOps = map[string]bool{
	"+": true, "*": true, "==": true, "!=": true,
	"&": true, "|": true, "^": true,
	"&&": true, "||": true,
}

// BinaryOp evaluates l op r. It first attempts direct dispatch for the
// concrete (Kind(l), Kind(r)) pairing. When that combination has no direct
// definition and one operand is a Set whose element kind matches the
// other (scalar) operand's kind, it falls back to the elementwise lift of
// §4.2. The lift keeps the operands in their original (unswapped) order for
// every operator, so the scalar's *position* is preserved: p op {x, ...}
// yields {p op x, ...} and {x, ...} op p yields {x op p, ...}. That is what
// a non-commutative operator (notably `-`, `/`, `%`, `**`) needs, and for a
// commutative one it gives the same result as swapping the operands.
func BinaryOp(op string, l, r Value) (Value, error) {
	if v, err, handled := dispatchDirect(op, l, r); handled {
		return v, err
	}

	// Elementwise lift: primitive-with-set.
	if r.Kind() == KindSet {
		if set, ok := r.(Set); ok {
			return liftElementwise(op, l, set, true)
		}
	}

	if l.Kind() == KindSet {
		if set, ok := l.(Set); ok {
			return liftElementwise(op, r, set, false)
		}
	}

	return nil, undefinedOperator(op, l, r)
}

// dispatchDirect handles the operator table entries whose operand kinds
// match literally (Bool-Bool, Rat-Rat, Str-Str, Set-Set). handled is false
// if no direct entry exists for (op, l.Kind(), r.Kind()), signalling the
// caller should attempt the elementwise lift instead.
func dispatchDirect(op string, l, r Value) (v Value, err error, handled bool) {
	switch lv := l.(type) {
	case Bool:
		if rv, ok := r.(Bool); ok {
			v, err, handled = boolOp(op, lv, rv)
			return
		}
	case Rat:
		if rv, ok := r.(Rat); ok {
			v, err, handled = ratOp(op, lv, rv)
			return
		}
	case Str:
		if rv, ok := r.(Str); ok {
			v, err, handled = strOp(op, lv, rv)
			return
		}
	case Set:
		if rv, ok := r.(Set); ok {
			v, err, handled = setOp(op, lv, rv)
			return
		}
	}

	return nil, nil, false
}

func boolOp(op string, l, r Bool) (Value, error, bool) {
	switch op {
	case "&&":
		return Bool(bool(l) && bool(r)), nil, true
	case "||":
		return Bool(bool(l) || bool(r)), nil, true
	case "==":
		return Bool(l == r), nil, true
	case "!=":
		return Bool(l != r), nil, true
	default:
		return nil, undefinedOperator(op, l, r), true
	}
}

func ratOp(op string, l, r Rat) (Value, error, bool) {
	switch op {
	case "+":
		return Rat{new(big.Rat).Add(l.Rat, r.Rat)}, nil, true
	case "-":
		return Rat{new(big.Rat).Sub(l.Rat, r.Rat)}, nil, true
	case "*":
		return Rat{new(big.Rat).Mul(l.Rat, r.Rat)}, nil, true
	case "/":
		if r.Sign() == 0 {
			return nil, invalidOperand("division by zero"), true
		}

		return Rat{new(big.Rat).Quo(l.Rat, r.Rat)}, nil, true
	case "%":
		return ratMod(l, r)
	case "**":
		return ratPow(l, r)
	case "|", "^", "&":
		return ratBitwise(op, l, r)
	case "==":
		return Bool(l.Cmp(r.Rat) == 0), nil, true
	case "!=":
		return Bool(l.Cmp(r.Rat) != 0), nil, true
	case "<":
		return Bool(l.Cmp(r.Rat) < 0), nil, true
	case "<=":
		return Bool(l.Cmp(r.Rat) <= 0), nil, true
	case ">":
		return Bool(l.Cmp(r.Rat) > 0), nil, true
	case ">=":
		return Bool(l.Cmp(r.Rat) >= 0), nil, true
	default:
		return nil, undefinedOperator(op, l, r), true
	}
}

// ratMod implements % for rationals reduced to integers, matching Python's
// floor-modulo semantics used by the original implementation: the result
// always has the same sign as the divisor.
func ratMod(l, r Rat) (Value, error, bool) {
	if !l.IsInt() || !r.IsInt() {
		return nil, invalidOperand("the %% operator requires integral operands"), true
	}

	if r.Num().Sign() == 0 {
		return nil, invalidOperand("modulo by zero"), true
	}

	m := new(big.Int).Mod(l.Num(), r.Num())
	if m.Sign() != 0 && r.Num().Sign() < 0 {
		m.Add(m, r.Num())
	}

	return NewRatFromBigInt(m), nil, true
}

// ratPow implements ** for a rational base and an integral exponent; a
// fractional exponent is rejected since it may not have a rational result.
func ratPow(l, r Rat) (Value, error, bool) {
	if !r.IsInt() {
		return nil, invalidOperand("the ** operator requires an integral exponent"), true
	}

	exp := r.Num()
	if exp.Sign() < 0 {
		if l.Sign() == 0 {
			return nil, invalidOperand("division by zero"), true
		}

		base := new(big.Rat).Inv(l.Rat)
		result := ratIntPow(base, new(big.Int).Neg(exp))

		return Rat{result}, nil, true
	}

	return Rat{ratIntPow(l.Rat, exp)}, nil, true
}

func ratIntPow(base *big.Rat, exp *big.Int) *big.Rat {
	result := big.NewRat(1, 1)
	n := new(big.Int).Set(exp)
	b := new(big.Rat).Set(base)

	zero := big.NewInt(0)
	one := big.NewInt(1)
	two := big.NewInt(2)

	for n.Cmp(zero) > 0 {
		if new(big.Int).Mod(n, two).Cmp(one) == 0 {
			result.Mul(result, b)
		}

		b.Mul(b, b)
		n.Div(n, two)
	}

	return result
}

func ratBitwise(op string, l, r Rat) (Value, error, bool) {
	if !l.IsInt() || !r.IsInt() {
		return nil, invalidOperand(fmt.Sprintf("the %s operator requires integral operands", op)), true
	}

	var result big.Int

	switch op {
	case "|":
		result.Or(l.Num(), r.Num())
	case "^":
		result.Xor(l.Num(), r.Num())
	case "&":
		result.And(l.Num(), r.Num())
	}

	return NewRatFromBigInt(&result), nil, true
}

func strOp(op string, l, r Str) (Value, error, bool) {
	switch op {
	case "+":
		return Str(string(l) + string(r)), nil, true
	case "==":
		return Bool(l == r), nil, true
	case "!=":
		return Bool(l != r), nil, true
	default:
		return nil, undefinedOperator(op, l, r), true
	}
}

func setOp(op string, l, r Set) (Value, error, bool) {
	switch op {
	case "|", "&", "^":
		return setAlgebra(op, l, r)
	case "<", "<=", ">", ">=":
		return setCompare(op, l, r)
	case "==":
		return Bool(setEquals(l, r)), nil, true
	case "!=":
		return Bool(!setEquals(l, r)), nil, true
	default:
		return nil, undefinedOperator(op, l, r), true
	}
}

func setAlgebra(op string, l, r Set) (Value, error, bool) {
	if l.ElemKind() != r.ElemKind() {
		return nil, invalidOperand("set operands must share a common element type"), true
	}

	rset := map[string]Value{}
	for _, m := range r.members {
		rset[m.String()] = m
	}

	lset := map[string]bool{}

	var result []Value

	switch op {
	case "|":
		result = append(result, l.members...)

		for _, m := range r.members {
			if _, ok := lset[m.String()]; !ok {
				result = append(result, m)
			}
		}
	case "&":
		for _, m := range l.members {
			if _, ok := rset[m.String()]; ok {
				result = append(result, m)
			}
		}
	case "^":
		for _, m := range l.members {
			if _, ok := rset[m.String()]; !ok {
				result = append(result, m)
			}
		}

		for _, m := range r.members {
			found := false

			for _, lm := range l.members {
				if lm.String() == m.String() {
					found = true
					break
				}
			}

			if !found {
				result = append(result, m)
			}
		}
	}

	if len(result) == 0 {
		return nil, invalidOperand("set operation produced an empty set, which is not permitted"), true
	}

	set, err := NewSet(result...)
	if err != nil {
		return nil, invalidOperand(err.Error()), true
	}

	return set, nil, true
}

func setCompare(op string, l, r Set) (Value, error, bool) {
	lset := map[string]bool{}
	for _, m := range l.members {
		lset[m.String()] = true
	}

	rset := map[string]bool{}
	for _, m := range r.members {
		rset[m.String()] = true
	}

	subset := func(a, b map[string]bool) bool {
		for k := range a {
			if !b[k] {
				return false
			}
		}

		return true
	}

	switch op {
	case "<":
		return Bool(subset(lset, rset) && len(lset) < len(rset)), nil, true
	case "<=":
		return Bool(subset(lset, rset)), nil, true
	case ">":
		return Bool(subset(rset, lset) && len(rset) < len(lset)), nil, true
	case ">=":
		return Bool(subset(rset, lset)), nil, true
	default:
		return nil, undefinedOperator(op, l, r), true
	}
}

func setEquals(l, r Set) bool {
	if len(l.members) != len(r.members) {
		return false
	}

	rset := map[string]bool{}
	for _, m := range r.members {
		rset[m.String()] = true
	}

	for _, m := range l.members {
		if !rset[m.String()] {
			return false
		}
	}

	return true
}

// liftElementwise applies a primitive-with-set binary arithmetic operator
// elementwise, per §4.2. primitiveOnLeft indicates whether the scalar
// appeared on the left of the original expression (p op x) or the right
// (x op p).
func liftElementwise(op string, scalar Value, set Set, primitiveOnLeft bool) (Value, error) {
	if scalar.Kind() != set.ElemKind() {
		return nil, undefinedOperator(op, scalar, set)
	}

	members := make([]Value, 0, len(set.members))

	for _, m := range set.members {
		var (
			v   Value
			err error
		)

		if primitiveOnLeft {
			v, err, _ = dispatchScalarPair(op, scalar, m)
		} else {
			v, err, _ = dispatchScalarPair(op, m, scalar)
		}

		if err != nil {
			return nil, err
		}

		members = append(members, v)
	}

	out, err := NewSet(members...)
	if err != nil {
		return nil, invalidOperand(err.Error())
	}

	return out, nil
}

// dispatchScalarPair is dispatchDirect restricted to the case where both
// operands are now known to be the same non-Set kind (called once per
// element during an elementwise lift).
func dispatchScalarPair(op string, l, r Value) (Value, error, bool) {
	return dispatchDirect(op, l, r)
}

// UnaryOp evaluates a unary operator.
func UnaryOp(op string, v Value) (Value, error) {
	switch op {
	case "+":
		if r, ok := v.(Rat); ok {
			return r, nil
		}

		return nil, undefinedOperator(op, v)
	case "-":
		if r, ok := v.(Rat); ok {
			return Rat{new(big.Rat).Neg(r.Rat)}, nil
		}

		return nil, undefinedOperator(op, v)
	case "!":
		if b, ok := v.(Bool); ok {
			return Bool(!b), nil
		}

		return nil, undefinedOperator(op, v)
	default:
		return nil, undefinedOperator(op, v)
	}
}

// IsCommutative reports whether op is a commutative binary operator, used
// by callers that need to reason about the elementwise-lift fallback order
// independently of BinaryOp.
func IsCommutative(op string) bool {
	return commutativeOps[op]
}
