package value

// Min reduces this set via the `<` operator, returning its least element.
// Returns an error if the set's element kind does not support `<` (Rat and
// Set elements do, per the operator table in operators.go).
func (s Set) Min() (Value, error) {
	return s.reduce(func(a, b Value) (Value, error) {
		lt, err := BinaryOp("<", a, b)
		if err != nil {
			return nil, err
		}

		if bool(lt.(Bool)) {
			return a, nil
		}

		return b, nil
	})
}

// Max reduces this set via the `<` operator, returning its greatest
// element.
func (s Set) Max() (Value, error) {
	return s.reduce(func(a, b Value) (Value, error) {
		lt, err := BinaryOp("<", a, b)
		if err != nil {
			return nil, err
		}

		if bool(lt.(Bool)) {
			return b, nil
		}

		return a, nil
	})
}

func (s Set) reduce(pick func(a, b Value) (Value, error)) (Value, error) {
	acc := s.members[0]

	for _, m := range s.members[1:] {
		next, err := pick(acc, m)
		if err != nil {
			return nil, err
		}

		acc = next
	}

	return acc, nil
}
