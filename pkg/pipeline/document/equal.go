package document

// Equal reports whether a and b are structurally equal. Array order matters, object key
// order does not, and numbers compare by value.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch av := a.(type) {
	case Null:
		return true
	case Bool:
		return av == b.(Bool)
	case String:
		return av == b.(String)
	case Number:
		return numbersEqual(av, b.(Number))
	case Array:
		bv := b.(Array)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Object:
		bv := b.(*Object)
		if av.Len() != bv.Len() {
			return false
		}
		for _, key := range av.Keys() {
			left, _ := av.Get(key)
			right, ok := bv.Get(key)
			if !ok || !Equal(left, right) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func numbersEqual(a, b Number) bool {
	if a == b {
		return true
	}
	af, aerr := a.Float64()
	bf, berr := b.Float64()
	if aerr != nil || berr != nil {
		return false
	}

	return af == bf
}
