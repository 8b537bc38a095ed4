package ir

// Equal reports whether a and b are structurally equal: same kinds, names,
// scalar values, attributes, heading levels, block kinds and children in
// the same order. Style only metadata (setext headings, self closing
// elements) and parent links are ignored.
func Equal(a, b *Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Type != b.Type || a.Name != b.Name || a.Tag != b.Tag {
		return false
	}
	switch a.Type {
	case NumberType:
		if !numbersEqual(a, b) {
			return false
		}
	case BoolType:
		if a.Bool != b.Bool {
			return false
		}
	case HeadingType:
		if a.Level != b.Level {
			return false
		}
	case ContentType:
		if a.Block != b.Block || a.String != b.String {
			return false
		}
	default:
		if a.String != b.String {
			return false
		}
	}
	if len(a.Attrs) != len(b.Attrs) {
		return false
	}
	for i := range a.Attrs {
		if a.Attrs[i] != b.Attrs[i] {
			return false
		}
	}
	if len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		if !Equal(a.Values[i], b.Values[i]) {
			return false
		}
	}
	return true
}

func numbersEqual(a, b *Node) bool {
	switch {
	case a.Int64 != nil && b.Int64 != nil:
		return *a.Int64 == *b.Int64
	case a.Float64 != nil && b.Float64 != nil:
		return *a.Float64 == *b.Float64
	case a.Int64 != nil && b.Float64 != nil:
		return float64(*a.Int64) == *b.Float64
	case a.Float64 != nil && b.Int64 != nil:
		return *a.Float64 == float64(*b.Int64)
	}
	return a.Number == b.Number
}
