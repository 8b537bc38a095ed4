package ir

// Truth reports the truthiness of a node: empty containers and text, zero
// numbers, false and null are false.
func Truth(node *Node) bool {
	if node == nil {
		return false
	}
	switch node.Type {
	case ObjectType, ArrayType, DocumentType, ElementType, HeadingType:
		return len(node.Values) != 0
	case StringType, TextType, CDataType, ContentType:
		return node.String != ""
	case NumberType:
		if node.Int64 != nil {
			return *node.Int64 != 0
		}
		if node.Float64 != nil {
			return *node.Float64 != 0.0
		}
		return node.Number != "" && node.Number != "0"
	case BoolType:
		return node.Bool
	default:
		return false
	}
}
