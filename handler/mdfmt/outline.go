package mdfmt

import (
	"github.com/signadot/tony-format/treedoc/ir"
)

// outline nests scanned items under their headings.
func outline(items []*item) *ir.Node {
	hasHeading := false
	for _, it := range items {
		if it.heading {
			hasHeading = true
			break
		}
	}
	if !hasHeading {
		return single(items)
	}
	root := ir.NewDocument().WithTag(ir.MarkdownDocument)
	var stack []*ir.Node
	for _, it := range items {
		var n *ir.Node
		if it.heading {
			n = ir.NewHeading(it.level, it.title)
			n.Setext = it.setext
			for len(stack) > 0 && stack[len(stack)-1].Level >= it.level {
				stack = stack[:len(stack)-1]
			}
		} else {
			n = ir.NewContent(it.block, it.text())
		}
		parent := root
		if len(stack) > 0 {
			parent = stack[len(stack)-1]
		}
		n.Parent = parent
		n.ParentIndex = len(parent.Values)
		parent.Values = append(parent.Values, n)
		if it.heading {
			stack = append(stack, n)
		}
	}
	return root
}

func single(items []*item) *ir.Node {
	if len(items) == 1 {
		return ir.NewContent(items[0].block, items[0].text())
	}
	text := ""
	for i, it := range items {
		if i > 0 {
			text += "\n\n"
		}
		text += it.text()
	}
	return ir.NewContent(BlockDocument, text)
}
