package dom

import "golang.org/x/net/html"

// precedes reports whether a comes before b in tree order.
// Nodes in different trees never precede each other.
func precedes(a, b *html.Node) bool {
	if a == b {
		return false
	}
	if IsInclusiveAncestor(a, b) {
		return true
	}
	if IsInclusiveAncestor(b, a) {
		return false
	}
	ancA, ancB := ancestry(a), ancestry(b)
	if ancA[0] != ancB[0] {
		return false
	}
	i := 0
	for i < len(ancA) && i < len(ancB) && ancA[i] == ancB[i] {
		i++
	}
	for s := ancA[i].NextSibling; s != nil; s = s.NextSibling {
		if s == ancB[i] {
			return true
		}
	}
	return false
}

// ancestry returns the inclusive ancestors of n, root first.
func ancestry(n *html.Node) []*html.Node {
	var chain []*html.Node
	for ; n != nil; n = n.Parent {
		chain = append(chain, n)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// comparePoints returns -1, 0 or 1 as a is before, equal to or after b.
// Both points must belong to the same tree.
func comparePoints(a, b Point) int {
	if a.Node == b.Node {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	}
	if precedes(b.Node, a.Node) {
		return -comparePoints(b, a)
	}
	if IsInclusiveAncestor(a.Node, b.Node) {
		child := b.Node
		for child.Parent != a.Node {
			child = child.Parent
		}
		if Index(child) < a.Offset {
			return 1
		}
	}
	return -1
}
