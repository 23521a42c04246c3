package project

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Glob returns the nodes whose path matches a doublestar pattern such as
// "src/**/*.js". An invalid pattern matches nothing.
func (t *Tree) Glob(pattern string) []*Node {
	if !doublestar.ValidatePattern(pattern) {
		return nil
	}

	var matches []*Node
	t.walkPaths(t.root, "", func(n *Node, path string) {
		if ok, _ := doublestar.Match(pattern, path); ok {
			matches = append(matches, n)
		}
	})
	return matches
}

// Filter returns the nodes whose name contains query, ignoring case
func (t *Tree) Filter(query string) []*Node {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var matches []*Node
	t.Walk(func(n *Node) bool {
		if !n.IsRoot() && strings.Contains(strings.ToLower(n.name), q) {
			matches = append(matches, n)
		}
		return true
	})
	return matches
}

func (t *Tree) walkPaths(n *Node, prefix string, fn func(n *Node, path string)) {
	for _, c := range n.children {
		p := c.name
		if prefix != "" {
			p = prefix + "/" + c.name
		}
		fn(c, p)
		t.walkPaths(c, p, fn)
	}
}
