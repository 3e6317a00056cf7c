package jsparse

import "github.com/tdewolff/parse/v2/js"

// Walk visits root depth-first. visit is called for every node enter
// accepts; traversal continues into all children either way.
func Walk(root js.INode, enter func(js.INode) bool, visit func(js.INode)) {
	js.Walk(&walker{enter: enter, visit: visit}, root)
}

type walker struct {
	enter func(js.INode) bool
	visit func(js.INode)
}

func (w *walker) Enter(n js.INode) js.IVisitor {
	if w.enter(n) {
		w.visit(n)
	}
	return w
}

func (w *walker) Exit(js.INode) {}
