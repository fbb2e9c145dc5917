package expr

import (
	"github.com/rakunlabs/filterx/internal/filterx/eval"
	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// controlFlow is the shared shape of break/done/drop: set the eval
// control modifier and return boolean true; no children (spec.md §4.11).
type controlFlow struct {
	Base
	NoChildren
	modifier eval.Control
}

func (n *controlFlow) Optimize() Node { return n }

func (n *controlFlow) Eval(ctx *eval.Context) (*object.Value, error) {
	ctx.SetControl(n.modifier)
	return object.NewBoolean(true), nil
}

// Break exits only the immediately enclosing compound.
type Break struct{ controlFlow }

func NewBreak(loc eval.Location) *Break {
	n := &Break{controlFlow{modifier: eval.ControlBreak}}
	n.loc = loc
	return n
}

// Done accepts the message and short-circuits downstream filterx blocks.
type Done struct{ controlFlow }

func NewDone(loc eval.Location) *Done {
	n := &Done{controlFlow{modifier: eval.ControlDone}}
	n.loc = loc
	return n
}

// Drop marks the message for dropping.
type Drop struct{ controlFlow }

func NewDrop(loc eval.Location) *Drop {
	n := &Drop{controlFlow{modifier: eval.ControlDrop}}
	n.loc = loc
	return n
}
