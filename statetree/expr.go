package statetree

import (
	"fmt"
	"math"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/milk9111/cameraman/common"
	"github.com/milk9111/cameraman/perception"
)

// ExprEnv is the environment visible to `expr` conditions, e.g.
//
//	Count("threat") >= 2 && context == "combat"
type ExprEnv struct {
	Context  string              `expr:"context"`
	Tick     uint64              `expr:"tick"`
	Self     common.Vec3         `expr:"self"`
	Params   map[string]float64  `expr:"params"`
	Entities []perception.Entity `expr:"entities"`

	snap perception.Snapshot
}

// Count returns the number of visible entities with tag.
func (e ExprEnv) Count(tag string) int {
	return e.snap.CountVisible(tag)
}

// Nearest returns the distance to the closest visible entity with tag, or
// +Inf when none is visible.
func (e ExprEnv) Nearest(tag string) float64 {
	if _, d, ok := e.snap.Nearest(tag); ok {
		return d
	}
	return math.Inf(1)
}

// Sees reports whether any visible entity carries tag.
func (e ExprEnv) Sees(tag string) bool {
	return e.snap.CountVisible(tag) > 0
}

func newExprEnv(ctx *EvalContext) ExprEnv {
	return ExprEnv{
		Context:  ctx.Context.String(),
		Tick:     ctx.Tick,
		Self:     ctx.Perception.Self,
		Params:   ctx.Params,
		Entities: ctx.Perception.Entities,
		snap:     ctx.Perception,
	}
}

// ExprCondition is a compiled expr-lang boolean expression. Programs are
// immutable, so one condition may be checked from many goroutines.
type ExprCondition struct {
	source  string
	program *vm.Program
}

// NewExprCondition compiles src against ExprEnv. Type errors surface here,
// at load time.
func NewExprCondition(src string) (*ExprCondition, error) {
	program, err := expr.Compile(src, expr.Env(ExprEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	return &ExprCondition{source: src, program: program}, nil
}

func (c *ExprCondition) Check(ctx *EvalContext) bool {
	out, err := expr.Run(c.program, newExprEnv(ctx))
	if err != nil {
		ctx.logger().Warn("statetree: expr condition failed", "agent", ctx.Agent, "expr", c.source, "error", err)
		return false
	}
	b, _ := out.(bool)
	return b
}

func (c *ExprCondition) String() string {
	return c.source
}
