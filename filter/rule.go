package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/dsl"
)

// RuleFilter 是规则过滤器，用 CEL 表达式描述保留条件：
// 表达式为真的物品保留，为假的物品被过滤。
//
// 表达式可访问 item（id/score/meta/labels）、label（标签简写）、
// rctx（customer_id/query/scene/params），语法见 pkg/dsl。
//
// 示例：
//   - `item.score >= 0.2` → 只保留综合分不低于 0.2 的商品
//   - `item.meta.category != "Clothing"` → 按类目屏蔽
type RuleFilter struct {
	// Expr 是 CEL 保留条件表达式；为空时不过滤任何物品
	Expr string
}

func NewRuleFilter(expr string) *RuleFilter {
	return &RuleFilter{Expr: expr}
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.Expr == "" || item == nil {
		return false, nil
	}

	keep, err := dsl.NewEval(item, rctx).Evaluate(f.Expr)
	if err != nil {
		// 表达式错误时不误杀，保留物品
		return false, err
	}
	return !keep, nil
}

var _ Filter = (*RuleFilter)(nil)
