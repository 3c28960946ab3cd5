package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉黑名单中的商品。
// 用于临时下架、合规屏蔽等运营场景。
type BlacklistFilter struct {
	// ProductIDs 是黑名单商品 ID 列表
	ProductIDs []string

	ids map[string]struct{}
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(productIDs []string) *BlacklistFilter {
	ids := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		ids[id] = struct{}{}
	}
	return &BlacklistFilter{ProductIDs: productIDs, ids: ids}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.ids != nil {
		_, ok := f.ids[item.ID]
		return ok, nil
	}
	for _, id := range f.ProductIDs {
		if item.ID == id {
			return true, nil
		}
	}
	return false, nil
}

var _ Filter = (*BlacklistFilter)(nil)
