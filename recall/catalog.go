package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// Catalog 是全量目录召回源：按目录顺序产出每个商品一个候选 Item。
// 小规模目录下全量召回 + 精排是最简单可靠的链路；
// 目录顺序稳定，保证同分商品的最终排序可复现。
// Catalog 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Catalog struct {
	Catalog core.Catalog
}

func (r *Catalog) Name() string        { return "recall.catalog" }
func (r *Catalog) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall。
func (r *Catalog) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
func (r *Catalog) Recall(
	_ context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Catalog == nil {
		return nil, nil
	}

	products := r.Catalog.Products()
	out := make([]*core.Item, 0, len(products))
	for _, p := range products {
		it := core.NewItem(p.ID)
		it.Meta["brand"] = p.Brand
		it.Meta["category"] = p.Category
		it.Meta["subcategory"] = p.Subcategory
		it.Meta["price"] = p.Price
		it.PutLabel("recall_source", utils.Label{Value: "catalog", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

var _ Source = (*Catalog)(nil)
var _ pipeline.Node = (*Catalog)(nil)
