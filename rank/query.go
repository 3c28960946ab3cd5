package rank

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// 搜索场景的混合权重：文本相似度为主，类目偏好辅助。
const (
	blendText       = 0.7
	blendPreference = 0.3
)

// TextIndex 是已拟合的文本索引视图：按目录顺序返回每个商品
// 对查询词的相似度。由 textindex.Index 实现。
type TextIndex interface {
	Query(text string) []float64
}

// QueryNode 是查询条件排序节点：
//
//  1. 文本相似度：查询词与每个商品语料（品牌+类目+子类目）的
//     TF-IDF 余弦
//  2. 偏好分：商品所属 (类目, 子类目) 的偏好分之和，除以全体商品
//     的最大偏好分归一（最大值为 0 时整列保持 0）
//  3. 综合分 = 0.7*文本相似度 + 0.3*归一化偏好分
//
// 查询词完全不在词表时文本相似度全零，排序退化为纯偏好排序。
// 事件存储读取失败时降级为空（记日志）。
// 写入 labels：rank_model；文本相似度写入 Meta["similarity"]。
type QueryNode struct {
	Catalog core.Catalog
	Index   TextIndex
	Events  core.EventStore
	Log     zerolog.Logger
}

func (n *QueryNode) Name() string        { return "rank.query" }
func (n *QueryNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *QueryNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Catalog == nil || len(items) == 0 {
		return items, nil
	}

	textSim := n.textSimilarity(rctx.Query)
	prefScore := n.preferenceScore(ctx, rctx.CustomerID)

	for _, it := range items {
		if it == nil {
			continue
		}
		p, ok := n.Catalog.ProductByID(it.ID)
		if !ok {
			continue
		}

		sim := textSim[it.ID]
		it.Score = blendText*sim + blendPreference*prefScore[it.ID]
		it.Meta["similarity"] = sim
		it.Meta["brand"] = p.Brand
		it.Meta["category"] = p.Category
		it.Meta["subcategory"] = p.Subcategory
		it.PutLabel("rank_model", utils.Label{Value: n.Name(), Source: "rank"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}

// textSimilarity 按商品 ID 索引的文本相似度；索引未配置时全零。
func (n *QueryNode) textSimilarity(query string) map[string]float64 {
	out := make(map[string]float64)
	if n.Index == nil {
		return out
	}
	sims := n.Index.Query(query)
	products := n.Catalog.Products()
	for i, p := range products {
		if i >= len(sims) {
			break
		}
		out[p.ID] = sims[i]
	}
	return out
}

// preferenceScore 按商品 ID 索引的归一化偏好分。
// 商品的偏好分 = 其 (类目, 子类目) 命中的偏好分之和；
// 除以全体商品的最大偏好分归一，最大值为 0 时整列保持 0。
func (n *QueryNode) preferenceScore(ctx context.Context, customerID string) map[string]float64 {
	out := make(map[string]float64)
	if n.Events == nil {
		return out
	}
	prefs, err := n.Events.Preferences(ctx, customerID)
	if err != nil {
		n.Log.Warn().Err(err).
			Str("customer_id", customerID).
			Msg("preferences read failed, degrading to empty")
		return out
	}
	if len(prefs) == 0 {
		return out
	}

	byGroup := make(map[[2]string]float64, len(prefs))
	for _, pe := range prefs {
		byGroup[[2]string{pe.Category, pe.Subcategory}] += pe.Score
	}

	var max float64
	for _, p := range n.Catalog.Products() {
		score := byGroup[[2]string{p.Category, p.Subcategory}]
		out[p.ID] = score
		if score > max {
			max = score
		}
	}
	if max == 0 {
		return map[string]float64{}
	}
	for id := range out {
		out[id] /= max
	}
	return out
}

var _ pipeline.Node = (*QueryNode)(nil)
