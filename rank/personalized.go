package rank

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// 交互行为的累积权重：点击强于浏览。
const (
	clickWeight = 1.0
	viewWeight  = 0.5
)

// 最终分的混合权重：相似度为主，三项质量特征均分其余。
const (
	blendSimilarity = 0.4
	blendRating     = 0.2
	blendSentiment  = 0.2
	blendRecProb    = 0.2
)

// popularityBoostMax 是热度加成的上限系数（满点击商品乘 1.2）。
const popularityBoostMax = 0.2

// PersonalizedNode 是个性化排序节点，融合四路信号产出最终分：
//
//  1. 客户向量 = 冷启动先验与交互偏好向量的平均：
//     偏好向量由历史交互（点击 1.0 / 浏览 0.5 × 次数）的商品向量
//     与 (类目, 子类目) 偏好分加权的组均值向量累积而成，
//     非零时先做 L2 归一化再与先验取均值
//  2. 相似度 = 客户向量与商品向量的余弦；客户向量为零时
//     统一取 1.0（冷启动退化为纯质量排序）
//  3. 热度加成：similarity *= 1 + 0.2 * clicks / maxClicks
//  4. 最终分 = 0.4*相似度 + 0.2*评分 + 0.2*情感 + 0.2*推荐概率，
//     裁剪到 [0,1]
//
// 事件存储读取失败时降级为空（记日志），链路不中断；
// 排序使用稳定排序，同分保持召回（目录）顺序。
// 写入 labels：rank_model；相似度写入 Meta["similarity"]。
type PersonalizedNode struct {
	Catalog core.Catalog
	Events  core.EventStore

	// Prior 返回客户的冷启动先验（可接远端特征库）；为 nil 时退化为
	// Catalog.CustomerPrior。
	Prior func(ctx context.Context, customerID string) (core.Vector, bool)

	Log zerolog.Logger
}

func (n *PersonalizedNode) Name() string        { return "rank.personalized" }
func (n *PersonalizedNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *PersonalizedNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Catalog == nil || len(items) == 0 {
		return items, nil
	}

	customer := n.customerVector(ctx, rctx.CustomerID)
	boost := n.popularityBoost(ctx)

	for _, it := range items {
		if it == nil {
			continue
		}
		p, ok := n.Catalog.ProductByID(it.ID)
		if !ok {
			continue
		}
		vec, _ := n.Catalog.ProductVector(it.ID)

		sim := 1.0
		if !customer.IsZero() {
			sim = customer.Cosine(vec)
		}
		if b, ok := boost[it.ID]; ok {
			sim *= b
		}

		score := blendSimilarity*sim +
			blendRating*vec[core.FeatureRating] +
			blendSentiment*vec[core.FeatureSentiment] +
			blendRecProb*vec[core.FeatureRecProbability]

		it.Score = core.Clip01(score)
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

// customerVector 构建客户向量：先验与交互偏好向量的平均。
func (n *PersonalizedNode) customerVector(ctx context.Context, customerID string) core.Vector {
	prior := n.prior(ctx, customerID)

	var pref core.Vector
	for _, ic := range n.interactions(ctx, customerID) {
		vec, ok := n.Catalog.ProductVector(ic.ProductID)
		if !ok {
			continue
		}
		w := viewWeight
		if ic.Kind == core.InteractionClick {
			w = clickWeight
		}
		pref = pref.AddScaled(vec, w*float64(ic.Count))
	}
	for _, pe := range n.preferences(ctx, customerID) {
		mean, ok := n.Catalog.GroupMean(pe.Category, pe.Subcategory)
		if !ok {
			continue
		}
		pref = pref.AddScaled(mean, pe.Score)
	}

	if pref.IsZero() {
		return prior
	}
	return pref.Normalize().Add(prior).Scale(0.5)
}

func (n *PersonalizedNode) prior(ctx context.Context, customerID string) core.Vector {
	if n.Prior != nil {
		v, _ := n.Prior(ctx, customerID)
		return v
	}
	v, _ := n.Catalog.CustomerPrior(customerID)
	return v
}

func (n *PersonalizedNode) interactions(ctx context.Context, customerID string) []core.InteractionCount {
	if n.Events == nil {
		return nil
	}
	out, err := n.Events.Interactions(ctx, customerID)
	if err != nil {
		n.Log.Warn().Err(err).
			Str("customer_id", customerID).
			Msg("interactions read failed, degrading to empty")
		return nil
	}
	return out
}

func (n *PersonalizedNode) preferences(ctx context.Context, customerID string) []core.PreferenceEntry {
	if n.Events == nil {
		return nil
	}
	out, err := n.Events.Preferences(ctx, customerID)
	if err != nil {
		n.Log.Warn().Err(err).
			Str("customer_id", customerID).
			Msg("preferences read failed, degrading to empty")
		return nil
	}
	return out
}

// popularityBoost 按点击量计算每个商品的相似度加成系数。
// maxClicks 下限为 1，避免除零；无热度数据时返回空 map（加成为 1.0）。
func (n *PersonalizedNode) popularityBoost(ctx context.Context) map[string]float64 {
	if n.Events == nil {
		return nil
	}
	all, err := n.Events.PopularityAll(ctx)
	if err != nil {
		n.Log.Warn().Err(err).Msg("popularity read failed, degrading to empty")
		return nil
	}
	if len(all) == 0 {
		return nil
	}

	var maxClicks int64 = 1
	for _, pop := range all {
		if pop.Clicks > maxClicks {
			maxClicks = pop.Clicks
		}
	}

	boost := make(map[string]float64, len(all))
	for id, pop := range all {
		boost[id] = 1 + popularityBoostMax*float64(pop.Clicks)/float64(maxClicks)
	}
	return boost
}

var _ pipeline.Node = (*PersonalizedNode)(nil)
