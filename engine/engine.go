package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/feature"
	"github.com/rushteam/shoprec/feedback"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/conv"
	"github.com/rushteam/shoprec/rank"
	"github.com/rushteam/shoprec/recall"
	"github.com/rushteam/shoprec/rerank"
	"github.com/rushteam/shoprec/textindex"
)

// DefaultTopN 是推荐/搜索结果的默认返回数量。
const DefaultTopN = 5

// viewBumpConcurrency 是结果曝光回写的并发上限。
const viewBumpConcurrency = 8

// Engine 是评分引擎：组装 Pipeline 并对外暴露推荐/搜索/反馈接口。
//
// 就绪策略：每个操作先检查特征快照是否已加载，未加载返回
// core.ErrNotReady，不做惰性初始化。
//
// 错误策略：除 ErrNotReady 与点击时的 NOT_FOUND 外，内部错误
// 一律降级——读降级为空结果，写记日志后丢弃，链路绝不因
// 基础设施故障而对调用方报错。
type Engine struct {
	features *feature.Store
	events   core.EventStore
	updater  *feedback.Updater
	log      zerolog.Logger

	topN        int
	filterRules []string
	step        float64

	// 文本索引与快照成对缓存：快照指针变化时按新语料重建，
	// 保证查询用的索引与打分用的特征来自同一份快照
	mu       sync.Mutex
	idxSnap  *feature.Snapshot
	idxCache *textindex.Index
}

// Option 是 Engine 的配置选项。
type Option func(*Engine)

// WithLogger 设置日志器（默认丢弃日志）。
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithTopN 设置默认返回数量（默认 DefaultTopN）。
func WithTopN(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.topN = n
		}
	}
}

// WithFilterRules 设置 CEL 保留规则，作用在排序之后（见 filter.RuleFilter）。
func WithFilterRules(exprs ...string) Option {
	return func(e *Engine) { e.filterRules = exprs }
}

// WithPreferenceStep 设置每次点击的偏好分增量（默认 core.DefaultPreferenceStep）。
func WithPreferenceStep(step float64) Option {
	return func(e *Engine) {
		if step > 0 {
			e.step = step
		}
	}
}

// New 创建评分引擎。
func New(features *feature.Store, events core.EventStore, opts ...Option) *Engine {
	e := &Engine{
		features: features,
		events:   events,
		log:      zerolog.Nop(),
		topN:     DefaultTopN,
		step:     core.DefaultPreferenceStep,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.updater = feedback.NewUpdater(
		func() core.Catalog {
			if snap := features.Snapshot(); snap != nil {
				return snap
			}
			return nil
		},
		events,
		feedback.WithLogger(e.log),
		feedback.WithStep(e.step),
	)
	return e
}

// Recommend 返回客户的个性化推荐 Top-N。
// 快照未加载返回 ErrNotReady；其余内部错误降级为空列表。
// 成功后异步回写每个结果商品的曝光热度。
func (e *Engine) Recommend(ctx context.Context, customerID string) ([]core.Recommendation, error) {
	snap := e.features.Snapshot()
	if snap == nil {
		return nil, core.ErrNotReady
	}

	p := &pipeline.Pipeline{
		Nodes: e.withCommonTail(snap, &rank.PersonalizedNode{
			Catalog: snap,
			Events:  e.events,
			Prior:   e.features.Prior,
			Log:     e.log,
		}),
	}

	rctx := &core.RecommendContext{CustomerID: customerID, Scene: "recommend"}
	return e.run(ctx, snap, p, rctx)
}

// Search 返回查询词下的搜索结果 Top-N。
// 快照未加载返回 ErrNotReady；其余内部错误降级为空列表。
// 成功后异步回写每个结果商品的曝光热度。
func (e *Engine) Search(ctx context.Context, customerID, query string) ([]core.Recommendation, error) {
	snap := e.features.Snapshot()
	if snap == nil {
		return nil, core.ErrNotReady
	}

	p := &pipeline.Pipeline{
		Nodes: e.withCommonTail(snap, &rank.QueryNode{
			Catalog: snap,
			Index:   e.indexFor(snap),
			Events:  e.events,
			Log:     e.log,
		}),
	}

	rctx := &core.RecommendContext{CustomerID: customerID, Query: query, Scene: "search"}
	return e.run(ctx, snap, p, rctx)
}

// Click 记录一次点击并更新偏好/热度。
// 未知商品返回 NOT_FOUND；存储失败在内部记日志后丢弃。
func (e *Engine) Click(ctx context.Context, customerID, productID string) error {
	return e.updater.OnClick(ctx, customerID, productID)
}

// Preferences 返回客户的偏好分记录（分数降序）。
// 存储失败降级为空列表。
func (e *Engine) Preferences(ctx context.Context, customerID string) []core.PreferenceEntry {
	snap := e.features.Snapshot()
	if snap == nil {
		return nil
	}
	prefs, err := e.events.Preferences(ctx, customerID)
	if err != nil {
		e.log.Warn().Err(err).
			Str("customer_id", customerID).
			Msg("engine: preferences read failed, degrading to empty")
		return nil
	}
	return prefs
}

// Popular 按 (views + clicks) 降序返回前 n 个热门商品。
// 存储失败降级为空列表。
func (e *Engine) Popular(ctx context.Context, n int) []core.PopularProduct {
	if n <= 0 {
		n = e.topN
	}
	top, err := e.events.TopPopular(ctx, n)
	if err != nil {
		e.log.Warn().Err(err).Msg("engine: popularity read failed, degrading to empty")
		return nil
	}
	return top
}

// withCommonTail 组装 召回 → 排序 → 规则过滤 → Top-N 截断 的节点链。
func (e *Engine) withCommonTail(snap *feature.Snapshot, ranker pipeline.Node) []pipeline.Node {
	nodes := []pipeline.Node{
		&recall.Catalog{Catalog: snap},
		ranker,
	}
	if len(e.filterRules) > 0 {
		filters := make([]filter.Filter, 0, len(e.filterRules))
		for _, expr := range e.filterRules {
			filters = append(filters, filter.NewRuleFilter(expr))
		}
		nodes = append(nodes, &filter.FilterNode{Filters: filters})
	}
	nodes = append(nodes, &rerank.TopNNode{N: e.topN})
	return nodes
}

// run 执行 Pipeline，转换结果并异步回写曝光。
func (e *Engine) run(
	ctx context.Context,
	snap *feature.Snapshot,
	pl *pipeline.Pipeline,
	rctx *core.RecommendContext,
) ([]core.Recommendation, error) {
	items, err := pl.Run(ctx, rctx, nil)
	if err != nil {
		e.log.Error().Err(err).
			Str("scene", rctx.Scene).
			Str("customer_id", rctx.CustomerID).
			Msg("engine: pipeline failed, degrading to empty")
		return []core.Recommendation{}, nil
	}

	out := make([]core.Recommendation, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		p, ok := snap.ProductByID(it.ID)
		if !ok {
			continue
		}
		sim, _ := conv.ToFloat64(it.Meta["similarity"])
		out = append(out, core.Recommendation{
			ProductID:   p.ID,
			Brand:       p.Brand,
			Category:    p.Category,
			Subcategory: p.Subcategory,
			Similarity:  sim,
			Score:       it.Score,
		})
	}

	e.bumpViews(out)
	return out, nil
}

// bumpViews 异步回写结果商品的曝光热度，不阻塞请求返回。
// 使用独立的后台 context：请求结束不应打断热度回写。
func (e *Engine) bumpViews(recs []core.Recommendation) {
	if len(recs) == 0 {
		return
	}
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ProductID)
	}

	go func() {
		g := errgroup.Group{}
		g.SetLimit(viewBumpConcurrency)
		for _, id := range ids {
			g.Go(func() error {
				e.updater.OnView(context.Background(), id)
				return nil
			})
		}
		_ = g.Wait()
	}()
}
