// Package event 提供行为事件与派生状态（偏好分、热度计数）的存储实现。
// 领域接口见 core.EventStore。
package event

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/shoprec/core"
)

// MemoryStore 是内存实现的 EventStore，用于测试/开发/原型。
// 所有写操作在同一把锁下完成，天然满足按行原子；进程重启后数据丢失。
type MemoryStore struct {
	mu sync.RWMutex

	// 追加写的事件日志，只增不改
	log []logEntry

	// 按 (客户, 商品, 类型) 聚合的计数，读路径直接使用
	counts map[string]map[countKey]int64

	prefs map[string]map[prefKey]*prefEntry
	pops  map[string]*popEntry
}

type logEntry struct {
	customerID string
	productID  string
	kind       core.InteractionKind
	at         time.Time
}

type countKey struct {
	productID string
	kind      core.InteractionKind
}

type prefKey struct {
	category    string
	subcategory string
}

type prefEntry struct {
	score   float64
	updated time.Time
}

type popEntry struct {
	views   int64
	clicks  int64
	updated time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counts: make(map[string]map[countKey]int64),
		prefs:  make(map[string]map[prefKey]*prefEntry),
		pops:   make(map[string]*popEntry),
	}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) RecordInteraction(ctx context.Context, customerID, productID string, kind core.InteractionKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log = append(m.log, logEntry{
		customerID: customerID,
		productID:  productID,
		kind:       kind,
		at:         time.Now(),
	})
	if m.counts[customerID] == nil {
		m.counts[customerID] = make(map[countKey]int64)
	}
	m.counts[customerID][countKey{productID: productID, kind: kind}]++
	return nil
}

func (m *MemoryStore) Interactions(ctx context.Context, customerID string) ([]core.InteractionCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := m.counts[customerID]
	out := make([]core.InteractionCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, core.InteractionCount{
			ProductID: k.productID,
			Kind:      k.kind,
			Count:     n,
		})
	}
	return out, nil
}

func (m *MemoryStore) BumpPreference(ctx context.Context, customerID, category, subcategory string, step float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.prefs[customerID] == nil {
		m.prefs[customerID] = make(map[prefKey]*prefEntry)
	}
	k := prefKey{category: category, subcategory: subcategory}
	e, ok := m.prefs[customerID][k]
	if !ok {
		e = &prefEntry{}
		m.prefs[customerID][k] = e
	}
	e.score += step
	e.updated = time.Now()
	return nil
}

func (m *MemoryStore) Preferences(ctx context.Context, customerID string) ([]core.PreferenceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefs := m.prefs[customerID]
	out := make([]core.PreferenceEntry, 0, len(prefs))
	for k, e := range prefs {
		out = append(out, core.PreferenceEntry{
			Category:    k.category,
			Subcategory: k.subcategory,
			Score:       e.score,
			UpdatedAt:   e.updated,
		})
	}
	sortPreferences(out)
	return out, nil
}

func (m *MemoryStore) BumpPopularity(ctx context.Context, productID string, kind core.InteractionKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.pops[productID]
	if !ok {
		e = &popEntry{}
		m.pops[productID] = e
	}
	switch kind {
	case core.InteractionClick:
		e.clicks++
	default:
		e.views++
	}
	e.updated = time.Now()
	return nil
}

func (m *MemoryStore) PopularityAll(ctx context.Context) (map[string]core.Popularity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]core.Popularity, len(m.pops))
	for id, e := range m.pops {
		out[id] = core.Popularity{Views: e.views, Clicks: e.clicks}
	}
	return out, nil
}

func (m *MemoryStore) TopPopular(ctx context.Context, n int) ([]core.PopularProduct, error) {
	if n <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.PopularProduct, 0, len(m.pops))
	for id, e := range m.pops {
		out = append(out, core.PopularProduct{ProductID: id, Views: e.views, Clicks: e.clicks})
	}
	sortPopular(out)
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

// sortPreferences 按分数降序，同分按类目/子类目字典序，保证输出确定。
func sortPreferences(prefs []core.PreferenceEntry) {
	sort.SliceStable(prefs, func(i, j int) bool {
		if prefs[i].Score != prefs[j].Score {
			return prefs[i].Score > prefs[j].Score
		}
		if prefs[i].Category != prefs[j].Category {
			return prefs[i].Category < prefs[j].Category
		}
		return prefs[i].Subcategory < prefs[j].Subcategory
	})
}

// sortPopular 按 (views + clicks) 降序，同分按商品 ID 字典序。
func sortPopular(pops []core.PopularProduct) {
	sort.SliceStable(pops, func(i, j int) bool {
		ti, tj := pops[i].Views+pops[i].Clicks, pops[j].Views+pops[j].Clicks
		if ti != tj {
			return ti > tj
		}
		return pops[i].ProductID < pops[j].ProductID
	})
}

var _ core.EventStore = (*MemoryStore)(nil)
