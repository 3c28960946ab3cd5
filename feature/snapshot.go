package feature

import "github.com/rushteam/shoprec/core"

type groupKey struct {
	category    string
	subcategory string
}

// Snapshot 是一次 Load 产出的不可变特征视图。
//
// 设计要点：
//   - 构建完成后只读，并发读取无需加锁
//   - 重新加载产出新的 Snapshot 并整体替换引用，绝不原地修改字段
//   - min-max 缩放边界在构建时用全量商品集拟合，生命周期内不变
type Snapshot struct {
	products []core.Product
	index    map[string]int // product id -> 目录下标
	vectors  []core.Vector  // 与 products 同序，归一化后的特征
	corpus   []string       // 与 products 同序，品牌+类目+子类目文本

	groups     map[groupKey][]int
	groupMeans map[groupKey]core.Vector

	priors map[string]core.Vector // 客户冷启动先验（原始值，不参与缩放）

	bounds [core.FeatureDim][2]float64 // 拟合得到的 [min, max]
}

var _ core.Catalog = (*Snapshot)(nil)

// Len 返回商品数量。
func (s *Snapshot) Len() int { return len(s.products) }

// Products 按目录顺序返回全部商品。返回的切片为内部状态，调用方不得修改。
func (s *Snapshot) Products() []core.Product { return s.products }

// ProductByID 按 ID 查找商品。
func (s *Snapshot) ProductByID(id string) (core.Product, bool) {
	i, ok := s.index[id]
	if !ok {
		return core.Product{}, false
	}
	return s.products[i], true
}

// ProductVector 返回商品的归一化特征向量。
func (s *Snapshot) ProductVector(id string) (core.Vector, bool) {
	i, ok := s.index[id]
	if !ok {
		return core.Vector{}, false
	}
	return s.vectors[i], true
}

// VectorAt 按目录下标返回归一化特征向量。
func (s *Snapshot) VectorAt(i int) core.Vector { return s.vectors[i] }

// GroupMean 返回 (类目, 子类目) 下全部商品的特征均值向量。
func (s *Snapshot) GroupMean(category, subcategory string) (core.Vector, bool) {
	v, ok := s.groupMeans[groupKey{category, subcategory}]
	return v, ok
}

// CustomerPrior 返回客户的冷启动先验向量；未知客户返回零向量和 false。
func (s *Snapshot) CustomerPrior(id string) (core.Vector, bool) {
	v, ok := s.priors[id]
	return v, ok
}

// Corpus 返回与 Products 同序的商品文本表示，供文本索引拟合。
func (s *Snapshot) Corpus() []string { return s.corpus }

// Bounds 返回第 i 个特征在拟合时观测到的 [min, max]。
func (s *Snapshot) Bounds(i int) (min, max float64) {
	return s.bounds[i][0], s.bounds[i][1]
}
