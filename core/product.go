package core

// Product 是商品目录中的一条记录，加载后不可变。
// Rating/Sentiment/RecProbability 保留原始值，归一化后的向量由快照单独持有。
type Product struct {
	ID          string
	Brand       string
	Category    string
	Subcategory string
	Price       float64
	Description string

	Rating         float64
	Sentiment      float64
	RecProbability float64
}

// Recommendation 是对外暴露的排序结果条目，形态稳定：
// 商品标识 + 品牌/类目 + 方法相关的两个分数（均在 [0,1]）。
// Similarity 在个性化推荐中为余弦相似度，在搜索中为文本相似度。
type Recommendation struct {
	ProductID   string  `json:"product_id"`
	Brand       string  `json:"brand"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Similarity  float64 `json:"similarity"`
	Score       float64 `json:"score"`
}

// Catalog 是评分链路所需的只读商品特征视图。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（feature）实现
//   - 实现必须是不可变快照：并发读取无需加锁
type Catalog interface {
	// Products 按目录顺序返回全部商品（只读，调用方不得修改）
	Products() []Product

	// ProductByID 按 ID 查找商品
	ProductByID(id string) (Product, bool)

	// ProductVector 返回商品的归一化特征向量
	ProductVector(id string) (Vector, bool)

	// GroupMean 返回 (类目, 子类目) 下全部商品的特征均值向量
	GroupMean(category, subcategory string) (Vector, bool)

	// CustomerPrior 返回客户的冷启动先验向量；未知客户返回零向量和 false
	CustomerPrior(id string) (Vector, bool)
}
