package core

import "math"

// 特征向量的固定维度：评分、评论情感分、历史推荐概率。
const (
	FeatureRating = iota
	FeatureSentiment
	FeatureRecProbability

	FeatureDim
)

// Vector 是商品/客户的归一化特征向量。
// 三个分量在加载期用全量商品集的 min-max 边界缩放到 [0,1]；
// 同一份快照生命周期内缩放参数不变，不按请求重算。
type Vector [FeatureDim]float64

// IsZero 判断向量是否全零。
func (v Vector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Dot 计算点积。
func (v Vector) Dot(o Vector) float64 {
	var sum float64
	for i := range v {
		sum += v[i] * o[i]
	}
	return sum
}

// Norm 计算 L2 范数。
func (v Vector) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize 返回 L2 归一化后的向量；零向量原样返回。
func (v Vector) Normalize() Vector {
	n := v.Norm()
	if n == 0 {
		return v
	}
	var out Vector
	for i := range v {
		out[i] = v[i] / n
	}
	return out
}

// Add 返回向量和。
func (v Vector) Add(o Vector) Vector {
	var out Vector
	for i := range v {
		out[i] = v[i] + o[i]
	}
	return out
}

// AddScaled 返回 v + o*w。
func (v Vector) AddScaled(o Vector, w float64) Vector {
	var out Vector
	for i := range v {
		out[i] = v[i] + o[i]*w
	}
	return out
}

// Scale 返回 v*w。
func (v Vector) Scale(w float64) Vector {
	var out Vector
	for i := range v {
		out[i] = v[i] * w
	}
	return out
}

// Cosine 计算余弦相似度；任一方为零向量时返回 0。
func (v Vector) Cosine(o Vector) float64 {
	na, nb := v.Norm(), o.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	return v.Dot(o) / (na * nb)
}

// Clip01 将 x 截断到 [0,1]。
func Clip01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
