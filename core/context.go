package core

import "github.com/rushteam/shoprec/pkg/utils"

// RecommendContext 承载单次评分请求的客户/查询信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	CustomerID string // 使用 string 类型（通用，支持所有 ID 格式）
	Query      string // 搜索词，个性化推荐时为空
	Scene      string

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数（扩展位：设备、实验桶等）
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
