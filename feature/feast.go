package feature

import (
	"context"
	"fmt"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/shoprec/core"
)

// FeastPrior 是基于官方 Feast Go SDK 的先验来源实现。
//
// 使用场景：客户历史特征由离线管道物化到 Feast 在线存储时，
// 由此处按需拉取，替代随进程打包的客户 CSV。
//
// 特征引用顺序必须与 core.Vector 的分量一致：
// 评分、情感分、推荐概率，例如
// ["customer_stats:rating", "customer_stats:sentiment", "customer_stats:rec_probability"]。
type FeastPrior struct {
	client  *feastsdk.GrpcClient
	project string

	// EntityKey 实体列名，默认 "customer_id"
	EntityKey string

	// FeatureRefs 三个特征引用，顺序对应 core.Vector 分量
	FeatureRefs [core.FeatureDim]string
}

// NewFeastPrior 创建 Feast 先验来源。port 为 0 时使用默认 gRPC 端口 6565。
func NewFeastPrior(host string, port int, project string, refs [core.FeatureDim]string) (*FeastPrior, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("feature: connect feast %s:%d: %w", host, port, err)
	}
	return &FeastPrior{
		client:      client,
		project:     project,
		EntityKey:   "customer_id",
		FeatureRefs: refs,
	}, nil
}

func (p *FeastPrior) Name() string { return "feast" }

// CustomerPrior 拉取客户的在线特征并组装为先验向量。
// 客户在 Feast 中不存在任何特征时返回 NOT_FOUND。
func (p *FeastPrior) CustomerPrior(ctx context.Context, customerID string) (core.Vector, error) {
	req := &feastsdk.OnlineFeaturesRequest{
		Features: p.FeatureRefs[:],
		Entities: []feastsdk.Row{
			{p.EntityKey: feastsdk.StrVal(customerID)},
		},
		Project: p.project,
	}

	resp, err := p.client.GetOnlineFeatures(ctx, req)
	if err != nil {
		return core.Vector{}, core.NewDomainError(core.ModuleFeature, core.ErrorCodeUnavailable,
			fmt.Sprintf("feature: feast get online features: %v", err))
	}

	rows := resp.Rows()
	if len(rows) == 0 {
		return core.Vector{}, core.NewDomainError(core.ModuleFeature, core.ErrorCodeNotFound,
			fmt.Sprintf("feature: feast: no rows for customer %q", customerID))
	}

	var (
		v     core.Vector
		found bool
	)
	row := rows[0]
	for i, ref := range p.FeatureRefs {
		val, ok := row[ref]
		if !ok || val == nil {
			continue
		}
		switch x := val.GetVal().(type) {
		case *feasttypes.Value_DoubleVal:
			v[i] = x.DoubleVal
			found = true
		case *feasttypes.Value_FloatVal:
			v[i] = float64(x.FloatVal)
			found = true
		case *feasttypes.Value_Int64Val:
			v[i] = float64(x.Int64Val)
			found = true
		case *feasttypes.Value_Int32Val:
			v[i] = float64(x.Int32Val)
			found = true
		}
	}
	if !found {
		return core.Vector{}, core.NewDomainError(core.ModuleFeature, core.ErrorCodeNotFound,
			fmt.Sprintf("feature: feast: no prior features for customer %q", customerID))
	}
	return v, nil
}

// Close 关闭客户端连接。
func (p *FeastPrior) Close() error {
	p.client = nil
	return nil
}

var _ PriorProvider = (*FeastPrior)(nil)
