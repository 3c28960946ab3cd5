package feature

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/shoprec/core"
)

const testProductsCSV = `Product_ID,Brand,Category,Subcategory,Price,Description,Product_Rating,Customer_Review_Sentiment_Score,Probability_of_Recommendation
P1,Nike,Sportswear,Running Shoes,89.9,Lightweight running shoes,5.0,0.9,0.8
P2,Adidas,Sportswear,Running Shoes,79.9,Cushioned daily trainer,3.0,0.5,0.6
P3,Sony,Electronics,Headphones,199.0,Noise cancelling,1.0,0.1,0.4
`

const testCustomersCSV = `Customer_ID,Product_Rating,Customer_Review_Sentiment_Score,Probability_of_Recommendation
C1,0.5,0.6,0.7
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func loadTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(
		writeFile(t, "products.csv", testProductsCSV),
		writeFile(t, "customers.csv", testCustomersCSV),
	)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStore_Load_Normalization(t *testing.T) {
	snap := loadTestStore(t).Snapshot()
	if snap == nil {
		t.Fatal("Snapshot() = nil after Load")
	}
	if snap.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", snap.Len())
	}

	// min-max 边界由全量商品拟合：最小值映射 0，最大值映射 1
	tests := []struct {
		id   string
		want core.Vector
	}{
		{"P1", core.Vector{1, 1, 1}},
		{"P2", core.Vector{0.5, 0.5, 0.5}},
		{"P3", core.Vector{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			v, ok := snap.ProductVector(tt.id)
			if !ok {
				t.Fatalf("ProductVector(%q) not found", tt.id)
			}
			for j := range v {
				if math.Abs(v[j]-tt.want[j]) > 1e-12 {
					t.Errorf("vector[%d] = %v, want %v", j, v[j], tt.want[j])
				}
			}
		})
	}
}

func TestStore_Load_GroupMeanAndCorpus(t *testing.T) {
	snap := loadTestStore(t).Snapshot()

	mean, ok := snap.GroupMean("Sportswear", "Running Shoes")
	if !ok {
		t.Fatal("GroupMean(Sportswear, Running Shoes) not found")
	}
	for j := range mean {
		if math.Abs(mean[j]-0.75) > 1e-12 {
			t.Errorf("mean[%d] = %v, want 0.75", j, mean[j])
		}
	}
	if _, ok := snap.GroupMean("Sportswear", "Jackets"); ok {
		t.Error("GroupMean for unknown group should report not found")
	}

	corpus := snap.Corpus()
	if corpus[0] != "Nike Sportswear Running Shoes" {
		t.Errorf("corpus[0] = %q", corpus[0])
	}
}

func TestStore_Load_CustomerPrior(t *testing.T) {
	snap := loadTestStore(t).Snapshot()

	v, ok := snap.CustomerPrior("C1")
	if !ok {
		t.Fatal("CustomerPrior(C1) not found")
	}
	// 客户先验取原始值，不参与商品边界归一化
	want := core.Vector{0.5, 0.6, 0.7}
	if v != want {
		t.Errorf("prior = %v, want %v", v, want)
	}

	if _, ok := snap.CustomerPrior("C404"); ok {
		t.Error("unknown customer should report not found")
	}
}

func TestStore_Load_Errors(t *testing.T) {
	tests := []struct {
		name     string
		products string
	}{
		{
			name:     "missing required column",
			products: "Product_ID,Brand,Category\nP1,Nike,Sportswear\n",
		},
		{
			name:     "empty product id",
			products: "Product_ID,Brand,Category,Subcategory,Product_Rating,Customer_Review_Sentiment_Score,Probability_of_Recommendation\n,Nike,Sportswear,Shoes,4,0.5,0.5\n",
		},
		{
			name:     "duplicate product id",
			products: "Product_ID,Brand,Category,Subcategory,Product_Rating,Customer_Review_Sentiment_Score,Probability_of_Recommendation\nP1,Nike,Sportswear,Shoes,4,0.5,0.5\nP1,Nike,Sportswear,Shoes,4,0.5,0.5\n",
		},
		{
			name:     "invalid number",
			products: "Product_ID,Brand,Category,Subcategory,Product_Rating,Customer_Review_Sentiment_Score,Probability_of_Recommendation\nP1,Nike,Sportswear,Shoes,bad,0.5,0.5\n",
		},
		{
			name:     "empty table",
			products: "Product_ID,Brand,Category,Subcategory,Product_Rating,Customer_Review_Sentiment_Score,Probability_of_Recommendation\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(writeFile(t, "products.csv", tt.products), "")
			err := s.Load(context.Background())
			if err == nil {
				t.Fatal("Load() = nil, want DATA_LOAD error")
			}
			if !core.IsDataLoad(err) {
				t.Errorf("Load() = %v, want DATA_LOAD", err)
			}
			if s.Snapshot() != nil {
				t.Error("failed Load must not publish a snapshot")
			}
		})
	}
}

func TestStore_Load_ConstantColumnMapsToZero(t *testing.T) {
	products := "Product_ID,Brand,Category,Subcategory,Product_Rating,Customer_Review_Sentiment_Score,Probability_of_Recommendation\n" +
		"P1,Nike,Sportswear,Shoes,4.0,0.2,0.9\n" +
		"P2,Sony,Electronics,Audio,4.0,0.8,0.1\n"
	s := NewStore(writeFile(t, "products.csv", products), "")
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	v, _ := s.Snapshot().ProductVector("P1")
	if v[core.FeatureRating] != 0 {
		t.Errorf("constant column normalized to %v, want 0", v[core.FeatureRating])
	}
}

func TestStore_Reload_SwapsSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.csv")
	if err := os.WriteFile(path, []byte(testProductsCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path, "")
	if s.Snapshot() != nil {
		t.Fatal("Snapshot() before Load should be nil")
	}
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	old := s.Snapshot()

	updated := testProductsCSV + "P4,Levis,Clothing,Jeans,59.9,Classic jeans,4.0,0.7,0.7\n"
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := s.Snapshot(); got == old {
		t.Error("reload must publish a new snapshot")
	} else if got.Len() != 4 {
		t.Errorf("new snapshot Len() = %d, want 4", got.Len())
	}
	// 旧快照保持不变，持有者继续读取不受影响
	if old.Len() != 3 {
		t.Errorf("old snapshot Len() = %d, want 3", old.Len())
	}
}

func TestStore_Prior_FallsBackToSnapshot(t *testing.T) {
	s := loadTestStore(t)
	v, ok := s.Prior(context.Background(), "C1")
	if !ok {
		t.Fatal("Prior(C1) not found")
	}
	if (v == core.Vector{}) {
		t.Error("Prior(C1) is zero vector")
	}
	if _, ok := s.Prior(context.Background(), "C404"); ok {
		t.Error("Prior for unknown customer should report not found")
	}
}
