package rakuten

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/koy0208/backendapi/internal/model"
)

func validRaw() rawItem {
	return rawItem{
		ItemCode:        "shop:10001",
		ItemName:        "ベビーカー A型",
		ItemCaption:     "ベビー＞ベビーカー＞A型ベビーカー 軽量で走行性に優れたモデル",
		ItemPrice:       json.Number("1100"),
		ItemURL:         "https://item.rakuten.co.jp/shop/10001/",
		MediumImageURLs: []string{"https://img.example/1.jpg", "https://img.example/2.jpg"},
		PointRate:       2,
	}
}

func TestNormalize_Basic(t *testing.T) {
	item, err := Normalize(validRaw(), 3)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if item.Shop != model.ShopRakuten {
		t.Errorf("shop = %q", item.Shop)
	}
	if item.ItemPrice != 1100 {
		t.Errorf("price = %d", item.ItemPrice)
	}
	if item.Ranking != 3 {
		t.Errorf("ranking = %d", item.Ranking)
	}
	// 面包屑前缀（到最后一个＞为止）已去除
	if item.ItemDescription != "A型ベビーカー 軽量で走行性に優れたモデル" {
		t.Errorf("description = %q", item.ItemDescription)
	}
	// 代表图取首张
	if item.ItemImg != "https://img.example/1.jpg" {
		t.Errorf("img = %q", item.ItemImg)
	}
}

func TestNormalize_PointComputation(t *testing.T) {
	// 税抜价格（/1.1）按100円为基数取整后乘倍率
	tests := []struct {
		price int
		rate  float64
		want  int
	}{
		{1100, 2, 20}, // round(1000)//100*2
		{1100, 1, 10},
		{550, 2, 10},  // round(500)//100*2
		{99, 10, 0},   // 不足100円无积分
		{0, 5, 0},
		{21980, 1.5, 298}, // round(19981.8..)=19982 → 199*1.5=298.5 → 298
	}
	for _, tt := range tests {
		if got := Point(tt.price, tt.rate); got != tt.want {
			t.Errorf("Point(%d, %v) = %d, want %d", tt.price, tt.rate, got, tt.want)
		}
	}
}

func TestNormalize_StringPrice(t *testing.T) {
	raw := validRaw()
	raw.ItemPrice = json.Number("2980")
	item, err := Normalize(raw, 1)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if item.ItemPrice != 2980 {
		t.Errorf("price = %d", item.ItemPrice)
	}
}

func TestNormalize_CaptionWithoutDelimiter(t *testing.T) {
	raw := validRaw()
	raw.ItemCaption = "区切りなしの説明文"
	item, err := Normalize(raw, 1)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if item.ItemDescription != "区切りなしの説明文" {
		t.Errorf("description = %q", item.ItemDescription)
	}
}

func TestNormalize_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*rawItem)
	}{
		{"missing item code", func(r *rawItem) { r.ItemCode = "" }},
		{"missing item name", func(r *rawItem) { r.ItemName = "" }},
		{"bad price", func(r *rawItem) { r.ItemPrice = json.Number("abc") }},
		{"negative price", func(r *rawItem) { r.ItemPrice = json.Number("-100") }},
		{"no images", func(r *rawItem) { r.MediumImageURLs = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(&raw)
			_, err := Normalize(raw, 1)
			var malformed *model.MalformedRecordError
			if !errors.As(err, &malformed) {
				t.Fatalf("want MalformedRecordError, got %v", err)
			}
			if malformed.Provider != model.ShopRakuten {
				t.Errorf("provider = %q", malformed.Provider)
			}
		})
	}
}

func TestNormalize_RankFloor(t *testing.T) {
	// 即使排行接口rank缺失（0），也保证ranking>=1
	item, err := Normalize(validRaw(), 0)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if item.Ranking != 1 {
		t.Errorf("ranking = %d", item.Ranking)
	}
}
