package category

import (
	"fmt"
	"sort"

	"github.com/koy0208/backendapi/internal/model"
)

// DefaultCategory 检索未指定类目时的默认标签
const DefaultCategory = "全て"

// IDs 一个类目标签在两个平台上的内部ID
type IDs struct {
	Rakuten int    // 楽天genreId
	Amazon  string // Amazon browse node
}

// SortTokens 一种排序方式在两个平台上的原生token
type SortTokens struct {
	Rakuten string
	Amazon  string
}

// Mapper 类目/排序静态映射。启动时构建后只读，不提供任何修改入口
type Mapper struct {
	search  map[string]IDs        // 商品检索用类目表
	ranking map[string]IDs        // 排行快照用类目表（与检索表的genre粒度不同）
	sorts   map[string]SortTokens // 排序方式表
}

// NewMapper 构建静态映射表
func NewMapper() *Mapper {
	return &Mapper{
		search: map[string]IDs{
			"全て":        {Rakuten: 100533, Amazon: "344845011"},
			"チャイルドシート":  {Rakuten: 566088, Amazon: "2490442051"},
			"ファッション":    {Rakuten: 111102, Amazon: "345991011"},
			"シューズ":      {Rakuten: 200811, Amazon: "2032360051"},
			"ベビーカー":     {Rakuten: 200833, Amazon: "345931011"},
			"抱っこ紐":      {Rakuten: 566089, Amazon: "345971011"},
			"寝具":        {Rakuten: 200822, Amazon: "1910016051"},
			"ベッド":       {Rakuten: 200822, Amazon: "1910002051"},
			"インテリア":     {Rakuten: 566090, Amazon: "1910002051"},
			"おふろ・バス用品":  {Rakuten: 200815, Amazon: "345914011"},
			"おむつ・トイレ":   {Rakuten: 213972, Amazon: "345889011"},
			"ミルク・離乳食":   {Rakuten: 200827, Amazon: "345977011"},
			"その他":       {Rakuten: 100533, Amazon: "344845011"},
		},
		ranking: map[string]IDs{
			"チャイルドシート":  {Rakuten: 203056, Amazon: "2490442051"},
			"抱っこ紐":      {Rakuten: 566089, Amazon: "345974011"},
			"ベビーカー":     {Rakuten: 401151, Amazon: "345931011"},
			"ベビーサークル":   {Rakuten: 200840, Amazon: "345899011"},
			"おむつ":       {Rakuten: 205197, Amazon: "170329011"},
			"セレモニードレス":  {Rakuten: 401128, Amazon: "346058011"},
		},
		sorts: map[string]SortTokens{
			"standard":  {Rakuten: "standard", Amazon: "Featured"},
			"min_price": {Rakuten: "+itemPrice", Amazon: "Price:LowToHigh"},
			"max_price": {Rakuten: "-itemPrice", Amazon: "Price:HighToLow"},
			"review":    {Rakuten: "-reviewAverage", Amazon: "AvgCustomerReviews"},
		},
	}
}

// SearchCategory 解析检索类目标签，未登录的标签直接报错（不允许静默兜底）
func (m *Mapper) SearchCategory(label string) (IDs, error) {
	ids, ok := m.search[label]
	if !ok {
		return IDs{}, fmt.Errorf("类目%q: %w", label, model.ErrUnknownCategory)
	}
	return ids, nil
}

// RankingCategory 解析排行类目标签
func (m *Mapper) RankingCategory(label string) (IDs, error) {
	ids, ok := m.ranking[label]
	if !ok {
		return IDs{}, fmt.Errorf("类目%q: %w", label, model.ErrUnknownCategory)
	}
	return ids, nil
}

// Sort 解析排序方式
func (m *Mapper) Sort(name string) (SortTokens, error) {
	tokens, ok := m.sorts[name]
	if !ok {
		return SortTokens{}, fmt.Errorf("排序%q: %w", name, model.ErrUnsupportedSort)
	}
	return tokens, nil
}

// RankingCategories 排行快照支持的全部类目标签（字典序，批处理遍历用）
func (m *Mapper) RankingCategories() []string {
	labels := make([]string, 0, len(m.ranking))
	for label := range m.ranking {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
