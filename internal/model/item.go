package model

// 店铺标识（shop字段只允许这两个字面值）
const (
	ShopRakuten = "楽天"
	ShopAmazon  = "amazon"
)

// Item 统一的商品模型（抹平楽天/Amazon的字段差异）
type Item struct {
	ItemCode        string  `json:"item_code"`        // 平台内唯一商品编码（跨平台不去重）
	ItemName        string  `json:"item_name"`        // 商品名称
	ItemDescription string  `json:"item_description"` // 商品说明（已去除平台面包屑前缀）
	ItemPrice       int     `json:"item_price"`       // 价格（最小货币单位，>=0）
	ItemURL         string  `json:"item_url"`         // 商品详情页地址
	ItemImg         string  `json:"item_img"`         // 代表图片地址
	ItemPointRate   float64 `json:"item_point_rate"`  // 积分倍率（Amazon固定0）
	ItemPoint       int     `json:"item_point"`       // 获得积分（Amazon固定0）
	Ranking         int     `json:"ranking"`          // 页内排名（1起）
	Shop            string  `json:"shop"`             // 来源店铺：楽天/amazon
}

// SnapshotItem 排行快照记录（Item + 快照维度字段，按月落S3）
type SnapshotItem struct {
	Item
	GetMonth string `json:"get_month"` // 快照月份 YYYY-MM
	Category string `json:"category"`  // 类目标签（快照键的一部分）
}

// SnapshotKey 快照对象键：同一(category, item_code, get_month)重复写入即幂等覆盖
func (s *SnapshotItem) SnapshotKey(prefix string) string {
	return prefix + "/category=" + s.Category + "/" + s.ItemCode + "_" + s.GetMonth + ".json"
}
