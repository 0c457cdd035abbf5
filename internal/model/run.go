package model

import (
	"time"

	"gorm.io/datatypes"
)

// 快照任务状态
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// SnapshotRun 排行快照批处理履历（每次构建一条，便于排查月度任务）
type SnapshotRun struct {
	ID         uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Category   string         `gorm:"column:category;type:varchar(64);index;not null;comment:类目标签"`
	GetMonth   string         `gorm:"column:get_month;type:varchar(8);index;not null;comment:快照月份YYYY-MM"`
	Status     string         `gorm:"column:status;type:varchar(16);not null;default:running;comment:状态：running/succeeded/failed"`
	ItemCount  int            `gorm:"column:item_count;type:int;default:0;comment:落盘记录总数"`
	ShopCounts datatypes.JSON `gorm:"column:shop_counts;type:jsonb;comment:各店铺记录数"`
	Error      *string        `gorm:"column:error;type:text;comment:失败原因"`
	StartedAt  time.Time      `gorm:"column:started_at;type:timestamp;not null;comment:开始时间"`
	FinishedAt *time.Time     `gorm:"column:finished_at;type:timestamp;comment:结束时间"`
}

func (SnapshotRun) TableName() string { return "snapshot_runs" }
