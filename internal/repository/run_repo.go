package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/koy0208/backendapi/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SnapshotRunRepository 快照批处理履历的数据库操作
type SnapshotRunRepository struct {
	db *gorm.DB
}

func NewSnapshotRunRepository(db *gorm.DB) *SnapshotRunRepository {
	return &SnapshotRunRepository{db: db}
}

// Start 登记一次新的快照构建（状态running）
func (r *SnapshotRunRepository) Start(ctx context.Context, category, month string) (*model.SnapshotRun, error) {
	run := &model.SnapshotRun{
		Category:  category,
		GetMonth:  month,
		Status:    model.RunStatusRunning,
		StartedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// Finish 标记构建结束，记录各店铺落盘条数；runErr非空时记为失败
func (r *SnapshotRunRepository) Finish(ctx context.Context, run *model.SnapshotRun, shopCounts map[string]int, runErr error) error {
	now := time.Now()
	run.FinishedAt = &now

	total := 0
	for _, n := range shopCounts {
		total += n
	}
	run.ItemCount = total
	if counts, err := json.Marshal(shopCounts); err == nil {
		run.ShopCounts = datatypes.JSON(counts)
	}

	if runErr != nil {
		run.Status = model.RunStatusFailed
		msg := runErr.Error()
		run.Error = &msg
	} else {
		run.Status = model.RunStatusSucceeded
	}
	return r.db.WithContext(ctx).Save(run).Error
}

// ListRecent 最近的构建履历（运维查询接口用）
func (r *SnapshotRunRepository) ListRecent(ctx context.Context, limit int) ([]model.SnapshotRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var runs []model.SnapshotRun
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}
