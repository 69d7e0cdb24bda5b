package repository

import (
	"context"
	"errors"
	"time"

	"github.com/TumainiC/Medical-app/internal/domain"
)

var ErrNotFound = errors.New("no records found")

// HistoryFilters 历史查询过滤器
type HistoryFilters struct {
	StartTime *time.Time // 开始时间（可选）
	EndTime   *time.Time // 结束时间（可选）
	Limit     int        // 返回条数上限（0 表示默认 100）
}

// VitalsRepository 生命体征数据仓库接口
//
// 写入来自采集管道（stream consumer / MQTT / simulate 接口），
// 查询供 HTTP API 使用。
type VitalsRepository interface {
	// Insert 写入单条记录
	Insert(ctx context.Context, rec domain.VitalRecord) error

	// InsertBatch 批量写入
	InsertBatch(ctx context.Context, recs []domain.VitalRecord) error

	// GetHistory 按用户查询历史（时间升序，Limit 取最近 N 条）
	GetHistory(ctx context.Context, userID string, filters HistoryFilters) ([]domain.VitalRecord, error)

	// GetStatistics 用户历史的统计摘要
	GetStatistics(ctx context.Context, userID string) (*domain.UserStatistics, error)

	// ListUsers 已有数据的用户列表
	ListUsers(ctx context.Context) ([]string, error)
}
