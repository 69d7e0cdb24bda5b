package repository

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/TumainiC/Medical-app/internal/domain"
)

// MemoryVitalsRepository 内存实现
// DB 未就绪时的回退，供本地联调和测试使用
type MemoryVitalsRepository struct {
	mu      sync.RWMutex
	byUser  map[string][]domain.VitalRecord
}

func NewMemoryVitalsRepo() *MemoryVitalsRepository {
	return &MemoryVitalsRepository{
		byUser: make(map[string][]domain.VitalRecord),
	}
}

var _ VitalsRepository = (*MemoryVitalsRepository)(nil)

func (r *MemoryVitalsRepository) Insert(ctx context.Context, rec domain.VitalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[rec.UserID] = append(r.byUser[rec.UserID], rec)
	return nil
}

func (r *MemoryVitalsRepository) InsertBatch(ctx context.Context, recs []domain.VitalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range recs {
		r.byUser[rec.UserID] = append(r.byUser[rec.UserID], rec)
	}
	return nil
}

func (r *MemoryVitalsRepository) GetHistory(ctx context.Context, userID string, filters HistoryFilters) ([]domain.VitalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records, ok := r.byUser[userID]
	if !ok || len(records) == 0 {
		return nil, ErrNotFound
	}

	filtered := make([]domain.VitalRecord, 0, len(records))
	for _, rec := range records {
		if filters.StartTime != nil && rec.Timestamp.Before(*filters.StartTime) {
			continue
		}
		if filters.EndTime != nil && rec.Timestamp.After(*filters.EndTime) {
			continue
		}
		filtered = append(filtered, rec)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	limit := filters.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	return filtered, nil
}

func (r *MemoryVitalsRepository) GetStatistics(ctx context.Context, userID string) (*domain.UserStatistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records, ok := r.byUser[userID]
	if !ok || len(records) == 0 {
		return nil, ErrNotFound
	}
	return statisticsFromRecords(records), nil
}

func (r *MemoryVitalsRepository) ListUsers(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.byUser))
	for u := range r.byUser {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}

// statisticsFromRecords 从记录集合计算统计摘要（内存实现；postgres 用 SQL 聚合）
func statisticsFromRecords(records []domain.VitalRecord) *domain.UserStatistics {
	hr := make([]float64, 0, len(records))
	spo2 := make([]float64, 0, len(records))
	temp := make([]float64, 0, len(records))
	activity := make(map[string]int)
	totalSteps := 0

	for _, rec := range records {
		hr = append(hr, float64(rec.HeartRate))
		spo2 = append(spo2, float64(rec.BloodOxygen))
		temp = append(temp, rec.Temperature)
		activity[string(rec.ActivityLevel)]++
		totalSteps += rec.Steps
	}

	return &domain.UserStatistics{
		HeartRate:            channelStats(hr),
		BloodOxygen:          channelStats(spo2),
		Temperature:          channelStats(temp),
		ActivityDistribution: activity,
		TotalSteps:           totalSteps,
		AvgStepsPerRecord:    float64(totalSteps) / float64(len(records)),
	}
}

func channelStats(values []float64) domain.ChannelStats {
	if len(values) == 0 {
		return domain.ChannelStats{}
	}

	sum := 0.0
	min := values[0]
	max := values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	// 与 SQL 的 STDDEV_SAMP 对齐，用样本方差；单条记录时标准差为 0
	std := 0.0
	if len(values) > 1 {
		std = math.Sqrt(variance / float64(len(values)-1))
	}

	return domain.ChannelStats{Mean: mean, Min: min, Max: max, StdDev: std}
}
