package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/TumainiC/Medical-app/internal/domain"
	"github.com/TumainiC/Medical-app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(userID string, ts time.Time, hr int) domain.VitalRecord {
	return domain.VitalRecord{
		UserID:          userID,
		Timestamp:       ts,
		HeartRate:       hr,
		BloodOxygen:     97,
		Temperature:     36.6,
		RespirationRate: 16,
		ActivityLevel:   domain.ActivityModerate,
		Steps:           50,
		SleepQuality:    domain.SleepGood,
	}
}

func TestMemoryVitalsRepo_InsertAndGetHistory(t *testing.T) {
	repo := repository.NewMemoryVitalsRepo()
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Insert(ctx, record("u1", base.Add(time.Duration(i)*time.Minute), 70+i)))
	}

	records, err := repo.GetHistory(ctx, "u1", repository.HistoryFilters{})
	require.NoError(t, err)
	require.Len(t, records, 5)
	// 时间升序
	for i := 1; i < len(records); i++ {
		assert.True(t, records[i].Timestamp.After(records[i-1].Timestamp))
	}
}

func TestMemoryVitalsRepo_GetHistory_UnknownUser(t *testing.T) {
	repo := repository.NewMemoryVitalsRepo()
	_, err := repo.GetHistory(context.Background(), "nobody", repository.HistoryFilters{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMemoryVitalsRepo_GetHistory_TimeRangeAndLimit(t *testing.T) {
	repo := repository.NewMemoryVitalsRepo()
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	var recs []domain.VitalRecord
	for i := 0; i < 10; i++ {
		recs = append(recs, record("u1", base.Add(time.Duration(i)*time.Hour), 70))
	}
	require.NoError(t, repo.InsertBatch(ctx, recs))

	start := base.Add(2 * time.Hour)
	end := base.Add(7 * time.Hour)
	got, err := repo.GetHistory(ctx, "u1", repository.HistoryFilters{StartTime: &start, EndTime: &end})
	require.NoError(t, err)
	assert.Len(t, got, 6) // 闭区间 [2h,7h]

	// limit 取最近 N 条
	got, err = repo.GetHistory(ctx, "u1", repository.HistoryFilters{Limit: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, base.Add(9*time.Hour), got[2].Timestamp)
	assert.Equal(t, base.Add(7*time.Hour), got[0].Timestamp)
}

func TestMemoryVitalsRepo_GetStatistics(t *testing.T) {
	repo := repository.NewMemoryVitalsRepo()
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	r1 := record("u1", base, 60)
	r1.Steps = 100
	r1.ActivityLevel = domain.ActivityLow
	r2 := record("u1", base.Add(time.Minute), 80)
	r2.Steps = 50
	r2.ActivityLevel = domain.ActivityHigh
	require.NoError(t, repo.InsertBatch(ctx, []domain.VitalRecord{r1, r2}))

	stats, err := repo.GetStatistics(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, 70.0, stats.HeartRate.Mean)
	assert.Equal(t, 60.0, stats.HeartRate.Min)
	assert.Equal(t, 80.0, stats.HeartRate.Max)
	assert.InDelta(t, 14.14, stats.HeartRate.StdDev, 0.01) // 样本标准差
	assert.Equal(t, 150, stats.TotalSteps)
	assert.Equal(t, 75.0, stats.AvgStepsPerRecord)
	assert.Equal(t, map[string]int{"low": 1, "high": 1}, stats.ActivityDistribution)
}

func TestMemoryVitalsRepo_ListUsers(t *testing.T) {
	repo := repository.NewMemoryVitalsRepo()
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	require.NoError(t, repo.Insert(ctx, record("bob", base, 70)))
	require.NoError(t, repo.Insert(ctx, record("alice", base, 70)))

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, users)
}
