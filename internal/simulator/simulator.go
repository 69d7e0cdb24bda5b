// Package simulator 可穿戴设备数据模拟器
//
// 生成带有少量注入异常的生命体征序列，用于演示和检测模型的训练引导。
// 固定 seed 时输出完全可复现。
package simulator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/TumainiC/Medical-app/internal/domain"
)

// 默认参数与线上演示保持一致
const (
	DefaultAnomalyRate = 0.05
	DefaultInterval    = 5 * time.Minute
)

var activityLevels = []domain.ActivityLevel{
	domain.ActivityLow,
	domain.ActivityModerate,
	domain.ActivityHigh,
}

var sleepQualities = []domain.SleepQuality{
	domain.SleepPoor,
	domain.SleepFair,
	domain.SleepGood,
	domain.SleepExcellent,
}

// Simulator 单实例非并发安全（内部持有 *rand.Rand）；
// 需要并发生成时每个 goroutine 各建一个。
type Simulator struct {
	rng         *rand.Rand
	anomalyRate float64
	interval    time.Duration
}

// New 创建模拟器，seed 相同则序列相同
func New(seed int64) *Simulator {
	return &Simulator{
		rng:         rand.New(rand.NewSource(seed)),
		anomalyRate: DefaultAnomalyRate,
		interval:    DefaultInterval,
	}
}

// NewWithOptions 指定异常率与采样间隔
func NewWithOptions(seed int64, anomalyRate float64, interval time.Duration) *Simulator {
	s := New(seed)
	if anomalyRate >= 0 && anomalyRate <= 1 {
		s.anomalyRate = anomalyRate
	}
	if interval > 0 {
		s.interval = interval
	}
	return s
}

// Interval 采样间隔
func (s *Simulator) Interval() time.Duration {
	return s.interval
}

// GenerateUserData 为单个用户生成 n 条记录（5 分钟间隔，约 5% 异常）
func (s *Simulator) GenerateUserData(userID string, n int, start time.Time) []domain.VitalRecord {
	if start.IsZero() {
		start = time.Now()
	}

	records := make([]domain.VitalRecord, 0, n)
	current := start

	for i := 0; i < n; i++ {
		records = append(records, s.generateRecord(userID, current))
		current = current.Add(s.interval)
	}

	return records
}

// GenerateMultiUserData 为多个用户生成记录（user_001、user_002...）
func (s *Simulator) GenerateMultiUserData(numUsers, recordsPerUser int, start time.Time) []domain.VitalRecord {
	all := make([]domain.VitalRecord, 0, numUsers*recordsPerUser)
	for i := 0; i < numUsers; i++ {
		userID := fmt.Sprintf("user_%03d", i+1)
		all = append(all, s.GenerateUserData(userID, recordsPerUser, start)...)
	}
	return all
}

func (s *Simulator) generateRecord(userID string, ts time.Time) domain.VitalRecord {
	isAnomaly := s.rng.Float64() < s.anomalyRate

	var heartRate, bloodOxygen int
	var temperature float64

	if isAnomaly {
		// 异常读数：过低/过高心率、低血氧、低温或发热
		if s.rng.Intn(2) == 0 {
			heartRate = 40 + s.rng.Intn(10) // [40,50)
		} else {
			heartRate = 120 + s.rng.Intn(40) // [120,160)
		}
		bloodOxygen = 85 + s.rng.Intn(7) // [85,92)
		if s.rng.Intn(2) == 0 {
			temperature = s.rng.NormFloat64()*0.3 + 35.0
		} else {
			temperature = s.rng.NormFloat64()*0.5 + 38.5
		}
	} else {
		heartRate = 60 + s.rng.Intn(40)  // [60,100)
		bloodOxygen = 95 + s.rng.Intn(5) // [95,100)
		temperature = s.rng.NormFloat64()*0.3 + 36.5
	}

	// 防止正态采样落到校验边界之外
	if temperature < 30.0 {
		temperature = 30.0
	}
	if temperature > 43.0 {
		temperature = 43.0
	}

	return domain.VitalRecord{
		UserID:          userID,
		Timestamp:       ts,
		HeartRate:       heartRate,
		BloodOxygen:     bloodOxygen,
		Temperature:     round1(temperature),
		RespirationRate: 12 + s.rng.Intn(8), // [12,20)
		ActivityLevel:   activityLevels[s.rng.Intn(len(activityLevels))],
		Steps:           s.rng.Intn(150),
		SleepQuality:    sleepQualities[s.rng.Intn(len(sleepQualities))],
	}
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}
