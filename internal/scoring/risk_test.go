package scoring_test

import (
	"testing"

	"github.com/TumainiC/Medical-app/internal/domain"
	"github.com/TumainiC/Medical-app/internal/scoring"

	"github.com/stretchr/testify/assert"
)

func TestClassify_NormalRecord_IsLow(t *testing.T) {
	assert.Equal(t, domain.RiskLow, scoring.Classify(normalRecord()))
}

func TestClassify_PointAccumulation(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*domain.VitalRecord)
		want domain.RiskLevel
	}{
		// 单通道中度 = 1 分 → Low
		{"one moderate channel", func(r *domain.VitalRecord) { r.HeartRate = 110 }, domain.RiskLow},
		// 单通道重度 = 2 分 → Medium
		{"one severe channel", func(r *domain.VitalRecord) { r.BloodOxygen = 88 }, domain.RiskMedium},
		// 两个中度 = 2 分 → Medium
		{"two moderate channels", func(r *domain.VitalRecord) {
			r.HeartRate = 110
			r.BloodOxygen = 93
		}, domain.RiskMedium},
		// 重度 + 重度 = 4 分 → High
		{"two severe channels", func(r *domain.VitalRecord) {
			r.HeartRate = 45
			r.BloodOxygen = 85
		}, domain.RiskHigh},
		// 重度 + 中度 + 中度 = 4 分 → High
		{"severe plus two moderate", func(r *domain.VitalRecord) {
			r.Temperature = 39.0
			r.HeartRate = 110
			r.BloodOxygen = 93
		}, domain.RiskHigh},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := normalRecord()
			tc.mut(&rec)
			assert.Equal(t, tc.want, scoring.Classify(rec))
		})
	}
}

func TestClassify_TemperatureModerateCutoffIs37_5(t *testing.T) {
	// 分级表的体温中度上限是 37.5（健康分表是 37.2），两张表刻意不同
	rec := normalRecord()
	rec.Temperature = 37.4
	assert.Equal(t, domain.RiskLow, scoring.Classify(rec))
	// 但健康分已经按 37.2 口径扣了轻度分
	assert.Equal(t, 90, scoring.Score(rec))

	rec.Temperature = 37.6
	assert.Equal(t, domain.RiskLow, scoring.Classify(rec)) // 1 分，仍是 Low
	rec.BloodOxygen = 93
	assert.Equal(t, domain.RiskMedium, scoring.Classify(rec)) // 1+1=2 分
}

func TestClassify_BoundaryHeartRate(t *testing.T) {
	// 心率 50/120 落在中度档（+1）而不是重度档（+2）
	rec := normalRecord()
	rec.HeartRate = 50
	rec.BloodOxygen = 93 // 再加 1 分，若 50 记 2 分则会变 High 方向
	assert.Equal(t, domain.RiskMedium, scoring.Classify(rec))

	rec.HeartRate = 120
	assert.Equal(t, domain.RiskMedium, scoring.Classify(rec))
}

// 单调性：固定其余通道，单独恶化某一通道时风险序数不应下降
func TestClassify_MonotonicInSeverity(t *testing.T) {
	hrSteps := []int{75, 110, 130}           // 正常 → 中度 → 重度
	spo2Steps := []int{98, 93, 85}           // 正常 → 中度 → 重度
	tempSteps := []float64{36.6, 38.0, 39.0} // 正常 → 中度（>37.5 且 ≤38.0）→ 重度

	mk := func(hr, spo2 int, temp float64) domain.RiskLevel {
		rec := normalRecord()
		rec.HeartRate = hr
		rec.BloodOxygen = spo2
		rec.Temperature = temp
		return scoring.Classify(rec)
	}

	// 恶化心率
	for _, spo2 := range spo2Steps {
		for _, temp := range tempSteps {
			last := domain.RiskLow
			for i, hr := range hrSteps {
				got := mk(hr, spo2, temp)
				if i > 0 {
					assert.GreaterOrEqual(t, int(got), int(last),
						"worsening hr: hr=%d spo2=%d temp=%.1f", hr, spo2, temp)
				}
				last = got
			}
		}
	}

	// 恶化血氧
	for _, hr := range hrSteps {
		for _, temp := range tempSteps {
			last := domain.RiskLow
			for i, spo2 := range spo2Steps {
				got := mk(hr, spo2, temp)
				if i > 0 {
					assert.GreaterOrEqual(t, int(got), int(last),
						"worsening spo2: hr=%d spo2=%d temp=%.1f", hr, spo2, temp)
				}
				last = got
			}
		}
	}

	// 恶化体温
	for _, hr := range hrSteps {
		for _, spo2 := range spo2Steps {
			last := domain.RiskLow
			for i, temp := range tempSteps {
				got := mk(hr, spo2, temp)
				if i > 0 {
					assert.GreaterOrEqual(t, int(got), int(last),
						"worsening temp: hr=%d spo2=%d temp=%.1f", hr, spo2, temp)
				}
				last = got
			}
		}
	}
}
