package scoring

import "github.com/TumainiC/Medical-app/internal/domain"

// Score 计算 0-100 综合健康分
//
// 从 100 分起算，心率/血氧/体温三个通道各自独立按档位扣分，
// 最后截断到 [0,100]。相同输入恒返回相同输出。
func Score(rec domain.VitalRecord) int {
	return ScoreWith(DefaultScoreThresholds(), rec)
}

// ScoreWith 使用指定阈值表计算健康分
func ScoreWith(t ScoreThresholds, rec domain.VitalRecord) int {
	score := 100

	// 心率
	hr := float64(rec.HeartRate)
	switch {
	case t.HeartRateNormal.Contains(hr):
		// 正常档不扣分
	case t.HeartRateMinor.Contains(hr):
		score -= t.HeartRateMinorPenalty
	default:
		score -= t.HeartRateSeverePenalty
	}

	// 血氧
	switch {
	case rec.BloodOxygen >= t.BloodOxygenNormalMin:
	case rec.BloodOxygen >= t.BloodOxygenMinorMin:
		score -= t.BloodOxygenMinorPenalty
	default:
		score -= t.BloodOxygenSeverePenalty
	}

	// 体温
	switch {
	case t.TemperatureNormal.Contains(rec.Temperature):
	case t.TemperatureMinor.Contains(rec.Temperature):
		score -= t.TemperatureMinorPenalty
	default:
		score -= t.TemperatureSeverePenalty
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
