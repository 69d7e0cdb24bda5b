package scoring

import "github.com/TumainiC/Medical-app/internal/domain"

// Classify 风险分级
//
// 加分制：每通道重度偏离 +2、中度偏离 +1；
// 总分 ≥4 → High，≥2 → Medium，否则 Low。
// 分级阈值与健康分阈值不是同一张表，不要互相推导。
func Classify(rec domain.VitalRecord) domain.RiskLevel {
	return ClassifyWith(DefaultRiskThresholds(), rec)
}

// ClassifyWith 使用指定阈值表做风险分级
func ClassifyWith(t RiskThresholds, rec domain.VitalRecord) domain.RiskLevel {
	points := 0

	// 心率：<50 或 >120 重度；否则 <60 或 >100 中度
	hr := float64(rec.HeartRate)
	if hr < t.HeartRateSevere.Min || hr > t.HeartRateSevere.Max {
		points += 2
	} else if hr < t.HeartRateModerate.Min || hr > t.HeartRateModerate.Max {
		points++
	}

	// 血氧：<90 重度；否则 <95 中度
	if rec.BloodOxygen < t.BloodOxygenSevereMax {
		points += 2
	} else if rec.BloodOxygen < t.BloodOxygenModerateMax {
		points++
	}

	// 体温：<35.5 或 >38.0 重度；否则 <36.1 或 >37.5 中度
	if rec.Temperature < t.TemperatureSevere.Min || rec.Temperature > t.TemperatureSevere.Max {
		points += 2
	} else if rec.Temperature < t.TemperatureModerate.Min || rec.Temperature > t.TemperatureModerate.Max {
		points++
	}

	switch {
	case points >= t.HighMin:
		return domain.RiskHigh
	case points >= t.MediumMin:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}
