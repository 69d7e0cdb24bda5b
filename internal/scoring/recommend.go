package scoring

import "github.com/TumainiC/Medical-app/internal/domain"

// Recommend 规则级联生成建议文本
//
// 每条规则独立评估并追加零到多条建议，无提前返回。输出顺序是规则声明
// 顺序，不代表紧急程度，调用方不要按位置取"最重要"的一条。
func Recommend(rec domain.VitalRecord, anomaly domain.AnomalyStatus, risk domain.RiskLevel) []string {
	recs := []string{}

	// 心率
	if rec.HeartRate < 60 {
		recs = append(recs,
			"Your heart rate is low. Consider consulting a healthcare provider if this persists.",
			"Avoid sudden strenuous activities.",
		)
	} else if rec.HeartRate > 100 {
		recs = append(recs,
			"Your heart rate is elevated. Try relaxation techniques like deep breathing.",
			"Reduce caffeine intake and ensure adequate hydration.",
		)
	}

	// 血氧（<90 追加紧急子规则）
	if rec.BloodOxygen < 95 {
		recs = append(recs, "Blood oxygen is below normal. Ensure good ventilation and avoid strenuous activities.")
		if rec.BloodOxygen < 90 {
			recs = append(recs, "URGENT: Seek immediate medical attention - oxygen levels critically low!")
		}
	}

	// 体温（>38.0 追加发热子规则）
	if rec.Temperature > 37.5 {
		recs = append(recs, "Elevated temperature detected. Stay hydrated and monitor closely.")
		if rec.Temperature > 38.0 {
			recs = append(recs, "Fever detected. Consider taking fever-reducing medication and consult a doctor.")
		}
	} else if rec.Temperature < 36.0 {
		recs = append(recs, "Body temperature is low. Warm up and monitor for hypothermia symptoms.")
	}

	// 活动水平
	if rec.ActivityLevel == domain.ActivityLow {
		recs = append(recs, "Try to increase physical activity gradually - aim for 30 minutes daily.")
	} else if rec.ActivityLevel == domain.ActivityHigh && risk >= domain.RiskMedium {
		recs = append(recs, "Consider moderating intense activity given your current health metrics.")
	}

	// 风险分级总结
	switch risk {
	case domain.RiskHigh:
		recs = append(recs,
			"HIGH RISK ALERT: Schedule an immediate consultation with your healthcare provider.",
			"Consider emergency services if symptoms worsen.",
		)
	case domain.RiskMedium:
		recs = append(recs,
			"Schedule a check-up with your healthcare provider within 24-48 hours.",
			"Continue monitoring your vitals closely.",
		)
	default:
		recs = append(recs,
			"Your vitals look good! Maintain healthy lifestyle habits.",
			"Stay hydrated and get adequate rest.",
		)
	}

	// 异常标记放在最后
	if anomaly == domain.StatusAnomaly {
		recs = append(recs, "Unusual pattern detected in your health data. Monitor closely and consult a doctor if concerned.")
	}

	return recs
}
