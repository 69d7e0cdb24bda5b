// Package scoring 健康评分核心
//
// 三个纯函数：
// - Score：0-100 综合健康分（按通道扣分后截断）
// - Classify：Low/Medium/High 风险分级（加分制）
// - Recommend：规则级联生成建议文本
//
// 三者均无共享可变状态，可被任意 goroutine 并发调用。
// 注意：评分与分级使用的阈值表刻意不同（体温档位 37.2 vs 37.5），
// 两者结论不保证一致。
package scoring

// Band 单通道的数值区间（闭区间端点语义见各阈值表注释）
type Band struct {
	Min float64
	Max float64
}

// Contains 闭区间判断 [Min, Max]
func (b Band) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// ScoreThresholds 健康分阈值表
//
// 通道独立扣分：正常档 0 分，轻度偏离扣 MinorPenalty，重度偏离扣
// SeverePenalty。心率 50 和 120 落在轻度档（闭区间端点）。
type ScoreThresholds struct {
	// 心率：正常 [60,100]，轻度 [50,60) ∪ (100,120]，其余重度
	HeartRateNormal Band
	HeartRateMinor  Band // 轻度档的外边界 [50,120]
	HeartRateMinorPenalty  int
	HeartRateSeverePenalty int

	// 血氧：正常 ≥95，轻度 [90,95)，<90 重度
	BloodOxygenNormalMin int
	BloodOxygenMinorMin  int
	BloodOxygenMinorPenalty  int
	BloodOxygenSeverePenalty int

	// 体温：正常 [36.1,37.2]，轻度 [35.5,36.1) ∪ (37.2,38.0]，其余重度
	TemperatureNormal Band
	TemperatureMinor  Band // 轻度档的外边界 [35.5,38.0]
	TemperatureMinorPenalty  int
	TemperatureSeverePenalty int
}

// RiskThresholds 风险分级阈值表
//
// 加分制：每通道重度 +2、中度 +1；总分 ≥4 High，≥2 Medium，否则 Low。
// 体温中度上限是 37.5（与健康分的 37.2 不同，保留原始口径）。
type RiskThresholds struct {
	HeartRateSevere   Band // 重度档外边界：<Min 或 >Max 记 +2
	HeartRateModerate Band // 中度档外边界：落在重度之外且 <Min 或 >Max 记 +1

	BloodOxygenSevereMax   int // <该值 +2
	BloodOxygenModerateMax int // <该值 +1

	TemperatureSevere   Band
	TemperatureModerate Band

	HighMin   int // 总分 ≥HighMin → High
	MediumMin int // 总分 ≥MediumMin → Medium
}

// DefaultScoreThresholds 默认健康分阈值
func DefaultScoreThresholds() ScoreThresholds {
	return ScoreThresholds{
		HeartRateNormal:        Band{Min: 60, Max: 100},
		HeartRateMinor:         Band{Min: 50, Max: 120},
		HeartRateMinorPenalty:  10,
		HeartRateSeverePenalty: 25,

		BloodOxygenNormalMin:     95,
		BloodOxygenMinorMin:      90,
		BloodOxygenMinorPenalty:  15,
		BloodOxygenSeverePenalty: 30,

		TemperatureNormal:        Band{Min: 36.1, Max: 37.2},
		TemperatureMinor:         Band{Min: 35.5, Max: 38.0},
		TemperatureMinorPenalty:  10,
		TemperatureSeverePenalty: 20,
	}
}

// DefaultRiskThresholds 默认风险分级阈值
func DefaultRiskThresholds() RiskThresholds {
	return RiskThresholds{
		HeartRateSevere:   Band{Min: 50, Max: 120},
		HeartRateModerate: Band{Min: 60, Max: 100},

		BloodOxygenSevereMax:   90,
		BloodOxygenModerateMax: 95,

		TemperatureSevere:   Band{Min: 35.5, Max: 38.0},
		TemperatureModerate: Band{Min: 36.1, Max: 37.5},

		HighMin:   4,
		MediumMin: 2,
	}
}
