package domain

import "fmt"

// RiskLevel 风险分级（序数：Low < Medium < High）
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

// String 与前端展示保持一致的标签
func (l RiskLevel) String() string {
	switch l {
	case RiskLow:
		return "Low Risk"
	case RiskMedium:
		return "Medium Risk"
	case RiskHigh:
		return "High Risk"
	default:
		return fmt.Sprintf("RiskLevel(%d)", int(l))
	}
}

// MarshalJSON 序列化为标签字符串
func (l RiskLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// UnmarshalJSON 从标签字符串反序列化
func (l *RiskLevel) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case `"Low Risk"`:
		*l = RiskLow
	case `"Medium Risk"`:
		*l = RiskMedium
	case `"High Risk"`:
		*l = RiskHigh
	default:
		return fmt.Errorf("unknown risk level: %s", string(b))
	}
	return nil
}

// AnomalyStatus 异常状态（由无监督检测模型产出，对推荐引擎是不透明输入）
type AnomalyStatus string

const (
	StatusNormal  AnomalyStatus = "Normal"
	StatusAnomaly AnomalyStatus = "Anomaly"
)

// AnalyzedRecord 一条记录的完整分析结果
//
// 原始测量字段来自 VitalRecord，派生字段（score/risk/anomaly）由分析服务
// 填充；不修改原始记录。
type AnalyzedRecord struct {
	VitalRecord
	HealthScore   int           `json:"health_score"` // [0,100]
	RiskLevel     RiskLevel     `json:"risk_level"`
	AnomalyStatus AnomalyStatus `json:"anomaly_status"`
	AnomalyScore  float64       `json:"anomaly_score"` // 越低越异常
}

// AnalysisSummary 批量分析的聚合统计
type AnalysisSummary struct {
	TotalRecords     int            `json:"total_records"`
	NumAnomalies     int            `json:"num_anomalies"`
	AnomalyRate      float64        `json:"anomaly_rate"` // 百分比
	AvgHealthScore   float64        `json:"avg_health_score"`
	RiskDistribution map[string]int `json:"risk_distribution"`
}
