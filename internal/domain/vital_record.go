package domain

import (
	"fmt"
	"time"
)

// ActivityLevel 活动水平（可穿戴设备上报的活动档位）
type ActivityLevel string

const (
	ActivityLow      ActivityLevel = "low"
	ActivityModerate ActivityLevel = "moderate"
	ActivityHigh     ActivityLevel = "high"
)

// SleepQuality 睡眠质量档位
type SleepQuality string

const (
	SleepPoor      SleepQuality = "poor"
	SleepFair      SleepQuality = "fair"
	SleepGood      SleepQuality = "good"
	SleepExcellent SleepQuality = "excellent"
)

// VitalRecord 一次可穿戴设备观测记录
//
// 记录一经生成不可变：评分/分级只读取字段，派生结果放在 AnalyzedRecord，
// 不回写原始测量值。
type VitalRecord struct {
	UserID          string        `json:"user_id"`
	Timestamp       time.Time     `json:"timestamp"`
	HeartRate       int           `json:"heart_rate"`       // bpm
	BloodOxygen     int           `json:"blood_oxygen"`     // SpO2 百分比
	Temperature     float64       `json:"temperature"`      // 摄氏度
	RespirationRate int           `json:"respiration_rate"` // 次/分钟
	ActivityLevel   ActivityLevel `json:"activity_level"`
	Steps           int           `json:"steps"`
	SleepQuality    SleepQuality  `json:"sleep_quality"`
}

// ValidationError 边界校验错误（字段缺失/越界）
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid vital record: field %s: %s", e.Field, e.Reason)
}

// Validate 在系统边界做一次性校验
//
// 策略：必填数值通道缺失或越界时直接拒绝整条记录，
// 评分核心不做默认值兜底，也不会产生部分结果。
func (r VitalRecord) Validate() error {
	if r.UserID == "" {
		return &ValidationError{Field: "user_id", Reason: "required"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "required"}
	}
	if r.HeartRate <= 0 || r.HeartRate > 300 {
		return &ValidationError{Field: "heart_rate", Reason: fmt.Sprintf("out of range: %d", r.HeartRate)}
	}
	// 0% 血氧不是活体读数；缺失字段解码为 0，同样在这里拒绝
	if r.BloodOxygen <= 0 || r.BloodOxygen > 100 {
		return &ValidationError{Field: "blood_oxygen", Reason: fmt.Sprintf("out of range: %d", r.BloodOxygen)}
	}
	if r.Temperature < 25.0 || r.Temperature > 45.0 {
		return &ValidationError{Field: "temperature", Reason: fmt.Sprintf("out of range: %.1f", r.Temperature)}
	}
	if r.RespirationRate <= 0 || r.RespirationRate > 100 {
		return &ValidationError{Field: "respiration_rate", Reason: fmt.Sprintf("out of range: %d", r.RespirationRate)}
	}
	if r.Steps < 0 {
		return &ValidationError{Field: "steps", Reason: "negative"}
	}
	switch r.ActivityLevel {
	case ActivityLow, ActivityModerate, ActivityHigh:
	default:
		return &ValidationError{Field: "activity_level", Reason: fmt.Sprintf("unknown value: %q", r.ActivityLevel)}
	}
	switch r.SleepQuality {
	case SleepPoor, SleepFair, SleepGood, SleepExcellent:
	default:
		return &ValidationError{Field: "sleep_quality", Reason: fmt.Sprintf("unknown value: %q", r.SleepQuality)}
	}
	return nil
}

// ActivityEncoded 活动水平数值编码（low=0, moderate=1, high=2）
// 用于异常检测特征向量
func (r VitalRecord) ActivityEncoded() int {
	switch r.ActivityLevel {
	case ActivityLow:
		return 0
	case ActivityModerate:
		return 1
	case ActivityHigh:
		return 2
	default:
		return 1
	}
}

// SleepQualityEncoded 睡眠质量数值编码（poor=0 ... excellent=3）
func (r VitalRecord) SleepQualityEncoded() int {
	switch r.SleepQuality {
	case SleepPoor:
		return 0
	case SleepFair:
		return 1
	case SleepGood:
		return 2
	case SleepExcellent:
		return 3
	default:
		return 1
	}
}
