package domain

// ChannelStats 单通道统计摘要
type ChannelStats struct {
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std"`
}

// UserStatistics 用户历史数据的统计摘要
type UserStatistics struct {
	HeartRate            ChannelStats   `json:"heart_rate"`
	BloodOxygen          ChannelStats   `json:"blood_oxygen"`
	Temperature          ChannelStats   `json:"temperature"`
	ActivityDistribution map[string]int `json:"activity_distribution"`
	TotalSteps           int            `json:"total_steps"`
	AvgStepsPerRecord    float64        `json:"avg_steps_per_record"`
}
