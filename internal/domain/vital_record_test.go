package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/TumainiC/Medical-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() domain.VitalRecord {
	return domain.VitalRecord{
		UserID:          "user_001",
		Timestamp:       time.Unix(1700000000, 0),
		HeartRate:       75,
		BloodOxygen:     98,
		Temperature:     36.6,
		RespirationRate: 16,
		ActivityLevel:   domain.ActivityModerate,
		Steps:           120,
		SleepQuality:    domain.SleepGood,
	}
}

func TestVitalRecord_Validate_AcceptsWellFormedRecord(t *testing.T) {
	require.NoError(t, validRecord().Validate())
}

func TestVitalRecord_Validate_RejectsMissingOrOutOfDomain(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(*domain.VitalRecord)
		field string
	}{
		{"missing user", func(r *domain.VitalRecord) { r.UserID = "" }, "user_id"},
		{"missing timestamp", func(r *domain.VitalRecord) { r.Timestamp = time.Time{} }, "timestamp"},
		{"zero heart rate", func(r *domain.VitalRecord) { r.HeartRate = 0 }, "heart_rate"},
		{"negative blood oxygen", func(r *domain.VitalRecord) { r.BloodOxygen = -1 }, "blood_oxygen"},
		{"zero blood oxygen", func(r *domain.VitalRecord) { r.BloodOxygen = 0 }, "blood_oxygen"},
		{"blood oxygen above 100", func(r *domain.VitalRecord) { r.BloodOxygen = 101 }, "blood_oxygen"},
		{"implausible temperature", func(r *domain.VitalRecord) { r.Temperature = 0 }, "temperature"},
		{"zero respiration", func(r *domain.VitalRecord) { r.RespirationRate = 0 }, "respiration_rate"},
		{"negative steps", func(r *domain.VitalRecord) { r.Steps = -5 }, "steps"},
		{"unknown activity", func(r *domain.VitalRecord) { r.ActivityLevel = "extreme" }, "activity_level"},
		{"unknown sleep quality", func(r *domain.VitalRecord) { r.SleepQuality = "amazing" }, "sleep_quality"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := validRecord()
			tc.mut(&rec)
			err := rec.Validate()
			require.Error(t, err)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestVitalRecord_Validate_RejectsPayloadWithOmittedChannel(t *testing.T) {
	// 缺失的数值通道解码为零值，必须在边界被拒绝，而不是按 0 参与评分
	payload := `{
		"user_id": "user_001",
		"timestamp": "2023-11-14T22:13:20Z",
		"heart_rate": 75,
		"temperature": 36.6,
		"respiration_rate": 16,
		"activity_level": "moderate",
		"steps": 120,
		"sleep_quality": "good"
	}`

	var rec domain.VitalRecord
	require.NoError(t, json.Unmarshal([]byte(payload), &rec))
	require.Equal(t, 0, rec.BloodOxygen)

	err := rec.Validate()
	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "blood_oxygen", verr.Field)
}

func TestRiskLevel_JSONRoundTrip(t *testing.T) {
	for _, l := range []domain.RiskLevel{domain.RiskLow, domain.RiskMedium, domain.RiskHigh} {
		b, err := json.Marshal(l)
		require.NoError(t, err)

		var out domain.RiskLevel
		require.NoError(t, json.Unmarshal(b, &out))
		assert.Equal(t, l, out)
	}

	var l domain.RiskLevel
	assert.Error(t, json.Unmarshal([]byte(`"Quite Risky"`), &l))
}

func TestVitalRecord_Encodings(t *testing.T) {
	rec := validRecord()
	rec.ActivityLevel = domain.ActivityLow
	rec.SleepQuality = domain.SleepExcellent
	assert.Equal(t, 0, rec.ActivityEncoded())
	assert.Equal(t, 3, rec.SleepQualityEncoded())
}
