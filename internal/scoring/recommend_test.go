package scoring_test

import (
	"strings"
	"testing"

	"github.com/TumainiC/Medical-app/internal/domain"
	"github.com/TumainiC/Medical-app/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func containsSubstring(t *testing.T, recs []string, sub string) {
	t.Helper()
	for _, r := range recs {
		if strings.Contains(r, sub) {
			return
		}
	}
	t.Fatalf("no recommendation contains %q, got: %v", sub, recs)
}

func TestRecommend_FullyNormalRecord_OnlyLowRiskMessages(t *testing.T) {
	recs := scoring.Recommend(normalRecord(), domain.StatusNormal, domain.RiskLow)

	require.Len(t, recs, 2)
	containsSubstring(t, recs, "vitals look good")
	for _, r := range recs {
		assert.NotContains(t, r, "URGENT")
		assert.NotContains(t, r, "HIGH RISK")
		assert.NotContains(t, r, "Fever")
	}
}

func TestRecommend_CriticalRecord_IncludesAllUrgentMessages(t *testing.T) {
	rec := normalRecord()
	rec.HeartRate = 45
	rec.BloodOxygen = 88
	rec.Temperature = 39.0

	recs := scoring.Recommend(rec, domain.StatusAnomaly, domain.RiskHigh)

	require.GreaterOrEqual(t, len(recs), 5)
	containsSubstring(t, recs, "heart rate is low")
	containsSubstring(t, recs, "URGENT")
	containsSubstring(t, recs, "Fever detected")
	containsSubstring(t, recs, "HIGH RISK ALERT")
	containsSubstring(t, recs, "Unusual pattern detected")
}

func TestRecommend_ActivityRules(t *testing.T) {
	rec := normalRecord()
	rec.ActivityLevel = domain.ActivityLow
	recs := scoring.Recommend(rec, domain.StatusNormal, domain.RiskLow)
	containsSubstring(t, recs, "increase physical activity")

	// 高活动 + 低风险：不提示减量
	rec.ActivityLevel = domain.ActivityHigh
	recs = scoring.Recommend(rec, domain.StatusNormal, domain.RiskLow)
	for _, r := range recs {
		assert.NotContains(t, r, "moderating intense activity")
	}

	// 高活动 + 中/高风险：提示减量
	recs = scoring.Recommend(rec, domain.StatusNormal, domain.RiskMedium)
	containsSubstring(t, recs, "moderating intense activity")
	recs = scoring.Recommend(rec, domain.StatusNormal, domain.RiskHigh)
	containsSubstring(t, recs, "moderating intense activity")
}

func TestRecommend_NestedSubRules(t *testing.T) {
	// SpO2 94：只有一条低血氧提示，没有紧急提示
	rec := normalRecord()
	rec.BloodOxygen = 94
	recs := scoring.Recommend(rec, domain.StatusNormal, domain.RiskLow)
	containsSubstring(t, recs, "Blood oxygen is below normal")
	for _, r := range recs {
		assert.NotContains(t, r, "URGENT")
	}

	// 体温 37.8：升温提示但无发热提示
	rec = normalRecord()
	rec.Temperature = 37.8
	recs = scoring.Recommend(rec, domain.StatusNormal, domain.RiskLow)
	containsSubstring(t, recs, "Elevated temperature")
	for _, r := range recs {
		assert.NotContains(t, r, "Fever detected")
	}
}

func TestRecommend_AnomalyMessageIsLast(t *testing.T) {
	recs := scoring.Recommend(normalRecord(), domain.StatusAnomaly, domain.RiskLow)
	require.NotEmpty(t, recs)
	assert.Contains(t, recs[len(recs)-1], "Unusual pattern detected")
}

func TestRecommend_Idempotent(t *testing.T) {
	rec := normalRecord()
	rec.HeartRate = 110
	rec.BloodOxygen = 92

	first := scoring.Recommend(rec, domain.StatusAnomaly, domain.RiskMedium)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, scoring.Recommend(rec, domain.StatusAnomaly, domain.RiskMedium))
	}
}
