package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TumainiC/Medical-app/internal/domain"
)

func analyzedRecord() domain.AnalyzedRecord {
	return domain.AnalyzedRecord{
		VitalRecord: domain.VitalRecord{
			UserID:          "u1",
			Timestamp:       time.Unix(1700000000, 0),
			HeartRate:       110,
			BloodOxygen:     93,
			Temperature:     37.8,
			RespirationRate: 20,
			ActivityLevel:   domain.ActivityLow,
			Steps:           1200,
			SleepQuality:    domain.SleepFair,
		},
		HealthScore:   55,
		RiskLevel:     domain.RiskMedium,
		AnomalyStatus: domain.StatusAnomaly,
		AnomalyScore:  -3.2,
	}
}

func TestAdvisor_Disabled(t *testing.T) {
	a := New("http://localhost", "", "gemini-pro", time.Second, zap.NewNop())
	assert.False(t, a.Enabled())

	_, err := a.GenerateInsights(context.Background(), analyzedRecord(), Trends{})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestAdvisor_GenerateInsights(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1beta/models/gemini-pro:generateContent", r.URL.Path)
		require.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Contents)
		gotPrompt = req.Contents[0].Parts[0].Text

		resp := generateResponse{}
		resp.Candidates = []struct {
			Content content `json:"content"`
		}{
			{Content: content{Parts: []part{{Text: "Your heart rate is elevated and oxygen is mildly low.\n\n- Rest and avoid exertion today\n- Monitor your oxygen levels hourly\n* Stay hydrated"}}}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	a := New(srv.URL, "test-key", "gemini-pro", 5*time.Second, zap.NewNop())
	require.True(t, a.Enabled())

	insights, err := a.GenerateInsights(context.Background(), analyzedRecord(), Trends{
		HeartRate:   []float64{72, 85, 110},
		BloodOxygen: []float64{98, 95, 93},
		Temperature: []float64{36.6, 37.1, 37.8},
	})
	require.NoError(t, err)

	assert.Equal(t, "Your heart rate is elevated and oxygen is mildly low.", insights.Summary)
	assert.Equal(t, []string{
		"Rest and avoid exertion today",
		"Monitor your oxygen levels hourly",
		"Stay hydrated",
	}, insights.Recommendations)
	assert.Equal(t, "gemini-pro", insights.Model)

	// 提示词包含当前体征与趋势
	assert.Contains(t, gotPrompt, "Heart rate: 110 bpm")
	assert.Contains(t, gotPrompt, "health score 55/100")
	assert.Contains(t, gotPrompt, "72.0, 85.0, 110.0")
}

func TestAdvisor_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	a := New(srv.URL, "bad-key", "gemini-pro", 5*time.Second, zap.NewNop())
	_, err := a.GenerateInsights(context.Background(), analyzedRecord(), Trends{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestAdvisor_NoRecommendationsInResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "All looks fine."}]}}]}`))
	}))
	defer srv.Close()

	a := New(srv.URL, "test-key", "gemini-pro", 5*time.Second, zap.NewNop())
	_, err := a.GenerateInsights(context.Background(), analyzedRecord(), Trends{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recommendations")
}
