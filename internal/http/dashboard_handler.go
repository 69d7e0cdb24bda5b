package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/TumainiC/Medical-app/internal/domain"
	"github.com/TumainiC/Medical-app/internal/repository"
)

// dashboardTrends 仪表盘趋势序列（含健康分与时间轴）
type dashboardTrends struct {
	HeartRate   []float64 `json:"heart_rate"`
	BloodOxygen []float64 `json:"blood_oxygen"`
	Temperature []float64 `json:"temperature"`
	HealthScore []int     `json:"health_score"`
	Timestamps  []string  `json:"timestamps"`
}

// dashboardData 仪表盘聚合视图
type dashboardData struct {
	UserID          string                  `json:"user_id"`
	UsingAI         bool                    `json:"using_ai"`
	LastUpdated     string                  `json:"last_updated"`
	CurrentMetrics  map[string]any          `json:"current_metrics"`
	Status          map[string]any          `json:"status"`
	Trends          dashboardTrends         `json:"trends"`
	Statistics      *domain.AnalysisSummary `json:"statistics"`
	Recommendations []string                `json:"recommendations"`
	AIInsights      any                     `json:"ai_insights,omitempty"`
}

// loadOrSimulate 读取用户历史；没有数据时生成并持久化一批模拟数据
func (h *HealthHandler) loadOrSimulate(r *http.Request, userID string) ([]domain.VitalRecord, error) {
	records, err := h.vitalsRepo.GetHistory(r.Context(), userID, repository.HistoryFilters{Limit: defaultHistLimit})
	if err == nil {
		return records, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	records = h.generateUserData(userID, defaultNumRecs)
	if err := h.vitalsRepo.InsertBatch(r.Context(), records); err != nil {
		return nil, err
	}
	h.refreshSnapshot(r, records[len(records)-1])
	h.logger.Info("Generated dashboard data for new user", zap.String("user_id", userID))
	return records, nil
}

// buildDashboard 分析历史并组装仪表盘视图
func (h *HealthHandler) buildDashboard(r *http.Request, userID string, withRecommendations bool) (*dashboardData, []domain.AnalyzedRecord, error) {
	records, err := h.loadOrSimulate(r, userID)
	if err != nil {
		return nil, nil, err
	}

	// 实时记录先写快照、异步落库；缓存里更新的读数要补进视图
	if snap := h.latestSnapshot(r, userID); snap != nil && snap.Timestamp.After(records[len(records)-1].Timestamp) {
		records = append(records, *snap)
	}

	analyzed, summary, err := h.analysis.AnalyzeBatch(r.Context(), records)
	if err != nil {
		return nil, nil, err
	}
	latest := analyzed[len(analyzed)-1]

	start := 0
	if len(analyzed) > 20 {
		start = len(analyzed) - 20
	}
	trends := dashboardTrends{}
	for _, rec := range analyzed[start:] {
		trends.HeartRate = append(trends.HeartRate, float64(rec.HeartRate))
		trends.BloodOxygen = append(trends.BloodOxygen, float64(rec.BloodOxygen))
		trends.Temperature = append(trends.Temperature, rec.Temperature)
		trends.HealthScore = append(trends.HealthScore, rec.HealthScore)
		trends.Timestamps = append(trends.Timestamps, rec.Timestamp.Format("2006-01-02 15:04:05"))
	}

	data := &dashboardData{
		UserID:      userID,
		LastUpdated: latest.Timestamp.Format("2006-01-02 15:04:05"),
		CurrentMetrics: map[string]any{
			"heart_rate":       latest.HeartRate,
			"blood_oxygen":     latest.BloodOxygen,
			"temperature":      latest.Temperature,
			"respiration_rate": latest.RespirationRate,
			"health_score":     latest.HealthScore,
		},
		Status: map[string]any{
			"anomaly":    latest.AnomalyStatus,
			"risk_level": latest.RiskLevel,
		},
		Trends:     trends,
		Statistics: summary,
	}

	if withRecommendations {
		recResult := h.analysis.Recommendations(r.Context(), latest, h.analysis.Trends(analyzed))
		data.UsingAI = recResult.UsingAI
		data.Recommendations = recResult.Recommendations
		if recResult.AIInsights != nil {
			data.AIInsights = recResult.AIInsights
		}
	}
	return data, analyzed, nil
}

// Dashboard GET /api/v1/health/dashboard/{user_id}
func (h *HealthHandler) Dashboard(w http.ResponseWriter, r *http.Request, userID string) {
	data, _, err := h.buildDashboard(r, userID, true)
	if err != nil {
		h.logger.Error("Failed to build dashboard", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to build dashboard"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(data))
}

// DashboardStream GET /api/v1/health/dashboard/{user_id}/stream
//
// SSE 推送顺序：metrics → AI 洞察分片（或规则引擎 fallback）→ complete。
func (h *HealthHandler) DashboardStream(w http.ResponseWriter, r *http.Request, userID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, Fail("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sendEvent := func(v any) {
		payload, err := json.Marshal(v)
		if err != nil {
			return
		}
		_, _ = w.Write([]byte("data: "))
		_, _ = w.Write(payload)
		_, _ = w.Write([]byte("\n\n"))
		flusher.Flush()
	}

	data, analyzed, err := h.buildDashboard(r, userID, false)
	if err != nil {
		h.logger.Error("Failed to build dashboard stream", zap.String("user_id", userID), zap.Error(err))
		sendEvent(map[string]any{"type": "error", "error": "failed to build dashboard"})
		return
	}

	sendEvent(map[string]any{"type": "metrics", "data": data})

	latest := analyzed[len(analyzed)-1]
	recResult := h.analysis.Recommendations(r.Context(), latest, h.analysis.Trends(analyzed))
	if recResult.UsingAI {
		sendEvent(map[string]any{"type": "ai_start", "using_ai": true})
		if recResult.AIInsights.Summary != "" {
			sendEvent(map[string]any{"type": "ai_chunk", "chunk": recResult.AIInsights.Summary})
		}
		for _, rec := range recResult.Recommendations {
			sendEvent(map[string]any{"type": "ai_chunk", "chunk": rec})
		}
		sendEvent(map[string]any{"type": "ai_complete"})
	} else {
		sendEvent(map[string]any{
			"type":            "fallback",
			"using_ai":        false,
			"recommendations": recResult.Recommendations,
		})
	}

	sendEvent(map[string]any{"type": "complete"})
}
