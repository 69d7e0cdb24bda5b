package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TumainiC/Medical-app/internal/advisor"
	"github.com/TumainiC/Medical-app/internal/domain"
	"github.com/TumainiC/Medical-app/internal/repository"
	"github.com/TumainiC/Medical-app/internal/service"
	"github.com/TumainiC/Medical-app/internal/simulator"
	"github.com/TumainiC/Medical-app/internal/store"
	"github.com/TumainiC/Medical-app/internal/streams"
)

const (
	maxBodyBytes     = 4 << 20
	defaultUserID    = "demo_user"
	defaultNumRecs   = 100
	defaultHistLimit = 100
)

// HealthHandler 健康分析 API
type HealthHandler struct {
	sim          *simulator.Simulator
	simMu        sync.Mutex // Simulator 非并发安全
	analysis     service.AnalysisService
	vitalsRepo   repository.VitalsRepository
	kv           store.KV
	redisClient  *redis.Client
	ingestStream string
	logger       *zap.Logger
}

// NewHealthHandler 创建健康分析 handler；redisClient 可为 nil（禁用采集转投）
func NewHealthHandler(
	sim *simulator.Simulator,
	analysis service.AnalysisService,
	vitalsRepo repository.VitalsRepository,
	kv store.KV,
	redisClient *redis.Client,
	ingestStream string,
	logger *zap.Logger,
) *HealthHandler {
	return &HealthHandler{
		sim:          sim,
		analysis:     analysis,
		vitalsRepo:   vitalsRepo,
		kv:           kv,
		redisClient:  redisClient,
		ingestStream: ingestStream,
		logger:       logger,
	}
}

// generateUserData 串行化模拟器访问
func (h *HealthHandler) generateUserData(userID string, n int) []domain.VitalRecord {
	h.simMu.Lock()
	defer h.simMu.Unlock()
	start := time.Now().Add(-time.Duration(n) * h.sim.Interval())
	return h.sim.GenerateUserData(userID, n, start)
}

// refreshSnapshot 刷新最新快照缓存（失败只记日志）
func (h *HealthHandler) refreshSnapshot(r *http.Request, rec domain.VitalRecord) {
	if h.kv == nil {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := h.kv.Set(r.Context(), store.LatestSnapshotKey(rec.UserID), string(raw), 24*time.Hour); err != nil {
		h.logger.Warn("Failed to refresh latest snapshot", zap.String("user_id", rec.UserID), zap.Error(err))
	}
}

// latestSnapshot 读取用户最新快照缓存；未命中或内容不可用时返回 nil
func (h *HealthHandler) latestSnapshot(r *http.Request, userID string) *domain.VitalRecord {
	if h.kv == nil {
		return nil
	}
	raw, err := h.kv.Get(r.Context(), store.LatestSnapshotKey(userID))
	if err != nil {
		if !errors.Is(err, store.ErrMiss) {
			h.logger.Warn("Failed to read latest snapshot", zap.String("user_id", userID), zap.Error(err))
		}
		return nil
	}
	var rec domain.VitalRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec.Validate() != nil {
		return nil
	}
	return &rec
}

// Simulate POST /api/v1/health/simulate
// body: {"user_id": "user_001", "num_records": 100}
func (h *HealthHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID     string `json:"user_id"`
		NumRecords int    `json:"num_records"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if req.UserID == "" {
		req.UserID = defaultUserID
	}
	if req.NumRecords <= 0 {
		req.NumRecords = defaultNumRecs
	}

	records := h.generateUserData(req.UserID, req.NumRecords)
	if err := h.vitalsRepo.InsertBatch(r.Context(), records); err != nil {
		h.logger.Error("Failed to persist simulated records", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to store simulated records"))
		return
	}
	h.refreshSnapshot(r, records[len(records)-1])

	h.logger.Info("Generated simulated health records",
		zap.String("user_id", req.UserID),
		zap.Int("num_records", len(records)),
	)

	sample := records
	if len(sample) > 10 {
		sample = sample[:10]
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"analysis_id": uuid.NewString(),
		"user_id":     req.UserID,
		"num_records": len(records),
		"data":        sample,
	}))
}

// analyzeResponse 批量分析响应体
type analyzeResponse struct {
	AnalysisID      string                  `json:"analysis_id"`
	UserID          string                  `json:"user_id"`
	UsingAI         bool                    `json:"using_ai"`
	Analysis        *domain.AnalysisSummary `json:"analysis"`
	CurrentStatus   domain.AnalyzedRecord   `json:"current_status"`
	Recommendations []string                `json:"recommendations"`
	AIInsights      *advisor.Insights       `json:"ai_insights,omitempty"`
	DetailedResults []domain.AnalyzedRecord `json:"detailed_results"`
}

// Analyze POST /api/v1/health/analyze
// body: {"user_id": "...", "data": [...]}；data 缺省时读取该用户已存储的历史
func (h *HealthHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string               `json:"user_id"`
		Data   []domain.VitalRecord `json:"data"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	records := req.Data
	if len(records) == 0 {
		if req.UserID == "" {
			writeJSON(w, http.StatusBadRequest, Fail("no data provided or found for user"))
			return
		}
		var err error
		records, err = h.vitalsRepo.GetHistory(r.Context(), req.UserID, repository.HistoryFilters{Limit: defaultHistLimit})
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeJSON(w, http.StatusBadRequest, Fail("no data provided or found for user"))
				return
			}
			h.logger.Error("Failed to load history for analysis", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, Fail("failed to load user history"))
			return
		}
	} else {
		for _, rec := range records {
			if err := rec.Validate(); err != nil {
				writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
				return
			}
		}
	}

	analyzed, summary, err := h.analysis.AnalyzeBatch(r.Context(), records)
	if err != nil {
		h.logger.Error("Batch analysis failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("analysis failed"))
		return
	}

	latest := analyzed[len(analyzed)-1]
	trends := h.analysis.Trends(analyzed)
	recResult := h.analysis.Recommendations(r.Context(), latest, trends)

	detailed := analyzed
	if len(detailed) > 20 {
		detailed = detailed[len(detailed)-20:]
	}
	writeJSON(w, http.StatusOK, Ok(analyzeResponse{
		AnalysisID:      uuid.NewString(),
		UserID:          req.UserID,
		UsingAI:         recResult.UsingAI,
		Analysis:        summary,
		CurrentStatus:   latest,
		Recommendations: recResult.Recommendations,
		AIInsights:      recResult.AIInsights,
		DetailedResults: detailed,
	}))
}

// Realtime POST /api/v1/health/realtime
// body: 单条体征记录；同步返回分析结果，异步转投采集 Stream 持久化
func (h *HealthHandler) Realtime(w http.ResponseWriter, r *http.Request) {
	var rec domain.VitalRecord
	if err := readBodyJSON(r, maxBodyBytes, &rec); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if rec.UserID == "" {
		rec.UserID = "unknown"
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	if err := rec.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}

	analyzed, err := h.analysis.AnalyzeRecord(r.Context(), rec)
	if err != nil {
		h.logger.Error("Realtime analysis failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("analysis failed"))
		return
	}
	recResult := h.analysis.Recommendations(r.Context(), analyzed, advisor.Trends{})

	// 快照同步刷新；持久化走采集管道，由 Stream 消费端异步落库
	h.refreshSnapshot(r, rec)
	if h.redisClient != nil {
		if _, err := streams.PublishJSON(r.Context(), h.redisClient, h.ingestStream, rec); err != nil {
			h.logger.Warn("Failed to publish realtime record to ingest stream", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"analysis_id": uuid.NewString(),
		"user_id":     rec.UserID,
		"using_ai":    recResult.UsingAI,
		"timestamp":   rec.Timestamp,
		"metrics": map[string]any{
			"heart_rate":       rec.HeartRate,
			"blood_oxygen":     rec.BloodOxygen,
			"temperature":      rec.Temperature,
			"respiration_rate": rec.RespirationRate,
			"activity_level":   rec.ActivityLevel,
		},
		"analysis": map[string]any{
			"health_score":   analyzed.HealthScore,
			"anomaly_status": analyzed.AnomalyStatus,
			"anomaly_score":  analyzed.AnomalyScore,
			"risk_level":     analyzed.RiskLevel,
		},
		"recommendations": recResult.Recommendations,
		"ai_insights":     recResult.AIInsights,
	}))
}

// History GET /api/v1/health/history/{user_id}?limit=&start_date=&end_date=
func (h *HealthHandler) History(w http.ResponseWriter, r *http.Request, userID string) {
	filters := repository.HistoryFilters{
		Limit:     parseInt(r.URL.Query().Get("limit"), defaultHistLimit),
		StartTime: parseTime(r.URL.Query().Get("start_date")),
		EndTime:   parseTime(r.URL.Query().Get("end_date")),
	}

	records, err := h.vitalsRepo.GetHistory(r.Context(), userID, filters)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, Fail("no data found for user"))
			return
		}
		h.logger.Error("Failed to load history", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to load history"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"user_id": userID,
		"count":   len(records),
		"records": records,
	}))
}

// Statistics GET /api/v1/health/statistics/{user_id}
func (h *HealthHandler) Statistics(w http.ResponseWriter, r *http.Request, userID string) {
	stats, err := h.vitalsRepo.GetStatistics(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, Fail("no data found for user"))
			return
		}
		h.logger.Error("Failed to compute statistics", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to compute statistics"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"user_id":    userID,
		"statistics": stats,
	}))
}

// Users GET /api/v1/health/users
// 已落库用户与仅有快照缓存的用户合并去重
func (h *HealthHandler) Users(w http.ResponseWriter, r *http.Request) {
	userIDs, err := h.vitalsRepo.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list users"))
		return
	}

	seen := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		seen[id] = true
	}
	if h.kv != nil {
		keys, err := h.kv.ScanKeys(r.Context(), store.SnapshotKeyPattern)
		if err != nil {
			h.logger.Warn("Failed to scan snapshot keys", zap.Error(err))
		}
		for _, key := range keys {
			if id := store.UserFromSnapshotKey(key); id != "" && !seen[id] {
				seen[id] = true
				userIDs = append(userIDs, id)
			}
		}
	}
	sort.Strings(userIDs)

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"count": len(userIDs),
		"users": userIDs,
	}))
}

// ModelInfo GET /api/v1/model/info
func (h *HealthHandler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.analysis.ModelInfo()))
}
