package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/TumainiC/Medical-app/internal/advisor"
	"github.com/TumainiC/Medical-app/internal/anomaly"
	"github.com/TumainiC/Medical-app/internal/config"
	"github.com/TumainiC/Medical-app/internal/domain"
	"github.com/TumainiC/Medical-app/internal/scoring"
	"github.com/TumainiC/Medical-app/internal/simulator"
)

// trendPoints 趋势序列取最近多少个点
const trendPoints = 20

// AnalysisService 分析服务接口：评分、分级、异常检测与建议生成的编排层
type AnalysisService interface {
	// AnalyzeRecord 分析单条记录
	AnalyzeRecord(ctx context.Context, rec domain.VitalRecord) (domain.AnalyzedRecord, error)
	// AnalyzeBatch 批量分析并计算聚合统计
	AnalyzeBatch(ctx context.Context, recs []domain.VitalRecord) ([]domain.AnalyzedRecord, *domain.AnalysisSummary, error)
	// Recommendations 生成建议：优先 AI 顾问，失败或未启用时回退规则引擎
	Recommendations(ctx context.Context, rec domain.AnalyzedRecord, trends advisor.Trends) *RecommendationResult
	// Trends 从历史记录提取各通道最近的趋势序列
	Trends(recs []domain.AnalyzedRecord) advisor.Trends
	// ModelInfo 返回当前异常检测模型的元信息
	ModelInfo() ModelInfo
}

// RecommendationResult 建议生成结果
type RecommendationResult struct {
	Recommendations []string          `json:"recommendations"`
	UsingAI         bool              `json:"using_ai"`
	AIInsights      *advisor.Insights `json:"ai_insights,omitempty"`
}

// ModelInfo 异常检测模型元信息
type ModelInfo struct {
	ModelType         string             `json:"model_type"`
	Threshold         float64            `json:"threshold"`
	Fitted            bool               `json:"fitted"`
	FeatureImportance map[string]float64 `json:"feature_importance,omitempty"`
	AdvisorStatus     string             `json:"advisor_status"`
}

// analysisService 分析服务实现
type analysisService struct {
	detector *anomaly.Detector
	advisor  *advisor.Advisor
	logger   *zap.Logger
}

// NewAnalysisService 创建分析服务
func NewAnalysisService(detector *anomaly.Detector, adv *advisor.Advisor, logger *zap.Logger) AnalysisService {
	return &analysisService{
		detector: detector,
		advisor:  adv,
		logger:   logger,
	}
}

func (s *analysisService) AnalyzeRecord(ctx context.Context, rec domain.VitalRecord) (domain.AnalyzedRecord, error) {
	result, err := s.detector.Predict(rec)
	if err != nil {
		return domain.AnalyzedRecord{}, fmt.Errorf("failed to run anomaly detection: %w", err)
	}

	return domain.AnalyzedRecord{
		VitalRecord:   rec,
		HealthScore:   scoring.Score(rec),
		RiskLevel:     scoring.Classify(rec),
		AnomalyStatus: result.Status,
		AnomalyScore:  result.Score,
	}, nil
}

func (s *analysisService) AnalyzeBatch(ctx context.Context, recs []domain.VitalRecord) ([]domain.AnalyzedRecord, *domain.AnalysisSummary, error) {
	if len(recs) == 0 {
		return nil, nil, fmt.Errorf("no records to analyze")
	}

	analyzed := make([]domain.AnalyzedRecord, 0, len(recs))
	summary := &domain.AnalysisSummary{
		TotalRecords:     len(recs),
		RiskDistribution: make(map[string]int),
	}
	scoreSum := 0

	for _, rec := range recs {
		ar, err := s.AnalyzeRecord(ctx, rec)
		if err != nil {
			return nil, nil, err
		}
		analyzed = append(analyzed, ar)

		scoreSum += ar.HealthScore
		summary.RiskDistribution[ar.RiskLevel.String()]++
		if ar.AnomalyStatus == domain.StatusAnomaly {
			summary.NumAnomalies++
		}
	}

	summary.AnomalyRate = float64(summary.NumAnomalies) / float64(summary.TotalRecords) * 100
	summary.AvgHealthScore = float64(scoreSum) / float64(summary.TotalRecords)

	s.logger.Info("Batch analysis completed",
		zap.Int("total_records", summary.TotalRecords),
		zap.Int("num_anomalies", summary.NumAnomalies),
		zap.Float64("avg_health_score", summary.AvgHealthScore),
	)
	return analyzed, summary, nil
}

func (s *analysisService) Recommendations(ctx context.Context, rec domain.AnalyzedRecord, trends advisor.Trends) *RecommendationResult {
	if s.advisor != nil && s.advisor.Enabled() {
		insights, err := s.advisor.GenerateInsights(ctx, rec, trends)
		if err == nil {
			return &RecommendationResult{
				Recommendations: insights.Recommendations,
				UsingAI:         true,
				AIInsights:      insights,
			}
		}
		s.logger.Warn("AI advisor failed, falling back to rule engine",
			zap.String("user_id", rec.UserID),
			zap.Error(err),
		)
	}

	return &RecommendationResult{
		Recommendations: scoring.Recommend(rec.VitalRecord, rec.AnomalyStatus, rec.RiskLevel),
		UsingAI:         false,
	}
}

func (s *analysisService) Trends(recs []domain.AnalyzedRecord) advisor.Trends {
	start := 0
	if len(recs) > trendPoints {
		start = len(recs) - trendPoints
	}

	trends := advisor.Trends{}
	for _, rec := range recs[start:] {
		trends.HeartRate = append(trends.HeartRate, float64(rec.HeartRate))
		trends.BloodOxygen = append(trends.BloodOxygen, float64(rec.BloodOxygen))
		trends.Temperature = append(trends.Temperature, rec.Temperature)
	}
	return trends
}

func (s *analysisService) ModelInfo() ModelInfo {
	info := ModelInfo{
		ModelType:     "zscore",
		Threshold:     s.detector.Threshold,
		Fitted:        s.detector.Fitted,
		AdvisorStatus: "Inactive",
	}
	if s.detector.Fitted {
		info.FeatureImportance = s.detector.FeatureImportance()
	}
	if s.advisor != nil && s.advisor.Enabled() {
		info.AdvisorStatus = "Active"
	}
	return info
}

// BootstrapDetector 加载已保存的模型；不存在或损坏时用模拟数据训练并落盘
func BootstrapDetector(cfg config.ModelConfig, simCfg config.SimulatorConfig, logger *zap.Logger) (*anomaly.Detector, error) {
	detector, err := anomaly.Load(cfg.Path)
	if err == nil {
		logger.Info("Loaded anomaly detection model", zap.String("path", cfg.Path))
		return detector, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Failed to load saved model, retraining", zap.String("path", cfg.Path), zap.Error(err))
	}

	logger.Info("Training anomaly detection model on simulated data",
		zap.Int("train_users", cfg.TrainUsers),
		zap.Int("train_per_user", cfg.TrainPerUser),
	)

	sim := simulator.NewWithOptions(simCfg.Seed, simCfg.AnomalyRate, simCfg.Interval)
	start := time.Now().Add(-time.Duration(cfg.TrainPerUser) * simCfg.Interval)
	records := sim.GenerateMultiUserData(cfg.TrainUsers, cfg.TrainPerUser, start)

	detector = anomaly.NewDetector(cfg.ZThreshold)
	if err := detector.Fit(records); err != nil {
		return nil, fmt.Errorf("failed to train anomaly detector: %w", err)
	}

	if mkErr := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); mkErr != nil {
		logger.Warn("Failed to create model directory", zap.Error(mkErr))
	} else if saveErr := detector.Save(cfg.Path); saveErr != nil {
		logger.Warn("Failed to save trained model", zap.String("path", cfg.Path), zap.Error(saveErr))
	} else {
		logger.Info("Saved trained model", zap.String("path", cfg.Path))
	}
	return detector, nil
}
