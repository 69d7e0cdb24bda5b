// Package advisor 调用生成式 AI 服务，根据最新体征与历史趋势生成个性化健康建议。
// 未配置 API Key 时禁用，调用方回退到规则引擎。
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/TumainiC/Medical-app/internal/domain"
)

// ErrDisabled 未配置 API Key
var ErrDisabled = errors.New("advisor: disabled (no API key configured)")

// Trends 各通道最近 N 个点的历史序列，作为提示词上下文
type Trends struct {
	HeartRate   []float64 `json:"heart_rate"`
	BloodOxygen []float64 `json:"blood_oxygen"`
	Temperature []float64 `json:"temperature"`
}

// Insights AI 生成的健康洞察
type Insights struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
	Model           string   `json:"model"`
	GeneratedAt     string   `json:"generated_at"`
}

// generateContent 请求/响应结构（generativelanguage v1beta）
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Advisor 生成式 AI 健康顾问客户端
type Advisor struct {
	httpClient *resty.Client
	apiKey     string
	model      string
	logger     *zap.Logger
}

// New 创建顾问客户端；apiKey 为空时返回禁用状态的客户端
func New(baseURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *Advisor {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Advisor{
		httpClient: client,
		apiKey:     apiKey,
		model:      model,
		logger:     logger,
	}
}

// Enabled 是否已配置可用
func (a *Advisor) Enabled() bool {
	return a.apiKey != ""
}

// GenerateInsights 基于最新记录与趋势生成综合洞察
func (a *Advisor) GenerateInsights(ctx context.Context, rec domain.AnalyzedRecord, trends Trends) (*Insights, error) {
	if !a.Enabled() {
		return nil, ErrDisabled
	}

	prompt := buildPrompt(rec, trends)

	a.logger.Info("Calling generative AI for health insights",
		zap.String("user_id", rec.UserID),
		zap.String("model", a.model),
	)

	var response generateResponse
	resp, err := a.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", a.apiKey).
		SetBody(generateRequest{
			Contents: []content{{Parts: []part{{Text: prompt}}}},
		}).
		SetResult(&response).
		SetError(&response).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", a.model))

	if err != nil {
		a.logger.Error("Generative AI call failed", zap.Error(err))
		return nil, fmt.Errorf("failed to call generative AI: %w", err)
	}
	if response.Error != nil {
		a.logger.Error("Generative AI returned error",
			zap.Int("code", response.Error.Code),
			zap.String("status", response.Error.Status),
			zap.String("message", response.Error.Message),
		)
		return nil, fmt.Errorf("generative AI error: %s (code: %d)", response.Error.Message, response.Error.Code)
	}
	if resp.IsError() || len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("generative AI returned no candidates (status: %d)", resp.StatusCode())
	}

	text := response.Candidates[0].Content.Parts[0].Text
	insights := &Insights{
		Summary:         summaryOf(text),
		Recommendations: parseRecommendations(text),
		Model:           a.model,
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if len(insights.Recommendations) == 0 {
		return nil, fmt.Errorf("generative AI response contained no recommendations")
	}

	a.logger.Info("Generated AI health insights",
		zap.String("user_id", rec.UserID),
		zap.Int("recommendation_count", len(insights.Recommendations)),
	)
	return insights, nil
}

// buildPrompt 组装提示词：当前体征、评分结果与最近趋势
func buildPrompt(rec domain.AnalyzedRecord, trends Trends) string {
	var b strings.Builder
	b.WriteString("You are a health advisor reviewing wearable device vitals. ")
	b.WriteString("Based on the data below, write a one-paragraph summary followed by 3-5 actionable recommendations, each on its own line starting with \"- \".\n\n")
	b.WriteString("Current vitals:\n")
	fmt.Fprintf(&b, "- Heart rate: %d bpm\n", rec.HeartRate)
	fmt.Fprintf(&b, "- Blood oxygen: %d%%\n", rec.BloodOxygen)
	fmt.Fprintf(&b, "- Temperature: %.1f C\n", rec.Temperature)
	fmt.Fprintf(&b, "- Respiration rate: %d breaths/min\n", rec.RespirationRate)
	fmt.Fprintf(&b, "- Activity level: %s, steps: %d, sleep quality: %s\n", rec.ActivityLevel, rec.Steps, rec.SleepQuality)
	fmt.Fprintf(&b, "\nAssessment: health score %d/100, %s, anomaly status %s\n", rec.HealthScore, rec.RiskLevel, rec.AnomalyStatus)

	if len(trends.HeartRate) > 0 {
		b.WriteString("\nRecent trends (oldest to newest):\n")
		fmt.Fprintf(&b, "- Heart rate: %s\n", formatSeries(trends.HeartRate))
		fmt.Fprintf(&b, "- Blood oxygen: %s\n", formatSeries(trends.BloodOxygen))
		fmt.Fprintf(&b, "- Temperature: %s\n", formatSeries(trends.Temperature))
	}
	return b.String()
}

func formatSeries(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.1f", v)
	}
	return strings.Join(parts, ", ")
}

// summaryOf 取建议列表之前的段落作为摘要
func summaryOf(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			break
		}
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, " ")
}

// parseRecommendations 提取 "- " / "* " 列表项
func parseRecommendations(text string) []string {
	var recs []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") {
			recs = append(recs, strings.TrimSpace(trimmed[2:]))
		} else if strings.HasPrefix(trimmed, "* ") {
			recs = append(recs, strings.TrimSpace(trimmed[2:]))
		}
	}
	return recs
}
