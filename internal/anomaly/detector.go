// Package anomaly 生命体征异常检测
//
// 用每通道基线（均值/标准差）+ z-score 判定替代线上旧版的 IsolationForest：
// 训练即拟合基线（等价于 StandardScaler 的 fit），推理对每个特征算 |z|，
// 任一特征越过阈值即判为 Anomaly。模型以 JSON 形式落盘，启动时优先加载。
package anomaly

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/TumainiC/Medical-app/internal/domain"
)

// DefaultZThreshold 判异阈值（|z| ≥ 3 视为异常）
const DefaultZThreshold = 3.0

var ErrNotFitted = errors.New("anomaly detector not fitted")

// 特征顺序与旧版 feature_columns 保持一致
var featureNames = []string{
	"heart_rate",
	"blood_oxygen",
	"temperature",
	"respiration_rate",
	"activity_level_encoded",
	"steps",
}

// FeatureBaseline 单特征基线
type FeatureBaseline struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Detector z-score 异常检测器
//
// Fit 之后不再修改内部状态，Predict 可并发调用。
type Detector struct {
	Threshold float64                    `json:"threshold"`
	Baselines map[string]FeatureBaseline `json:"baselines"`
	Fitted    bool                       `json:"fitted"`
}

// NewDetector 创建未拟合的检测器
func NewDetector(threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultZThreshold
	}
	return &Detector{
		Threshold: threshold,
		Baselines: make(map[string]FeatureBaseline),
	}
}

// Result 单条记录的检测结果
type Result struct {
	Status domain.AnomalyStatus
	// Score 越低越异常（取各特征 |z| 最大值的相反数，
	// 与 score_samples 的"低分=异常"语义对齐）
	Score float64
}

func features(rec domain.VitalRecord) []float64 {
	return []float64{
		float64(rec.HeartRate),
		float64(rec.BloodOxygen),
		rec.Temperature,
		float64(rec.RespirationRate),
		float64(rec.ActivityEncoded()),
		float64(rec.Steps),
	}
}

// Fit 在训练集上拟合每特征基线
func (d *Detector) Fit(records []domain.VitalRecord) error {
	if len(records) < 2 {
		return fmt.Errorf("need at least 2 records to fit, got %d", len(records))
	}

	n := float64(len(records))
	sums := make([]float64, len(featureNames))
	for _, rec := range records {
		for i, v := range features(rec) {
			sums[i] += v
		}
	}

	means := make([]float64, len(featureNames))
	for i := range sums {
		means[i] = sums[i] / n
	}

	variances := make([]float64, len(featureNames))
	for _, rec := range records {
		for i, v := range features(rec) {
			diff := v - means[i]
			variances[i] += diff * diff
		}
	}

	baselines := make(map[string]FeatureBaseline, len(featureNames))
	for i, name := range featureNames {
		baselines[name] = FeatureBaseline{
			Mean:   means[i],
			StdDev: math.Sqrt(variances[i] / n),
		}
	}

	d.Baselines = baselines
	d.Fitted = true
	return nil
}

// Predict 判定单条记录
func (d *Detector) Predict(rec domain.VitalRecord) (Result, error) {
	if !d.Fitted {
		return Result{}, ErrNotFitted
	}

	maxAbsZ := 0.0
	for i, name := range featureNames {
		b, ok := d.Baselines[name]
		if !ok || b.StdDev <= 0 {
			// 零方差特征（如恒定步数）不参与判定
			continue
		}
		z := math.Abs((features(rec)[i] - b.Mean) / b.StdDev)
		if z > maxAbsZ {
			maxAbsZ = z
		}
	}

	status := domain.StatusNormal
	if maxAbsZ >= d.Threshold {
		status = domain.StatusAnomaly
	}
	return Result{Status: status, Score: -maxAbsZ}, nil
}

// PredictBatch 批量判定（保持输入顺序）
func (d *Detector) PredictBatch(records []domain.VitalRecord) ([]Result, error) {
	results := make([]Result, 0, len(records))
	for _, rec := range records {
		r, err := d.Predict(rec)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// FeatureImportance 各特征基线离散度占比（近似重要性，供 /model/info 展示）
func (d *Detector) FeatureImportance() map[string]float64 {
	if !d.Fitted {
		return nil
	}
	total := 0.0
	for _, b := range d.Baselines {
		total += b.StdDev
	}
	if total == 0 {
		return nil
	}
	out := make(map[string]float64, len(d.Baselines))
	for name, b := range d.Baselines {
		out[name] = b.StdDev / total
	}
	return out
}

// Save 模型落盘（JSON）
func (d *Detector) Save(path string) error {
	if !d.Fitted {
		return ErrNotFitted
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal detector: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	return nil
}

// Load 从磁盘加载模型
func Load(path string) (*Detector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	var d Detector
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal detector: %w", err)
	}
	if !d.Fitted {
		return nil, ErrNotFitted
	}
	if d.Threshold <= 0 {
		d.Threshold = DefaultZThreshold
	}
	return &d, nil
}
