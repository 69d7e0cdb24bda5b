package anomaly_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/TumainiC/Medical-app/internal/anomaly"
	"github.com/TumainiC/Medical-app/internal/domain"
	"github.com/TumainiC/Medical-app/internal/simulator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainingSet(t *testing.T) []domain.VitalRecord {
	t.Helper()
	// 异常率 0：训练集是干净的正常带数据
	s := simulator.NewWithOptions(42, 0, time.Minute)
	return s.GenerateMultiUserData(5, 100, time.Unix(1700000000, 0))
}

func TestDetector_PredictBeforeFit_Errors(t *testing.T) {
	d := anomaly.NewDetector(0)
	_, err := d.Predict(domain.VitalRecord{})
	assert.ErrorIs(t, err, anomaly.ErrNotFitted)
}

func TestDetector_Fit_RequiresEnoughData(t *testing.T) {
	d := anomaly.NewDetector(0)
	err := d.Fit([]domain.VitalRecord{{}})
	assert.Error(t, err)
}

func TestDetector_NormalRecordIsNormal(t *testing.T) {
	d := anomaly.NewDetector(0)
	require.NoError(t, d.Fit(trainingSet(t)))

	rec := domain.VitalRecord{
		UserID:          "user_001",
		Timestamp:       time.Unix(1700000000, 0),
		HeartRate:       75,
		BloodOxygen:     97,
		Temperature:     36.5,
		RespirationRate: 16,
		ActivityLevel:   domain.ActivityModerate,
		Steps:           70,
		SleepQuality:    domain.SleepGood,
	}

	res, err := d.Predict(rec)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNormal, res.Status)
	assert.LessOrEqual(t, res.Score, 0.0)
}

func TestDetector_ExtremeVitalsAreAnomalous(t *testing.T) {
	d := anomaly.NewDetector(0)
	require.NoError(t, d.Fit(trainingSet(t)))

	rec := domain.VitalRecord{
		UserID:          "user_001",
		Timestamp:       time.Unix(1700000000, 0),
		HeartRate:       165,
		BloodOxygen:     82,
		Temperature:     40.2,
		RespirationRate: 16,
		ActivityLevel:   domain.ActivityModerate,
		Steps:           70,
		SleepQuality:    domain.SleepGood,
	}

	res, err := d.Predict(rec)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAnomaly, res.Status)
}

func TestDetector_ScoreOrdering(t *testing.T) {
	// 偏离越大，score 越低
	d := anomaly.NewDetector(0)
	require.NoError(t, d.Fit(trainingSet(t)))

	mild := domain.VitalRecord{
		HeartRate: 95, BloodOxygen: 96, Temperature: 36.8,
		RespirationRate: 15, ActivityLevel: domain.ActivityModerate, Steps: 70,
	}
	extreme := mild
	extreme.HeartRate = 170
	extreme.BloodOxygen = 80

	mildRes, err := d.Predict(mild)
	require.NoError(t, err)
	extremeRes, err := d.Predict(extreme)
	require.NoError(t, err)
	assert.Less(t, extremeRes.Score, mildRes.Score)
}

func TestDetector_SaveLoadRoundTrip(t *testing.T) {
	d := anomaly.NewDetector(0)
	require.NoError(t, d.Fit(trainingSet(t)))

	path := filepath.Join(t.TempDir(), "anomaly_detector.json")
	require.NoError(t, d.Save(path))

	loaded, err := anomaly.Load(path)
	require.NoError(t, err)

	rec := domain.VitalRecord{
		HeartRate: 45, BloodOxygen: 88, Temperature: 39.0,
		RespirationRate: 16, ActivityLevel: domain.ActivityLow, Steps: 10,
	}
	want, err := d.Predict(rec)
	require.NoError(t, err)
	got, err := loaded.Predict(rec)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDetector_SaveUnfitted_Errors(t *testing.T) {
	d := anomaly.NewDetector(0)
	err := d.Save(filepath.Join(t.TempDir(), "model.json"))
	assert.ErrorIs(t, err, anomaly.ErrNotFitted)
}

func TestDetector_FeatureImportanceSumsToOne(t *testing.T) {
	d := anomaly.NewDetector(0)
	require.NoError(t, d.Fit(trainingSet(t)))

	imp := d.FeatureImportance()
	require.NotNil(t, imp)
	sum := 0.0
	for _, v := range imp {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}
