package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/TumainiC/Medical-app/internal/domain"
)

// PostgresVitalsRepository PostgreSQL 实现
type PostgresVitalsRepository struct {
	db *sql.DB
}

func NewPostgresVitalsRepo(db *sql.DB) *PostgresVitalsRepository {
	return &PostgresVitalsRepository{db: db}
}

var _ VitalsRepository = (*PostgresVitalsRepository)(nil)

// EnsureSchema 建表（幂等）
func (r *PostgresVitalsRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS vital_records (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			heart_rate INTEGER NOT NULL,
			blood_oxygen INTEGER NOT NULL,
			temperature DOUBLE PRECISION NOT NULL,
			respiration_rate INTEGER NOT NULL,
			activity_level TEXT NOT NULL,
			steps INTEGER NOT NULL,
			sleep_quality TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_vital_records_user_ts
			ON vital_records (user_id, timestamp)`)
	if err != nil {
		return fmt.Errorf("failed to ensure vital_records schema: %w", err)
	}
	return nil
}

const insertVitalSQL = `
	INSERT INTO vital_records
		(user_id, timestamp, heart_rate, blood_oxygen, temperature,
		 respiration_rate, activity_level, steps, sleep_quality)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

func (r *PostgresVitalsRepository) Insert(ctx context.Context, rec domain.VitalRecord) error {
	_, err := r.db.ExecContext(ctx, insertVitalSQL,
		rec.UserID, rec.Timestamp, rec.HeartRate, rec.BloodOxygen, rec.Temperature,
		rec.RespirationRate, string(rec.ActivityLevel), rec.Steps, string(rec.SleepQuality),
	)
	if err != nil {
		return fmt.Errorf("failed to insert vital record: %w", err)
	}
	return nil
}

func (r *PostgresVitalsRepository) InsertBatch(ctx context.Context, recs []domain.VitalRecord) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertVitalSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx,
			rec.UserID, rec.Timestamp, rec.HeartRate, rec.BloodOxygen, rec.Temperature,
			rec.RespirationRate, string(rec.ActivityLevel), rec.Steps, string(rec.SleepQuality),
		); err != nil {
			return fmt.Errorf("failed to insert vital record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

func (r *PostgresVitalsRepository) GetHistory(ctx context.Context, userID string, filters HistoryFilters) ([]domain.VitalRecord, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT user_id, timestamp, heart_rate, blood_oxygen, temperature,
		       respiration_rate, activity_level, steps, sleep_quality
		FROM vital_records
		WHERE user_id = $1`
	args := []interface{}{userID}
	argN := 2

	if filters.StartTime != nil {
		query += fmt.Sprintf(" AND timestamp >= $%d", argN)
		args = append(args, *filters.StartTime)
		argN++
	}
	if filters.EndTime != nil {
		query += fmt.Sprintf(" AND timestamp <= $%d", argN)
		args = append(args, *filters.EndTime)
		argN++
	}

	// 取最近 N 条后按时间升序返回
	query = fmt.Sprintf(`
		SELECT * FROM (%s ORDER BY timestamp DESC LIMIT $%d) recent
		ORDER BY timestamp ASC`, query, argN)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []domain.VitalRecord
	for rows.Next() {
		var rec domain.VitalRecord
		var activity, sleep string
		if err := rows.Scan(
			&rec.UserID, &rec.Timestamp, &rec.HeartRate, &rec.BloodOxygen, &rec.Temperature,
			&rec.RespirationRate, &activity, &rec.Steps, &sleep,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vital record: %w", err)
		}
		rec.ActivityLevel = domain.ActivityLevel(activity)
		rec.SleepQuality = domain.SleepQuality(sleep)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}

	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

func (r *PostgresVitalsRepository) GetStatistics(ctx context.Context, userID string) (*domain.UserStatistics, error) {
	stats := &domain.UserStatistics{
		ActivityDistribution: make(map[string]int),
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(heart_rate), 0), COALESCE(MIN(heart_rate), 0), COALESCE(MAX(heart_rate), 0), COALESCE(STDDEV_SAMP(heart_rate), 0),
		       COALESCE(AVG(blood_oxygen), 0), COALESCE(MIN(blood_oxygen), 0), COALESCE(MAX(blood_oxygen), 0), COALESCE(STDDEV_SAMP(blood_oxygen), 0),
		       COALESCE(AVG(temperature), 0), COALESCE(MIN(temperature), 0), COALESCE(MAX(temperature), 0), COALESCE(STDDEV_SAMP(temperature), 0),
		       COALESCE(SUM(steps), 0), COALESCE(AVG(steps), 0)
		FROM vital_records
		WHERE user_id = $1`, userID)

	var count int
	if err := row.Scan(
		&count,
		&stats.HeartRate.Mean, &stats.HeartRate.Min, &stats.HeartRate.Max, &stats.HeartRate.StdDev,
		&stats.BloodOxygen.Mean, &stats.BloodOxygen.Min, &stats.BloodOxygen.Max, &stats.BloodOxygen.StdDev,
		&stats.Temperature.Mean, &stats.Temperature.Min, &stats.Temperature.Max, &stats.Temperature.StdDev,
		&stats.TotalSteps, &stats.AvgStepsPerRecord,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT activity_level, COUNT(*)
		FROM vital_records
		WHERE user_id = $1
		GROUP BY activity_level`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var level string
		var n int
		if err := rows.Scan(&level, &n); err != nil {
			return nil, fmt.Errorf("failed to scan activity distribution: %w", err)
		}
		stats.ActivityDistribution[level] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity rows: %w", err)
	}

	return stats, nil
}

func (r *PostgresVitalsRepository) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM vital_records ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	return users, nil
}
