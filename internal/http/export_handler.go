package httpapi

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/TumainiC/Medical-app/internal/domain"
	"github.com/TumainiC/Medical-app/internal/repository"
)

// exportHeader 导出表头
var exportHeader = []string{
	"User ID",
	"Timestamp",
	"Heart Rate",
	"Blood Oxygen",
	"Temperature",
	"Respiration Rate",
	"Activity Level",
	"Steps",
	"Sleep Quality",
}

func exportRow(rec domain.VitalRecord) []string {
	return []string{
		rec.UserID,
		rec.Timestamp.Format("2006-01-02 15:04:05"),
		strconv.Itoa(rec.HeartRate),
		strconv.Itoa(rec.BloodOxygen),
		strconv.FormatFloat(rec.Temperature, 'f', 1, 64),
		strconv.Itoa(rec.RespirationRate),
		string(rec.ActivityLevel),
		strconv.Itoa(rec.Steps),
		string(rec.SleepQuality),
	}
}

// Export GET /api/v1/health/export/{user_id}?format=csv|xlsx&limit=
func (h *HealthHandler) Export(w http.ResponseWriter, r *http.Request, userID string) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		writeJSON(w, http.StatusBadRequest, Fail("unsupported format: "+format))
		return
	}

	records, err := h.vitalsRepo.GetHistory(r.Context(), userID, repository.HistoryFilters{
		Limit: parseInt(r.URL.Query().Get("limit"), 1000),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, Fail("no data found for user"))
			return
		}
		h.logger.Error("Failed to load records for export", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to load records"))
		return
	}

	var (
		data        []byte
		contentType string
	)
	switch format {
	case "csv":
		data, err = generateCSV(records)
		contentType = "text/csv"
	case "xlsx":
		data, err = generateXLSX(records)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		h.logger.Error("Failed to generate export file", zap.String("format", format), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to generate export file"))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=health_data_%s.%s", userID, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func generateCSV(records []domain.VitalRecord) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(exportRow(rec)); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func generateXLSX(records []domain.VitalRecord) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo 需要文件保持打开，这里不 defer Close

	const sheetName = "Health Data"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			return nil, fmt.Errorf("failed to set header cell: %w", err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to style header cell: %w", err)
		}
	}

	for i, rec := range records {
		row := exportRow(rec)
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("failed to compute data cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to set data cell: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}
