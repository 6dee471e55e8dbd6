package sheet

import (
	"context"
	"fmt"
	"io"
	"time"

	"checkin/src-server/model"

	"github.com/uptrace/bun"
	"github.com/xuri/excelize/v2"
)

const (
	EXPORT_SHEET_NAME     = "報到資料"
	EXPORT_STATUS_CHECKED = "已報到"
	EXPORT_STATUS_MISSING = "未報到"
	EXPORT_TIME_LAYOUT    = "2006-01-02 15:04:05"
	EXPORT_CONTENT_TYPE   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var exportHeader = []interface{}{
	UPLOAD_COLUMN_NAME,
	UPLOAD_COLUMN_EMAIL,
	UPLOAD_COLUMN_PHONE,
	UPLOAD_COLUMN_ORGANIZATION,
	"報到狀態",
	"報到時間",
	"報到方式",
}

// One participant as it appears in the attendance export.
type AttendanceRow struct {
	ParticipantID int64
	Name          string
	Email         string
	Phone         string
	Organization  string
	CheckedIn     bool
	Status        string
	CheckinTime   string
	Method        string
}

func BuildAttendanceRows(
	participants []model.Participant,
	logs map[int64]model.CheckinLog,
	loc *time.Location,
) []AttendanceRow {
	rows := make([]AttendanceRow, 0, len(participants))
	for _, participant := range participants {
		row := AttendanceRow{
			ParticipantID: participant.ID,
			Name:          participant.Name,
			Email:         participant.Email,
			Phone:         participant.Phone,
			Organization:  participant.Organization,
			Status:        EXPORT_STATUS_MISSING,
		}
		if log, ok := logs[participant.ID]; ok {
			row.CheckedIn = true
			row.Status = EXPORT_STATUS_CHECKED
			row.CheckinTime = log.CheckinTime.In(loc).Format(EXPORT_TIME_LAYOUT)
			row.Method = string(log.CheckinMethod)
		}
		rows = append(rows, row)
	}
	return rows
}

func WriteAttendance(w io.Writer, rows []AttendanceRow) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), EXPORT_SHEET_NAME); err != nil {
		return fmt.Errorf("WriteAttendance: %w: %w", model.ErrExport, err)
	}
	if err := file.SetSheetRow(EXPORT_SHEET_NAME, "A1", &exportHeader); err != nil {
		return fmt.Errorf("WriteAttendance: %w: can't write header: %w", model.ErrExport, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("WriteAttendance: %w: %w", model.ErrExport, err)
		}
		values := []interface{}{
			row.Name,
			row.Email,
			row.Phone,
			row.Organization,
			row.Status,
			row.CheckinTime,
			row.Method,
		}
		if err := file.SetSheetRow(EXPORT_SHEET_NAME, cell, &values); err != nil {
			return fmt.Errorf("WriteAttendance: %w: can't write row %d: %w", model.ErrExport, i+2, err)
		}
	}
	if err := file.SetColWidth(EXPORT_SHEET_NAME, "A", "G", 18); err != nil {
		return fmt.Errorf("WriteAttendance: %w: %w", model.ErrExport, err)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("WriteAttendance: %w: %w", model.ErrExport, err)
	}
	return nil
}

// Writes the attendance of the whole roster to w and returns the row count.
func ExportAttendance(ctx context.Context, db bun.IDB, w io.Writer, loc *time.Location) (int, error) {
	participants, err := model.ListParticipants(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("ExportAttendance: %w: %w", model.ErrExport, err)
	}
	logs, err := model.CheckinLogsByParticipant(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("ExportAttendance: %w: %w", model.ErrExport, err)
	}
	rows := BuildAttendanceRows(participants, logs, loc)
	if err := WriteAttendance(w, rows); err != nil {
		return 0, fmt.Errorf("ExportAttendance: %w", err)
	}
	return len(rows), nil
}

func ExportFilename(now time.Time) string {
	return fmt.Sprintf("AI_CUP_2025_報到資料_%s.xlsx", now.Format("20060102_150405"))
}
