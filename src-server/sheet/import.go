package sheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"checkin/src-server/model"

	"github.com/uptrace/bun"
	"github.com/xuri/excelize/v2"
)

// Header names of the award roster kept at the fixed path.
const (
	FIXED_COLUMN_NAME         = "人名中文"
	FIXED_COLUMN_ORGANIZATION = "校名中文"
)

// Header names of a roster uploaded from the admin console.
const (
	UPLOAD_COLUMN_NAME         = "姓名"
	UPLOAD_COLUMN_EMAIL        = "Email"
	UPLOAD_COLUMN_PHONE        = "電話"
	UPLOAD_COLUMN_ORGANIZATION = "組織/學校"
)

const SPREADSHEET_EXTENSION = ".xlsx"

// which header feeds which RawParticipant field; an empty header means the
// field stays blank
type columnLayout struct {
	name         string
	email        string
	phone        string
	organization string
}

var (
	fixedLayout = columnLayout{
		name:         FIXED_COLUMN_NAME,
		organization: FIXED_COLUMN_ORGANIZATION,
	}
	uploadLayout = columnLayout{
		name:         UPLOAD_COLUMN_NAME,
		email:        UPLOAD_COLUMN_EMAIL,
		phone:        UPLOAD_COLUMN_PHONE,
		organization: UPLOAD_COLUMN_ORGANIZATION,
	}
)

func IsSpreadsheetFilename(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), SPREADSHEET_EXTENSION)
}

// Reads the name and organization columns of the fixed roster.
func ReadFixedRoster(r io.Reader) ([]model.RawParticipant, error) {
	records, err := readRoster(r, fixedLayout)
	if err != nil {
		return nil, fmt.Errorf("ReadFixedRoster: %w", err)
	}
	return records, nil
}

// Reads name, email, phone and organization of an uploaded roster.
func ReadUploadRoster(r io.Reader) ([]model.RawParticipant, error) {
	records, err := readRoster(r, uploadLayout)
	if err != nil {
		return nil, fmt.Errorf("ReadUploadRoster: %w", err)
	}
	return records, nil
}

// Loads the roster at path, replacing the current one.
func ImportFromFile(ctx context.Context, db *bun.DB, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("ImportFromFile: can't find roster file %s: %w", path, model.ErrImport)
		}
		return 0, fmt.Errorf("ImportFromFile: %w: %w", model.ErrImport, err)
	}
	defer file.Close()

	records, err := ReadFixedRoster(file)
	if err != nil {
		return 0, fmt.Errorf("ImportFromFile: %w", err)
	}
	count, err := model.ReplaceParticipants(ctx, db, records)
	if err != nil {
		return 0, fmt.Errorf("ImportFromFile: %w: %w", model.ErrImport, err)
	}
	return count, nil
}

// Loads an uploaded roster, replacing the current one.
func ImportFromUpload(ctx context.Context, db *bun.DB, r io.Reader) (int, error) {
	records, err := ReadUploadRoster(r)
	if err != nil {
		return 0, fmt.Errorf("ImportFromUpload: %w", err)
	}
	count, err := model.ReplaceParticipants(ctx, db, records)
	if err != nil {
		return 0, fmt.Errorf("ImportFromUpload: %w: %w", model.ErrImport, err)
	}
	return count, nil
}

func readRoster(r io.Reader, layout columnLayout) ([]model.RawParticipant, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: can't open spreadsheet: %w", model.ErrImport, err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: spreadsheet has no sheet", model.ErrImport)
	}
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: can't read rows: %w", model.ErrImport, err)
	}
	if len(rows) == 0 {
		return []model.RawParticipant{}, nil
	}

	header := make(map[string]int, len(rows[0]))
	for i, cell := range rows[0] {
		cell = strings.TrimSpace(cell)
		if _, ok := header[cell]; !ok {
			header[cell] = i
		}
	}
	if _, ok := header[layout.name]; !ok {
		return nil, fmt.Errorf("%w: missing column %q", model.ErrImport, layout.name)
	}

	// excelize drops trailing empty cells, so rows can be shorter than the header
	cellOf := func(row []string, column string) string {
		if column == "" {
			return ""
		}
		i, ok := header[column]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	records := make([]model.RawParticipant, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, model.RawParticipant{
			Name:         cellOf(row, layout.name),
			Email:        cellOf(row, layout.email),
			Phone:        cellOf(row, layout.phone),
			Organization: cellOf(row, layout.organization),
		})
	}
	return records, nil
}

// Loads the fixed roster when the database has no participant yet, so a
// fresh deployment starts with the roster in place. A missing file is not
// an error, imported is false.
func ImportOnStartup(ctx context.Context, db *bun.DB, path string) (count int, imported bool, err error) {
	existing, err := model.CountParticipants(ctx, db)
	if err != nil {
		return 0, false, fmt.Errorf("ImportOnStartup: %w", err)
	}
	if existing > 0 {
		return 0, false, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("ImportOnStartup: %w: %w", model.ErrImport, err)
	}

	count, err = ImportFromFile(ctx, db, path)
	if err != nil {
		return 0, false, fmt.Errorf("ImportOnStartup: %w", err)
	}
	return count, true, nil
}
