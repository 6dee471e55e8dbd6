package route

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"checkin/src-server/model"
	"checkin/src-server/sheet"
	"checkin/src-server/utils"

	"github.com/dustin/go-humanize"
)

type AdminParticipantRow struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	Organization string
	CheckedIn    bool
	CheckinTime  string
	Method       string
}

type AdminPage struct {
	PageData
	Participants   []AdminParticipantRow
	TotalCount     int
	CheckedInCount int
	MissingCount   int
}

type UploadPage struct {
	PageData
}

func Admin(muxer *http.ServeMux, as *utils.AppState) {
	loc := as.Config.GetLocation()

	// the whole roster with check-in state
	muxer.HandleFunc("GET /admin", AdminMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		startTimer := time.Now()
		participants, err := model.ListParticipants(r.Context(), as.BunDB)
		if err != nil {
			slog.Error("can't list participants", "error", err)
			renderError(w, r, http.StatusInternalServerError, "錯誤", "無法讀取參加者名單")
			return
		}
		logs, err := model.CheckinLogsByParticipant(r.Context(), as.BunDB)
		if err != nil {
			slog.Error("can't list check-in logs", "error", err)
			renderError(w, r, http.StatusInternalServerError, "錯誤", "無法讀取報到紀錄")
			return
		}
		checkedInCount, err := model.CountCheckedIn(r.Context(), as.BunDB)
		if err != nil {
			slog.Error("can't count check-ins", "error", err)
			renderError(w, r, http.StatusInternalServerError, "錯誤", "無法讀取報到紀錄")
			return
		}
		as.MetricChans.ObserveRead(startTimer)

		page := AdminPage{
			PageData:       PageData{Flash: popFlash(w, r)},
			Participants:   make([]AdminParticipantRow, 0, len(participants)),
			TotalCount:     len(participants),
			CheckedInCount: checkedInCount,
			MissingCount:   len(participants) - checkedInCount,
		}
		for _, row := range sheet.BuildAttendanceRows(participants, logs, loc) {
			page.Participants = append(page.Participants, AdminParticipantRow{
				ID:           row.ParticipantID,
				Name:         row.Name,
				Email:        row.Email,
				Phone:        row.Phone,
				Organization: row.Organization,
				CheckedIn:    row.CheckedIn,
				CheckinTime:  row.CheckinTime,
				Method:       row.Method,
			})
		}
		render(w, http.StatusOK, "admin", page)
	}))

	muxer.HandleFunc("GET /upload", AdminMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		render(w, http.StatusOK, "upload", UploadPage{PageData{Flash: popFlash(w, r)}})
	}))

	// replace the roster with an uploaded spreadsheet
	muxer.HandleFunc("POST /upload", AdminMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		maxUploadSize := as.Config.GetMaxUploadSize()
		tooLarge := func() {
			redirectWithFlash(w, r, "/upload", FLASH_ERROR,
				"檔案太大，上限為 "+humanize.IBytes(uint64(maxUploadSize)))
		}
		if r.ContentLength > maxUploadSize {
			tooLarge()
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		file, header, err := r.FormFile("file")
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				tooLarge()
				return
			}
			redirectWithFlash(w, r, "/upload", FLASH_ERROR, "沒有選擇檔案")
			return
		}
		defer file.Close()
		if header.Filename == "" {
			redirectWithFlash(w, r, "/upload", FLASH_ERROR, "沒有選擇檔案")
			return
		}
		if !sheet.IsSpreadsheetFilename(header.Filename) {
			redirectWithFlash(w, r, "/upload", FLASH_ERROR, "只接受 "+sheet.SPREADSHEET_EXTENSION+" 檔案")
			return
		}

		startTimer := time.Now()
		count, err := sheet.ImportFromUpload(r.Context(), as.BunDB, file)
		if err != nil {
			slog.Error("can't import uploaded roster", "filename", header.Filename, "error", err)
			redirectWithFlash(w, r, "/admin", FLASH_ERROR, "匯入失敗: "+importFailureReason(err))
			return
		}
		as.MetricChans.ObserveWrite(startTimer)

		slog.Info("roster uploaded", "filename", header.Filename, "count", count)
		redirectWithFlash(w, r, "/admin", FLASH_SUCCESS, fmt.Sprintf("成功匯入 %d 筆參加者資料", count))
	}))

	// re-import the roster kept on the server
	importFixed := AdminMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		startTimer := time.Now()
		count, err := sheet.ImportFromFile(r.Context(), as.BunDB, as.Config.GetFixedRosterPath())
		if err != nil {
			slog.Error("can't import fixed roster", "path", as.Config.GetFixedRosterPath(), "error", err)
			redirectWithFlash(w, r, "/admin", FLASH_ERROR, "匯入失敗: "+importFailureReason(err))
			return
		}
		as.MetricChans.ObserveWrite(startTimer)

		slog.Info("fixed roster imported", "path", as.Config.GetFixedRosterPath(), "count", count)
		redirectWithFlash(w, r, "/admin", FLASH_SUCCESS, fmt.Sprintf("成功匯入 %d 筆參加者資料（固定路徑）", count))
	})
	muxer.HandleFunc("GET /import_fixed", importFixed)
	muxer.HandleFunc("POST /import_fixed", importFixed)

	// attendance spreadsheet download
	muxer.HandleFunc("GET /export", AdminMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		// build the file in memory so a failure can still redirect
		var buf bytes.Buffer
		startTimer := time.Now()
		count, err := sheet.ExportAttendance(r.Context(), as.BunDB, &buf, loc)
		if err != nil {
			slog.Error("can't export attendance", "error", err)
			redirectWithFlash(w, r, "/admin", FLASH_ERROR, "匯出失敗")
			return
		}
		as.MetricChans.ObserveRead(startTimer)

		filename := sheet.ExportFilename(time.Now().In(loc))
		w.Header().Set("Content-Type", sheet.EXPORT_CONTENT_TYPE)
		w.Header().Set("Content-Disposition", fmt.Sprintf(
			`attachment; filename="attendance.xlsx"; filename*=UTF-8''%s`,
			url.PathEscape(filename),
		))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			slog.Warn("can't write export", "where", "route/admin.go", "error", err)
			return
		}
		slog.Info("attendance exported", "rows", count)
	}))
}

// the part of an import error that makes sense to an admin
func importFailureReason(err error) string {
	switch {
	case errors.Is(err, model.ErrImport):
		var unwrapped interface{ Unwrap() []error }
		if errors.As(err, &unwrapped) {
			for _, e := range unwrapped.Unwrap() {
				if !errors.Is(e, model.ErrImport) {
					return e.Error()
				}
			}
		}
		return err.Error()
	default:
		return "伺服器錯誤"
	}
}
