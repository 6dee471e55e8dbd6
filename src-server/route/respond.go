package route

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"checkin/src-server/model"
)

// Body of the check-in JSON answers, Participant only on success.
type RespBody struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message,omitempty"`
	Participant *ParticipantRes `json:"participant,omitempty"`
}

type ParticipantRes struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Organization  string `json:"organization"`
	CheckinTime   string `json:"checkin_time,omitempty"`
	CheckinMethod string `json:"checkin_method,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("can't encode response", "where", "route/respond.go", "error", err)
	}
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, RespBody{Success: false, Message: message})
}

// Maps the model error kinds to a status code and a message for the user.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, "輸入資料不完整"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "找不到該參加者，請確認姓名"
	case errors.Is(err, model.ErrAlreadyCheckedIn):
		return http.StatusBadRequest, "該參加者已經報到過了"
	case errors.Is(err, model.ErrAuth):
		return http.StatusUnauthorized, "請先登入管理介面"
	case errors.Is(err, model.ErrImport):
		return http.StatusInternalServerError, "匯入失敗"
	case errors.Is(err, model.ErrExport):
		return http.StatusInternalServerError, "匯出失敗"
	default:
		return http.StatusInternalServerError, "伺服器錯誤，請稍後再試"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeFailure(w, status, message)
}
