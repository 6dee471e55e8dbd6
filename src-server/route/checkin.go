package route

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"checkin/src-server/checkin"
	"checkin/src-server/model"
	"checkin/src-server/utils"
)

const TIME_LAYOUT = "2006-01-02 15:04:05"

type SearchResult struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Organization  string  `json:"organization"`
	CheckinStatus bool    `json:"checkin_status"`
	CheckinTime   *string `json:"checkin_time"`
}

type MobileCheckinPage struct {
	PageData
	Participant      *model.Participant
	AlreadyCheckedIn bool
	CheckinTime      string
}

func participantIDFromPath(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("participant_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid participant id %q: %w", r.PathValue("participant_id"), model.ErrValidation)
	}
	return id, nil
}

func checkinSuccess(result *checkin.Result, loc *time.Location) RespBody {
	return RespBody{
		Success: true,
		Message: result.Name + " 報到成功！",
		Participant: &ParticipantRes{
			ID:            result.ParticipantID,
			Name:          result.Name,
			Organization:  result.Organization,
			CheckinTime:   result.CheckinTime.In(loc).Format(TIME_LAYOUT),
			CheckinMethod: string(result.Method),
		},
	}
}

func Checkin(muxer *http.ServeMux, as *utils.AppState, svc *checkin.Service) {
	type CheckinReqBody struct {
		Name string `json:"name"`
	}

	type SearchReqBody struct {
		Query string `json:"query"`
	}

	loc := as.Config.GetLocation()

	// check in by name from the public form
	muxer.HandleFunc("POST /api/checkin", func(w http.ResponseWriter, r *http.Request) {
		var reqBody CheckinReqBody
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			writeFailure(w, http.StatusBadRequest, "請求格式錯誤")
			return
		}
		if utils.CleanupName(reqBody.Name) == "" {
			writeFailure(w, http.StatusBadRequest, "請輸入姓名")
			return
		}

		result, err := svc.CheckIn(r.Context(), reqBody.Name, model.CHECKIN_METHOD_MANUAL)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, checkinSuccess(result, loc))
	})

	muxer.HandleFunc("POST /api/search", func(w http.ResponseWriter, r *http.Request) {
		var reqBody SearchReqBody
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			writeFailure(w, http.StatusBadRequest, "請求格式錯誤")
			return
		}
		query := strings.TrimSpace(reqBody.Query)
		if query == "" {
			writeFailure(w, http.StatusBadRequest, "請輸入搜尋關鍵字")
			return
		}

		startTimer := time.Now()
		participants, err := model.SearchParticipants(r.Context(), as.BunDB, query)
		if err != nil {
			writeError(w, r, err)
			return
		}
		logs, err := model.CheckinLogsByParticipant(r.Context(), as.BunDB)
		if err != nil {
			writeError(w, r, err)
			return
		}
		as.MetricChans.ObserveRead(startTimer)

		results := make([]SearchResult, 0, len(participants))
		for _, participant := range participants {
			result := SearchResult{
				ID:           participant.ID,
				Name:         participant.Name,
				Email:        participant.Email,
				Organization: participant.Organization,
			}
			if log, ok := logs[participant.ID]; ok {
				checkinTime := log.CheckinTime.In(loc).Format(TIME_LAYOUT)
				result.CheckinStatus = true
				result.CheckinTime = &checkinTime
			}
			results = append(results, result)
		}
		// encode an empty result set as [] rather than dropping the field
		writeJSON(w, http.StatusOK, struct {
			Success bool           `json:"success"`
			Results []SearchResult `json:"results"`
		}{true, results})
	})

	// landing page of the link encoded in a participant's QR code
	muxer.HandleFunc("GET /mobile_checkin/{participant_id}", func(w http.ResponseWriter, r *http.Request) {
		participantID, err := participantIDFromPath(r)
		if err != nil {
			renderError(w, r, http.StatusNotFound, "找不到參加者", "連結無效")
			return
		}
		participant, log, err := svc.Status(r.Context(), participantID)
		switch {
		case errors.Is(err, model.ErrNotFound):
			renderError(w, r, http.StatusNotFound, "找不到參加者", "此報到連結已失效")
			return
		case err != nil:
			status, message := errorStatus(err)
			renderError(w, r, status, "錯誤", message)
			return
		}

		page := MobileCheckinPage{
			PageData:    PageData{Flash: popFlash(w, r)},
			Participant: participant,
		}
		if log != nil {
			page.AlreadyCheckedIn = true
			page.CheckinTime = log.CheckinTime.In(loc).Format(TIME_LAYOUT)
		}
		render(w, http.StatusOK, "mobile_checkin", page)
	})

	byID := func(method model.CheckinMethod) func(http.ResponseWriter, *http.Request) {
		return func(w http.ResponseWriter, r *http.Request) {
			participantID, err := participantIDFromPath(r)
			if err != nil {
				writeFailure(w, http.StatusNotFound, "找不到該參加者")
				return
			}
			result, err := svc.CheckInByID(r.Context(), participantID, method)
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, checkinSuccess(result, loc))
		}
	}

	muxer.HandleFunc("POST /api/mobile_checkin/{participant_id}", byID(model.CHECKIN_METHOD_MOBILE))
	// staff scanning a participant's code with the scanner page
	muxer.HandleFunc("POST /api/qr_checkin/{participant_id}", byID(model.CHECKIN_METHOD_QR))
	muxer.HandleFunc("POST /api/manual_checkin/{participant_id}", AdminMiddleware(as, byID(model.CHECKIN_METHOD_MANUAL)))

	// admin console button, answers with a redirect back to the roster
	manualCheckin := AdminMiddleware(as, func(w http.ResponseWriter, r *http.Request) {
		participantID, err := participantIDFromPath(r)
		if err != nil {
			redirectWithFlash(w, r, "/admin", FLASH_ERROR, "找不到該參加者")
			return
		}
		result, err := svc.CheckInByID(r.Context(), participantID, model.CHECKIN_METHOD_MANUAL)
		switch {
		case err == nil:
			redirectWithFlash(w, r, "/admin", FLASH_SUCCESS, result.Name+" 報到成功！")
		case errors.Is(err, model.ErrAlreadyCheckedIn):
			name := "該參加者"
			if participant, err := model.FindParticipantByID(r.Context(), as.BunDB, participantID); err == nil {
				name = participant.Name
			}
			redirectWithFlash(w, r, "/admin", FLASH_WARNING, name+" 已經報到過了")
		case errors.Is(err, model.ErrNotFound):
			redirectWithFlash(w, r, "/admin", FLASH_ERROR, "找不到該參加者")
		default:
			slog.Error("can't check in participant", "where", "route/checkin.go", "id", participantID, "error", err)
			_, message := errorStatus(err)
			redirectWithFlash(w, r, "/admin", FLASH_ERROR, message)
		}
	})
	muxer.HandleFunc("GET /manual_checkin/{participant_id}", manualCheckin)
	muxer.HandleFunc("POST /manual_checkin/{participant_id}", manualCheckin)
}
