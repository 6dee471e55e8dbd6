package route

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"checkin/src-server/model"
	"checkin/src-server/utils"

	"github.com/skip2/go-qrcode"
)

// side of the generated PNG in pixels
const qrCodeSize = 256

type QRDisplayPage struct {
	PageData
	Participant *model.Participant
	QRCode      template.URL // data: URI of the PNG
	CheckinURL  string
}

// Absolute mobile check-in link for a participant. PUBLIC_URL wins over the
// request host so codes printed behind a proxy still point somewhere useful.
func mobileCheckinURL(as *utils.AppState, r *http.Request, participantID int64) string {
	base := as.Config.GetPublicURL()
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return fmt.Sprintf("%s/mobile_checkin/%d", base, participantID)
}

func QR(muxer *http.ServeMux, as *utils.AppState) {
	// nil when the participant can't be found, the response is already written
	findParticipant := func(w http.ResponseWriter, r *http.Request) *model.Participant {
		participantID, err := participantIDFromPath(r)
		if err != nil {
			renderError(w, r, http.StatusNotFound, "找不到參加者", "連結無效")
			return nil
		}
		participant, err := model.FindParticipantByID(r.Context(), as.BunDB, participantID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				renderError(w, r, http.StatusNotFound, "找不到參加者", "此參加者不在名單中")
				return nil
			}
			slog.Error("can't find participant", "where", "route/qr.go", "id", participantID, "error", err)
			renderError(w, r, http.StatusInternalServerError, "錯誤", "伺服器錯誤，請稍後再試")
			return nil
		}
		return participant
	}

	// page showing the code a participant scans with a phone
	muxer.HandleFunc("GET /qr/{participant_id}", func(w http.ResponseWriter, r *http.Request) {
		participant := findParticipant(w, r)
		if participant == nil {
			return
		}
		checkinURL := mobileCheckinURL(as, r, participant.ID)
		png, err := qrcode.Encode(checkinURL, qrcode.Medium, qrCodeSize)
		if err != nil {
			slog.Error("can't encode QR code", "url", checkinURL, "error", err)
			renderError(w, r, http.StatusInternalServerError, "錯誤", "無法產生 QR Code")
			return
		}
		render(w, http.StatusOK, "qr_display", QRDisplayPage{
			PageData:    PageData{Flash: popFlash(w, r)},
			Participant: participant,
			QRCode:      template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
			CheckinURL:  checkinURL,
		})
	})

	muxer.HandleFunc("GET /qr/{participant_id}/image.png", func(w http.ResponseWriter, r *http.Request) {
		participant := findParticipant(w, r)
		if participant == nil {
			return
		}
		png, err := qrcode.Encode(mobileCheckinURL(as, r, participant.ID), qrcode.Medium, qrCodeSize)
		if err != nil {
			slog.Error("can't encode QR code", "id", participant.ID, "error", err)
			http.Error(w, "can't encode QR code", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(png)))
		w.Header().Set("Cache-Control", "no-store")
		if _, err := w.Write(png); err != nil {
			slog.Warn("can't write QR code", "where", "route/qr.go", "error", err)
		}
	})
}
