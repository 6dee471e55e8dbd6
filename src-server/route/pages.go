package route

import "net/http"

// Public pages that only need the flash notice.
func Pages(muxer *http.ServeMux) {
	page := func(name string) func(http.ResponseWriter, *http.Request) {
		return func(w http.ResponseWriter, r *http.Request) {
			render(w, http.StatusOK, name, PageData{Flash: popFlash(w, r)})
		}
	}

	muxer.HandleFunc("GET /{$}", page("index"))
	muxer.HandleFunc("GET /checkin", page("checkin"))
	muxer.HandleFunc("GET /qr_scanner", page("qr_scanner"))
}
