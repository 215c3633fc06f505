package static

import (
	"encoding/json"
	"net/http"

	apperrors "stripdemo/internal/errors"
)

// StatusFor maps an error code to the HTTP status the server answers with.
func StatusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.AssetNotFound:
		return http.StatusNotFound // 404
	case apperrors.AssetForbidden:
		return http.StatusForbidden // 403
	case apperrors.AssetUnreadable, apperrors.InternalError:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// writeError writes the plain-text body net/http uses for the status,
// e.g. "404 page not found".
func writeError(w http.ResponseWriter, status int) {
	h := w.Header()
	h.Del("Content-Length")
	h.Del("ETag")
	h.Del("Last-Modified")
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(errorBody(status) + "\n"))
}

func errorBody(status int) string {
	switch status {
	case http.StatusNotFound:
		return "404 page not found"
	case http.StatusForbidden:
		return "403 Forbidden"
	default:
		return "500 Internal Server Error"
	}
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, v interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
