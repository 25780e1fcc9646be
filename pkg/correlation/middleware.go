package correlation

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

const (
	// Header is the canonical correlation-id header name. External callers
	// (the job orchestrator in particular) set it to trace a consumption
	// back to the job that caused it.
	Header      = "X-Correlation-Id"
	maxIDLength = 128
	idPattern   = "^[a-zA-Z0-9_.:-]+$"
)

var validIDRegex = regexp.MustCompile(idPattern)

// Middleware attaches a correlation id to every request. A valid
// client-supplied header value is reused; anything else is replaced with
// a fresh UUID. The id is echoed back in the response header.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get(Header)
		if !isValidID(correlationID) {
			correlationID = uuid.New().String()
		}
		w.Header().Set(Header, correlationID)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), correlationID)))
	})
}

func isValidID(id string) bool {
	if len(id) == 0 || len(id) > maxIDLength {
		return false
	}
	return validIDRegex.MatchString(id)
}
