package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"registrations/pkg/platform/httputil"
	"registrations/pkg/requestcontext"
)

// MaxCorrelationIDLength bounds an accepted incoming correlation id.
const MaxCorrelationIDLength = 128

// CorrelationID takes the caller's X-CorrelationID when it is usable, or
// generates one, stores it in the request context and sets it on the
// response before anything else runs. It also pins the request time.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(httputil.HeaderCorrelationID)
		if !validCorrelationID(id) {
			id = NewCorrelationID()
		}

		ctx := requestcontext.WithCorrelationID(r.Context(), id)
		ctx = requestcontext.WithTime(ctx, time.Now())
		w.Header().Set(httputil.HeaderCorrelationID, id)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// NewCorrelationID returns a random id as 32 lowercase hex characters.
func NewCorrelationID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func validCorrelationID(id string) bool {
	if id == "" || len(id) > MaxCorrelationIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
