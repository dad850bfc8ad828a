package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/petjoyful/profile-service/internal/apperror"
)

// maxJSONBody bounds update request bodies.
const maxJSONBody = 1 << 20

func contextWithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(parent, d)
}

// decodeObject reads a JSON object body. Numbers are kept as json.Number so
// values such as {"number": 42} keep their exact digits.
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return map[string]any{}, nil
		}
		return nil, apperror.Validation([]apperror.FieldError{
			{Field: "body", Message: "must be a valid JSON object"},
		})
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}
