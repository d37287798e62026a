// AngelaMos | 2026
// request.go

package core

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
)

const maxJSONBody = 1 << 20

// DecodeJSON reads a single JSON object from the request body, rejecting
// unknown fields and bodies over 1 MiB.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func ParseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}

// ParseBoolQuery returns nil when the parameter is absent or malformed.
func ParseBoolQuery(r *http.Request, key string) *bool {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil
	}

	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return nil
	}

	return &parsed
}
