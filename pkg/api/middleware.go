package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ssargent/recordkv/pkg/codec"
)

// apiKeyMiddleware validates the X-API-Key header
func apiKeyMiddleware(expectedKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				sendError(w, "Missing X-API-Key header", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(expectedKey)) != 1 {
				sendError(w, "Invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sendSuccess sends a successful JSON response
func sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	response := APIResponse{
		Success: true,
		Data:    data,
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// sendError sends an error JSON response
func sendError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(statusCode)
	response := APIResponse{
		Success: false,
		Error:   message,
	}
	_ = json.NewEncoder(w).Encode(response)
}

// wantsMsgpack reports whether the client asked for msgpack bodies
func wantsMsgpack(r *http.Request) bool {
	if r.URL.Query().Get("format") == "msgpack" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), ContentTypeMsgpack)
}

// sendRecord writes a record as a JSON string map, or as a msgpack binary
// map when the client asked for it
func sendRecord(w http.ResponseWriter, r *http.Request, rec codec.Record) {
	sendBody(w, r, ToStringRecord(rec), map[string][]byte(rec))
}

// sendRecordList writes scan results in the same two forms
func sendRecordList(w http.ResponseWriter, r *http.Request, records []codec.Record) {
	asJSON := make([]StringRecord, len(records))
	asMsgpack := make([]map[string][]byte, len(records))
	for i, rec := range records {
		asJSON[i] = ToStringRecord(rec)
		asMsgpack[i] = rec
	}
	sendBody(w, r, asJSON, asMsgpack)
}

func sendBody(w http.ResponseWriter, r *http.Request, asJSON, asMsgpack interface{}) {
	if wantsMsgpack(r) {
		body, err := msgpack.Marshal(asMsgpack)
		if err != nil {
			sendError(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", ContentTypeMsgpack)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(asJSON)
}
