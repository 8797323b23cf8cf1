package api

import (
	"github.com/ssargent/recordkv/pkg/codec"
)

// APIResponse is the envelope used for errors and administrative endpoints
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port   int
	Bind   string
	APIKey string      // clients must send it as X-API-Key; empty disables the check
	Stats  StatsSource // optional, feeds the key and size gauges
}

// Content types understood by the record endpoints
const (
	ContentTypeJSON    = "application/json"
	ContentTypeMsgpack = "application/msgpack"
)

// maxBodyBytes bounds record bodies on /put and /update
const maxBodyBytes = 16 << 20

// StringRecord is the JSON form of a record. JSON strings cannot carry
// arbitrary bytes; use msgpack for binary values.
type StringRecord map[string]string

// ToStringRecord converts a record for JSON output
func ToStringRecord(r codec.Record) StringRecord {
	out := make(StringRecord, len(r))
	for name, value := range r {
		out[name] = string(value)
	}
	return out
}

// Record converts back to the binary form
func (s StringRecord) Record() codec.Record {
	out := make(codec.Record, len(s))
	for name, value := range s {
		out[name] = []byte(value)
	}
	return out
}
