package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ssargent/recordkv/pkg/adapter"
	"github.com/ssargent/recordkv/pkg/codec"
	"github.com/ssargent/recordkv/pkg/store"
)

// Server holds the API server state
type Server struct {
	db      RecordDB
	config  ServerConfig
	metrics *Metrics
	logger  *slog.Logger
}

// NewServer creates a new API server
func NewServer(db RecordDB, config ServerConfig, metrics *Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		db:      db,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

// handleHealth godoc
//
//	@Summary		Health check
//	@Description	Get the health status of the API
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	APIResponse
//	@Router			/health [get]
//	@Security		ApiKeyAuth
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleGet godoc
//
//	@Summary		Read a record
//	@Description	Return the fields of the record stored under key
//	@Tags			records
//	@Produce		json,application/msgpack
//	@Param			key		query		string	true	"Record key"
//	@Param			fields	query		string	false	"Comma separated field names to return"
//	@Param			format	query		string	false	"msgpack for binary-safe output"
//	@Success		200		{object}	StringRecord
//	@Failure		400		{object}	APIResponse
//	@Failure		404		{object}	APIResponse
//	@Failure		500		{object}	APIResponse
//	@Router			/get [get]
//	@Security		ApiKeyAuth
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := q.Get("key")
	if key == "" {
		sendError(w, "key is required", http.StatusBadRequest)
		return
	}

	rec, err := s.db.Read(key, codec.ParseFieldFilter(q.Get("fields")))
	if err != nil {
		s.sendDBError(w, err)
		return
	}
	sendRecord(w, r, rec)
}

// handlePut godoc
//
//	@Summary		Insert a record
//	@Description	Store the record under key, replacing any existing record
//	@Tags			records
//	@Accept			json,application/msgpack
//	@Produce		json
//	@Param			key		query		string			false	"Record key"
//	@Param			value	query		string			false	"Record as a JSON object, instead of a body"
//	@Param			body	body		StringRecord	false	"Record"
//	@Success		200		{object}	APIResponse
//	@Failure		400		{object}	APIResponse
//	@Failure		500		{object}	APIResponse
//	@Router			/put [post]
//	@Security		ApiKeyAuth
func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	s.handleWrite(w, r, s.db.Insert, "Record stored")
}

// handleUpdate godoc
//
//	@Summary		Update a record
//	@Description	Merge the given fields into the record under key, creating it if missing
//	@Tags			records
//	@Accept			json,application/msgpack
//	@Produce		json
//	@Param			key		query		string			true	"Record key"
//	@Param			value	query		string			false	"Fields as a JSON object, instead of a body"
//	@Param			body	body		StringRecord	false	"Fields"
//	@Success		200		{object}	APIResponse
//	@Failure		400		{object}	APIResponse
//	@Failure		500		{object}	APIResponse
//	@Router			/update [post]
//	@Security		ApiKeyAuth
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	s.handleWrite(w, r, s.db.Update, "Record updated")
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request, write func(string, codec.Record) error, message string) {
	key := r.URL.Query().Get("key")
	if key == "" {
		sendError(w, "key is required", http.StatusBadRequest)
		return
	}

	rec, err := readRecord(w, r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := write(key, rec); err != nil {
		s.sendDBError(w, err)
		return
	}
	sendSuccess(w, map[string]string{"message": message})
}

// readRecord takes the record from the value query parameter when present,
// otherwise from the body. Field names must be non-empty.
func readRecord(w http.ResponseWriter, r *http.Request) (codec.Record, error) {
	rec, err := decodeRecord(w, r)
	if err != nil {
		return nil, err
	}
	if _, ok := rec[""]; ok {
		return nil, errors.New("field names must not be empty")
	}
	return rec, nil
}

func decodeRecord(w http.ResponseWriter, r *http.Request) (codec.Record, error) {
	if value := r.URL.Query().Get("value"); value != "" {
		var sr StringRecord
		if err := json.Unmarshal([]byte(value), &sr); err != nil {
			return nil, fmt.Errorf("invalid JSON in value: %w", err)
		}
		return sr.Record(), nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) == 0 {
		return nil, errors.New("value is required")
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), ContentTypeMsgpack) {
		var rec map[string][]byte
		if err := msgpack.Unmarshal(body, &rec); err != nil {
			return nil, fmt.Errorf("invalid msgpack body: %w", err)
		}
		return codec.Record(rec), nil
	}

	var sr StringRecord
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("invalid JSON in request body: %w", err)
	}
	return sr.Record(), nil
}

// handleDelete godoc
//
//	@Summary		Delete a record
//	@Tags			records
//	@Produce		json
//	@Param			key	query		string	true	"Record key"
//	@Success		200	{object}	APIResponse
//	@Failure		400	{object}	APIResponse
//	@Failure		500	{object}	APIResponse
//	@Router			/del [post]
//	@Security		ApiKeyAuth
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		sendError(w, "key is required", http.StatusBadRequest)
		return
	}

	if err := s.db.Delete(key); err != nil {
		s.sendDBError(w, err)
		return
	}
	sendSuccess(w, map[string]string{"message": "Record deleted"})
}

// handleScan godoc
//
//	@Summary		Range scan
//	@Description	Return up to limit records in key order, starting at key
//	@Tags			records
//	@Produce		json,application/msgpack
//	@Param			key		query		string	false	"First key"
//	@Param			limit	query		int		true	"Maximum number of records"
//	@Param			fields	query		string	false	"Comma separated field names to return"
//	@Success		200		{array}		StringRecord
//	@Failure		400		{object}	APIResponse
//	@Failure		404		{object}	APIResponse
//	@Failure		500		{object}	APIResponse
//	@Router			/scan [get]
//	@Security		ApiKeyAuth
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		sendError(w, "limit must be a positive integer", http.StatusBadRequest)
		return
	}

	records, err := s.db.Scan(q.Get("key"), limit, codec.ParseFieldFilter(q.Get("fields")))
	if err != nil {
		s.sendDBError(w, err)
		return
	}
	sendRecordList(w, r, records)
}

// sendDBError maps a record operation error to a status code
func (s *Server) sendDBError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrKeyNotFound):
		sendError(w, "Key not found", http.StatusNotFound)
	case errors.Is(err, store.ErrInvalidKey), errors.Is(err, adapter.ErrInvalidCount):
		sendError(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("request failed", "error", err)
		sendError(w, fmt.Sprintf("Operation failed: %v", err), http.StatusInternalServerError)
	}
}

// startMetricsUpdater periodically copies store statistics into the gauges
func (s *Server) startMetricsUpdater(ctx context.Context, interval time.Duration) {
	if s.config.Stats == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		stats := s.config.Stats.Stats()
		s.metrics.UpdateDBStats(stats.Keys, stats.DataSize)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
