// Package remote implements store.Store over the recordkv HTTP API.
//
// The server speaks in records (field maps), while a store deals in opaque
// values. The client bridges the two with package codec: values handed to
// Put are decoded into records before they are sent, and records coming back
// from get and scan are encoded again. An adapter.DB on top of a Client
// therefore behaves exactly as it does over a local engine.
package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ssargent/recordkv/pkg/codec"
	"github.com/ssargent/recordkv/pkg/store"
)

// Format is the body encoding used on the wire.
type Format string

const (
	// FormatJSON sends fields as JSON strings; values must be valid UTF-8.
	FormatJSON Format = "json"
	// FormatMsgpack sends fields as binary, so any value survives.
	FormatMsgpack Format = "msgpack"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/msgpack"
)

// DefaultTimeout bounds every request when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Config configures a Client.
type Config struct {
	Endpoint   string        // base URL, e.g. http://127.0.0.1:8080
	APIKey     string        // sent as X-API-Key when set
	Timeout    time.Duration // per request
	Format     Format        // json (default) or msgpack
	HTTPClient *http.Client  // overrides Timeout when set
}

// StatusError is an unexpected HTTP status from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Message)
}

// Client is a store.Store backed by a remote server.
type Client struct {
	base   *url.URL
	apiKey string
	format Format
	http   *http.Client
	closed atomic.Bool
}

var _ store.Store = (*Client)(nil)

// New validates cfg and returns a Client. No request is made.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("remote: endpoint is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("remote: invalid endpoint: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("remote: endpoint must be http or https, got %q", cfg.Endpoint)
	}

	format := cfg.Format
	switch format {
	case "":
		format = FormatJSON
	case FormatJSON, FormatMsgpack:
	default:
		return nil, fmt.Errorf("remote: unknown format %q", format)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{base: base, apiKey: cfg.APIKey, format: format, http: hc}, nil
}

func (c *Client) Get(key []byte) ([]byte, error) {
	if c.closed.Load() {
		return nil, store.ErrClosed
	}

	q := url.Values{"key": {string(key)}}
	body, err := c.do(http.MethodGet, "/get", q, nil, "")
	if err != nil {
		return nil, wrap("get", key, err)
	}

	rec, err := c.decodeRecord(body)
	if err != nil {
		return nil, wrap("get", key, err)
	}
	return codec.Encode(rec), nil
}

func (c *Client) Put(key, value []byte) error {
	if c.closed.Load() {
		return store.ErrClosed
	}
	if len(key) == 0 {
		return store.ErrInvalidKey
	}

	rec, err := codec.Decode(value, nil)
	if err != nil {
		return wrap("put", key, err)
	}
	body, contentType, err := c.encodeRecord(rec)
	if err != nil {
		return wrap("put", key, err)
	}

	_, err = c.do(http.MethodPost, "/put", url.Values{"key": {string(key)}}, body, contentType)
	return wrap("put", key, err)
}

func (c *Client) Delete(key []byte) error {
	if c.closed.Load() {
		return store.ErrClosed
	}
	_, err := c.do(http.MethodPost, "/del", url.Values{"key": {string(key)}}, nil, "")
	return wrap("delete", key, err)
}

func (c *Client) Scan(startKey []byte, limit int) (*store.ScanResult, error) {
	if c.closed.Load() {
		return nil, store.ErrClosed
	}

	q := url.Values{"key": {string(startKey)}, "limit": {strconv.Itoa(limit)}}
	body, err := c.do(http.MethodGet, "/scan", q, nil, "")
	if err != nil {
		return nil, wrap("scan", startKey, err)
	}

	records, err := c.decodeRecordList(body)
	if err != nil {
		return nil, wrap("scan", startKey, err)
	}

	b := store.NewScanBuilder(len(records))
	for _, rec := range records {
		b.Append(codec.Encode(rec))
	}
	return b.Result()
}

// Close marks the client closed and drops idle connections. Later calls
// return store.ErrClosed.
func (c *Client) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.http.CloseIdleConnections()
	}
	return nil
}

func (c *Client) do(method, path string, q url.Values, body []byte, contentType string) ([]byte, error) {
	if c.format == FormatMsgpack {
		q.Set("format", string(FormatMsgpack))
	}
	u := *c.base
	u.Path += path
	u.RawQuery = q.Encode()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return data, nil
	case http.StatusNotFound:
		return nil, store.ErrKeyNotFound
	}

	var envelope struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(data, &envelope)
	return nil, &StatusError{Code: resp.StatusCode, Message: envelope.Error}
}

func (c *Client) encodeRecord(rec codec.Record) ([]byte, string, error) {
	if c.format == FormatMsgpack {
		body, err := msgpack.Marshal(map[string][]byte(rec))
		return body, contentTypeMsgpack, err
	}
	fields := make(map[string]string, len(rec))
	for name, value := range rec {
		fields[name] = string(value)
	}
	body, err := json.Marshal(fields)
	return body, contentTypeJSON, err
}

func (c *Client) decodeRecord(body []byte) (codec.Record, error) {
	if c.format == FormatMsgpack {
		var rec map[string][]byte
		if err := msgpack.Unmarshal(body, &rec); err != nil {
			return nil, err
		}
		return codec.Record(rec), nil
	}
	var fields map[string]string
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	return stringsToRecord(fields), nil
}

func (c *Client) decodeRecordList(body []byte) ([]codec.Record, error) {
	if c.format == FormatMsgpack {
		var list []map[string][]byte
		if err := msgpack.Unmarshal(body, &list); err != nil {
			return nil, err
		}
		out := make([]codec.Record, len(list))
		for i, rec := range list {
			out[i] = rec
		}
		return out, nil
	}
	var list []map[string]string
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, err
	}
	out := make([]codec.Record, len(list))
	for i, fields := range list {
		out[i] = stringsToRecord(fields)
	}
	return out, nil
}

func stringsToRecord(fields map[string]string) codec.Record {
	rec := make(codec.Record, len(fields))
	for name, value := range fields {
		rec[name] = []byte(value)
	}
	return rec
}

// wrap keeps not-found bare so callers can compare with errors.Is.
func wrap(op string, key []byte, err error) error {
	if err == nil || errors.Is(err, store.ErrKeyNotFound) {
		return err
	}
	return &store.OpError{Op: op, Key: append([]byte(nil), key...), Err: err}
}
