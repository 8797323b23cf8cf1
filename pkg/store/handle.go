package store

import (
	"sync"
	"sync/atomic"
)

// Opener creates the Store a Handle shares.
type Opener func() (Store, error)

// Handle shares one Store between many callers. The first Acquire opens it;
// an open failure is kept and returned to every later caller without retry.
// Close closes the underlying store exactly once, whoever calls it.
type Handle struct {
	open Opener

	mu      sync.Mutex
	store   Store
	openErr error
	opened  bool

	closed atomic.Bool
}

// NewHandle returns a Handle that opens its store lazily with open.
func NewHandle(open Opener) *Handle {
	return &Handle{open: open}
}

// Acquire returns the shared store, opening it on first use.
func (h *Handle) Acquire() (Store, error) {
	if h.closed.Load() {
		return nil, ErrClosed
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.opened {
		h.opened = true
		h.store, h.openErr = h.open()
	}
	if h.openErr != nil {
		return nil, h.openErr
	}
	if h.closed.Load() {
		return nil, ErrClosed
	}
	return h.store, nil
}

// Close releases the store. Only the first call does any work; the rest
// return nil.
func (h *Handle) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.store == nil {
		return nil
	}
	return h.store.Close()
}

// Closed reports whether Close has been called.
func (h *Handle) Closed() bool {
	return h.closed.Load()
}

// Get reads key from the shared store, opening it if needed.
func (h *Handle) Get(key []byte) ([]byte, error) {
	s, err := h.Acquire()
	if err != nil {
		return nil, err
	}
	return s.Get(key)
}

// Put writes value under key in the shared store.
func (h *Handle) Put(key, value []byte) error {
	s, err := h.Acquire()
	if err != nil {
		return err
	}
	return s.Put(key, value)
}

// Delete removes key from the shared store.
func (h *Handle) Delete(key []byte) error {
	s, err := h.Acquire()
	if err != nil {
		return err
	}
	return s.Delete(key)
}

// Scan returns up to limit values from startKey in key order.
func (h *Handle) Scan(startKey []byte, limit int) (*ScanResult, error) {
	s, err := h.Acquire()
	if err != nil {
		return nil, err
	}
	return s.Scan(startKey, limit)
}

// Stats reports the statistics of the underlying store when it keeps any.
// It never opens the store.
func (h *Handle) Stats() *StoreStats {
	h.mu.Lock()
	s := h.store
	h.mu.Unlock()

	if sp, ok := s.(interface{ Stats() *StoreStats }); ok && !h.closed.Load() {
		return sp.Stats()
	}
	return &StoreStats{}
}
