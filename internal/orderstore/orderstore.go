// Package orderstore implements §4.5: a keyed, in-memory order ledger backed
// by a fixed-size memory-mapped file, so that the process's latest order
// state survives a restart. Readers never block writers from completing
// because the lock is released before the mapped-region flush; the
// in-memory state is authoritative within the process, the file is
// authoritative across restarts.
package orderstore

import (
	"bytes"
	"encoding/gob"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/edsrzf/mmap-go"
	"github.com/olekukonko/tablewriter"

	"github.com/primefix/fix-engine/internal/fxerr"
)

// Store is the id -> Order ledger.
type Store struct {
	mu     sync.RWMutex
	orders map[uint64]*Order

	file     *os.File
	region   mmap.MMap
	capacity int
}

// Open creates or opens the backing file at path, truncates/extends it to
// size bytes, and memory-maps it. Existing content is loaded if it decodes
// as a valid order map; otherwise the store starts empty (a fresh file is
// all zero bytes, which does not gob-decode and so falls back cleanly).
func Open(path string, size int) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, &fxerr.IoError{Detail: "opening order store " + path, Cause: err}
	}

	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, &fxerr.IoError{Detail: "sizing order store " + path, Cause: err}
	}

	region, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, &fxerr.IoError{Detail: "mapping order store " + path, Cause: err}
	}

	s := &Store{
		orders:   make(map[uint64]*Order),
		file:     f,
		region:   region,
		capacity: size,
	}

	if orders, err := decodeOrders(region); err == nil {
		s.orders = orders
	}

	return s, nil
}

// Close unmaps the backing region and closes the file.
func (s *Store) Close() error {
	if err := s.region.Unmap(); err != nil {
		return &fxerr.IoError{Detail: "unmapping order store", Cause: err}
	}
	return s.file.Close()
}

// Add inserts a new order, stamping CreatedAt/UpdatedAt, and persists the
// ledger.
func (s *Store) Add(o *Order) error {
	s.mu.Lock()
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	s.orders[o.ID] = o.Clone()
	snapshot := s.cloneOrdersLocked()
	s.mu.Unlock()

	return s.persist(snapshot)
}

// Update mutates an existing order in place (identified by o.ID) and
// persists the ledger. It fails if the id is unknown, per §4.5.
func (s *Store) Update(o *Order) error {
	s.mu.Lock()
	if _, ok := s.orders[o.ID]; !ok {
		s.mu.Unlock()
		return &fxerr.ValidationError{Detail: "order id not found"}
	}
	o.UpdatedAt = time.Now()
	s.orders[o.ID] = o.Clone()
	snapshot := s.cloneOrdersLocked()
	s.mu.Unlock()

	return s.persist(snapshot)
}

// Get returns a defensive copy of the order keyed by id, or nil if absent.
func (s *Store) Get(id uint64) *Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil
	}
	return o.Clone()
}

// Remove deletes the order keyed by id and persists the ledger.
func (s *Store) Remove(id uint64) error {
	s.mu.Lock()
	delete(s.orders, id)
	snapshot := s.cloneOrdersLocked()
	s.mu.Unlock()

	return s.persist(snapshot)
}

// All returns defensive copies of every order in the ledger.
func (s *Store) All() []*Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o.Clone())
	}
	return out
}

// Open returns defensive copies of every still-working order.
func (s *Store) Open() []*Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Order, 0)
	for _, o := range s.orders {
		if o.IsOpen() {
			out = append(out, o.Clone())
		}
	}
	return out
}

// Snapshot renders the ledger as a human-readable table (§4.5).
func (s *Store) Snapshot() string {
	orders := s.All()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"ID", "ClOrdID", "Symbol", "Side", "Qty", "Price", "Status"})
	for _, o := range orders {
		table.Append([]string{
			strconv.FormatUint(o.ID, 10), o.ClOrdID, o.Symbol, string(o.Side), o.Quantity, o.Price, string(o.OrdStatus),
		})
	}
	table.Render()
	return buf.String()
}

func (s *Store) cloneOrdersLocked() map[uint64]*Order {
	snapshot := make(map[uint64]*Order, len(s.orders))
	for id, o := range s.orders {
		snapshot[id] = o.Clone()
	}
	return snapshot
}

// persist gob-encodes snapshot and copies it into the mapped region. It is
// called without s.mu held, so readers and writers of the in-memory map are
// never blocked by the flush (§4.5).
func (s *Store) persist(snapshot map[uint64]*Order) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snapshot); err != nil {
		return &fxerr.IoError{Detail: "encoding order store", Cause: err}
	}

	if buf.Len() > s.capacity {
		return &fxerr.StoreCapacityExceededError{Needed: buf.Len(), Capacity: s.capacity}
	}

	copy(s.region, buf.Bytes())
	for i := buf.Len(); i < len(s.region); i++ {
		s.region[i] = 0
	}
	return s.region.Flush()
}

func decodeOrders(region mmap.MMap) (map[uint64]*Order, error) {
	orders := make(map[uint64]*Order)
	dec := gob.NewDecoder(bytes.NewReader(region))
	if err := dec.Decode(&orders); err != nil {
		return nil, err
	}
	return orders, nil
}
