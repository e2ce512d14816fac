// Package sequencestore implements §4.4: durable, crash-safe incoming and
// outgoing sequence counters. Every mutation is serialized to disk under an
// OS-level exclusive file lock while under an in-process mutex, so the
// on-disk record and the in-memory value never diverge.
package sequencestore

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/gofrs/flock"

	"github.com/primefix/fix-engine/internal/fxerr"
)

// counters is the persisted record shape: {"incoming": n, "outgoing": n}.
type counters struct {
	Incoming uint64 `json:"incoming"`
	Outgoing uint64 `json:"outgoing"`
}

// Store holds the session's SequenceCounters (§3) and persists them to
// filePath on every mutation.
type Store struct {
	mu       sync.Mutex
	filePath string
	incoming uint64
	outgoing uint64
}

// Open loads filePath if it exists and contains a valid record; otherwise
// both counters default to 1, matching the crash-recovery fallback in §3.
func Open(filePath string) (*Store, error) {
	s := &Store{filePath: filePath, incoming: 1, outgoing: 1}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, &fxerr.IoError{Detail: "reading sequence store " + filePath, Cause: err}
	}

	var c counters
	if err := json.Unmarshal(data, &c); err != nil {
		// Corrupt file: fall back to defaults rather than failing startup.
		return s, nil
	}
	if c.Incoming == 0 || c.Outgoing == 0 {
		return s, nil
	}

	s.incoming = c.Incoming
	s.outgoing = c.Outgoing
	return s, nil
}

// GetIncoming returns the next expected incoming MsgSeqNum.
func (s *Store) GetIncoming() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incoming
}

// GetOutgoing returns the next outgoing MsgSeqNum to be sent.
func (s *Store) GetOutgoing() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outgoing
}

// IncrementIncoming advances the incoming counter by one and persists it.
func (s *Store) IncrementIncoming() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incoming++
	return s.persistLocked()
}

// IncrementOutgoing advances the outgoing counter by one and persists it.
func (s *Store) IncrementOutgoing() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outgoing++
	return s.persistLocked()
}

// SetIncoming overwrites the incoming counter and persists it.
func (s *Store) SetIncoming(n uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incoming = n
	return s.persistLocked()
}

// SetOutgoing overwrites the outgoing counter and persists it.
func (s *Store) SetOutgoing(n uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outgoing = n
	return s.persistLocked()
}

// persistLocked writes the current counters to filePath while holding an OS
// exclusive lock. Callers must hold s.mu.
func (s *Store) persistLocked() error {
	data, err := json.Marshal(counters{Incoming: s.incoming, Outgoing: s.outgoing})
	if err != nil {
		return &fxerr.IoError{Detail: "marshaling sequence store record", Cause: err}
	}

	fl := flock.New(s.filePath + ".lock")
	if err := fl.Lock(); err != nil {
		return &fxerr.IoError{Detail: "locking sequence store " + s.filePath, Cause: err}
	}
	defer fl.Unlock()

	if err := os.WriteFile(s.filePath, data, 0o644); err != nil {
		return &fxerr.IoError{Detail: "writing sequence store " + s.filePath, Cause: err}
	}
	return nil
}
