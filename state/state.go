// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/kv"
	"github.com/ecmfinance/ecm-ledger/stackedmap"
)

const readCacheSize = 4096

// Bucket holds every persisted state entry.
var Bucket = kv.Bucket("s/")

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// State manages the ledger state.
type State struct {
	db    kv.Getter  // nil for a purely in-memory state
	cache *lru.Cache // raw values read from db
	sm    *stackedmap.StackedMap[string, []byte]
}

// New create state object backed by db. A nil db gives an empty in-memory state.
func New(db kv.Getter) *State {
	cache, _ := lru.New(readCacheSize)
	s := &State{
		cache: cache,
	}
	if db != nil {
		s.db = Bucket.NewGetter(db)
	}
	s.sm = stackedmap.New(s.load)
	s.sm.Push()
	return s
}

// load implements stackedmap.MapGetter.
func (s *State) load(key string) ([]byte, bool, error) {
	if v, ok := s.cache.Get(key); ok {
		return v.([]byte), true, nil
	}
	if s.db == nil {
		return nil, false, nil
	}
	v, err := s.db.Get([]byte(key))
	if err != nil {
		if s.db.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	s.cache.Add(key, v)
	return v, true, nil
}

// GetRaw returns the raw value stored under key, nil if absent.
func (s *State) GetRaw(key []byte) ([]byte, error) {
	v, _, err := s.sm.Get(string(key))
	if err != nil {
		return nil, &Error{err}
	}
	return v, nil
}

// SetRaw sets the raw value of key.
func (s *State) SetRaw(key, value []byte) {
	s.sm.Put(string(key), value)
}

// Decode loads the rlp value under key into v. It reports false, leaving v untouched, if absent.
func (s *State) Decode(key []byte, v any) (bool, error) {
	raw, err := s.GetRaw(key)
	if err != nil {
		return false, err
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(raw, v); err != nil {
		return false, &Error{errors.Wrapf(err, "decode %x", key)}
	}
	return true, nil
}

// Encode stores the rlp encoding of v under key.
func (s *State) Encode(key []byte, v any) error {
	raw, err := rlp.EncodeToBytes(v)
	if err != nil {
		return &Error{errors.Wrapf(err, "encode %x", key)}
	}
	s.SetRaw(key, raw)
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
	if s.sm.Depth() == 0 {
		s.sm.Push()
	}
}

// Changes returns the latest value of every key written since the last commit.
func (s *State) Changes() map[string][]byte {
	changes := make(map[string][]byte)
	for _, entry := range s.sm.Journal() {
		changes[entry.Key] = entry.Value
	}
	return changes
}

// Commit writes all pending changes into the batch and writes the batch.
// The journal is reset once the batch is durable.
func (s *State) Commit(batch kv.Batch) error {
	changes := s.Changes()
	if len(changes) == 0 {
		return nil
	}
	putter := Bucket.NewPutter(batch)
	for k, v := range changes {
		if err := putter.Put([]byte(k), v); err != nil {
			return &Error{err}
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}
	for k, v := range changes {
		s.cache.Add(k, v)
	}
	s.sm.PopTo(0)
	s.sm.Push()
	return nil
}
