// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package event records what ledger operations did. Entries are buffered while an operation runs
// and dropped again if it reverts.
package event

import (
	"sync"
)

// Event is a single record emitted by a ledger operation.
type Event struct {
	Name  string         `json:"name"`
	Time  uint64         `json:"time"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Get returns the attribute stored under key.
func (e Event) Get(key string) any {
	return e.Attrs[key]
}

// Log buffers events until they are drained.
type Log struct {
	mu     sync.Mutex
	events []Event
}

func NewLog() *Log {
	return &Log{}
}

// Emit appends an event built from alternating key/value pairs.
func (l *Log) Emit(name string, now uint64, kv ...any) {
	attrs := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		attrs[key] = kv[i+1]
	}
	l.mu.Lock()
	l.events = append(l.events, Event{Name: name, Time: now, Attrs: attrs})
	l.mu.Unlock()
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Truncate drops every event after the first n.
func (l *Log) Truncate(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n < len(l.events) {
		l.events = l.events[:n]
	}
}

// Drain returns the buffered events and empties the buffer.
func (l *Log) Drain() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	events := l.events
	l.events = nil
	return events
}
