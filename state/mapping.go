// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"reflect"
)

// Key is anything that can address an entry inside a Mapping.
type Key interface {
	Bytes() []byte
}

// Mapping is a typed key/value view over a namespace of the state. Values are rlp encoded.
type Mapping[K Key, V any] struct {
	state  *State
	prefix []byte
}

func NewMapping[K Key, V any](state *State, namespace string) *Mapping[K, V] {
	return &Mapping[K, V]{state: state, prefix: []byte(namespace + "/")}
}

func (m *Mapping[K, V]) key(k K) []byte {
	return append(append([]byte{}, m.prefix...), k.Bytes()...)
}

// Get returns the value stored under k. A pointer V is allocated, never nil, so callers
// check emptiness on the decoded value.
func (m *Mapping[K, V]) Get(k K) (value V, err error) {
	if reflect.ValueOf(value).Kind() == reflect.Ptr {
		value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
	}
	_, err = m.state.Decode(m.key(k), &value)
	return value, err
}

// Has reports whether any value was ever stored under k.
func (m *Mapping[K, V]) Has(k K) (bool, error) {
	raw, err := m.state.GetRaw(m.key(k))
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

func (m *Mapping[K, V]) Set(k K, value V) error {
	return m.state.Encode(m.key(k), value)
}

// Raw is a single typed value stored at a fixed key.
type Raw[V any] struct {
	state *State
	key   []byte
}

func NewRaw[V any](state *State, key string) *Raw[V] {
	return &Raw[V]{state: state, key: []byte(key)}
}

func (r *Raw[V]) Get() (value V, err error) {
	if reflect.ValueOf(value).Kind() == reflect.Ptr {
		value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
	}
	_, err = r.state.Decode(r.key, &value)
	return value, err
}

func (r *Raw[V]) Set(value V) error {
	return r.state.Encode(r.key, value)
}
