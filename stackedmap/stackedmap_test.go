// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecmfinance/ecm-ledger/stackedmap"
)

type result struct {
	v     string
	found bool
}

func TestStackedMap(t *testing.T) {
	src := map[string]string{"foo": "bar"}

	sm := stackedmap.New(func(key string) (string, bool, error) {
		v, r := src[key]
		return v, r, nil
	})
	get := func(k string) result {
		v, found, err := sm.Get(k)
		assert.NoError(t, err)
		return result{v, found}
	}

	tests := []struct {
		f         func()
		depth     int
		putKey    string
		putValue  string
		getKey    string
		getReturn result
	}{
		{func() { sm.Push() }, 1, "", "", "foo", result{"bar", true}},
		{func() { sm.Push() }, 2, "foo", "baz", "foo", result{"baz", true}},
		{func() {}, 2, "foo", "baz1", "foo", result{"baz1", true}},
		{func() { sm.Push() }, 3, "foo", "qux", "foo", result{"qux", true}},
		{func() { sm.Pop() }, 2, "", "", "foo", result{"baz1", true}},
		{func() { sm.Pop() }, 1, "", "", "foo", result{"bar", true}},
		{func() {}, 1, "", "", "missing", result{"", false}},

		{func() { sm.Push(); sm.Push() }, 3, "", "", "", result{}},
		{func() { sm.PopTo(0) }, 0, "", "", "", result{}},
	}

	for _, test := range tests {
		test.f()
		assert.Equal(t, test.depth, sm.Depth())
		if test.putKey != "" {
			sm.Put(test.putKey, test.putValue)
		}
		if test.getKey != "" {
			assert.Equal(t, test.getReturn, get(test.getKey))
		}
	}
}

func TestStackedMapJournal(t *testing.T) {
	sm := stackedmap.New(func(string) (string, bool, error) {
		return "", false, nil
	})

	kvs := []struct {
		k, v string
	}{
		{"a", "b"},
		{"a", "b"},
		{"a1", "b1"},
		{"a2", "b2"},
		{"a3", "b3"},
		{"a4", "b4"},
	}

	for _, kv := range kvs {
		sm.Push()
		sm.Put(kv.k, kv.v)
	}

	journal := sm.Journal()
	assert.Len(t, journal, len(kvs))
	for i, kv := range kvs {
		assert.Equal(t, kv.k, journal[i].Key)
		assert.Equal(t, kv.v, journal[i].Value)
	}

	sm.PopTo(2)
	assert.Len(t, sm.Journal(), 2)
	v, found, _ := sm.Get("a1")
	assert.False(t, found)
	assert.Empty(t, v)
	v, found, _ = sm.Get("a")
	assert.True(t, found)
	assert.Equal(t, "b", v)
}

func TestStackedMapRepeatedPutSameLevel(t *testing.T) {
	sm := stackedmap.New(func(string) (int, bool, error) { return 0, false, nil })
	sm.Push()
	sm.Put("k", 1)
	sm.Push()
	sm.Put("k", 2)
	sm.Put("k", 3)
	sm.Pop()

	v, found, _ := sm.Get("k")
	assert.True(t, found)
	assert.Equal(t, 1, v)
}
