// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLog(t *testing.T) {
	l := NewLog()
	l.Emit("Staked", 10, "pool", uint64(1), "amount", 5)
	mark := l.Len()
	l.Emit("Claimed", 11)
	l.Emit("Ignored", 12, "dangling")

	assert.Equal(t, 3, l.Len())
	l.Truncate(mark)
	assert.Equal(t, 1, l.Len())

	events := l.Drain()
	assert.Len(t, events, 1)
	assert.Equal(t, "Staked", events[0].Name)
	assert.Equal(t, uint64(10), events[0].Time)
	assert.Equal(t, uint64(1), events[0].Get("pool"))
	assert.Equal(t, 0, l.Len())
}
