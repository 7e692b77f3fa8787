// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state is the journaled key/value world state shared by every ledger component.
//
// Writes go to the top of a stack of maps; NewCheckpoint/RevertTo give all-or-nothing
// semantics to a multi-step operation. Commit flattens the journal into a kv batch.
package state
