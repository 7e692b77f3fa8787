// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package epochclaim settles funded, proof-gated claim batches.
//
// A batch commits to a set of (claimant, token, amount, batch id) leaves through a merkle root.
// Every claimant redeems its leaf at most once, and after expiry the unclaimed remainder can be
// swept back exactly once. The same ledger serves several payout flows, each under its own
// namespace and leaf encoding.
package epochclaim

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/event"
	"github.com/ecmfinance/ecm-ledger/log"
	"github.com/ecmfinance/ecm-ledger/merkle"
	"github.com/ecmfinance/ecm-ledger/reverts"
	"github.com/ecmfinance/ecm-ledger/state"
	"github.com/ecmfinance/ecm-ledger/token"
)

var logger = log.WithContext("pkg", "epochclaim")

var (
	ErrBatchExists    = reverts.New(reverts.Conflict, "batch already exists")
	ErrAlreadyClaimed = reverts.New(reverts.Conflict, "already claimed")
	ErrZeroAmount     = reverts.New(reverts.Config, "zero amount")
	ErrZeroRoot       = reverts.New(reverts.Config, "zero commitment root")
	ErrZeroAddress    = reverts.New(reverts.Config, "zero address")
	ErrUnderfunded    = reverts.New(reverts.Validation, "insufficient balance to fund batch")
	ErrBatchNotFound  = reverts.New(reverts.Validation, "batch not found")
	ErrNotFunded      = reverts.New(reverts.Validation, "batch not funded")
	ErrTokenMismatch  = reverts.New(reverts.Validation, "token mismatch")
	ErrInvalidProof   = reverts.New(reverts.Validation, "invalid proof")
	ErrExceedsTotal   = reverts.New(reverts.Validation, "claim exceeds batch total")
	ErrNotExpired     = reverts.New(reverts.Validation, "batch not expired")
	ErrNothingToSweep = reverts.New(reverts.Validation, "nothing to sweep")
)

// LeafEncoder derives the committed leaf of one entitlement.
type LeafEncoder func(claimant, token ecm.Address, amount *uint256.Int, batchID uint64) ecm.Bytes32

// DefaultLeaf is keccak256(claimant ‖ token ‖ amount as 32 bytes ‖ batch id as 32 bytes).
func DefaultLeaf(claimant, token ecm.Address, amount *uint256.Int, batchID uint64) ecm.Bytes32 {
	amount32 := amount.Bytes32()
	var id32 [32]byte
	binary.BigEndian.PutUint64(id32[24:], batchID)
	return ecm.Keccak256(claimant[:], token[:], amount32[:], id32[:])
}

// HolderAddress is the account that custodies the funds of a namespace.
func HolderAddress(namespace string) ecm.Address {
	h := ecm.Keccak256([]byte("epochclaim:" + namespace))
	return ecm.BytesToAddress(h[12:])
}

// Batch is one published settlement epoch.
type Batch struct {
	ID            uint64
	Root          ecm.Bytes32
	Token         ecm.Address
	TotalAmount   *uint256.Int
	ClaimedAmount *uint256.Int
	Funded        bool
	CreatedAt     uint64
	Expiry        uint64 // 0 never expires
	Swept         bool
}

// Exists reports whether the decoded record was ever published.
func (b *Batch) Exists() bool {
	return !b.Root.IsZero()
}

// Remaining is the part of the batch nobody has claimed yet.
func (b *Batch) Remaining() *uint256.Int {
	return ecm.SaturatingSub(b.TotalAmount, b.ClaimedAmount)
}

type batchKey uint64

func (k batchKey) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(k))
}

type claimKey [8 + ecm.AddressLength]byte

func (k claimKey) Bytes() []byte { return k[:] }

func claimKeyOf(batchID uint64, claimant ecm.Address) (k claimKey) {
	binary.BigEndian.PutUint64(k[:8], batchID)
	copy(k[8:], claimant[:])
	return
}

// Ledger is one namespace of claim batches.
type Ledger struct {
	namespace   string
	holder      ecm.Address
	leaf        LeafEncoder
	tokens      *token.Ledger
	events      *event.Log
	batches     *state.Mapping[batchKey, *Batch]
	claimed     *state.Mapping[claimKey, bool]
	outstanding *state.Mapping[ecm.Address, *uint256.Int] // unclaimed funds of live batches per token
}

// New returns the ledger of namespace. A nil leaf encoder selects DefaultLeaf.
func New(st *state.State, tokens *token.Ledger, events *event.Log, namespace string, leaf LeafEncoder) *Ledger {
	if leaf == nil {
		leaf = DefaultLeaf
	}
	return &Ledger{
		namespace:   namespace,
		holder:      HolderAddress(namespace),
		leaf:        leaf,
		tokens:      tokens,
		events:      events,
		batches:     state.NewMapping[batchKey, *Batch](st, namespace+"/batches"),
		claimed:     state.NewMapping[claimKey, bool](st, namespace+"/claimed"),
		outstanding: state.NewMapping[ecm.Address, *uint256.Int](st, namespace+"/outstanding"),
	}
}

func (l *Ledger) Namespace() string { return l.namespace }
func (l *Ledger) Holder() ecm.Address { return l.holder }

// Leaf encodes an entitlement the way this ledger verifies it.
func (l *Ledger) Leaf(claimant, token ecm.Address, amount *uint256.Int, batchID uint64) ecm.Bytes32 {
	return l.leaf(claimant, token, amount, batchID)
}

// Batch returns the batch with id, ErrBatchNotFound if it was never published.
func (l *Ledger) Batch(id uint64) (*Batch, error) {
	b, err := l.batches.Get(batchKey(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get batch")
	}
	if !b.Exists() {
		return nil, ErrBatchNotFound
	}
	return b, nil
}

func (l *Ledger) IsClaimed(id uint64, claimant ecm.Address) (bool, error) {
	return l.claimed.Get(claimKeyOf(id, claimant))
}

// Outstanding returns the funds of token still owed by live batches.
func (l *Ledger) Outstanding(token ecm.Address) (*uint256.Int, error) {
	return l.outstanding.Get(token)
}

func (l *Ledger) addOutstanding(token ecm.Address, delta *uint256.Int, sub bool) error {
	cur, err := l.outstanding.Get(token)
	if err != nil {
		return err
	}
	if sub {
		cur, err = ecm.Sub(cur, delta)
	} else {
		cur, err = ecm.Add(cur, delta)
	}
	if err != nil {
		return errors.Wrap(err, "outstanding")
	}
	return l.outstanding.Set(token, cur)
}

// Publish stores a new funded batch. The holder's balance of token must cover this batch on top
// of everything still owed by earlier batches of the same token.
func (l *Ledger) Publish(id uint64, token ecm.Address, total *uint256.Int, root ecm.Bytes32, expiry, now uint64) (*Batch, error) {
	existing, err := l.batches.Get(batchKey(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get batch")
	}
	if existing.Exists() {
		return nil, ErrBatchExists
	}
	if total == nil || total.IsZero() {
		return nil, ErrZeroAmount
	}
	if root.IsZero() {
		return nil, ErrZeroRoot
	}
	if token.IsZero() {
		return nil, ErrZeroAddress
	}

	owed, err := l.outstanding.Get(token)
	if err != nil {
		return nil, err
	}
	required, err := ecm.Add(owed, total)
	if err != nil {
		return nil, errors.Wrap(err, "required funding")
	}
	balance, err := l.tokens.BalanceOf(token, l.holder)
	if err != nil {
		return nil, err
	}
	if balance.Lt(required) {
		return nil, errors.WithMessagef(ErrUnderfunded, "holder has %v, batches need %v", balance, required)
	}

	b := &Batch{
		ID:            id,
		Root:          root,
		Token:         token,
		TotalAmount:   total.Clone(),
		ClaimedAmount: ecm.Zero(),
		Funded:        true,
		CreatedAt:     now,
		Expiry:        expiry,
	}
	if err := l.batches.Set(batchKey(id), b); err != nil {
		return nil, err
	}
	if err := l.addOutstanding(token, total, false); err != nil {
		return nil, err
	}
	l.events.Emit("BatchPublished", now,
		"namespace", l.namespace, "batch", id, "token", token, "total", total.Clone(), "root", root, "expiry", expiry)
	logger.Debug("batch published", "namespace", l.namespace, "batch", id, "total", total)
	return b, nil
}

// Claim redeems the entitlement of claimant in batch id and pays it out of the holder.
func (l *Ledger) Claim(id uint64, claimant, token ecm.Address, amount *uint256.Int, proof []ecm.Bytes32, now uint64) error {
	b, err := l.Batch(id)
	if err != nil {
		return err
	}
	if !b.Funded {
		return ErrNotFunded
	}
	if b.Token != token {
		return ErrTokenMismatch
	}
	if amount == nil || amount.IsZero() {
		return ErrZeroAmount
	}
	claimed, err := l.claimed.Get(claimKeyOf(id, claimant))
	if err != nil {
		return err
	}
	if claimed {
		return ErrAlreadyClaimed
	}
	if !merkle.Verify(proof, b.Root, l.leaf(claimant, token, amount, id)) {
		return ErrInvalidProof
	}
	newClaimed, err := ecm.Add(b.ClaimedAmount, amount)
	if err != nil {
		return errors.Wrap(err, "claimed amount")
	}
	if newClaimed.Gt(b.TotalAmount) {
		return ErrExceedsTotal
	}

	if err := l.claimed.Set(claimKeyOf(id, claimant), true); err != nil {
		return err
	}
	b.ClaimedAmount = newClaimed
	if err := l.batches.Set(batchKey(id), b); err != nil {
		return err
	}
	if err := l.addOutstanding(token, amount, true); err != nil {
		return err
	}
	if err := l.tokens.Transfer(token, l.holder, claimant, amount); err != nil {
		return errors.Wrap(err, "failed to pay claim")
	}
	l.events.Emit("BatchClaimed", now,
		"namespace", l.namespace, "batch", id, "claimant", claimant, "amount", amount.Clone())
	return nil
}

// SweepExpired sends the unclaimed remainder of an expired batch to to. It closes the batch.
func (l *Ledger) SweepExpired(id uint64, to ecm.Address, now uint64) (*uint256.Int, error) {
	if to.IsZero() {
		return nil, ErrZeroAddress
	}
	b, err := l.Batch(id)
	if err != nil {
		return nil, err
	}
	if b.Expiry == 0 || now < b.Expiry {
		return nil, ErrNotExpired
	}
	remainder := b.Remaining()
	if remainder.IsZero() {
		return nil, ErrNothingToSweep
	}

	b.ClaimedAmount = b.TotalAmount.Clone()
	b.Swept = true
	if err := l.batches.Set(batchKey(id), b); err != nil {
		return nil, err
	}
	if err := l.addOutstanding(b.Token, remainder, true); err != nil {
		return nil, err
	}
	if err := l.tokens.Transfer(b.Token, l.holder, to, remainder); err != nil {
		return nil, errors.Wrap(err, "failed to sweep")
	}
	l.events.Emit("BatchSwept", now, "namespace", l.namespace, "batch", id, "to", to, "amount", remainder.Clone())
	logger.Info("batch swept", "namespace", l.namespace, "batch", id, "amount", remainder)
	return remainder, nil
}
