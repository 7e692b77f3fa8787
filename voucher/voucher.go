// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package voucher verifies referral vouchers signed by a trusted issuer and tracks their use.
package voucher

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/event"
	"github.com/ecmfinance/ecm-ledger/reverts"
	"github.com/ecmfinance/ecm-ledger/state"
)

var (
	ErrInvalidSignature = reverts.New(reverts.Validation, "voucher: invalid signature")
	ErrExpired          = reverts.New(reverts.Validation, "voucher: expired")
	ErrRevoked          = reverts.New(reverts.Conflict, "voucher: revoked")
	ErrUsesExhausted    = reverts.New(reverts.Conflict, "voucher: uses exhausted")
)

var domain = []byte("ecm-referral-voucher")

// Input is the signed content of a voucher.
type Input struct {
	ID                  ecm.Bytes32 `json:"id" yaml:"id"`
	Referrer            ecm.Address `json:"referrer" yaml:"referrer"`
	DirectBps           uint64      `json:"directBps" yaml:"directBps"`
	TransferImmediately bool        `json:"transferImmediately" yaml:"transferImmediately"`
	Expiry              uint64      `json:"expiry" yaml:"expiry"`   // 0 never expires
	MaxUses             uint64      `json:"maxUses" yaml:"maxUses"` // 0 unlimited
}

// Hash is the digest the issuer signs.
func (in *Input) Hash() (ecm.Bytes32, error) {
	enc, err := rlp.EncodeToBytes(in)
	if err != nil {
		return ecm.Bytes32{}, err
	}
	return ecm.Keccak256(domain, enc), nil
}

// Sign signs the voucher with the issuer key.
func Sign(in *Input, key *ecdsa.PrivateKey) ([]byte, error) {
	h, err := in.Hash()
	if err != nil {
		return nil, err
	}
	return crypto.Sign(h[:], key)
}

// Signer recovers the address that signed in.
func Signer(in *Input, sig []byte) (ecm.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return ecm.Address{}, ErrInvalidSignature
	}
	h, err := in.Hash()
	if err != nil {
		return ecm.Address{}, err
	}
	normalized := make([]byte, len(sig))
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(h[:], normalized)
	if err != nil {
		return ecm.Address{}, ErrInvalidSignature
	}
	return ecm.Address(crypto.PubkeyToAddress(*pub)), nil
}

// Result is what a redeemed voucher grants.
type Result struct {
	Referrer            ecm.Address
	DirectBps           uint64
	TransferImmediately bool
}

type idKey ecm.Bytes32

func (k idKey) Bytes() []byte { return k[:] }

// Verifier accepts vouchers of one issuer.
type Verifier struct {
	issuer  ecm.Address
	events  *event.Log
	uses    *state.Mapping[idKey, uint64]
	revoked *state.Mapping[idKey, bool]
}

func New(st *state.State, events *event.Log, issuer ecm.Address) *Verifier {
	return &Verifier{
		issuer:  issuer,
		events:  events,
		uses:    state.NewMapping[idKey, uint64](st, "vouchers/uses"),
		revoked: state.NewMapping[idKey, bool](st, "vouchers/revoked"),
	}
}

func (v *Verifier) Issuer() ecm.Address { return v.issuer }

// VerifyAndConsume checks the voucher and counts one use of it.
func (v *Verifier) VerifyAndConsume(in *Input, sig []byte, redeemer ecm.Address, now uint64) (*Result, error) {
	signer, err := Signer(in, sig)
	if err != nil {
		return nil, err
	}
	if signer != v.issuer {
		return nil, ErrInvalidSignature
	}
	if in.Expiry != 0 && now >= in.Expiry {
		return nil, ErrExpired
	}
	revoked, err := v.revoked.Get(idKey(in.ID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get revocation")
	}
	if revoked {
		return nil, ErrRevoked
	}
	used, err := v.uses.Get(idKey(in.ID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get uses")
	}
	if in.MaxUses != 0 && used >= in.MaxUses {
		return nil, ErrUsesExhausted
	}
	if err := v.uses.Set(idKey(in.ID), used+1); err != nil {
		return nil, err
	}
	v.events.Emit("VoucherRedeemed", now, "voucher", in.ID, "referrer", in.Referrer, "redeemer", redeemer)
	return &Result{
		Referrer:            in.Referrer,
		DirectBps:           in.DirectBps,
		TransferImmediately: in.TransferImmediately,
	}, nil
}

// Revoke disables a voucher for good.
func (v *Verifier) Revoke(id ecm.Bytes32, now uint64) error {
	if err := v.revoked.Set(idKey(id), true); err != nil {
		return err
	}
	v.events.Emit("VoucherRevoked", now, "voucher", id)
	return nil
}

func (v *Verifier) Uses(id ecm.Bytes32) (uint64, error) {
	return v.uses.Get(idKey(id))
}
