// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/ecm"
)

func (e *Engine) AddLiquidityManager(manager ecm.Address, now uint64) error {
	return e.atomic("add_liquidity_manager", func() error {
		if manager.IsZero() {
			return ErrZeroAddress
		}
		if err := e.storage.managers.Set(manager, true); err != nil {
			return errors.Wrap(err, "failed to set manager")
		}
		e.events.Emit("LiquidityManagerAdded", now, "manager", manager)
		return nil
	})
}

func (e *Engine) RemoveLiquidityManager(manager ecm.Address, now uint64) error {
	return e.atomic("remove_liquidity_manager", func() error {
		if err := e.storage.managers.Set(manager, false); err != nil {
			return errors.Wrap(err, "failed to set manager")
		}
		e.events.Emit("LiquidityManagerRemoved", now, "manager", manager)
		return nil
	})
}

func (e *Engine) IsLiquidityManager(manager ecm.Address) (bool, error) {
	return e.storage.managers.Get(manager)
}

func (e *Engine) requireManager(manager ecm.Address) error {
	ok, err := e.IsLiquidityManager(manager)
	if err != nil {
		return errors.Wrap(err, "failed to get manager")
	}
	if !ok {
		return ErrNotLiquidityManager
	}
	return nil
}

// TransferToLiquidity hands collected payment and unsold sale tokens of a pool to a liquidity
// manager. Neither amount can exceed what the pool still holds.
func (e *Engine) TransferToLiquidity(poolID uint64, manager ecm.Address, paymentAmount, ecmAmount *uint256.Int, now uint64) error {
	return e.atomic("transfer_to_liquidity", func() error {
		if err := e.requireManager(manager); err != nil {
			return err
		}
		p, err := e.storage.getPool(poolID)
		if err != nil {
			return err
		}
		paymentAmount, ecmAmount := ecm.Clone(paymentAmount), ecm.Clone(ecmAmount)
		if paymentAmount.IsZero() && ecmAmount.IsZero() {
			return ErrZeroAmount
		}
		if paymentAmount.Gt(ecm.SaturatingSub(p.PaymentCollected, p.LiquidityPaymentOut)) {
			return errors.WithMessage(ErrExceedsAvailable, "payment")
		}
		if ecmAmount.Gt(p.SaleInventory()) {
			return errors.WithMessage(ErrExceedsAvailable, "sale inventory")
		}
		if err := e.tokens.Transfer(e.cfg.PaymentToken, e.cfg.Account, manager, paymentAmount); err != nil {
			return errors.Wrap(err, "failed to transfer payment")
		}
		if err := e.tokens.Transfer(e.cfg.SaleToken, e.cfg.Account, manager, ecmAmount); err != nil {
			return errors.Wrap(err, "failed to transfer sale token")
		}
		if p.LiquidityPaymentOut, err = ecm.Add(p.LiquidityPaymentOut, paymentAmount); err != nil {
			return errors.Wrap(err, "liquidity payment out")
		}
		if p.ECMToLiquidity, err = ecm.Add(p.ECMToLiquidity, ecmAmount); err != nil {
			return errors.Wrap(err, "ecm to liquidity")
		}
		if err := e.savePool(p); err != nil {
			return err
		}
		e.events.Emit("LiquidityTransferred", now,
			"pool", poolID, "manager", manager, "payment", paymentAmount, "ecm", ecmAmount)
		return nil
	})
}

// RecordLiquidityDeposit is reported by a manager once funds entered the AMM. The running totals
// never exceed what was transferred out.
func (e *Engine) RecordLiquidityDeposit(poolID uint64, manager ecm.Address, paymentUsed, ecmUsed *uint256.Int, now uint64) error {
	return e.atomic("record_liquidity_deposit", func() error {
		if err := e.requireManager(manager); err != nil {
			return err
		}
		p, err := e.storage.getPool(poolID)
		if err != nil {
			return err
		}
		paymentUsed, ecmUsed := ecm.Clone(paymentUsed), ecm.Clone(ecmUsed)
		if p.LiquidityPaymentDeposited, err = ecm.Add(p.LiquidityPaymentDeposited, paymentUsed); err != nil {
			return errors.Wrap(err, "liquidity payment deposited")
		}
		if p.LiquidityECMDeposited, err = ecm.Add(p.LiquidityECMDeposited, ecmUsed); err != nil {
			return errors.Wrap(err, "liquidity ecm deposited")
		}
		if p.LiquidityPaymentDeposited.Gt(p.LiquidityPaymentOut) {
			return errors.WithMessage(ErrExceedsTransferred, "payment")
		}
		if p.LiquidityECMDeposited.Gt(p.ECMToLiquidity) {
			return errors.WithMessage(ErrExceedsTransferred, "sale token")
		}
		if err := e.savePool(p); err != nil {
			return err
		}
		e.events.Emit("LiquidityDeposited", now,
			"pool", poolID, "manager", manager, "payment", paymentUsed, "ecm", ecmUsed)
		return nil
	})
}
