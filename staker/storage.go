// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/state"
)

type poolKey uint64

func (k poolKey) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(k))
}

type positionKey [8 + ecm.AddressLength]byte

func (k positionKey) Bytes() []byte { return k[:] }

func positionKeyOf(poolID uint64, user ecm.Address) (k positionKey) {
	binary.BigEndian.PutUint64(k[:8], poolID)
	copy(k[8:], user[:])
	return
}

// storage holds the two registries of the engine plus its allow-list.
type storage struct {
	pools     *state.Mapping[poolKey, *Pool]
	positions *state.Mapping[positionKey, *Position]
	poolCount *state.Raw[uint64]
	managers  *state.Mapping[ecm.Address, bool]
}

func newStorage(st *state.State) *storage {
	return &storage{
		pools:     state.NewMapping[poolKey, *Pool](st, "staker/pools"),
		positions: state.NewMapping[positionKey, *Position](st, "staker/positions"),
		poolCount: state.NewRaw[uint64](st, "staker/pool-count"),
		managers:  state.NewMapping[ecm.Address, bool](st, "staker/liquidity-managers"),
	}
}

func (s *storage) getPool(id uint64) (*Pool, error) {
	p, err := s.pools.Get(poolKey(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool")
	}
	if !p.Exists() {
		return nil, ErrPoolNotFound
	}
	p.normalize()
	return p, nil
}

func (s *storage) setPool(p *Pool) error {
	if err := s.pools.Set(poolKey(p.ID), p); err != nil {
		return errors.Wrap(err, "failed to set pool")
	}
	return nil
}

func (s *storage) getPosition(poolID uint64, user ecm.Address) (*Position, error) {
	pos, err := s.positions.Get(positionKeyOf(poolID, user))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get position")
	}
	pos.normalize()
	return pos, nil
}

func (s *storage) setPosition(poolID uint64, user ecm.Address, pos *Position) error {
	if err := s.positions.Set(positionKeyOf(poolID, user), pos); err != nil {
		return errors.Wrap(err, "failed to set position")
	}
	return nil
}

func (s *storage) nextPoolID() (uint64, error) {
	n, err := s.poolCount.Get()
	if err != nil {
		return 0, err
	}
	n++
	if err := s.poolCount.Set(n); err != nil {
		return 0, err
	}
	return n, nil
}
