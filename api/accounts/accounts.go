// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ecmfinance/ecm-ledger/api/utils"
	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/service"
)

type Accounts struct {
	svc *service.Service
}

func New(svc *service.Service) *Accounts {
	return &Accounts{svc}
}

func (a *Accounts) getAccount(addr ecm.Address) (*Account, error) {
	cfg := a.svc.Config()
	sale, err := a.svc.Balance(cfg.SaleToken, addr)
	if err != nil {
		return nil, err
	}
	payment, err := a.svc.Balance(cfg.PaymentToken, addr)
	if err != nil {
		return nil, err
	}
	stats, err := a.svc.ReferralStats(addr)
	if err != nil {
		return nil, err
	}
	return &Account{
		Address:        addr,
		SaleBalance:    sale,
		PaymentBalance: payment,
		Referees:       stats.Referees,
		RefereeVolume:  stats.RefereeVolume,
		DirectPaid:     stats.DirectPaid,
		DirectAccrued:  stats.DirectAccrued,
	}, nil
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress("address", mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	acc, err := a.getAccount(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, acc)
}

func (a *Accounts) handleGetVesting(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress("address", mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	schedules, err := a.svc.VestingSchedules(addr)
	if err != nil {
		return err
	}
	now := uint64(a.svc.Clock().Now().Unix())
	res := make([]*Vesting, 0, len(schedules))
	for _, s := range schedules {
		res = append(res, convertVesting(s, now))
	}
	return utils.WriteJSON(w, res)
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
	sub.Path("/{address}/vesting").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}/vesting").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetVesting))
}
