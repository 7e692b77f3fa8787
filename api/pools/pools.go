// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/api/utils"
	"github.com/ecmfinance/ecm-ledger/service"
	"github.com/ecmfinance/ecm-ledger/staker"
)

type Pools struct {
	svc *service.Service
}

func New(svc *service.Service) *Pools {
	return &Pools{svc}
}

func poolID(req *http.Request) (uint64, error) {
	return utils.ParseUint("id", mux.Vars(req)["id"])
}

func (p *Pools) handleGetPools(w http.ResponseWriter, _ *http.Request) error {
	pools, err := p.svc.Pools()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, pools)
}

func (p *Pools) handleGetPool(w http.ResponseWriter, req *http.Request) error {
	id, err := poolID(req)
	if err != nil {
		return err
	}
	info, err := p.svc.PoolInfo(id)
	if err != nil {
		return utils.Ledger(err, staker.ErrPoolNotFound)
	}
	return utils.WriteJSON(w, info)
}

func (p *Pools) handleGetUser(w http.ResponseWriter, req *http.Request) error {
	id, err := poolID(req)
	if err != nil {
		return err
	}
	user, err := utils.ParseAddress("address", mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	info, err := p.svc.UserInfo(id, user)
	if err != nil {
		return utils.Ledger(err, staker.ErrPoolNotFound)
	}
	return utils.WriteJSON(w, info)
}

// handleGetQuote prices a purchase paying payIn, or buying exactly out.
func (p *Pools) handleGetQuote(w http.ResponseWriter, req *http.Request) error {
	id, err := poolID(req)
	if err != nil {
		return err
	}
	query := req.URL.Query()
	payIn, err := utils.ParseAmount("payIn", query.Get("payIn"))
	if err != nil {
		return err
	}
	out, err := utils.ParseAmount("out", query.Get("out"))
	if err != nil {
		return err
	}

	var quote *staker.Quote
	switch {
	case payIn != nil && out != nil:
		return utils.BadRequest(errors.New("payIn and out are exclusive"))
	case payIn != nil:
		quote, err = p.svc.QuoteBuyExactIn(id, payIn)
	case out != nil:
		quote, err = p.svc.QuoteBuyExactOut(id, out)
	default:
		return utils.BadRequest(errors.New("payIn or out required"))
	}
	if err != nil {
		return utils.Ledger(err, staker.ErrPoolNotFound)
	}
	return utils.WriteJSON(w, quote)
}

func (p *Pools) handleGetProjection(w http.ResponseWriter, req *http.Request) error {
	id, err := poolID(req)
	if err != nil {
		return err
	}
	query := req.URL.Query()
	amount, err := utils.ParseAmount("amount", query.Get("amount"))
	if err != nil {
		return err
	}
	if amount == nil {
		return utils.BadRequest(errors.New("amount required"))
	}
	duration, err := utils.ParseUint("duration", query.Get("duration"))
	if err != nil {
		return err
	}
	reward, err := p.svc.ProjectRewards(id, amount, duration)
	if err != nil {
		return utils.Ledger(err, staker.ErrPoolNotFound)
	}
	return utils.WriteJSON(w, &Projection{Amount: amount, Duration: duration, Reward: reward})
}

func (p *Pools) handleGetAnalytics(w http.ResponseWriter, req *http.Request) error {
	id, err := poolID(req)
	if err != nil {
		return err
	}
	a, err := p.svc.Analytics(id)
	if err != nil {
		return utils.Ledger(err, staker.ErrPoolNotFound)
	}
	return utils.WriteJSON(w, a)
}

func (p *Pools) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /pools").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetPools))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("GET /pools/{id}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetPool))
	sub.Path("/{id}/users/{address}").
		Methods(http.MethodGet).
		Name("GET /pools/{id}/users/{address}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetUser))
	sub.Path("/{id}/quote").
		Methods(http.MethodGet).
		Name("GET /pools/{id}/quote").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetQuote))
	sub.Path("/{id}/projection").
		Methods(http.MethodGet).
		Name("GET /pools/{id}/projection").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetProjection))
	sub.Path("/{id}/analytics").
		Methods(http.MethodGet).
		Name("GET /pools/{id}/analytics").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetAnalytics))
}
