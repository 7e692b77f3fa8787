// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochs

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/api/utils"
	"github.com/ecmfinance/ecm-ledger/epochclaim"
	"github.com/ecmfinance/ecm-ledger/service"
)

type Epochs struct {
	svc *service.Service
}

func New(svc *service.Service) *Epochs {
	return &Epochs{svc}
}

func batchRef(req *http.Request) (string, uint64, error) {
	vars := mux.Vars(req)
	id, err := utils.ParseUint("id", vars["id"])
	if err != nil {
		return "", 0, err
	}
	return vars["namespace"], id, nil
}

func (e *Epochs) handleGetBatch(w http.ResponseWriter, req *http.Request) error {
	namespace, id, err := batchRef(req)
	if err != nil {
		return err
	}
	b, err := e.svc.Batch(namespace, id)
	if err != nil {
		return utils.Ledger(err, epochclaim.ErrBatchNotFound, service.ErrUnknownNamespace)
	}
	return utils.WriteJSON(w, convertBatch(namespace, b))
}

func (e *Epochs) handleGetClaimed(w http.ResponseWriter, req *http.Request) error {
	namespace, id, err := batchRef(req)
	if err != nil {
		return err
	}
	claimant, err := utils.ParseAddress("address", mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	claimed, err := e.svc.IsClaimed(namespace, id, claimant)
	if err != nil {
		return utils.Ledger(err, service.ErrUnknownNamespace)
	}
	return utils.WriteJSON(w, &Claimed{Claimant: claimant, Claimed: claimed})
}

// handleCommit builds the merkle root and the proofs for a list of entries without publishing
// anything.
func (e *Epochs) handleCommit(w http.ResponseWriter, req *http.Request) error {
	namespace, id, err := batchRef(req)
	if err != nil {
		return err
	}
	var entries []epochclaim.Entry
	if err := utils.ParseJSON(req.Body, &entries); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	c, err := e.svc.Commit(namespace, id, entries)
	if err != nil {
		if errors.Is(err, service.ErrUnknownNamespace) {
			return utils.NotFound(err)
		}
		return utils.BadRequest(err)
	}
	return utils.WriteJSON(w, c)
}

func (e *Epochs) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{namespace}/{id}").
		Methods(http.MethodGet).
		Name("GET /epochs/{namespace}/{id}").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetBatch))
	sub.Path("/{namespace}/{id}/claimed/{address}").
		Methods(http.MethodGet).
		Name("GET /epochs/{namespace}/{id}/claimed/{address}").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetClaimed))
	sub.Path("/{namespace}/{id}/commitment").
		Methods(http.MethodPost).
		Name("POST /epochs/{namespace}/{id}/commitment").
		HandlerFunc(utils.WrapHandlerFunc(e.handleCommit))
}
