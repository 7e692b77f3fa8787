// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecmfinance/ecm-ledger/api/accounts"
	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/test/testledger"
)

func httpGet(t *testing.T, url string, out any) int {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if res.StatusCode == http.StatusOK && out != nil {
		require.NoError(t, json.Unmarshal(body, out), string(body))
	}
	return res.StatusCode
}

func TestAccounts(t *testing.T) {
	ledger, err := testledger.New()
	require.NoError(t, err)
	defer ledger.Close()

	router := mux.NewRouter()
	accounts.New(ledger.Service).Mount(router, "/accounts")
	ts := httptest.NewServer(router)
	defer ts.Close()

	var acc accounts.Account
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/accounts/"+testledger.Alice.String(), &acc))
	assert.Equal(t, testledger.Alice, acc.Address)
	assert.Equal(t, ecm.Units(1000), acc.SaleBalance)
	assert.Equal(t, ecm.PaymentUnits(100_000), acc.PaymentBalance)
	assert.Zero(t, acc.Referees)

	assert.Equal(t, http.StatusBadRequest, httpGet(t, ts.URL+"/accounts/alice", nil))

	require.NoError(t, ledger.SetVestingRule(1, 1000, true))
	require.NoError(t, ledger.StakeOwnedTokens(1, testledger.Alice, ecm.Units(100), testledger.Month))
	ledger.Clock.Advance(100 * time.Second)
	_, err = ledger.ClaimRewards(1, testledger.Alice)
	require.NoError(t, err)
	ledger.Clock.Advance(250 * time.Second)

	var schedules []*accounts.Vesting
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/accounts/"+testledger.Alice.String()+"/vesting", &schedules))
	require.Len(t, schedules, 1)
	assert.Equal(t, uint64(1), schedules[0].PoolID)
	assert.Equal(t, ecm.Units(100), schedules[0].Total)
	assert.Equal(t, ecm.Units(25), schedules[0].Releasable)
}
