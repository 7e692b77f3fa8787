// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/epochclaim"
)

// merkleAction prints the commitment of the entries file: a YAML list of claimant and amount.
func merkleAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("usage: ecm merkle --token <address> --batch <id> <entries.yaml>")
	}
	tok, err := ecm.ParseAddress(ctx.String(tokenFlag.Name))
	if err != nil {
		return errors.WithMessage(err, "token")
	}
	data, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return errors.Wrap(err, "read entries")
	}
	var entries []epochclaim.Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return errors.Wrap(err, "decode entries")
	}
	c, err := epochclaim.Commit(nil, tok, ctx.Uint64(batchFlag.Name), entries)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
