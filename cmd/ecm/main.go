// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/ecmfinance/ecm-ledger/log"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version: fullVersion(),
		Name:    "ecm",
		Usage:   "ECM token sale and staking ledger",
		Commands: []cli.Command{
			{
				Name:  "serve",
				Usage: "run the ledger and serve its HTTP API",
				Flags: []cli.Flag{
					configFlag,
					dataDirFlag,
					cacheFlag,
					apiAddrFlag,
					apiCorsFlag,
					apiTimeoutFlag,
					enableAPILogsFlag,
					apiSlowQueriesThresholdFlag,
					pprofFlag,
					enableMetricsFlag,
					metricsAddrFlag,
					verbosityFlag,
					jsonLogsFlag,
				},
				Action: serveAction,
			},
			{
				Name:      "replay",
				Usage:     "run a scenario against a fresh in-memory ledger on a simulated clock",
				ArgsUsage: "<scenario.yaml>",
				Flags: []cli.Flag{
					configFlag,
					dumpFlag,
					verbosityFlag,
					jsonLogsFlag,
				},
				Action: replayAction,
			},
			{
				Name:      "merkle",
				Usage:     "build the merkle root and proofs of a claim batch",
				ArgsUsage: "<entries.yaml>",
				Flags: []cli.Flag{
					tokenFlag,
					batchFlag,
				},
				Action: merkleAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
