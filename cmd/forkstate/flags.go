// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"gopkg.in/urfave/cli.v1"

	"github.com/vechain/forkstate/log"
)

var (
	genesisFlag = cli.StringFlag{
		Name:   "genesis",
		Usage:  "genesis accounts file (yaml or json)",
		EnvVar: "FORKSTATE_GENESIS",
	}
	stateFileFlag = cli.StringFlag{
		Name:  "state",
		Usage: "load state from a dump (.json) or encoded (.bin) file",
	}
	forkURLFlag = cli.StringFlag{
		Name:   "fork-url",
		Usage:  "JSON-RPC endpoint of the node to fork from",
		EnvVar: "FORKSTATE_FORK_URL",
	}
	forkBlockFlag = cli.Uint64Flag{
		Name:   "fork-block",
		Usage:  "block number to fork at (default: latest)",
		EnvVar: "FORKSTATE_FORK_BLOCK",
	}
	forkCacheFlag = cli.StringFlag{
		Name:   "fork-cache",
		Usage:  "directory to persist fetched remote state",
		EnvVar: "FORKSTATE_FORK_CACHE",
	}
	touchFlag = cli.StringSliceFlag{
		Name:  "touch",
		Usage: "address to materialize from the fork before running the command, may be repeated",
	}
	addressFlag = cli.StringFlag{
		Name:  "address",
		Usage: "account address",
	}
	slotFlag = cli.StringSliceFlag{
		Name:  "slot",
		Usage: "storage index to read, may be repeated",
	}
	outputFlag = cli.StringFlag{
		Name:  "out",
		Usage: "output file (default: stdout)",
	}
	binaryFlag = cli.BoolFlag{
		Name:  "binary",
		Usage: "write the compact binary encoding instead of json",
	}
	verbosityFlag = cli.Uint64Flag{
		Name:  "verbosity",
		Value: log.LegacyLevelInfo,
		Usage: "log verbosity (0-9)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "print prometheus metrics to stderr on exit",
	}
)

var stateFlags = []cli.Flag{
	genesisFlag,
	stateFileFlag,
	forkURLFlag,
	forkBlockFlag,
	forkCacheFlag,
	touchFlag,
}
