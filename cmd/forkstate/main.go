// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v1"

	"github.com/vechain/forkstate/common"
	"github.com/vechain/forkstate/state"
)

var (
	version   string
	gitCommit string
)

func fullVersion() string {
	if gitCommit == "" {
		return version
	}
	return fmt.Sprintf("%s-%s", version, gitCommit)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "forkstate",
		Usage:     "Inspect account state built from genesis files or forked from a remote node",
		Copyright: "2026 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
		},
		Before: func(ctx *cli.Context) error {
			if err := initLogger(ctx); err != nil {
				return err
			}
			initMetrics(ctx)
			return nil
		},
		After: func(ctx *cli.Context) error {
			if ctx.GlobalBool(enableMetricsFlag.Name) {
				return writeMetrics(os.Stderr)
			}
			return nil
		},
		Commands: []cli.Command{
			{
				Name:   "root",
				Usage:  "print the state root",
				Flags:  stateFlags,
				Action: rootAction,
			},
			{
				Name:   "dump",
				Usage:  "write every account of the state",
				Flags:  append([]cli.Flag{outputFlag, binaryFlag}, stateFlags...),
				Action: dumpAction,
			},
			{
				Name:   "account",
				Usage:  "print a single account and selected storage slots",
				Flags:  append([]cli.Flag{addressFlag, slotFlag}, stateFlags...),
				Action: accountAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func rootAction(ctx *cli.Context) error {
	st, release, err := openState(ctx)
	defer release()
	if err != nil {
		return err
	}
	fmt.Println(st.Root())
	return nil
}

func dumpAction(ctx *cli.Context) (err error) {
	st, release, err := openState(ctx)
	defer release()
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if path := ctx.String(outputFlag.Name); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "create output file")
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	if ctx.Bool(binaryFlag.Name) {
		return st.Encode(w)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(st.Dump())
}

type accountOutput struct {
	Address     common.Address                    `json:"address"`
	Exists      bool                              `json:"exists"`
	Balance     *hexutil.U256                     `json:"balance,omitempty"`
	Nonce       *hexutil.U256                     `json:"nonce,omitempty"`
	CodeHash    *common.Bytes32                   `json:"codeHash,omitempty"`
	StorageRoot *common.Bytes32                   `json:"storageRoot,omitempty"`
	Code        hexutil.Bytes                     `json:"code,omitempty"`
	Storage     map[common.Bytes32]common.Bytes32 `json:"storage,omitempty"`
}

func accountAction(ctx *cli.Context) error {
	addr, err := common.ParseAddress(ctx.String(addressFlag.Name))
	if err != nil {
		return errors.Wrap(err, "--address")
	}
	st, release, err := openState(ctx)
	defer release()
	if err != nil {
		return err
	}

	out, err := describeAccount(st, addr, ctx.StringSlice(slotFlag.Name))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func describeAccount(st *state.State, addr common.Address, slots []string) (*accountOutput, error) {
	out := &accountOutput{Address: addr}
	acc, err := st.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return out, nil
	}
	out.Exists = true
	out.Balance = (*hexutil.U256)(acc.Balance)
	out.Nonce = (*hexutil.U256)(acc.Nonce)
	out.CodeHash = &acc.CodeHash

	if out.Code, err = st.GetCode(addr); err != nil {
		return nil, err
	}
	if out.StorageRoot, err = st.GetStorageRoot(addr); err != nil {
		return nil, err
	}
	if len(slots) > 0 {
		out.Storage = make(map[common.Bytes32]common.Bytes32, len(slots))
	}
	for _, s := range slots {
		index, err := parseIndex(s)
		if err != nil {
			return nil, err
		}
		if out.Storage[index], err = st.GetStorage(addr, index); err != nil {
			return nil, err
		}
	}
	return out, nil
}
