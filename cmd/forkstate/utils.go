// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdmath "math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"gopkg.in/urfave/cli.v1"

	"github.com/vechain/forkstate/common"
	"github.com/vechain/forkstate/fork"
	"github.com/vechain/forkstate/forkclient"
	"github.com/vechain/forkstate/genesis"
	"github.com/vechain/forkstate/log"
	"github.com/vechain/forkstate/metrics"
	"github.com/vechain/forkstate/state"
)

func fatal(args ...any) {
	var w io.Writer
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

func readIntFromUInt64Flag(val uint64) (int, error) {
	if val > stdmath.MaxInt {
		return 0, errors.Errorf("value %d exceeds the maximum int", val)
	}
	return int(val), nil
}

func initLogger(ctx *cli.Context) error {
	verbosity, err := readIntFromUInt64Flag(ctx.GlobalUint64(verbosityFlag.Name))
	if err != nil {
		return errors.Wrap(err, "--verbosity")
	}
	useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	log.Setup(os.Stderr, verbosity, ctx.GlobalBool(jsonLogsFlag.Name), useColor)
	return nil
}

func initMetrics(ctx *cli.Context) {
	if ctx.GlobalBool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}
}

// writeMetrics prints the gathered metrics in the prometheus text format.
func writeMetrics(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return errors.Wrap(err, "encode metrics")
		}
	}
	return nil
}

func parseAddresses(list []string) ([]common.Address, error) {
	addrs := make([]common.Address, 0, len(list))
	for _, s := range list {
		addr, err := common.ParseAddress(strings.TrimSpace(s))
		if err != nil {
			return nil, errors.Wrapf(err, "address %q", s)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// parseIndex accepts a storage index in hex or decimal notation.
func parseIndex(s string) (common.Bytes32, error) {
	i, ok := math.ParseBig256(strings.TrimSpace(s))
	if !ok {
		return common.Bytes32{}, errors.Errorf("invalid storage index %q", s)
	}
	b, ok := common.BigToBytes32(i)
	if !ok {
		return common.Bytes32{}, errors.Errorf("invalid storage index %q", s)
	}
	return b, nil
}

func loadGenesis(ctx *cli.Context) ([]genesis.Account, error) {
	path := ctx.String(genesisFlag.Name)
	if path == "" {
		return nil, nil
	}
	gen, err := genesis.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return gen.Accounts, nil
}

func loadStateFile(path string) (*state.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open state file")
	}
	defer f.Close()

	if filepath.Ext(path) == ".bin" {
		return state.Decode(f)
	}
	var d state.Dump
	if err := json.NewDecoder(f).Decode(&d); err != nil {
		return nil, errors.Wrap(err, "decode state dump")
	}
	return state.FromDump(&d)
}

// openState builds the state selected by the command flags. The returned
// function releases the resources held by a forked state.
func openState(ctx *cli.Context) (*state.State, func(), error) {
	noop := func() {}
	accounts, err := loadGenesis(ctx)
	if err != nil {
		return nil, noop, err
	}

	url := ctx.String(forkURLFlag.Name)
	file := ctx.String(stateFileFlag.Name)
	switch {
	case file != "" && (url != "" || len(accounts) > 0):
		return nil, noop, errors.New("--state cannot be combined with --genesis or --fork-url")
	case file != "":
		st, err := loadStateFile(file)
		return st, noop, err
	case url == "":
		st, err := state.NewFromGenesis(accounts)
		return st, noop, err
	}
	return openForked(ctx, url, accounts)
}

func openForked(ctx *cli.Context, url string, overrides []genesis.Account) (st *state.State, release func(), err error) {
	bg := context.Background()
	client, err := forkclient.DialContext(bg, url)
	if err != nil {
		return nil, func() {}, err
	}
	closers := []func(){client.Close}
	release = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	defer func() {
		if err != nil {
			release()
		}
	}()

	var src fork.Source = client
	if dir := ctx.String(forkCacheFlag.Name); dir != "" {
		chainID, err := client.ChainID(bg)
		if err != nil {
			return nil, release, err
		}
		dc, err := fork.OpenDiskCache(dir, client, chainID, fork.DiskCacheOptions{})
		if err != nil {
			return nil, release, err
		}
		closers = append(closers, func() {
			if err := dc.Close(); err != nil {
				log.Warn("failed to close fork cache", "err", err)
			}
		})
		src = dc
	}

	var block *uint64
	if ctx.IsSet(forkBlockFlag.Name) {
		n := ctx.Uint64(forkBlockFlag.Name)
		block = &n
	}
	backend, err := fork.NewBackend(bg, src, block)
	if err != nil {
		return nil, release, err
	}
	log.Info("forked", "url", url, "block", backend.BlockNumber())

	st, err = state.NewForked(backend, overrides)
	if err != nil {
		return nil, release, err
	}

	touch, err := parseAddresses(ctx.StringSlice(touchFlag.Name))
	if err != nil {
		return nil, release, err
	}
	for _, addr := range touch {
		if _, err := st.GetAccount(addr); err != nil {
			return nil, release, err
		}
	}
	return st, release, nil
}
