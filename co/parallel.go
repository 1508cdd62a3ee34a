// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package co provides goroutine helpers.
package co

import (
	"runtime"
	"sync"
)

// Parallel runs the works queued by cb on a pool of one worker per CPU.
// The returned channel is closed when cb has returned and all queued
// works are done.
func Parallel(cb func(queue chan<- func())) <-chan struct{} {
	return ParallelN(runtime.NumCPU(), cb)
}

// ParallelN is like Parallel but with at most n workers.
func ParallelN(n int, cb func(queue chan<- func())) <-chan struct{} {
	n = max(min(n, runtime.NumCPU()), 1)
	queue := make(chan func(), n*4)

	var wg sync.WaitGroup
	for range n {
		wg.Go(func() {
			for work := range queue {
				work()
			}
		})
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		cb(queue)
		close(queue)
		wg.Wait()
	}()
	return done
}
