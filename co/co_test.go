// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelN(t *testing.T) {
	var running, peak atomic.Int32
	<-ParallelN(2, func(queue chan<- func()) {
		for range 20 {
			queue <- func() {
				cur := running.Add(1)
				for {
					p := peak.Load()
					if cur <= p || peak.CompareAndSwap(p, cur) {
						break
					}
				}
				running.Add(-1)
			}
		}
	})
	assert.LessOrEqual(t, peak.Load(), int32(2))

	var n atomic.Int32
	<-ParallelN(0, func(queue chan<- func()) {
		queue <- func() { n.Add(1) }
	})
	assert.Equal(t, int32(1), n.Load())
}

func TestParallel(t *testing.T) {
	var sum atomic.Int64
	<-Parallel(func(queue chan<- func()) {
		for i := range 100 {
			queue <- func() { sum.Add(int64(i)) }
		}
	})
	assert.Equal(t, int64(4950), sum.Load())

	// no works at all
	<-Parallel(func(chan<- func()) {})
}
