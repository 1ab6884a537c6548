// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Edge counting encoder driver.

package io

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/aamcrae/rotary/tracker"
	"go.uber.org/zap"
)

// Input is an encoder signal.
type Input interface {
	Wait() (int, error) // Wait for an edge and return the new value
	Read() (int, error) // Return the current value
}

// EdgeCounter counts the edges of an encoder attached to two inputs.
// The inputs are serviced by goroutines, so the count may be read
// at any time.
type EdgeCounter struct {
	a, b  Input
	mode  tracker.Mode
	log   *zap.Logger
	count int64 // Accessed atomically
	done  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

// NewEdgeCounter starts counting edges on a and b.
// Input a must report edges for every mode, input b only for FullQuad.
func NewEdgeCounter(a, b Input, m tracker.Mode, log *zap.Logger) *EdgeCounter {
	if log == nil {
		log = zap.NewNop()
	}
	e := new(EdgeCounter)
	e.a = a
	e.b = b
	e.mode = m
	e.log = log
	e.done = make(chan struct{})
	e.wg.Add(1)
	go e.driver(a, b, true)
	if m == tracker.FullQuad {
		e.wg.Add(1)
		go e.driver(b, a, false)
	}
	return e
}

// Count returns the accumulated count.
func (e *EdgeCounter) Count() int64 {
	return atomic.LoadInt64(&e.count)
}

// SetCount sets the accumulated count.
func (e *EdgeCounter) SetCount(v int64) {
	atomic.StoreInt64(&e.count, v)
}

// Reset clears the accumulated count.
func (e *EdgeCounter) Reset() {
	atomic.StoreInt64(&e.count, 0)
}

// Close stops the counter. Inputs without a wait timeout may keep
// the driver running until the next edge.
func (e *EdgeCounter) Close() {
	e.once.Do(func() {
		close(e.done)
	})
	e.wg.Wait()
}

// driver is the goroutine servicing one input.
// Each edge on the input is counted in the direction given by
// the level of the other input.
func (e *EdgeCounter) driver(in, other Input, onA bool) {
	defer e.wg.Done()
	for {
		v, err := in.Wait()
		select {
		case <-e.done:
			return
		default:
		}
		if errors.Is(err, ErrTimeout) {
			continue
		}
		if err != nil {
			e.log.Error("encoder input", zap.Bool("a", onA), zap.Error(err))
			return
		}
		o, err := other.Read()
		if err != nil {
			e.log.Error("encoder input", zap.Bool("a", !onA), zap.Error(err))
			return
		}
		a, b := v, o
		if !onA {
			a, b = o, v
		}
		if d := step(e.mode, onA, a, b); d != 0 {
			atomic.AddInt64(&e.count, d)
		}
	}
}

// step returns the count change for an edge, given the levels of
// A and B after the edge.
// Forward rotation is the sequence (A,B) 00, 10, 11, 01.
func step(m tracker.Mode, onA bool, a, b int) int64 {
	if onA {
		if m == tracker.SingleEdge && a == 0 {
			// Only rising edges of A are counted.
			return 0
		}
		if a != b {
			return 1
		}
		return -1
	}
	if m != tracker.FullQuad {
		return 0
	}
	if a == b {
		return 1
	}
	return -1
}
