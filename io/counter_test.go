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

package io

import (
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aamcrae/rotary/tracker"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

// line is a simulated encoder signal. Edges are delivered on a channel
// and the level is updated when the edge is sent. Each level read
// is signalled on reads.
type line struct {
	mu    sync.Mutex
	level int
	edges chan int
	reads chan struct{}
	err   error
}

func newLine() *line {
	return &line{edges: make(chan int, 100), reads: make(chan struct{}, 100)}
}

func (l *line) set(v int) {
	l.mu.Lock()
	l.level = v
	l.mu.Unlock()
	l.edges <- v
}

func (l *line) Wait() (int, error) {
	select {
	case v := <-l.edges:
		return v, l.err
	case <-time.After(5 * time.Millisecond):
		return 0, ErrTimeout
	}
}

func (l *line) Read() (int, error) {
	l.mu.Lock()
	v := l.level
	l.mu.Unlock()
	l.reads <- struct{}{}
	return v, nil
}

// GetTimeout and Get let a line stand in for a GPIO pin.
func (l *line) GetTimeout(d time.Duration) (int, error) {
	select {
	case v := <-l.edges:
		return v, l.err
	case <-time.After(d):
		return 0, os.ErrDeadlineExceeded
	}
}

func (l *line) Get() (int, error) {
	return l.Read()
}

// rotate drives the lines through n quadrature steps, forward if n > 0.
// Line b reports edges only when edgeB is set.
func rotate(a, b *line, state *int, n int, edgeB bool) {
	seq := [][2]int{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	inc := 1
	if n < 0 {
		inc = -1
		n = -n
	}
	for i := 0; i < n; i++ {
		*state = (*state + inc + 4) % 4
		s := seq[*state]
		// After an edge, wait for the driver to read the other
		// line before changing levels again.
		if s[0] != a.level {
			a.set(s[0])
			<-b.reads
		} else if edgeB {
			b.set(s[1])
			<-a.reads
		} else {
			b.mu.Lock()
			b.level = s[1]
			b.mu.Unlock()
		}
	}
}

func TestStep(t *testing.T) {
	tests := []struct {
		mode tracker.Mode
		onA  bool
		a, b int
		want int64
	}{
		{tracker.SingleEdge, true, 1, 0, 1},
		{tracker.SingleEdge, true, 1, 1, -1},
		{tracker.SingleEdge, true, 0, 1, 0},
		{tracker.SingleEdge, false, 1, 1, 0},
		{tracker.HalfQuad, true, 0, 1, 1},
		{tracker.HalfQuad, true, 0, 0, -1},
		{tracker.HalfQuad, false, 1, 1, 0},
		{tracker.FullQuad, false, 1, 1, 1},
		{tracker.FullQuad, false, 0, 0, 1},
		{tracker.FullQuad, false, 1, 0, -1},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, step(tc.mode, tc.onA, tc.a, tc.b), "%v onA=%v a=%d b=%d", tc.mode, tc.onA, tc.a, tc.b)
	}
}

func TestEdgeCounterModes(t *testing.T) {
	// Counts for 8 forward quadrature steps, i.e 2 full cycles.
	tests := []struct {
		mode tracker.Mode
		want int64
	}{
		{tracker.SingleEdge, 2},
		{tracker.HalfQuad, 4},
		{tracker.FullQuad, 8},
	}
	for _, tc := range tests {
		a, b := newLine(), newLine()
		c := NewEdgeCounter(a, b, tc.mode, zaptest.NewLogger(t))
		state := 0
		rotate(a, b, &state, 8, tc.mode == tracker.FullQuad)
		assert.Eventually(t, func() bool { return c.Count() == tc.want }, time.Second, time.Millisecond, "%v forward", tc.mode)
		rotate(a, b, &state, -8, tc.mode == tracker.FullQuad)
		assert.Eventually(t, func() bool { return c.Count() == 0 }, time.Second, time.Millisecond, "%v reverse", tc.mode)
		c.Close()
	}
}

func TestEdgeCounterSetReset(t *testing.T) {
	c := NewEdgeCounter(newLine(), newLine(), tracker.SingleEdge, nil)
	defer c.Close()
	c.SetCount(42)
	assert.Equal(t, int64(42), c.Count())
	c.Reset()
	assert.Equal(t, int64(0), c.Count())
}

func TestEdgeCounterInputError(t *testing.T) {
	a, b := newLine(), newLine()
	a.err = errors.New("gone")
	c := NewEdgeCounter(a, b, tracker.HalfQuad, zaptest.NewLogger(t))
	a.set(1)
	// The driver exits on the error, so Close does not block.
	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close blocked")
	}
	assert.Equal(t, int64(0), c.Count())
}
