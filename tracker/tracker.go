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

// Package tracker reads rotary encoder counters and derives the
// angular velocity of each encoder at sample time.
package tracker

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/multierr"
)

// Counter is a hardware pulse counter holding an accumulated signed count.
type Counter interface {
	Count() int64
	SetCount(int64)
	Reset()
}

// Clock provides monotonic milliseconds, wrapping at 2^32.
type Clock interface {
	Millis() uint32
}

// Attacher attaches a counter to a pair of pins.
type Attacher interface {
	Attach(pinA, pinB int, m Mode) (Counter, error)
}

// Closer is implemented by attachers that hold resources which
// should be released if construction fails.
type Closer interface {
	Close() error
}

// ChannelConfig describes one encoder.
type ChannelConfig struct {
	Name       string
	PinA, PinB int
	Resolution int  // Pulses per revolution
	Mode       Mode // Counting mode, SingleEdge by default
}

// Channel is one physical encoder.
type Channel struct {
	Name       string
	counter    Counter
	resolution int
	prev       int64 // Count at the previous velocity query
}

// Resolution returns the pulses per revolution of the channel.
func (c *Channel) Resolution() int {
	return c.resolution
}

// Tracker owns a fixed set of encoder channels and a shared
// timestamp of the previous velocity query.
// A Tracker is not safe for concurrent velocity queries; the caller
// must serialize calls to AngularVelocity and Sample.
type Tracker struct {
	channels []*Channel
	clock    Clock
	prevTime uint32 // Millis at the previous velocity query
}

// Sample is the result of one velocity query.
type Sample struct {
	Elapsed  time.Duration
	Counts   []int64
	Deltas   []int64
	Velocity []float64 // Radians per second
}

// New attaches a counter for each channel config and creates a Tracker.
// Each counter is reset to zero.
func New(att Attacher, clk Clock, cfg []ChannelConfig) (*Tracker, error) {
	t := new(Tracker)
	t.clock = clk
	for i, c := range cfg {
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("encoder%d", i)
		}
		if c.Resolution <= 0 {
			return nil, multierr.Append(fmt.Errorf("%s: %w (%d)", name, ErrResolution, c.Resolution), t.release(att))
		}
		cnt, err := att.Attach(c.PinA, c.PinB, c.Mode)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("%s: pins %d,%d: %w", name, c.PinA, c.PinB, err), t.release(att))
		}
		t.add(name, cnt, c.Resolution)
	}
	t.prevTime = clk.Millis()
	return t, nil
}

// NewFromCounters creates a Tracker from counters that are already attached.
func NewFromCounters(clk Clock, counters []Counter, resolutions []int) (*Tracker, error) {
	if len(counters) != len(resolutions) {
		return nil, fmt.Errorf("%w: %d counters, %d resolutions", ErrChannelCount, len(counters), len(resolutions))
	}
	t := new(Tracker)
	t.clock = clk
	for i, cnt := range counters {
		if resolutions[i] <= 0 {
			return nil, fmt.Errorf("encoder%d: %w (%d)", i, ErrResolution, resolutions[i])
		}
		t.add(fmt.Sprintf("encoder%d", i), cnt, resolutions[i])
	}
	t.prevTime = clk.Millis()
	return t, nil
}

func (t *Tracker) add(name string, cnt Counter, res int) {
	cnt.Reset()
	cnt.SetCount(0)
	t.channels = append(t.channels, &Channel{Name: name, counter: cnt, resolution: res})
}

// release closes the attacher after a failed construction.
func (t *Tracker) release(att Attacher) error {
	t.channels = nil
	if c, ok := att.(Closer); ok {
		return c.Close()
	}
	return nil
}

// Channels returns the channels in construction order.
func (t *Tracker) Channels() []*Channel {
	return append([]*Channel(nil), t.channels...)
}

// Len returns the number of channels.
func (t *Tracker) Len() int {
	return len(t.channels)
}

// Counts returns the current count of every channel.
// No tracker state is changed.
func (t *Tracker) Counts() []int64 {
	counts := make([]int64, len(t.channels))
	for i, c := range t.channels {
		counts[i] = c.counter.Count()
	}
	return counts
}

// AngularVelocity returns the angular velocity of each channel in
// radians per second, measured since the previous call (or since
// construction for the first call).
func (t *Tracker) AngularVelocity() []float64 {
	return t.Sample().Velocity
}

// Sample performs a velocity query and returns the counts and deltas used.
// A channel that has not moved reports exactly 0. A channel that moved
// with no elapsed time reports an infinite velocity.
func (t *Tracker) Sample() Sample {
	now := t.clock.Millis()
	// Unsigned subtraction handles clock wrap.
	ms := now - t.prevTime
	elapsed := float64(ms) / 1000.0
	s := Sample{
		Elapsed:  time.Duration(ms) * time.Millisecond,
		Counts:   t.Counts(),
		Deltas:   make([]int64, len(t.channels)),
		Velocity: make([]float64, len(t.channels)),
	}
	for i, c := range t.channels {
		d := s.Counts[i] - c.prev
		s.Deltas[i] = d
		if d != 0 {
			s.Velocity[i] = (2 * math.Pi * float64(d) / float64(c.resolution)) / elapsed
		}
		c.prev = s.Counts[i]
	}
	t.prevTime = now
	return s
}

// RPM converts radians per second to revolutions per minute.
func RPM(radPerSec float64) float64 {
	return radPerSec * 60 / (2 * math.Pi)
}
