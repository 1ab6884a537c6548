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
	"fmt"
	"time"

	gpio "github.com/aamcrae/gpio"
	"github.com/aamcrae/rotary/tracker"
	"go.uber.org/zap"
)

// pollTimeout bounds an edge wait so a closed counter can stop.
const pollTimeout = 200 * time.Millisecond

// GpioAttacher attaches edge counters to sysfs GPIO pins.
type GpioAttacher struct {
	Log      *zap.Logger
	counters []*EdgeCounter
	pins     []*gpio.Gpio
}

// NewGpioAttacher creates a GpioAttacher.
func NewGpioAttacher(log *zap.Logger) *GpioAttacher {
	if log == nil {
		log = zap.NewNop()
	}
	return &GpioAttacher{Log: log}
}

// Attach opens the GPIO pin pair and starts an EdgeCounter on them.
func (g *GpioAttacher) Attach(pinA, pinB int, m tracker.Mode) (tracker.Counter, error) {
	edgeA, edgeB := gpio.RISING, gpio.NONE
	switch m {
	case tracker.SingleEdge:
	case tracker.HalfQuad:
		edgeA = gpio.BOTH
	case tracker.FullQuad:
		edgeA, edgeB = gpio.BOTH, gpio.BOTH
	default:
		return nil, fmt.Errorf("%v: %w", m, tracker.ErrMode)
	}
	a, err := g.open(pinA, edgeA)
	if err != nil {
		return nil, err
	}
	b, err := g.open(pinB, edgeB)
	if err != nil {
		return nil, err
	}
	c := NewEdgeCounter(a, b, m, g.Log.With(zap.Int("gpio_a", pinA), zap.Int("gpio_b", pinB)))
	g.counters = append(g.counters, c)
	g.Log.Info("encoder attached", zap.Int("gpio_a", pinA), zap.Int("gpio_b", pinB), zap.Stringer("mode", m))
	return c, nil
}

func (g *GpioAttacher) open(pin, edge int) (*pinInput, error) {
	p, err := gpio.Pin(pin)
	if err != nil {
		return nil, fmt.Errorf("gpio%d: %w", pin, err)
	}
	// Pins are recorded before setting the edge so Close releases them.
	g.pins = append(g.pins, p)
	in, err := newPinInput(p, edge != gpio.NONE)
	if err != nil {
		return nil, fmt.Errorf("gpio%d: %w", pin, err)
	}
	if err := p.Edge(edge); err != nil {
		return nil, fmt.Errorf("gpio%d: %w", pin, err)
	}
	return in, nil
}

// Close stops all counters and releases the pins.
func (g *GpioAttacher) Close() error {
	for _, c := range g.counters {
		c.Close()
	}
	for _, p := range g.pins {
		p.Close()
	}
	g.counters = nil
	g.pins = nil
	return nil
}
