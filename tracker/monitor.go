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

// Tracker polling loop

package tracker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Monitor is the single caller of the tracker velocity query.
// It samples the tracker at a fixed interval and keeps the latest
// sample so that other goroutines can read it without touching the tracker.
type Monitor struct {
	tracker  *Tracker
	interval time.Duration
	log      *zap.Logger
	mu       sync.Mutex // Guards latest and samples
	latest   Sample
	samples  int // Number of samples taken
}

// NewMonitor creates a Monitor sampling t every interval.
func NewMonitor(t *Tracker, interval time.Duration, log *zap.Logger) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	m := new(Monitor)
	m.tracker = t
	m.interval = interval
	m.log = log
	m.latest = Sample{
		Counts:   make([]int64, t.Len()),
		Deltas:   make([]int64, t.Len()),
		Velocity: make([]float64, t.Len()),
	}
	return m
}

// Tracker returns the monitored tracker.
func (m *Monitor) Tracker() *Tracker {
	return m.tracker
}

// Run samples the tracker until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	m.log.Info("monitor started", zap.Int("channels", m.tracker.Len()), zap.Duration("interval", m.interval))
	for {
		select {
		case <-ctx.Done():
			m.log.Info("monitor stopped", zap.Int("samples", m.SampleCount()))
			return
		case <-ticker.C:
			m.Poll()
		}
	}
}

// Poll takes one sample from the tracker and stores it.
func (m *Monitor) Poll() Sample {
	s := m.tracker.Sample()
	m.mu.Lock()
	m.latest = s
	m.samples++
	m.mu.Unlock()
	if ce := m.log.Check(zap.DebugLevel, "sample"); ce != nil {
		ce.Write(zap.Duration("elapsed", s.Elapsed), zap.Int64s("counts", s.Counts), zap.Float64s("velocity", s.Velocity))
	}
	return copySample(s)
}

// Latest returns a copy of the most recent sample.
func (m *Monitor) Latest() Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySample(m.latest)
}

// SampleCount returns the number of samples taken.
func (m *Monitor) SampleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.samples
}

func copySample(s Sample) Sample {
	return Sample{
		Elapsed:  s.Elapsed,
		Counts:   append([]int64(nil), s.Counts...),
		Deltas:   append([]int64(nil), s.Deltas...),
		Velocity: append([]float64(nil), s.Velocity...),
	}
}
