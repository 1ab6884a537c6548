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

// Simulator encoder program

package main

import (
	"context"
	"flag"
	"math"
	"sync"
	"time"

	"github.com/aamcrae/rotary/logger"
	"github.com/aamcrae/rotary/tracker"
	"go.uber.org/zap"
)

// SimShaft is a counter attached to a simulated shaft turning
// at a set speed.
type SimShaft struct {
	name       string
	resolution int
	mu         sync.Mutex
	rpm        float64
	base       float64   // Pulses at the last change
	changed    time.Time // Time of the last change
	now        func() time.Time
}

var params = []struct {
	name       string
	resolution int
	rpm        []float64 // Speeds, changed every period
}{
	{"wheel", 1000, []float64{60, 120, -60, 0}},
	{"spindle", 4000, []float64{1500, 3000, 3000, 500}},
	{"dial", 24, []float64{0, 1, -1, 0}},
}

// Maximum allowed difference between set and measured speed, in RPM.
const threshold = 0.1

var port = flag.Int("port", 8080, "Web server port number, 0 to disable")
var interval = flag.Duration("interval", 100*time.Millisecond, "Sampling interval")
var period = flag.Duration("period", 5*time.Second, "Time between speed changes")
var debug = flag.Bool("debug", false, "Log every sample")

func main() {
	flag.Parse()
	log := logger.GetLogger("simulator", *debug)
	defer log.Sync()
	var shafts []*SimShaft
	var counters []tracker.Counter
	var res []int
	for _, p := range params {
		s := NewSimShaft(p.name, p.resolution, time.Now)
		shafts = append(shafts, s)
		counters = append(counters, s)
		res = append(res, p.resolution)
	}
	t, err := tracker.NewFromCounters(tracker.NewSystemClock(), counters, res)
	if err != nil {
		log.Fatal("tracker", zap.Error(err))
	}
	m := tracker.NewMonitor(t, *interval, log)
	if *port != 0 {
		go func() {
			log.Error("server", zap.Error(tracker.Serve(*port, m, log)))
		}()
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)
	step := 0
	for {
		for i, s := range shafts {
			rpm := params[i].rpm[step%len(params[i].rpm)]
			s.SetRPM(rpm)
			log.Info("speed", zap.String("shaft", s.name), zap.Float64("rpm", rpm))
		}
		step++
		// Check the measured speed halfway through the period.
		time.Sleep(*period / 2)
		check(log, shafts, m.Latest())
		time.Sleep(*period / 2)
	}
}

// check compares the measured speed of each shaft against the set speed.
func check(log *zap.Logger, shafts []*SimShaft, s tracker.Sample) {
	for i, sh := range shafts {
		want := sh.RPM()
		got := tracker.RPM(s.Velocity[i])
		// Quantisation error of one pulse in the sample.
		q := 60 / (float64(sh.resolution) * s.Elapsed.Seconds())
		if math.Abs(got-want) > threshold+q {
			log.Warn("speed mismatch", zap.String("shaft", sh.name), zap.Float64("rpm", want), zap.Float64("measured", got))
		}
	}
}

// NewSimShaft creates a stationary shaft.
func NewSimShaft(name string, resolution int, now func() time.Time) *SimShaft {
	return &SimShaft{name: name, resolution: resolution, now: now, changed: now()}
}

// pulses returns the exact pulse position. The lock must be held.
func (s *SimShaft) pulses(t time.Time) float64 {
	return s.base + s.rpm/60*float64(s.resolution)*t.Sub(s.changed).Seconds()
}

// Count returns the count of whole pulses.
func (s *SimShaft) Count() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(math.Floor(s.pulses(s.now())))
}

// SetCount sets the pulse count.
func (s *SimShaft) SetCount(v int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = float64(v)
	s.changed = s.now()
}

// Reset sets the pulse count to 0.
func (s *SimShaft) Reset() {
	s.SetCount(0)
}

// SetRPM changes the speed of the shaft.
func (s *SimShaft) SetRPM(rpm float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.now()
	s.base = s.pulses(n)
	s.changed = n
	s.rpm = rpm
}

// RPM returns the speed of the shaft.
func (s *SimShaft) RPM() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rpm
}
