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

package main

import (
	"testing"
	"time"

	"github.com/aamcrae/rotary/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// simTime is a manually advanced time source shared by a shaft and a tracker clock.
type simTime struct {
	t time.Time
}

func (s *simTime) now() time.Time { return s.t }

func (s *simTime) Millis() uint32 {
	return uint32(s.t.Sub(time.Unix(0, 0)).Milliseconds())
}

func TestSimShaft(t *testing.T) {
	st := &simTime{t: time.Unix(100, 0)}
	s := NewSimShaft("wheel", 1000, st.now)
	assert.Equal(t, int64(0), s.Count())
	s.SetRPM(60)
	st.t = st.t.Add(1500 * time.Millisecond)
	assert.Equal(t, int64(1500), s.Count())
	s.SetRPM(-30)
	st.t = st.t.Add(time.Second)
	assert.Equal(t, int64(1000), s.Count())
	s.SetCount(5)
	assert.Equal(t, int64(5), s.Count())
	s.Reset()
	assert.Equal(t, int64(0), s.Count())
}

func TestSimulatedTracking(t *testing.T) {
	st := &simTime{t: time.Unix(100, 0)}
	a := NewSimShaft("a", 1000, st.now)
	b := NewSimShaft("b", 24, st.now)
	tr, err := tracker.NewFromCounters(st, []tracker.Counter{a, b}, []int{1000, 24})
	require.NoError(t, err)
	a.SetRPM(120)
	b.SetRPM(-15)
	st.t = st.t.Add(3 * time.Second)
	v := tr.AngularVelocity()
	assert.InDelta(t, 120.0, tracker.RPM(v[0]), 1e-6)
	assert.InDelta(t, -15.0, tracker.RPM(v[1]), 1e-6)
	// No time has passed, so the shafts have not moved.
	assert.Equal(t, []float64{0, 0}, tr.AngularVelocity())
}
