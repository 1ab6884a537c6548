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

package tracker

import (
	"fmt"
	"time"
)

// Mode is the edge counting mode of a counter.
// For the same encoder, HalfQuad doubles and FullQuad quadruples
// the counts per revolution of SingleEdge.
type Mode int

const (
	SingleEdge Mode = iota // Default
	HalfQuad
	FullQuad
)

func (m Mode) String() string {
	switch m {
	case SingleEdge:
		return "single"
	case HalfQuad:
		return "half"
	case FullQuad:
		return "full"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "single":
		return SingleEdge, nil
	case "half":
		return HalfQuad, nil
	case "full":
		return FullQuad, nil
	}
	return SingleEdge, fmt.Errorf("%s: %w", s, ErrMode)
}

// SystemClock is a Clock using the process monotonic clock.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a SystemClock starting at zero.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Millis returns the milliseconds since the clock was created.
func (c *SystemClock) Millis() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}
