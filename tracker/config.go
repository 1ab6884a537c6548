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
	"strconv"
	"strings"
	"time"

	"github.com/aamcrae/config"
)

const (
	trackerSection  = "tracker"
	defaultInterval = 100 * time.Millisecond
	defaultBus      = 1
)

// Config is the tracker configuration, read from a configuration file.
type Config struct {
	Interval time.Duration // Sampling interval
	Backend  string        // Counter hardware, "gpio" or "i2c"
	I2CBus   int
	Channels []ChannelConfig
}

// LoadConfig reads and validates a tracker config from a file.
func LoadConfig(file string) (*Config, error) {
	conf, err := config.ParseFile(file)
	if err != nil {
		return nil, err
	}
	return ParseConfig(conf)
}

// ParseConfig reads and validates a tracker config.
// Optional keywords take their default when absent, but a
// malformed or repeated keyword is an error.
// Sample config:
//  [tracker]
//  # sections holding the encoders, in channel order
//  encoders=left,right
//  interval=100ms
//  # gpio or i2c, with the I2C bus number for i2c
//  backend=gpio
//  i2cbus=1
//
//  [left]
//  # GPIOs for encoder A and B (i2c: address,register)
//  pins=4,17
//  # pulses per revolution
//  resolution=1000
//  # single, half or full
//  mode=single
func ParseConfig(conf *config.Config) (*Config, error) {
	s := conf.GetSection(trackerSection)
	if s == nil {
		return nil, fmt.Errorf("%s: %w", trackerSection, ErrNoConfig)
	}
	c := &Config{Interval: defaultInterval, Backend: "gpio", I2CBus: defaultBus}
	e := s.Get("encoders")
	if len(e) != 1 {
		return nil, fmt.Errorf("encoders: expected one entry, found %d", len(e))
	}
	if s.Has("interval") {
		iv, err := s.GetArg("interval")
		if err != nil {
			return nil, fmt.Errorf("interval: %v", err)
		}
		c.Interval, err = time.ParseDuration(iv)
		if err != nil {
			return nil, fmt.Errorf("interval: %v", err)
		}
		if c.Interval <= 0 {
			return nil, fmt.Errorf("interval: must be positive")
		}
	}
	if s.Has("backend") {
		b, err := s.GetArg("backend")
		if err != nil {
			return nil, fmt.Errorf("backend: %v", err)
		}
		switch b {
		case "gpio", "i2c":
			c.Backend = b
		default:
			return nil, fmt.Errorf("backend: unknown backend %s", b)
		}
	}
	if s.Has("i2cbus") {
		v, err := intArgs(s, "i2cbus", 1)
		if err != nil {
			return nil, err
		}
		c.I2CBus = v[0]
	}
	for _, name := range e[0].Tokens {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		ch, err := channelConfig(conf, name)
		if err != nil {
			return nil, err
		}
		c.Channels = append(c.Channels, *ch)
	}
	return c, nil
}

// channelConfig reads the section for one encoder.
func channelConfig(conf *config.Config, name string) (*ChannelConfig, error) {
	s := conf.GetSection(name)
	if s == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNoConfig)
	}
	ch := &ChannelConfig{Name: name}
	pins, err := intArgs(s, "pins", 2)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	ch.PinA, ch.PinB = pins[0], pins[1]
	res, err := intArgs(s, "resolution", 1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	ch.Resolution = res[0]
	if ch.Resolution <= 0 {
		return nil, fmt.Errorf("%s: %w (%d)", name, ErrResolution, ch.Resolution)
	}
	if s.Has("mode") {
		m, err := s.GetArg("mode")
		if err != nil {
			return nil, fmt.Errorf("%s: mode: %v", name, err)
		}
		ch.Mode, err = ParseMode(m)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return ch, nil
}

// intArgs reads a keyword holding exactly n integers.
func intArgs(s *config.Section, k string, n int) ([]int, error) {
	e := s.Get(k)
	if len(e) != 1 {
		return nil, fmt.Errorf("%s: expected one entry, found %d", k, len(e))
	}
	if len(e[0].Tokens) != n {
		return nil, fmt.Errorf("%s: expected %d arguments, found %d", k, n, len(e[0].Tokens))
	}
	v := make([]int, n)
	for i, t := range e[0].Tokens {
		var err error
		v[i], err = strconv.Atoi(t)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", k, err)
		}
	}
	return v, nil
}
