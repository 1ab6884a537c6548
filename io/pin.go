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
	"sync/atomic"
	"time"
)

// gpioPin is the part of a *gpio.Gpio read by an encoder input.
// Get waits for an edge when edge detection is set on the pin.
type gpioPin interface {
	Get() (int, error)
	GetTimeout(time.Duration) (int, error)
}

// pinInput adapts a GPIO pin to an Input.
// A pin with edge detection cannot be read without waiting, so its
// level is kept from the last edge instead.
type pinInput struct {
	pin     gpioPin
	edge    bool
	timeout time.Duration
	level   int32 // Accessed atomically
}

// newPinInput wraps a pin, reading its starting level.
// It must be called before edge detection is set on the pin.
func newPinInput(p gpioPin, edge bool) (*pinInput, error) {
	v, err := p.Get()
	if err != nil {
		return nil, err
	}
	return &pinInput{pin: p, edge: edge, timeout: pollTimeout, level: int32(v)}, nil
}

// Wait waits for an edge and returns the new level.
func (p *pinInput) Wait() (int, error) {
	v, err := p.pin.GetTimeout(p.timeout)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return 0, ErrTimeout
	}
	if err != nil {
		return 0, err
	}
	atomic.StoreInt32(&p.level, int32(v))
	return v, nil
}

// Read returns the current level of the pin.
func (p *pinInput) Read() (int, error) {
	if p.edge {
		return int(atomic.LoadInt32(&p.level)), nil
	}
	v, err := p.pin.Get()
	if err != nil {
		return 0, err
	}
	atomic.StoreInt32(&p.level, int32(v))
	return v, nil
}
