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

// I2C counter chip driver.

package io

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/aamcrae/rotary/tracker"
	"github.com/d2r2/go-i2c"
	i2clog "github.com/d2r2/go-logger"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Register is an I2C device with addressed registers.
type Register interface {
	ReadRegBytes(reg byte, n int) ([]byte, int, error)
	WriteBytes(buf []byte) (int, error)
	Close() error
}

// I2CCounter is a counter held in a counter chip, read over I2C.
// The count is a signed 32 bit big-endian value in 4 consecutive
// registers, and writing the registers sets the count.
type I2CCounter struct {
	dev  Register
	reg  byte
	log  *zap.Logger
	mu   sync.Mutex
	last int64 // Last count read, returned if a read fails
}

// NewI2CCounter creates a counter reading the count register of dev.
func NewI2CCounter(dev Register, reg byte, log *zap.Logger) *I2CCounter {
	if log == nil {
		log = zap.NewNop()
	}
	return &I2CCounter{dev: dev, reg: reg, log: log}
}

// Count reads the count from the device.
func (c *I2CCounter) Count() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, n, err := c.dev.ReadRegBytes(c.reg, 4)
	if err == nil && n != 4 {
		err = fmt.Errorf("short read (%d bytes)", n)
	}
	if err != nil {
		c.log.Warn("count read", zap.Uint8("reg", c.reg), zap.Error(err))
		return c.last
	}
	c.last = int64(int32(binary.BigEndian.Uint32(b)))
	return c.last
}

// SetCount writes the count to the device.
func (c *I2CCounter) SetCount(v int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, 5)
	buf[0] = c.reg
	binary.BigEndian.PutUint32(buf[1:], uint32(int32(v)))
	if _, err := c.dev.WriteBytes(buf); err != nil {
		c.log.Warn("count write", zap.Uint8("reg", c.reg), zap.Error(err))
		return
	}
	c.last = v
}

// Reset clears the count.
func (c *I2CCounter) Reset() {
	c.SetCount(0)
}

// I2CAttacher attaches counters held in I2C counter chips.
// The pin pair is used as the device address and the count register.
// The counting mode is set on the chip itself and is not used here.
type I2CAttacher struct {
	Bus  int
	Log  *zap.Logger
	open func(addr uint8, bus int) (Register, error)
	devs []Register
}

// NewI2CAttacher creates an attacher for counters on the I2C bus.
func NewI2CAttacher(bus int, log *zap.Logger) *I2CAttacher {
	if log == nil {
		log = zap.NewNop()
	}
	i2clog.ChangePackageLogLevel("i2c", i2clog.InfoLevel)
	return &I2CAttacher{Bus: bus, Log: log, open: openI2C}
}

func openI2C(addr uint8, bus int) (Register, error) {
	return i2c.NewI2C(addr, bus)
}

// Attach opens the device at address addr and returns a counter
// reading register reg.
func (a *I2CAttacher) Attach(addr, reg int, m tracker.Mode) (tracker.Counter, error) {
	if addr < 0 || addr > 0x7F || reg < 0 || reg > 0xFF {
		return nil, fmt.Errorf("i2c: invalid address 0x%x or register 0x%x", addr, reg)
	}
	dev, err := a.open(uint8(addr), a.Bus)
	if err != nil {
		return nil, fmt.Errorf("i2c-%d 0x%02x: %w", a.Bus, addr, err)
	}
	a.devs = append(a.devs, dev)
	a.Log.Info("counter attached", zap.Int("bus", a.Bus), zap.Int("addr", addr), zap.Int("reg", reg), zap.Stringer("mode", m))
	return NewI2CCounter(dev, byte(reg), a.Log), nil
}

// Close closes all the devices.
func (a *I2CAttacher) Close() error {
	var err error
	for _, d := range a.devs {
		err = multierr.Append(err, d.Close())
	}
	a.devs = nil
	return err
}
