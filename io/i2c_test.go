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
	"testing"

	"github.com/aamcrae/rotary/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChip struct {
	regs   [256]byte
	fail   bool
	closed bool
}

func (f *fakeChip) ReadRegBytes(reg byte, n int) ([]byte, int, error) {
	if f.fail {
		return nil, 0, errors.New("nack")
	}
	b := make([]byte, n)
	copy(b, f.regs[int(reg):])
	return b, n, nil
}

func (f *fakeChip) WriteBytes(buf []byte) (int, error) {
	if f.fail {
		return 0, errors.New("nack")
	}
	copy(f.regs[int(buf[0]):], buf[1:])
	return len(buf), nil
}

func (f *fakeChip) Close() error {
	f.closed = true
	return nil
}

func TestI2CCounter(t *testing.T) {
	chip := new(fakeChip)
	c := NewI2CCounter(chip, 0x10, nil)
	copy(chip.regs[0x10:], []byte{0, 0, 0x01, 0x02})
	assert.Equal(t, int64(258), c.Count())
	copy(chip.regs[0x10:], []byte{0xFF, 0xFF, 0xFF, 0x9C})
	assert.Equal(t, int64(-100), c.Count())

	c.SetCount(1000)
	assert.Equal(t, []byte{0, 0, 0x03, 0xE8}, chip.regs[0x10:0x14])
	assert.Equal(t, int64(1000), c.Count())
	c.Reset()
	assert.Equal(t, int64(0), c.Count())

	// A failed read returns the last count.
	c.SetCount(7)
	chip.fail = true
	assert.Equal(t, int64(7), c.Count())
}

func TestI2CAttacher(t *testing.T) {
	chips := map[uint8]*fakeChip{}
	att := NewI2CAttacher(2, nil)
	att.open = func(addr uint8, bus int) (Register, error) {
		assert.Equal(t, 2, bus)
		if addr == 0x30 {
			return nil, errors.New("no device")
		}
		c := new(fakeChip)
		chips[addr] = c
		return c, nil
	}
	tr, err := tracker.New(att, tracker.NewSystemClock(), []tracker.ChannelConfig{
		{Name: "m1", PinA: 0x10, PinB: 0x20, Resolution: 49},
		{Name: "m2", PinA: 0x11, PinB: 0x20, Resolution: 49},
	})
	require.NoError(t, err)
	copy(chips[0x11].regs[0x20:], []byte{0, 0, 0, 5})
	assert.Equal(t, []int64{0, 5}, tr.Counts())
	require.NoError(t, att.Close())
	assert.True(t, chips[0x10].closed)

	_, err = att.Attach(0x30, 0, tracker.SingleEdge)
	assert.Error(t, err)
	_, err = att.Attach(0x80, 0, tracker.SingleEdge)
	assert.Error(t, err)
}
