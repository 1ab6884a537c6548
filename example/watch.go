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

// Program to watch the count of an encoder on a GPIO pin pair

package main

import (
	"flag"
	"time"

	"github.com/aamcrae/rotary/io"
	"github.com/aamcrae/rotary/logger"
	"github.com/aamcrae/rotary/tracker"
	"go.uber.org/zap"
)

var pinA = flag.Int("a", 4, "GPIO pin for encoder A")
var pinB = flag.Int("b", 17, "GPIO pin for encoder B")
var mode = flag.String("mode", "single", "Counting mode: single, half or full")
var rate = flag.Duration("rate", time.Second, "Print interval")

func main() {
	flag.Parse()
	log := logger.GetLogger("watch", false)
	m, err := tracker.ParseMode(*mode)
	if err != nil {
		log.Fatal("mode", zap.Error(err))
	}
	att := io.NewGpioAttacher(log)
	defer att.Close()
	c, err := att.Attach(*pinA, *pinB, m)
	if err != nil {
		log.Fatal("attach", zap.Error(err))
	}
	c.Reset()
	last := int64(0)
	for range time.Tick(*rate) {
		v := c.Count()
		log.Info("count", zap.Int64("count", v), zap.Int64("delta", v-last))
		last = v
	}
}
