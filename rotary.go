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

// Encoder velocity program

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/aamcrae/rotary/io"
	"github.com/aamcrae/rotary/logger"
	"github.com/aamcrae/rotary/tracker"
	"go.uber.org/zap"
)

var configFile = flag.String("config", "rotary.conf", "Configuration file")
var port = flag.Int("port", 8080, "Web server port number, 0 to disable")
var debug = flag.Bool("debug", false, "Log every sample")

// attacher is an Attacher that releases its hardware on Close.
type attacher interface {
	tracker.Attacher
	tracker.Closer
}

func main() {
	flag.Parse()
	log := logger.GetLogger("rotary", *debug)
	defer log.Sync()
	conf, err := tracker.LoadConfig(*configFile)
	if err != nil {
		log.Fatal("config", zap.String("file", *configFile), zap.Error(err))
	}
	att := newAttacher(conf, log)
	defer func() {
		if err := att.Close(); err != nil {
			log.Warn("close", zap.Error(err))
		}
	}()
	t, err := tracker.New(att, tracker.NewSystemClock(), conf.Channels)
	if err != nil {
		log.Fatal("tracker", zap.Error(err))
	}
	m := tracker.NewMonitor(t, conf.Interval, log)
	if *port != 0 {
		go func() {
			log.Error("server", zap.Error(tracker.Serve(*port, m, log)))
		}()
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	m.Run(ctx)
}

func newAttacher(conf *tracker.Config, log *zap.Logger) attacher {
	if conf.Backend == "i2c" {
		return io.NewI2CAttacher(conf.I2CBus, log)
	}
	return io.NewGpioAttacher(log)
}
