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

// HTTP server for encoder status
package tracker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
)

const (
	dialSize   = 200
	dialRadius = 80
	labelSpace = 30
)

type channelStatus struct {
	Name      string  `json:"name"`
	Count     int64   `json:"count"`
	Delta     int64   `json:"delta"`
	RadPerSec float64 `json:"rad_per_sec"`
	RPM       float64 `json:"rpm"`
}

type status struct {
	ElapsedMs int64           `json:"elapsed_ms"`
	Channels  []channelStatus `json:"channels"`
}

// Handler returns the HTTP handler serving the monitor's latest sample.
//  /velocity    JSON status of each channel
//  /dials.png   one dial per channel showing the shaft position
func Handler(m *Monitor, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/velocity", velocityHandler(m, log))
	mux.HandleFunc("/dials.png", dialHandler(m, log))
	return mux
}

// Serve starts the monitor server on the port.
func Serve(port int, m *Monitor, log *zap.Logger) error {
	url := fmt.Sprintf(":%d", port)
	log.Info("starting server", zap.String("addr", url))
	server := &http.Server{Addr: url, Handler: Handler(m, log)}
	return server.ListenAndServe()
}

func velocityHandler(m *Monitor, log *zap.Logger) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		s := m.Latest()
		st := status{ElapsedMs: s.Elapsed.Milliseconds(), Channels: []channelStatus{}}
		for i, c := range m.Tracker().Channels() {
			st.Channels = append(st.Channels, channelStatus{
				Name:      c.Name,
				Count:     s.Counts[i],
				Delta:     s.Deltas[i],
				RadPerSec: finite(s.Velocity[i]),
				RPM:       finite(RPM(s.Velocity[i])),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(&st); err != nil {
			log.Warn("writing status", zap.Error(err))
		}
	}
}

func dialHandler(m *Monitor, log *zap.Logger) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		s := m.Latest()
		chans := m.Tracker().Channels()
		n := len(chans)
		if n == 0 {
			n = 1
		}
		c := gg.NewContext(dialSize*n, dialSize+labelSpace)
		c.SetRGB(1, 1, 1)
		c.Clear()
		for i, ch := range chans {
			drawDial(c, float64(i*dialSize+dialSize/2), dialSize/2, ch, s.Counts[i], s.Velocity[i])
		}
		var buf bytes.Buffer
		if err := c.EncodePNG(&buf); err != nil {
			log.Warn("encoding dial image", zap.Error(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		if _, err := buf.WriteTo(w); err != nil {
			log.Warn("writing dial image", zap.Error(err))
		}
	}
}

func drawDial(c *gg.Context, x, y float64, ch *Channel, count int64, vel float64) {
	c.SetRGB(0, 0, 0)
	c.SetLineWidth(2)
	c.DrawCircle(x, y, dialRadius)
	c.Stroke()
	radians := ShaftAngle(count, ch.Resolution())
	c.SetRGB(0, 0, 1)
	c.SetLineWidth(4)
	c.DrawLine(x, y, x+dialRadius*math.Sin(radians), y-dialRadius*math.Cos(radians))
	c.Stroke()
	c.SetRGB(0, 0, 0)
	c.DrawStringAnchored(fmt.Sprintf("%s %.1f rpm", ch.Name, finite(RPM(vel))), x, y+dialRadius+labelSpace/2, 0.5, 0.5)
}

// ShaftAngle returns the shaft angle in radians, [0, 2π), for a count.
func ShaftAngle(count int64, resolution int) float64 {
	p := count % int64(resolution)
	if p < 0 {
		p += int64(resolution)
	}
	return float64(p) * 2 * math.Pi / float64(resolution)
}

// JSON cannot encode infinities.
func finite(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
