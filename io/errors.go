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
// Package io provides the hardware counters for encoders,
// using GPIO pins or I2C counter chips.
package io

// Error is an io error.
type Error string

func (e Error) Error() string {
	return string(e)
}

// ErrTimeout is returned by an Input when no edge arrived in time.
const ErrTimeout = Error("timeout waiting for edge")
