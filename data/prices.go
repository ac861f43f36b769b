// Copyright 2023-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package data

import (
	"errors"
	"sort"
	"time"
)

var (
	ErrNoPrice = errors.New("no price available on or before date")
)

// PricePoint is a single closing price observation for a security
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is a date-ascending list of price observations. A series is
// immutable for the duration of one computation run.
type PriceSeries []PricePoint

// Sort orders the series by date ascending; decoded ledger files are not
// guaranteed to carry prices in order.
func (ps PriceSeries) Sort() {
	sort.SliceStable(ps, func(i, j int) bool {
		return ps[i].Date.Before(ps[j].Date)
	})
}

// Latest returns the most recent observation in the series
func (ps PriceSeries) Latest() (PricePoint, bool) {
	if len(ps) == 0 {
		return PricePoint{}, false
	}
	return ps[len(ps)-1], true
}

// On returns the closing price on the given date, falling back to the last
// known price before it. Missing single price points are a recoverable
// condition; callers flag the holding as stale rather than fail.
func (ps PriceSeries) On(date time.Time) (float64, error) {
	idx := sort.Search(len(ps), func(i int) bool {
		return ps[i].Date.After(date)
	})
	if idx == 0 {
		return 0, ErrNoPrice
	}
	return ps[idx-1].Close, nil
}

// First returns the earliest observation in the series
func (ps PriceSeries) First() (PricePoint, bool) {
	if len(ps) == 0 {
		return PricePoint{}, false
	}
	return ps[0], true
}
