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

package portfolio

import (
	"sort"
	"time"

	"github.com/wealthdesk/wd-api/data"
	"github.com/wealthdesk/wd-api/ledger"
)

const (
	// value histories longer than downsampleThreshold points are thinned to
	// every downsampleStride-th point for the published view; performance is
	// always computed on the full series
	downsampleThreshold = 500
	downsampleStride    = 5
)

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// valuationDates is the union of every price date and every transaction date,
// normalized to calendar days, in ascending order. Valuing on transaction
// days as well as price days means cash flows show up in the series the day
// they happen, not on the next quote.
func valuationDates(client *ledger.Client) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, sec := range client.Securities {
		for _, pt := range sec.Prices {
			seen[dayOf(pt.Date)] = struct{}{}
		}
	}
	for _, trx := range client.Transactions {
		seen[dayOf(trx.Date)] = struct{}{}
	}

	dates := make([]time.Time, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
	return dates
}

// BuildHistory replays the full ledger and values the portfolio, securities
// plus cash, on every valuation date. The returned projection holds the final
// positions, balances, external flows and any warnings collected during the
// replay. History dates are strictly increasing with no duplicates.
func BuildHistory(client *ledger.Client, rates *data.RateTable) (*Projection, []ValuePoint) {
	proj := NewProjection(client, rates)
	dates := valuationDates(client)

	history := make([]ValuePoint, 0, len(dates))
	for _, date := range dates {
		// apply everything up to and including this calendar day before
		// valuing it, so a same-day deposit is part of the day's value
		proj.Advance(date.Add(24*time.Hour - time.Nanosecond))
		value := proj.SecuritiesValue(date) + proj.CashValue(date)
		history = append(history, ValuePoint{Date: date, Value: value})
	}
	proj.Finish()

	return proj, history
}

// Downsample thins a long value history for presentation, always keeping the
// first and last points so the chart endpoints stay exact.
func Downsample(history []ValuePoint) []ValuePoint {
	if len(history) <= downsampleThreshold {
		return history
	}
	thinned := make([]ValuePoint, 0, len(history)/downsampleStride+2)
	for idx, pt := range history {
		if idx == 0 || idx == len(history)-1 || idx%downsampleStride == 0 {
			thinned = append(thinned, pt)
		}
	}
	return thinned
}
