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
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wealthdesk/wd-api/data"
)

const (
	// minPricesForVolatility is the fewest closing prices that give a
	// meaningful daily-return sample
	minPricesForVolatility = 20

	// dailyOutlierCutoff drops split and bad-tick artifacts from the
	// daily-return sample
	dailyOutlierCutoff = 0.15

	tradingDaysPerYear = 252
)

// securityVolatility is the annualized standard deviation of a security's
// daily returns, as a percentage. Series shorter than
// minPricesForVolatility report 0, and single-day moves at or beyond the
// outlier cutoff are excluded from the sample.
func securityVolatility(prices data.PriceSeries) float64 {
	if len(prices) < minPricesForVolatility {
		return 0
	}

	returns := make([]float64, 0, len(prices)-1)
	for idx := 1; idx < len(prices); idx++ {
		if prices[idx-1].Close <= 0 {
			continue
		}
		r := prices[idx].Close/prices[idx-1].Close - 1
		if math.Abs(r) >= dailyOutlierCutoff {
			continue
		}
		returns = append(returns, r)
	}
	if len(returns) < 2 {
		return 0
	}

	return stat.StdDev(returns, nil) * math.Sqrt(tradingDaysPerYear) * 100
}

// securityAnnualReturn compounds a security's first-to-latest price change to
// a yearly percentage. Series spanning less than a day report the raw change.
func securityAnnualReturn(prices data.PriceSeries) float64 {
	first, ok := prices.First()
	if !ok {
		return 0
	}
	latest, ok := prices.Latest()
	if !ok || first.Close <= 0 {
		return 0
	}

	total := latest.Close/first.Close - 1
	days := latest.Date.Sub(first.Date).Hours() / 24
	return annualize(total, days) * 100
}
