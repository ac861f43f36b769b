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

	"github.com/wealthdesk/wd-api/ledger"
)

// aggregateDividends sums dividend income by calendar year, by security and
// by month, and nets fee and tax charges against their refunds into a single
// total. Amounts are converted at each transaction's own date, not at current
// rates, so the aggregates stay stable as FX moves.
func aggregateDividends(proj *Projection) (*DividendSummary, float64) {
	summary := &DividendSummary{
		ByYear:     make(map[int]float64),
		BySecurity: make(map[string]float64),
	}
	byMonth := make(map[[2]int]float64)
	var fees float64

	for _, trx := range proj.client.Transactions {
		switch trx.Kind {
		case ledger.DividendTransaction:
			amount, ok := proj.toBase(trx.Amount, trx.Currency, trx.Date)
			if !ok {
				continue
			}
			summary.Total += amount
			summary.ByYear[trx.Date.Year()] += amount
			name := trx.SecurityName
			if name == "" {
				name = trx.SecurityID
			}
			summary.BySecurity[name] += amount
			byMonth[[2]int{trx.Date.Year(), int(trx.Date.Month())}] += amount

		case ledger.FeeTransaction, ledger.TaxTransaction:
			if amount, ok := proj.toBase(trx.Amount, trx.Currency, trx.Date); ok {
				fees += amount
			}
		case ledger.FeeRefundTransaction, ledger.TaxRefundTransaction:
			if amount, ok := proj.toBase(trx.Amount, trx.Currency, trx.Date); ok {
				fees -= amount
			}
		}
	}

	for key, amount := range byMonth {
		summary.ByMonth = append(summary.ByMonth, MonthlyAmount{
			Year: key[0], Month: key[1], Amount: amount,
		})
	}
	sort.Slice(summary.ByMonth, func(i, j int) bool {
		a, b := summary.ByMonth[i], summary.ByMonth[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})

	return summary, fees
}
