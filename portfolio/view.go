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
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/wealthdesk/wd-api/data"
	"github.com/wealthdesk/wd-api/ledger"
	"github.com/wealthdesk/wd-api/observability/opentelemetry"
)

const (
	// RecentTransactionsCap bounds the recent-activity list on a client view
	RecentTransactionsCap = 20

	// CashBucketName and CashBucketColor label the synthetic allocation
	// bucket holding the cash balances
	CashBucketName  = "Cash"
	CashBucketColor = "#91b3d8"

	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusError    = "error"
)

// Compute builds the complete view for one client from an immutable ledger
// snapshot. The whole result is assembled before it is returned, so callers
// can publish it atomically; nothing here mutates the snapshot, and running
// it twice over the same inputs yields the same figures.
func Compute(ctx context.Context, client *ledger.Client, rates *data.RateTable) *ClientView {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "portfolio.Compute")
	defer span.End()

	proj, history := BuildHistory(client, rates)
	riskFree := viper.GetFloat64("performance.risk_free_rate")
	metrics, months := ComputeMetrics(history, proj.Flows, riskFree)
	dividends, fees := aggregateDividends(proj)

	view := &ClientView{
		ClientName:     client.Name,
		Filename:       client.Filename,
		BaseCurrency:   client.BaseCurrency,
		DividendsTotal: dividends.Total,
		FeesTotal:      fees,
		Performance:    metrics,
		MonthlyReturns: months,
		ValueHistory:   Downsample(history),
		Dividends:      dividends,
		Status:         StatusOK,
		ComputedOn:     time.Now().UTC(),
	}

	var lastValued time.Time
	if len(history) > 0 {
		lastValued = history[len(history)-1].Date
	}

	view.Holdings = buildHoldings(proj, lastValued)
	for _, holding := range view.Holdings {
		view.TotalValue += holding.CurrentValue
		view.TotalInvested += holding.Invested
	}

	view.Accounts, view.CurrencyBreakdown = buildAccounts(proj, view.Holdings, lastValued)
	for _, acct := range view.Accounts {
		if acct.Balance <= 0 {
			continue
		}
		if base, ok := proj.toBase(acct.Balance, acct.Currency, lastValued); ok {
			view.TotalValue += base
		}
	}

	view.GainLoss = view.TotalValue - totalCash(view) - view.TotalInvested
	if view.TotalInvested > 0 {
		view.GainLossPct = view.GainLoss / view.TotalInvested * 100
	}

	view.AssetAllocation = buildAllocation(view)
	view.AllTransactions = transactionViews(client.Transactions)
	if len(view.AllTransactions) > RecentTransactionsCap {
		view.RecentTransactions = view.AllTransactions[:RecentTransactionsCap]
	} else {
		view.RecentTransactions = view.AllTransactions
	}

	view.Warnings = proj.Warnings
	view.Incomplete = proj.Incomplete
	if len(view.Warnings) > 0 || view.Incomplete {
		view.Status = StatusDegraded
	}

	log.Info().Object("View", view).Msg("computed client view")
	return view
}

// totalCash sums the positive base-currency cash already folded into the
// view's total value
func totalCash(view *ClientView) float64 {
	var holdingsValue float64
	for _, holding := range view.Holdings {
		holdingsValue += holding.CurrentValue
	}
	return view.TotalValue - holdingsValue
}

// buildHoldings turns the final positions into presentation holdings, priced
// at each security's latest close. A position whose last quote predates the
// final valuation date is marked stale; one without a convertible currency is
// excluded from value and flagged rather than guessed at 1:1.
func buildHoldings(proj *Projection, lastValued time.Time) []*Holding {
	holdings := make([]*Holding, 0, len(proj.Positions))
	for _, pos := range proj.Positions {
		if pos.Shares <= 0 {
			continue
		}

		sec := pos.Security
		holding := &Holding{
			Security: SecurityRef{
				ISIN:   sec.ISIN,
				Name:   sec.Name,
				Ticker: sec.Ticker,
			},
			Shares:        pos.Shares,
			Currency:      sec.Currency,
			Category:      sec.Category,
			Invested:      pos.Invested,
			Volatility:    securityVolatility(sec.Prices),
			AnnualReturn:  securityAnnualReturn(sec.Prices),
			categoryColor: sec.Color,
		}

		if latest, ok := sec.Prices.Latest(); ok {
			holding.Security.LatestPrice = latest.Close
			holding.Stale = latest.Date.Before(lastValued)
			if base, ok := proj.toBase(pos.Shares*latest.Close, sec.Currency, latest.Date); ok {
				holding.CurrentValue = base
			} else {
				holding.Stale = true
			}
		} else {
			proj.warnf("no price history for %s, holding excluded from value", sec.Name)
			holding.Stale = true
		}

		holding.GainLoss = holding.CurrentValue - holding.Invested
		if holding.Invested > 0 {
			holding.GainLossPct = holding.GainLoss / holding.Invested * 100
		}
		holdings = append(holdings, holding)
	}

	sort.Slice(holdings, func(i, j int) bool {
		if holdings[i].CurrentValue != holdings[j].CurrentValue {
			return holdings[i].CurrentValue > holdings[j].CurrentValue
		}
		return holdings[i].Security.Name < holdings[j].Security.Name
	})
	return holdings
}

// buildAccounts produces the account list and the by-currency value split of
// the whole portfolio, securities at their trading currency plus cash at each
// account's currency, all in base-currency terms.
func buildAccounts(proj *Projection, holdings []*Holding, lastValued time.Time) ([]*AccountView, map[string]float64) {
	breakdown := make(map[string]float64)
	for _, holding := range holdings {
		breakdown[holding.Currency] += holding.CurrentValue
	}

	accounts := make([]*AccountView, 0, len(proj.client.Accounts))
	for _, acct := range proj.client.Accounts {
		balance := proj.Balances[acct.ID]
		accounts = append(accounts, &AccountView{
			Name:     acct.Name,
			Currency: acct.Currency,
			Balance:  balance,
		})
		if balance > 0 {
			if base, ok := proj.toBase(balance, acct.Currency, lastValued); ok {
				breakdown[acct.Currency] += base
			}
		}
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Name < accounts[j].Name
	})
	return accounts, breakdown
}

// buildAllocation groups holdings into category buckets plus a synthetic
// cash bucket. Buckets are ordered by descending value with name as the tie
// break so chart colors stay stable across recomputes.
func buildAllocation(view *ClientView) []*AllocationBucket {
	byName := make(map[string]*AllocationBucket)
	for _, holding := range view.Holdings {
		bucket := byName[holding.Category]
		if bucket == nil {
			color := holding.categoryColor
			if color == "" {
				color = ledger.DefaultCategoryColor
			}
			bucket = &AllocationBucket{Name: holding.Category, Color: color}
			byName[holding.Category] = bucket
		}
		bucket.Value += holding.CurrentValue
		bucket.Holdings = append(bucket.Holdings, holding)
	}

	// account cash merges into an existing "Cash" category bucket so a
	// money-market holding tagged Cash keeps its value and members
	if cash := totalCash(view); cash > 0 {
		bucket := byName[CashBucketName]
		if bucket == nil {
			bucket = &AllocationBucket{Name: CashBucketName, Color: CashBucketColor}
			byName[CashBucketName] = bucket
		}
		bucket.Value += cash
	}

	buckets := make([]*AllocationBucket, 0, len(byName))
	for _, bucket := range byName {
		if view.TotalValue > 0 {
			bucket.Percentage = bucket.Value / view.TotalValue * 100
		}
		buckets = append(buckets, bucket)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Value != buckets[j].Value {
			return buckets[i].Value > buckets[j].Value
		}
		return buckets[i].Name < buckets[j].Name
	})
	return buckets
}

// transactionViews renders the ledger newest first
func transactionViews(trxs []*ledger.Transaction) []*TransactionView {
	views := make([]*TransactionView, 0, len(trxs))
	for idx := len(trxs) - 1; idx >= 0; idx-- {
		trx := trxs[idx]
		views = append(views, &TransactionView{
			Date:         trx.Date,
			Kind:         trx.Kind,
			Amount:       trx.Amount,
			Currency:     trx.Currency,
			Shares:       trx.Shares,
			SecurityName: trx.SecurityName,
			Account:      trx.Account,
			Note:         trx.Note,
		})
	}
	return views
}
