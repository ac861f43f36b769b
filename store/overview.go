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

package store

import (
	"sort"
	"time"

	"github.com/wealthdesk/wd-api/portfolio"
)

const (
	// TopHoldingsCap bounds the merged cross-client holding list
	TopHoldingsCap = 20

	// OverviewTransactionsCap bounds the book-wide recent-activity list
	OverviewTransactionsCap = 30
)

// ClientSummary is one row of the overview's client table
type ClientSummary struct {
	ClientName  string  `json:"client_name"`
	Filename    string  `json:"filename"`
	TotalValue  float64 `json:"total_value"`
	GainLoss    float64 `json:"gain_loss"`
	GainLossPct float64 `json:"gain_loss_pct"`
	Status      string  `json:"status"`
}

// Overview aggregates the whole book across every published client view
type Overview struct {
	TotalValue         float64                      `json:"total_value"`
	TotalInvested      float64                      `json:"total_invested"`
	GainLoss           float64                      `json:"gain_loss"`
	GainLossPct        float64                      `json:"gain_loss_pct"`
	DividendsTotal     float64                      `json:"dividends_total"`
	FeesTotal          float64                      `json:"fees_total"`
	NumClients         int                          `json:"num_clients"`
	Clients            []*ClientSummary             `json:"clients"`
	TopHoldings        []*portfolio.Holding         `json:"top_holdings"`
	CurrencyBreakdown  map[string]float64           `json:"currency_breakdown"`
	RecentTransactions []*portfolio.TransactionView `json:"recent_transactions"`
	GeneratedOn        time.Time                    `json:"generated_on"`
}

// Overview builds the multi-client aggregate from the published views. A
// client in error state contributes its row and nothing else, so one broken
// ledger never takes the overview down.
func (s *Store) Overview() *Overview {
	s.mu.RLock()
	defer s.mu.RUnlock()

	overview := &Overview{
		CurrencyBreakdown: make(map[string]float64),
		GeneratedOn:       time.Now().UTC(),
	}
	merged := make(map[string]*portfolio.Holding)
	var transactions []*portfolio.TransactionView

	for _, view := range s.views {
		overview.NumClients++
		overview.Clients = append(overview.Clients, &ClientSummary{
			ClientName:  view.ClientName,
			Filename:    view.Filename,
			TotalValue:  view.TotalValue,
			GainLoss:    view.GainLoss,
			GainLossPct: view.GainLossPct,
			Status:      view.Status,
		})
		if view.Status == portfolio.StatusError {
			continue
		}

		overview.TotalValue += view.TotalValue
		overview.TotalInvested += view.TotalInvested
		overview.GainLoss += view.GainLoss
		overview.DividendsTotal += view.DividendsTotal
		overview.FeesTotal += view.FeesTotal
		for ccy, value := range view.CurrencyBreakdown {
			overview.CurrencyBreakdown[ccy] += value
		}

		for _, holding := range view.Holdings {
			mergeHolding(merged, holding)
		}
		transactions = append(transactions, view.RecentTransactions...)
	}

	if overview.TotalInvested > 0 {
		overview.GainLossPct = overview.GainLoss / overview.TotalInvested * 100
	}

	sort.Slice(overview.Clients, func(i, j int) bool {
		if overview.Clients[i].ClientName != overview.Clients[j].ClientName {
			return overview.Clients[i].ClientName < overview.Clients[j].ClientName
		}
		return overview.Clients[i].Filename < overview.Clients[j].Filename
	})

	overview.TopHoldings = topHoldings(merged)
	overview.RecentTransactions = recentTransactions(transactions)
	return overview
}

// mergeHolding folds one client's position into the cross-client book,
// keyed by ISIN with name as fallback
func mergeHolding(merged map[string]*portfolio.Holding, holding *portfolio.Holding) {
	key := holding.Security.ISIN
	if key == "" {
		key = holding.Security.Name
	}

	entry, ok := merged[key]
	if !ok {
		combined := *holding
		merged[key] = &combined
		return
	}
	entry.Shares += holding.Shares
	entry.CurrentValue += holding.CurrentValue
	entry.Invested += holding.Invested
	entry.GainLoss += holding.GainLoss
	if entry.Invested > 0 {
		entry.GainLossPct = entry.GainLoss / entry.Invested * 100
	}
	entry.Stale = entry.Stale || holding.Stale
}

func topHoldings(merged map[string]*portfolio.Holding) []*portfolio.Holding {
	holdings := make([]*portfolio.Holding, 0, len(merged))
	for _, holding := range merged {
		holdings = append(holdings, holding)
	}
	sort.Slice(holdings, func(i, j int) bool {
		if holdings[i].CurrentValue != holdings[j].CurrentValue {
			return holdings[i].CurrentValue > holdings[j].CurrentValue
		}
		return holdings[i].Security.Name < holdings[j].Security.Name
	})
	if len(holdings) > TopHoldingsCap {
		holdings = holdings[:TopHoldingsCap]
	}
	return holdings
}

func recentTransactions(transactions []*portfolio.TransactionView) []*portfolio.TransactionView {
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Date.After(transactions[j].Date)
	})
	if len(transactions) > OverviewTransactionsCap {
		transactions = transactions[:OverviewTransactionsCap]
	}
	return transactions
}
