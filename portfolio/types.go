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
	"time"

	"github.com/wealthdesk/wd-api/ledger"
)

// SecurityRef is the subset of security master data exposed on a holding
type SecurityRef struct {
	ISIN        string  `json:"isin"`
	Name        string  `json:"name"`
	Ticker      string  `json:"ticker,omitempty"`
	LatestPrice float64 `json:"latest_price"`
}

// Holding is the derived projection of a security position at the latest
// valuation date. Values are in the client's base currency except Currency,
// which names the trading currency.
type Holding struct {
	Security     SecurityRef `json:"security"`
	Shares       float64     `json:"shares"`
	Currency     string      `json:"currency"`
	Category     string      `json:"category"`
	CurrentValue float64     `json:"current_value"`
	Invested     float64     `json:"invested"`
	GainLoss     float64     `json:"gain_loss"`
	GainLossPct  float64     `json:"gain_loss_pct"`
	Volatility   float64     `json:"volatility"`
	AnnualReturn float64     `json:"annual_return"`
	Stale        bool        `json:"stale,omitempty"`

	categoryColor string
}

// AccountView is an account with its derived cash balance
type AccountView struct {
	Name     string  `json:"name"`
	Currency string  `json:"currency"`
	Balance  float64 `json:"balance"`
}

// ValuePoint is one point of the portfolio value time series
type ValuePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// MonthlyReturn is the time-weighted return of one calendar month
type MonthlyReturn struct {
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	ReturnPct float64 `json:"return_pct"`
}

// PerformanceMetrics aggregates return and risk statistics. All returns and
// volatility are percentages; max drawdown is a positive percentage.
type PerformanceMetrics struct {
	TTWROR           float64 `json:"ttwror"`
	AnnualReturn     float64 `json:"annual_return"`
	YTDReturn        float64 `json:"ytd_return"`
	Return1Y         float64 `json:"return_1y"`
	Return3Y         float64 `json:"return_3y"`
	Return5Y         float64 `json:"return_5y"`
	Volatility       float64 `json:"volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	MaxDrawdownStart string  `json:"max_drawdown_start"`
	MaxDrawdownEnd   string  `json:"max_drawdown_end"`
}

// AllocationBucket groups holdings by category tag for diversification
// reporting. Iteration order is deterministic: descending value, then name.
type AllocationBucket struct {
	Name       string     `json:"name"`
	Color      string     `json:"color"`
	Value      float64    `json:"value"`
	Percentage float64    `json:"percentage"`
	Holdings   []*Holding `json:"holdings"`
}

// MonthlyAmount is a plain (year, month, amount) aggregate
type MonthlyAmount struct {
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	Amount float64 `json:"amount"`
}

// DividendSummary aggregates dividend income by year, security and month
type DividendSummary struct {
	Total      float64            `json:"total"`
	ByYear     map[int]float64    `json:"by_year"`
	BySecurity map[string]float64 `json:"by_security"`
	ByMonth    []MonthlyAmount    `json:"by_month"`
}

// TransactionView is the presentation shape of a ledger transaction
type TransactionView struct {
	Date         time.Time              `json:"date"`
	Kind         ledger.TransactionKind `json:"type"`
	Amount       float64                `json:"amount"`
	Currency     string                 `json:"currency"`
	Shares       float64                `json:"shares,omitempty"`
	SecurityName string                 `json:"security_name,omitempty"`
	Account      string                 `json:"account,omitempty"`
	Note         string                 `json:"note,omitempty"`
}

// ClientView is the complete computed result set for one client. It is built
// fully before being published to the store; readers never observe partial
// results.
type ClientView struct {
	ClientName   string `json:"client_name"`
	Filename     string `json:"filename"`
	BaseCurrency string `json:"base_currency"`

	TotalValue     float64 `json:"total_value"`
	TotalInvested  float64 `json:"total_invested"`
	GainLoss       float64 `json:"gain_loss"`
	GainLossPct    float64 `json:"gain_loss_pct"`
	DividendsTotal float64 `json:"dividends_total"`
	FeesTotal      float64 `json:"fees_total"`

	Holdings           []*Holding          `json:"holdings"`
	AssetAllocation    []*AllocationBucket `json:"asset_allocation"`
	Accounts           []*AccountView      `json:"accounts"`
	CurrencyBreakdown  map[string]float64  `json:"currency_breakdown"`
	Performance        *PerformanceMetrics `json:"performance"`
	ValueHistory       []ValuePoint        `json:"value_history"`
	MonthlyReturns     []MonthlyReturn     `json:"monthly_returns"`
	Dividends          *DividendSummary    `json:"dividends"`
	RecentTransactions []*TransactionView  `json:"recent_transactions"`
	AllTransactions    []*TransactionView  `json:"all_transactions,omitempty"`

	// Status is "ok" or "degraded"; Warnings carries skipped-transaction and
	// data-integrity notices, Incomplete marks FX-excluded holdings.
	Status     string   `json:"status"`
	Error      string   `json:"error,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Incomplete bool     `json:"incomplete,omitempty"`

	ComputedOn time.Time `json:"computed_on"`
}

// Summary returns a copy of the view without the full transaction list,
// suitable for list endpoints and the aggregate overview.
func (view *ClientView) Summary() *ClientView {
	summary := *view
	summary.AllTransactions = nil
	return &summary
}
