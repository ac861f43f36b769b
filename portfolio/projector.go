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
	"fmt"
	"time"

	"github.com/wealthdesk/wd-api/data"
	"github.com/wealthdesk/wd-api/ledger"
)

// Position is the running state of one security during ledger replay. Shares
// is the net share count across all accounts; Invested is the average-cost
// basis in the client's base currency, converted at transaction-date FX rates.
type Position struct {
	Security *ledger.Security
	Shares   float64
	Invested float64
}

// Flow is an external cash flow in base currency. Positive amounts enter the
// portfolio, negative amounts leave it. Flow dates partition the TTWROR
// sub-periods.
type Flow struct {
	Date   time.Time
	Amount float64
}

// Projection replays a client's transaction ledger chronologically, tracking
// share positions, per-account cash balances and external cash flows. It can
// be advanced date by date for the value history and then run to completion
// for the final holdings.
type Projection struct {
	client *ledger.Client
	rates  *data.RateTable

	Positions map[string]*Position
	Balances  map[string]float64
	Flows     []Flow

	Warnings   []string
	Incomplete bool

	cursor int
}

// NewProjection prepares a replay over the client's ledger. Transactions are
// already date-ordered by the decoder; the projection consumes them in that
// order so same-day events keep their file order.
func NewProjection(client *ledger.Client, rates *data.RateTable) *Projection {
	return &Projection{
		client:    client,
		rates:     rates,
		Positions: make(map[string]*Position),
		Balances:  make(map[string]float64),
	}
}

// Advance applies every transaction dated on or before the given date.
// Calling it with successive dates replays the ledger incrementally.
func (proj *Projection) Advance(through time.Time) {
	trxs := proj.client.Transactions
	for proj.cursor < len(trxs) && !trxs[proj.cursor].Date.After(through) {
		proj.apply(trxs[proj.cursor])
		proj.cursor++
	}
}

// Finish applies all remaining transactions
func (proj *Projection) Finish() {
	trxs := proj.client.Transactions
	for proj.cursor < len(trxs) {
		proj.apply(trxs[proj.cursor])
		proj.cursor++
	}
}

func (proj *Projection) warnf(format string, args ...any) {
	proj.Warnings = append(proj.Warnings, fmt.Sprintf(format, args...))
}

func sourceRef(trx *ledger.Transaction) string {
	if len(trx.SourceID) >= 8 {
		return trx.SourceID[:8]
	}
	return "unknown"
}

// toBase converts an amount into the client's base currency at the given
// date's FX rate. A missing rate fails closed: the amount is excluded and the
// projection is marked incomplete, it is never assumed to be 1:1.
func (proj *Projection) toBase(amount float64, currency string, date time.Time) (float64, bool) {
	converted, err := proj.rates.Convert(amount, currency, proj.client.BaseCurrency, date)
	if err != nil {
		proj.Incomplete = true
		proj.warnf("no %s/%s rate on %s, amount excluded", currency,
			proj.client.BaseCurrency, date.Format("2006-01-02"))
		return 0, false
	}
	return converted, true
}

// apply dispatches one transaction through the effects table. A transaction
// referencing an unknown security is skipped with a warning; an oversell
// floors the position at zero and is reported as a data-integrity warning.
func (proj *Projection) apply(trx *ledger.Transaction) {
	effect, err := ledger.EffectOf(trx.Kind)
	if err != nil {
		proj.warnf("transaction %s on %s skipped: unknown kind %s",
			sourceRef(trx), trx.Date.Format("2006-01-02"), trx.Kind)
		return
	}

	if effect.Transfer {
		proj.applyTransfer(trx)
		return
	}

	if effect.SharesSign != 0 {
		proj.applyShares(trx, effect)
	}

	if effect.CashSign != 0 {
		proj.Balances[proj.accountKey(trx.Account)] += float64(effect.CashSign) * trx.Amount
	}

	if effect.ExternalFlow {
		if flow := trx.SignedFlow(); flow != 0 {
			if base, ok := proj.toBase(flow, trx.Currency, trx.Date); ok {
				proj.Flows = append(proj.Flows, Flow{Date: trx.Date, Amount: base})
			}
		}
	}
}

func (proj *Projection) applyShares(trx *ledger.Transaction, effect ledger.Effect) {
	sec, ok := proj.client.SecurityByID(trx.SecurityID)
	if !ok {
		proj.warnf("transaction %s on %s skipped: unknown security %q",
			sourceRef(trx), trx.Date.Format("2006-01-02"), trx.SecurityID)
		return
	}

	pos := proj.Positions[sec.ID]
	if pos == nil {
		pos = &Position{Security: sec}
		proj.Positions[sec.ID] = pos
	}

	switch effect.SharesSign {
	case +1:
		// purchases carry their price, deliveries their market value; both
		// add to the average-cost basis at transaction-date FX
		if base, ok := proj.toBase(trx.Amount, trx.Currency, trx.Date); ok {
			pos.Invested += base
		}
		pos.Shares += trx.Shares
	case -1:
		shares := trx.Shares
		if shares > pos.Shares {
			proj.warnf("%s of %.4f %s shares on %s exceeds position of %.4f, floored at zero",
				trx.Kind, shares, sec.Name, trx.Date.Format("2006-01-02"), pos.Shares)
			shares = pos.Shares
		}
		if pos.Shares > 0 {
			pos.Invested -= pos.Invested * (shares / pos.Shares)
		}
		pos.Shares -= shares
	}
}

// applyTransfer moves cash or shares between accounts. Positions are tracked
// per security across all accounts and cash transfers net to zero across the
// two balances, so neither changes portfolio totals.
func (proj *Projection) applyTransfer(trx *ledger.Transaction) {
	if trx.Kind != ledger.CashTransferTransaction {
		return
	}
	proj.Balances[proj.accountKey(trx.Account)] -= trx.Amount
	proj.Balances[proj.accountKey(trx.CounterAccount)] += trx.Amount
}

// accountKey resolves a transaction's account reference to an account ID.
// References by display name are accepted; an unknown reference falls back to
// the raw string so the cash is still tracked rather than dropped.
func (proj *Projection) accountKey(ref string) string {
	for _, acct := range proj.client.Accounts {
		if acct.ID == ref || acct.Name == ref {
			return acct.ID
		}
	}
	return ref
}

// accountCurrency returns the currency of the account with the given key,
// defaulting to the client's base currency for unknown accounts.
func (proj *Projection) accountCurrency(key string) string {
	for _, acct := range proj.client.Accounts {
		if acct.ID == key {
			return acct.Currency
		}
	}
	return proj.client.BaseCurrency
}

// CashValue converts all account balances to base currency at the given
// date. Missing FX rates exclude the balance and mark the projection
// incomplete.
func (proj *Projection) CashValue(date time.Time) float64 {
	var total float64
	for key, balance := range proj.Balances {
		if balance == 0 {
			continue
		}
		if base, ok := proj.toBase(balance, proj.accountCurrency(key), date); ok {
			total += base
		}
	}
	return total
}

// SecuritiesValue prices every open position at the last price on or before
// the given date and converts to base currency. Positions without any price
// yet contribute nothing.
func (proj *Projection) SecuritiesValue(date time.Time) float64 {
	var total float64
	for _, pos := range proj.Positions {
		if pos.Shares <= 0 {
			continue
		}
		price, err := pos.Security.Prices.On(date)
		if err != nil {
			continue
		}
		if base, ok := proj.toBase(pos.Shares*price, pos.Security.Currency, date); ok {
			total += base
		}
	}
	return total
}
