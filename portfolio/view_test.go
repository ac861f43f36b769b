// Copyright 2023-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package portfolio_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wealthdesk/wd-api/data"
	"github.com/wealthdesk/wd-api/ledger"
	"github.com/wealthdesk/wd-api/portfolio"
)

func decodeClient(raw string) *ledger.Client {
	client, err := ledger.Decode("test.ledger", []byte(raw))
	Expect(err).To(BeNil())
	return client
}

var _ = Describe("Client view assembly", func() {
	var rates *data.RateTable

	BeforeEach(func() {
		rates = data.NewRateTable()
	})

	Context("with a single purchase and a price gain", func() {
		var view *portfolio.ClientView

		BeforeEach(func() {
			client := decodeClient(`{
				"name": "Jane Example",
				"base_currency": "EUR",
				"securities": [{
					"id": "sec1", "isin": "DE0001", "name": "Alpha Fund",
					"currency": "EUR", "category": "Equity",
					"prices": [
						{"date": "2025-01-02T00:00:00Z", "close": 100},
						{"date": "2025-01-30T00:00:00Z", "close": 120}
					]
				}],
				"accounts": [{"id": "acct1", "name": "Brokerage", "currency": "EUR"}],
				"transactions": [
					{"date": "2025-01-02T00:00:00Z", "kind": "PURCHASE", "amount": 1000,
					 "currency": "EUR", "shares": 10, "security": "sec1", "account": "acct1"}
				]
			}`)
			view = portfolio.Compute(context.Background(), client, rates)
		})

		It("values the holding at the latest price", func() {
			Expect(view.Holdings).To(HaveLen(1))
			holding := view.Holdings[0]
			Expect(holding.Security.ISIN).To(Equal("DE0001"))
			Expect(holding.Security.LatestPrice).To(Equal(120.0))
			Expect(holding.Shares).To(Equal(10.0))
			Expect(holding.CurrentValue).To(BeNumerically("~", 1200, 1e-6))
			Expect(holding.Invested).To(BeNumerically("~", 1000, 1e-6))
			Expect(holding.GainLoss).To(BeNumerically("~", 200, 1e-6))
			Expect(holding.GainLossPct).To(BeNumerically("~", 20.0, 1e-6))
		})

		It("reports the purchase cash outflow on the account", func() {
			Expect(view.Accounts).To(HaveLen(1))
			Expect(view.Accounts[0].Name).To(Equal("Brokerage"))
			Expect(view.Accounts[0].Balance).To(BeNumerically("~", -1000, 1e-6))
		})

		It("has a clean status", func() {
			Expect(view.Status).To(Equal(portfolio.StatusOK))
			Expect(view.Warnings).To(BeEmpty())
			Expect(view.Incomplete).To(BeFalse())
		})

		It("carries the full and recent transaction lists", func() {
			Expect(view.AllTransactions).To(HaveLen(1))
			Expect(view.RecentTransactions).To(HaveLen(1))
			Expect(view.RecentTransactions[0].Kind).To(Equal(ledger.PurchaseTransaction))
		})
	})

	Context("with cash left over after investing", func() {
		var view *portfolio.ClientView

		BeforeEach(func() {
			client := decodeClient(`{
				"name": "Flush Fund",
				"base_currency": "EUR",
				"securities": [
					{"id": "sec1", "isin": "DE0001", "name": "Alpha Fund",
					 "currency": "EUR", "category": "Equity",
					 "prices": [{"date": "2025-01-02T00:00:00Z", "close": 100}]},
					{"id": "sec2", "isin": "DE0002", "name": "Beta Bonds",
					 "currency": "EUR", "category": "Bond",
					 "prices": [{"date": "2025-01-02T00:00:00Z", "close": 50}]}
				],
				"accounts": [{"id": "acct1", "name": "Brokerage", "currency": "EUR"}],
				"transactions": [
					{"date": "2025-01-02T00:00:00Z", "kind": "DEPOSIT", "amount": 5000,
					 "currency": "EUR", "account": "acct1"},
					{"date": "2025-01-02T00:00:00Z", "kind": "PURCHASE", "amount": 1000,
					 "currency": "EUR", "shares": 10, "security": "sec1", "account": "acct1"},
					{"date": "2025-01-02T00:00:00Z", "kind": "PURCHASE", "amount": 1000,
					 "currency": "EUR", "shares": 20, "security": "sec2", "account": "acct1"}
				]
			}`)
			view = portfolio.Compute(context.Background(), client, rates)
		})

		It("totals holdings plus positive cash", func() {
			var holdingsValue float64
			for _, holding := range view.Holdings {
				holdingsValue += holding.CurrentValue
			}
			Expect(view.Accounts[0].Balance).To(BeNumerically("~", 3000, 1e-6))
			Expect(view.TotalValue).To(BeNumerically("~", holdingsValue+3000, 1e-6))
		})

		It("covers the total with allocation buckets including cash", func() {
			var bucketSum, pctSum float64
			names := make([]string, 0, len(view.AssetAllocation))
			for _, bucket := range view.AssetAllocation {
				bucketSum += bucket.Value
				pctSum += bucket.Percentage
				names = append(names, bucket.Name)
			}
			Expect(names).To(ConsistOf("Equity", "Bond", portfolio.CashBucketName))
			Expect(bucketSum).To(BeNumerically("~", view.TotalValue, 1e-6))
			Expect(pctSum).To(BeNumerically("~", 100, 1e-6))
		})

		It("orders buckets by descending value", func() {
			Expect(view.AssetAllocation[0].Name).To(Equal(portfolio.CashBucketName))
			Expect(view.AssetAllocation[0].Color).To(Equal(portfolio.CashBucketColor))
		})

		It("splits value by currency", func() {
			Expect(view.CurrencyBreakdown).To(HaveKey("EUR"))
			Expect(view.CurrencyBreakdown["EUR"]).To(BeNumerically("~", view.TotalValue, 1e-6))
		})
	})

	Context("with a holding categorized as Cash alongside account cash", func() {
		var view *portfolio.ClientView

		BeforeEach(func() {
			client := decodeClient(`{
				"name": "Money Market",
				"base_currency": "EUR",
				"securities": [{
					"id": "sec1", "isin": "DE0003", "name": "Overnight MM Fund",
					"currency": "EUR", "category": "Cash",
					"prices": [{"date": "2025-01-02T00:00:00Z", "close": 100}]
				}],
				"accounts": [{"id": "acct1", "name": "Brokerage", "currency": "EUR"}],
				"transactions": [
					{"date": "2025-01-02T00:00:00Z", "kind": "DEPOSIT", "amount": 1500,
					 "currency": "EUR", "account": "acct1"},
					{"date": "2025-01-02T00:00:00Z", "kind": "PURCHASE", "amount": 1000,
					 "currency": "EUR", "shares": 10, "security": "sec1", "account": "acct1"}
				]
			}`)
			view = portfolio.Compute(context.Background(), client, rates)
		})

		It("merges account cash into the Cash category bucket", func() {
			Expect(view.AssetAllocation).To(HaveLen(1))
			bucket := view.AssetAllocation[0]
			Expect(bucket.Name).To(Equal(portfolio.CashBucketName))
			Expect(bucket.Value).To(BeNumerically("~", 1500, 1e-6))
			Expect(bucket.Holdings).To(HaveLen(1))
			Expect(bucket.Holdings[0].Security.Name).To(Equal("Overnight MM Fund"))
		})

		It("keeps the bucket sum equal to the total value", func() {
			var bucketSum float64
			for _, bucket := range view.AssetAllocation {
				bucketSum += bucket.Value
			}
			Expect(view.TotalValue).To(BeNumerically("~", 1500, 1e-6))
			Expect(bucketSum).To(BeNumerically("~", view.TotalValue, 1e-6))
		})
	})

	Context("with a sale exceeding the held shares", func() {
		var view *portfolio.ClientView

		BeforeEach(func() {
			client := decodeClient(`{
				"name": "Oversold",
				"base_currency": "EUR",
				"securities": [{
					"id": "sec1", "isin": "DE0001", "name": "Alpha Fund",
					"currency": "EUR", "category": "Equity",
					"prices": [{"date": "2025-01-02T00:00:00Z", "close": 100}]
				}],
				"accounts": [{"id": "acct1", "name": "Brokerage", "currency": "EUR"}],
				"transactions": [
					{"date": "2025-01-02T00:00:00Z", "kind": "PURCHASE", "amount": 1000,
					 "currency": "EUR", "shares": 10, "security": "sec1", "account": "acct1"},
					{"date": "2025-01-03T00:00:00Z", "kind": "SALE", "amount": 1500,
					 "currency": "EUR", "shares": 15, "security": "sec1", "account": "acct1"}
				]
			}`)
			view = portfolio.Compute(context.Background(), client, rates)
		})

		It("floors the position at zero and degrades the view", func() {
			Expect(view.Holdings).To(BeEmpty())
			Expect(view.Status).To(Equal(portfolio.StatusDegraded))
			Expect(view.Warnings).ToNot(BeEmpty())
		})
	})

	Context("with a transaction referencing an unknown security", func() {
		It("skips the transaction and records a warning", func() {
			client := decodeClient(`{
				"name": "Mystery",
				"base_currency": "EUR",
				"securities": [],
				"accounts": [{"id": "acct1", "name": "Brokerage", "currency": "EUR"}],
				"transactions": [
					{"date": "2025-01-02T00:00:00Z", "kind": "PURCHASE", "amount": 1000,
					 "currency": "EUR", "shares": 10, "security": "ghost", "account": "acct1"}
				]
			}`)
			view := portfolio.Compute(context.Background(), client, rates)
			Expect(view.Holdings).To(BeEmpty())
			Expect(view.Status).To(Equal(portfolio.StatusDegraded))
			Expect(view.Warnings).To(HaveLen(1))
			Expect(view.Warnings[0]).To(ContainSubstring("ghost"))
		})
	})

	Context("with a foreign-currency holding and no FX rate", func() {
		var view *portfolio.ClientView

		BeforeEach(func() {
			client := decodeClient(`{
				"name": "Unconvertible",
				"base_currency": "EUR",
				"securities": [{
					"id": "sec1", "isin": "US0001", "name": "Far Away Inc",
					"currency": "USD", "category": "Equity",
					"prices": [{"date": "2025-01-02T00:00:00Z", "close": 100}]
				}],
				"accounts": [{"id": "acct1", "name": "Brokerage", "currency": "EUR"}],
				"transactions": [
					{"date": "2025-01-02T00:00:00Z", "kind": "PURCHASE", "amount": 900,
					 "currency": "USD", "shares": 10, "security": "sec1", "account": "acct1"}
				]
			}`)
			view = portfolio.Compute(context.Background(), client, rates)
		})

		It("fails closed instead of assuming parity", func() {
			Expect(view.Holdings).To(HaveLen(1))
			Expect(view.Holdings[0].CurrentValue).To(BeZero())
			Expect(view.TotalValue).To(BeZero())
		})

		It("flags the view as incomplete", func() {
			Expect(view.Incomplete).To(BeTrue())
			Expect(view.Status).To(Equal(portfolio.StatusDegraded))
		})
	})

	Context("with FX rates available", func() {
		It("converts value at price-date rates and cost at transaction-date rates", func() {
			rates.Add("USD", "EUR", date(2025, 1, 2), 0.5)
			rates.Add("USD", "EUR", date(2025, 1, 30), 0.8)
			rates.Finalize()

			client := decodeClient(`{
				"name": "Converted",
				"base_currency": "EUR",
				"securities": [{
					"id": "sec1", "isin": "US0001", "name": "Far Away Inc",
					"currency": "USD", "category": "Equity",
					"prices": [
						{"date": "2025-01-02T00:00:00Z", "close": 100},
						{"date": "2025-01-30T00:00:00Z", "close": 100}
					]
				}],
				"accounts": [{"id": "acct1", "name": "Brokerage", "currency": "EUR"}],
				"transactions": [
					{"date": "2025-01-02T00:00:00Z", "kind": "PURCHASE", "amount": 1000,
					 "currency": "USD", "shares": 10, "security": "sec1", "account": "acct1"}
				]
			}`)
			view := portfolio.Compute(context.Background(), client, rates)

			Expect(view.Holdings).To(HaveLen(1))
			holding := view.Holdings[0]
			Expect(holding.Invested).To(BeNumerically("~", 500, 1e-6))
			Expect(holding.CurrentValue).To(BeNumerically("~", 800, 1e-6))
			Expect(view.Incomplete).To(BeFalse())
		})
	})
})
