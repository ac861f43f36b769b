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
	"github.com/wealthdesk/wd-api/portfolio"
)

var _ = Describe("Dividend and fee aggregation", func() {
	var view *portfolio.ClientView

	BeforeEach(func() {
		client := decodeClient(`{
			"name": "Income",
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
				{"date": "2025-03-15T00:00:00Z", "kind": "DIVIDEND", "amount": 50,
				 "currency": "EUR", "security": "sec1", "account": "acct1"},
				{"date": "2025-09-15T00:00:00Z", "kind": "DIVIDEND", "amount": 30,
				 "currency": "EUR", "security": "sec1", "account": "acct1"},
				{"date": "2025-04-01T00:00:00Z", "kind": "FEE", "amount": 10,
				 "currency": "EUR", "account": "acct1"},
				{"date": "2025-04-02T00:00:00Z", "kind": "TAX", "amount": 5,
				 "currency": "EUR", "account": "acct1"},
				{"date": "2025-05-01T00:00:00Z", "kind": "FEE_REFUND", "amount": 2,
				 "currency": "EUR", "account": "acct1"}
			]
		}`)
		view = portfolio.Compute(context.Background(), client, data.NewRateTable())
	})

	It("sums dividends by year and by security", func() {
		Expect(view.Dividends.Total).To(BeNumerically("~", 80, 1e-9))
		Expect(view.Dividends.ByYear[2025]).To(BeNumerically("~", 80, 1e-9))
		Expect(view.Dividends.BySecurity["Alpha Fund"]).To(BeNumerically("~", 80, 1e-9))
		Expect(view.DividendsTotal).To(BeNumerically("~", 80, 1e-9))
	})

	It("splits dividend income into chronological months", func() {
		Expect(view.Dividends.ByMonth).To(HaveLen(2))
		Expect(view.Dividends.ByMonth[0].Month).To(Equal(3))
		Expect(view.Dividends.ByMonth[0].Amount).To(BeNumerically("~", 50, 1e-9))
		Expect(view.Dividends.ByMonth[1].Month).To(Equal(9))
		Expect(view.Dividends.ByMonth[1].Amount).To(BeNumerically("~", 30, 1e-9))
	})

	It("nets fee and tax charges against refunds", func() {
		Expect(view.FeesTotal).To(BeNumerically("~", 13, 1e-9))
	})
})
