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

package ledger_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wealthdesk/wd-api/ledger"
)

var _ = Describe("Ledger decoding", func() {
	Context("with a complete snapshot", func() {
		var client *ledger.Client

		BeforeEach(func() {
			var err error
			client, err = ledger.Decode("jane.ledger", []byte(`{
				"name": "Jane Example",
				"base_currency": "EUR",
				"securities": [{
					"id": "sec1", "isin": "DE0001", "name": "Alpha Fund", "currency": "EUR",
					"prices": [
						{"date": "2025-01-30T00:00:00Z", "close": 120},
						{"date": "2025-01-02T00:00:00Z", "close": 100}
					]
				}],
				"accounts": [{"id": "acct1", "name": "Brokerage", "currency": "EUR"}],
				"transactions": [
					{"date": "2025-01-05T00:00:00Z", "kind": "SALE", "amount": 500,
					 "currency": "EUR", "shares": 5, "security": "sec1", "account": "acct1"},
					{"date": "2025-01-02T00:00:00Z", "kind": "PURCHASE", "amount": 1000,
					 "shares": 10, "security": "sec1", "account": "acct1"}
				]
			}`))
			Expect(err).To(BeNil())
		})

		It("sorts prices by date", func() {
			sec, ok := client.SecurityByID("sec1")
			Expect(ok).To(BeTrue())
			Expect(sec.Prices[0].Close).To(Equal(100.0))
			Expect(sec.Prices[1].Close).To(Equal(120.0))
		})

		It("sorts transactions chronologically", func() {
			Expect(client.Transactions[0].Kind).To(Equal(ledger.PurchaseTransaction))
			Expect(client.Transactions[1].Kind).To(Equal(ledger.SaleTransaction))
		})

		It("defaults missing currencies to the base currency", func() {
			Expect(client.Transactions[0].Currency).To(Equal("EUR"))
		})

		It("fills in the security name on transactions", func() {
			Expect(client.Transactions[0].SecurityName).To(Equal("Alpha Fund"))
		})

		It("defaults the security category and color", func() {
			sec, _ := client.SecurityByID("sec1")
			Expect(sec.Category).To(Equal(ledger.DefaultCategory))
			Expect(sec.Color).To(Equal(ledger.DefaultCategoryColor))
		})

		It("assigns deterministic source ids", func() {
			Expect(client.Transactions[0].SourceID).ToNot(BeEmpty())

			again, err := ledger.Decode("jane.ledger", []byte(`{
				"base_currency": "EUR",
				"transactions": [
					{"date": "2025-01-02T00:00:00Z", "kind": "PURCHASE", "amount": 1000,
					 "shares": 10, "security": "sec1", "account": "acct1"}
				]
			}`))
			Expect(err).To(BeNil())
			Expect(again.Transactions[0].SourceID).To(Equal(client.Transactions[0].SourceID))
		})
	})

	Context("with defective input", func() {
		It("rejects bytes that are not a ledger", func() {
			_, err := ledger.Decode("bad.ledger", []byte("not json at all"))
			Expect(err).To(MatchError(ledger.ErrNotALedger))
		})

		It("rejects a ledger without a base currency", func() {
			_, err := ledger.Decode("bad.ledger", []byte(`{"name": "No Base"}`))
			Expect(err).To(MatchError(ledger.ErrNoBaseCurrency))
		})
	})

	Context("client naming", func() {
		It("derives the name from the filename when absent", func() {
			client, err := ledger.Decode("smith-family.ledger", []byte(`{"base_currency": "EUR"}`))
			Expect(err).To(BeNil())
			Expect(client.Name).To(Equal("smith-family"))
			Expect(client.Filename).To(Equal("smith-family.ledger"))
		})
	})
})

var _ = Describe("Transaction effects", func() {
	It("covers every declared kind", func() {
		Expect(ledger.ValidateEffectsTable()).To(BeNil())
	})

	It("rejects unknown kinds", func() {
		_, err := ledger.EffectOf("LOTTERY_WIN")
		Expect(err).To(MatchError(ledger.ErrUnknownTransactionKind))
	})

	DescribeTable("signed external flows",
		func(kind ledger.TransactionKind, amount float64, expected float64) {
			trx := &ledger.Transaction{Kind: kind, Amount: amount}
			Expect(trx.SignedFlow()).To(Equal(expected))
		},
		Entry("deposit flows in", ledger.DepositTransaction, 100.0, 100.0),
		Entry("removal flows out", ledger.RemovalTransaction, 100.0, -100.0),
		Entry("inbound delivery flows in at market value", ledger.InboundDeliveryTransaction, 250.0, 250.0),
		Entry("outbound delivery flows out", ledger.OutboundDeliveryTransaction, 250.0, -250.0),
		Entry("purchases are internal", ledger.PurchaseTransaction, 100.0, 0.0),
		Entry("dividends are internal", ledger.DividendTransaction, 100.0, 0.0),
		Entry("cash transfers are internal", ledger.CashTransferTransaction, 100.0, 0.0),
	)
})
