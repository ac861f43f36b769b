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

package handler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/wealthdesk/wd-api/common"
	"github.com/wealthdesk/wd-api/handler"
	"github.com/wealthdesk/wd-api/ledger"
	"github.com/wealthdesk/wd-api/portfolio"
	"github.com/wealthdesk/wd-api/router"
	"github.com/wealthdesk/wd-api/store"
	"github.com/wealthdesk/wd-api/syncer"
)

var _ = Describe("API routes", func() {
	var app *fiber.App
	var viewStore *store.Store

	doRequest := func(method, target string) (*http.Response, []byte) {
		resp, err := app.Test(httptest.NewRequest(method, target, nil))
		Expect(err).To(BeNil())
		body, err := io.ReadAll(resp.Body)
		Expect(err).To(BeNil())
		return resp, body
	}

	BeforeEach(func() {
		viper.Set("data.dir", GinkgoT().TempDir())
		viper.Set("sync.url", "")
		viper.Set("cache.local_size", 64)
		common.SetupCache()

		day := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
		view := &portfolio.ClientView{
			ClientName:   "Jane",
			Filename:     "jane.ledger",
			BaseCurrency: "EUR",
			TotalValue:   1200,
			Status:       portfolio.StatusOK,
			AllTransactions: []*portfolio.TransactionView{
				{Date: day.AddDate(0, 0, 2), Kind: ledger.SaleTransaction, Amount: 300, Currency: "EUR", Note: "third"},
				{Date: day.AddDate(0, 0, 1), Kind: ledger.PurchaseTransaction, Amount: 500, Currency: "EUR", Note: "second"},
				{Date: day, Kind: ledger.DepositTransaction, Amount: 1000, Currency: "EUR", Note: "first"},
			},
			ComputedOn: time.Now().UTC(),
		}

		viewStore = store.New()
		generation := viewStore.Bump()
		Expect(viewStore.Publish(generation, view)).To(BeTrue())

		handler.Setup(viewStore, syncer.New(viewStore))
		app = fiber.New()
		router.SetupRoutes(app)
	})

	It("answers the ping", func() {
		resp, body := doRequest("GET", "/v1/")
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var ping handler.PingResponse
		Expect(json.Unmarshal(body, &ping)).To(Succeed())
		Expect(ping.Status).To(Equal("success"))
	})

	It("lists client summaries without transaction lists", func() {
		resp, body := doRequest("GET", "/v1/clients/")
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var clients []map[string]any
		Expect(json.Unmarshal(body, &clients)).To(Succeed())
		Expect(clients).To(HaveLen(1))
		Expect(clients[0]["client_name"]).To(Equal("Jane"))
		Expect(clients[0]).ToNot(HaveKey("all_transactions"))
	})

	It("serves the full client view", func() {
		resp, body := doRequest("GET", "/v1/clients/jane.ledger")
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var view map[string]any
		Expect(json.Unmarshal(body, &view)).To(Succeed())
		Expect(view["client_name"]).To(Equal("Jane"))
		Expect(view["total_value"]).To(BeNumerically("==", 1200))
		Expect(view["all_transactions"]).To(HaveLen(3))
	})

	It("returns 404 for an unknown client", func() {
		resp, _ := doRequest("GET", "/v1/clients/nobody.ledger")
		Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
	})

	It("pages the transaction history", func() {
		resp, body := doRequest("GET", "/v1/clients/jane.ledger/transactions?offset=1&limit=1")
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var trxs []map[string]any
		Expect(json.Unmarshal(body, &trxs)).To(Succeed())
		Expect(trxs).To(HaveLen(1))
		Expect(trxs[0]["note"]).To(Equal("second"))
	})

	It("clamps paging past the end of the history", func() {
		resp, body := doRequest("GET", "/v1/clients/jane.ledger/transactions?offset=10")
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var trxs []map[string]any
		Expect(json.Unmarshal(body, &trxs)).To(Succeed())
		Expect(trxs).To(BeEmpty())
	})

	It("serves the aggregate overview", func() {
		resp, body := doRequest("GET", "/v1/overview")
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var overview map[string]any
		Expect(json.Unmarshal(body, &overview)).To(Succeed())
		Expect(overview["num_clients"]).To(BeNumerically("==", 1))
	})

	It("reports the sync status", func() {
		resp, body := doRequest("GET", "/v1/sync/status")
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var status map[string]any
		Expect(json.Unmarshal(body, &status)).To(Succeed())
		Expect(status["running"]).To(Equal(false))
	})
})
