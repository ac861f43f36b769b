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

package data_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wealthdesk/wd-api/data"
)

func day(year int, month time.Month, dayNum int) time.Time {
	return time.Date(year, month, dayNum, 0, 0, 0, 0, time.UTC)
}

var _ = Describe("Exchange rates", func() {
	var rates *data.RateTable

	BeforeEach(func() {
		rates = data.NewRateTable()
		rates.Add("USD", "EUR", day(2025, 1, 2), 0.9)
		rates.Add("USD", "EUR", day(2025, 1, 10), 0.95)
		rates.Finalize()
	})

	It("returns the last rate on or before the date", func() {
		rate, err := rates.Rate("USD", "EUR", day(2025, 1, 5))
		Expect(err).To(BeNil())
		Expect(rate).To(Equal(0.9))

		rate, err = rates.Rate("USD", "EUR", day(2025, 2, 1))
		Expect(err).To(BeNil())
		Expect(rate).To(Equal(0.95))
	})

	It("fails closed before the first observation", func() {
		_, err := rates.Rate("USD", "EUR", day(2024, 12, 1))
		Expect(err).To(MatchError(data.ErrNoFXRate))
	})

	It("fails closed for unknown pairs", func() {
		_, err := rates.Rate("GBP", "EUR", day(2025, 1, 5))
		Expect(err).To(MatchError(data.ErrNoFXRate))
	})

	It("derives the inverse pair automatically", func() {
		rate, err := rates.Rate("EUR", "USD", day(2025, 1, 5))
		Expect(err).To(BeNil())
		Expect(rate).To(BeNumerically("~", 1/0.9, 1e-9))
	})

	It("converts same-currency amounts at parity", func() {
		amount, err := rates.Convert(100, "EUR", "EUR", day(2025, 1, 5))
		Expect(err).To(BeNil())
		Expect(amount).To(Equal(100.0))
	})

	It("converts amounts at the dated rate", func() {
		amount, err := rates.Convert(100, "USD", "EUR", day(2025, 1, 12))
		Expect(err).To(BeNil())
		Expect(amount).To(BeNumerically("~", 95, 1e-9))
	})

	Context("loading from disk", func() {
		It("reads the rates file", func() {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, "fx.json")
			Expect(os.WriteFile(path, []byte(`{
				"rates": [{
					"from": "USD", "to": "EUR",
					"data": [{"date": "2025-01-02T00:00:00Z", "rate": 0.9}]
				}]
			}`), 0o644)).To(Succeed())

			loaded, err := data.LoadRateTable(path)
			Expect(err).To(BeNil())
			rate, err := loaded.Rate("USD", "EUR", day(2025, 1, 5))
			Expect(err).To(BeNil())
			Expect(rate).To(Equal(0.9))
		})

		It("returns an empty table when the file is absent", func() {
			loaded, err := data.LoadRateTable(filepath.Join(GinkgoT().TempDir(), "missing.json"))
			Expect(err).To(BeNil())
			_, err = loaded.Rate("USD", "EUR", day(2025, 1, 5))
			Expect(err).To(MatchError(data.ErrNoFXRate))
		})
	})
})

var _ = Describe("Price series", func() {
	var prices data.PriceSeries

	BeforeEach(func() {
		prices = data.PriceSeries{
			{Date: day(2025, 1, 2), Close: 100},
			{Date: day(2025, 1, 10), Close: 110},
			{Date: day(2025, 1, 20), Close: 105},
		}
	})

	It("returns the price on a quoted date", func() {
		price, err := prices.On(day(2025, 1, 10))
		Expect(err).To(BeNil())
		Expect(price).To(Equal(110.0))
	})

	It("falls back to the last known price", func() {
		price, err := prices.On(day(2025, 1, 15))
		Expect(err).To(BeNil())
		Expect(price).To(Equal(110.0))
	})

	It("reports missing prices before the first quote", func() {
		_, err := prices.On(day(2024, 12, 1))
		Expect(err).To(MatchError(data.ErrNoPrice))
	})

	It("exposes the first and latest observations", func() {
		first, ok := prices.First()
		Expect(ok).To(BeTrue())
		Expect(first.Close).To(Equal(100.0))

		latest, ok := prices.Latest()
		Expect(ok).To(BeTrue())
		Expect(latest.Close).To(Equal(105.0))
	})
})
