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
	"github.com/rs/zerolog"
)

func (view *ClientView) MarshalZerologObject(e *zerolog.Event) {
	e.Str("ClientName", view.ClientName).
		Str("Filename", view.Filename).
		Str("BaseCurrency", view.BaseCurrency).
		Float64("TotalValue", view.TotalValue).
		Float64("TotalInvested", view.TotalInvested).
		Int("NumHoldings", len(view.Holdings)).
		Int("NumTransactions", len(view.AllTransactions)).
		Int("NumValuePoints", len(view.ValueHistory)).
		Str("Status", view.Status).
		Bool("Incomplete", view.Incomplete)
	if view.Performance != nil {
		e.Object("Performance", view.Performance)
	}
}

func (metrics *PerformanceMetrics) MarshalZerologObject(e *zerolog.Event) {
	e.Float64("TTWROR", metrics.TTWROR).
		Float64("AnnualReturn", metrics.AnnualReturn).
		Float64("YTDReturn", metrics.YTDReturn).
		Float64("Volatility", metrics.Volatility).
		Float64("SharpeRatio", metrics.SharpeRatio).
		Float64("MaxDrawdown", metrics.MaxDrawdown)
}

func (holding *Holding) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Security", holding.Security.Name).
		Float64("Shares", holding.Shares).
		Float64("CurrentValue", holding.CurrentValue).
		Float64("Invested", holding.Invested).
		Str("Category", holding.Category).
		Bool("Stale", holding.Stale)
}
