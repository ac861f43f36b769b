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
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// ttwror computes the time-weighted rate of return over the value series as a
// fraction. The series is partitioned at external cash-flow dates: a flow
// dated d belongs to the sub-period (p0.Date, p1.Date] and is treated as
// arriving at the start of that sub-period, so
//
//	r_i = V1 / (V0 + CF) - 1
//
// and the sub-period returns link geometrically. Flows on or before the first
// point are initial capital, already part of its value.
func ttwror(history []ValuePoint, flows []Flow) float64 {
	if len(history) < 2 {
		return 0
	}

	linked := 1.0
	for idx := 1; idx < len(history); idx++ {
		prev := history[idx-1]
		cur := history[idx]

		var cf float64
		for _, flow := range flows {
			if flow.Date.After(prev.Date) && !flow.Date.After(cur.Date) {
				cf += flow.Amount
			}
		}

		denom := prev.Value + cf
		if math.Abs(denom) < 1e-9 {
			continue
		}
		linked *= cur.Value / denom
	}
	return linked - 1
}

// windowReturn computes TTWROR from the given start date to the end of the
// history. The anchor is the last value point on or before start; when the
// window reaches past the beginning of the history, the earliest point is
// used instead, never widening the implied return.
func windowReturn(history []ValuePoint, flows []Flow, start time.Time) float64 {
	anchor := 0
	for idx, pt := range history {
		if pt.Date.After(start) {
			break
		}
		anchor = idx
	}
	return ttwror(history[anchor:], flows)
}

// monthlyReturns computes an independent TTWROR for every calendar month in
// the history span, boundary to boundary: each month's return runs from the
// last value point of the prior month to the last value point of the month.
// Months without valuation points report 0 so the series has no gaps, and the
// shared anchors make the per-month returns link to the full-span TTWROR.
func monthlyReturns(history []ValuePoint, flows []Flow) []MonthlyReturn {
	if len(history) == 0 {
		return nil
	}

	first := history[0].Date
	last := history[len(history)-1].Date

	var months []MonthlyReturn
	anchor := 0
	cursor := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(last) {
		monthEnd := cursor.AddDate(0, 1, 0)

		// last point inside this month; absent one, the anchor stands still
		end := anchor
		for idx := anchor; idx < len(history) && history[idx].Date.Before(monthEnd); idx++ {
			end = idx
		}

		months = append(months, MonthlyReturn{
			Year:      cursor.Year(),
			Month:     int(cursor.Month()),
			ReturnPct: ttwror(history[anchor:end+1], flows) * 100,
		})

		anchor = end
		cursor = monthEnd
	}
	return months
}

// annualize compounds a total return over spanDays to a yearly rate. Spans
// under one day cannot be annualized and return the total unadjusted.
func annualize(total float64, spanDays float64) float64 {
	if spanDays < 1 {
		return total
	}
	return math.Pow(1+total, 365/spanDays) - 1
}

// maxDrawdown scans the history for the largest peak-to-trough decline,
// returning it as a positive fraction with the peak and trough dates. The
// global maximum drop wins, not the first or longest one.
func maxDrawdown(history []ValuePoint) (float64, time.Time, time.Time) {
	var worst float64
	var worstPeak, worstTrough time.Time

	var peak ValuePoint
	for idx, pt := range history {
		if idx == 0 || pt.Value > peak.Value {
			peak = pt
			continue
		}
		if peak.Value <= 0 {
			continue
		}
		if dd := (peak.Value - pt.Value) / peak.Value; dd > worst {
			worst = dd
			worstPeak = peak.Date
			worstTrough = pt.Date
		}
	}
	return worst, worstPeak, worstTrough
}

// ComputeMetrics derives the full performance block from a value history and
// its external cash flows. All returned figures are percentages; the
// risk-free rate argument is a yearly percentage.
func ComputeMetrics(history []ValuePoint, flows []Flow, riskFreePct float64) (*PerformanceMetrics, []MonthlyReturn) {
	metrics := &PerformanceMetrics{}
	months := monthlyReturns(history, flows)
	if len(history) < 2 {
		return metrics, months
	}

	first := history[0].Date
	last := history[len(history)-1].Date

	total := ttwror(history, flows)
	metrics.TTWROR = total * 100
	metrics.AnnualReturn = annualize(total, last.Sub(first).Hours()/24) * 100

	yearStart := time.Date(last.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	metrics.YTDReturn = windowReturn(history, flows, yearStart) * 100
	metrics.Return1Y = windowReturn(history, flows, last.AddDate(-1, 0, 0)) * 100
	metrics.Return3Y = windowReturn(history, flows, last.AddDate(-3, 0, 0)) * 100
	metrics.Return5Y = windowReturn(history, flows, last.AddDate(-5, 0, 0)) * 100

	if len(months) >= 2 {
		series := make([]float64, len(months))
		for idx, month := range months {
			series[idx] = month.ReturnPct / 100
		}
		metrics.Volatility = stat.StdDev(series, nil) * math.Sqrt(12) * 100
	}
	if metrics.Volatility > 0 {
		metrics.SharpeRatio = (metrics.AnnualReturn - riskFreePct) / metrics.Volatility
	}

	dd, peak, trough := maxDrawdown(history)
	metrics.MaxDrawdown = dd * 100
	if dd > 0 {
		metrics.MaxDrawdownStart = peak.Format("2006-01-02")
		metrics.MaxDrawdownEnd = trough.Format("2006-01-02")
	}

	return metrics, months
}
