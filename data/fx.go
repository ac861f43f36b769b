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

package data

import (
	"errors"
	"os"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoFXRate = errors.New("no exchange rate available for currency pair")
)

// RatePoint is one exchange-rate observation for a currency pair
type RatePoint struct {
	Date time.Time `json:"date"`
	Rate float64   `json:"rate"`
}

type ratePair struct {
	from string
	to   string
}

// RateTable holds historical exchange rates. It is built once before a
// computation run begins and is read-only afterwards; a rate update mid-run is
// never observed partially.
type RateTable struct {
	rates map[ratePair][]RatePoint
}

// NewRateTable creates an empty rate table
func NewRateTable() *RateTable {
	return &RateTable{
		rates: make(map[ratePair][]RatePoint),
	}
}

// Add appends an observation for the from→to pair. The inverse rate is derived
// automatically so a table only needs one direction per pair.
func (rt *RateTable) Add(from string, to string, date time.Time, rate float64) {
	if rate <= 0 {
		log.Warn().Str("From", from).Str("To", to).Float64("Rate", rate).Msg("ignoring non-positive exchange rate")
		return
	}
	rt.rates[ratePair{from, to}] = append(rt.rates[ratePair{from, to}], RatePoint{Date: date, Rate: rate})
	rt.rates[ratePair{to, from}] = append(rt.rates[ratePair{to, from}], RatePoint{Date: date, Rate: 1.0 / rate})
}

// Finalize sorts all rate series by date; must be called after the last Add
// and before the first Rate lookup.
func (rt *RateTable) Finalize() {
	for _, series := range rt.rates {
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].Date.Before(series[j].Date)
		})
	}
}

// Rate returns the most recent rate for from→to on or before date. A missing
// rate is an error: conversion fails closed, it is never silently treated as
// 1:1 (except for identical currencies).
func (rt *RateTable) Rate(from string, to string, date time.Time) (float64, error) {
	if from == to || from == "" || to == "" {
		return 1.0, nil
	}

	series, ok := rt.rates[ratePair{from, to}]
	if !ok {
		return 0, ErrNoFXRate
	}

	idx := sort.Search(len(series), func(i int) bool {
		return series[i].Date.After(date)
	})
	if idx == 0 {
		return 0, ErrNoFXRate
	}
	return series[idx-1].Rate, nil
}

// Convert converts an amount of the from currency into the to currency at the
// most recent rate on or before date.
func (rt *RateTable) Convert(amount float64, from string, to string, date time.Time) (float64, error) {
	rate, err := rt.Rate(from, to, date)
	if err != nil {
		return 0, err
	}
	return amount * rate, nil
}

type fxFile struct {
	Rates []struct {
		From string      `json:"from"`
		To   string      `json:"to"`
		Data []RatePoint `json:"data"`
	} `json:"rates"`
}

// LoadRateTable reads exchange rates from the given JSON file. A missing file
// is not an error; single-currency books never need rates.
func LoadRateTable(path string) (*RateTable, error) {
	rt := NewRateTable()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("Path", path).Msg("no exchange rate file; conversions limited to base currency")
			return rt, nil
		}
		return nil, err
	}

	var parsed fxFile
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, err
	}

	for _, pair := range parsed.Rates {
		for _, pt := range pair.Data {
			rt.Add(pair.From, pair.To, pt.Date, pt.Rate)
		}
	}
	rt.Finalize()

	log.Info().Int("Pairs", len(parsed.Rates)).Str("Path", path).Msg("loaded exchange rates")
	return rt, nil
}
