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

package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/wealthdesk/wd-api/data"
)

var (
	ErrNotALedger     = errors.New("file is not a valid ledger snapshot")
	ErrNoBaseCurrency = errors.New("ledger has no base currency")
)

const (
	// DefaultCategory is assigned to securities without a classification
	DefaultCategory      = "Other"
	DefaultCategoryColor = "#666666"
)

// Security is a master-data record referenced (not owned) by transactions and
// holdings. Prices are date-ascending after decode.
type Security struct {
	ID       string           `json:"id"`
	ISIN     string           `json:"isin"`
	Name     string           `json:"name"`
	Ticker   string           `json:"ticker,omitempty"`
	Currency string           `json:"currency"`
	Category string           `json:"category,omitempty"`
	Color    string           `json:"color,omitempty"`
	Prices   data.PriceSeries `json:"prices"`
}

// LatestPrice returns the most recent closing price and its date
func (s *Security) LatestPrice() (float64, bool) {
	pt, ok := s.Prices.Latest()
	if !ok {
		return 0, false
	}
	return pt.Close, true
}

// Account holds cash in a single currency. Its balance is always derived by
// replaying cash-affecting transactions, never stored.
type Account struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// Client is the complete, immutable ledger snapshot for one client file. All
// downstream computation operates on this snapshot; nothing mutates it.
type Client struct {
	Filename     string
	Name         string         `json:"name"`
	BaseCurrency string         `json:"base_currency"`
	Securities   []*Security    `json:"securities"`
	Accounts     []*Account     `json:"accounts"`
	Transactions []*Transaction `json:"transactions"`

	securityByID map[string]*Security
}

// SecurityByID resolves a security reference; ok is false for unknown IDs
func (c *Client) SecurityByID(id string) (*Security, bool) {
	s, ok := c.securityByID[id]
	return s, ok
}

// Decode parses raw ledger-snapshot bytes into a Client. Transactions are
// sorted chronologically (stable, so same-day events keep file order) and
// given deterministic source IDs. A structurally unparseable ledger is fatal
// for this client's recompute but never for the service.
func Decode(filename string, raw []byte) (*Client, error) {
	client := &Client{}
	if err := json.Unmarshal(raw, client); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotALedger, err)
	}

	if client.BaseCurrency == "" {
		return nil, ErrNoBaseCurrency
	}

	client.Filename = filename
	if client.Name == "" {
		client.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}

	client.securityByID = make(map[string]*Security, len(client.Securities))
	for _, sec := range client.Securities {
		sec.Prices.Sort()
		if sec.Category == "" {
			sec.Category = DefaultCategory
		}
		if sec.Color == "" {
			sec.Color = DefaultCategoryColor
		}
		client.securityByID[sec.ID] = sec
	}

	sort.SliceStable(client.Transactions, func(i, j int) bool {
		return client.Transactions[i].Date.Before(client.Transactions[j].Date)
	})

	for _, trx := range client.Transactions {
		if trx.Currency == "" {
			trx.Currency = client.BaseCurrency
		}
		if trx.SecurityName == "" && trx.SecurityID != "" {
			if sec, ok := client.securityByID[trx.SecurityID]; ok {
				trx.SecurityName = sec.Name
			}
		}
		trx.ComputeSourceID()
	}

	log.Debug().
		Str("Filename", filename).
		Int("Securities", len(client.Securities)).
		Int("Accounts", len(client.Accounts)).
		Int("Transactions", len(client.Transactions)).
		Msg("decoded ledger snapshot")

	return client, nil
}

// Load reads and decodes a ledger snapshot file from disk
func Load(path string) (*Client, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(filepath.Base(path), raw)
}
