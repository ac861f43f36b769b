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

package handler

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/wealthdesk/wd-api/common"
)

// respondCached serializes the result of build and serves it, keeping the
// compressed bytes in the response cache. Keys carry the store generation,
// so a resync naturally invalidates every cached response.
func respondCached(c *fiber.Ctx, key string, build func() (any, error)) error {
	key = fmt.Sprintf("%s:gen%d", key, viewStore.Generation())
	if cached, err := common.CacheGet(key); err == nil {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		return c.Send(cached)
	}

	result, err := build()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(result)
	if err != nil {
		log.Error().Err(err).Str("Key", key).Msg("could not serialize response")
		return fiber.ErrInternalServerError
	}
	if err := common.CacheSet(key, raw); err != nil {
		log.Warn().Err(err).Str("Key", key).Msg("could not cache response")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(raw)
}

// Overview serves the aggregate multi-client book summary
func Overview(c *fiber.Ctx) error {
	return respondCached(c, "overview", func() (any, error) {
		return viewStore.Overview(), nil
	})
}

// ListClients serves every published client view without the full
// transaction lists
func ListClients(c *fiber.Ctx) error {
	return respondCached(c, "clients", func() (any, error) {
		return viewStore.Clients(), nil
	})
}

// GetClient serves the complete view for one ledger file
func GetClient(c *fiber.Ctx) error {
	filename := c.Params("file")
	return respondCached(c, "client:"+filename, func() (any, error) {
		view, ok := viewStore.Client(filename)
		if !ok {
			return nil, fiber.ErrNotFound
		}
		return view, nil
	})
}

// GetClientTransactions serves a client's transaction history, newest first.
// Optional limit and offset query parameters page through the list.
func GetClientTransactions(c *fiber.Ctx) error {
	filename := c.Params("file")
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 0)

	key := fmt.Sprintf("transactions:%s:%d:%d", filename, offset, limit)
	return respondCached(c, key, func() (any, error) {
		view, ok := viewStore.Client(filename)
		if !ok {
			return nil, fiber.ErrNotFound
		}

		trxs := view.AllTransactions
		if offset > 0 {
			if offset > len(trxs) {
				offset = len(trxs)
			}
			trxs = trxs[offset:]
		}
		if limit > 0 && limit < len(trxs) {
			trxs = trxs[:limit]
		}
		return trxs, nil
	})
}
