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
	"context"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wealthdesk/wd-api/observability/opentelemetry"
)

// SyncStatus reports the outcome of the most recent sync cycle
func SyncStatus(c *fiber.Ctx) error {
	return c.JSON(syncService.Status())
}

// TriggerSync starts a sync cycle in the background. The response carries the
// status as of the trigger; poll SyncStatus for the result.
func TriggerSync(c *fiber.Ctx) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(context.Background(),
		"handler.TriggerSync",
		trace.WithAttributes(opentelemetry.SpanAttributesFromFiber(c)...))
	defer span.End()

	go syncService.Sync(ctx)
	return c.Status(fiber.StatusAccepted).JSON(syncService.Status())
}
