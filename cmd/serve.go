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

package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wealthdesk/wd-api/common"
	"github.com/wealthdesk/wd-api/handler"
	"github.com/wealthdesk/wd-api/ledger"
	"github.com/wealthdesk/wd-api/middleware"
	"github.com/wealthdesk/wd-api/observability/opentelemetry"
	"github.com/wealthdesk/wd-api/router"
	"github.com/wealthdesk/wd-api/store"
	"github.com/wealthdesk/wd-api/syncer"
)

func init() {
	viper.BindEnv("server.port", "PORT")
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	viper.BindEnv("server.cors_origins", "WD_CORS_ORIGINS")
	serveCmd.Flags().String("cors-origins", "*", "Comma-separated list of allowed CORS origins")
	viper.BindPFlag("server.cors_origins", serveCmd.Flags().Lookup("cors-origins"))

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the wd-api server",
	Long:  `Run HTTP server that serves computed portfolio views`,
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		common.SetupCache()
		log.Info().Msg("initialized logging")

		if err := ledger.ValidateEffectsTable(); err != nil {
			log.Fatal().Err(err).Msg("transaction effects table is incomplete")
		}

		if viper.GetString("otlp.endpoint") != "" {
			shutdownTracer, err := opentelemetry.Setup()
			if err != nil {
				log.Fatal().Err(err).Msg("could not initialize tracing")
			}
			defer func() {
				if err := shutdownTracer(context.Background()); err != nil {
					log.Error().Err(err).Msg("tracer shutdown reported an error")
				}
			}()
		}

		viewStore := store.New()
		syncService := syncer.New(viewStore)
		handler.Setup(viewStore, syncService)

		app := fiber.New()

		// shutdown cleanly on interrupt
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		go func() {
			sig := <-c // block until signal is read
			log.Info().Str("Signal", sig.String()).Msg("received signal; shutting down")
			if err := app.Shutdown(); err != nil {
				log.Fatal().Err(err).Msg("error during shutdown")
			}
		}()

		app.Use(cors.New(cors.Config{
			AllowOrigins: viper.GetString("server.cors_origins"),
			AllowHeaders: "*",
			AllowMethods: "GET,POST,HEAD",
		}))
		app.Use(middleware.NewLogger())

		router.SetupRoutes(app)

		// initial sync plus the periodic schedule
		stopSchedule := syncService.Schedule()
		defer stopSchedule()

		if err := app.Listen(":" + viper.GetString("server.port")); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	},
}
