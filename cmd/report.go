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
	"fmt"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wealthdesk/wd-api/common"
	"github.com/wealthdesk/wd-api/data"
	"github.com/wealthdesk/wd-api/ledger"
	"github.com/wealthdesk/wd-api/portfolio"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report <ledger-file>",
	Short: "Compute a single client view and print it as JSON",
	Long: `Load one ledger snapshot, compute valuations, performance and
aggregates, and print the resulting view to stdout.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()

		if err := ledger.ValidateEffectsTable(); err != nil {
			log.Fatal().Err(err).Msg("transaction effects table is incomplete")
		}

		client, err := ledger.Load(args[0])
		if err != nil {
			log.Fatal().Err(err).Str("Filename", args[0]).Msg("could not load ledger")
		}

		fxPath := filepath.Join(viper.GetString("data.dir"), "fx.json")
		rates, err := data.LoadRateTable(fxPath)
		if err != nil {
			log.Error().Err(err).Str("Path", fxPath).Msg("cannot load FX rates, conversions will fail closed")
			rates = data.NewRateTable()
		}

		view := portfolio.Compute(context.Background(), client, rates)
		raw, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("could not serialize view")
		}
		fmt.Println(string(raw))
	},
}
