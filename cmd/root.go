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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wealthdesk/wd-api/common"
)

func init() {
	cobra.OnInitialize(initConfig)

	// Data directory
	viper.BindEnv("data.dir", "WD_DATA_DIR")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "./data", "Directory holding ledger snapshots and FX rates")
	viper.BindPFlag("data.dir", rootCmd.PersistentFlags().Lookup("data-dir"))

	// Document store sync
	viper.BindEnv("sync.url", "WD_SYNC_URL")
	rootCmd.PersistentFlags().String("sync-url", "", "Base URL of the remote document store; if blank only local files are used")
	viper.BindPFlag("sync.url", rootCmd.PersistentFlags().Lookup("sync-url"))

	viper.BindEnv("sync.interval", "WD_SYNC_INTERVAL")
	rootCmd.PersistentFlags().Int("sync-interval", 60, "Minutes between sync cycles")
	viper.BindPFlag("sync.interval", rootCmd.PersistentFlags().Lookup("sync-interval"))

	// Performance
	viper.BindEnv("performance.risk_free_rate", "WD_RISK_FREE_RATE")
	rootCmd.PersistentFlags().Float64("risk-free-rate", 0, "Yearly risk-free rate in percent, used for the Sharpe ratio")
	viper.BindPFlag("performance.risk_free_rate", rootCmd.PersistentFlags().Lookup("risk-free-rate"))

	// Cache
	viper.BindEnv("cache.redis", "WD_CACHE_REDIS")
	rootCmd.PersistentFlags().Bool("cache-redis", false, "Use redis as a second-level response cache")
	viper.BindPFlag("cache.redis", rootCmd.PersistentFlags().Lookup("cache-redis"))

	viper.BindEnv("cache.redis_url", "REDIS_URL")
	rootCmd.PersistentFlags().String("cache-redis-url", "redis://localhost:6379", "Redis connection string")
	viper.BindPFlag("cache.redis_url", rootCmd.PersistentFlags().Lookup("cache-redis-url"))

	viper.BindEnv("cache.local_size", "WD_CACHE_LOCAL_SIZE")
	rootCmd.PersistentFlags().Int("cache-local-size", 256, "Number of entries in the in-process response cache")
	viper.BindPFlag("cache.local_size", rootCmd.PersistentFlags().Lookup("cache-local-size"))

	viper.BindEnv("cache.ttl", "WD_CACHE_TTL")
	rootCmd.PersistentFlags().Int("cache-ttl", 3600, "Redis cache TTL in seconds")
	viper.BindPFlag("cache.ttl", rootCmd.PersistentFlags().Lookup("cache-ttl"))

	// Logging configuration
	viper.BindEnv("log.level", "WD_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "info", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindEnv("log.report_caller", "WD_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	viper.BindEnv("log.output", "WD_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stdout", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	rootCmd.PersistentFlags().Bool("log-pretty", false, "Print logs in human readable format")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	// OpenTelemetry
	viper.BindEnv("otlp.endpoint", "OTLP_ENDPOINT")
	rootCmd.PersistentFlags().String("otlp-endpoint", "", "OTLP trace collector endpoint; if blank traces are not exported")
	viper.BindPFlag("otlp.endpoint", rootCmd.PersistentFlags().Lookup("otlp-endpoint"))

	viper.BindEnv("otlp.http", "OTLP_HTTP")
	rootCmd.PersistentFlags().Bool("otlp-http", false, "Use HTTP(s) for the OTLP connection instead of gRPC")
	viper.BindPFlag("otlp.http", rootCmd.PersistentFlags().Lookup("otlp-http"))
}

func initConfig() {
	viper.SetConfigName("wdapi")
	viper.AddConfigPath("/etc/wdapi/")
	viper.AddConfigPath("$HOME/.wdapi")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

var rootCmd = &cobra.Command{
	Use:     "wdapi",
	Version: common.CurrentVersion.String(),
	Short:   "WealthDesk reports portfolio state and performance to advisors",
	Long: `WealthDesk turns chronological transaction ledgers into valuations,
time-weighted performance, risk metrics, asset-allocation breakdowns and
dividend/fee aggregates, served over an HTTP API.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
