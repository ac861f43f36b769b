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

// Package syncer keeps the local data directory in step with a remote
// document store and recomputes client views whenever the ledgers change.
package syncer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/wealthdesk/wd-api/data"
	"github.com/wealthdesk/wd-api/ledger"
	"github.com/wealthdesk/wd-api/observability/opentelemetry"
	"github.com/wealthdesk/wd-api/portfolio"
	"github.com/wealthdesk/wd-api/store"
)

const (
	ledgerExt   = ".ledger"
	fxRatesFile = "fx.json"
)

// Status reports the outcome of the most recent sync cycle
type Status struct {
	SyncID          string    `json:"sync_id,omitempty"`
	Running         bool      `json:"running"`
	LastSync        time.Time `json:"last_sync"`
	LastError       string    `json:"last_error,omitempty"`
	FilesDownloaded int       `json:"files_downloaded"`
	ClientsLoaded   int       `json:"clients_loaded"`
	ClientsFailed   int       `json:"clients_failed"`
}

// Service downloads ledger files from the document store on a schedule and
// rebuilds the published views from whatever is on disk afterwards. A sync
// bumps the store generation first, so computations from the previous data
// set can no longer publish.
type Service struct {
	store     *store.Store
	dataDir   string
	docs      *DocClient
	scheduler *gocron.Scheduler

	mu     sync.Mutex
	status Status
}

// New builds the sync service. The document client is nil when no remote
// store is configured; Sync then recomputes from the local directory only.
func New(viewStore *store.Store) *Service {
	svc := &Service{
		store:   viewStore,
		dataDir: viper.GetString("data.dir"),
	}
	if baseURL := viper.GetString("sync.url"); baseURL != "" {
		svc.docs = NewDocClient(baseURL)
	}
	return svc
}

// Status returns a copy of the latest sync outcome
func (svc *Service) Status() Status {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.status
}

// Schedule runs Sync immediately and then every sync.interval minutes until
// the returned stop function is called.
func (svc *Service) Schedule() func() {
	svc.scheduler = gocron.NewScheduler(time.UTC)

	interval := viper.GetInt("sync.interval")
	if interval < 1 {
		interval = 60
	}

	if _, err := svc.scheduler.Every(interval).Minutes().Do(func() {
		svc.Sync(context.Background())
	}); err != nil {
		log.Error().Err(err).Msg("could not schedule sync job")
	}

	svc.scheduler.StartAsync()
	svc.Sync(context.Background())

	return func() {
		svc.scheduler.Stop()
	}
}

// Sync pulls changed documents from the remote store, then rebuilds every
// client view from the data directory. Only one sync runs at a time; a
// trigger during a running sync is refused.
func (svc *Service) Sync(ctx context.Context) Status {
	svc.mu.Lock()
	if svc.status.Running {
		svc.mu.Unlock()
		return svc.status
	}
	svc.status.Running = true
	svc.mu.Unlock()

	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "syncer.Sync")
	defer span.End()

	next := Status{SyncID: uuid.NewString(), LastSync: time.Now().UTC()}
	if svc.docs != nil {
		downloaded, err := svc.pull(ctx)
		next.FilesDownloaded = downloaded
		if err != nil {
			log.Error().Err(err).Msg("document sync failed, recomputing from local files")
			next.LastError = err.Error()
		}
	}

	loaded, failed := svc.Refresh(ctx)
	next.ClientsLoaded = loaded
	next.ClientsFailed = failed

	svc.mu.Lock()
	svc.status = next
	svc.mu.Unlock()

	log.Info().Str("SyncID", next.SyncID).
		Int("FilesDownloaded", next.FilesDownloaded).
		Int("ClientsLoaded", loaded).Int("ClientsFailed", failed).
		Msg("sync cycle finished")
	return next
}

// pull diffs the remote index against the local manifest and downloads what
// changed. Local ledger files absent from the index are removed; they no
// longer exist upstream.
func (svc *Service) pull(ctx context.Context) (int, error) {
	index, err := svc.docs.FetchIndex(ctx)
	if err != nil {
		return 0, err
	}

	m := loadManifest(svc.dataDir)
	remote := make(map[string]struct{}, len(index))
	downloaded := 0

	for _, file := range index {
		remote[file.Name] = struct{}{}
		if m[file.Name] == file.ETag && file.ETag != "" {
			continue
		}

		raw, err := svc.docs.Download(ctx, file.Name)
		if err != nil {
			log.Error().Err(err).Str("Name", file.Name).Msg("download failed")
			continue
		}
		if err := os.WriteFile(filepath.Join(svc.dataDir, file.Name), raw, 0o644); err != nil {
			log.Error().Err(err).Str("Name", file.Name).Msg("could not write document")
			continue
		}
		m[file.Name] = file.ETag
		downloaded++
	}

	for _, name := range svc.localLedgers() {
		if _, ok := remote[name]; !ok {
			log.Info().Str("Name", name).Msg("removing ledger no longer in document store")
			if err := os.Remove(filepath.Join(svc.dataDir, name)); err != nil {
				log.Error().Err(err).Str("Name", name).Msg("could not remove stale ledger")
			}
			delete(m, name)
			svc.store.Remove(name)
		}
	}

	if err := m.save(svc.dataDir); err != nil {
		log.Error().Err(err).Msg("could not persist sync manifest")
	}
	return downloaded, nil
}

func (svc *Service) localLedgers() []string {
	entries, err := os.ReadDir(svc.dataDir)
	if err != nil {
		log.Error().Err(err).Str("Dir", svc.dataDir).Msg("cannot read data directory")
		return nil
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ledgerExt) {
			names = append(names, entry.Name())
		}
	}
	return names
}

// Refresh rebuilds every client view from the ledger files on disk. The
// store generation is bumped first so that computations belonging to the
// previous data set are discarded rather than merged.
func (svc *Service) Refresh(ctx context.Context) (loaded int, failed int) {
	generation := svc.store.Bump()

	rates, err := data.LoadRateTable(filepath.Join(svc.dataDir, fxRatesFile))
	if err != nil {
		log.Error().Err(err).Msg("cannot load FX rates, conversions will fail closed")
		rates = data.NewRateTable()
	}

	names := svc.localLedgers()
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()

			client, err := ledger.Load(filepath.Join(svc.dataDir, name))
			if err != nil {
				log.Error().Err(err).Str("Filename", name).Msg("ledger failed to load")
				svc.store.PublishError(generation, name, err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}

			view := portfolio.Compute(ctx, client, rates)
			if svc.store.Publish(generation, view) {
				mu.Lock()
				loaded++
				mu.Unlock()
			}
		}(name)
	}
	wg.Wait()

	return loaded, failed
}
