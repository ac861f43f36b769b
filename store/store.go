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

// Package store holds the published client views. Views are swapped in
// atomically under a single lock; readers always see either the previous
// complete result or the new one, never a partial state. A generation counter
// invalidates in-flight computations when the data directory is resynced.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wealthdesk/wd-api/portfolio"
)

type Store struct {
	mu         sync.RWMutex
	views      map[string]*portfolio.ClientView
	generation uint64
}

func New() *Store {
	return &Store{
		views: make(map[string]*portfolio.ClientView),
	}
}

// Generation returns the current store generation. A computation captures it
// before starting and presents it again on publish.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Bump advances the generation, discarding the results of every computation
// started before the call. Used when a resync replaces the ledger files.
func (s *Store) Bump() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// Publish atomically swaps in a freshly computed view. The publish is refused
// when the store generation moved past the one the computation started under;
// stale results are dropped, never merged.
func (s *Store) Publish(generation uint64, view *portfolio.ClientView) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		log.Debug().Str("Filename", view.Filename).
			Uint64("Generation", generation).
			Uint64("Current", s.generation).
			Msg("discarding stale view")
		return false
	}
	s.views[view.Filename] = view
	return true
}

// PublishError records a failed recompute for a client. The previous cached
// view keeps being served with its error field set; a client that never
// computed successfully gets a stub view carrying only the failure.
func (s *Store) PublishError(generation uint64, filename string, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return false
	}

	if prev, ok := s.views[filename]; ok {
		failed := *prev
		failed.Status = portfolio.StatusError
		failed.Error = err.Error()
		s.views[filename] = &failed
		return true
	}
	s.views[filename] = &portfolio.ClientView{
		Filename:   filename,
		ClientName: filename,
		Status:     portfolio.StatusError,
		Error:      err.Error(),
		ComputedOn: time.Now().UTC(),
	}
	return true
}

// Remove drops a client whose ledger file disappeared from the data
// directory
func (s *Store) Remove(filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.views, filename)
}

// Client returns the published view for one ledger file
func (s *Store) Client(filename string) (*portfolio.ClientView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view, ok := s.views[filename]
	return view, ok
}

// Clients returns summaries of every published view, sorted by client name
// with filename as the tie break
func (s *Store) Clients() []*portfolio.ClientView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := make([]*portfolio.ClientView, 0, len(s.views))
	for _, view := range s.views {
		clients = append(clients, view.Summary())
	}
	sort.Slice(clients, func(i, j int) bool {
		if clients[i].ClientName != clients[j].ClientName {
			return clients[i].ClientName < clients[j].ClientName
		}
		return clients[i].Filename < clients[j].Filename
	})
	return clients
}
