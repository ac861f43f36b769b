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

package syncer

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

const manifestFile = ".manifest.json"

// manifest maps synced file names to the ETag they were downloaded at, so an
// unchanged file is never fetched twice
type manifest map[string]string

func loadManifest(dataDir string) manifest {
	raw, err := os.ReadFile(filepath.Join(dataDir, manifestFile))
	if err != nil {
		return make(manifest)
	}
	m := make(manifest)
	if err := json.Unmarshal(raw, &m); err != nil {
		return make(manifest)
	}
	return m
}

func (m manifest) save(dataDir string) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dataDir, manifestFile), raw, 0o644)
}
