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
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// RemoteFile is one entry of the document store's index. ETag changes
// whenever the file's content changes, which is what the manifest diffs
// against.
type RemoteFile struct {
	Name string `json:"name"`
	ETag string `json:"etag"`
	Size int64  `json:"size"`
}

type remoteIndex struct {
	Files []RemoteFile `json:"files"`
}

// DocClient talks to the remote document store over HTTP. The store exposes a
// JSON index at /index.json and serves the listed files by name next to it.
type DocClient struct {
	baseURL string
	client  *http.Client
}

func NewDocClient(baseURL string) *DocClient {
	return &DocClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// FetchIndex retrieves the document listing
func (dc *DocClient) FetchIndex(ctx context.Context) ([]RemoteFile, error) {
	raw, err := dc.get(ctx, "index.json")
	if err != nil {
		return nil, err
	}

	var index remoteIndex
	if err := json.Unmarshal(raw, &index); err != nil {
		return nil, fmt.Errorf("document index is not valid JSON: %w", err)
	}

	log.Debug().Str("URL", dc.baseURL).Int("NumFiles", len(index.Files)).
		Msg("fetched document index")
	return index.Files, nil
}

// Download retrieves one document by its index name
func (dc *DocClient) Download(ctx context.Context, name string) ([]byte, error) {
	return dc.get(ctx, name)
}

func (dc *DocClient) get(ctx context.Context, name string) ([]byte, error) {
	endpoint, err := url.JoinPath(dc.baseURL, name)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := dc.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("document store returned %d for %s", resp.StatusCode, name)
	}
	return io.ReadAll(resp.Body)
}
