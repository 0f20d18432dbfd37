package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/desertthunder/alignx/internal/models"
)

// ManifestService loads the demo asset manifest from an http(s) URL or a local file.
type ManifestService struct {
	source     string
	httpClient *http.Client
}

// NewManifestService creates a new ManifestService reading from source.
func NewManifestService(source string, client *http.Client) *ManifestService {
	if client == nil {
		client = http.DefaultClient
	}
	return &ManifestService{source: strings.TrimSpace(source), httpClient: client}
}

// Source returns the manifest location.
func (m *ManifestService) Source() string {
	return m.source
}

// FetchManifest reads and decodes the manifest. Entries are returned unfiltered.
func (m *ManifestService) FetchManifest(ctx context.Context) ([]models.Asset, error) {
	if m.source == "" {
		return nil, fmt.Errorf("no asset manifest configured")
	}

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(m.source, "http://") || strings.HasPrefix(m.source, "https://") {
		data, err = m.fetch(ctx)
	} else {
		data, err = os.ReadFile(m.source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load asset manifest %s: %w", m.source, err)
	}

	return models.ParseAssetManifest(data)
}

func (m *ManifestService) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("manifest request failed: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
