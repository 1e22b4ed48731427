// Package catalog loads the species list into the pokemon table.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/crucial707/pokecollect/internal/metrics"
	"github.com/crucial707/pokecollect/internal/models"
)

// DefaultSource serves pokemon_names.json.
const DefaultSource = "https://pogoapi.net/api/v1/"

const (
	namesFile    = "pokemon_names.json"
	maxBodyBytes = 8 << 20
)

// Store persists species. *repo.PokemonRepo implements it.
type Store interface {
	Import(ctx context.Context, list []models.Pokemon, batchSize int) (int, error)
}

// Importer fetches the species list from Source and inserts what is missing.
// Source is a base URL, a URL to the JSON file itself, or a local file path.
type Importer struct {
	Source    string
	Client    *http.Client
	Store     Store
	BatchSize int
}

func NewImporter(source string, store Store) *Importer {
	if source == "" {
		source = DefaultSource
	}
	return &Importer{
		Source: source,
		Client: &http.Client{Timeout: 30 * time.Second},
		Store:  store,
	}
}

// Run fetches and imports the catalog, returning the number of new species.
// Running it again inserts nothing.
func (i *Importer) Run(ctx context.Context) (int, error) {
	start := time.Now()
	list, err := i.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	inserted, err := i.Store.Import(ctx, list, i.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("import catalog: %w", err)
	}
	metrics.AddCatalogImported(inserted)

	slog.InfoContext(ctx, "catalog import finished",
		"source", i.Source,
		"fetched", len(list),
		"inserted", inserted,
		"duration_ms", time.Since(start).Milliseconds())
	return inserted, nil
}

// Fetch downloads and validates the species list, ordered by id.
func (i *Importer) Fetch(ctx context.Context) ([]models.Pokemon, error) {
	body, err := i.open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return Parse(io.LimitReader(body, maxBodyBytes))
}

func (i *Importer) open(ctx context.Context) (io.ReadCloser, error) {
	src := i.Source
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		f, err := os.Open(strings.TrimPrefix(src, "file://"))
		if err != nil {
			return nil, fmt.Errorf("open catalog file: %w", err)
		}
		return f, nil
	}

	if !strings.HasSuffix(src, ".json") {
		src = strings.TrimRight(src, "/") + "/" + namesFile
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := i.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch catalog: %s returned %s", src, resp.Status)
	}
	return resp.Body, nil
}

type entry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Parse reads the pogoapi format, an object keyed by dex number:
//
//	{"1": {"id": 1, "name": "Bulbasaur"}, ...}
//
// Entries with a missing id or name are skipped, as are later duplicates of
// an id or of a name compared case-insensitively.
func Parse(r io.Reader) ([]models.Pokemon, error) {
	var raw map[string]entry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	entries := make([]entry, 0, len(raw))
	for _, e := range raw {
		e.Name = strings.TrimSpace(e.Name)
		if e.ID <= 0 || e.Name == "" {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].ID < entries[b].ID })

	seenID := make(map[int]bool, len(entries))
	seenName := make(map[string]bool, len(entries))
	list := make([]models.Pokemon, 0, len(entries))
	for _, e := range entries {
		key := strings.ToLower(e.Name)
		if seenID[e.ID] || seenName[key] {
			continue
		}
		seenID[e.ID], seenName[key] = true, true
		list = append(list, models.Pokemon{ID: e.ID, Name: e.Name})
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("decode catalog: no species found")
	}
	return list, nil
}
