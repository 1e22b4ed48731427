package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crucial707/pokecollect/internal/models"
)

const sampleJSON = `{
  "1": {"id": 1, "name": "Bulbasaur"},
  "25": {"id": 25, "name": "Pikachu"},
  "4": {"id": 4, "name": " Charmander "},
  "0": {"id": 0, "name": "Nothing"},
  "26": {"id": 26, "name": ""},
  "250": {"id": 250, "name": "pikachu"}
}`

type fakeStore struct {
	calls  int
	stored map[int]models.Pokemon
}

func (f *fakeStore) Import(_ context.Context, list []models.Pokemon, _ int) (int, error) {
	f.calls++
	if f.stored == nil {
		f.stored = map[int]models.Pokemon{}
	}
	n := 0
	for _, p := range list {
		if _, ok := f.stored[p.ID]; ok {
			continue
		}
		f.stored[p.ID] = p
		n++
	}
	return n, nil
}

func TestParse(t *testing.T) {
	list, err := Parse(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []models.Pokemon{{ID: 1, Name: "Bulbasaur"}, {ID: 4, Name: "Charmander"}, {ID: 25, Name: "Pikachu"}}
	if len(list) != len(want) {
		t.Fatalf("got %d species, want %d: %+v", len(list), len(want), list)
	}
	for i := range want {
		if list[i] != want[i] {
			t.Errorf("species %d: got %+v, want %+v", i, list[i], want[i])
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{`not json`, `{}`, `[1,2,3]`} {
		if _, err := Parse(strings.NewReader(in)); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestImporter_Run_HTTP(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleJSON))
	}))
	defer srv.Close()

	store := &fakeStore{}
	imp := NewImporter(srv.URL+"/api/v1/", store)

	n, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 3 {
		t.Errorf("inserted: got %d, want 3", n)
	}
	if gotPath != "/api/v1/pokemon_names.json" {
		t.Errorf("requested %q", gotPath)
	}

	n, err = imp.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if n != 0 || len(store.stored) != 3 {
		t.Errorf("second run should insert nothing: inserted=%d stored=%d", n, len(store.stored))
	}
}

func TestImporter_Run_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	store := &fakeStore{}
	if _, err := NewImporter(srv.URL, store).Run(context.Background()); err == nil {
		t.Fatal("expected error for 502")
	}
	if store.calls != 0 {
		t.Error("store must not be called when the fetch fails")
	}
}

func TestImporter_Run_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pokemon_names.json")
	if err := os.WriteFile(path, []byte(sampleJSON), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := &fakeStore{}
	n, err := NewImporter(path, store).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 3 {
		t.Errorf("inserted: got %d, want 3", n)
	}
}
