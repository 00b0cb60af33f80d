package allowlist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "allowed.json")
	s, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, path
}

func TestMissingFileYieldsEmptyStore(t *testing.T) {
	s, _ := openTemp(t)
	if got := s.List(); len(got) != 0 {
		t.Errorf("expected empty store, got %v", got)
	}
	if s.Contains(555) {
		t.Error("empty store must not contain anything")
	}
}

func TestAddRemoveRoundTrip(t *testing.T) {
	s, _ := openTemp(t)

	added, err := s.Add(555)
	if err != nil || !added {
		t.Fatalf("Add(555) = %v, %v; want true, nil", added, err)
	}
	if !s.Contains(555) {
		t.Error("555 must be authorized right after Add")
	}

	// adding again is a no-op that reports already-present
	added, err = s.Add(555)
	if err != nil {
		t.Fatalf("second Add: %v", err)
	}
	if added {
		t.Error("second Add must report already present")
	}
	if got := s.List(); len(got) != 1 {
		t.Errorf("duplicate Add must not grow the set: %v", got)
	}

	removed, err := s.Remove(555)
	if err != nil || !removed {
		t.Fatalf("Remove(555) = %v, %v; want true, nil", removed, err)
	}
	if s.Contains(555) {
		t.Error("555 must not be authorized after Remove")
	}
	removed, err = s.Remove(555)
	if err != nil {
		t.Fatalf("second Remove: %v", err)
	}
	if removed {
		t.Error("second Remove must report not present")
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	s, path := openTemp(t)
	for _, id := range []int64{30, 10, 20} {
		if _, err := s.Add(id); err != nil {
			t.Fatalf("Add(%d): %v", id, err)
		}
	}

	reopened, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := reopened.List()
	want := []int64{10, 20, 30}
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List() = %v, want %v", got, want)
		}
	}
}

func TestFileIsWholeJSONArray(t *testing.T) {
	s, path := openTemp(t)
	if _, err := s.Add(7); err != nil {
		t.Fatalf("Add: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read persisted file: %v", err)
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		t.Fatalf("persisted file is not a JSON array: %v", err)
	}
	if len(ids) != 1 || ids[0] != 7 {
		t.Errorf("persisted ids = %v, want [7]", ids)
	}

	// no temp files left behind by the atomic replace
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the allowlist file, found %d entries", len(entries))
	}
}

func TestCorruptFileFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowed.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path, zerolog.Nop()); err == nil {
		t.Error("Open must fail on a corrupt allowlist")
	}
}
