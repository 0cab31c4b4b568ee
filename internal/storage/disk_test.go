package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsage(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "memories.db")
	write := func(path, content string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write(db, "hello")
	write(db+"-wal", "ab")
	vec := filepath.Join(dir, "vectors")
	if err := os.Mkdir(vec, 0755); err != nil {
		t.Fatal(err)
	}
	write(filepath.Join(vec, "index.bin"), "xyz")

	got, err := DiskUsage(db, vec)
	if err != nil {
		t.Fatal(err)
	}
	if got != 10 {
		t.Errorf("DiskUsage = %d, want 10", got)
	}

	got, err = DiskUsage(filepath.Join(dir, "missing.db"), "")
	if err != nil || got != 0 {
		t.Errorf("missing paths: got %d, %v", got, err)
	}
}
