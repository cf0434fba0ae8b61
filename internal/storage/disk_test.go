package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "records.db")
	if err := os.WriteFile(file, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "chromem")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "a.gob"), []byte("ab"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "b.gob"), []byte("c"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"single file", []string{file}, 5},
		{"directory", []string{sub}, 3},
		{"file and directory", []string{file, sub}, 8},
		{"missing path skipped", []string{file, filepath.Join(dir, "nonexistent"), sub}, 8},
		{"empty and memory paths skipped", []string{"", ":memory:", file}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiskUsageBytes(tt.paths...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %d bytes, want %d", got, tt.want)
			}
		})
	}
}
