package chartfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadFile(t *testing.T) {
	ctx := context.Background()
	c := buildFixture(t)

	for _, name := range []string{"chart.json", "chart.yaml", "chart.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := WriteFile(ctx, path, c); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			back, err := ReadFile(ctx, path)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			sameLines(t, describe(c), describe(back))
		})
	}
}

func TestWriteFileLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chart.json")
	if err := WriteFile(context.Background(), path, buildFixture(t)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "chart.json" {
		t.Errorf("directory holds %v", entries)
	}
}

func TestWriteFileFailureKeepsOldFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chart.json")
	if err := os.WriteFile(path, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := buildFixture(t)
	c.Name = ""
	err := WriteFile(context.Background(), path, c)
	var serr *SerializationError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want SerializationError", err)
	}
	if serr.Op != "encode" || !errors.Is(err, ErrUnnamed) {
		t.Errorf("err = %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "previous" {
		t.Errorf("file overwritten: %q", data)
	}
}

func TestReadFileErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"name": 1}`), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		op   string
	}{
		{"missing", filepath.Join(dir, "none.json"), "read"},
		{"extension", filepath.Join(dir, "chart.txt"), "read"},
		{"no extension", filepath.Join(dir, "chart"), "read"},
		{"decode", bad, "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFile(ctx, tt.path)
			var serr *SerializationError
			if !errors.As(err, &serr) {
				t.Fatalf("err = %v, want SerializationError", err)
			}
			if serr.Op != tt.op || serr.Path != tt.path {
				t.Errorf("got op %q path %q", serr.Op, serr.Path)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"json": FormatJSON, "YAML": FormatYAML, "yml": FormatYAML}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}
