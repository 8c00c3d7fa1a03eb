package persistence

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"
)

func TestMigrationFilesOrderedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_index.sql", "001_chamados.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "old"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := migrationFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"001_chamados.sql", "002_index.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRunMigrationsWithoutPool(t *testing.T) {
	if err := RunMigrations(context.Background(), nil, "does-not-exist", zap.NewNop()); err != nil {
		t.Fatalf("expected skip, got %v", err)
	}
}

func TestNilRedisIsDisabled(t *testing.T) {
	var r *Redis
	if _, ok := r.Get(context.Background(), "k"); ok {
		t.Error("nil redis must miss")
	}
	r.Set(context.Background(), "k", []byte("v"))
	if err := r.Ping(context.Background()); err == nil {
		t.Error("nil redis ping should fail")
	}
}
