package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/educa-pb/demandas-service/internal/domain"
	"github.com/educa-pb/demandas-service/internal/events"
	"github.com/educa-pb/demandas-service/internal/repository"
	apperrors "github.com/educa-pb/demandas-service/pkg/util/errorutil"
)

func newStore(t *testing.T, seed []domain.Chamado) (*repository.FileChamadoStore, *repository.ChamadoIndex) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chamados.json")
	store := repository.NewFileChamadoStore(path, zap.NewNop(), nil)
	if seed != nil {
		if err := store.WriteAll(context.Background(), seed); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}
	return store, repository.NewChamadoIndex(store)
}

func readFile(t *testing.T, store *repository.FileChamadoStore) string {
	t.Helper()
	raw, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("read store file: %v", err)
	}
	return string(raw)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !apperrors.HasCode(err, code) {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

type capturedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func captureEvents(d events.Dispatcher, types ...events.EventType) *capturedEvents {
	c := &capturedEvents{}
	for _, typ := range types {
		d.Subscribe(typ, func(_ context.Context, e events.Event) error {
			c.mu.Lock()
			c.events = append(c.events, e)
			c.mu.Unlock()
			return nil
		})
	}
	return c
}

func (c *capturedEvents) all() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.Event{}, c.events...)
}

type fakeModel struct {
	output string
	err    error
	prompt string
}

func (f *fakeModel) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.output, f.err
}

type upstreamCounter struct {
	mu    sync.Mutex
	count map[string]int
}

func (u *upstreamCounter) RecordUpstreamFailure(service string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.count == nil {
		u.count = map[string]int{}
	}
	u.count[service]++
}

var errUpstream = errors.New("upstream down")
