package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/educa-pb/demandas-service/internal/config"
	"github.com/educa-pb/demandas-service/internal/domain"
	"github.com/educa-pb/demandas-service/internal/repository"
	apperrors "github.com/educa-pb/demandas-service/pkg/util/errorutil"
)

func coord(v float64) *float64 { return &v }

type memoryCache struct {
	values map[string][]byte
	hits   int
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.values[key]
	if ok {
		m.hits++
	}
	return v, ok
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte) {
	if m.values == nil {
		m.values = map[string][]byte{}
	}
	m.values[key] = value
}

func TestComputeWeights(t *testing.T) {
	escolas := []domain.Escola{
		{INEP: "1", Nome: "A", Latitude: coord(-7.1), Longitude: coord(-34.8)},
		{INEP: "2", Nome: "B", Latitude: coord(-7.2), Longitude: coord(-34.9)},
		{INEP: "3", Nome: "C", Latitude: coord(-7.3), Longitude: coord(-35.0)},
		{INEP: "4", Nome: "sem coordenadas"},
	}
	counts := map[domain.INEP]int{"1": 4, "2": 1, "4": 10}

	pesos := ComputeWeights(escolas, counts)
	if len(pesos) != 3 {
		t.Fatalf("schools without coordinates are skipped, got %d", len(pesos))
	}
	// max is 4: sqrt(1)*59+1 = 60, sqrt(0.25)*59+1 = 30.5 -> 31, 0 -> 1
	want := map[domain.INEP]int{"1": 60, "2": 31, "3": 1}
	for _, p := range pesos {
		if p.Weight != want[p.INEP] {
			t.Errorf("inep %s: weight %d, want %d", p.INEP, p.Weight, want[p.INEP])
		}
	}
}

func TestComputeWeightsNoTickets(t *testing.T) {
	pesos := ComputeWeights([]domain.Escola{{INEP: "1", Latitude: coord(1), Longitude: coord(2)}}, nil)
	if len(pesos) != 1 || pesos[0].Weight != 1 || pesos[0].Count != 0 {
		t.Fatalf("unexpected %+v", pesos)
	}
}

func TestHeatmapUsesCache(t *testing.T) {
	_, index := newStore(t, []domain.Chamado{{ID: "a", INEP: "1"}, {ID: "b", INEP: "1"}})
	escolas := repository.NewEscolaRepository([]domain.Escola{{INEP: "1", Nome: "A", Latitude: coord(1), Longitude: coord(2)}})
	cache := &memoryCache{}
	svc := NewMapService(escolas, index, cache, config.MapsConfig{}, zap.NewNop())
	ctx := context.Background()

	first, err := svc.Heatmap(ctx)
	if err != nil {
		t.Fatalf("heatmap: %v", err)
	}
	if len(first) != 1 || first[0].Count != 2 || first[0].Weight != 60 {
		t.Fatalf("unexpected heatmap %+v", first)
	}
	if len(cache.values) != 1 {
		t.Fatalf("heatmap should be cached, got %d entries", len(cache.values))
	}

	second, err := svc.Heatmap(ctx)
	if err != nil {
		t.Fatalf("heatmap: %v", err)
	}
	if cache.hits != 1 || second[0].Count != 2 {
		t.Fatalf("second call should be served from cache (hits=%d)", cache.hits)
	}
}

func TestHeatmapCacheKeyFollowsDataset(t *testing.T) {
	_, index := newStore(t, []domain.Chamado{{ID: "a", INEP: "1"}, {ID: "b", INEP: "2"}})
	cache := &memoryCache{}
	ctx := context.Background()

	before := repository.NewEscolaRepository([]domain.Escola{{INEP: "1", Nome: "A", Latitude: coord(1), Longitude: coord(2)}})
	if _, err := NewMapService(before, index, cache, config.MapsConfig{}, zap.NewNop()).Heatmap(ctx); err != nil {
		t.Fatalf("heatmap: %v", err)
	}

	after := repository.NewEscolaRepository([]domain.Escola{
		{INEP: "1", Nome: "A", Latitude: coord(1), Longitude: coord(2)},
		{INEP: "2", Nome: "B", Latitude: coord(3), Longitude: coord(4)},
	})
	pesos, err := NewMapService(after, index, cache, config.MapsConfig{}, zap.NewNop()).Heatmap(ctx)
	if err != nil {
		t.Fatalf("heatmap: %v", err)
	}
	if cache.hits != 0 {
		t.Fatalf("a changed dataset must not reuse the cached heatmap (hits=%d)", cache.hits)
	}
	if len(pesos) != 2 || len(cache.values) != 2 {
		t.Fatalf("got %d pesos and %d cache entries", len(pesos), len(cache.values))
	}
}

func TestGetEscola(t *testing.T) {
	_, index := newStore(t, nil)
	escolas := repository.NewEscolaRepository([]domain.Escola{{INEP: "2512345", Nome: "A"}})
	svc := NewMapService(escolas, index, nil, config.MapsConfig{}, zap.NewNop())

	e, err := svc.GetEscola("251234-5")
	if err != nil || e.Nome != "A" {
		t.Fatalf("get escola: %v %+v", err, e)
	}
	_, err = svc.GetEscola("999")
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestMapConfig(t *testing.T) {
	_, index := newStore(t, nil)
	escolas := repository.NewEscolaRepository(nil)

	off := NewMapService(escolas, index, nil, config.MapsConfig{APIKey: "k"}, zap.NewNop()).Config()
	if off.Disponivel || off.APIKey != "" {
		t.Fatalf("incomplete credentials should disable the map: %+v", off)
	}
	on := NewMapService(escolas, index, nil, config.MapsConfig{APIKey: "k", MapID: "m"}, zap.NewNop()).Config()
	if !on.Disponivel || on.MapID != "m" {
		t.Fatalf("unexpected config %+v", on)
	}
}
