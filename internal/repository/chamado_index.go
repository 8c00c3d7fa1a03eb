package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/educa-pb/demandas-service/internal/domain"
)

// ChamadoIndex caches tickets grouped by school. The cache is keyed by the
// store version and rebuilt whenever the version moves.
type ChamadoIndex struct {
	store ChamadoStore

	mu   sync.RWMutex
	snap *indexSnapshot
}

type indexSnapshot struct {
	version int64
	all     []domain.Chamado
	byINEP  map[domain.INEP][]domain.Chamado
}

// NewChamadoIndex builds an empty index over store.
func NewChamadoIndex(store ChamadoStore) *ChamadoIndex {
	return &ChamadoIndex{store: store}
}

// ByINEP returns the school's tickets, newest first.
func (i *ChamadoIndex) ByINEP(ctx context.Context, inep domain.INEP) ([]domain.Chamado, error) {
	snap, err := i.current(ctx)
	if err != nil {
		return nil, err
	}
	return cloneChamados(snap.byINEP[inep]), nil
}

// All returns every ticket, newest first.
func (i *ChamadoIndex) All(ctx context.Context) ([]domain.Chamado, error) {
	snap, err := i.current(ctx)
	if err != nil {
		return nil, err
	}
	return cloneChamados(snap.all), nil
}

// CountByINEP returns the number of tickets per school together with the
// store version they were computed from.
func (i *ChamadoIndex) CountByINEP(ctx context.Context) (map[domain.INEP]int, int64, error) {
	snap, err := i.current(ctx)
	if err != nil {
		return nil, 0, err
	}
	counts := make(map[domain.INEP]int, len(snap.byINEP))
	for inep, list := range snap.byINEP {
		counts[inep] = len(list)
	}
	return counts, snap.version, nil
}

// Invalidate drops the cached snapshot.
func (i *ChamadoIndex) Invalidate() {
	i.mu.Lock()
	i.snap = nil
	i.mu.Unlock()
}

func (i *ChamadoIndex) current(ctx context.Context) (*indexSnapshot, error) {
	version, err := i.store.Version(ctx)
	if err != nil {
		return nil, err
	}

	i.mu.RLock()
	snap := i.snap
	i.mu.RUnlock()
	if snap != nil && snap.version == version {
		return snap, nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.snap != nil && i.snap.version == version {
		return i.snap, nil
	}

	chamados, err := i.store.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	i.snap = buildSnapshot(version, chamados)
	return i.snap, nil
}

func buildSnapshot(version int64, chamados []domain.Chamado) *indexSnapshot {
	sorted := cloneChamados(chamados)
	SortNewestFirst(sorted)

	byINEP := make(map[domain.INEP][]domain.Chamado)
	for _, c := range sorted {
		if c.INEP == "" {
			continue
		}
		byINEP[c.INEP] = append(byINEP[c.INEP], c)
	}
	return &indexSnapshot{version: version, all: sorted, byINEP: byINEP}
}

// SortNewestFirst orders by creation time descending. Tickets without a
// parseable timestamp count as the zero time and keep their relative order.
func SortNewestFirst(chamados []domain.Chamado) {
	sort.SliceStable(chamados, func(a, b int) bool {
		return chamados[a].CreatedAt().After(chamados[b].CreatedAt())
	})
}

func cloneChamados(src []domain.Chamado) []domain.Chamado {
	out := make([]domain.Chamado, len(src))
	copy(out, src)
	return out
}
