package service

import (
	"context"
	"encoding/json"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/educa-pb/demandas-service/internal/config"
	"github.com/educa-pb/demandas-service/internal/domain"
	"github.com/educa-pb/demandas-service/internal/repository"
	apperrors "github.com/educa-pb/demandas-service/pkg/util/errorutil"
)

// HeatmapCache stores encoded heat maps. *persistence.Redis satisfies it.
type HeatmapCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// MapConfig is handed to dashboards that render the map.
type MapConfig struct {
	Disponivel bool   `json:"disponivel"`
	APIKey     string `json:"apiKey,omitempty"`
	MapID      string `json:"mapId,omitempty"`
}

// MapService joins schools with ticket counts.
type MapService struct {
	escolas repository.EscolaRepository
	index   *repository.ChamadoIndex
	cache   HeatmapCache
	maps    config.MapsConfig
	logger  *zap.Logger
}

// NewMapService constructs the service. cache may be nil.
func NewMapService(escolas repository.EscolaRepository, index *repository.ChamadoIndex, cache HeatmapCache, maps config.MapsConfig, logger *zap.Logger) *MapService {
	return &MapService{escolas: escolas, index: index, cache: cache, maps: maps, logger: logger}
}

// ListEscolas returns the school dataset.
func (s *MapService) ListEscolas() []domain.Escola {
	return s.escolas.List()
}

// GetEscola looks a school up by INEP.
func (s *MapService) GetEscola(rawINEP string) (*domain.Escola, error) {
	inep := domain.NormalizeINEP(rawINEP)
	if inep == "" {
		return nil, apperrors.NewValidationError("inep is required and must contain digits", map[string]any{"inep": rawINEP})
	}
	escola, ok := s.escolas.GetByINEP(inep)
	if !ok {
		return nil, apperrors.NewNotFound("escola", map[string]any{"inep": inep.String()})
	}
	return &escola, nil
}

// Heatmap returns every school with coordinates weighted by ticket density.
func (s *MapService) Heatmap(ctx context.Context) ([]domain.EscolaPeso, error) {
	counts, version, err := s.index.CountByINEP(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	key := heatmapKey(s.escolas.Fingerprint(), version)
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, key); ok {
			var cached []domain.EscolaPeso
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			s.logger.Warn("discarding undecodable cached heatmap", zap.String("key", key))
		}
	}

	pesos := ComputeWeights(s.escolas.List(), counts)
	if s.cache != nil {
		if raw, err := json.Marshal(pesos); err == nil {
			s.cache.Set(ctx, key, raw)
		}
	}
	return pesos, nil
}

// heatmapKey ties a cached heat map to both the school dataset and the
// ticket store version.
func heatmapKey(fingerprint string, version int64) string {
	return "heatmap:" + fingerprint + ":" + strconv.FormatInt(version, 10)
}

// Config reports whether the map provider is usable.
func (s *MapService) Config() MapConfig {
	if s.maps.APIKey == "" || s.maps.MapID == "" {
		return MapConfig{Disponivel: false}
	}
	return MapConfig{Disponivel: true, APIKey: s.maps.APIKey, MapID: s.maps.MapID}
}

// ComputeWeights keeps schools with coordinates and scales their ticket count
// to a 1..60 weight with a square-root curve.
func ComputeWeights(escolas []domain.Escola, counts map[domain.INEP]int) []domain.EscolaPeso {
	pesos := make([]domain.EscolaPeso, 0, len(escolas))
	max := 0
	for _, e := range escolas {
		if !e.HasCoordinates() {
			continue
		}
		count := counts[e.INEP]
		if count > max {
			max = count
		}
		pesos = append(pesos, domain.EscolaPeso{
			INEP:      e.INEP,
			Nome:      e.Nome,
			Endereco:  e.Endereco,
			Latitude:  *e.Latitude,
			Longitude: *e.Longitude,
			Count:     count,
		})
	}
	for i := range pesos {
		pesos[i].Weight = weight(pesos[i].Count, max)
	}
	return pesos
}

func weight(count, max int) int {
	if max <= 0 {
		return 1
	}
	return int(math.Round(1 + math.Sqrt(float64(count)/float64(max))*59))
}
