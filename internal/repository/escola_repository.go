package repository

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/educa-pb/demandas-service/internal/domain"
)

// EscolaRepository serves the static school dataset.
type EscolaRepository interface {
	List() []domain.Escola
	GetByINEP(inep domain.INEP) (domain.Escola, bool)
	// Fingerprint identifies the dataset contents; it changes when any
	// school is added, removed or edited.
	Fingerprint() string
}

type escolaRepository struct {
	escolas     []domain.Escola
	byINEP      map[domain.INEP]int
	fingerprint string
}

// NewEscolaRepository indexes an in-memory dataset.
func NewEscolaRepository(escolas []domain.Escola) EscolaRepository {
	repo := &escolaRepository{
		escolas: escolas,
		byINEP:  make(map[domain.INEP]int, len(escolas)),
	}
	for i, e := range escolas {
		if e.INEP == "" {
			continue
		}
		if _, dup := repo.byINEP[e.INEP]; !dup {
			repo.byINEP[e.INEP] = i
		}
	}
	repo.fingerprint = datasetFingerprint(escolas)
	return repo
}

func datasetFingerprint(escolas []domain.Escola) string {
	h := sha256.New()
	if err := json.NewEncoder(h).Encode(escolas); err != nil {
		return fmt.Sprintf("n%d", len(escolas))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// LoadEscolas reads the dataset from path. A missing file yields an empty
// repository; a malformed one is an error since the data is shipped with the
// service.
func LoadEscolas(path string, logger *zap.Logger) (EscolaRepository, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("escolas dataset not found; map endpoints will be empty", zap.String("path", path))
			return NewEscolaRepository(nil), nil
		}
		return nil, fmt.Errorf("read escolas: %w", err)
	}
	var escolas []domain.Escola
	if err := json.Unmarshal(raw, &escolas); err != nil {
		return nil, fmt.Errorf("decode escolas: %w", err)
	}
	logger.Info("escolas loaded", zap.Int("count", len(escolas)))
	return NewEscolaRepository(escolas), nil
}

func (r *escolaRepository) List() []domain.Escola {
	out := make([]domain.Escola, len(r.escolas))
	copy(out, r.escolas)
	return out
}

func (r *escolaRepository) GetByINEP(inep domain.INEP) (domain.Escola, bool) {
	idx, ok := r.byINEP[inep]
	if !ok {
		return domain.Escola{}, false
	}
	return r.escolas[idx], true
}

func (r *escolaRepository) Fingerprint() string {
	return r.fingerprint
}
