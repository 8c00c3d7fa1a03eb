package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/educa-pb/demandas-service/internal/domain"
	"github.com/educa-pb/demandas-service/internal/repository"
)

// MigrationReport summarizes what a legacy normalization pass changed.
type MigrationReport struct {
	Total             int  `json:"total"`
	AssignedIDs       int  `json:"assignedIds"`
	DuplicateIDs      int  `json:"duplicateIds"`
	MissingINEP       int  `json:"missingInep"`
	CoercedTipo       int  `json:"coercedTipo"`
	CoercedPrioridade int  `json:"coercedPrioridade"`
	CoercedStatus     int  `json:"coercedStatus"`
	Written           bool `json:"written"`
}

// Changed reports whether the pass modified any record.
func (r MigrationReport) Changed() bool {
	return r.AssignedIDs+r.DuplicateIDs+r.CoercedTipo+r.CoercedPrioridade+r.CoercedStatus > 0
}

func (r MigrationReport) String() string {
	return fmt.Sprintf("total=%d ids=%d duplicates=%d sem_inep=%d tipo=%d prioridade=%d status=%d written=%t",
		r.Total, r.AssignedIDs, r.DuplicateIDs, r.MissingINEP, r.CoercedTipo, r.CoercedPrioridade, r.CoercedStatus, r.Written)
}

// NormalizeLegacy rewrites records into the canonical shape: every ticket gets
// a unique id and known tipo, prioridade and status values. Legacy school-code
// fields are already folded into INEP when the records are decoded.
func NormalizeLegacy(chamados []domain.Chamado) ([]domain.Chamado, MigrationReport) {
	report := MigrationReport{Total: len(chamados)}
	out := make([]domain.Chamado, len(chamados))
	seen := make(map[string]bool, len(chamados))

	for i, c := range chamados {
		c.ID = strings.TrimSpace(c.ID)
		switch {
		case c.ID == "":
			c.ID = uuid.NewString()
			report.AssignedIDs++
		case seen[c.ID]:
			c.ID = uuid.NewString()
			report.DuplicateIDs++
		}
		seen[c.ID] = true

		if c.INEP == "" {
			report.MissingINEP++
		}
		if !c.Tipo.Valid() {
			if t := matchTipo(string(c.Tipo)); t != c.Tipo {
				c.Tipo = t
				report.CoercedTipo++
			}
		}
		if !c.Prioridade.Valid() {
			c.Prioridade = matchPrioridade(string(c.Prioridade))
			report.CoercedPrioridade++
		}
		if !c.Status.Valid() {
			c.Status = matchStatus(string(c.Status))
			report.CoercedStatus++
		}
		out[i] = c
	}
	return out, report
}

var statuses = []domain.ChamadoStatus{
	domain.StatusAguardandoEscola,
	domain.StatusEmAndamento,
	domain.StatusRejeitado,
	domain.StatusConcluido,
}

func matchStatus(raw string) domain.ChamadoStatus {
	raw = strings.TrimSpace(raw)
	for _, s := range statuses {
		if strings.EqualFold(string(s), raw) {
			return s
		}
	}
	return domain.StatusEmAndamento
}

// MigrateStore normalizes the store in place. With dryRun the store is read but
// never written.
func MigrateStore(ctx context.Context, store repository.ChamadoStore, dryRun bool, logger *zap.Logger) (MigrationReport, error) {
	if dryRun {
		chamados, err := store.ReadAll(ctx)
		if err != nil {
			return MigrationReport{}, err
		}
		_, report := NormalizeLegacy(chamados)
		logger.Info("dry run; store not written", zap.Stringer("report", report))
		return report, nil
	}

	var report MigrationReport
	err := store.Update(ctx, func(chamados []domain.Chamado) ([]domain.Chamado, error) {
		var normalized []domain.Chamado
		normalized, report = NormalizeLegacy(chamados)
		return normalized, nil
	})
	if err != nil {
		return report, err
	}
	report.Written = true
	logger.Info("store migrated", zap.Stringer("report", report))
	return report, nil
}
