package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/educa-pb/demandas-service/internal/domain"
	"github.com/educa-pb/demandas-service/internal/events"
	"github.com/educa-pb/demandas-service/internal/repository"
	apperrors "github.com/educa-pb/demandas-service/pkg/util/errorutil"
)

// FallbackTitulo marks tickets the model could not structure.
const FallbackTitulo = "Chamado não estruturado"

// TextGenerator turns a prompt into model output.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// UpstreamRecorder counts failed calls to external services.
type UpstreamRecorder interface {
	RecordUpstreamFailure(service string)
}

// IntakeInput is the submission payload.
type IntakeInput struct {
	Texto    string
	INEP     string
	EscolaID string
}

// IntakeService turns free-text submissions into stored tickets.
type IntakeService struct {
	store      repository.ChamadoStore
	index      *repository.ChamadoIndex
	model      TextGenerator
	timeout    time.Duration
	dispatcher events.Dispatcher
	recorder   UpstreamRecorder
	logger     *zap.Logger
	now        func() time.Time
}

// IntakeDependencies bundles collaborators for the intake service.
type IntakeDependencies struct {
	Store      repository.ChamadoStore
	Index      *repository.ChamadoIndex
	Model      TextGenerator
	Timeout    time.Duration
	Dispatcher events.Dispatcher
	Recorder   UpstreamRecorder
	Logger     *zap.Logger
}

// NewIntakeService constructs the service.
func NewIntakeService(deps IntakeDependencies) *IntakeService {
	return &IntakeService{
		store:      deps.Store,
		index:      deps.Index,
		model:      deps.Model,
		timeout:    deps.Timeout,
		dispatcher: deps.Dispatcher,
		recorder:   deps.Recorder,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// Submit structures the text (falling back when the model fails) and appends
// the new ticket to the store.
func (s *IntakeService) Submit(ctx context.Context, actor *domain.Principal, input IntakeInput) (*domain.Chamado, error) {
	texto := strings.TrimSpace(input.Texto)
	escolaID := strings.TrimSpace(input.EscolaID)
	if texto == "" || strings.TrimSpace(input.INEP) == "" || escolaID == "" {
		return nil, apperrors.NewValidationError("texto, inep and escolaId are required", nil)
	}
	inep := domain.NormalizeINEP(input.INEP)
	if inep == "" {
		return nil, apperrors.NewValidationError("inep must contain digits", map[string]any{"inep": input.INEP})
	}
	if actor != nil && actor.Role == domain.RoleEscola && actor.INEP != inep {
		return nil, apperrors.NewForbidden("cannot submit on behalf of another school")
	}

	chamado, structured := s.structure(ctx, texto)
	chamado.ID = uuid.NewString()
	chamado.INEP = inep
	chamado.EscolaID = escolaID
	chamado.Status = domain.StatusAguardandoEscola
	if chamado.CreatedAt().IsZero() {
		chamado.DataCriacao = s.now().UTC().Format(time.RFC3339)
	}

	err := s.store.Update(ctx, func(chamados []domain.Chamado) ([]domain.Chamado, error) {
		return append(chamados, chamado), nil
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if s.index != nil {
		s.index.Invalidate()
	}

	s.logger.Info("chamado created",
		zap.String("chamado_id", chamado.ID),
		zap.String("inep", inep.String()),
		zap.Bool("structured", structured))

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventChamadoCriado,
		ChamadoID: chamado.ID,
		INEP:      chamado.INEP,
		Actor:     actorOf(actor),
		Payload: events.ChamadoCriadoPayload{
			Titulo:      chamado.Titulo,
			Tipo:        chamado.Tipo,
			Prioridade:  chamado.Prioridade,
			Estruturado: structured,
		},
	})
	return &chamado, nil
}

func (s *IntakeService) structure(ctx context.Context, texto string) (domain.Chamado, bool) {
	if s.model == nil {
		return fallbackChamado(texto), false
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	output, err := s.model.Generate(callCtx, BuildIntakePrompt(texto))
	if err != nil {
		s.logger.Warn("structuring model unavailable; using fallback", zap.Error(err))
		if s.recorder != nil {
			s.recorder.RecordUpstreamFailure("structuring_model")
		}
		return fallbackChamado(texto), false
	}

	chamado, ok := ParseStructured(output, texto)
	if !ok {
		s.logger.Warn("model output is not a ticket object; using fallback", zap.String("output", stringPreview(output, 200)))
		description := strings.TrimSpace(output)
		if description == "" {
			description = texto
		}
		return fallbackChamado(description), false
	}
	return chamado, true
}

// BuildIntakePrompt renders the fixed structuring instruction around texto.
func BuildIntakePrompt(texto string) string {
	tipos := make([]string, 0, len(domain.Tipos))
	for _, t := range domain.Tipos {
		tipos = append(tipos, string(t))
	}
	var b strings.Builder
	b.WriteString("Você organiza relatos livres de problemas em escolas públicas no formato de um chamado.\n")
	b.WriteString("Responda somente com um objeto JSON válido, sem comentários, com os campos:\n\n")
	b.WriteString("{\n")
	b.WriteString(`  "titulo": "resumo curto do problema",` + "\n")
	b.WriteString(`  "descricao": "relato detalhado, fiel ao original",` + "\n")
	b.WriteString(`  "tipo": "` + strings.Join(tipos, " | ") + `",` + "\n")
	b.WriteString(`  "prioridade": "Baixa | Média | Alta | Urgente",` + "\n")
	b.WriteString(`  "dataCriacao": "YYYY-MM-DDTHH:mm:ssZ"` + "\n")
	b.WriteString("}\n\n")
	b.WriteString("Relato recebido:\n\"\"\"")
	b.WriteString(texto)
	b.WriteString("\"\"\"\n")
	return b.String()
}

type structuredChamado struct {
	Titulo      string `json:"titulo"`
	Descricao   string `json:"descricao"`
	Tipo        string `json:"tipo"`
	Prioridade  string `json:"prioridade"`
	DataCriacao string `json:"dataCriacao"`
}

// ParseStructured decodes model output, tolerating markdown code fences.
// Unknown categories and priorities are coerced to Outros and Média; a
// missing description falls back to texto. ok is false when the output is not
// a JSON object with a title.
func ParseStructured(output, texto string) (domain.Chamado, bool) {
	cleaned := strings.TrimSpace(output)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var parsed structuredChamado
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return domain.Chamado{}, false
	}
	titulo := strings.TrimSpace(parsed.Titulo)
	if titulo == "" {
		return domain.Chamado{}, false
	}
	descricao := strings.TrimSpace(parsed.Descricao)
	if descricao == "" {
		descricao = texto
	}
	return domain.Chamado{
		Titulo:      titulo,
		Descricao:   descricao,
		Tipo:        matchTipo(parsed.Tipo),
		Prioridade:  matchPrioridade(parsed.Prioridade),
		DataCriacao: strings.TrimSpace(parsed.DataCriacao),
	}, true
}

func fallbackChamado(descricao string) domain.Chamado {
	return domain.Chamado{
		Titulo:     FallbackTitulo,
		Descricao:  descricao,
		Tipo:       domain.TipoOutros,
		Prioridade: domain.PrioridadeMedia,
	}
}

func matchTipo(raw string) domain.ChamadoTipo {
	raw = strings.TrimSpace(raw)
	for _, t := range domain.Tipos {
		if strings.EqualFold(string(t), raw) {
			return t
		}
	}
	return domain.TipoOutros
}

var prioridades = []domain.ChamadoPrioridade{
	domain.PrioridadeBaixa,
	domain.PrioridadeMedia,
	domain.PrioridadeAlta,
	domain.PrioridadeUrgente,
}

func matchPrioridade(raw string) domain.ChamadoPrioridade {
	raw = strings.TrimSpace(raw)
	for _, p := range prioridades {
		if strings.EqualFold(string(p), raw) {
			return p
		}
	}
	return domain.PrioridadeMedia
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	cut, suffix := max-3, "..."
	if max <= 3 {
		cut, suffix = max, ""
	}
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + suffix
}
