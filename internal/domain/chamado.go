package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ChamadoStatus enumerates lifecycle states for tickets.
type ChamadoStatus string

const (
	StatusAguardandoEscola ChamadoStatus = "Aguardando Confirmação da Escola"
	StatusEmAndamento      ChamadoStatus = "Em andamento"
	StatusRejeitado        ChamadoStatus = "Rejeitado"
	StatusConcluido        ChamadoStatus = "Concluído"
)

// Valid reports whether s is one of the known states.
func (s ChamadoStatus) Valid() bool {
	switch s {
	case StatusAguardandoEscola, StatusEmAndamento, StatusRejeitado, StatusConcluido:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s ChamadoStatus) Terminal() bool {
	return s == StatusRejeitado || s == StatusConcluido
}

// ChamadoPrioridade enumerates urgency.
type ChamadoPrioridade string

const (
	PrioridadeBaixa   ChamadoPrioridade = "Baixa"
	PrioridadeMedia   ChamadoPrioridade = "Média"
	PrioridadeAlta    ChamadoPrioridade = "Alta"
	PrioridadeUrgente ChamadoPrioridade = "Urgente"
)

func (p ChamadoPrioridade) Valid() bool {
	switch p {
	case PrioridadeBaixa, PrioridadeMedia, PrioridadeAlta, PrioridadeUrgente:
		return true
	}
	return false
}

// ChamadoTipo is the problem category.
type ChamadoTipo string

const (
	TipoInfraestrutura     ChamadoTipo = "Infraestrutura"
	TipoMaterialDidatico   ChamadoTipo = "Material Didático"
	TipoRecursosHumanos    ChamadoTipo = "Recursos Humanos"
	TipoTecnologia         ChamadoTipo = "Tecnologia"
	TipoTransporteEscolar  ChamadoTipo = "Transporte Escolar"
	TipoAlimentacaoEscolar ChamadoTipo = "Alimentação Escolar"
	TipoSeguranca          ChamadoTipo = "Segurança"
	TipoLimpezaManutencao  ChamadoTipo = "Limpeza e Manutenção"
	TipoGestao             ChamadoTipo = "Gestão e Administração"
	TipoAcessibilidade     ChamadoTipo = "Acessibilidade"
	TipoEnergia            ChamadoTipo = "Energia e Iluminação"
	TipoSaneamento         ChamadoTipo = "Saneamento e Água"
	TipoComunicacao        ChamadoTipo = "Comunicação e Internet"
	TipoOutros             ChamadoTipo = "Outros"
)

// Tipos lists the closed category set in display order.
var Tipos = []ChamadoTipo{
	TipoInfraestrutura,
	TipoMaterialDidatico,
	TipoRecursosHumanos,
	TipoTecnologia,
	TipoTransporteEscolar,
	TipoAlimentacaoEscolar,
	TipoSeguranca,
	TipoLimpezaManutencao,
	TipoGestao,
	TipoAcessibilidade,
	TipoEnergia,
	TipoSaneamento,
	TipoComunicacao,
	TipoOutros,
}

func (t ChamadoTipo) Valid() bool {
	for _, candidate := range Tipos {
		if candidate == t {
			return true
		}
	}
	return false
}

// Chamado is a ticket raised on behalf of a school.
type Chamado struct {
	ID          string            `json:"id"`
	INEP        INEP              `json:"inep"`
	EscolaID    string            `json:"escolaId,omitempty"`
	Titulo      string            `json:"titulo"`
	Descricao   string            `json:"descricao"`
	Tipo        ChamadoTipo       `json:"tipo"`
	Prioridade  ChamadoPrioridade `json:"prioridade"`
	Status      ChamadoStatus     `json:"status"`
	DataCriacao string            `json:"dataCriacao,omitempty"`
}

var creationLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CreatedAt parses DataCriacao, returning the zero time when absent or invalid.
func (c Chamado) CreatedAt() time.Time {
	raw := strings.TrimSpace(c.DataCriacao)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range creationLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// legacyINEPKeys are the alternate school-code fields found in historical data.
var legacyINEPKeys = []string{"codigoINEP", "codigo_inep", "escola_inep", "id_escola", "cod_inep"}

// UnmarshalJSON accepts the canonical shape plus legacy school-code fields.
// Legacy fields are only consulted when the document has no inep key at all,
// so a record written by this service always reads back unchanged.
func (c *Chamado) UnmarshalJSON(data []byte) error {
	type plain Chamado
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !hasKeyFold(raw, "inep") {
		for _, key := range legacyINEPKeys {
			val, ok := raw[key]
			if !ok {
				continue
			}
			var candidate INEP
			if err := json.Unmarshal(val, &candidate); err == nil && candidate != "" {
				decoded.INEP = candidate
				break
			}
		}
	}
	*c = Chamado(decoded)
	return nil
}

// hasKeyFold mirrors encoding/json, which matches field names case-insensitively.
func hasKeyFold(raw map[string]json.RawMessage, key string) bool {
	for k := range raw {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// INEP is a school identifier kept as its digits only.
type INEP string

// NormalizeINEP strips every non-digit character.
func NormalizeINEP(raw string) INEP {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return INEP(b.String())
}

func (i INEP) String() string {
	return string(i)
}

// MarshalJSON writes the code as a number, as the source system stores it.
func (i INEP) MarshalJSON() ([]byte, error) {
	if i == "" {
		return []byte(`""`), nil
	}
	if _, err := strconv.ParseUint(string(i), 10, 64); err == nil && (len(i) == 1 || i[0] != '0') {
		return []byte(i), nil
	}
	return json.Marshal(string(i))
}

// UnmarshalJSON accepts a JSON number or string and normalizes it.
func (i *INEP) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*i = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*i = NormalizeINEP(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	code, err := integralCode(n)
	if err != nil {
		return err
	}
	*i = INEP(strconv.FormatUint(code, 10))
	return nil
}

// integralCode accepts numbers such as 25092570, 25092570.0 or 2.509257e7 and
// rejects fractional or negative values.
func integralCode(n json.Number) (uint64, error) {
	if v, err := n.Int64(); err == nil {
		if v < 0 {
			return 0, fmt.Errorf("inep %s: must not be negative", n)
		}
		return uint64(v), nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("inep %s: %w", n, err)
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt64 {
		return 0, fmt.Errorf("inep %s: not an integral school code", n)
	}
	return uint64(f), nil
}
