package domain

import (
	"encoding/json"
	"testing"
)

func TestNormalizeINEP(t *testing.T) {
	cases := map[string]INEP{
		"251234-5":   "2512345",
		"2512345":    "2512345",
		" 25.01.234": "2501234",
		"abc":        "",
	}
	for in, want := range cases {
		if got := NormalizeINEP(in); got != want {
			t.Errorf("NormalizeINEP(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestINEPJSON(t *testing.T) {
	var fromNumber, fromString INEP
	if err := json.Unmarshal([]byte(`25012345`), &fromNumber); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`"2501234-5"`), &fromString); err != nil {
		t.Fatal(err)
	}
	if fromNumber != "25012345" || fromString != "25012345" {
		t.Fatalf("got %q and %q", fromNumber, fromString)
	}

	out, err := json.Marshal(fromNumber)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "25012345" {
		t.Errorf("expected numeric encoding, got %s", out)
	}

	out, err = json.Marshal(INEP("0123"))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `"0123"` {
		t.Errorf("leading zero must stay a string, got %s", out)
	}
}

func TestChamadoDecodesLegacyINEPFields(t *testing.T) {
	payloads := []string{
		`{"id":"a","codigoINEP":"25012345"}`,
		`{"id":"a","codigo_inep":25012345}`,
		`{"id":"a","escola_inep":"2501234-5"}`,
		`{"id":"a","inep":25012345,"codigo_inep":"999"}`,
		`{"id":"a","INEP":"25012345"}`,
	}
	for _, payload := range payloads {
		var c Chamado
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			t.Fatalf("%s: %v", payload, err)
		}
		if c.INEP != "25012345" {
			t.Errorf("%s: INEP = %q", payload, c.INEP)
		}
	}
}

func TestChamadoCreatedAt(t *testing.T) {
	cases := map[string]bool{
		"2025-03-01T10:00:00Z":      true,
		"2025-03-01T10:00:00.123Z":  true,
		"2025-03-01T10:00:00-03:00": true,
		"2025-03-01T10:00:00":       true,
		"2025-03-01":                true,
		"":                          false,
		"ontem":                     false,
	}
	for raw, valid := range cases {
		got := Chamado{DataCriacao: raw}.CreatedAt()
		if got.IsZero() == valid {
			t.Errorf("CreatedAt(%q) zero=%v, want valid=%v", raw, got.IsZero(), valid)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if !StatusConcluido.Terminal() || !StatusRejeitado.Terminal() {
		t.Error("Concluído and Rejeitado are terminal")
	}
	if StatusAguardandoEscola.Terminal() || StatusEmAndamento.Terminal() {
		t.Error("open states must not be terminal")
	}
	if ChamadoStatus("Aberto").Valid() {
		t.Error("unknown status reported valid")
	}
}

func TestTipoValid(t *testing.T) {
	if len(Tipos) != 14 {
		t.Fatalf("expected 14 categories, got %d", len(Tipos))
	}
	if !TipoOutros.Valid() || ChamadoTipo("Diversos").Valid() {
		t.Error("closed set check failed")
	}
}

func TestChamadoRoundTripKeepsEmptyINEP(t *testing.T) {
	in := Chamado{ID: "a", EscolaID: "escola-7", Titulo: "t"}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out Chamado
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("round trip changed the record: wrote %+v read %+v", in, out)
	}

	var legacy Chamado
	if err := json.Unmarshal([]byte(`{"id":"b","inep":"","codigoINEP":"123"}`), &legacy); err != nil {
		t.Fatal(err)
	}
	if legacy.INEP != "" {
		t.Fatalf("a present inep key must win over legacy fields, got %q", legacy.INEP)
	}
}

func TestINEPNumericForms(t *testing.T) {
	accepted := map[string]INEP{
		`25092570`:   "25092570",
		`25092570.0`: "25092570",
		`2.509257e7`: "25092570",
	}
	for in, want := range accepted {
		var got INEP
		if err := json.Unmarshal([]byte(in), &got); err != nil {
			t.Errorf("%s: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("%s decoded to %q, want %q", in, got, want)
		}
	}
	for _, in := range []string{`25092570.5`, `-12`, `1e400`} {
		var got INEP
		if err := json.Unmarshal([]byte(in), &got); err == nil {
			t.Errorf("%s should be rejected, decoded to %q", in, got)
		}
	}
}
