package planejamento

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpmiddleware "github.com/redelumiar/plataforma/internal/http/middleware"
	"github.com/redelumiar/plataforma/internal/rbac"
)

func newTestRouter(repo *stubRepo) *chi.Mux {
	handler := NewHandler(NewService(repo, nil, nil))
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any, usuario rbac.Usuario) *httptest.ResponseRecorder {
	t.Helper()

	buf := bytes.NewBuffer(nil)
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewBuffer(b)
	}

	req := httptest.NewRequest(method, path, buf)
	ctx := req.Context()
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeySubject, usuario.ID.String())
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyPapel, string(usuario.Papel))
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyAudience, "backoffice")
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPlanejamentoHandlers(t *testing.T) {
	repo := newStubRepo()
	autora := professora()
	coord := coordenadora(rbac.PapelCoordenadoraInfantil)

	rascunho := seed(repo, autora.ID, "INF-1A-2026", StatusRascunho, 0)
	pendente := seed(repo, autora.ID, "INF-2B-2026", StatusPendente, 0)
	router := newTestRouter(repo)

	tests := []struct {
		name    string
		method  string
		path    string
		body    any
		usuario rbac.Usuario
		status  int
	}{
		{"listar", http.MethodGet, "/planejamentos/", nil, autora, http.StatusOK},
		{"criar", http.MethodPost, "/planejamentos/", CriarInput{TurmaCodigo: "INF-3C-2026", Bimestre: 1, Titulo: "Horta", Conteudo: "Plantio"}, autora, http.StatusCreated},
		{"criar sem turma", http.MethodPost, "/planejamentos/", CriarInput{Bimestre: 1, Titulo: "Horta"}, autora, http.StatusBadRequest},
		{"obter", http.MethodGet, "/planejamentos/" + rascunho.ID.String(), nil, autora, http.StatusOK},
		{"obter inexistente", http.MethodGet, "/planejamentos/" + uuid.NewString(), nil, autora, http.StatusNotFound},
		{"obter de outra autora", http.MethodGet, "/planejamentos/" + rascunho.ID.String(), nil, professora(), http.StatusForbidden},
		{"atualizar rascunho", http.MethodPut, "/planejamentos/" + rascunho.ID.String(), map[string]string{"titulo": "Horta II", "conteudo": "Rega"}, autora, http.StatusOK},
		{"aprovar rascunho", http.MethodPost, "/planejamentos/" + rascunho.ID.String() + "/aprovar", nil, coord, http.StatusConflict},
		{"autora aprova o próprio", http.MethodPost, "/planejamentos/" + pendente.ID.String() + "/aprovar", nil, autora, http.StatusForbidden},
		{"ajustes comentário curto", http.MethodPost, "/planejamentos/" + pendente.ID.String() + "/ajustes", map[string]string{"comentario": "curto"}, coord, http.StatusBadRequest},
		{"ajustes", http.MethodPost, "/planejamentos/" + pendente.ID.String() + "/ajustes", map[string]string{"comentario": "Detalhe as atividades de cada semana do bimestre."}, coord, http.StatusOK},
		{"reenviar", http.MethodPost, "/planejamentos/" + pendente.ID.String() + "/reenviar", nil, autora, http.StatusOK},
		{"aprovar", http.MethodPost, "/planejamentos/" + pendente.ID.String() + "/aprovar", nil, coord, http.StatusOK},
		{"revisoes", http.MethodGet, "/planejamentos/" + pendente.ID.String() + "/revisoes", nil, autora, http.StatusOK},
		{"enviar", http.MethodPost, "/planejamentos/" + rascunho.ID.String() + "/enviar", nil, autora, http.StatusOK},
		{"id inválido", http.MethodGet, "/planejamentos/nao-uuid", nil, autora, http.StatusBadRequest},
		{"auxiliar administrativo barrado", http.MethodGet, "/planejamentos/", nil, rbac.Usuario{ID: uuid.New(), Papel: rbac.PapelAuxiliarAdministrativo}, http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, router, tc.method, tc.path, tc.body, tc.usuario)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, esperado %d (corpo: %s)", rec.Code, tc.status, rec.Body.String())
			}
		})
	}
}

func TestErroDeValidacaoApontaCampo(t *testing.T) {
	repo := newStubRepo()
	coord := coordenadora(rbac.PapelCoordenadoraGeral)
	pendente := seed(repo, uuid.New(), "MED-3A-2026", StatusPendente, 0)
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodPost, "/planejamentos/"+pendente.ID.String()+"/ajustes",
		map[string]string{"comentario": strings.Repeat("a", 2001)}, coord)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, esperado 400", rec.Code)
	}

	var resp struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "VALIDATION" || resp.Error.Details["campo"] != "comentario" {
		t.Fatalf("erro deve apontar o campo comentario: %+v", resp.Error)
	}
}

func TestRevisoesDePlanoAlheioSaoRestritas(t *testing.T) {
	repo := newStubRepo()
	pendente := seed(repo, uuid.New(), "BERC-1A-2026", StatusPendente, 0)
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/planejamentos/"+pendente.ID.String()+"/revisoes", nil, professora())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, esperado 403", rec.Code)
	}
}
