package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	httpmiddleware "github.com/redelumiar/plataforma/internal/http/middleware"
	"github.com/redelumiar/plataforma/internal/unidade"
)

type stubValidator struct {
	err error
}

func (s *stubValidator) ValidateUnidadeAccess(ctx context.Context, usuarioID, unidadeID uuid.UUID) error {
	return s.err
}

func scopedRequest(t *testing.T, audience, header string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/tarefas", nil)
	ctx := context.WithValue(req.Context(), httpmiddleware.ContextKeySubject, uuid.NewString())
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyAudience, audience)
	if header != "" {
		req.Header.Set("X-Unidade", header)
	}
	return req.WithContext(ctx)
}

func runScope(t *testing.T, validator *stubValidator, req *http.Request) (*httptest.ResponseRecorder, *string) {
	t.Helper()
	var unidadeNoContexto *string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := httpmiddleware.GetUnidade(r.Context())
		unidadeNoContexto = &u
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	Scope(validator)(next).ServeHTTP(rec, req)
	return rec, unidadeNoContexto
}

func TestScopeInjetaUnidadeValidada(t *testing.T) {
	uid := uuid.New()
	rec, unidadeNoContexto := runScope(t, &stubValidator{}, scopedRequest(t, "backoffice", uid.String()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if unidadeNoContexto == nil || *unidadeNoContexto != uid.String() {
		t.Fatalf("unidade validada deve chegar ao contexto do handler")
	}
}

func TestScopeExigeUnidade(t *testing.T) {
	rec, unidadeNoContexto := runScope(t, &stubValidator{}, scopedRequest(t, "backoffice", ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("sem X-Unidade esperava 400, veio %d", rec.Code)
	}
	if unidadeNoContexto != nil {
		t.Fatalf("handler não pode executar sem unidade")
	}
}

func TestScopeNaoVazaExistenciaDaUnidade(t *testing.T) {
	for _, caso := range []struct {
		nome string
		err  error
	}{
		{"sem vínculo", unidade.ErrSemVinculo},
		{"unidade inexistente", unidade.ErrNotFound},
	} {
		t.Run(caso.nome, func(t *testing.T) {
			rec, _ := runScope(t, &stubValidator{err: caso.err}, scopedRequest(t, "backoffice", uuid.NewString()))

			if rec.Code != http.StatusForbidden {
				t.Fatalf("esperava 403, veio %d", rec.Code)
			}

			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body: %v", err)
			}
			if body.Error.Code != "FORBIDDEN" || body.Error.Message != "sem acesso à unidade" {
				t.Fatalf("resposta deve ser genérica, veio %s/%s", body.Error.Code, body.Error.Message)
			}
			if strings.Contains(rec.Body.String(), "não encontrada") {
				t.Fatalf("403 não pode revelar se a unidade existe")
			}
		})
	}
}

func TestScopeErroDeInfraVira500(t *testing.T) {
	rec, _ := runScope(t, &stubValidator{err: errors.New("conexão recusada")}, scopedRequest(t, "backoffice", uuid.NewString()))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("erro de infraestrutura esperava 500, veio %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "conexão recusada") {
		t.Fatalf("erro interno não pode vazar detalhe")
	}
}

func TestScopeIgnoraOutrasAudiences(t *testing.T) {
	rec, unidadeNoContexto := runScope(t, &stubValidator{err: unidade.ErrSemVinculo}, scopedRequest(t, "portal", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("audience fora do backoffice passa direto, veio %d", rec.Code)
	}
	if unidadeNoContexto == nil {
		t.Fatalf("handler deve executar")
	}
}
