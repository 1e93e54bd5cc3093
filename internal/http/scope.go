package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	httpmiddleware "github.com/redelumiar/plataforma/internal/http/middleware"
	"github.com/redelumiar/plataforma/internal/unidade"
)

// UnidadeValidator confirma o vínculo do usuário com a unidade ativa.
type UnidadeValidator interface {
	ValidateUnidadeAccess(ctx context.Context, usuarioID, unidadeID uuid.UUID) error
}

// Scope valida a unidade ativa para rotas operadas por unidade. Papéis de
// rede (sem unidade fixa) passam em qualquer unidade; a decisão mora no
// serviço de unidades. Unidade inexistente e vínculo ausente respondem o
// mesmo 403 para não revelar o catálogo.
func Scope(unidades UnidadeValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.ToLower(httpmiddleware.GetAudience(r.Context())) != "backoffice" {
				next.ServeHTTP(w, r)
				return
			}

			unidadeID := r.Header.Get("X-Unidade")
			if unidadeID == "" {
				unidadeID = r.URL.Query().Get("unidade_id")
			}
			if unidadeID == "" {
				WriteError(w, http.StatusBadRequest, "VALIDATION", "Unidade não informada", nil)
				return
			}

			uid, err := uuid.Parse(unidadeID)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "VALIDATION", "Unidade inválida", nil)
				return
			}

			subUUID, err := uuid.Parse(httpmiddleware.GetSubject(r.Context()))
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "AUTH", "subject inválido", nil)
				return
			}

			if err := unidades.ValidateUnidadeAccess(r.Context(), subUUID, uid); err != nil {
				if errors.Is(err, unidade.ErrSemVinculo) || errors.Is(err, unidade.ErrNotFound) {
					WriteError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso à unidade", nil)
					return
				}
				WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
				return
			}

			ctx := context.WithValue(r.Context(), httpmiddleware.ContextKeyUnidade, uid.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
