package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/redelumiar/plataforma/internal/auth"
	"github.com/redelumiar/plataforma/internal/rbac"
)

type contextKey string

const (
	ContextKeySubject  contextKey = "subject"
	ContextKeyAudience contextKey = "audience"
	ContextKeyPapel    contextKey = "papel"
	ContextKeyUnidade  contextKey = "unidade"
)

// Auth valida o JWT de acesso e injeta as claims no contexto.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeAuthError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			if len(claims.Audience) == 0 {
				writeAuthError(w, http.StatusUnauthorized, "AUTH", "audience inválida")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyAudience, claims.Audience[0])
			ctx = context.WithValue(ctx, ContextKeyPapel, claims.Papel)
			ctx = context.WithValue(ctx, ContextKeyUnidade, claims.Unidade)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject recupera o subject do contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetAudience recupera a audience do contexto.
func GetAudience(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyAudience).(string)
	return val
}

// GetPapel recupera o papel do contexto.
func GetPapel(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyPapel).(string)
	return val
}

// GetUnidade recupera a unidade ativa do contexto.
func GetUnidade(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyUnidade).(string)
	return val
}

// UsuarioDoContexto monta a identidade de autorização a partir das claims.
// O papel vem do token como string e segue sem validação de catálogo: papéis
// desconhecidos recebem o tratamento conservador definido em rbac.
func UsuarioDoContexto(ctx context.Context) (rbac.Usuario, error) {
	id, err := uuid.Parse(GetSubject(ctx))
	if err != nil {
		return rbac.Usuario{}, err
	}
	return rbac.Usuario{ID: id, Papel: rbac.Papel(GetPapel(ctx))}, nil
}

// RequirePapel restringe a rota aos papéis informados.
func RequirePapel(papeis ...rbac.Papel) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atual := rbac.Papel(GetPapel(r.Context()))
			for _, p := range papeis {
				if atual == p {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "papel sem acesso a esta rota")
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
