package calendario

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/redelumiar/plataforma/internal/http/middleware"
	"github.com/redelumiar/plataforma/internal/rbac"
)

// Handler orquestra as rotas do calendário escolar.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/calendario", func(r chi.Router) {
		r.Get("/", h.handleListar)
		r.Post("/", h.handleCriar)
		r.Get("/{id}", h.handleObter)
		r.Patch("/{id}", h.handleAtualizar)
		r.Delete("/{id}", h.handleRemover)
	})
}

// podeGerirCalendario restringe escrita aos papéis de gestão e coordenação.
func podeGerirCalendario(p rbac.Papel) bool {
	switch p {
	case rbac.PapelMaster, rbac.PapelDiretoraGeral, rbac.PapelGerenteUnidade:
		return true
	default:
		return p.Coordenacao()
	}
}

func (h *Handler) handleListar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := httpmiddleware.UsuarioDoContexto(ctx); err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	filter := EventoFilter{}
	if unidadeStr := httpmiddleware.GetUnidade(ctx); unidadeStr != "" {
		if uid, err := uuid.Parse(unidadeStr); err == nil {
			filter.UnidadeID = &uid
		}
	}
	if de := r.URL.Query().Get("de"); de != "" {
		t, err := time.Parse("2006-01-02", de)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "data inicial inválida", map[string]string{"campo": "de"})
			return
		}
		filter.De = &t
	}
	if ate := r.URL.Query().Get("ate"); ate != "" {
		t, err := time.Parse("2006-01-02", ate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "data final inválida", map[string]string{"campo": "ate"})
			return
		}
		// Inclui o dia inteiro da data final.
		t = t.Add(24*time.Hour - time.Nanosecond)
		filter.Ate = &t
	}

	eventos, err := h.service.Listar(ctx, filter)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"eventos": eventos})
}

func (h *Handler) handleCriar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	usuario, err := httpmiddleware.UsuarioDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}
	if !podeGerirCalendario(usuario.Papel) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
		return
	}

	var payload CreateEventoInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	criadoPor := usuario.ID
	evento, err := h.service.Criar(ctx, payload, &criadoPor)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"evento": evento})
}

func (h *Handler) handleObter(w http.ResponseWriter, r *http.Request) {
	if _, err := httpmiddleware.UsuarioDoContexto(r.Context()); err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "evento inválido", nil)
		return
	}

	evento, err := h.service.Obter(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"evento": evento})
}

func (h *Handler) handleAtualizar(w http.ResponseWriter, r *http.Request) {
	usuario, err := httpmiddleware.UsuarioDoContexto(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}
	if !podeGerirCalendario(usuario.Papel) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "evento inválido", nil)
		return
	}

	var payload UpdateEventoInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	evento, err := h.service.Atualizar(r.Context(), id, payload)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"evento": evento})
}

func (h *Handler) handleRemover(w http.ResponseWriter, r *http.Request) {
	usuario, err := httpmiddleware.UsuarioDoContexto(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}
	if !podeGerirCalendario(usuario.Papel) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "evento inválido", nil)
		return
	}

	if err := h.service.Remover(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "REMOVIDO"})
}

func handleDomainError(w http.ResponseWriter, err error) {
	var valErr *ErroValidacao
	switch {
	case errors.As(err, &valErr):
		writeError(w, http.StatusBadRequest, "VALIDATION", valErr.Motivo, map[string]string{"campo": valErr.Campo})
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "evento não encontrado", nil)
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("calendario handler error")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": payload, "error": nil})
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
