package turma

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/redelumiar/plataforma/internal/http/middleware"
	"github.com/redelumiar/plataforma/internal/rbac"
)

// Handler orquestra as rotas do módulo de turmas.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/turmas", func(r chi.Router) {
		r.Get("/", h.handleListar)
		r.Post("/", h.handleCriar)
		r.Get("/{id}", h.handleObter)
		r.Post("/{id}/arquivar", h.handleArquivar)
	})
}

// podeGerirTurmas restringe cadastro e arquivamento à gestão da rede.
func podeGerirTurmas(p rbac.Papel) bool {
	switch p {
	case rbac.PapelMaster, rbac.PapelDiretoraGeral, rbac.PapelGerenteUnidade, rbac.PapelCoordenadoraGeral:
		return true
	default:
		return false
	}
}

func (h *Handler) handleListar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	usuario, err := httpmiddleware.UsuarioDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var unidadePtr *uuid.UUID
	if unidadeStr := httpmiddleware.GetUnidade(ctx); unidadeStr != "" {
		uid, err := uuid.Parse(unidadeStr)
		if err == nil {
			unidadePtr = &uid
		}
	}

	turmas, err := h.service.Listar(ctx, usuario, unidadePtr)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"turmas": turmas})
}

func (h *Handler) handleCriar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	usuario, err := httpmiddleware.UsuarioDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}
	if !podeGerirTurmas(usuario.Papel) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
		return
	}

	var payload CreateTurmaInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	criada, err := h.service.Criar(ctx, payload)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"turma": criada})
}

func (h *Handler) handleObter(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "turma inválida", nil)
		return
	}

	t, err := h.service.Obter(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"turma": t})
}

func (h *Handler) handleArquivar(w http.ResponseWriter, r *http.Request) {
	usuario, err := httpmiddleware.UsuarioDoContexto(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}
	if !podeGerirTurmas(usuario.Papel) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "turma inválida", nil)
		return
	}

	if err := h.service.Arquivar(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ARQUIVADA"})
}

func handleDomainError(w http.ResponseWriter, err error) {
	var valErr *ErroValidacao
	switch {
	case errors.As(err, &valErr):
		writeError(w, http.StatusBadRequest, "VALIDATION", valErr.Motivo, map[string]string{"campo": valErr.Campo})
	case errors.Is(err, ErrDuplicada):
		writeError(w, http.StatusConflict, "CONFLICT", "código de turma já cadastrado", nil)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "turma não encontrada", nil)
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("turma handler error")
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
