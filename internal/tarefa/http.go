package tarefa

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

// Handler orquestra as rotas de tarefas administrativas.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tarefas", func(r chi.Router) {
		r.Get("/", h.handleListar)
		r.Post("/", h.handleCriar)
		r.Get("/{id}", h.handleObter)
		r.Patch("/{id}", h.handleAtualizar)
		r.Get("/{id}/comentarios", h.handleListarComentarios)
		r.Post("/{id}/comentarios", h.handleComentar)
	})
}

func autenticado(w http.ResponseWriter, r *http.Request) (rbac.Usuario, bool) {
	usuario, err := httpmiddleware.UsuarioDoContexto(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return rbac.Usuario{}, false
	}
	return usuario, true
}

func (h *Handler) handleListar(w http.ResponseWriter, r *http.Request) {
	if _, ok := autenticado(w, r); !ok {
		return
	}

	filter := TarefaFilter{}
	if unidadeStr := httpmiddleware.GetUnidade(r.Context()); unidadeStr != "" {
		if uid, err := uuid.Parse(unidadeStr); err == nil {
			filter.UnidadeID = &uid
		}
	}
	if status := r.URL.Query()["status"]; len(status) > 0 {
		filter.Status = status
	}

	tarefas, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tarefas": tarefas})
}

func (h *Handler) handleCriar(w http.ResponseWriter, r *http.Request) {
	usuario, ok := autenticado(w, r)
	if !ok {
		return
	}

	var payload struct {
		UnidadeID   *uuid.UUID `json:"unidade_id"`
		Titulo      string     `json:"titulo"`
		Categoria   string     `json:"categoria"`
		Descricao   string     `json:"descricao"`
		Prioridade  string     `json:"prioridade"`
		Responsavel *uuid.UUID `json:"responsavel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	criadoPor := usuario.ID
	criada, err := h.service.Create(r.Context(), CreateTarefaInput{
		UnidadeID:   payload.UnidadeID,
		Titulo:      payload.Titulo,
		Categoria:   payload.Categoria,
		Descricao:   payload.Descricao,
		Prioridade:  payload.Prioridade,
		CriadoPor:   &criadoPor,
		Responsavel: payload.Responsavel,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"tarefa": criada})
}

func (h *Handler) handleObter(w http.ResponseWriter, r *http.Request) {
	if _, ok := autenticado(w, r); !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "tarefa inválida", nil)
		return
	}

	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tarefa": t})
}

func (h *Handler) handleAtualizar(w http.ResponseWriter, r *http.Request) {
	if _, ok := autenticado(w, r); !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "tarefa inválida", nil)
		return
	}

	var payload struct {
		Status           *string    `json:"status"`
		Prioridade       *string    `json:"prioridade"`
		Responsavel      *uuid.UUID `json:"responsavel"`
		ClearResponsavel bool       `json:"limpar_responsavel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	atualizada, err := h.service.Update(r.Context(), id, payload.Status, payload.Prioridade, payload.Responsavel, payload.ClearResponsavel)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tarefa": atualizada})
}

func (h *Handler) handleComentar(w http.ResponseWriter, r *http.Request) {
	usuario, ok := autenticado(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "tarefa inválida", nil)
		return
	}

	var payload struct {
		Texto string `json:"texto"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	autorID := usuario.ID
	comentario, err := h.service.AddComentario(r.Context(), id, &autorID, payload.Texto)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "tarefa não encontrada", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"comentario": comentario})
}

func (h *Handler) handleListarComentarios(w http.ResponseWriter, r *http.Request) {
	if _, ok := autenticado(w, r); !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "tarefa inválida", nil)
		return
	}

	comentarios, err := h.service.ListComentarios(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"comentarios": comentarios})
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidPrioridade):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "tarefa não encontrada", nil)
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("tarefa handler error")
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
