package usuario

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/redelumiar/plataforma/internal/http/middleware"
	"github.com/redelumiar/plataforma/internal/rbac"
	"github.com/redelumiar/plataforma/internal/repo"
)

// Handler orquestra as rotas de administração de contas.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/usuarios", func(r chi.Router) {
		r.Get("/", h.handleListar)
		r.Post("/", h.handleCriar)
		r.Get("/{id}", h.handleObter)
		r.Put("/{id}", h.handleAtualizar)
		r.Put("/{id}/papel", h.handleTrocarPapel)
		r.Post("/{id}/ativar", h.handleAtivar)
		r.Post("/{id}/desativar", h.handleDesativar)
	})
}

// podeGerirContas restringe administração de contas ao topo da hierarquia.
func podeGerirContas(p rbac.Papel) bool {
	switch p {
	case rbac.PapelMaster, rbac.PapelDiretoraGeral, rbac.PapelGerenteUnidade:
		return true
	default:
		return false
	}
}

func (h *Handler) gestor(w http.ResponseWriter, r *http.Request) (rbac.Usuario, bool) {
	usuario, err := httpmiddleware.UsuarioDoContexto(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return rbac.Usuario{}, false
	}
	if !podeGerirContas(usuario.Papel) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
		return rbac.Usuario{}, false
	}
	return usuario, true
}

func (h *Handler) handleListar(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.gestor(w, r); !ok {
		return
	}

	var unidadePtr *uuid.UUID
	if unidadeStr := httpmiddleware.GetUnidade(r.Context()); unidadeStr != "" {
		if uid, err := uuid.Parse(unidadeStr); err == nil {
			unidadePtr = &uid
		}
	}

	perfis, err := h.service.Listar(r.Context(), unidadePtr)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"usuarios": perfis})
}

func (h *Handler) handleCriar(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.gestor(w, r); !ok {
		return
	}

	var payload CreateInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	perfil, err := h.service.Criar(r.Context(), payload)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"usuario": perfil})
}

func (h *Handler) handleObter(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.gestor(w, r); !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "usuário inválido", nil)
		return
	}

	perfil, err := h.service.Obter(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"usuario": perfil})
}

func (h *Handler) handleAtualizar(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.gestor(w, r); !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "usuário inválido", nil)
		return
	}

	var payload struct {
		Nome  string `json:"nome"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if err := h.service.Atualizar(r.Context(), id, payload.Nome, payload.Email); err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ATUALIZADO"})
}

func (h *Handler) handleTrocarPapel(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.gestor(w, r); !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "usuário inválido", nil)
		return
	}

	var payload struct {
		Papel     string     `json:"papel"`
		UnidadeID *uuid.UUID `json:"unidade_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if err := h.service.TrocarPapel(r.Context(), id, payload.Papel, payload.UnidadeID); err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "PAPEL_ATUALIZADO"})
}

func (h *Handler) handleAtivar(w http.ResponseWriter, r *http.Request) {
	h.setAtivo(w, r, true)
}

func (h *Handler) handleDesativar(w http.ResponseWriter, r *http.Request) {
	h.setAtivo(w, r, false)
}

func (h *Handler) setAtivo(w http.ResponseWriter, r *http.Request, ativo bool) {
	if _, ok := h.gestor(w, r); !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "usuário inválido", nil)
		return
	}

	if err := h.service.Ativar(r.Context(), id, ativo); err != nil {
		handleDomainError(w, err)
		return
	}

	status := "DESATIVADO"
	if ativo {
		status = "ATIVADO"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPapelDesconhecido):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), map[string]string{"campo": "papel"})
	case errors.Is(err, repo.ErrDuplicado):
		writeError(w, http.StatusConflict, "CONFLICT", "e-mail já cadastrado", nil)
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "usuário não encontrado", nil)
	default:
		// Validações do serviço chegam como erros simples.
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("usuario handler error")
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
