package unidade

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/redelumiar/plataforma/internal/http/middleware"
	"github.com/redelumiar/plataforma/internal/rbac"
)

// Handler orquestra as rotas de administração de unidades.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/unidades", func(r chi.Router) {
		r.Get("/", h.handleListar)
		r.Post("/", h.handleCriar)
		r.Get("/{id}", h.handleObter)
		r.Put("/{id}/settings", h.handleSettings)
		r.Post("/{id}/ativar", h.handleAtivo(true))
		r.Post("/{id}/desativar", h.handleAtivo(false))
	})
}

// podeGerirUnidades restringe o cadastro de escolas à direção da rede.
func podeGerirUnidades(p rbac.Papel) bool {
	return p == rbac.PapelMaster || p == rbac.PapelDiretoraGeral
}

func (h *Handler) handleListar(w http.ResponseWriter, r *http.Request) {
	if _, err := httpmiddleware.UsuarioDoContexto(r.Context()); err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	unidades, err := h.service.List(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"unidades": unidades})
}

func (h *Handler) handleCriar(w http.ResponseWriter, r *http.Request) {
	usuario, err := httpmiddleware.UsuarioDoContexto(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}
	if !podeGerirUnidades(usuario.Papel) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
		return
	}

	var payload struct {
		Slug     string         `json:"slug"`
		Nome     string         `json:"nome"`
		Endereco string         `json:"endereco"`
		Telefone string         `json:"telefone"`
		Settings map[string]any `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	if strings.TrimSpace(payload.Slug) == "" || strings.TrimSpace(payload.Nome) == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION", "slug e nome obrigatórios", nil)
		return
	}

	criada, err := h.service.Create(r.Context(), CreateUnidadeInput{
		Slug:     payload.Slug,
		Nome:     payload.Nome,
		Endereco: payload.Endereco,
		Telefone: payload.Telefone,
		Settings: payload.Settings,
	})
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"unidade": criada})
}

func (h *Handler) handleObter(w http.ResponseWriter, r *http.Request) {
	if _, err := httpmiddleware.UsuarioDoContexto(r.Context()); err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "unidade inválida", nil)
		return
	}

	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "unidade não encontrada", nil)
			return
		}
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"unidade": u})
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	usuario, err := httpmiddleware.UsuarioDoContexto(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}
	if !podeGerirUnidades(usuario.Papel) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
		return
	}

	var settings map[string]any
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if err := h.service.UpdateSettings(r.Context(), chi.URLParam(r, "id"), settings); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "unidade não encontrada", nil)
			return
		}
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ATUALIZADO"})
}

func (h *Handler) handleAtivo(ativo bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		usuario, err := httpmiddleware.UsuarioDoContexto(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
			return
		}
		if !podeGerirUnidades(usuario.Papel) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "unidade inválida", nil)
			return
		}

		if err := h.service.SetAtivo(r.Context(), id, ativo); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "NOT_FOUND", "unidade não encontrada", nil)
				return
			}
			writeInternalError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"ativo": ativo})
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("unidade handler error")
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
