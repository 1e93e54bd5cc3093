package planejamento

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/redelumiar/plataforma/internal/http/middleware"
	"github.com/redelumiar/plataforma/internal/rbac"
)

// Handler orquestra as rotas do módulo de planejamento.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/planejamentos", func(r chi.Router) {
		r.Get("/", h.handleListar)
		r.Post("/", h.handleCriar)
		r.Get("/{id}", h.handleObter)
		r.Put("/{id}", h.handleAtualizar)
		r.Post("/{id}/enviar", h.handleEnviar)
		r.Post("/{id}/aprovar", h.handleAprovar)
		r.Post("/{id}/ajustes", h.handleSolicitarAjustes)
		r.Post("/{id}/reenviar", h.handleReenviar)
		r.Get("/{id}/revisoes", h.handleListarRevisoes)
	})
}

// usuarioDaRequisicao autentica e aplica o corte de módulo: auxiliar
// administrativo não enxerga planejamento algum.
func usuarioDaRequisicao(w http.ResponseWriter, ctx context.Context) (rbac.Usuario, bool) {
	usuario, err := httpmiddleware.UsuarioDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return rbac.Usuario{}, false
	}
	if !rbac.PodeAcessarModuloPlanejamento(usuario.Papel) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso ao módulo de planejamento", nil)
		return rbac.Usuario{}, false
	}
	return usuario, true
}

func planejamentoID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "planejamento inválido", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) handleListar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	usuario, ok := usuarioDaRequisicao(w, ctx)
	if !ok {
		return
	}

	lista, err := h.service.Listar(ctx, usuario)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	logRequest(ctx, "GET /planejamentos", usuario.ID, start)
	writeJSON(w, http.StatusOK, map[string]any{"planejamentos": lista})
}

func (h *Handler) handleCriar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	usuario, ok := usuarioDaRequisicao(w, ctx)
	if !ok {
		return
	}

	var payload CriarInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	criado, err := h.service.Criar(ctx, usuario, payload)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	logRequest(ctx, "POST /planejamentos", usuario.ID, start)
	writeJSON(w, http.StatusCreated, map[string]any{"planejamento": criado})
}

func (h *Handler) handleObter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	usuario, ok := usuarioDaRequisicao(w, ctx)
	if !ok {
		return
	}
	id, ok := planejamentoID(w, r)
	if !ok {
		return
	}

	p, err := h.service.Obter(ctx, usuario, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"planejamento": p})
}

func (h *Handler) handleAtualizar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	usuario, ok := usuarioDaRequisicao(w, ctx)
	if !ok {
		return
	}
	id, ok := planejamentoID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Titulo   string `json:"titulo"`
		Conteudo string `json:"conteudo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	atualizado, err := h.service.AtualizarRascunho(ctx, usuario, id, payload.Titulo, payload.Conteudo)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	logRequest(ctx, "PUT /planejamentos", usuario.ID, start)
	writeJSON(w, http.StatusOK, map[string]any{"planejamento": atualizado})
}

func (h *Handler) handleEnviar(w http.ResponseWriter, r *http.Request) {
	h.transicao(w, r, "POST /planejamentos/enviar", func(ctx context.Context, u rbac.Usuario, id uuid.UUID) (Planejamento, error) {
		return h.service.Enviar(ctx, u, id)
	})
}

func (h *Handler) handleAprovar(w http.ResponseWriter, r *http.Request) {
	h.transicao(w, r, "POST /planejamentos/aprovar", func(ctx context.Context, u rbac.Usuario, id uuid.UUID) (Planejamento, error) {
		return h.service.Aprovar(ctx, u, id)
	})
}

func (h *Handler) handleReenviar(w http.ResponseWriter, r *http.Request) {
	h.transicao(w, r, "POST /planejamentos/reenviar", func(ctx context.Context, u rbac.Usuario, id uuid.UUID) (Planejamento, error) {
		return h.service.Reenviar(ctx, u, id)
	})
}

func (h *Handler) handleSolicitarAjustes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	usuario, ok := usuarioDaRequisicao(w, ctx)
	if !ok {
		return
	}
	id, ok := planejamentoID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Comentario string `json:"comentario"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	atualizado, err := h.service.SolicitarAjustes(ctx, usuario, id, payload.Comentario)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	logRequest(ctx, "POST /planejamentos/ajustes", usuario.ID, start)
	writeJSON(w, http.StatusOK, map[string]any{"planejamento": atualizado})
}

func (h *Handler) handleListarRevisoes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	usuario, ok := usuarioDaRequisicao(w, ctx)
	if !ok {
		return
	}
	id, ok := planejamentoID(w, r)
	if !ok {
		return
	}

	revisoes, err := h.service.ListarRevisoes(ctx, usuario, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"revisoes": revisoes})
}

func (h *Handler) transicao(w http.ResponseWriter, r *http.Request, label string, fn func(context.Context, rbac.Usuario, uuid.UUID) (Planejamento, error)) {
	ctx := r.Context()
	start := time.Now()
	usuario, ok := usuarioDaRequisicao(w, ctx)
	if !ok {
		return
	}
	id, ok := planejamentoID(w, r)
	if !ok {
		return
	}

	atualizado, err := fn(ctx, usuario, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	logRequest(ctx, label, usuario.ID, start)
	writeJSON(w, http.StatusOK, map[string]any{"planejamento": atualizado})
}

func handleDomainError(w http.ResponseWriter, err error) {
	var valErr *ErroValidacao
	switch {
	case errors.As(err, &valErr):
		writeError(w, http.StatusBadRequest, "VALIDATION", valErr.Motivo, map[string]string{"campo": valErr.Campo})
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "planejamento não encontrado", nil)
	case errors.Is(err, ErrTransicao), errors.Is(err, ErrConflito):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("planejamento handler error")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
}

func logRequest(ctx context.Context, label string, userID uuid.UUID, start time.Time) {
	logger := log.Ctx(ctx)
	if logger == nil {
		logger = &log.Logger
	}
	reqID := chimiddleware.GetReqID(ctx)
	logger.Info().Str("request_id", reqID).Str("user_id", userID.String()).Str("label", label).Dur("duration", time.Since(start)).Msg("planejamento_request")
}

// Helpers de resposta JSON compatíveis com o resto do projeto.
type successEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

type errorEnvelope struct {
	Data  any            `json:"data"`
	Error *errorResponse `json:"error"`
}

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Data: payload, Error: nil})
}

func writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Data: nil, Error: &errorResponse{Code: code, Message: message, Details: details}})
}
