package loja

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/redelumiar/plataforma/internal/http/middleware"
	"github.com/redelumiar/plataforma/internal/rbac"
)

// Limite de upload de imagem de produto.
const maxImagemBytes = 5 << 20

// Handler orquestra as rotas da loja de uniformes.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/loja", func(r chi.Router) {
		r.Get("/produtos", h.handleListarProdutos)
		r.Post("/produtos", h.handleCriarProduto)
		r.Get("/produtos/{id}", h.handleObterProduto)
		r.Post("/produtos/{id}/estoque", h.handleReporEstoque)
		r.Post("/produtos/{id}/imagem", h.handleAnexarImagem)
		r.Post("/vouchers", h.handleEmitirVoucher)
		r.Get("/vouchers/{codigo}", h.handleConsultarVoucher)
		r.Post("/pedidos", h.handleCheckout)
		r.Get("/pedidos/{id}", h.handleObterPedido)
	})
}

// podeGerirLoja restringe catálogo, estoque e vouchers à gestão da rede.
func podeGerirLoja(p rbac.Papel) bool {
	switch p {
	case rbac.PapelMaster, rbac.PapelDiretoraGeral, rbac.PapelGerenteUnidade, rbac.PapelGerenteFinanceiro:
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
	if !podeGerirLoja(usuario.Papel) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
		return rbac.Usuario{}, false
	}
	return usuario, true
}

func (h *Handler) handleListarProdutos(w http.ResponseWriter, r *http.Request) {
	if _, err := httpmiddleware.UsuarioDoContexto(r.Context()); err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	produtos, err := h.service.ListarProdutos(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"produtos": produtos})
}

func (h *Handler) handleCriarProduto(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.gestor(w, r); !ok {
		return
	}

	var payload CreateProdutoInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	produto, err := h.service.CriarProduto(r.Context(), payload)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"produto": produto})
}

func (h *Handler) handleObterProduto(w http.ResponseWriter, r *http.Request) {
	if _, err := httpmiddleware.UsuarioDoContexto(r.Context()); err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "produto inválido", nil)
		return
	}

	produto, err := h.service.ObterProduto(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"produto": produto})
}

func (h *Handler) handleReporEstoque(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.gestor(w, r); !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "produto inválido", nil)
		return
	}

	var payload struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	produto, err := h.service.ReporEstoque(r.Context(), id, payload.Delta)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"produto": produto})
}

func (h *Handler) handleAnexarImagem(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.gestor(w, r); !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "produto inválido", nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxImagemBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "corpo inválido", nil)
		return
	}
	if len(body) > maxImagemBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "VALIDATION", "imagem acima de 5MB", nil)
		return
	}

	url, err := h.service.AnexarImagem(r.Context(), id, body, r.Header.Get("Content-Type"))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"imagem_url": url})
}

func (h *Handler) handleEmitirVoucher(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.gestor(w, r); !ok {
		return
	}

	var payload struct {
		Codigo    string `json:"codigo"`
		Descricao string `json:"descricao"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	voucher, err := h.service.EmitirVoucher(r.Context(), payload.Codigo, payload.Descricao)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"voucher": voucher})
}

func (h *Handler) handleConsultarVoucher(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.gestor(w, r); !ok {
		return
	}

	voucher, err := h.service.ConsultarVoucher(r.Context(), chi.URLParam(r, "codigo"))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"voucher": voucher})
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	usuario, err := httpmiddleware.UsuarioDoContexto(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var payload CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	usuarioID := usuario.ID
	pedido, err := h.service.Checkout(r.Context(), &usuarioID, payload)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"pedido": pedido})
}

func (h *Handler) handleObterPedido(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.gestor(w, r); !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "pedido inválido", nil)
		return
	}

	pedido, err := h.service.ObterPedido(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"pedido": pedido})
}

func handleDomainError(w http.ResponseWriter, err error) {
	var valErr *ErroValidacao
	switch {
	case errors.As(err, &valErr):
		writeError(w, http.StatusBadRequest, "VALIDATION", valErr.Motivo, map[string]string{"campo": valErr.Campo})
	case errors.Is(err, ErrVoucherInvalido):
		writeError(w, http.StatusConflict, "CONFLICT", "voucher inválido ou já resgatado", nil)
	case errors.Is(err, ErrEstoqueInsuficiente):
		writeError(w, http.StatusConflict, "CONFLICT", "estoque insuficiente", nil)
	case errors.Is(err, ErrProdutoNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "produto não encontrado", nil)
	case errors.Is(err, ErrPedidoNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "pedido não encontrado", nil)
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("loja handler error")
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
