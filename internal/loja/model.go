package loja

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProdutoNotFound     = errors.New("produto não encontrado")
	ErrPedidoNotFound      = errors.New("pedido não encontrado")
	ErrVoucherInvalido     = errors.New("voucher inválido ou já resgatado")
	ErrEstoqueInsuficiente = errors.New("estoque insuficiente")
)

// ErroValidacao aponta o campo rejeitado nas operações da loja.
type ErroValidacao struct {
	Campo  string
	Motivo string
}

func (e *ErroValidacao) Error() string {
	return e.Campo + ": " + e.Motivo
}

// Produto é um item do enxoval escolar vendido pela rede (uniformes,
// agendas, materiais). Preço em centavos para evitar ponto flutuante.
type Produto struct {
	ID            uuid.UUID `json:"id"`
	Nome          string    `json:"nome"`
	Descricao     string    `json:"descricao"`
	Tamanho       string    `json:"tamanho,omitempty"`
	PrecoCentavos int       `json:"preco_centavos"`
	Estoque       int       `json:"estoque"`
	ImagemURL     *string   `json:"imagem_url,omitempty"`
	Ativo         bool      `json:"ativo"`
	CriadoEm      time.Time `json:"criado_em"`
	AtualizadoEm  time.Time `json:"atualizado_em"`
}

// Voucher autoriza a retirada de itens sem pagamento no balcão. Cada código
// é de uso único.
type Voucher struct {
	ID          uuid.UUID  `json:"id"`
	Codigo      string     `json:"codigo"`
	Descricao   string     `json:"descricao"`
	Resgatado   bool       `json:"resgatado"`
	ResgatadoEm *time.Time `json:"resgatado_em,omitempty"`
	CriadoEm    time.Time  `json:"criado_em"`
}

// Pedido registra uma retirada efetivada com voucher.
type Pedido struct {
	ID            uuid.UUID    `json:"id"`
	UsuarioID     *uuid.UUID   `json:"usuario_id,omitempty"`
	VoucherID     uuid.UUID    `json:"voucher_id"`
	TotalCentavos int          `json:"total_centavos"`
	Itens         []ItemPedido `json:"itens"`
	CriadoEm      time.Time    `json:"criado_em"`
}

// ItemPedido é uma linha do pedido com o preço congelado no momento da compra.
type ItemPedido struct {
	ProdutoID     uuid.UUID `json:"produto_id"`
	Quantidade    int       `json:"quantidade"`
	PrecoCentavos int       `json:"preco_centavos"`
}

// CreateProdutoInput contém os campos de cadastro de produto.
type CreateProdutoInput struct {
	Nome          string `json:"nome"`
	Descricao     string `json:"descricao"`
	Tamanho       string `json:"tamanho"`
	PrecoCentavos int    `json:"preco_centavos"`
	Estoque       int    `json:"estoque"`
}

// CheckoutInput descreve um pedido a efetivar: um voucher e os itens.
type CheckoutInput struct {
	CodigoVoucher string         `json:"voucher"`
	Itens         []ItemCheckout `json:"itens"`
}

// ItemCheckout é a linha solicitada no checkout.
type ItemCheckout struct {
	ProdutoID  uuid.UUID `json:"produto_id"`
	Quantidade int       `json:"quantidade"`
}
