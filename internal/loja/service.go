package loja

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/redelumiar/plataforma/internal/storage"
	"github.com/redelumiar/plataforma/internal/util"
)

// Repo abstrai a persistência para permitir stubs nos testes.
type Repo interface {
	CreateProduto(ctx context.Context, input CreateProdutoInput) (*Produto, error)
	GetProduto(ctx context.Context, id uuid.UUID) (*Produto, error)
	ListProdutos(ctx context.Context) ([]Produto, error)
	AjustarEstoque(ctx context.Context, id uuid.UUID, delta int) (*Produto, error)
	SetImagemURL(ctx context.Context, id uuid.UUID, url string) error
	CreateVoucher(ctx context.Context, codigo, descricao string) (*Voucher, error)
	GetVoucherByCodigo(ctx context.Context, codigo string) (*Voucher, error)
	CriarPedido(ctx context.Context, usuarioID *uuid.UUID, codigoVoucher string, itens []ItemCheckout) (*Pedido, error)
	GetPedido(ctx context.Context, id uuid.UUID) (*Pedido, error)
}

// Service concentra as regras da loja de uniformes.
type Service struct {
	repo     Repo
	uploader storage.Uploader
}

// NewService cria o serviço. uploader pode ser nil quando não há backend de
// arquivos configurado.
func NewService(repo Repo, uploader storage.Uploader) *Service {
	return &Service{repo: repo, uploader: uploader}
}

// CriarProduto cadastra um produto no catálogo.
func (s *Service) CriarProduto(ctx context.Context, input CreateProdutoInput) (*Produto, error) {
	input.Nome = strings.TrimSpace(input.Nome)
	input.Descricao = strings.TrimSpace(input.Descricao)
	input.Tamanho = strings.ToUpper(strings.TrimSpace(input.Tamanho))

	if input.Nome == "" {
		return nil, &ErroValidacao{Campo: "nome", Motivo: "obrigatório"}
	}
	if input.PrecoCentavos < 0 {
		return nil, &ErroValidacao{Campo: "preco_centavos", Motivo: "negativo"}
	}
	if input.Estoque < 0 {
		return nil, &ErroValidacao{Campo: "estoque", Motivo: "negativo"}
	}

	return s.repo.CreateProduto(ctx, input)
}

// ListarProdutos devolve o catálogo ativo.
func (s *Service) ListarProdutos(ctx context.Context) ([]Produto, error) {
	return s.repo.ListProdutos(ctx)
}

// ObterProduto busca um produto.
func (s *Service) ObterProduto(ctx context.Context, id uuid.UUID) (*Produto, error) {
	return s.repo.GetProduto(ctx, id)
}

// ReporEstoque soma delta ao estoque. Delta negativo corrige inventário, mas
// nunca pode deixar o estoque negativo.
func (s *Service) ReporEstoque(ctx context.Context, id uuid.UUID, delta int) (*Produto, error) {
	if delta == 0 {
		return nil, &ErroValidacao{Campo: "delta", Motivo: "zero"}
	}
	return s.repo.AjustarEstoque(ctx, id, delta)
}

// AnexarImagem sobe a imagem do produto para o storage e grava a URL pública.
func (s *Service) AnexarImagem(ctx context.Context, id uuid.UUID, body []byte, contentType string) (string, error) {
	if s.uploader == nil {
		return "", &ErroValidacao{Campo: "imagem", Motivo: "upload não configurado"}
	}
	if len(body) == 0 {
		return "", &ErroValidacao{Campo: "imagem", Motivo: "corpo vazio"}
	}
	if _, err := s.repo.GetProduto(ctx, id); err != nil {
		return "", err
	}

	key := fmt.Sprintf("loja/produtos/%s/%s", id, util.NewID())
	result, err := s.uploader.Upload(ctx, storage.UploadInput{
		Key:          key,
		Body:         body,
		ContentType:  contentType,
		CacheControl: "public, max-age=86400",
	})
	if err != nil {
		return "", err
	}

	if err := s.repo.SetImagemURL(ctx, id, result.URL); err != nil {
		return "", err
	}
	return result.URL, nil
}

// EmitirVoucher gera um voucher de uso único. Sem código informado, um
// aleatório curto é emitido.
func (s *Service) EmitirVoucher(ctx context.Context, codigo, descricao string) (*Voucher, error) {
	codigo = strings.ToUpper(strings.TrimSpace(codigo))
	if codigo == "" {
		codigo = strings.ToUpper(util.NewID()[:8])
	}
	return s.repo.CreateVoucher(ctx, codigo, strings.TrimSpace(descricao))
}

// ConsultarVoucher devolve a situação de um voucher pelo código.
func (s *Service) ConsultarVoucher(ctx context.Context, codigo string) (*Voucher, error) {
	return s.repo.GetVoucherByCodigo(ctx, codigo)
}

// Checkout efetiva o pedido: valida as linhas e delega a transação ao
// repositório (resgate do voucher + baixa de estoque são atômicos).
func (s *Service) Checkout(ctx context.Context, usuarioID *uuid.UUID, input CheckoutInput) (*Pedido, error) {
	if strings.TrimSpace(input.CodigoVoucher) == "" {
		return nil, &ErroValidacao{Campo: "voucher", Motivo: "obrigatório"}
	}
	if len(input.Itens) == 0 {
		return nil, &ErroValidacao{Campo: "itens", Motivo: "pedido vazio"}
	}
	for _, item := range input.Itens {
		if item.Quantidade <= 0 {
			return nil, &ErroValidacao{Campo: "itens", Motivo: "quantidade inválida"}
		}
	}

	return s.repo.CriarPedido(ctx, usuarioID, input.CodigoVoucher, input.Itens)
}

// ObterPedido recupera um pedido efetivado.
func (s *Service) ObterPedido(ctx context.Context, id uuid.UUID) (*Pedido, error) {
	return s.repo.GetPedido(ctx, id)
}
