package loja

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/redelumiar/plataforma/internal/storage"
)

type stubRepo struct {
	produtos map[uuid.UUID]Produto
	vouchers map[string]Voucher
	pedidos  map[uuid.UUID]Pedido
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		produtos: make(map[uuid.UUID]Produto),
		vouchers: make(map[string]Voucher),
		pedidos:  make(map[uuid.UUID]Pedido),
	}
}

func (s *stubRepo) CreateProduto(ctx context.Context, input CreateProdutoInput) (*Produto, error) {
	p := Produto{
		ID:            uuid.New(),
		Nome:          input.Nome,
		Descricao:     input.Descricao,
		Tamanho:       input.Tamanho,
		PrecoCentavos: input.PrecoCentavos,
		Estoque:       input.Estoque,
		Ativo:         true,
		CriadoEm:      time.Now(),
	}
	s.produtos[p.ID] = p
	return &p, nil
}

func (s *stubRepo) GetProduto(ctx context.Context, id uuid.UUID) (*Produto, error) {
	p, ok := s.produtos[id]
	if !ok {
		return nil, ErrProdutoNotFound
	}
	return &p, nil
}

func (s *stubRepo) ListProdutos(ctx context.Context) ([]Produto, error) {
	var lista []Produto
	for _, p := range s.produtos {
		if p.Ativo {
			lista = append(lista, p)
		}
	}
	return lista, nil
}

func (s *stubRepo) AjustarEstoque(ctx context.Context, id uuid.UUID, delta int) (*Produto, error) {
	p, ok := s.produtos[id]
	if !ok {
		return nil, ErrProdutoNotFound
	}
	if p.Estoque+delta < 0 {
		return nil, ErrEstoqueInsuficiente
	}
	p.Estoque += delta
	s.produtos[id] = p
	return &p, nil
}

func (s *stubRepo) SetImagemURL(ctx context.Context, id uuid.UUID, url string) error {
	p, ok := s.produtos[id]
	if !ok {
		return ErrProdutoNotFound
	}
	p.ImagemURL = &url
	s.produtos[id] = p
	return nil
}

func (s *stubRepo) CreateVoucher(ctx context.Context, codigo, descricao string) (*Voucher, error) {
	v := Voucher{ID: uuid.New(), Codigo: strings.ToUpper(codigo), Descricao: descricao, CriadoEm: time.Now()}
	s.vouchers[v.Codigo] = v
	return &v, nil
}

func (s *stubRepo) GetVoucherByCodigo(ctx context.Context, codigo string) (*Voucher, error) {
	v, ok := s.vouchers[strings.ToUpper(strings.TrimSpace(codigo))]
	if !ok {
		return nil, ErrVoucherInvalido
	}
	return &v, nil
}

// CriarPedido imita a transação real: qualquer falha desfaz baixa de estoque
// e resgate do voucher.
func (s *stubRepo) CriarPedido(ctx context.Context, usuarioID *uuid.UUID, codigoVoucher string, itens []ItemCheckout) (*Pedido, error) {
	codigo := strings.ToUpper(strings.TrimSpace(codigoVoucher))
	v, ok := s.vouchers[codigo]
	if !ok || v.Resgatado {
		return nil, ErrVoucherInvalido
	}

	ajustados := make(map[uuid.UUID]Produto, len(itens))
	total := 0
	linhas := make([]ItemPedido, 0, len(itens))
	for _, item := range itens {
		p, ok := s.produtos[item.ProdutoID]
		if !ok || !p.Ativo || p.Estoque < item.Quantidade {
			return nil, ErrEstoqueInsuficiente
		}
		p.Estoque -= item.Quantidade
		ajustados[p.ID] = p
		total += p.PrecoCentavos * item.Quantidade
		linhas = append(linhas, ItemPedido{ProdutoID: p.ID, Quantidade: item.Quantidade, PrecoCentavos: p.PrecoCentavos})
	}

	for id, p := range ajustados {
		s.produtos[id] = p
	}
	agora := time.Now()
	v.Resgatado = true
	v.ResgatadoEm = &agora
	s.vouchers[codigo] = v

	pedido := Pedido{ID: uuid.New(), UsuarioID: usuarioID, VoucherID: v.ID, TotalCentavos: total, Itens: linhas, CriadoEm: agora}
	s.pedidos[pedido.ID] = pedido
	return &pedido, nil
}

func (s *stubRepo) GetPedido(ctx context.Context, id uuid.UUID) (*Pedido, error) {
	p, ok := s.pedidos[id]
	if !ok {
		return nil, ErrPedidoNotFound
	}
	return &p, nil
}

type stubUploader struct {
	lastKey string
}

func (u *stubUploader) Upload(ctx context.Context, input storage.UploadInput) (*storage.UploadResult, error) {
	u.lastKey = input.Key
	return &storage.UploadResult{URL: "https://cdn.redelumiar.com.br/" + input.Key}, nil
}

func TestCheckoutBaixaEstoqueEResgataVoucher(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	camisa, _ := svc.CriarProduto(ctx, CreateProdutoInput{Nome: "Camisa polo", Tamanho: "m", PrecoCentavos: 4500, Estoque: 10})
	if camisa.Tamanho != "M" {
		t.Fatalf("tamanho não normalizado: %q", camisa.Tamanho)
	}
	if _, err := svc.EmitirVoucher(ctx, "BOLSA-2026", "bolsista integral"); err != nil {
		t.Fatalf("emitir voucher: %v", err)
	}

	pedido, err := svc.Checkout(ctx, nil, CheckoutInput{
		CodigoVoucher: "bolsa-2026",
		Itens:         []ItemCheckout{{ProdutoID: camisa.ID, Quantidade: 2}},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if pedido.TotalCentavos != 9000 {
		t.Fatalf("total = %d, esperado 9000", pedido.TotalCentavos)
	}

	atualizado, _ := svc.ObterProduto(ctx, camisa.ID)
	if atualizado.Estoque != 8 {
		t.Fatalf("estoque = %d, esperado 8", atualizado.Estoque)
	}

	voucher, _ := svc.ConsultarVoucher(ctx, "BOLSA-2026")
	if !voucher.Resgatado {
		t.Fatalf("voucher deveria estar resgatado")
	}

	// Segundo uso do mesmo voucher é rejeitado.
	if _, err := svc.Checkout(ctx, nil, CheckoutInput{
		CodigoVoucher: "BOLSA-2026",
		Itens:         []ItemCheckout{{ProdutoID: camisa.ID, Quantidade: 1}},
	}); !errors.Is(err, ErrVoucherInvalido) {
		t.Fatalf("esperava ErrVoucherInvalido, veio %v", err)
	}
}

func TestCheckoutSemEstoqueNaoResgataVoucher(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	agenda, _ := svc.CriarProduto(ctx, CreateProdutoInput{Nome: "Agenda escolar", PrecoCentavos: 2000, Estoque: 1})
	svc.EmitirVoucher(ctx, "UNICO", "")

	_, err := svc.Checkout(ctx, nil, CheckoutInput{
		CodigoVoucher: "UNICO",
		Itens:         []ItemCheckout{{ProdutoID: agenda.ID, Quantidade: 3}},
	})
	if !errors.Is(err, ErrEstoqueInsuficiente) {
		t.Fatalf("esperava ErrEstoqueInsuficiente, veio %v", err)
	}

	voucher, _ := svc.ConsultarVoucher(ctx, "UNICO")
	if voucher.Resgatado {
		t.Fatalf("falha de estoque não pode consumir o voucher")
	}
}

func TestCheckoutValidaEntrada(t *testing.T) {
	svc := NewService(newStubRepo(), nil)
	ctx := context.Background()

	if _, err := svc.Checkout(ctx, nil, CheckoutInput{Itens: []ItemCheckout{{ProdutoID: uuid.New(), Quantidade: 1}}}); err == nil {
		t.Fatalf("checkout sem voucher deve falhar")
	}
	if _, err := svc.Checkout(ctx, nil, CheckoutInput{CodigoVoucher: "X"}); err == nil {
		t.Fatalf("checkout sem itens deve falhar")
	}
	if _, err := svc.Checkout(ctx, nil, CheckoutInput{CodigoVoucher: "X", Itens: []ItemCheckout{{ProdutoID: uuid.New(), Quantidade: 0}}}); err == nil {
		t.Fatalf("quantidade zero deve falhar")
	}
}

func TestReporEstoqueNaoFicaNegativo(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	tenis, _ := svc.CriarProduto(ctx, CreateProdutoInput{Nome: "Tênis", PrecoCentavos: 12000, Estoque: 2})

	if _, err := svc.ReporEstoque(ctx, tenis.ID, -5); !errors.Is(err, ErrEstoqueInsuficiente) {
		t.Fatalf("correção abaixo de zero deve falhar, veio %v", err)
	}
	atualizado, err := svc.ReporEstoque(ctx, tenis.ID, 10)
	if err != nil {
		t.Fatalf("repor: %v", err)
	}
	if atualizado.Estoque != 12 {
		t.Fatalf("estoque = %d, esperado 12", atualizado.Estoque)
	}
}

func TestAnexarImagemGravaURL(t *testing.T) {
	repo := newStubRepo()
	uploader := &stubUploader{}
	svc := NewService(repo, uploader)
	ctx := context.Background()

	moletom, _ := svc.CriarProduto(ctx, CreateProdutoInput{Nome: "Moletom", PrecoCentavos: 9000, Estoque: 5})

	url, err := svc.AnexarImagem(ctx, moletom.ID, []byte{0xFF, 0xD8}, "image/jpeg")
	if err != nil {
		t.Fatalf("anexar: %v", err)
	}
	if !strings.HasPrefix(uploader.lastKey, "loja/produtos/"+moletom.ID.String()+"/") {
		t.Fatalf("chave de upload inesperada: %s", uploader.lastKey)
	}

	atualizado, _ := svc.ObterProduto(ctx, moletom.ID)
	if atualizado.ImagemURL == nil || *atualizado.ImagemURL != url {
		t.Fatalf("imagem_url não gravada")
	}
}

func TestAnexarImagemSemUploader(t *testing.T) {
	svc := NewService(newStubRepo(), nil)

	if _, err := svc.AnexarImagem(context.Background(), uuid.New(), []byte{1}, "image/png"); err == nil {
		t.Fatalf("sem uploader configurado deve falhar")
	}
}
