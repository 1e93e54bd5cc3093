package loja

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/redelumiar/plataforma/internal/db"
)

const dbTimeout = 3 * time.Second

// Repository provê acesso às tabelas da loja. O checkout roda em transação
// única: baixa de estoque, resgate do voucher e gravação do pedido.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const produtoColumns = `id, nome, descricao, tamanho, preco_centavos, estoque, imagem_url, ativo, criado_em, atualizado_em`

func scanProduto(row pgx.Row) (*Produto, error) {
	var p Produto
	err := row.Scan(&p.ID, &p.Nome, &p.Descricao, &p.Tamanho, &p.PrecoCentavos, &p.Estoque, &p.ImagemURL, &p.Ativo, &p.CriadoEm, &p.AtualizadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProdutoNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreateProduto cadastra um novo produto.
func (r *Repository) CreateProduto(ctx context.Context, input CreateProdutoInput) (*Produto, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO loja_produtos (nome, descricao, tamanho, preco_centavos, estoque)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+produtoColumns+`
	`, input.Nome, input.Descricao, input.Tamanho, input.PrecoCentavos, input.Estoque)
	return scanProduto(row)
}

// GetProduto busca um produto pelo identificador.
func (r *Repository) GetProduto(ctx context.Context, id uuid.UUID) (*Produto, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		SELECT `+produtoColumns+`
		FROM loja_produtos
		WHERE id = $1
	`, id)
	return scanProduto(row)
}

// ListProdutos devolve os produtos ativos do catálogo.
func (r *Repository) ListProdutos(ctx context.Context) ([]Produto, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT `+produtoColumns+`
		FROM loja_produtos
		WHERE ativo
		ORDER BY nome
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var produtos []Produto
	for rows.Next() {
		p, err := scanProduto(rows)
		if err != nil {
			return nil, err
		}
		produtos = append(produtos, *p)
	}
	return produtos, rows.Err()
}

// AjustarEstoque soma delta ao estoque (reposição ou correção de inventário).
func (r *Repository) AjustarEstoque(ctx context.Context, id uuid.UUID, delta int) (*Produto, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		UPDATE loja_produtos
		SET estoque = estoque + $2, atualizado_em = now()
		WHERE id = $1 AND estoque + $2 >= 0
		RETURNING `+produtoColumns+`
	`, id, delta)

	p, err := scanProduto(row)
	if err != nil {
		if errors.Is(err, ErrProdutoNotFound) {
			// Distingue produto ausente de estoque que ficaria negativo.
			if _, getErr := r.GetProduto(ctx, id); getErr == nil {
				return nil, ErrEstoqueInsuficiente
			}
			return nil, ErrProdutoNotFound
		}
		return nil, err
	}
	return p, nil
}

// SetImagemURL grava a URL pública da imagem do produto.
func (r *Repository) SetImagemURL(ctx context.Context, id uuid.UUID, url string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := r.pool.Exec(ctx, `
		UPDATE loja_produtos SET imagem_url = $2, atualizado_em = now() WHERE id = $1
	`, id, url)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrProdutoNotFound
	}
	return nil
}

// CreateVoucher emite um voucher de uso único.
func (r *Repository) CreateVoucher(ctx context.Context, codigo, descricao string) (*Voucher, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var v Voucher
	err := r.pool.QueryRow(ctx, `
		INSERT INTO loja_vouchers (codigo, descricao)
		VALUES (upper($1), $2)
		RETURNING id, codigo, descricao, resgatado, resgatado_em, criado_em
	`, strings.TrimSpace(codigo), descricao).Scan(&v.ID, &v.Codigo, &v.Descricao, &v.Resgatado, &v.ResgatadoEm, &v.CriadoEm)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetVoucherByCodigo localiza um voucher pelo código.
func (r *Repository) GetVoucherByCodigo(ctx context.Context, codigo string) (*Voucher, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var v Voucher
	err := r.pool.QueryRow(ctx, `
		SELECT id, codigo, descricao, resgatado, resgatado_em, criado_em
		FROM loja_vouchers
		WHERE codigo = upper($1)
	`, strings.TrimSpace(codigo)).Scan(&v.ID, &v.Codigo, &v.Descricao, &v.Resgatado, &v.ResgatadoEm, &v.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVoucherInvalido
		}
		return nil, err
	}
	return &v, nil
}

// CriarPedido efetiva o pedido em uma transação: resgata o voucher, baixa o
// estoque de cada item e grava pedido e linhas. Qualquer falha desfaz tudo.
func (r *Repository) CriarPedido(ctx context.Context, usuarioID *uuid.UUID, codigoVoucher string, itens []ItemCheckout) (*Pedido, error) {
	var pedido Pedido

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var voucherID uuid.UUID
		err := tx.QueryRow(ctx, `
			UPDATE loja_vouchers
			SET resgatado = TRUE, resgatado_em = now()
			WHERE codigo = upper($1) AND NOT resgatado
			RETURNING id
		`, strings.TrimSpace(codigoVoucher)).Scan(&voucherID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrVoucherInvalido
			}
			return err
		}

		total := 0
		linhas := make([]ItemPedido, 0, len(itens))
		for _, item := range itens {
			var preco int
			err := tx.QueryRow(ctx, `
				UPDATE loja_produtos
				SET estoque = estoque - $2, atualizado_em = now()
				WHERE id = $1 AND ativo AND estoque >= $2
				RETURNING preco_centavos
			`, item.ProdutoID, item.Quantidade).Scan(&preco)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return ErrEstoqueInsuficiente
				}
				return err
			}
			total += preco * item.Quantidade
			linhas = append(linhas, ItemPedido{ProdutoID: item.ProdutoID, Quantidade: item.Quantidade, PrecoCentavos: preco})
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO loja_pedidos (usuario_id, voucher_id, total_centavos)
			VALUES ($1, $2, $3)
			RETURNING id, criado_em
		`, usuarioID, voucherID, total).Scan(&pedido.ID, &pedido.CriadoEm)
		if err != nil {
			return err
		}

		for _, linha := range linhas {
			if _, err := tx.Exec(ctx, `
				INSERT INTO loja_pedido_itens (pedido_id, produto_id, quantidade, preco_centavos)
				VALUES ($1, $2, $3, $4)
			`, pedido.ID, linha.ProdutoID, linha.Quantidade, linha.PrecoCentavos); err != nil {
				return err
			}
		}

		pedido.UsuarioID = usuarioID
		pedido.VoucherID = voucherID
		pedido.TotalCentavos = total
		pedido.Itens = linhas
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &pedido, nil
}

// GetPedido recupera um pedido e suas linhas.
func (r *Repository) GetPedido(ctx context.Context, id uuid.UUID) (*Pedido, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var p Pedido
	err := r.pool.QueryRow(ctx, `
		SELECT id, usuario_id, voucher_id, total_centavos, criado_em
		FROM loja_pedidos
		WHERE id = $1
	`, id).Scan(&p.ID, &p.UsuarioID, &p.VoucherID, &p.TotalCentavos, &p.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPedidoNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT produto_id, quantidade, preco_centavos
		FROM loja_pedido_itens
		WHERE pedido_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item ItemPedido
		if err := rows.Scan(&item.ProdutoID, &item.Quantidade, &item.PrecoCentavos); err != nil {
			return nil, err
		}
		p.Itens = append(p.Itens, item)
	}
	return &p, rows.Err()
}
