package planejamento

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/redelumiar/plataforma/internal/db"
	"github.com/redelumiar/plataforma/internal/rbac"
)

const dbTimeout = 3 * time.Second

// PgRepository implementa Repository sobre Postgres.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const planejamentoColumns = `id, usuario_id, unidade_id, turma_codigo, bimestre, titulo, conteudo,
       status, ciclos_revisao, aprovado_primeira, enviado_em, aprovado_em, criado_em, atualizado_em`

func scanPlanejamento(row pgx.Row) (Planejamento, error) {
	var p Planejamento
	err := row.Scan(
		&p.ID, &p.UsuarioID, &p.UnidadeID, &p.TurmaCodigo, &p.Bimestre, &p.Titulo, &p.Conteudo,
		&p.Status, &p.CiclosRevisao, &p.AprovadoPrimeira, &p.EnviadoEm, &p.AprovadoEm, &p.CriadoEm, &p.AtualizadoEm,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Planejamento{}, ErrNotFound
	}
	return p, err
}

func (r *PgRepository) Create(ctx context.Context, p Planejamento) (Planejamento, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO planejamentos (id, usuario_id, unidade_id, turma_codigo, bimestre, titulo, conteudo, status, ciclos_revisao, criado_em, atualizado_em)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING `+planejamentoColumns,
		p.ID, p.UsuarioID, p.UnidadeID, p.TurmaCodigo, p.Bimestre, p.Titulo, p.Conteudo, p.Status, p.CiclosRevisao, p.CriadoEm,
	)
	return scanPlanejamento(row)
}

func (r *PgRepository) Get(ctx context.Context, id uuid.UUID) (Planejamento, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		SELECT `+planejamentoColumns+`
		FROM planejamentos
		WHERE id = $1`, id)
	return scanPlanejamento(row)
}

// List aplica o filtro de visibilidade direto no SQL: posse vira igualdade de
// usuario_id, escopo de segmento vira LIKE sobre o código da turma. O mesmo
// recorte que rbac.Filtro.Permite faria em memória.
func (r *PgRepository) List(ctx context.Context, filtro *rbac.Filtro) ([]Planejamento, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := `
		SELECT ` + planejamentoColumns + `
		FROM planejamentos
		WHERE ($1::uuid IS NULL OR usuario_id = $1)
		  AND ($2::text = '' OR turma_codigo LIKE $2)
		ORDER BY atualizado_em DESC`

	var usuarioID *uuid.UUID
	var padrao string
	if filtro != nil {
		usuarioID = filtro.UsuarioID
		padrao = filtro.PadraoLike()
	}

	rows, err := r.pool.Query(ctx, query, usuarioID, padrao)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lista []Planejamento
	for rows.Next() {
		p, err := scanPlanejamento(rows)
		if err != nil {
			return nil, err
		}
		lista = append(lista, p)
	}
	return lista, rows.Err()
}

func (r *PgRepository) UpdateConteudo(ctx context.Context, id uuid.UUID, titulo, conteudo string) (Planejamento, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		UPDATE planejamentos
		SET titulo = $2, conteudo = $3, atualizado_em = now()
		WHERE id = $1
		RETURNING `+planejamentoColumns,
		id, titulo, conteudo)
	return scanPlanejamento(row)
}

// rowQuerier cobre pool e transação, para reusar a transição nos dois.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// transitionRow só escreve quando o registro ainda está no status de origem.
// Zero linhas afetadas significa corrida perdida (ErrConflito) ou registro
// inexistente (ErrNotFound); uma releitura separa os dois casos.
func transitionRow(ctx context.Context, q rowQuerier, arg TransitionParams) (Planejamento, error) {
	row := q.QueryRow(ctx, `
		UPDATE planejamentos
		SET status = $3,
		    enviado_em = COALESCE($4, enviado_em),
		    aprovado_em = COALESCE($5, aprovado_em),
		    ciclos_revisao = ciclos_revisao + CASE WHEN $6 THEN 1 ELSE 0 END,
		    aprovado_primeira = COALESCE($7, aprovado_primeira),
		    atualizado_em = now()
		WHERE id = $1 AND status = $2
		RETURNING `+planejamentoColumns,
		arg.ID, arg.De, arg.Para, arg.EnviadoEm, arg.AprovadoEm, arg.IncrementaCiclo, arg.AprovadoPrimeira,
	)

	p, err := scanPlanejamento(row)
	if errors.Is(err, ErrNotFound) {
		existe := q.QueryRow(ctx, `SELECT id FROM planejamentos WHERE id = $1`, arg.ID)
		var id uuid.UUID
		if getErr := existe.Scan(&id); getErr == nil {
			return Planejamento{}, ErrConflito
		}
		return Planejamento{}, ErrNotFound
	}
	return p, err
}

func (r *PgRepository) Transition(ctx context.Context, arg TransitionParams) (Planejamento, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return transitionRow(ctx, r.pool, arg)
}

// TransitionComRevisao aplica a mudança de status e grava o comentário da
// revisora na mesma transação: ou a devolução acontece com o registro, ou
// nada acontece.
func (r *PgRepository) TransitionComRevisao(ctx context.Context, arg TransitionParams, rev Revisao) (Planejamento, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var p Planejamento
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		p, err = transitionRow(ctx, tx, arg)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO planejamento_revisoes (id, planejamento_id, revisor_id, comentario, criado_em)
			VALUES ($1, $2, $3, $4, $5)`,
			rev.ID, rev.PlanejamentoID, rev.RevisorID, rev.Comentario, rev.CriadoEm,
		)
		return err
	})
	if err != nil {
		return Planejamento{}, err
	}
	return p, nil
}

func (r *PgRepository) ListRevisoes(ctx context.Context, planejamentoID uuid.UUID) ([]Revisao, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT id, planejamento_id, revisor_id, comentario, criado_em
		FROM planejamento_revisoes
		WHERE planejamento_id = $1
		ORDER BY criado_em DESC`, planejamentoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lista []Revisao
	for rows.Next() {
		var rev Revisao
		if err := rows.Scan(&rev.ID, &rev.PlanejamentoID, &rev.RevisorID, &rev.Comentario, &rev.CriadoEm); err != nil {
			return nil, err
		}
		lista = append(lista, rev)
	}
	return lista, rows.Err()
}
