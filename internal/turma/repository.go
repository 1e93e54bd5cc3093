package turma

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 3 * time.Second

// Repository provê acesso ao armazenamento de turmas.
type Repository interface {
	Create(ctx context.Context, input CreateTurmaInput) (Turma, error)
	GetByID(ctx context.Context, id uuid.UUID) (Turma, error)
	GetByCodigo(ctx context.Context, codigo string) (Turma, error)
	List(ctx context.Context, unidadeID *uuid.UUID, prefixo string) ([]Turma, error)
	SetAtiva(ctx context.Context, id uuid.UUID, ativa bool) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const turmaColumns = `id, unidade_id, codigo, nome, turno, ano_letivo, ativa, criado_em`

func scanTurma(row pgx.Row) (Turma, error) {
	var t Turma
	err := row.Scan(&t.ID, &t.UnidadeID, &t.Codigo, &t.Nome, &t.Turno, &t.AnoLetivo, &t.Ativa, &t.CriadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return Turma{}, ErrNotFound
	}
	return t, err
}

func (r *pgRepository) Create(ctx context.Context, input CreateTurmaInput) (Turma, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO turmas (id, unidade_id, codigo, nome, turno, ano_letivo, ativa, criado_em)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, now())
		RETURNING `+turmaColumns,
		uuid.New(), input.UnidadeID, input.Codigo, input.Nome, input.Turno, input.AnoLetivo,
	)

	t, err := scanTurma(row)
	if err != nil && isUniqueViolation(err) {
		return Turma{}, ErrDuplicada
	}
	return t, err
}

func (r *pgRepository) GetByID(ctx context.Context, id uuid.UUID) (Turma, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanTurma(r.pool.QueryRow(ctx, `
		SELECT `+turmaColumns+` FROM turmas WHERE id = $1`, id))
}

func (r *pgRepository) GetByCodigo(ctx context.Context, codigo string) (Turma, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return scanTurma(r.pool.QueryRow(ctx, `
		SELECT `+turmaColumns+` FROM turmas WHERE codigo = $1`, codigo))
}

func (r *pgRepository) List(ctx context.Context, unidadeID *uuid.UUID, prefixo string) ([]Turma, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	padrao := ""
	if prefixo != "" {
		padrao = prefixo + "%"
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+turmaColumns+`
		FROM turmas
		WHERE ($1::uuid IS NULL OR unidade_id = $1)
		  AND ($2::text = '' OR codigo LIKE $2)
		  AND ativa
		ORDER BY codigo`, unidadeID, padrao)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turmas []Turma
	for rows.Next() {
		t, err := scanTurma(rows)
		if err != nil {
			return nil, err
		}
		turmas = append(turmas, t)
	}
	return turmas, rows.Err()
}

func (r *pgRepository) SetAtiva(ctx context.Context, id uuid.UUID, ativa bool) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE turmas SET ativa = $2 WHERE id = $1`, id, ativa)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
