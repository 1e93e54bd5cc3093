package calendario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 3 * time.Second

// Repository provê acesso à tabela de eventos do calendário.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventoColumns = `id, unidade_id, titulo, descricao, publico, inicio, fim, criado_por, criado_em, atualizado_em`

func scanEvento(row pgx.Row) (*Evento, error) {
	var e Evento
	err := row.Scan(&e.ID, &e.UnidadeID, &e.Titulo, &e.Descricao, &e.Publico, &e.Inicio, &e.Fim, &e.CriadoPor, &e.CriadoEm, &e.AtualizadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Create insere um evento no calendário.
func (r *Repository) Create(ctx context.Context, input CreateEventoInput, criadoPor *uuid.UUID) (*Evento, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO eventos_calendario (unidade_id, titulo, descricao, publico, inicio, fim, criado_por)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+eventoColumns+`
	`, input.UnidadeID, input.Titulo, input.Descricao, input.Publico, input.Inicio, input.Fim, criadoPor)
	return scanEvento(row)
}

// Get busca um evento pelo identificador.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Evento, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		SELECT `+eventoColumns+`
		FROM eventos_calendario
		WHERE id = $1
	`, id)
	return scanEvento(row)
}

// List devolve os eventos da janela. Eventos de rede (unidade nula) aparecem
// junto aos da unidade filtrada.
func (r *Repository) List(ctx context.Context, filter EventoFilter) ([]Evento, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	base := `
		SELECT ` + eventoColumns + `
		FROM eventos_calendario`

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.UnidadeID != nil {
		clauses = append(clauses, fmt.Sprintf("(unidade_id IS NULL OR unidade_id = $%d)", idx))
		args = append(args, *filter.UnidadeID)
		idx++
	}
	if filter.De != nil {
		clauses = append(clauses, fmt.Sprintf("fim >= $%d", idx))
		args = append(args, *filter.De)
		idx++
	}
	if filter.Ate != nil {
		clauses = append(clauses, fmt.Sprintf("inicio <= $%d", idx))
		args = append(args, *filter.Ate)
		idx++
	}

	query := base
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY inicio ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var eventos []Evento
	for rows.Next() {
		e, err := scanEvento(rows)
		if err != nil {
			return nil, err
		}
		eventos = append(eventos, *e)
	}
	return eventos, rows.Err()
}

// Update aplica alterações parciais ao evento.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, input UpdateEventoInput) (*Evento, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	setParts := []string{}
	args := []any{}
	idx := 1

	if input.Titulo != nil {
		setParts = append(setParts, fmt.Sprintf("titulo = $%d", idx))
		args = append(args, *input.Titulo)
		idx++
	}
	if input.Descricao != nil {
		setParts = append(setParts, fmt.Sprintf("descricao = $%d", idx))
		args = append(args, *input.Descricao)
		idx++
	}
	if input.Publico != nil {
		setParts = append(setParts, fmt.Sprintf("publico = $%d", idx))
		args = append(args, *input.Publico)
		idx++
	}
	if input.Inicio != nil {
		setParts = append(setParts, fmt.Sprintf("inicio = $%d", idx))
		args = append(args, *input.Inicio)
		idx++
	}
	if input.Fim != nil {
		setParts = append(setParts, fmt.Sprintf("fim = $%d", idx))
		args = append(args, *input.Fim)
		idx++
	}

	if len(setParts) == 0 {
		return r.Get(ctx, id)
	}

	setParts = append(setParts, "atualizado_em = now()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE eventos_calendario
		SET %s
		WHERE id = $%d
		RETURNING `+eventoColumns+`
	`, strings.Join(setParts, ", "), idx)

	row := r.pool.QueryRow(ctx, query, args...)
	return scanEvento(row)
}

// Delete remove o evento do calendário.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := r.pool.Exec(ctx, `
		DELETE FROM eventos_calendario WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
