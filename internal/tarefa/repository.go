package tarefa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provê acesso às tabelas de tarefas.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const tarefaColumns = `id, unidade_id, titulo, categoria, status, prioridade, descricao, criado_por, responsavel, criado_em, atualizado_em, concluida_em`

// CreateTarefa insere uma nova tarefa.
func (r *Repository) CreateTarefa(ctx context.Context, input CreateTarefaInput) (*Tarefa, error) {
	row := r.pool.QueryRow(ctx, `
        INSERT INTO tarefas (unidade_id, titulo, categoria, status, prioridade, descricao, criado_por, responsavel)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+tarefaColumns+`
    `,
		input.UnidadeID,
		strings.TrimSpace(input.Titulo),
		strings.TrimSpace(input.Categoria),
		strings.ToLower(input.Status),
		strings.ToLower(input.Prioridade),
		strings.TrimSpace(input.Descricao),
		input.CriadoPor,
		input.Responsavel,
	)

	return scanTarefa(row)
}

// GetTarefa busca uma tarefa específica.
func (r *Repository) GetTarefa(ctx context.Context, id uuid.UUID) (*Tarefa, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT `+tarefaColumns+`
        FROM tarefas
        WHERE id = $1
    `, id)
	return scanTarefa(row)
}

// ListTarefas lista tarefas aplicando filtros simples.
func (r *Repository) ListTarefas(ctx context.Context, filter TarefaFilter) ([]Tarefa, error) {
	base := `
        SELECT ` + tarefaColumns + `
        FROM tarefas`

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.UnidadeID != nil {
		clauses = append(clauses, fmt.Sprintf("unidade_id = $%d", idx))
		args = append(args, *filter.UnidadeID)
		idx++
	}

	if len(filter.Status) > 0 {
		normalized := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			normalized[i] = strings.ToLower(strings.TrimSpace(status))
		}
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", idx))
		args = append(args, normalized)
		idx++
	}

	query := base
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query += fmt.Sprintf(" ORDER BY criado_em DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tarefas []Tarefa
	for rows.Next() {
		t, err := scanTarefa(rows)
		if err != nil {
			return nil, err
		}
		tarefas = append(tarefas, *t)
	}
	return tarefas, rows.Err()
}

// UpdateTarefa atualiza campos da tarefa.
func (r *Repository) UpdateTarefa(ctx context.Context, input UpdateTarefaInput) (*Tarefa, error) {
	setParts := []string{}
	args := []any{}
	idx := 1

	if input.Status != nil {
		setParts = append(setParts, fmt.Sprintf("status = $%d", idx))
		args = append(args, strings.ToLower(strings.TrimSpace(*input.Status)))
		idx++
	}
	if input.Prioridade != nil {
		setParts = append(setParts, fmt.Sprintf("prioridade = $%d", idx))
		args = append(args, strings.ToLower(strings.TrimSpace(*input.Prioridade)))
		idx++
	}
	if input.Responsavel != nil {
		setParts = append(setParts, fmt.Sprintf("responsavel = $%d", idx))
		args = append(args, *input.Responsavel)
		idx++
	} else if input.ClearResponsavel {
		setParts = append(setParts, "responsavel = NULL")
	}

	if input.ConcluidaEm != nil {
		setParts = append(setParts, fmt.Sprintf("concluida_em = $%d", idx))
		args = append(args, *input.ConcluidaEm)
		idx++
	} else if input.Status != nil {
		// quando reabrir, limpa concluida_em
		setParts = append(setParts, "concluida_em = NULL")
	}

	if len(setParts) == 0 {
		return r.GetTarefa(ctx, input.ID)
	}

	setParts = append(setParts, "atualizado_em = now()")

	args = append(args, input.ID)
	query := fmt.Sprintf(`
        UPDATE tarefas
        SET %s
        WHERE id = $%d
        RETURNING `+tarefaColumns+`
    `, strings.Join(setParts, ", "), idx)

	row := r.pool.QueryRow(ctx, query, args...)
	return scanTarefa(row)
}

// CreateComentario insere um comentário na tarefa.
func (r *Repository) CreateComentario(ctx context.Context, tarefaID uuid.UUID, autorID *uuid.UUID, texto string) (*Comentario, error) {
	row := r.pool.QueryRow(ctx, `
        INSERT INTO tarefa_comentarios (tarefa_id, autor_id, texto)
        VALUES ($1, $2, $3)
        RETURNING id, tarefa_id, autor_id, texto, criado_em
    `, tarefaID, autorID, strings.TrimSpace(texto))

	return scanComentario(row)
}

// ListComentarios lista interações da tarefa.
func (r *Repository) ListComentarios(ctx context.Context, tarefaID uuid.UUID) ([]Comentario, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, tarefa_id, autor_id, texto, criado_em
        FROM tarefa_comentarios
        WHERE tarefa_id = $1
        ORDER BY criado_em ASC
    `, tarefaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comentarios []Comentario
	for rows.Next() {
		c, err := scanComentario(rows)
		if err != nil {
			return nil, err
		}
		comentarios = append(comentarios, *c)
	}
	return comentarios, rows.Err()
}

func scanTarefa(row pgx.Row) (*Tarefa, error) {
	var t Tarefa
	if err := row.Scan(&t.ID, &t.UnidadeID, &t.Titulo, &t.Categoria, &t.Status, &t.Prioridade, &t.Descricao, &t.CriadoPor, &t.Responsavel, &t.CriadoEm, &t.AtualizadoEm, &t.ConcluidaEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func scanComentario(row pgx.Row) (*Comentario, error) {
	var c Comentario
	if err := row.Scan(&c.ID, &c.TarefaID, &c.AutorID, &c.Texto, &c.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrComentarioNotFound
		}
		return nil, err
	}
	return &c, nil
}
