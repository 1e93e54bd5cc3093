package unidade

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provê acesso ao armazenamento de unidades.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const unidadeColumns = `id, slug, nome, endereco, telefone, settings, ativo, criado_em, atualizado_em`

// GetByID busca unidade pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Unidade, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT `+unidadeColumns+`
        FROM unidades
        WHERE id = $1
    `, id)
	return scanUnidade(row)
}

// GetBySlug busca unidade pelo slug normalizado.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Unidade, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT `+unidadeColumns+`
        FROM unidades
        WHERE slug = $1
    `, slug)
	return scanUnidade(row)
}

// List devolve todas as unidades ordenadas por nome.
func (r *Repository) List(ctx context.Context) ([]Unidade, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT `+unidadeColumns+`
        FROM unidades
        ORDER BY nome
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var unidades []Unidade
	for rows.Next() {
		u, err := scanUnidade(rows)
		if err != nil {
			return nil, err
		}
		unidades = append(unidades, *u)
	}
	return unidades, rows.Err()
}

// Create insere uma nova unidade e devolve os dados persistidos.
func (r *Repository) Create(ctx context.Context, input CreateUnidadeInput) (*Unidade, error) {
	settingsJSON, err := jsonMarshalMap(input.Settings)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
        INSERT INTO unidades (slug, nome, endereco, telefone, settings)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING `+unidadeColumns+`
    `,
		strings.TrimSpace(strings.ToLower(input.Slug)),
		strings.TrimSpace(input.Nome),
		strings.TrimSpace(input.Endereco),
		strings.TrimSpace(input.Telefone),
		settingsJSON,
	)
	return scanUnidade(row)
}

// UpdateSettings atualiza apenas o campo settings e o timestamp.
func (r *Repository) UpdateSettings(ctx context.Context, unidadeID uuid.UUID, settings map[string]any) error {
	settingsJSON, err := jsonMarshalMap(settings)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
        UPDATE unidades
        SET settings = $2,
            atualizado_em = $3
        WHERE id = $1
    `, unidadeID, settingsJSON, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAtivo liga ou desliga a unidade no catálogo da rede.
func (r *Repository) SetAtivo(ctx context.Context, unidadeID uuid.UUID, ativo bool) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE unidades
        SET ativo = $2,
            atualizado_em = $3
        WHERE id = $1
    `, unidadeID, ativo, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UnidadeDoUsuario devolve o vínculo de unidade do usuário (nil para papéis
// de rede, que não têm unidade fixa).
func (r *Repository) UnidadeDoUsuario(ctx context.Context, usuarioID uuid.UUID) (*uuid.UUID, error) {
	var unidadeID *uuid.UUID
	err := r.pool.QueryRow(ctx, `
        SELECT unidade_id FROM usuarios WHERE id = $1
    `, usuarioID).Scan(&unidadeID)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return unidadeID, err
}

func scanUnidade(row pgx.Row) (*Unidade, error) {
	var (
		u           Unidade
		settingsRaw []byte
	)

	if err := row.Scan(&u.ID, &u.Slug, &u.Nome, &u.Endereco, &u.Telefone, &settingsRaw, &u.Ativo, &u.CriadoEm, &u.AtualizadoEm); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	settings, err := decodeJSONMap(settingsRaw)
	if err != nil {
		return nil, err
	}
	u.Settings = settings

	return &u, nil
}

func decodeJSONMap(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return map[string]any{}, nil
	}
	return result, nil
}

func jsonMarshalMap(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}
