package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 3 * time.Second

// Queries provê acesso às tabelas compartilhadas (usuários e sessões).
type Queries struct {
	pool *pgxpool.Pool
}

// New cria o acesso às consultas compartilhadas.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

const usuarioColumns = `id, nome, email, senha_hash, papel, unidade_id, ativo, criado_em`

func scanUsuario(row pgx.Row) (Usuario, error) {
	var u Usuario
	err := row.Scan(&u.ID, &u.Nome, &u.Email, &u.SenhaHash, &u.Papel, &u.UnidadeID, &u.Ativo, &u.CriadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return Usuario{}, ErrNotFound
	}
	return u, err
}

// GetUsuarioByEmail busca usuário pelo e-mail normalizado.
func (q *Queries) GetUsuarioByEmail(ctx context.Context, email string) (Usuario, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := q.pool.QueryRow(ctx, `
		SELECT `+usuarioColumns+`
		FROM usuarios
		WHERE lower(email) = lower($1)
	`, strings.TrimSpace(email))
	return scanUsuario(row)
}

// GetUsuarioByID busca usuário pelo identificador.
func (q *Queries) GetUsuarioByID(ctx context.Context, id uuid.UUID) (Usuario, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := q.pool.QueryRow(ctx, `
		SELECT `+usuarioColumns+`
		FROM usuarios
		WHERE id = $1
	`, id)
	return scanUsuario(row)
}

// ListUsuarios devolve usuários, opcionalmente restritos a uma unidade.
func (q *Queries) ListUsuarios(ctx context.Context, unidadeID *uuid.UUID) ([]Usuario, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := q.pool.Query(ctx, `
		SELECT `+usuarioColumns+`
		FROM usuarios
		WHERE ($1::uuid IS NULL OR unidade_id = $1)
		ORDER BY nome
	`, unidadeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usuarios []Usuario
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, err
		}
		usuarios = append(usuarios, u)
	}
	return usuarios, rows.Err()
}

// CreateUsuario insere um novo usuário e devolve o registro persistido.
func (q *Queries) CreateUsuario(ctx context.Context, arg CreateUsuarioParams) (Usuario, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := q.pool.QueryRow(ctx, `
		INSERT INTO usuarios (nome, email, senha_hash, papel, unidade_id)
		VALUES ($1, lower($2), $3, $4, $5)
		RETURNING `+usuarioColumns+`
	`, arg.Nome, strings.TrimSpace(arg.Email), arg.SenhaHash, arg.Papel, arg.UnidadeID)

	u, err := scanUsuario(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Usuario{}, ErrDuplicado
		}
		return Usuario{}, err
	}
	return u, nil
}

// UpdateUsuario altera nome e e-mail.
func (q *Queries) UpdateUsuario(ctx context.Context, id uuid.UUID, nome, email string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := q.pool.Exec(ctx, `
		UPDATE usuarios SET nome = $2, email = lower($3) WHERE id = $1
	`, id, nome, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUsuarioPapel troca o papel de um usuário. Alteração administrativa:
// o núcleo de autorização nunca muda papel, apenas o lê.
func (q *Queries) UpdateUsuarioPapel(ctx context.Context, id uuid.UUID, papel string, unidadeID *uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := q.pool.Exec(ctx, `
		UPDATE usuarios SET papel = $2, unidade_id = $3 WHERE id = $1
	`, id, papel, unidadeID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetUsuarioAtivo ativa ou desativa a conta.
func (q *Queries) SetUsuarioAtivo(ctx context.Context, id uuid.UUID, ativo bool) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := q.pool.Exec(ctx, `
		UPDATE usuarios SET ativo = $2 WHERE id = $1
	`, id, ativo)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRefreshTokenByHash localiza refresh token pelo hash.
func (q *Queries) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (TokenRefresh, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var t TokenRefresh
	err := q.pool.QueryRow(ctx, `
		SELECT id, subject, audience, token_hash, expiracao, criado_em, revogado
		FROM tokens_refresh
		WHERE token_hash = $1
	`, tokenHash).Scan(&t.ID, &t.Subject, &t.Audience, &t.TokenHash, &t.Expiracao, &t.CriadoEm, &t.Revogado)
	if errors.Is(err, pgx.ErrNoRows) {
		return TokenRefresh{}, ErrNotFound
	}
	return t, err
}

// InsertRefreshToken persiste um novo refresh token.
func (q *Queries) InsertRefreshToken(ctx context.Context, arg InsertRefreshTokenParams) (TokenRefresh, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := q.pool.Exec(ctx, `
		INSERT INTO tokens_refresh (id, subject, audience, token_hash, expiracao, criado_em)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, arg.ID, arg.Subject, arg.Audience, arg.TokenHash, arg.Expiracao, arg.CriadoEm)
	if err != nil {
		return TokenRefresh{}, err
	}

	return TokenRefresh{
		ID:        arg.ID,
		Subject:   arg.Subject,
		Audience:  arg.Audience,
		TokenHash: arg.TokenHash,
		Expiracao: arg.Expiracao,
		CriadoEm:  arg.CriadoEm,
	}, nil
}

// InvalidateOtherRefreshTokens revoga os demais tokens do mesmo sujeito.
func (q *Queries) InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, audience, keepHash string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := q.pool.Exec(ctx, `
		UPDATE tokens_refresh
		SET revogado = TRUE
		WHERE subject = $1 AND audience = $2 AND token_hash <> $3 AND NOT revogado
	`, subject, audience, keepHash)
	return err
}

// RevokeRefreshToken revoga o token com o hash informado.
func (q *Queries) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := q.pool.Exec(ctx, `
		UPDATE tokens_refresh SET revogado = TRUE WHERE token_hash = $1
	`, tokenHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
