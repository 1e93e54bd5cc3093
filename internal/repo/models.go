package repo

import (
	"time"

	"github.com/google/uuid"
)

// Usuario representa um colaborador da rede com seu papel e unidade.
type Usuario struct {
	ID        uuid.UUID
	Nome      string
	Email     string
	SenhaHash string
	Papel     string
	UnidadeID *uuid.UUID
	Ativo     bool
	CriadoEm  time.Time
}

// TokenRefresh modela a tabela de refresh tokens.
type TokenRefresh struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	Audience  string
	TokenHash string
	Expiracao time.Time
	CriadoEm  time.Time
	Revogado  bool
}

// InsertRefreshTokenParams agrupa os campos de inserção de refresh token.
type InsertRefreshTokenParams struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	Audience  string
	TokenHash string
	Expiracao time.Time
	CriadoEm  time.Time
}

// CreateUsuarioParams agrupa os campos de criação de usuário.
type CreateUsuarioParams struct {
	Nome      string
	Email     string
	SenhaHash string
	Papel     string
	UnidadeID *uuid.UUID
}
