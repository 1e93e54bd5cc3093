package unidade

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("unidade não encontrada")
	// ErrSemVinculo indica usuário tentando operar em unidade alheia.
	ErrSemVinculo = errors.New("usuário sem vínculo com a unidade")
)

// Unidade representa uma escola da rede.
type Unidade struct {
	ID           uuid.UUID      `json:"id"`
	Slug         string         `json:"slug"`
	Nome         string         `json:"nome"`
	Endereco     string         `json:"endereco"`
	Telefone     string         `json:"telefone"`
	Settings     map[string]any `json:"settings"`
	Ativo        bool           `json:"ativo"`
	CriadoEm     time.Time      `json:"criado_em"`
	AtualizadoEm time.Time      `json:"atualizado_em"`
}

// CreateUnidadeInput contém os campos necessários para registrar uma unidade.
type CreateUnidadeInput struct {
	Slug     string
	Nome     string
	Endereco string
	Telefone string
	Settings map[string]any
}
