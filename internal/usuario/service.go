package usuario

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/redelumiar/plataforma/internal/auth"
	"github.com/redelumiar/plataforma/internal/rbac"
	"github.com/redelumiar/plataforma/internal/repo"
	"github.com/redelumiar/plataforma/internal/util"
)

var ErrPapelDesconhecido = errors.New("papel desconhecido")

// Queries abstrai o acesso compartilhado à tabela de usuários.
type Queries interface {
	GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error)
	ListUsuarios(ctx context.Context, unidadeID *uuid.UUID) ([]repo.Usuario, error)
	CreateUsuario(ctx context.Context, arg repo.CreateUsuarioParams) (repo.Usuario, error)
	UpdateUsuario(ctx context.Context, id uuid.UUID, nome, email string) error
	UpdateUsuarioPapel(ctx context.Context, id uuid.UUID, papel string, unidadeID *uuid.UUID) error
	SetUsuarioAtivo(ctx context.Context, id uuid.UUID, ativo bool) error
}

// Service concentra a administração de contas da rede.
type Service struct {
	queries Queries
}

func NewService(queries Queries) *Service {
	return &Service{queries: queries}
}

// CreateInput contém os campos de criação de conta.
type CreateInput struct {
	Nome      string     `json:"nome"`
	Email     string     `json:"email"`
	Senha     string     `json:"senha"`
	Papel     string     `json:"papel"`
	UnidadeID *uuid.UUID `json:"unidade_id"`
}

// Perfil é a projeção pública de um usuário (sem hash de senha).
type Perfil struct {
	ID        uuid.UUID  `json:"id"`
	Nome      string     `json:"nome"`
	Email     string     `json:"email"`
	Papel     string     `json:"papel"`
	UnidadeID *uuid.UUID `json:"unidade_id,omitempty"`
	Ativo     bool       `json:"ativo"`
}

func perfilDe(u repo.Usuario) Perfil {
	return Perfil{
		ID:        u.ID,
		Nome:      u.Nome,
		Email:     u.Email,
		Papel:     u.Papel,
		UnidadeID: u.UnidadeID,
		Ativo:     u.Ativo,
	}
}

// Criar registra uma nova conta com senha Argon2id e papel validado.
func (s *Service) Criar(ctx context.Context, input CreateInput) (Perfil, error) {
	input.Nome = strings.TrimSpace(input.Nome)
	input.Papel = strings.ToLower(strings.TrimSpace(input.Papel))

	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return Perfil{}, err
	}
	if err := util.ValidateEmail(input.Email); err != nil {
		return Perfil{}, err
	}
	if err := util.ValidatePassword(input.Senha); err != nil {
		return Perfil{}, err
	}
	if !rbac.Papel(input.Papel).Conhecido() {
		return Perfil{}, ErrPapelDesconhecido
	}

	hash, err := auth.Hash(input.Senha)
	if err != nil {
		return Perfil{}, err
	}

	u, err := s.queries.CreateUsuario(ctx, repo.CreateUsuarioParams{
		Nome:      input.Nome,
		Email:     input.Email,
		SenhaHash: hash,
		Papel:     input.Papel,
		UnidadeID: input.UnidadeID,
	})
	if err != nil {
		return Perfil{}, err
	}
	return perfilDe(u), nil
}

// Listar devolve as contas, opcionalmente restritas a uma unidade.
func (s *Service) Listar(ctx context.Context, unidadeID *uuid.UUID) ([]Perfil, error) {
	usuarios, err := s.queries.ListUsuarios(ctx, unidadeID)
	if err != nil {
		return nil, err
	}
	perfis := make([]Perfil, 0, len(usuarios))
	for _, u := range usuarios {
		perfis = append(perfis, perfilDe(u))
	}
	return perfis, nil
}

// Obter busca uma conta pelo id.
func (s *Service) Obter(ctx context.Context, id uuid.UUID) (Perfil, error) {
	u, err := s.queries.GetUsuarioByID(ctx, id)
	if err != nil {
		return Perfil{}, err
	}
	return perfilDe(u), nil
}

// Atualizar altera nome e e-mail da conta.
func (s *Service) Atualizar(ctx context.Context, id uuid.UUID, nome, email string) error {
	nome = strings.TrimSpace(nome)
	if err := util.RequireString(nome, "nome"); err != nil {
		return err
	}
	if err := util.ValidateEmail(email); err != nil {
		return err
	}
	return s.queries.UpdateUsuario(ctx, id, nome, email)
}

// TrocarPapel muda o papel e o vínculo de unidade de uma conta. A troca só
// entra em vigor no próximo login, quando um novo token é emitido.
func (s *Service) TrocarPapel(ctx context.Context, id uuid.UUID, papel string, unidadeID *uuid.UUID) error {
	papel = strings.ToLower(strings.TrimSpace(papel))
	if !rbac.Papel(papel).Conhecido() {
		return ErrPapelDesconhecido
	}
	return s.queries.UpdateUsuarioPapel(ctx, id, papel, unidadeID)
}

// Ativar liga ou desliga a conta sem apagar o histórico.
func (s *Service) Ativar(ctx context.Context, id uuid.UUID, ativo bool) error {
	return s.queries.SetUsuarioAtivo(ctx, id, ativo)
}
