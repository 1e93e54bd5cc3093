package turma

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/redelumiar/plataforma/internal/rbac"
)

// Service contém as regras de cadastro e listagem de turmas.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Criar registra uma turma. O código precisa carregar um prefixo de segmento
// conhecido, senão o recorte da coordenação não saberia classificá-la.
func (s *Service) Criar(ctx context.Context, input CreateTurmaInput) (Turma, error) {
	input.Codigo = strings.ToUpper(strings.TrimSpace(input.Codigo))
	input.Nome = strings.TrimSpace(input.Nome)

	if input.Codigo == "" {
		return Turma{}, &ErroValidacao{Campo: "codigo", Motivo: "obrigatório"}
	}
	if _, ok := rbac.SegmentoDoCodigo(input.Codigo); !ok {
		return Turma{}, &ErroValidacao{Campo: "codigo", Motivo: "prefixo de segmento desconhecido"}
	}
	if input.Nome == "" {
		return Turma{}, &ErroValidacao{Campo: "nome", Motivo: "obrigatório"}
	}
	if input.AnoLetivo < 2000 || input.AnoLetivo > 2100 {
		return Turma{}, &ErroValidacao{Campo: "ano_letivo", Motivo: "fora da faixa"}
	}

	return s.repo.Create(ctx, input)
}

// Listar devolve turmas visíveis ao papel: coordenação de segmento recebe
// apenas as turmas do seu prefixo, demais papéis recebem todas.
func (s *Service) Listar(ctx context.Context, usuario rbac.Usuario, unidadeID *uuid.UUID) ([]Turma, error) {
	prefixo := ""
	if usuario.Papel.Coordenacao() {
		if p, ok := usuario.Papel.Segmento().Prefixo(); ok {
			prefixo = p
		}
	}
	return s.repo.List(ctx, unidadeID, prefixo)
}

// Obter busca uma turma pelo id.
func (s *Service) Obter(ctx context.Context, id uuid.UUID) (Turma, error) {
	return s.repo.GetByID(ctx, id)
}

// ObterPorCodigo busca uma turma pela chave de negócio.
func (s *Service) ObterPorCodigo(ctx context.Context, codigo string) (Turma, error) {
	return s.repo.GetByCodigo(ctx, strings.ToUpper(strings.TrimSpace(codigo)))
}

// Arquivar desativa a turma sem apagar o histórico de planejamentos.
func (s *Service) Arquivar(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetAtiva(ctx, id, false)
}
