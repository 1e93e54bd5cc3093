package calendario

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Repo abstrai a persistência para permitir stubs nos testes.
type Repo interface {
	Create(ctx context.Context, input CreateEventoInput, criadoPor *uuid.UUID) (*Evento, error)
	Get(ctx context.Context, id uuid.UUID) (*Evento, error)
	List(ctx context.Context, filter EventoFilter) ([]Evento, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateEventoInput) (*Evento, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service concentra as regras do calendário escolar.
type Service struct {
	repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// Criar agenda um evento após validar título, público e janela de datas.
func (s *Service) Criar(ctx context.Context, input CreateEventoInput, criadoPor *uuid.UUID) (*Evento, error) {
	input.Titulo = strings.TrimSpace(input.Titulo)
	input.Descricao = strings.TrimSpace(input.Descricao)
	input.Publico = strings.ToLower(strings.TrimSpace(input.Publico))
	if input.Publico == "" {
		input.Publico = PublicoTodos
	}

	if input.Titulo == "" {
		return nil, &ErroValidacao{Campo: "titulo", Motivo: "obrigatório"}
	}
	if _, ok := publicosValidos[input.Publico]; !ok {
		return nil, &ErroValidacao{Campo: "publico", Motivo: "público desconhecido"}
	}
	if input.Inicio.IsZero() || input.Fim.IsZero() {
		return nil, &ErroValidacao{Campo: "inicio", Motivo: "período obrigatório"}
	}
	if input.Fim.Before(input.Inicio) {
		return nil, &ErroValidacao{Campo: "fim", Motivo: "anterior ao início"}
	}

	return s.repo.Create(ctx, input, criadoPor)
}

// Listar devolve os eventos dentro do recorte informado.
func (s *Service) Listar(ctx context.Context, filter EventoFilter) ([]Evento, error) {
	if filter.De != nil && filter.Ate != nil && filter.Ate.Before(*filter.De) {
		return nil, &ErroValidacao{Campo: "ate", Motivo: "anterior ao início da janela"}
	}
	return s.repo.List(ctx, filter)
}

// Obter busca um evento.
func (s *Service) Obter(ctx context.Context, id uuid.UUID) (*Evento, error) {
	return s.repo.Get(ctx, id)
}

// Atualizar remarca ou reescreve um evento existente.
func (s *Service) Atualizar(ctx context.Context, id uuid.UUID, input UpdateEventoInput) (*Evento, error) {
	if input.Titulo != nil {
		trimmed := strings.TrimSpace(*input.Titulo)
		if trimmed == "" {
			return nil, &ErroValidacao{Campo: "titulo", Motivo: "obrigatório"}
		}
		input.Titulo = &trimmed
	}
	if input.Publico != nil {
		normalized := strings.ToLower(strings.TrimSpace(*input.Publico))
		if _, ok := publicosValidos[normalized]; !ok {
			return nil, &ErroValidacao{Campo: "publico", Motivo: "público desconhecido"}
		}
		input.Publico = &normalized
	}

	// Quando ambos os extremos mudam, valida o par direto; quando só um muda,
	// compara contra o evento persistido.
	if input.Inicio != nil || input.Fim != nil {
		atual, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		inicio := atual.Inicio
		fim := atual.Fim
		if input.Inicio != nil {
			inicio = *input.Inicio
		}
		if input.Fim != nil {
			fim = *input.Fim
		}
		if fim.Before(inicio) {
			return nil, &ErroValidacao{Campo: "fim", Motivo: "anterior ao início"}
		}
	}

	return s.repo.Update(ctx, id, input)
}

// Remover apaga o evento.
func (s *Service) Remover(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
