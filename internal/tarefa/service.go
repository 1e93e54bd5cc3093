package tarefa

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repo abstrai a persistência para permitir stubs nos testes.
type Repo interface {
	CreateTarefa(ctx context.Context, input CreateTarefaInput) (*Tarefa, error)
	GetTarefa(ctx context.Context, id uuid.UUID) (*Tarefa, error)
	ListTarefas(ctx context.Context, filter TarefaFilter) ([]Tarefa, error)
	UpdateTarefa(ctx context.Context, input UpdateTarefaInput) (*Tarefa, error)
	CreateComentario(ctx context.Context, tarefaID uuid.UUID, autorID *uuid.UUID, texto string) (*Comentario, error)
	ListComentarios(ctx context.Context, tarefaID uuid.UUID) ([]Comentario, error)
}

// Service reúne regras de negócio das tarefas administrativas.
type Service struct {
	repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// Create abre uma nova tarefa para a unidade.
func (s *Service) Create(ctx context.Context, input CreateTarefaInput) (*Tarefa, error) {
	input.Titulo = strings.TrimSpace(input.Titulo)
	input.Categoria = strings.TrimSpace(input.Categoria)
	input.Descricao = strings.TrimSpace(input.Descricao)
	input.Status = NormalizeStatus(input.Status)
	input.Prioridade = NormalizePrioridade(input.Prioridade)

	if input.Titulo == "" {
		return nil, errors.New("título obrigatório")
	}
	if input.Categoria == "" {
		return nil, errors.New("categoria obrigatória")
	}
	if !IsValidStatus(input.Status) {
		return nil, ErrInvalidStatus
	}
	if !IsValidPrioridade(input.Prioridade) {
		return nil, ErrInvalidPrioridade
	}

	return s.repo.CreateTarefa(ctx, input)
}

// List lista tarefas dentro do filtro informado.
func (s *Service) List(ctx context.Context, filter TarefaFilter) ([]Tarefa, error) {
	if len(filter.Status) > 0 {
		normalized := make([]string, 0, len(filter.Status))
		for _, status := range filter.Status {
			status = NormalizeStatus(status)
			if IsValidStatus(status) {
				normalized = append(normalized, status)
			}
		}
		filter.Status = normalized
	}
	return s.repo.ListTarefas(ctx, filter)
}

// Get recupera uma tarefa.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Tarefa, error) {
	return s.repo.GetTarefa(ctx, id)
}

// Update altera status/prioridade/atribuição.
func (s *Service) Update(ctx context.Context, id uuid.UUID, status, prioridade *string, responsavel *uuid.UUID, clearResponsavel bool) (*Tarefa, error) {
	var statusVal *string
	if status != nil {
		normalized := NormalizeStatus(*status)
		if !IsValidStatus(normalized) {
			return nil, ErrInvalidStatus
		}
		statusVal = &normalized
	}

	var prioridadeVal *string
	if prioridade != nil {
		normalized := NormalizePrioridade(*prioridade)
		if !IsValidPrioridade(normalized) {
			return nil, ErrInvalidPrioridade
		}
		prioridadeVal = &normalized
	}

	update := UpdateTarefaInput{
		ID:               id,
		Status:           statusVal,
		Prioridade:       prioridadeVal,
		Responsavel:      responsavel,
		ClearResponsavel: clearResponsavel,
	}

	if statusVal != nil {
		switch *statusVal {
		case StatusConcluida, StatusArquivada:
			now := time.Now()
			update.ConcluidaEm = &now
		default:
			// reaberta
			update.ConcluidaEm = nil
		}
	}

	return s.repo.UpdateTarefa(ctx, update)
}

// AddComentario adiciona uma interação à tarefa.
func (s *Service) AddComentario(ctx context.Context, tarefaID uuid.UUID, autorID *uuid.UUID, texto string) (*Comentario, error) {
	texto = strings.TrimSpace(texto)
	if texto == "" {
		return nil, errors.New("comentário obrigatório")
	}
	if _, err := s.repo.GetTarefa(ctx, tarefaID); err != nil {
		return nil, err
	}
	return s.repo.CreateComentario(ctx, tarefaID, autorID, texto)
}

// ListComentarios lista interações da tarefa.
func (s *Service) ListComentarios(ctx context.Context, tarefaID uuid.UUID) ([]Comentario, error) {
	return s.repo.ListComentarios(ctx, tarefaID)
}
