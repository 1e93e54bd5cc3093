package tarefa

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("tarefa não encontrada")
	ErrComentarioNotFound = errors.New("comentário não encontrado")
	ErrInvalidStatus      = errors.New("status de tarefa inválido")
	ErrInvalidPrioridade  = errors.New("prioridade inválida")
)

const (
	StatusPendente    = "pendente"
	StatusEmAndamento = "em_andamento"
	StatusConcluida   = "concluida"
	StatusArquivada   = "arquivada"

	PrioridadeBaixa   = "baixa"
	PrioridadeNormal  = "normal"
	PrioridadeAlta    = "alta"
	PrioridadeUrgente = "urgente"
)

var (
	validStatuses = map[string]struct{}{
		StatusPendente:    {},
		StatusEmAndamento: {},
		StatusConcluida:   {},
		StatusArquivada:   {},
	}
	validPrioridades = map[string]struct{}{
		PrioridadeBaixa:   {},
		PrioridadeNormal:  {},
		PrioridadeAlta:    {},
		PrioridadeUrgente: {},
	}
)

// Tarefa representa uma demanda administrativa de uma unidade: manutenção,
// secretaria, compras, eventos.
type Tarefa struct {
	ID           uuid.UUID  `json:"id"`
	UnidadeID    *uuid.UUID `json:"unidade_id,omitempty"`
	Titulo       string     `json:"titulo"`
	Categoria    string     `json:"categoria"`
	Status       string     `json:"status"`
	Prioridade   string     `json:"prioridade"`
	Descricao    string     `json:"descricao"`
	CriadoPor    *uuid.UUID `json:"criado_por,omitempty"`
	Responsavel  *uuid.UUID `json:"responsavel,omitempty"`
	CriadoEm     time.Time  `json:"criado_em"`
	AtualizadoEm time.Time  `json:"atualizado_em"`
	ConcluidaEm  *time.Time `json:"concluida_em,omitempty"`
}

// Comentario representa uma interação na tarefa.
type Comentario struct {
	ID       uuid.UUID  `json:"id"`
	TarefaID uuid.UUID  `json:"tarefa_id"`
	AutorID  *uuid.UUID `json:"autor_id,omitempty"`
	Texto    string     `json:"texto"`
	CriadoEm time.Time  `json:"criado_em"`
}

// CreateTarefaInput encapsula campos para abertura de tarefa.
type CreateTarefaInput struct {
	UnidadeID   *uuid.UUID
	Titulo      string
	Categoria   string
	Descricao   string
	Prioridade  string
	Status      string
	CriadoPor   *uuid.UUID
	Responsavel *uuid.UUID
}

// UpdateTarefaInput permite atualizar status/prioridade/atribuição.
type UpdateTarefaInput struct {
	ID               uuid.UUID
	Status           *string
	Prioridade       *string
	Responsavel      *uuid.UUID
	ClearResponsavel bool
	ConcluidaEm      *time.Time
}

// TarefaFilter permite filtrar a listagem.
type TarefaFilter struct {
	UnidadeID *uuid.UUID
	Status    []string
	Limit     int
	Offset    int
}

// NormalizeStatus garante padrão em letras minúsculas.
func NormalizeStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return StatusPendente
	}
	return status
}

// NormalizePrioridade padroniza a prioridade.
func NormalizePrioridade(prioridade string) string {
	prioridade = strings.ToLower(strings.TrimSpace(prioridade))
	if prioridade == "" {
		return PrioridadeNormal
	}
	return prioridade
}

// IsValidStatus indica se o status é aceito.
func IsValidStatus(status string) bool {
	_, ok := validStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// IsValidPrioridade indica se a prioridade é válida.
func IsValidPrioridade(prioridade string) bool {
	_, ok := validPrioridades[strings.ToLower(strings.TrimSpace(prioridade))]
	return ok
}
