package calendario

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("evento não encontrado")

// ErroValidacao aponta o campo rejeitado na criação ou alteração de evento.
type ErroValidacao struct {
	Campo  string
	Motivo string
}

func (e *ErroValidacao) Error() string {
	return e.Campo + ": " + e.Motivo
}

// Público-alvo do evento. "todos" cobre toda a comunidade da unidade.
const (
	PublicoTodos      = "todos"
	PublicoEquipe     = "equipe"
	PublicoFamilias   = "familias"
	PublicoEstudantes = "estudantes"
)

var publicosValidos = map[string]struct{}{
	PublicoTodos:      {},
	PublicoEquipe:     {},
	PublicoFamilias:   {},
	PublicoEstudantes: {},
}

// Evento representa um compromisso do calendário escolar. UnidadeID nulo
// indica evento de rede, visível em todas as unidades.
type Evento struct {
	ID           uuid.UUID  `json:"id"`
	UnidadeID    *uuid.UUID `json:"unidade_id,omitempty"`
	Titulo       string     `json:"titulo"`
	Descricao    string     `json:"descricao"`
	Publico      string     `json:"publico"`
	Inicio       time.Time  `json:"inicio"`
	Fim          time.Time  `json:"fim"`
	CriadoPor    *uuid.UUID `json:"criado_por,omitempty"`
	CriadoEm     time.Time  `json:"criado_em"`
	AtualizadoEm time.Time  `json:"atualizado_em"`
}

// CreateEventoInput contém os campos para agendar um evento.
type CreateEventoInput struct {
	UnidadeID *uuid.UUID `json:"unidade_id"`
	Titulo    string     `json:"titulo"`
	Descricao string     `json:"descricao"`
	Publico   string     `json:"publico"`
	Inicio    time.Time  `json:"inicio"`
	Fim       time.Time  `json:"fim"`
}

// UpdateEventoInput permite remarcar ou reescrever um evento existente.
type UpdateEventoInput struct {
	Titulo    *string    `json:"titulo"`
	Descricao *string    `json:"descricao"`
	Publico   *string    `json:"publico"`
	Inicio    *time.Time `json:"inicio"`
	Fim       *time.Time `json:"fim"`
}

// EventoFilter recorta a listagem por unidade e janela de datas.
type EventoFilter struct {
	UnidadeID *uuid.UUID
	De        *time.Time
	Ate       *time.Time
}
