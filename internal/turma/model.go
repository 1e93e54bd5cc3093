package turma

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/redelumiar/plataforma/internal/rbac"
)

var (
	ErrNotFound  = errors.New("turma não encontrada")
	ErrDuplicada = errors.New("código de turma já cadastrado")
)

// ErroValidacao aponta o campo rejeitado na criação ou alteração de turma.
type ErroValidacao struct {
	Campo  string
	Motivo string
}

func (e *ErroValidacao) Error() string {
	return e.Campo + ": " + e.Motivo
}

// Turma representa uma turma de uma unidade. O código carrega o prefixo do
// segmento (BERC-, INF-, FUND-I-, FUND-II-, MED-) e é a chave de negócio
// usada pelo recorte de visibilidade da coordenação.
type Turma struct {
	ID        uuid.UUID  `json:"id"`
	UnidadeID *uuid.UUID `json:"unidade_id,omitempty"`
	Codigo    string     `json:"codigo"`
	Nome      string     `json:"nome"`
	Turno     string     `json:"turno"`
	AnoLetivo int        `json:"ano_letivo"`
	Ativa     bool       `json:"ativa"`
	CriadoEm  time.Time  `json:"criado_em"`
}

// Segmento deriva o segmento da turma a partir do prefixo do código.
func (t Turma) Segmento() (rbac.Segmento, bool) {
	return rbac.SegmentoDoCodigo(t.Codigo)
}

// CreateTurmaInput contém os campos para registrar uma turma.
type CreateTurmaInput struct {
	UnidadeID *uuid.UUID `json:"unidade_id"`
	Codigo    string     `json:"codigo"`
	Nome      string     `json:"nome"`
	Turno     string     `json:"turno"`
	AnoLetivo int        `json:"ano_letivo"`
}
