package planejamento

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrForbidden indica falha de papel, posse ou escopo de segmento.
	ErrForbidden = errors.New("acesso negado")
	// ErrNotFound indica planejamento inexistente.
	ErrNotFound = errors.New("planejamento não encontrado")
	// ErrConflito indica corrida perdida: outro revisor mudou o status antes.
	ErrConflito = errors.New("planejamento alterado por outra operação")
	// ErrTransicao indica ação incompatível com o status atual.
	ErrTransicao = errors.New("status atual não permite a ação")
)

// ErroValidacao aponta o campo rejeitado. Nunca é corrigido silenciosamente.
type ErroValidacao struct {
	Campo  string
	Motivo string
}

func (e *ErroValidacao) Error() string {
	return fmt.Sprintf("%s: %s", e.Campo, e.Motivo)
}

// Status enumera o ciclo de vida de um planejamento de aula.
type Status string

const (
	StatusRascunho Status = "RASCUNHO"
	StatusPendente Status = "PENDENTE"
	StatusEmAjuste Status = "EM_AJUSTE"
	StatusAprovado Status = "APROVADO"
)

// Acao enumera os gatilhos de mudança de status.
type Acao string

const (
	AcaoEnviar           Acao = "enviar"
	AcaoAprovar          Acao = "aprovar"
	AcaoSolicitarAjustes Acao = "solicitar_ajustes"
	AcaoReenviar         Acao = "reenviar"
)

// transicoes é a única autoridade sobre mudanças de status: qualquer chamada
// que não case com uma linha desta tabela falha, nenhum caminho de código
// muda status por fora dela.
var transicoes = map[Acao]struct{ De, Para Status }{
	AcaoEnviar:           {StatusRascunho, StatusPendente},
	AcaoAprovar:          {StatusPendente, StatusAprovado},
	AcaoSolicitarAjustes: {StatusPendente, StatusEmAjuste},
	AcaoReenviar:         {StatusEmAjuste, StatusPendente},
}

// Transicao devolve o status de destino da ação a partir do status atual,
// ou ok=false quando a transição é ilegal.
func Transicao(acao Acao, de Status) (Status, bool) {
	t, ok := transicoes[acao]
	if !ok || t.De != de {
		return "", false
	}
	return t.Para, true
}

// Editavel informa se a autora ainda pode alterar o conteúdo.
// PENDENTE congela o texto até a revisão; APROVADO é terminal.
func (s Status) Editavel() bool {
	return s == StatusRascunho || s == StatusEmAjuste
}

// Planejamento é o documento de plano de aula sujeito ao fluxo de revisão.
type Planejamento struct {
	ID               uuid.UUID  `json:"id"`
	UsuarioID        uuid.UUID  `json:"usuario_id"`
	UnidadeID        *uuid.UUID `json:"unidade_id,omitempty"`
	TurmaCodigo      string     `json:"turma_codigo"`
	Bimestre         int        `json:"bimestre"`
	Titulo           string     `json:"titulo"`
	Conteudo         string     `json:"conteudo"`
	Status           Status     `json:"status"`
	CiclosRevisao    int        `json:"ciclos_revisao"`
	AprovadoPrimeira *bool      `json:"aprovado_primeira,omitempty"`
	EnviadoEm        *time.Time `json:"enviado_em,omitempty"`
	AprovadoEm       *time.Time `json:"aprovado_em,omitempty"`
	CriadoEm         time.Time  `json:"criado_em"`
	AtualizadoEm     time.Time  `json:"atualizado_em"`
}

// Revisao registra uma devolução com comentário da revisora.
type Revisao struct {
	ID             uuid.UUID `json:"id"`
	PlanejamentoID uuid.UUID `json:"planejamento_id"`
	RevisorID      uuid.UUID `json:"revisor_id"`
	Comentario     string    `json:"comentario"`
	CriadoEm       time.Time `json:"criado_em"`
}

const (
	comentarioMin = 10
	comentarioMax = 2000
)
