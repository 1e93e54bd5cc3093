package rbac

import (
	"strings"

	"github.com/google/uuid"
)

// Usuario carrega a identidade mínima extraída do token por requisição.
// Montado pela camada de autenticação; somente leitura aqui.
type Usuario struct {
	ID    uuid.UUID
	Papel Papel
}

// PodeAcessarModuloPlanejamento informa se o papel enxerga o módulo de
// planejamento. Apenas o auxiliar administrativo fica de fora.
func PodeAcessarModuloPlanejamento(p Papel) bool {
	return p != PapelAuxiliarAdministrativo
}

// PodeAprovar informa se o papel pode aprovar ou devolver planejamentos.
// Papéis autorais nunca revisam, nem o próprio trabalho.
func PodeAprovar(p Papel) bool {
	switch p {
	case PapelMaster, PapelDiretoraGeral, PapelGerenteUnidade, PapelGerenteFinanceiro,
		PapelCoordenadoraGeral, PapelCoordenadoraBercario, PapelCoordenadoraInfantil,
		PapelCoordenadoraFundI, PapelCoordenadoraFundII, PapelCoordenadoraMedio,
		PapelAnalistaPedagogico:
		return true
	case PapelProfessora, PapelAuxiliarSala, PapelAuxiliarAdministrativo:
		return false
	default:
		return false
	}
}

// PodeVerPlanejamento decide acesso a um registro individual:
//   - papéis autorais: somente o que é seu (posse estrita, sem exceções);
//   - coordenação: turma dentro do seu segmento, ou tudo quando o segmento
//     não restringe;
//   - demais papéis (direção, master, gerentes): tudo.
func PodeVerPlanejamento(u Usuario, donoID uuid.UUID, turmaCodigo string) bool {
	switch {
	case u.Papel.Autoral():
		return donoID == u.ID
	case u.Papel.Coordenacao():
		prefixo, ok := u.Papel.Segmento().Prefixo()
		if !ok {
			return true
		}
		return strings.HasPrefix(turmaCodigo, prefixo)
	default:
		return true
	}
}

// Filtro descreve, de forma declarativa, o recorte de visibilidade a ser
// traduzido pela camada de persistência. Nil significa "sem filtro".
type Filtro struct {
	// UsuarioID restringe aos registros do próprio autor.
	UsuarioID *uuid.UUID
	// TurmaPrefixo restringe por prefixo do código de turma (startsWith).
	TurmaPrefixo string
}

// FiltroVisibilidade monta o filtro equivalente a PodeVerPlanejamento para
// consultas em lote. Invariante coberta por teste: aplicar o filtro a um
// conjunto de registros seleciona exatamente os aprovados registro a
// registro pelo predicado.
func FiltroVisibilidade(u Usuario) *Filtro {
	switch {
	case u.Papel.Autoral():
		id := u.ID
		return &Filtro{UsuarioID: &id}
	case u.Papel.Coordenacao():
		prefixo, ok := u.Papel.Segmento().Prefixo()
		if !ok {
			return nil
		}
		return &Filtro{TurmaPrefixo: prefixo}
	default:
		return nil
	}
}

// PadraoLike devolve o padrão LIKE equivalente ao recorte por prefixo, ou
// vazio quando o filtro não restringe por turma. Os prefixos de segmento não
// contêm metacaracteres de LIKE.
func (f *Filtro) PadraoLike() string {
	if f == nil || f.TurmaPrefixo == "" {
		return ""
	}
	return f.TurmaPrefixo + "%"
}

// Permite avalia o filtro contra um registro em memória, com a mesma
// semântica que a tradução SQL deve ter.
func (f *Filtro) Permite(donoID uuid.UUID, turmaCodigo string) bool {
	if f == nil {
		return true
	}
	if f.UsuarioID != nil && *f.UsuarioID != donoID {
		return false
	}
	if f.TurmaPrefixo != "" && !strings.HasPrefix(turmaCodigo, f.TurmaPrefixo) {
		return false
	}
	return true
}
