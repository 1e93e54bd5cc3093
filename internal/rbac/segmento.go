package rbac

import "strings"

// Segmento agrupa as etapas de ensino atendidas pela rede.
// SegmentoTodos significa visão sem restrição de etapa.
type Segmento string

const (
	SegmentoBercario Segmento = "BERCARIO"
	SegmentoInfantil Segmento = "INFANTIL"
	SegmentoFundI    Segmento = "FUNDAMENTAL_I"
	SegmentoFundII   Segmento = "FUNDAMENTAL_II"
	SegmentoMedio    Segmento = "MEDIO"
	SegmentoTodos    Segmento = "ALL"
)

// prefixos associa cada segmento ao prefixo do código de turma.
// A ordem importa: é a ordem de teste na extração reversa. Os valores
// são contrato de dados com as tabelas de turma, não são cosméticos.
var prefixos = []struct {
	Segmento Segmento
	Prefixo  string
}{
	{SegmentoBercario, "BERC-"},
	{SegmentoInfantil, "INF-"},
	{SegmentoFundI, "FUND-I-"},
	{SegmentoFundII, "FUND-II-"},
	{SegmentoMedio, "MED-"},
}

// Segmento devolve a etapa de ensino enxergada pelo papel.
// Papéis fora do enum caem em SegmentoTodos; o comportamento vem do sistema
// original e há teste cobrindo-o explicitamente.
func (p Papel) Segmento() Segmento {
	switch p {
	case PapelCoordenadoraBercario:
		return SegmentoBercario
	case PapelCoordenadoraInfantil:
		return SegmentoInfantil
	case PapelCoordenadoraFundI:
		return SegmentoFundI
	case PapelCoordenadoraFundII:
		return SegmentoFundII
	case PapelCoordenadoraMedio:
		return SegmentoMedio
	case PapelMaster, PapelDiretoraGeral, PapelGerenteUnidade, PapelGerenteFinanceiro,
		PapelCoordenadoraGeral, PapelAnalistaPedagogico, PapelProfessora,
		PapelAuxiliarSala, PapelAuxiliarAdministrativo:
		return SegmentoTodos
	default:
		return SegmentoTodos
	}
}

// Prefixo devolve o prefixo de código de turma do segmento. SegmentoTodos
// (e valores desconhecidos) devolvem ok=false, sem restrição.
func (s Segmento) Prefixo() (string, bool) {
	for _, entry := range prefixos {
		if entry.Segmento == s {
			return entry.Prefixo, true
		}
	}
	return "", false
}

// PadraoLike devolve o prefixo no formato LIKE ("BERC-%") para a camada de
// consulta, ou ok=false quando o segmento não restringe nada.
func (s Segmento) PadraoLike() (string, bool) {
	prefixo, ok := s.Prefixo()
	if !ok {
		return "", false
	}
	return prefixo + "%", true
}

// SegmentoDoCodigo mapeia um código de turma de volta ao segmento pelo
// prefixo, testando na ordem fixa da tabela. Códigos sem prefixo conhecido
// devolvem ok=false.
func SegmentoDoCodigo(codigo string) (Segmento, bool) {
	for _, entry := range prefixos {
		if strings.HasPrefix(codigo, entry.Prefixo) {
			return entry.Segmento, true
		}
	}
	return "", false
}
