package rbac

// Papel identifica a função de um usuário na rede. Os valores são contrato
// com o banco e com os frontends, não devem ser alterados.
type Papel string

const (
	PapelMaster                 Papel = "master"
	PapelDiretoraGeral          Papel = "diretora_geral"
	PapelGerenteUnidade         Papel = "gerente_unidade"
	PapelGerenteFinanceiro      Papel = "gerente_financeiro"
	PapelCoordenadoraGeral      Papel = "coordenadora_geral"
	PapelCoordenadoraBercario   Papel = "coordenadora_bercario"
	PapelCoordenadoraInfantil   Papel = "coordenadora_infantil"
	PapelCoordenadoraFundI      Papel = "coordenadora_fundamental_i"
	PapelCoordenadoraFundII     Papel = "coordenadora_fundamental_ii"
	PapelCoordenadoraMedio      Papel = "coordenadora_medio"
	PapelAnalistaPedagogico     Papel = "analista_pedagogico"
	PapelProfessora             Papel = "professora"
	PapelAuxiliarSala           Papel = "auxiliar_sala"
	PapelAuxiliarAdministrativo Papel = "auxiliar_administrativo"
)

// hierarquia atribui a cada papel um nível de privilégio (0 = mais alto).
// Carregada uma única vez, nunca alterada em runtime.
var hierarquia = map[Papel]int{
	PapelMaster:                 0,
	PapelDiretoraGeral:          1,
	PapelGerenteUnidade:         2,
	PapelGerenteFinanceiro:      2,
	PapelCoordenadoraGeral:      3,
	PapelCoordenadoraBercario:   4,
	PapelCoordenadoraInfantil:   4,
	PapelCoordenadoraFundI:      4,
	PapelCoordenadoraFundII:     4,
	PapelCoordenadoraMedio:      4,
	PapelAnalistaPedagogico:     4,
	PapelProfessora:             5,
	PapelAuxiliarSala:           6,
	PapelAuxiliarAdministrativo: 6,
}

// Todos lista os papéis conhecidos, do mais ao menos privilegiado.
func Todos() []Papel {
	return []Papel{
		PapelMaster,
		PapelDiretoraGeral,
		PapelGerenteUnidade,
		PapelGerenteFinanceiro,
		PapelCoordenadoraGeral,
		PapelCoordenadoraBercario,
		PapelCoordenadoraInfantil,
		PapelCoordenadoraFundI,
		PapelCoordenadoraFundII,
		PapelCoordenadoraMedio,
		PapelAnalistaPedagogico,
		PapelProfessora,
		PapelAuxiliarSala,
		PapelAuxiliarAdministrativo,
	}
}

// Conhecido informa se o papel faz parte do enum.
func (p Papel) Conhecido() bool {
	_, ok := hierarquia[p]
	return ok
}

// Nivel devolve a posição do papel na hierarquia (0 = mais alto).
// Papéis desconhecidos caem no nível mais baixo.
func (p Papel) Nivel() int {
	if nivel, ok := hierarquia[p]; ok {
		return nivel
	}
	return len(hierarquia)
}

// Autoral indica papéis que produzem planejamentos (acesso por posse estrita).
func (p Papel) Autoral() bool {
	return p == PapelProfessora || p == PapelAuxiliarSala
}

// Coordenacao indica papéis de coordenação pedagógica, com visão por segmento.
func (p Papel) Coordenacao() bool {
	switch p {
	case PapelCoordenadoraGeral,
		PapelCoordenadoraBercario,
		PapelCoordenadoraInfantil,
		PapelCoordenadoraFundI,
		PapelCoordenadoraFundII,
		PapelCoordenadoraMedio,
		PapelAnalistaPedagogico:
		return true
	}
	return false
}
