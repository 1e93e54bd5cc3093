package planejamento

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/redelumiar/plataforma/internal/rbac"
	"github.com/redelumiar/plataforma/internal/util"
)

type stubRepo struct {
	itens      map[uuid.UUID]Planejamento
	revisoes   []Revisao
	revisaoErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{itens: make(map[uuid.UUID]Planejamento)}
}

func (s *stubRepo) Create(ctx context.Context, p Planejamento) (Planejamento, error) {
	s.itens[p.ID] = p
	return p, nil
}

func (s *stubRepo) Get(ctx context.Context, id uuid.UUID) (Planejamento, error) {
	p, ok := s.itens[id]
	if !ok {
		return Planejamento{}, ErrNotFound
	}
	return p, nil
}

func (s *stubRepo) List(ctx context.Context, filtro *rbac.Filtro) ([]Planejamento, error) {
	var lista []Planejamento
	for _, p := range s.itens {
		if filtro.Permite(p.UsuarioID, p.TurmaCodigo) {
			lista = append(lista, p)
		}
	}
	return lista, nil
}

func (s *stubRepo) UpdateConteudo(ctx context.Context, id uuid.UUID, titulo, conteudo string) (Planejamento, error) {
	p, ok := s.itens[id]
	if !ok {
		return Planejamento{}, ErrNotFound
	}
	p.Titulo = titulo
	p.Conteudo = conteudo
	s.itens[id] = p
	return p, nil
}

func (s *stubRepo) Transition(ctx context.Context, arg TransitionParams) (Planejamento, error) {
	p, ok := s.itens[arg.ID]
	if !ok {
		return Planejamento{}, ErrNotFound
	}
	if p.Status != arg.De {
		return Planejamento{}, ErrConflito
	}
	p.Status = arg.Para
	if arg.EnviadoEm != nil {
		p.EnviadoEm = arg.EnviadoEm
	}
	if arg.AprovadoEm != nil {
		p.AprovadoEm = arg.AprovadoEm
	}
	if arg.IncrementaCiclo {
		p.CiclosRevisao++
	}
	if arg.AprovadoPrimeira != nil {
		p.AprovadoPrimeira = arg.AprovadoPrimeira
	}
	s.itens[arg.ID] = p
	return p, nil
}

// TransitionComRevisao imita a transação do repositório real: quando a
// gravação do comentário falha, a transição não acontece.
func (s *stubRepo) TransitionComRevisao(ctx context.Context, arg TransitionParams, rev Revisao) (Planejamento, error) {
	if s.revisaoErr != nil {
		return Planejamento{}, s.revisaoErr
	}
	p, err := s.Transition(ctx, arg)
	if err != nil {
		return Planejamento{}, err
	}
	s.revisoes = append(s.revisoes, rev)
	return p, nil
}

func (s *stubRepo) ListRevisoes(ctx context.Context, planejamentoID uuid.UUID) ([]Revisao, error) {
	var lista []Revisao
	for _, rev := range s.revisoes {
		if rev.PlanejamentoID == planejamentoID {
			lista = append(lista, rev)
		}
	}
	return lista, nil
}

func seed(repo *stubRepo, dono uuid.UUID, turma string, status Status, ciclos int) Planejamento {
	agora := util.Now()
	p := Planejamento{
		ID:            uuid.New(),
		UsuarioID:     dono,
		TurmaCodigo:   turma,
		Bimestre:      1,
		Titulo:        "Ciclo da água",
		Conteudo:      "Observação, evaporação e registro em diário de bordo.",
		Status:        status,
		CiclosRevisao: ciclos,
		CriadoEm:      agora,
		AtualizadoEm:  agora,
	}
	repo.itens[p.ID] = p
	return p
}

func professora() rbac.Usuario {
	return rbac.Usuario{ID: uuid.New(), Papel: rbac.PapelProfessora}
}

func coordenadora(p rbac.Papel) rbac.Usuario {
	return rbac.Usuario{ID: uuid.New(), Papel: p}
}

func TestCriarComecaEmRascunho(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	autora := professora()

	criado, err := svc.Criar(context.Background(), autora, CriarInput{
		TurmaCodigo: "INF-2B-2026",
		Bimestre:    2,
		Titulo:      "Cores e formas",
		Conteudo:    "Atividades com blocos lógicos.",
	})
	if err != nil {
		t.Fatalf("criar: %v", err)
	}
	if criado.Status != StatusRascunho {
		t.Fatalf("status inicial = %s, esperado RASCUNHO", criado.Status)
	}
	if criado.CiclosRevisao != 0 || criado.AprovadoPrimeira != nil {
		t.Fatalf("contadores de revisão devem começar zerados")
	}
	if criado.UsuarioID != autora.ID {
		t.Fatalf("planejamento deve pertencer à autora")
	}
}

func TestCriarValidacoes(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	autora := professora()

	tests := []struct {
		name  string
		input CriarInput
		campo string
	}{
		{"turma vazia", CriarInput{Bimestre: 1, Titulo: "x"}, "turma_codigo"},
		{"prefixo desconhecido", CriarInput{TurmaCodigo: "EXT-1A-2026", Bimestre: 1, Titulo: "x"}, "turma_codigo"},
		{"bimestre fora da faixa", CriarInput{TurmaCodigo: "MED-1A-2026", Bimestre: 5, Titulo: "x"}, "bimestre"},
		{"sem título", CriarInput{TurmaCodigo: "MED-1A-2026", Bimestre: 1}, "titulo"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Criar(context.Background(), autora, tc.input)
			var valErr *ErroValidacao
			if !errors.As(err, &valErr) {
				t.Fatalf("esperado ErroValidacao, veio %v", err)
			}
			if valErr.Campo != tc.campo {
				t.Fatalf("campo = %s, esperado %s", valErr.Campo, tc.campo)
			}
		})
	}
}

func TestCriarExigePapelAutoral(t *testing.T) {
	svc := NewService(newStubRepo(), nil, nil)
	coord := coordenadora(rbac.PapelCoordenadoraGeral)

	_, err := svc.Criar(context.Background(), coord, CriarInput{TurmaCodigo: "INF-1A-2026", Bimestre: 1, Titulo: "x"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("coordenação não cria planejamento, veio %v", err)
	}
}

func TestEnviarCarimbaEnvio(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	autora := professora()
	p := seed(repo, autora.ID, "FUND-I-3A-2026", StatusRascunho, 0)

	enviado, err := svc.Enviar(context.Background(), autora, p.ID)
	if err != nil {
		t.Fatalf("enviar: %v", err)
	}
	if enviado.Status != StatusPendente {
		t.Fatalf("status = %s, esperado PENDENTE", enviado.Status)
	}
	if enviado.EnviadoEm == nil {
		t.Fatalf("enviado_em deve ser carimbado")
	}
}

func TestAprovarRascunhoEhRejeitado(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	autora := professora()
	p := seed(repo, autora.ID, "INF-1A-2026", StatusRascunho, 0)

	_, err := svc.Aprovar(context.Background(), coordenadora(rbac.PapelCoordenadoraInfantil), p.ID)
	if !errors.Is(err, ErrTransicao) {
		t.Fatalf("aprovar RASCUNHO deve falhar com ErrTransicao, veio %v", err)
	}
	if atual, _ := repo.Get(context.Background(), p.ID); atual.Status != StatusRascunho {
		t.Fatalf("status não pode mudar em transição rejeitada")
	}
}

func TestSolicitarAjustesIncrementaCiclo(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	autora := professora()
	p := seed(repo, autora.ID, "INF-1A-2026", StatusPendente, 0)
	coord := coordenadora(rbac.PapelCoordenadoraInfantil)

	devolvido, err := svc.SolicitarAjustes(context.Background(), coord, p.ID, "Inclua os objetivos da BNCC por atividade.")
	if err != nil {
		t.Fatalf("solicitar ajustes: %v", err)
	}
	if devolvido.Status != StatusEmAjuste {
		t.Fatalf("status = %s, esperado EM_AJUSTE", devolvido.Status)
	}
	if devolvido.CiclosRevisao != 1 {
		t.Fatalf("ciclos_revisao = %d, esperado 1", devolvido.CiclosRevisao)
	}
	if devolvido.AprovadoPrimeira == nil || *devolvido.AprovadoPrimeira {
		t.Fatalf("primeira devolução zera aprovado_primeira")
	}

	revisoes, _ := repo.ListRevisoes(context.Background(), p.ID)
	if len(revisoes) != 1 || revisoes[0].RevisorID != coord.ID {
		t.Fatalf("comentário da revisora deve ficar registrado com autoria")
	}
}

func TestSolicitarAjustesNaoDevolveSemRegistrarComentario(t *testing.T) {
	repo := newStubRepo()
	repo.revisaoErr = errors.New("insert falhou")
	svc := NewService(repo, nil, nil)
	autora := professora()
	p := seed(repo, autora.ID, "INF-1A-2026", StatusPendente, 0)

	_, err := svc.SolicitarAjustes(context.Background(), coordenadora(rbac.PapelCoordenadoraInfantil), p.ID, "Inclua os objetivos da BNCC por atividade.")
	if err == nil {
		t.Fatalf("falha na gravação do comentário deve propagar erro")
	}

	atual, _ := repo.Get(context.Background(), p.ID)
	if atual.Status != StatusPendente || atual.CiclosRevisao != 0 {
		t.Fatalf("devolução sem comentário não pode acontecer: status=%s ciclos=%d", atual.Status, atual.CiclosRevisao)
	}
	if len(repo.revisoes) != 0 {
		t.Fatalf("nenhuma revisão pode ficar registrada")
	}
}

func TestAprovarDePrimeira(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	autora := professora()
	p := seed(repo, autora.ID, "MED-2A-2026", StatusPendente, 0)

	aprovado, err := svc.Aprovar(context.Background(), coordenadora(rbac.PapelCoordenadoraMedio), p.ID)
	if err != nil {
		t.Fatalf("aprovar: %v", err)
	}
	if aprovado.Status != StatusAprovado {
		t.Fatalf("status = %s, esperado APROVADO", aprovado.Status)
	}
	if aprovado.AprovadoEm == nil {
		t.Fatalf("aprovado_em deve ser carimbado")
	}
	if aprovado.AprovadoPrimeira == nil || !*aprovado.AprovadoPrimeira {
		t.Fatalf("aprovação sem devolução marca aprovado_primeira")
	}
}

func TestAprovarAposAjustesNaoEhDePrimeira(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	autora := professora()
	p := seed(repo, autora.ID, "BERC-1A-2026", StatusPendente, 1)
	naoPrimeira := false
	registro := repo.itens[p.ID]
	registro.AprovadoPrimeira = &naoPrimeira
	repo.itens[p.ID] = registro

	aprovado, err := svc.Aprovar(context.Background(), coordenadora(rbac.PapelCoordenadoraBercario), p.ID)
	if err != nil {
		t.Fatalf("aprovar: %v", err)
	}
	if aprovado.AprovadoPrimeira == nil || *aprovado.AprovadoPrimeira {
		t.Fatalf("aprovação após devolução não pode virar aprovado_primeira")
	}
}

func TestAutoraNaoAprovaOProprioPlano(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	autora := professora()
	p := seed(repo, autora.ID, "INF-1A-2026", StatusPendente, 0)

	_, err := svc.Aprovar(context.Background(), autora, p.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("autora aprovando o próprio plano deve falhar com ErrForbidden, veio %v", err)
	}
}

func TestCoordenadoraForaDoSegmentoNaoRevisa(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	p := seed(repo, uuid.New(), "FUND-I-3A-2026", StatusPendente, 0)

	_, err := svc.Aprovar(context.Background(), coordenadora(rbac.PapelCoordenadoraInfantil), p.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("coordenadora de outro segmento não aprova, veio %v", err)
	}
	if _, err := svc.Aprovar(context.Background(), coordenadora(rbac.PapelCoordenadoraFundI), p.ID); err != nil {
		t.Fatalf("coordenadora do segmento aprova: %v", err)
	}
}

func TestComentarioForaDaFaixa(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	p := seed(repo, uuid.New(), "INF-1A-2026", StatusPendente, 0)
	coord := coordenadora(rbac.PapelCoordenadoraGeral)

	for _, comentario := range []string{"curto", strings.Repeat("a", 2001)} {
		_, err := svc.SolicitarAjustes(context.Background(), coord, p.ID, comentario)
		var valErr *ErroValidacao
		if !errors.As(err, &valErr) || valErr.Campo != "comentario" {
			t.Fatalf("comentário com %d caracteres deve falhar no campo comentario, veio %v", len(comentario), err)
		}
	}

	if len(repo.revisoes) != 0 {
		t.Fatalf("comentário rejeitado não pode ser registrado")
	}
}

func TestReenviarAposAjustes(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	autora := professora()
	p := seed(repo, autora.ID, "INF-1A-2026", StatusEmAjuste, 1)

	reenviado, err := svc.Reenviar(context.Background(), autora, p.ID)
	if err != nil {
		t.Fatalf("reenviar: %v", err)
	}
	if reenviado.Status != StatusPendente {
		t.Fatalf("status = %s, esperado PENDENTE", reenviado.Status)
	}

	if _, err := svc.Reenviar(context.Background(), autora, p.ID); !errors.Is(err, ErrTransicao) {
		t.Fatalf("reenviar PENDENTE deve falhar com ErrTransicao, veio %v", err)
	}
}

func TestAtualizarSomenteQuandoEditavel(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	autora := professora()

	editavel := seed(repo, autora.ID, "INF-1A-2026", StatusEmAjuste, 1)
	if _, err := svc.AtualizarRascunho(context.Background(), autora, editavel.ID, "Título novo", "conteúdo"); err != nil {
		t.Fatalf("EM_AJUSTE permite edição: %v", err)
	}

	congelado := seed(repo, autora.ID, "INF-1A-2026", StatusPendente, 0)
	if _, err := svc.AtualizarRascunho(context.Background(), autora, congelado.ID, "x", "y"); !errors.Is(err, ErrTransicao) {
		t.Fatalf("PENDENTE congela edição, veio %v", err)
	}

	deOutra := seed(repo, uuid.New(), "INF-1A-2026", StatusRascunho, 0)
	if _, err := svc.AtualizarRascunho(context.Background(), autora, deOutra.ID, "x", "y"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("edição exige posse, veio %v", err)
	}
}

func TestListarRespeitaEscopo(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	autora := professora()
	seed(repo, autora.ID, "INF-1A-2026", StatusRascunho, 0)
	seed(repo, uuid.New(), "INF-2B-2026", StatusPendente, 0)
	seed(repo, uuid.New(), "FUND-II-8A-2026", StatusPendente, 0)

	minha, err := svc.Listar(context.Background(), autora)
	if err != nil {
		t.Fatalf("listar: %v", err)
	}
	if len(minha) != 1 || minha[0].UsuarioID != autora.ID {
		t.Fatalf("professora enxerga apenas os próprios planejamentos")
	}

	infantil, _ := svc.Listar(context.Background(), coordenadora(rbac.PapelCoordenadoraInfantil))
	if len(infantil) != 2 {
		t.Fatalf("coordenadora infantil enxerga %d, esperado 2", len(infantil))
	}

	tudo, _ := svc.Listar(context.Background(), rbac.Usuario{ID: uuid.New(), Papel: rbac.PapelDiretoraGeral})
	if len(tudo) != 3 {
		t.Fatalf("direção enxerga %d, esperado 3", len(tudo))
	}
}

func TestObterRespeitaPosse(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	p := seed(repo, uuid.New(), "MED-1A-2026", StatusPendente, 0)

	if _, err := svc.Obter(context.Background(), professora(), p.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("professora não enxerga plano alheio, veio %v", err)
	}
	if _, err := svc.Obter(context.Background(), coordenadora(rbac.PapelCoordenadoraMedio), p.ID); err != nil {
		t.Fatalf("coordenadora do segmento enxerga: %v", err)
	}
	if _, err := svc.Obter(context.Background(), professora(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("id inexistente responde ErrNotFound, veio %v", err)
	}
}

// racingRepo devolve na leitura um status desatualizado para simular outra
// revisora vencendo a corrida entre o Get e o UPDATE condicional.
type racingRepo struct {
	*stubRepo
	staleStatus Status
}

func (r *racingRepo) Get(ctx context.Context, id uuid.UUID) (Planejamento, error) {
	p, err := r.stubRepo.Get(ctx, id)
	if err != nil {
		return Planejamento{}, err
	}
	p.Status = r.staleStatus
	return p, nil
}

func TestCorridaEntreRevisorasDaConflito(t *testing.T) {
	inner := newStubRepo()
	p := seed(inner, uuid.New(), "INF-1A-2026", StatusAprovado, 0)
	svc := NewService(&racingRepo{stubRepo: inner, staleStatus: StatusPendente}, nil, nil)

	_, err := svc.Aprovar(context.Background(), coordenadora(rbac.PapelCoordenadoraGeral), p.ID)
	if !errors.Is(err, ErrConflito) {
		t.Fatalf("segunda revisora deve perder com ErrConflito, veio %v", err)
	}
}

func TestTabelaDeTransicoes(t *testing.T) {
	todas := []Status{StatusRascunho, StatusPendente, StatusEmAjuste, StatusAprovado}
	legais := map[Acao]Status{
		AcaoEnviar:           StatusRascunho,
		AcaoAprovar:          StatusPendente,
		AcaoSolicitarAjustes: StatusPendente,
		AcaoReenviar:         StatusEmAjuste,
	}

	for acao, origem := range legais {
		for _, de := range todas {
			_, ok := Transicao(acao, de)
			if ok != (de == origem) {
				t.Fatalf("Transicao(%s, %s) = %v", acao, de, ok)
			}
		}
	}

	if _, ok := Transicao(Acao("arquivar"), StatusAprovado); ok {
		t.Fatalf("ação desconhecida nunca transiciona")
	}
}
