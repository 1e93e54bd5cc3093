package planejamento

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/redelumiar/plataforma/internal/notifica"
	"github.com/redelumiar/plataforma/internal/rbac"
	"github.com/redelumiar/plataforma/internal/util"
)

// Repository abstrai a persistência dos planejamentos.
type Repository interface {
	Create(ctx context.Context, p Planejamento) (Planejamento, error)
	Get(ctx context.Context, id uuid.UUID) (Planejamento, error)
	List(ctx context.Context, filtro *rbac.Filtro) ([]Planejamento, error)
	UpdateConteudo(ctx context.Context, id uuid.UUID, titulo, conteudo string) (Planejamento, error)
	Transition(ctx context.Context, arg TransitionParams) (Planejamento, error)
	TransitionComRevisao(ctx context.Context, arg TransitionParams, rev Revisao) (Planejamento, error)
	ListRevisoes(ctx context.Context, planejamentoID uuid.UUID) ([]Revisao, error)
}

// TransitionParams descreve uma mudança de status condicionada ao status
// atual: o repositório só aplica quando o registro ainda está em De.
type TransitionParams struct {
	ID               uuid.UUID
	De               Status
	Para             Status
	EnviadoEm        *time.Time
	AprovadoEm       *time.Time
	IncrementaCiclo  bool
	AprovadoPrimeira *bool
}

// Service concentra as regras do fluxo de aprovação de planejamentos.
type Service struct {
	repo     Repository
	cache    *redis.Client
	notifier notifica.Notifier
}

// NewService cria o serviço. cache e notifier podem ser nil.
func NewService(repo Repository, cache *redis.Client, notifier notifica.Notifier) *Service {
	return &Service{repo: repo, cache: cache, notifier: notifier}
}

// CriarInput reúne os campos fornecidos pela autora na criação.
type CriarInput struct {
	TurmaCodigo string `json:"turma_codigo"`
	Bimestre    int    `json:"bimestre"`
	Titulo      string `json:"titulo"`
	Conteudo    string `json:"conteudo"`
}

// Criar registra um novo planejamento em RASCUNHO para a autora.
func (s *Service) Criar(ctx context.Context, usuario rbac.Usuario, input CriarInput) (Planejamento, error) {
	if !usuario.Papel.Autoral() {
		return Planejamento{}, ErrForbidden
	}
	if strings.TrimSpace(input.TurmaCodigo) == "" {
		return Planejamento{}, &ErroValidacao{Campo: "turma_codigo", Motivo: "obrigatório"}
	}
	if _, ok := rbac.SegmentoDoCodigo(input.TurmaCodigo); !ok {
		return Planejamento{}, &ErroValidacao{Campo: "turma_codigo", Motivo: "prefixo de segmento desconhecido"}
	}
	if input.Bimestre < 1 || input.Bimestre > 4 {
		return Planejamento{}, &ErroValidacao{Campo: "bimestre", Motivo: "deve estar entre 1 e 4"}
	}
	if strings.TrimSpace(input.Titulo) == "" {
		return Planejamento{}, &ErroValidacao{Campo: "titulo", Motivo: "obrigatório"}
	}

	agora := util.Now()
	p := Planejamento{
		ID:            uuid.New(),
		UsuarioID:     usuario.ID,
		TurmaCodigo:   strings.TrimSpace(input.TurmaCodigo),
		Bimestre:      input.Bimestre,
		Titulo:        strings.TrimSpace(input.Titulo),
		Conteudo:      input.Conteudo,
		Status:        StatusRascunho,
		CiclosRevisao: 0,
		CriadoEm:      agora,
		AtualizadoEm:  agora,
	}

	criado, err := s.repo.Create(ctx, p)
	if err != nil {
		return Planejamento{}, err
	}
	s.invalidateCache(ctx)
	return criado, nil
}

// Obter carrega um planejamento respeitando o escopo de visibilidade do papel.
func (s *Service) Obter(ctx context.Context, usuario rbac.Usuario, id uuid.UUID) (Planejamento, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Planejamento{}, err
	}
	if !rbac.PodeVerPlanejamento(usuario, p.UsuarioID, p.TurmaCodigo) {
		return Planejamento{}, ErrForbidden
	}
	return p, nil
}

// Listar devolve os planejamentos visíveis ao papel do usuário, usando cache
// curto por usuário para aliviar listagens repetidas.
func (s *Service) Listar(ctx context.Context, usuario rbac.Usuario) ([]Planejamento, error) {
	cacheKey := fmt.Sprintf("planejamentos:%s", usuario.ID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var lista []Planejamento
			if err := json.Unmarshal([]byte(cached), &lista); err == nil {
				return lista, nil
			}
		}
	}

	lista, err := s.repo.List(ctx, rbac.FiltroVisibilidade(usuario))
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(lista); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, 30*time.Second).Err(); err != nil {
				log.Warn().Err(err).Msg("cache de planejamentos indisponível")
			}
		}
	}
	return lista, nil
}

// AtualizarRascunho altera título e conteúdo enquanto a autora ainda pode
// editar (RASCUNHO ou EM_AJUSTE).
func (s *Service) AtualizarRascunho(ctx context.Context, usuario rbac.Usuario, id uuid.UUID, titulo, conteudo string) (Planejamento, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Planejamento{}, err
	}
	if !usuario.Papel.Autoral() || p.UsuarioID != usuario.ID {
		return Planejamento{}, ErrForbidden
	}
	if !p.Status.Editavel() {
		return Planejamento{}, ErrTransicao
	}
	if strings.TrimSpace(titulo) == "" {
		return Planejamento{}, &ErroValidacao{Campo: "titulo", Motivo: "obrigatório"}
	}

	atualizado, err := s.repo.UpdateConteudo(ctx, id, strings.TrimSpace(titulo), conteudo)
	if err != nil {
		return Planejamento{}, err
	}
	s.invalidateCache(ctx)
	return atualizado, nil
}

// Enviar move RASCUNHO -> PENDENTE e carimba enviado_em.
func (s *Service) Enviar(ctx context.Context, usuario rbac.Usuario, id uuid.UUID) (Planejamento, error) {
	p, err := s.autoral(ctx, usuario, id)
	if err != nil {
		return Planejamento{}, err
	}
	para, ok := Transicao(AcaoEnviar, p.Status)
	if !ok {
		return Planejamento{}, ErrTransicao
	}

	agora := util.Now()
	atualizado, err := s.repo.Transition(ctx, TransitionParams{
		ID:        id,
		De:        p.Status,
		Para:      para,
		EnviadoEm: &agora,
	})
	if err != nil {
		return Planejamento{}, err
	}

	s.invalidateCache(ctx)
	s.notify("Planejamento enviado para revisão", atualizado)
	return atualizado, nil
}

// Reenviar move EM_AJUSTE -> PENDENTE após a autora aplicar os ajustes.
func (s *Service) Reenviar(ctx context.Context, usuario rbac.Usuario, id uuid.UUID) (Planejamento, error) {
	p, err := s.autoral(ctx, usuario, id)
	if err != nil {
		return Planejamento{}, err
	}
	para, ok := Transicao(AcaoReenviar, p.Status)
	if !ok {
		return Planejamento{}, ErrTransicao
	}

	atualizado, err := s.repo.Transition(ctx, TransitionParams{ID: id, De: p.Status, Para: para})
	if err != nil {
		return Planejamento{}, err
	}

	s.invalidateCache(ctx)
	s.notify("Planejamento reenviado para revisão", atualizado)
	return atualizado, nil
}

// Aprovar move PENDENTE -> APROVADO. Quando é o primeiro ciclo de revisão,
// marca aprovação de primeira para o indicador de qualidade dos planos.
func (s *Service) Aprovar(ctx context.Context, usuario rbac.Usuario, id uuid.UUID) (Planejamento, error) {
	p, err := s.revisora(ctx, usuario, id)
	if err != nil {
		return Planejamento{}, err
	}
	para, ok := Transicao(AcaoAprovar, p.Status)
	if !ok {
		return Planejamento{}, ErrTransicao
	}

	agora := util.Now()
	arg := TransitionParams{
		ID:         id,
		De:         p.Status,
		Para:       para,
		AprovadoEm: &agora,
	}
	if p.CiclosRevisao == 0 {
		primeira := true
		arg.AprovadoPrimeira = &primeira
	}

	atualizado, err := s.repo.Transition(ctx, arg)
	if err != nil {
		return Planejamento{}, err
	}

	s.invalidateCache(ctx)
	s.notify("Planejamento aprovado", atualizado)
	return atualizado, nil
}

// SolicitarAjustes move PENDENTE -> EM_AJUSTE, incrementa o ciclo de revisão
// e registra o comentário obrigatório da revisora.
func (s *Service) SolicitarAjustes(ctx context.Context, usuario rbac.Usuario, id uuid.UUID, comentario string) (Planejamento, error) {
	comentario = strings.TrimSpace(comentario)
	if n := utf8.RuneCountInString(comentario); n < comentarioMin || n > comentarioMax {
		return Planejamento{}, &ErroValidacao{
			Campo:  "comentario",
			Motivo: fmt.Sprintf("deve ter entre %d e %d caracteres", comentarioMin, comentarioMax),
		}
	}

	p, err := s.revisora(ctx, usuario, id)
	if err != nil {
		return Planejamento{}, err
	}
	para, ok := Transicao(AcaoSolicitarAjustes, p.Status)
	if !ok {
		return Planejamento{}, ErrTransicao
	}

	arg := TransitionParams{
		ID:              id,
		De:              p.Status,
		Para:            para,
		IncrementaCiclo: true,
	}
	if p.CiclosRevisao == 0 {
		primeira := false
		arg.AprovadoPrimeira = &primeira
	}

	// Transição e comentário são atômicos: uma devolução sem o registro da
	// revisora não pode existir.
	atualizado, err := s.repo.TransitionComRevisao(ctx, arg, Revisao{
		ID:             uuid.New(),
		PlanejamentoID: id,
		RevisorID:      usuario.ID,
		Comentario:     comentario,
		CriadoEm:       util.Now(),
	})
	if err != nil {
		return Planejamento{}, err
	}

	s.invalidateCache(ctx)
	s.notify("Planejamento devolvido para ajustes", atualizado)
	return atualizado, nil
}

// ListarRevisoes devolve o histórico de devoluções de um planejamento.
func (s *Service) ListarRevisoes(ctx context.Context, usuario rbac.Usuario, id uuid.UUID) ([]Revisao, error) {
	if _, err := s.Obter(ctx, usuario, id); err != nil {
		return nil, err
	}
	return s.repo.ListRevisoes(ctx, id)
}

// autoral garante que o usuário é a autora do planejamento.
func (s *Service) autoral(ctx context.Context, usuario rbac.Usuario, id uuid.UUID) (Planejamento, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Planejamento{}, err
	}
	if !usuario.Papel.Autoral() || p.UsuarioID != usuario.ID {
		return Planejamento{}, ErrForbidden
	}
	return p, nil
}

// revisora garante que o papel pode aprovar e que o planejamento está no
// segmento do usuário. Professoras nunca passam, nem no próprio plano.
func (s *Service) revisora(ctx context.Context, usuario rbac.Usuario, id uuid.UUID) (Planejamento, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Planejamento{}, err
	}
	if !rbac.PodeAprovar(usuario.Papel) {
		return Planejamento{}, ErrForbidden
	}
	if !rbac.PodeVerPlanejamento(usuario, p.UsuarioID, p.TurmaCodigo) {
		return Planejamento{}, ErrForbidden
	}
	return p, nil
}

func (s *Service) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	iter := s.cache.Scan(ctx, 0, "planejamentos:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.cache.Del(ctx, iter.Val()).Err(); err != nil {
			log.Warn().Err(err).Msg("falha ao limpar cache de planejamentos")
			return
		}
	}
}

// notify publica o evento em segundo plano, desacoplado do request.
func (s *Service) notify(titulo string, p Planejamento) {
	if s.notifier == nil {
		return
	}
	msg := notifica.Mensagem{
		Titulo: titulo,
		Texto:  fmt.Sprintf("%s (turma %s, %dº bimestre, status %s)", p.Titulo, p.TurmaCodigo, p.Bimestre, p.Status),
		Evento: "planejamento",
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.notifier.Notify(ctx, msg); err != nil {
			log.Warn().Err(err).Msg("falha ao notificar evento de planejamento")
		}
	}()
}
