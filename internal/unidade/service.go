package unidade

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Service contém as regras de negócio para cadastro e resolução de unidades.
type Service struct {
	repo     *Repository
	cache    sync.Map
	cacheTTL time.Duration
}

type cachedUnidade struct {
	unidade  Unidade
	expireAt time.Time
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo, cacheTTL: 2 * time.Minute}
}

// Resolve encontra a unidade pelo slug informado, com cache em memória.
func (s *Service) Resolve(ctx context.Context, slug string) (*Unidade, error) {
	normalized := normalizeSlug(slug)
	if normalized == "" {
		return nil, ErrNotFound
	}

	if v, ok := s.cache.Load(normalized); ok {
		entry := v.(cachedUnidade)
		if time.Now().Before(entry.expireAt) {
			unidadeCopy := entry.unidade
			return &unidadeCopy, nil
		}
		s.cache.Delete(normalized)
	}

	u, err := s.repo.GetBySlug(ctx, normalized)
	if err != nil {
		return nil, err
	}

	s.cache.Store(normalized, cachedUnidade{unidade: *u, expireAt: time.Now().Add(s.cacheTTL)})

	unidadeCopy := *u
	return &unidadeCopy, nil
}

// Get busca unidade pelo identificador, sem cache.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Unidade, error) {
	return s.repo.GetByID(ctx, id)
}

// Create registra uma nova unidade.
func (s *Service) Create(ctx context.Context, input CreateUnidadeInput) (*Unidade, error) {
	input.Slug = normalizeSlug(input.Slug)
	if input.Settings == nil {
		input.Settings = map[string]any{}
	}

	u, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.cache.Store(u.Slug, cachedUnidade{unidade: *u, expireAt: time.Now().Add(s.cacheTTL)})
	return u, nil
}

// UpdateSettings substitui o JSON de configuração da unidade.
func (s *Service) UpdateSettings(ctx context.Context, unidadeID string, settings map[string]any) error {
	id, err := uuid.Parse(strings.TrimSpace(unidadeID))
	if err != nil {
		return err
	}
	if settings == nil {
		settings = map[string]any{}
	}

	if err := s.repo.UpdateSettings(ctx, id, settings); err != nil {
		return err
	}

	// Limpa cache forçando refetch na próxima resolução.
	s.cache.Range(func(key, value any) bool {
		entry := value.(cachedUnidade)
		if entry.unidade.ID == id {
			s.cache.Delete(key)
			return false
		}
		return true
	})

	return nil
}

// SetAtivo atualiza o estado da unidade e invalida o cache correspondente.
func (s *Service) SetAtivo(ctx context.Context, unidadeID uuid.UUID, ativo bool) error {
	if err := s.repo.SetAtivo(ctx, unidadeID, ativo); err != nil {
		return err
	}

	s.cache.Range(func(key, value any) bool {
		entry := value.(cachedUnidade)
		if entry.unidade.ID == unidadeID {
			s.cache.Delete(key)
			return false
		}
		return true
	})

	return nil
}

// List devolve todas as unidades.
func (s *Service) List(ctx context.Context) ([]Unidade, error) {
	unidades, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, u := range unidades {
		s.cache.Store(u.Slug, cachedUnidade{unidade: u, expireAt: time.Now().Add(s.cacheTTL)})
	}

	return unidades, nil
}

// ValidateUnidadeAccess confirma que o usuário pode operar na unidade. Quem
// não tem unidade fixa (papéis de rede) passa em qualquer unidade.
func (s *Service) ValidateUnidadeAccess(ctx context.Context, usuarioID, unidadeID uuid.UUID) error {
	vinculo, err := s.repo.UnidadeDoUsuario(ctx, usuarioID)
	if err != nil {
		return err
	}
	if vinculo == nil {
		return nil
	}
	if *vinculo != unidadeID {
		return ErrSemVinculo
	}
	return nil
}

func normalizeSlug(slug string) string {
	slug = strings.TrimSpace(strings.ToLower(slug))
	slug = strings.ReplaceAll(slug, " ", "-")
	return slug
}
