package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/redelumiar/plataforma/internal/auth"
	"github.com/redelumiar/plataforma/internal/repo"
)

type stubAuthRepo struct {
	user         repo.Usuario
	tokens       map[string]repo.TokenRefresh
	refreshCalls int
}

func newStubAuthRepo(user repo.Usuario) *stubAuthRepo {
	return &stubAuthRepo{user: user, tokens: make(map[string]repo.TokenRefresh)}
}

func (s *stubAuthRepo) GetUsuarioByEmail(ctx context.Context, email string) (repo.Usuario, error) {
	if strings.EqualFold(email, s.user.Email) {
		return s.user, nil
	}
	return repo.Usuario{}, repo.ErrNotFound
}

func (s *stubAuthRepo) GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error) {
	if id == s.user.ID {
		return s.user, nil
	}
	return repo.Usuario{}, repo.ErrNotFound
}

func (s *stubAuthRepo) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (repo.TokenRefresh, error) {
	t, ok := s.tokens[tokenHash]
	if !ok {
		return repo.TokenRefresh{}, repo.ErrNotFound
	}
	return t, nil
}

func (s *stubAuthRepo) InsertRefreshToken(ctx context.Context, arg repo.InsertRefreshTokenParams) (repo.TokenRefresh, error) {
	s.refreshCalls++
	t := repo.TokenRefresh{
		ID:        arg.ID,
		Subject:   arg.Subject,
		Audience:  arg.Audience,
		TokenHash: arg.TokenHash,
		Expiracao: arg.Expiracao,
		CriadoEm:  arg.CriadoEm,
	}
	s.tokens[arg.TokenHash] = t
	return t, nil
}

func (s *stubAuthRepo) InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, audience, keepHash string) error {
	for hash, t := range s.tokens {
		if t.Subject == subject && t.Audience == audience && hash != keepHash {
			t.Revogado = true
			s.tokens[hash] = t
		}
	}
	return nil
}

func (s *stubAuthRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	t, ok := s.tokens[tokenHash]
	if !ok {
		return repo.ErrNotFound
	}
	t.Revogado = true
	s.tokens[tokenHash] = t
	return nil
}

type stubRedis struct {
	store map[string]string
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if s.store == nil {
		s.store = make(map[string]string)
	}
	s.store[key] = fmt.Sprint(value)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	val, ok := s.store[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := s.store[key]; ok {
			delete(s.store, key)
			removed++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(removed)
	return cmd
}

func newTestService(repoStub *stubAuthRepo, redisStub *stubRedis) *AuthService {
	jwtMgr := auth.NewJWTManager(strings.Repeat("a", 32), time.Minute)
	return &AuthService{
		repo:       repoStub,
		redis:      redisStub,
		jwt:        jwtMgr,
		refreshTTL: time.Hour,
	}
}

func usuarioComSenha(t *testing.T, papel, senha string) repo.Usuario {
	t.Helper()
	hash, err := auth.Hash(senha)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	unidade := uuid.New()
	return repo.Usuario{
		ID:        uuid.New(),
		Nome:      "Conta Teste",
		Email:     "conta@redelumiar.com.br",
		SenhaHash: hash,
		Papel:     papel,
		UnidadeID: &unidade,
		Ativo:     true,
	}
}

func TestLoginBackofficeEmiteTokenComPapel(t *testing.T) {
	senha := "SenhaForte123!"
	user := usuarioComSenha(t, "coordenadora_infantil", senha)
	repoStub := newStubAuthRepo(user)
	svc := newTestService(repoStub, &stubRedis{})

	result, err := svc.LoginBackoffice(context.Background(), user.Email, senha)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if result.Papel != "coordenadora_infantil" {
		t.Fatalf("papel = %s", result.Papel)
	}
	claims, err := svc.JWT().ParseAndValidate(result.AccessToken)
	if err != nil {
		t.Fatalf("token inválido: %v", err)
	}
	if claims.Papel != "coordenadora_infantil" {
		t.Fatalf("claim papel = %s", claims.Papel)
	}
	if claims.Unidade != user.UnidadeID.String() {
		t.Fatalf("claim unidade = %s", claims.Unidade)
	}
	if repoStub.refreshCalls != 1 {
		t.Fatalf("refresh persistido %d vezes", repoStub.refreshCalls)
	}
}

func TestLoginBackofficeRejeitaSenhaErrada(t *testing.T) {
	user := usuarioComSenha(t, "professora", "SenhaForte123!")
	svc := newTestService(newStubAuthRepo(user), &stubRedis{})

	if _, err := svc.LoginBackoffice(context.Background(), user.Email, "outra-senha"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("esperava ErrInvalidCredentials, veio %v", err)
	}
}

func TestLoginBackofficeRejeitaContaDesativada(t *testing.T) {
	senha := "SenhaForte123!"
	user := usuarioComSenha(t, "professora", senha)
	user.Ativo = false
	svc := newTestService(newStubAuthRepo(user), &stubRedis{})

	if _, err := svc.LoginBackoffice(context.Background(), user.Email, senha); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("esperava ErrAccountDisabled, veio %v", err)
	}
}

func TestLoginBackofficeRejeitaPapelForaDoEnum(t *testing.T) {
	senha := "SenhaForte123!"
	user := usuarioComSenha(t, "estagiario", senha)
	svc := newTestService(newStubAuthRepo(user), &stubRedis{})

	if _, err := svc.LoginBackoffice(context.Background(), user.Email, senha); !errors.Is(err, ErrPapelInvalido) {
		t.Fatalf("esperava ErrPapelInvalido, veio %v", err)
	}
}

func TestRefreshRotacionaToken(t *testing.T) {
	senha := "SenhaForte123!"
	user := usuarioComSenha(t, "professora", senha)
	repoStub := newStubAuthRepo(user)
	redisStub := &stubRedis{}
	svc := newTestService(repoStub, redisStub)
	ctx := context.Background()

	login, err := svc.LoginBackoffice(ctx, user.Email, senha)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	renovado, err := svc.Refresh(ctx, "backoffice", login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if renovado.RefreshToken == login.RefreshToken {
		t.Fatalf("refresh deve emitir token novo")
	}

	// O token antigo foi revogado na rotação.
	if _, err := svc.Refresh(ctx, "backoffice", login.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("reuso do token antigo deve falhar, veio %v", err)
	}
}

func TestLogoutRevogaRefresh(t *testing.T) {
	senha := "SenhaForte123!"
	user := usuarioComSenha(t, "professora", senha)
	svc := newTestService(newStubAuthRepo(user), &stubRedis{})
	ctx := context.Background()

	login, err := svc.LoginBackoffice(ctx, user.Email, senha)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(ctx, "backoffice", login.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, "backoffice", login.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("refresh após logout deve falhar, veio %v", err)
	}
}
