package calendario

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type stubRepo struct {
	eventos map[uuid.UUID]Evento
}

func newStubRepo() *stubRepo {
	return &stubRepo{eventos: make(map[uuid.UUID]Evento)}
}

func (s *stubRepo) Create(ctx context.Context, input CreateEventoInput, criadoPor *uuid.UUID) (*Evento, error) {
	e := Evento{
		ID:        uuid.New(),
		UnidadeID: input.UnidadeID,
		Titulo:    input.Titulo,
		Descricao: input.Descricao,
		Publico:   input.Publico,
		Inicio:    input.Inicio,
		Fim:       input.Fim,
		CriadoPor: criadoPor,
		CriadoEm:  time.Now(),
	}
	s.eventos[e.ID] = e
	return &e, nil
}

func (s *stubRepo) Get(ctx context.Context, id uuid.UUID) (*Evento, error) {
	e, ok := s.eventos[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (s *stubRepo) List(ctx context.Context, filter EventoFilter) ([]Evento, error) {
	var lista []Evento
	for _, e := range s.eventos {
		if filter.UnidadeID != nil && e.UnidadeID != nil && *e.UnidadeID != *filter.UnidadeID {
			continue
		}
		if filter.De != nil && e.Fim.Before(*filter.De) {
			continue
		}
		if filter.Ate != nil && e.Inicio.After(*filter.Ate) {
			continue
		}
		lista = append(lista, e)
	}
	return lista, nil
}

func (s *stubRepo) Update(ctx context.Context, id uuid.UUID, input UpdateEventoInput) (*Evento, error) {
	e, ok := s.eventos[id]
	if !ok {
		return nil, ErrNotFound
	}
	if input.Titulo != nil {
		e.Titulo = *input.Titulo
	}
	if input.Publico != nil {
		e.Publico = *input.Publico
	}
	if input.Inicio != nil {
		e.Inicio = *input.Inicio
	}
	if input.Fim != nil {
		e.Fim = *input.Fim
	}
	s.eventos[id] = e
	return &e, nil
}

func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.eventos[id]; !ok {
		return ErrNotFound
	}
	delete(s.eventos, id)
	return nil
}

func dia(d int) time.Time {
	return time.Date(2026, time.March, d, 8, 0, 0, 0, time.UTC)
}

func TestCriarValidaJanela(t *testing.T) {
	svc := NewService(newStubRepo())
	ctx := context.Background()

	casos := []struct {
		nome  string
		input CreateEventoInput
		campo string
	}{
		{"sem título", CreateEventoInput{Inicio: dia(1), Fim: dia(2)}, "titulo"},
		{"público desconhecido", CreateEventoInput{Titulo: "Festa", Publico: "visitantes", Inicio: dia(1), Fim: dia(2)}, "publico"},
		{"sem período", CreateEventoInput{Titulo: "Festa"}, "inicio"},
		{"fim antes do início", CreateEventoInput{Titulo: "Festa", Inicio: dia(5), Fim: dia(2)}, "fim"},
	}

	for _, caso := range casos {
		t.Run(caso.nome, func(t *testing.T) {
			_, err := svc.Criar(ctx, caso.input, nil)
			var valErr *ErroValidacao
			if !errors.As(err, &valErr) {
				t.Fatalf("esperava erro de validação, veio %v", err)
			}
			if valErr.Campo != caso.campo {
				t.Fatalf("campo = %s, esperado %s", valErr.Campo, caso.campo)
			}
		})
	}
}

func TestCriarAssumePublicoTodos(t *testing.T) {
	svc := NewService(newStubRepo())

	evento, err := svc.Criar(context.Background(), CreateEventoInput{
		Titulo: "Reunião de pais",
		Inicio: dia(10),
		Fim:    dia(10).Add(2 * time.Hour),
	}, nil)
	if err != nil {
		t.Fatalf("criar: %v", err)
	}
	if evento.Publico != PublicoTodos {
		t.Fatalf("publico = %s, esperado todos", evento.Publico)
	}
}

func TestAtualizarValidaJanelaContraPersistido(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	ctx := context.Background()

	evento, _ := svc.Criar(ctx, CreateEventoInput{Titulo: "Formatura", Inicio: dia(20), Fim: dia(21)}, nil)

	// Puxar o fim para antes do início persistido deve falhar.
	antes := dia(19)
	if _, err := svc.Atualizar(ctx, evento.ID, UpdateEventoInput{Fim: &antes}); err == nil {
		t.Fatalf("fim antes do início persistido deve falhar")
	}

	// Remarcar os dois extremos juntos é aceito.
	novoInicio := dia(25)
	novoFim := dia(26)
	atualizado, err := svc.Atualizar(ctx, evento.ID, UpdateEventoInput{Inicio: &novoInicio, Fim: &novoFim})
	if err != nil {
		t.Fatalf("remarcar: %v", err)
	}
	if !atualizado.Inicio.Equal(novoInicio) || !atualizado.Fim.Equal(novoFim) {
		t.Fatalf("evento não remarcado: %v a %v", atualizado.Inicio, atualizado.Fim)
	}
}

func TestListarRejeitaJanelaInvertida(t *testing.T) {
	svc := NewService(newStubRepo())

	de := dia(10)
	ate := dia(5)
	if _, err := svc.Listar(context.Background(), EventoFilter{De: &de, Ate: &ate}); err == nil {
		t.Fatalf("janela invertida deve falhar")
	}
}

func TestRemoverEventoInexistente(t *testing.T) {
	svc := NewService(newStubRepo())

	if err := svc.Remover(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperava ErrNotFound, veio %v", err)
	}
}
