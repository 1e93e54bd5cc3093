package turma

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/redelumiar/plataforma/internal/rbac"
)

type stubRepo struct {
	turmas []Turma
}

func (s *stubRepo) Create(ctx context.Context, input CreateTurmaInput) (Turma, error) {
	for _, t := range s.turmas {
		if t.Codigo == input.Codigo {
			return Turma{}, ErrDuplicada
		}
	}
	t := Turma{
		ID:        uuid.New(),
		UnidadeID: input.UnidadeID,
		Codigo:    input.Codigo,
		Nome:      input.Nome,
		Turno:     input.Turno,
		AnoLetivo: input.AnoLetivo,
		Ativa:     true,
		CriadoEm:  time.Now(),
	}
	s.turmas = append(s.turmas, t)
	return t, nil
}

func (s *stubRepo) GetByID(ctx context.Context, id uuid.UUID) (Turma, error) {
	for _, t := range s.turmas {
		if t.ID == id {
			return t, nil
		}
	}
	return Turma{}, ErrNotFound
}

func (s *stubRepo) GetByCodigo(ctx context.Context, codigo string) (Turma, error) {
	for _, t := range s.turmas {
		if t.Codigo == codigo {
			return t, nil
		}
	}
	return Turma{}, ErrNotFound
}

func (s *stubRepo) List(ctx context.Context, unidadeID *uuid.UUID, prefixo string) ([]Turma, error) {
	var lista []Turma
	for _, t := range s.turmas {
		if prefixo != "" && (len(t.Codigo) < len(prefixo) || t.Codigo[:len(prefixo)] != prefixo) {
			continue
		}
		lista = append(lista, t)
	}
	return lista, nil
}

func (s *stubRepo) SetAtiva(ctx context.Context, id uuid.UUID, ativa bool) error {
	for i, t := range s.turmas {
		if t.ID == id {
			s.turmas[i].Ativa = ativa
			return nil
		}
	}
	return ErrNotFound
}

func TestCriarValidaCodigo(t *testing.T) {
	svc := NewService(&stubRepo{})

	tests := []struct {
		name   string
		codigo string
		ok     bool
	}{
		{"berçário", "BERC-1A-2026", true},
		{"infantil", "INF-2B-2026", true},
		{"fundamental I", "FUND-I-3A-2026", true},
		{"fundamental II", "FUND-II-8A-2026", true},
		{"médio", "MED-1A-2026", true},
		{"minúsculas normalizadas", "med-2a-2026", true},
		{"prefixo desconhecido", "EXT-1A-2026", false},
		{"vazio", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Criar(context.Background(), CreateTurmaInput{
				Codigo: tc.codigo, Nome: "Turma", Turno: "MATUTINO", AnoLetivo: 2026,
			})
			if tc.ok && err != nil {
				t.Fatalf("criar %q: %v", tc.codigo, err)
			}
			if !tc.ok {
				var valErr *ErroValidacao
				if !errors.As(err, &valErr) || valErr.Campo != "codigo" {
					t.Fatalf("esperado erro no campo codigo, veio %v", err)
				}
			}
		})
	}
}

func TestCriarCodigoDuplicado(t *testing.T) {
	svc := NewService(&stubRepo{})
	input := CreateTurmaInput{Codigo: "INF-1A-2026", Nome: "Infantil 1A", Turno: "MATUTINO", AnoLetivo: 2026}

	if _, err := svc.Criar(context.Background(), input); err != nil {
		t.Fatalf("primeira criação: %v", err)
	}
	if _, err := svc.Criar(context.Background(), input); !errors.Is(err, ErrDuplicada) {
		t.Fatalf("código repetido deve falhar com ErrDuplicada, veio %v", err)
	}
}

func TestListarRecortaPorSegmento(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)
	for _, codigo := range []string{"BERC-1A-2026", "INF-1A-2026", "INF-2B-2026", "FUND-I-3A-2026", "FUND-II-8A-2026", "MED-1A-2026"} {
		if _, err := svc.Criar(context.Background(), CreateTurmaInput{Codigo: codigo, Nome: codigo, Turno: "MATUTINO", AnoLetivo: 2026}); err != nil {
			t.Fatalf("seed %s: %v", codigo, err)
		}
	}

	tests := []struct {
		papel rbac.Papel
		total int
	}{
		{rbac.PapelCoordenadoraBercario, 1},
		{rbac.PapelCoordenadoraInfantil, 2},
		{rbac.PapelCoordenadoraFundI, 1},
		{rbac.PapelCoordenadoraFundII, 1},
		{rbac.PapelCoordenadoraMedio, 1},
		{rbac.PapelCoordenadoraGeral, 6},
		{rbac.PapelAnalistaPedagogico, 6},
		{rbac.PapelProfessora, 6},
		{rbac.PapelDiretoraGeral, 6},
	}

	for _, tc := range tests {
		t.Run(string(tc.papel), func(t *testing.T) {
			lista, err := svc.Listar(context.Background(), rbac.Usuario{ID: uuid.New(), Papel: tc.papel}, nil)
			if err != nil {
				t.Fatalf("listar: %v", err)
			}
			if len(lista) != tc.total {
				t.Fatalf("papel %s enxerga %d turmas, esperado %d", tc.papel, len(lista), tc.total)
			}
		})
	}
}

func TestSegmentoDaTurma(t *testing.T) {
	turma := Turma{Codigo: "FUND-II-9B-2026"}
	seg, ok := turma.Segmento()
	if !ok || seg != rbac.SegmentoFundII {
		t.Fatalf("segmento = %v (%v), esperado FUNDAMENTAL_II", seg, ok)
	}
}
