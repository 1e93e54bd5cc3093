package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/redelumiar/plataforma/internal/db"
	"github.com/redelumiar/plataforma/internal/unidade"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN ou DATABASE_URL")
	}

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	service := unidade.NewService(unidade.NewRepository(pool))

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "create":
		if err := runCreate(ctx, service, args); err != nil {
			log.Fatal().Err(err).Msg("falha ao criar unidade")
		}
	case "list":
		if err := runList(ctx, service); err != nil {
			log.Fatal().Err(err).Msg("falha ao listar unidades")
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "unidade CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  unidade create --slug centro --nome \"Lumiar Centro\" [--endereco \"Rua X, 10\"] [--telefone \"(83) 3333-0000\"] [--settings-file settings.json]")
	fmt.Fprintln(os.Stderr, "  unidade create --slug centro --nome \"Lumiar Centro\" --settings '{\\\"corPrimaria\\\":\\\"#123456\\\"}'")
	fmt.Fprintln(os.Stderr, "  unidade list")
}

func runCreate(ctx context.Context, service *unidade.Service, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		slug         = fs.String("slug", "", "slug da unidade (ex.: centro)")
		nome         = fs.String("nome", "", "nome exibido")
		endereco     = fs.String("endereco", "", "endereço da unidade")
		telefone     = fs.String("telefone", "", "telefone de contato")
		settingsFile = fs.String("settings-file", "", "arquivo JSON com configurações da unidade")
		settingsJSON = fs.String("settings", "", "JSON literal com configurações da unidade")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *slug == "" || *nome == "" {
		return errors.New("slug e nome são obrigatórios")
	}

	settings := map[string]any{}
	if *settingsFile != "" {
		raw, err := os.ReadFile(*settingsFile)
		if err != nil {
			return fmt.Errorf("ler settings-file: %w", err)
		}
		if err := json.Unmarshal(raw, &settings); err != nil {
			return fmt.Errorf("parse settings-file: %w", err)
		}
	} else if *settingsJSON != "" {
		if err := json.Unmarshal([]byte(*settingsJSON), &settings); err != nil {
			return fmt.Errorf("parse settings: %w", err)
		}
	}

	criada, err := service.Create(ctx, unidade.CreateUnidadeInput{
		Slug:     *slug,
		Nome:     *nome,
		Endereco: *endereco,
		Telefone: *telefone,
		Settings: settings,
	})
	if err != nil {
		return err
	}

	output, _ := json.MarshalIndent(criada, "", "  ")
	fmt.Println(string(output))
	return nil
}

func runList(ctx context.Context, service *unidade.Service) error {
	unidades, err := service.List(ctx)
	if err != nil {
		return err
	}

	if len(unidades) == 0 {
		fmt.Println("nenhuma unidade cadastrada")
		return nil
	}

	encoded, _ := json.MarshalIndent(unidades, "", "  ")
	fmt.Println(string(encoded))
	return nil
}
