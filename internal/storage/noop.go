package storage

import (
	"context"
	"errors"
)

// NoopUploader é o backend padrão quando nenhum bucket foi configurado:
// a API sobe normalmente e só o upload de imagens da loja responde erro.
type NoopUploader struct{}

func (NoopUploader) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	return nil, errors.New("storage: uploader não configurado")
}
