package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrInvalidRefresh sinaliza refresh token desconhecido, revogado ou vencido.
var ErrInvalidRefresh = errors.New("refresh token inválido")

const refreshTokenBytes = 32

// GenerateRefreshToken sorteia o token entregue no cookie e o hash que vai
// para o banco; o valor cru nunca é persistido.
func GenerateRefreshToken() (raw string, hashed string, err error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}

	raw = base64.RawURLEncoding.EncodeToString(buf)
	hashed = HashRefreshToken(raw)
	return raw, hashed, nil
}

// HashRefreshToken reduz o token cru ao SHA-256 em base64url, o formato da
// coluna token_hash e das chaves no Redis.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// RefreshRedisKey monta a chave do estado "active" de um refresh por
// audience, usada na checagem rápida antes de consultar o banco.
func RefreshRedisKey(audience, hash string) string {
	return fmt.Sprintf("refresh:%s:%s", audience, hash)
}
