package repo

import "errors"

var (
	// ErrNotFound é retornado quando nenhum registro é encontrado.
	ErrNotFound = errors.New("registro não encontrado")
	// ErrDuplicado é retornado quando uma restrição de unicidade é violada.
	ErrDuplicado = errors.New("registro duplicado")
)
