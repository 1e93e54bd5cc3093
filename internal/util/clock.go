package util

import "time"

// Now centraliza a leitura de relógio em UTC.
func Now() time.Time {
	return time.Now().UTC()
}
