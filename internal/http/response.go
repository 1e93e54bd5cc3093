package http

import (
	"encoding/json"
	"net/http"
)

// SuccessEnvelope embrulha respostas bem-sucedidas; Error vai sempre nulo
// para o front distinguir sucesso sem olhar o status HTTP.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope é o par do envelope de sucesso para falhas.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody carrega o código estável (AUTH, VALIDATION, FORBIDDEN,
// NOT_FOUND, CONFLICT, RATE_LIMIT, INTERNAL) e a mensagem exibível.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON responde dados no envelope padrão da plataforma.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data, Error: nil})
}

// WriteError responde uma falha normalizada no mesmo envelope.
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Data:  nil,
		Error: &ErrorBody{Code: code, Message: message, Details: details},
	})
}
