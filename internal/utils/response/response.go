package response

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

// WriteError writes err in the error envelope with the given status.
func WriteError(w http.ResponseWriter, status int, err error) error {
	return WriteJSON(w, status, GeneralError(err))
}

func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msg := err.Namespace() + ": " + err.Tag()
		if err.Param() != "" {
			msg += "=" + err.Param()
		}
		msgs = append(msgs, msg)
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(msgs, "; "),
	}
}

func RequestOK(message string, data any) Response {
	return Response{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	}
}
