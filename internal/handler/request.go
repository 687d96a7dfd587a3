package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"tush00nka/chato/internal/pkg/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const maxJSONBody = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// в сообщениях об ошибках поля называются как в JSON
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// decodeJSON читает тело запроса и проверяет теги validate
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst); err != nil {
		return apperr.BadRequest("Invalid request format")
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.BadRequest("Invalid request format")
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return apperr.BadRequest(fmt.Sprintf("Field %s is required", fe.Field()))
	case "email":
		return apperr.BadRequest(fmt.Sprintf("Field %s must be a valid email", fe.Field()))
	case "min":
		return apperr.BadRequest(fmt.Sprintf("Field %s must be at least %s characters long", fe.Field(), fe.Param()))
	case "max":
		return apperr.BadRequest(fmt.Sprintf("Field %s must be at most %s characters long", fe.Field(), fe.Param()))
	case "oneof":
		return apperr.BadRequest(fmt.Sprintf("Field %s must be one of: %s", fe.Field(), fe.Param()))
	default:
		return apperr.BadRequest(fmt.Sprintf("Field %s is invalid", fe.Field()))
	}
}

// pathID разбирает uuid из пути. Неверный id неотличим от отсутствующей сущности.
func pathID(r *http.Request, name, notFound string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, apperr.NotFound(notFound)
	}
	return id, nil
}
