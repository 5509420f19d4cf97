package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/go-playground/validator/v10"
)

const userIDHeader = "X-Sharer-User-Id"

// Validator checks request bodies before they reach the services.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &Validator{v: v}
}

func (v *Validator) Validate(i interface{}) error {
	err := v.v.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed on '%s'", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}

// decode reads a JSON body into dst and validates it.
func (s *HTTPServer) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", domain.ErrValidation)
		}
		return fmt.Errorf("%w: invalid JSON body: %v", domain.ErrValidation, err)
	}
	return s.validator.Validate(dst)
}

func userIDFromHeader(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(userIDHeader))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s header is required", domain.ErrValidation, userIDHeader)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s header", domain.ErrValidation, userIDHeader)
	}
	return id, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := urlParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", domain.ErrValidation, name, raw)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, name)
	}
	return v, nil
}

// pageFromQuery reads from/size. Bounds are checked by the services.
func (s *HTTPServer) pageFromQuery(r *http.Request) (models.Page, error) {
	from, err := queryInt(r, "from", models.DefaultPageFrom)
	if err != nil {
		return models.Page{}, err
	}
	size, err := queryInt(r, "size", s.defaultPageSize)
	if err != nil {
		return models.Page{}, err
	}
	return models.Page{From: from, Size: size}, nil
}

func stateFromQuery(r *http.Request) string {
	state := strings.TrimSpace(r.URL.Query().Get("state"))
	if state == "" {
		return string(models.StateAll)
	}
	return state
}
