package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/cognicore/revlens/pkg/revlens/internalerr"
)

// Query parameter defaults.
const (
	DefaultTopN         = 5
	ProfileKeywordLimit = 20
)

// RecommendRequest holds validated parameters of the recommend endpoint.
type RecommendRequest struct {
	CustomerID       int64 `validate:"min=0"`
	TopN             int   `validate:"min=1,max=20"`
	ExcludePurchased bool
}

// NegativeAnalysisRequest holds validated parameters of the negative
// analysis endpoint.
type NegativeAnalysisRequest struct {
	TopN int `validate:"min=1,max=50"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// validateRequest returns a readable message for the first failing field.
func validateRequest(req any) error {
	err := getValidator().Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		name := toSnake(fe.Field())
		switch fe.Tag() {
		case "min":
			return fmt.Errorf("%s must be at least %s: %w", name, fe.Param(), internalerr.ErrInvalidInput)
		case "max":
			return fmt.Errorf("%s must be at most %s: %w", name, fe.Param(), internalerr.ErrInvalidInput)
		}
		return fmt.Errorf("%s failed %s: %w", name, fe.Tag(), internalerr.ErrInvalidInput)
	}
	return fmt.Errorf("%w: %w", internalerr.ErrInvalidInput, err)
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q: %w", name, raw, internalerr.ErrInvalidInput)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q: %w", name, raw, internalerr.ErrInvalidInput)
	}
	return n, nil
}

func queryBool(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false, got %q: %w", name, raw, internalerr.ErrInvalidInput)
	}
	return b, nil
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
