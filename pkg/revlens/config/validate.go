package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/cognicore/revlens/pkg/revlens/internalerr"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks field constraints and the cross-field rules the tags
// cannot express. Errors wrap internalerr.ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := Validator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("config: %s: %w", strings.Join(msgs, "; "), internalerr.ErrInvalidConfig)
		}
		return fmt.Errorf("config: %w: %w", internalerr.ErrInvalidConfig, err)
	}

	if c.Analyzer.Kind == "remote" && c.Analyzer.URL == "" {
		return fmt.Errorf("config: analyzer.url required for remote analyzer: %w", internalerr.ErrInvalidConfig)
	}
	if (c.Cache.Backend == "file" || c.Cache.Backend == "badger") && c.Cache.Path == "" {
		return fmt.Errorf("config: cache.path required for %s backend: %w", c.Cache.Backend, internalerr.ErrInvalidConfig)
	}
	if c.Analyzer.Timeout < 0 {
		return fmt.Errorf("config: analyzer.timeout must not be negative: %w", internalerr.ErrInvalidConfig)
	}
	return nil
}
