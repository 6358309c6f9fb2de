package config

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cognicore/revlens/internal/logging"
	"github.com/cognicore/revlens/pkg/revlens/cachestore"
	"github.com/cognicore/revlens/pkg/revlens/internalerr"
	"github.com/cognicore/revlens/pkg/revlens/lexicon"
	"github.com/cognicore/revlens/pkg/revlens/morph"
	"github.com/cognicore/revlens/pkg/revlens/morph/dict"
	"github.com/cognicore/revlens/pkg/revlens/morph/remote"
	"github.com/cognicore/revlens/pkg/revlens/store/sqlstore"
	"github.com/cognicore/revlens/pkg/revlens/taxonomy"
)

// Components holds everything built from a Config.
type Components struct {
	Store    *sqlstore.Store
	Cache    cachestore.BlobStore // nil when cache.backend is none
	Analyzer morph.Analyzer
	Lexicon  *lexicon.Lexicon
	Taxonomy *taxonomy.Taxonomy

	closers []io.Closer
}

// Close releases the cache store and database in reverse open order.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// InitLogging applies the log section to the global logger.
func (c *Config) InitLogging() {
	logging.Init(logging.Config{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		Caller: c.Log.Caller,
	})
}

// LoadLexicon returns the configured lexicon or the built-in one.
func (c *Config) LoadLexicon() (*lexicon.Lexicon, error) {
	if c.Lexicon.Path == "" {
		return lexicon.Default(), nil
	}
	lex, err := lexicon.LoadFromYAML(c.Lexicon.Path)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	return lex, nil
}

// LoadTaxonomy returns the configured taxonomy or the built-in one.
func (c *Config) LoadTaxonomy() (*taxonomy.Taxonomy, error) {
	if c.Taxonomy.Path == "" {
		return taxonomy.Default(), nil
	}
	tax, err := taxonomy.LoadFromYAML(c.Taxonomy.Path)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	return tax, nil
}

// LoadAnalyzer builds the dictionary analyzer or the remote client.
func (c *Config) LoadAnalyzer() (morph.Analyzer, error) {
	switch c.Analyzer.Kind {
	case "remote":
		client, err := remote.New(remote.Config{
			URL:           c.Analyzer.URL,
			Timeout:       c.Analyzer.Timeout,
			RatePerSecond: c.Analyzer.RatePerSecond,
			Burst:         c.Analyzer.Burst,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case "dict", "":
		if c.Analyzer.Dictionary == "" {
			return dict.Default(), nil
		}
		a, err := dict.LoadFromYAML(c.Analyzer.Dictionary)
		if err != nil {
			return nil, fmt.Errorf("load dictionary: %w", err)
		}
		return a, nil
	default:
		return nil, fmt.Errorf("analyzer kind %q: %w", c.Analyzer.Kind, internalerr.ErrInvalidConfig)
	}
}

// OpenStore opens the review database.
func (c *Config) OpenStore(ctx context.Context) (*sqlstore.Store, error) {
	return sqlstore.Open(ctx, c.Database.Driver, c.Database.DSN, sqlstore.Options{
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	})
}

// OpenCache opens the profile cache backend. The sql backend shares st's
// connection. The returned closer is nil when nothing needs closing.
func (c *Config) OpenCache(ctx context.Context, st *sqlstore.Store) (cachestore.BlobStore, io.Closer, error) {
	switch c.Cache.Backend {
	case "none":
		return nil, nil, nil
	case "file":
		return cachestore.NewFileStore(c.Cache.Path), nil, nil
	case "badger":
		bs, err := cachestore.OpenBadger(c.Cache.Path)
		if err != nil {
			return nil, nil, err
		}
		return bs, bs, nil
	case "sql":
		if st == nil {
			return nil, nil, fmt.Errorf("sql cache needs the review database: %w", internalerr.ErrInvalidConfig)
		}
		ss, err := cachestore.NewSQLStore(ctx, st.DB(), st.Driver(), c.Cache.Name)
		if err != nil {
			return nil, nil, err
		}
		return ss, nil, nil
	default:
		return nil, nil, fmt.Errorf("cache backend %q: %w", c.Cache.Backend, internalerr.ErrInvalidConfig)
	}
}

// Build opens the store and cache and loads the text resources. Close the
// result when done.
func (c *Config) Build(ctx context.Context) (*Components, error) {
	comp := &Components{}

	var err error
	if comp.Lexicon, err = c.LoadLexicon(); err != nil {
		return nil, err
	}
	if comp.Taxonomy, err = c.LoadTaxonomy(); err != nil {
		return nil, err
	}
	if comp.Analyzer, err = c.LoadAnalyzer(); err != nil {
		return nil, err
	}

	if comp.Store, err = c.OpenStore(ctx); err != nil {
		return nil, err
	}
	comp.closers = append(comp.closers, comp.Store)

	blobs, closer, err := c.OpenCache(ctx, comp.Store)
	if err != nil {
		comp.Close()
		return nil, err
	}
	comp.Cache = blobs
	if closer != nil {
		comp.closers = append(comp.closers, closer)
	}

	log := logging.Component("config")
	log.Info().
		Str("database", c.Database.Driver).
		Str("cache", c.Cache.Backend).
		Str("analyzer", c.Analyzer.Kind).
		Str("lexicon", comp.Lexicon.Version()).
		Msg("components ready")
	return comp, nil
}
