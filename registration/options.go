package registration

import (
	"errors"
	"fmt"
	"io"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultKeyField is the field name the key inspector looks for.
const DefaultKeyField = "Id"

var goIdentifier = regexp.MustCompile(`^[A-Z][A-Za-z0-9_]*$`)

// Options controls AddRepositories.
type Options struct {
	// EnableCachedRepositories binds a CachedRepository per entity type.
	// It requires a store.ConnFactory in the container.
	EnableCachedRepositories bool `yaml:"enable_cached_repositories"`

	// KeyField is the exact, case-sensitive Go field name holding an
	// entity's key.
	KeyField string `yaml:"key_field"`

	Logger *zap.Logger `yaml:"-"`
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions enables cached repositories, keys entities by their Id
// field and discards logs.
func DefaultOptions() Options {
	return Options{
		EnableCachedRepositories: true,
		KeyField:                 DefaultKeyField,
		Logger:                   zap.NewNop(),
	}
}

// Validate checks whether the options are usable.
func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.KeyField, validation.Required, validation.Match(goIdentifier)),
		validation.Field(&o.Logger, validation.NotNil),
	)
}

func WithCachedRepositories(enabled bool) Option {
	return func(o *Options) {
		o.EnableCachedRepositories = enabled
	}
}

func WithKeyField(name string) Option {
	return func(o *Options) {
		o.KeyField = name
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithOptions replaces every setting, typically with the result of
// LoadOptions. A nil logger keeps the current one.
func WithOptions(opts Options) Option {
	return func(o *Options) {
		logger := o.Logger
		*o = opts
		if o.Logger == nil {
			o.Logger = logger
		}
	}
}

// LoadOptions decodes a YAML document on top of DefaultOptions.
//
//	enable_cached_repositories: false
//	key_field: Id
func LoadOptions(r io.Reader) (Options, error) {
	opts := DefaultOptions()
	if err := yaml.NewDecoder(r).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return Options{}, fmt.Errorf("registration: decode options: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}
