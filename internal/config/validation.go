package config

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/docfs/internal/foundation"
)

// normalize canonicalizes enumerations, rejecting unknown spellings.
func (c *Config) normalize() error {
	var problems []foundation.FieldError
	if c.Logging.Level != "" {
		v, err := logLevelNormalizer.NormalizeWithError(string(c.Logging.Level))
		if err != nil {
			problems = append(problems, foundation.NewValidationError("logging.level", "enum", err.Error()))
		}
		c.Logging.Level = v
	}
	if c.Logging.Format != "" {
		v, err := logFormatNormalizer.NormalizeWithError(string(c.Logging.Format))
		if err != nil {
			problems = append(problems, foundation.NewValidationError("logging.format", "enum", err.Error()))
		}
		c.Logging.Format = v
	}
	if c.Cache.Scope != "" {
		v, err := cacheScopeNormalizer.NormalizeWithError(string(c.Cache.Scope))
		if err != nil {
			problems = append(problems, foundation.NewValidationError("cache.scope", "enum", err.Error()))
		}
		c.Cache.Scope = v
	}
	if len(problems) > 0 {
		return foundation.Invalid(problems...).ToError()
	}
	return nil
}

var configValidator = foundation.NewValidatorChain(
	foundation.Field(func(c *Config) string { return c.Output }, foundation.NotEmpty("output")),
	foundation.Field(func(c *Config) int { return c.Parallelism }, foundation.Positive("parallelism")),
	foundation.Field(func(c *Config) int { return c.Cache.HighWater }, foundation.Positive("cache.high_water")),
	foundation.Field(func(c *Config) int { return c.Cache.Retain }, foundation.Positive("cache.retain")),
	foundation.Field(func(c *Config) CacheScope { return c.Cache.Scope },
		foundation.OneOf("cache.scope", []CacheScope{CacheScopeProject, CacheScopeApplication})),
	validatePatterns,
	validateRetention,
)

func validatePatterns(c *Config) foundation.ValidationResult {
	result := foundation.Valid()
	check := func(field string, patterns []string) {
		for i, p := range patterns {
			if !doublestar.ValidatePattern(p) {
				result = result.Combine(foundation.Invalid(foundation.FieldError{
					Field:   fmt.Sprintf("%s[%d]", field, i),
					Code:    "pattern",
					Message: fmt.Sprintf("invalid glob pattern %q", p),
					Value:   p,
				}))
			}
		}
	}
	check("include", c.Include)
	check("exclude", c.Exclude)
	return result
}

func validateRetention(c *Config) foundation.ValidationResult {
	if c.Cache.Retain > c.Cache.HighWater {
		return foundation.Invalid(foundation.NewValidationError("cache.retain", "range",
			fmt.Sprintf("must not exceed cache.high_water (%d)", c.Cache.HighWater)))
	}
	if c.Cache.MaxAge < 0 {
		return foundation.Invalid(foundation.NewValidationError("cache.max_age", "range", "must not be negative"))
	}
	return foundation.Valid()
}

// Validate checks the configuration after defaults were applied.
func (c *Config) Validate() error {
	return configValidator.Validate(c).ToError()
}
