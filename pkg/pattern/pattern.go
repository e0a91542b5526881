package pattern

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/logging"
	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog"
)

// Engine selects the regular-expression implementation
type Engine string

const (
	// EngineECMAScript uses JavaScript RegExp semantics
	EngineECMAScript Engine = "ecmascript"
	// EngineRE2 uses Go's standard regexp package
	EngineRE2 Engine = "re2"
)

// DefaultMatchTimeout bounds a single ecmascript match
const DefaultMatchTimeout = time.Second

// ParseEngine parses an engine name; the empty string selects the default
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ecmascript", "js", "javascript":
		return EngineECMAScript, nil
	case "re2", "go":
		return EngineRE2, nil
	default:
		return "", errors.Newf(errors.ErrInvalidInput, "unknown pattern engine: %s", s)
	}
}

// Options configures compilation
type Options struct {
	Engine       Engine
	MatchTimeout time.Duration
}

// DefaultOptions returns the ecmascript engine with the default timeout
func DefaultOptions() Options {
	return Options{
		Engine:       EngineECMAScript,
		MatchTimeout: DefaultMatchTimeout,
	}
}

// Matcher is a compiled file pattern
type Matcher struct {
	expr   string
	engine Engine
	re2    *regexp.Regexp
	ecma   *regexp2.Regexp
	logger zerolog.Logger
}

// Compile compiles expr with the given options. Compilation failures are
// returned as INVALID_PATTERN errors.
func Compile(expr string, opts Options) (*Matcher, error) {
	engine := opts.Engine
	if engine == "" {
		engine = EngineECMAScript
	}

	m := &Matcher{
		expr:   expr,
		engine: engine,
		logger: logging.GetLogger("pattern"),
	}

	switch engine {
	case EngineRE2:
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, invalidPattern(expr, err)
		}
		m.re2 = re
	case EngineECMAScript:
		re, err := regexp2.Compile(expr, regexp2.ECMAScript)
		if err != nil {
			return nil, invalidPattern(expr, err)
		}
		timeout := opts.MatchTimeout
		if timeout <= 0 {
			timeout = DefaultMatchTimeout
		}
		re.MatchTimeout = timeout
		m.ecma = re
	default:
		return nil, errors.Newf(errors.ErrInvalidPattern, "invalid pattern %q: unknown engine %s", expr, engine).
			WithDetail("pattern", expr)
	}

	return m, nil
}

func invalidPattern(expr string, err error) error {
	return errors.Wrapf(err, errors.ErrInvalidPattern, "invalid pattern %q", expr).
		WithDetail("pattern", expr)
}

// Match tests a file base name against the pattern
func (m *Matcher) Match(name string) bool {
	if m.re2 != nil {
		return m.re2.MatchString(name)
	}

	matched, err := m.ecma.MatchString(name)
	if err != nil {
		m.logger.Warn().
			Err(err).
			Str("pattern", m.expr).
			Str("name", name).
			Msg("Pattern match failed, treating as no match")
		return false
	}
	return matched
}

// Engine returns the engine the pattern was compiled with
func (m *Matcher) Engine() Engine {
	return m.engine
}

// String returns the source expression
func (m *Matcher) String() string {
	return fmt.Sprintf("%s(%s)", m.engine, m.expr)
}

// Validate reports whether expr compiles, without keeping the result
func Validate(expr string, opts Options) error {
	_, err := Compile(expr, opts)
	return err
}
