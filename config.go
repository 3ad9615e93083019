package typetext

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/reoring/typetext/codec"
	"github.com/reoring/typetext/internal/shape"
)

// TextCase controls how untagged field names are rendered.
type TextCase = shape.TextCase

const (
	TextCaseDefault = shape.CaseDefault
	TextCaseCamel   = shape.CaseCamel
	TextCaseSnake   = shape.CaseSnake
)

// Severity expresses how a recoverable input oddity is treated.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

func (s Severity) String() string {
	switch s {
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "ignore"
	}
}

func parseSeverity(s string) (Severity, error) {
	switch strings.ToLower(s) {
	case "", "ignore":
		return Ignore, nil
	case "warn":
		return Warn, nil
	case "error":
		return Error, nil
	}
	return Ignore, errors.Newf("typetext: unknown severity %q", s)
}

// Config is fixed for the lifetime of an Engine.
type Config struct {
	TextCase    TextCase
	DateHandler codec.DateHandler
	// AssumeUTC reads zone-less dates as UTC; otherwise as time.Local.
	AssumeUTC bool
	// IncludeNullValues writes nil struct fields instead of omitting them.
	IncludeNullValues       bool
	IncludeNullValuesInMaps bool
	// ExcludeDefaultValues omits zero-valued struct fields.
	ExcludeDefaultValues bool
	SortMapKeys          bool
	// LenientProperties matches keys ignoring case, '-' and '_'.
	LenientProperties bool
	// StrictMapStart fails records whose map-open token is missing. When
	// false the record is parsed from the cursor and a warning is logged.
	StrictMapStart bool
	// ObjectsAsMaps parses untyped targets into map[string]any, []any and
	// scalars instead of returning their raw text.
	ObjectsAsMaps bool
	DuplicateKeys Severity
}

// zone is where zone-less dates are read, and where the locale date form is
// written.
func (c *Config) zone() *time.Location {
	if c.AssumeUTC {
		return time.UTC
	}
	return time.Local
}

// DefaultConfig returns the configuration used by New without options.
func DefaultConfig() Config {
	return Config{
		AssumeUTC:   true,
		SortMapKeys: true,
	}
}

// ParseConfigString applies a compact "key:value,flag" scope string on top of
// base. Recognized keys (aliases in parentheses): datehandler (dh),
// textcase (tc), includenullvalues (inv), includenullvaluesinmaps (invm),
// excludedefaultvalues (edv), sortmapkeys (smk), propertyconvention (pc),
// assumeutc (au), strictmapstart (sms), objectsasmaps (oam),
// duplicatekeys (dk). A bare flag means true.
func ParseConfigString(base Config, scope string) (Config, error) {
	cfg := base
	for _, item := range strings.Split(scope, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key, val, hasVal := strings.Cut(item, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		if err := cfg.set(key, val, hasVal); err != nil {
			return base, err
		}
	}
	return cfg, nil
}

func (c *Config) set(key, val string, hasVal bool) error {
	flag := func(dst *bool) error {
		if !hasVal {
			*dst = true
			return nil
		}
		b, err := strconv.ParseBool(val)
		if err != nil {
			return errors.Wrapf(err, "typetext: config %s", key)
		}
		*dst = b
		return nil
	}
	switch key {
	case "dh", "datehandler":
		h, err := codec.ParseDateHandler(val)
		if err != nil {
			return err
		}
		c.DateHandler = h
	case "tc", "textcase":
		tc, err := parseTextCase(val)
		if err != nil {
			return err
		}
		c.TextCase = tc
	case "pc", "propertyconvention":
		switch strings.ToLower(val) {
		case "l", "lenient":
			c.LenientProperties = true
		case "s", "strict", "":
			c.LenientProperties = false
		default:
			return errors.Newf("typetext: unknown property convention %q", val)
		}
	case "dk", "duplicatekeys":
		s, err := parseSeverity(val)
		if err != nil {
			return err
		}
		c.DuplicateKeys = s
	case "inv", "includenullvalues":
		return flag(&c.IncludeNullValues)
	case "invm", "includenullvaluesinmaps":
		return flag(&c.IncludeNullValuesInMaps)
	case "edv", "excludedefaultvalues":
		return flag(&c.ExcludeDefaultValues)
	case "smk", "sortmapkeys":
		return flag(&c.SortMapKeys)
	case "au", "assumeutc":
		return flag(&c.AssumeUTC)
	case "sms", "strictmapstart":
		return flag(&c.StrictMapStart)
	case "oam", "objectsasmaps":
		return flag(&c.ObjectsAsMaps)
	default:
		return errors.Newf("typetext: unknown config key %q", key)
	}
	return nil
}

func parseTextCase(s string) (TextCase, error) {
	switch strings.ToLower(s) {
	case "", "default", "pascalcase", "pc":
		return TextCaseDefault, nil
	case "camelcase", "cc", "camel":
		return TextCaseCamel, nil
	case "snakecase", "sc", "snake":
		return TextCaseSnake, nil
	}
	return TextCaseDefault, errors.Newf("typetext: unknown text case %q", s)
}

// fileConfig is the YAML shape of Config.
type fileConfig struct {
	TextCase                string `yaml:"textCase"`
	DateHandler             string `yaml:"dateHandler"`
	AssumeUTC               *bool  `yaml:"assumeUtc"`
	IncludeNullValues       bool   `yaml:"includeNullValues"`
	IncludeNullValuesInMaps bool   `yaml:"includeNullValuesInMaps"`
	ExcludeDefaultValues    bool   `yaml:"excludeDefaultValues"`
	SortMapKeys             *bool  `yaml:"sortMapKeys"`
	LenientProperties       bool   `yaml:"lenientProperties"`
	StrictMapStart          bool   `yaml:"strictMapStart"`
	ObjectsAsMaps           bool   `yaml:"objectsAsMaps"`
	DuplicateKeys           string `yaml:"duplicateKeys"`
}

// LoadConfig reads a YAML document into a Config. Absent keys keep their
// DefaultConfig values.
func LoadConfig(r io.Reader) (Config, error) {
	var fc fileConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "typetext: decode config")
	}
	cfg := DefaultConfig()
	var err error
	if cfg.TextCase, err = parseTextCase(fc.TextCase); err != nil {
		return Config{}, err
	}
	if fc.DateHandler != "" {
		if cfg.DateHandler, err = codec.ParseDateHandler(fc.DateHandler); err != nil {
			return Config{}, err
		}
	}
	if cfg.DuplicateKeys, err = parseSeverity(fc.DuplicateKeys); err != nil {
		return Config{}, err
	}
	if fc.AssumeUTC != nil {
		cfg.AssumeUTC = *fc.AssumeUTC
	}
	if fc.SortMapKeys != nil {
		cfg.SortMapKeys = *fc.SortMapKeys
	}
	cfg.IncludeNullValues = fc.IncludeNullValues
	cfg.IncludeNullValuesInMaps = fc.IncludeNullValuesInMaps
	cfg.ExcludeDefaultValues = fc.ExcludeDefaultValues
	cfg.LenientProperties = fc.LenientProperties
	cfg.StrictMapStart = fc.StrictMapStart
	cfg.ObjectsAsMaps = fc.ObjectsAsMaps
	return cfg, nil
}
