package typetext

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/reoring/typetext/codec"
	"github.com/reoring/typetext/format"
	"github.com/reoring/typetext/metrics"
)

// WriteFunc writes v into w. v always has the type the function was built for.
type WriteFunc func(w format.Sink, v reflect.Value, mode format.WriteMode) error

// ParseFunc reads one raw value span and returns a value assignable to the
// type the function was built for.
type ParseFunc func(text string) (reflect.Value, error)

const (
	dirWrite = "write"
	dirRead  = "read"
)

// Engine owns the dispatch caches and registrations. Writers and parsers are
// built at most once per (type, format, direction) and shared by all
// goroutines. Register enums, parsers and type names before first use of
// the affected types.
type Engine struct {
	cfg     Config
	log     *zap.Logger
	metrics *metrics.Collector

	enums     sync.Map // reflect.Type -> *enumSet
	factories sync.Map // reflect.Type -> func(string) (reflect.Value, error)
	typeNames sync.Map // string -> reflect.Type

	dispatchers sync.Map // format.Strategy -> *dispatcher
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option { return func(e *Engine) { e.cfg = cfg } }

// WithLogger sets the logger; nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics records dispatch-cache activity into c.
func WithMetrics(c *metrics.Collector) Option { return func(e *Engine) { e.metrics = c } }

// WithTextCase sets the case of untagged field names.
func WithTextCase(tc TextCase) Option { return func(e *Engine) { e.cfg.TextCase = tc } }

// WithDateHandler selects the text form of time.Time values.
func WithDateHandler(h codec.DateHandler) Option { return func(e *Engine) { e.cfg.DateHandler = h } }

// WithStrictMapStart makes a missing map-open token a read error.
func WithStrictMapStart(on bool) Option { return func(e *Engine) { e.cfg.StrictMapStart = on } }

// WithIncludeNullValues writes nil struct fields instead of omitting them.
func WithIncludeNullValues(on bool) Option { return func(e *Engine) { e.cfg.IncludeNullValues = on } }

// New creates an engine. Without options it uses DefaultConfig and a no-op
// logger.
func New(opts ...Option) *Engine {
	e := &Engine{cfg: DefaultConfig(), log: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	e.log = e.log.With(fieldModule)
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

var defaultEngine atomic.Pointer[Engine]

func init() { defaultEngine.Store(New()) }

// Default returns the process-wide engine used by the package-level helpers.
func Default() *Engine { return defaultEngine.Load() }

// SetDefault replaces the process-wide engine; nil values are ignored.
func SetDefault(e *Engine) {
	if e != nil {
		defaultEngine.Store(e)
	}
}

// WriterFor returns the writer for t in format f.
func (e *Engine) WriterFor(t reflect.Type, f format.Strategy) (WriteFunc, error) {
	return e.dispatcher(f).writer(t)
}

// ParserFor returns the parser for t in format f.
func (e *Engine) ParserFor(t reflect.Type, f format.Strategy) (ParseFunc, error) {
	return e.dispatcher(f).parser(t)
}

func (e *Engine) dispatcher(f format.Strategy) *dispatcher {
	if d, ok := e.dispatchers.Load(f); ok {
		return d.(*dispatcher)
	}
	d, _ := e.dispatchers.LoadOrStore(f, &dispatcher{e: e, f: f, cfg: &e.cfg, log: e.log.With(fieldFormat(f))})
	return d.(*dispatcher)
}

// dispatcher holds the caches of one format.
type dispatcher struct {
	e   *Engine
	f   format.Strategy
	cfg *Config
	log *zap.Logger

	writers sync.Map // reflect.Type -> *cached[WriteFunc]
	parsers sync.Map // reflect.Type -> *cached[ParseFunc]
}

type cached[F any] struct {
	fn  F
	err error
}

func (d *dispatcher) writer(t reflect.Type) (WriteFunc, error) {
	return memoize(d, &d.writers, t, dirWrite, d.buildWriter, func(wait func() (WriteFunc, error)) WriteFunc {
		return func(w format.Sink, v reflect.Value, mode format.WriteMode) error {
			fn, err := wait()
			if err != nil {
				return err
			}
			return fn(w, v, mode)
		}
	})
}

func (d *dispatcher) parser(t reflect.Type) (ParseFunc, error) {
	return memoize(d, &d.parsers, t, dirRead, d.buildParser, func(wait func() (ParseFunc, error)) ParseFunc {
		return func(text string) (reflect.Value, error) {
			fn, err := wait()
			if err != nil {
				return reflect.Value{}, err
			}
			return fn(text)
		}
	})
}

// memoize returns the cached function for t, building it on first request.
// While a build is in flight the cache holds an indirect function that waits
// for the result, which lets recursive types refer to themselves and keeps
// concurrent first callers from seeing a half-built function.
func memoize[F any](d *dispatcher, m *sync.Map, t reflect.Type, dir string,
	build func(reflect.Type) (F, error), indirect func(wait func() (F, error)) F,
) (F, error) {
	if c, ok := m.Load(t); ok {
		d.e.metrics.ObserveLookup(d.f.Name(), dir, true)
		c := c.(*cached[F])
		return c.fn, c.err
	}
	d.e.metrics.ObserveLookup(d.f.Name(), dir, false)

	var (
		wg  sync.WaitGroup
		fn  F
		err error
	)
	wg.Add(1)
	placeholder := &cached[F]{fn: indirect(func() (F, error) {
		wg.Wait()
		return fn, err
	})}
	if c, loaded := m.LoadOrStore(t, placeholder); loaded {
		c := c.(*cached[F])
		return c.fn, c.err
	}

	start := time.Now()
	fn, err = build(t)
	if err != nil {
		err = &ResolveError{Type: t, Format: d.f.Name(), Direction: dir, Err: err}
		d.log.Warn("resolution failed", fieldType(t), zap.String("direction", dir), zap.Error(err))
	} else {
		d.log.Debug("resolved", fieldType(t), zap.String("direction", dir))
	}
	wg.Done()
	d.e.metrics.ObserveBuild(d.f.Name(), dir, time.Since(start), err)
	m.Store(t, &cached[F]{fn: fn, err: err})
	return fn, err
}
