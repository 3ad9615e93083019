package typetext_test

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/typetext"
	"github.com/reoring/typetext/format"
	jsonfmt "github.com/reoring/typetext/format/json"
	"github.com/reoring/typetext/format/jsv"
	"github.com/reoring/typetext/metrics"
)

func TestDispatch_BuildsOncePerTypeAndFormat(t *testing.T) {
	m := metrics.NewCollector()
	m.MustRegister(prometheus.NewRegistry())
	e := typetext.New(typetext.WithMetrics(m))

	builds := func(f, dir string) float64 {
		return testutil.ToFloat64(m.Builds.WithLabelValues(f, dir, metrics.ResultOK))
	}

	_, err := e.Marshal(jsonfmt.Strategy(), record{Id: 1})
	require.NoError(t, err)
	first := builds("json", "write")
	require.Positive(t, first)

	for i := 0; i < 3; i++ {
		_, err := e.Marshal(jsonfmt.Strategy(), record{Id: i})
		require.NoError(t, err)
	}
	assert.Equal(t, first, builds("json", "write"))
	assert.Positive(t, testutil.ToFloat64(m.Lookups.WithLabelValues("json", "write", metrics.ResultHit)))

	_, err = e.Marshal(jsv.Strategy(), record{Id: 1})
	require.NoError(t, err)
	assert.Equal(t, first, builds("jsv", "write"))
	assert.Zero(t, builds("json", "read"))
}

func TestDispatch_FailureIsCachedAndReturnedOnce(t *testing.T) {
	m := metrics.NewCollector()
	e := typetext.New(typetext.WithMetrics(m))
	ft := reflect.TypeOf(func() {})

	_, err1 := e.WriterFor(ft, jsonfmt.Strategy())
	_, err2 := e.WriterFor(ft, jsonfmt.Strategy())
	require.Error(t, err1)
	assert.Equal(t, err1, err2)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Builds.WithLabelValues("json", "write", metrics.ResultError)))
}

type tree struct {
	Name  string
	Kids  []tree
	Attrs map[string]*tree
}

func sampleTree(n int) tree {
	return tree{
		Name: fmt.Sprintf("root-%d", n),
		Kids: []tree{{Name: "a"}, {Name: "b", Kids: []tree{{Name: "c"}}}},
		Attrs: map[string]*tree{
			"x": {Name: "x"},
		},
	}
}

func TestDispatch_ConcurrentFirstUse(t *testing.T) {
	e := typetext.New()
	const workers = 32

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			in := sampleTree(i)
			for _, f := range []format.Strategy{jsonfmt.Strategy(), jsv.Strategy()} {
				b, err := e.Marshal(f, in)
				if !assert.NoError(t, err, f.Name()) {
					return
				}
				var out tree
				if assert.NoError(t, e.Unmarshal(f, string(b), &out), f.Name()) {
					assert.Equal(t, in, out, f.Name())
				}
			}
		}()
	}
	close(start)
	wg.Wait()
}

func TestDefaultEngine(t *testing.T) {
	prev := typetext.Default()
	t.Cleanup(func() { typetext.SetDefault(prev) })

	typetext.SetDefault(typetext.New(typetext.WithTextCase(typetext.TextCaseSnake)))
	out, err := typetext.ToJSON(profile{FirstName: "Z"})
	require.NoError(t, err)
	assert.Equal(t, `{"first_name":"Z","user_id":0,"email_address":""}`, out)

	typetext.SetDefault(nil)
	assert.Equal(t, typetext.TextCaseSnake, typetext.Default().Config().TextCase)
}
