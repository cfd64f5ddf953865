package dispatch_test

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/aretw0/loadbank/pkg/dispatch"
	"github.com/aretw0/loadbank/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spyInvoker records every invocation and answers with a canned result.
type spyInvoker struct {
	mu     sync.Mutex
	calls  []domain.Invocation
	result domain.Result
}

func (s *spyInvoker) Invoke(ctx context.Context, inv domain.Invocation) domain.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, inv)
	return s.result
}

func (s *spyInvoker) Calls() []domain.Invocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Invocation(nil), s.calls...)
}

func newSpy() *spyInvoker {
	return &spyInvoker{result: domain.Result{Kind: domain.Success, Output: []byte(`{"status": "OK"}`)}}
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/api/v1/switches/status":   "/api/v1/switches/status",
		"/api/v1/switches/status/":  "/api/v1/switches/status",
		"/api/v1/switches/status//": "/api/v1/switches/status/",
		"/":                         "",
		"":                          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, dispatch.NormalizePath(in), in)
	}
}

func TestDispatch_KnownRoutes(t *testing.T) {
	tests := []struct {
		path  string
		query string
		argv  []string
	}{
		{"/api/v1/phases/status", "", []string{"PHASE?"}},
		{"/api/v1/phases", "values=111111222222333333", []string{"PHASE", "111111222222333333"}},
		{"/api/v1/switches/status", "", []string{"SW?"}},
		{"/api/v1/switches", "values=111000111000111000", []string{"SW", "111000111000111000"}},
		{"/api/v1/zcs/status", "", []string{"ZCS?"}},
		{"/api/v1/zcs/on", "", []string{"ZCS", "ON"}},
		{"/api/v1/zcs/off", "", []string{"ZCS", "OFF"}},
		// Status routes ignore a stray values parameter.
		{"/api/v1/zcs/status", "values=1", []string{"ZCS?"}},
	}

	for _, tt := range tests {
		for _, suffix := range []string{"", "/"} {
			path := tt.path + suffix
			t.Run(path+"?"+tt.query, func(t *testing.T) {
				spy := newSpy()
				d := dispatch.New(spy)

				query, err := url.ParseQuery(tt.query)
				require.NoError(t, err)

				resp := d.Dispatch(context.Background(), http.MethodGet, path, query)

				assert.Equal(t, http.StatusOK, resp.Status)
				assert.Equal(t, `{"status": "OK"}`, string(resp.Body))
				calls := spy.Calls()
				require.Len(t, calls, 1, "exactly one invocation per matched dispatch")
				assert.Equal(t, tt.argv, calls[0].Argv())
				assert.NotEmpty(t, calls[0].ID)
			})
		}
	}
}

func TestDispatch_UnknownPaths(t *testing.T) {
	paths := []string{
		"/",
		"",
		"/api/v1",
		"/api/v1/",
		"/api/v1/switches/status//",
		"/API/v1/switches/status",
		"/api/v1/switches/status/extra",
		"/api/v1/switch",
		"/api/v1/zcs",
		"/api/v2/zcs/on",
		"api/v1/zcs/on",
	}

	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			spy := newSpy()
			d := dispatch.New(spy)

			resp := d.Dispatch(context.Background(), http.MethodGet, p, url.Values{})

			assert.Equal(t, http.StatusNotFound, resp.Status)
			assert.Equal(t, "Not Found", string(resp.Body))
			assert.Equal(t, domain.ContentTypeText, resp.ContentType)
			assert.Empty(t, spy.Calls(), "no subprocess for unknown paths")
		})
	}
}

func TestDispatch_MethodAgnostic(t *testing.T) {
	for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions, "BREW"} {
		spy := newSpy()
		d := dispatch.New(spy)

		resp := d.Dispatch(context.Background(), m, "/api/v1/zcs/on", nil)

		assert.Equal(t, http.StatusOK, resp.Status, m)
		require.Len(t, spy.Calls(), 1, m)
	}
}

func TestDispatch_MissingValues(t *testing.T) {
	for _, path := range []string{"/api/v1/switches", "/api/v1/phases/"} {
		t.Run(path, func(t *testing.T) {
			spy := newSpy()
			d := dispatch.New(spy)

			resp := d.Dispatch(context.Background(), http.MethodGet, path, url.Values{"other": {"1"}})

			assert.Equal(t, http.StatusBadRequest, resp.Status)
			assert.JSONEq(t, `{"status": "Bad Request", "msg": "missing query parameter \"values\""}`, string(resp.Body))
			assert.Empty(t, spy.Calls(), "no subprocess when values is missing")
		})
	}
}

func TestDispatch_EmptyValueIsForwarded(t *testing.T) {
	spy := newSpy()
	d := dispatch.New(spy)

	resp := d.Dispatch(context.Background(), http.MethodGet, "/api/v1/switches", url.Values{"values": {""}})

	assert.Equal(t, http.StatusOK, resp.Status)
	calls := spy.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"SW", ""}, calls[0].Argv())
}

func TestDispatch_RepeatedValuesTakeFirst(t *testing.T) {
	spy := newSpy()
	d := dispatch.New(spy)

	resp := d.Dispatch(context.Background(), http.MethodGet, "/api/v1/switches", url.Values{"values": {"1", "0"}})

	assert.Equal(t, http.StatusOK, resp.Status)
	calls := spy.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"SW", "1"}, calls[0].Argv())
}

func TestDispatch_PropagatesInvokerResult(t *testing.T) {
	spy := &spyInvoker{result: domain.Result{Kind: domain.Failure, Output: []byte("device unplugged\n")}}
	d := dispatch.New(spy)

	resp := d.Dispatch(context.Background(), http.MethodGet, "/api/v1/switches/status", nil)

	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, "device unplugged\n", string(resp.Body))
}

func TestResolve(t *testing.T) {
	d := dispatch.New(newSpy())

	inv, err := d.Resolve("/api/v1/phases/", url.Values{"values": {"123123123123123123"}})
	require.NoError(t, err)
	assert.Equal(t, "set_phases", inv.Route)
	assert.Equal(t, []string{"PHASE", "123123123123123123"}, inv.Argv())

	_, err = d.Resolve("/nope", nil)
	assert.ErrorIs(t, err, domain.ErrRouteNotFound)

	_, err = d.Resolve("/api/v1/phases", nil)
	assert.ErrorIs(t, err, domain.ErrMissingValue)
}

func TestValue(t *testing.T) {
	v, err := dispatch.Value(url.Values{})
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = dispatch.Value(url.Values{"values": {"101"}})
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "101", *v)

	v, err = dispatch.Value(url.Values{"values": {"", "101"}})
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "", *v)
}

func TestDispatch_ConcurrentCallsAreIndependent(t *testing.T) {
	spy := newSpy()
	d := dispatch.New(spy)

	var wg sync.WaitGroup
	for _, p := range []string{"/api/v1/switches/status", "/api/v1/phases/status", "/api/v1/zcs/status"} {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(p string) {
				defer wg.Done()
				resp := d.Dispatch(context.Background(), http.MethodGet, p, nil)
				assert.Equal(t, http.StatusOK, resp.Status)
			}(p)
		}
	}
	wg.Wait()

	calls := spy.Calls()
	assert.Len(t, calls, 30)
	ids := map[string]bool{}
	for _, c := range calls {
		assert.False(t, ids[c.ID], "invocation ids must be unique")
		ids[c.ID] = true
	}
}
