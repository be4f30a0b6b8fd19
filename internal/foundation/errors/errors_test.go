package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifiedError_Format(t *testing.T) {
	cause := stderrors.New("open nope.html: no such file")
	err := LayoutError("layout not found").WithFile("posts/a.html").WithLayout("nope.html").WithCause(cause).Build()

	require.Equal(t, "[layout] layout not found: open nope.html: no such file", err.Error())
	require.Equal(t, "layout not found", err.Message())
	require.Equal(t, SeverityError, err.Severity())
	require.ErrorIs(t, err, cause)

	ref, ok := err.Context().GetString(KeyLayout)
	require.True(t, ok)
	require.Equal(t, "nope.html", ref)

	require.Equal(t, "[config] bad port", ConfigError("bad port").Build().Error())
}

func TestClassifiedError_Chain(t *testing.T) {
	inner := TransformError("bundle failed").WithFile("app.tsx").Build()
	wrapped := fmt.Errorf("compile: %w", inner)

	require.True(t, HasCategory(wrapped, CategoryTransform))
	require.False(t, HasCategory(wrapped, CategoryLayout))
	require.Equal(t, CategoryTransform, CategoryOf(wrapped))
	require.Equal(t, CategoryInternal, CategoryOf(stderrors.New("plain")))
	require.ErrorIs(t, wrapped, TransformError("bundle failed").Build())

	file, ok := FileOf(wrapped)
	require.True(t, ok)
	require.Equal(t, "app.tsx", file)
	_, ok = FileOf(ConfigError("x").Build())
	require.False(t, ok)
}

func TestBuilder_DoesNotShareContext(t *testing.T) {
	a := NotFoundError("a").WithContext("k", 1).Build()
	b := NotFoundError("b").Build()
	require.Len(t, a.Context(), 1)
	require.Empty(t, b.Context())
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)
	cases := map[int]error{
		0:  nil,
		1:  stderrors.New("plain"),
		2:  ValidationError("bad flag").Build(),
		7:  ConfigError("bad config").Build(),
		8:  NetworkError("nats").Build(),
		10: InternalError("boom").Build(),
		11: LayoutError("missing").Build(),
		12: RuntimeError("listener").Build(),
	}
	for want, err := range cases {
		require.Equal(t, want, adapter.ExitCodeFor(err), "%v", err)
	}
	require.Equal(t, 11, adapter.ExitCodeFor(fmt.Errorf("wrapped: %w", TransformError("x").Build())))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out bytes.Buffer
	code := -1
	adapter := NewCLIErrorAdapter(false, nil)
	adapter.out = &out
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("malformed config file").Build())
	require.Equal(t, 7, code)
	require.Equal(t, "Error: [config] malformed config file\n", out.String())

	out.Reset()
	adapter.HandleError(InternalError("boom").Build())
	require.Equal(t, 10, code)
	require.Contains(t, out.String(), "use -v for details")

	verbose := NewCLIErrorAdapter(true, nil)
	require.Contains(t, verbose.FormatError(InternalError("boom").Build()), "boom")
	require.Empty(t, verbose.FormatError(nil))
}

func TestHTTPErrorAdapter(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	require.Equal(t, http.StatusOK, adapter.StatusCodeFor(nil))
	require.Equal(t, http.StatusBadRequest, adapter.StatusCodeFor(ConfigError("x").Build()))
	require.Equal(t, http.StatusNotFound, adapter.StatusCodeFor(NotFoundError("x").Build()))
	require.Equal(t, http.StatusUnprocessableEntity, adapter.StatusCodeFor(LayoutError("x").Build()))
	require.Equal(t, http.StatusServiceUnavailable, adapter.StatusCodeFor(LiveReloadError("x").Build()))
	require.Equal(t, http.StatusInternalServerError, adapter.StatusCodeFor(stderrors.New("x")))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/broken", nil)
	adapter.WriteErrorResponse(rec, req, InternalError("internal server error").WithContext("path", "/broken").Build())

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var payload HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "internal server error", payload.Error)
	require.Equal(t, "internal", payload.Code)
	require.Equal(t, "/broken", payload.Details["path"])

	plain := adapter.FormatErrorResponse(stderrors.New("plain"))
	require.Equal(t, "plain", plain.Error)
	require.Empty(t, plain.Code)
}
