package staticfiles

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/basecore/basecore/action"
	"github.com/basecore/basecore/bus"
	"github.com/basecore/basecore/httpx"
	"github.com/basecore/basecore/runtime"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticFiles_IndexThenServe(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.css"), []byte("body{}"), 0o644))

	b := bus.New(nil)
	actions := action.New()
	sf := New(dir, b, actions, nil)

	initCtx := runtime.NewInit(b, actions, nil)
	require.NoError(t, initCtx.Run(context.Background()))

	req := httptest.NewRequest(http.MethodGet, "/assets/app.css", nil)
	rec := httptest.NewRecorder()
	e := echo.New()
	ec := e.NewContext(req, rec)

	resp := httpx.NewResponse(ec)
	reqCtx := runtime.NewHTTP(b, actions, nil, 0, "/request/:requestId/get/assets/*", map[string]string{"*": "app.css"}, resp)
	reqCtx.Set("response", resp)
	err := reqCtx.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())
}

func TestStaticFiles_ServeMissingFileReturns404(t *testing.T) {
	dir := t.TempDir()
	b := bus.New(nil)
	actions := action.New()
	sf := New(dir, b, actions, nil)
	_ = sf

	initCtx := runtime.NewInit(b, actions, nil)
	require.NoError(t, initCtx.Run(context.Background()))

	req := httptest.NewRequest(http.MethodGet, "/assets/missing.css", nil)
	rec := httptest.NewRecorder()
	e := echo.New()
	ec := e.NewContext(req, rec)

	resp := httpx.NewResponse(ec)
	reqCtx := runtime.NewHTTP(b, actions, nil, 0, "/request/:requestId/get/assets/*", map[string]string{"*": "missing.css"}, resp)
	reqCtx.Set("response", resp)
	err := reqCtx.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
