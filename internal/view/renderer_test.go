package view

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParsesEveryPage(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	for _, name := range []string{
		"home", "movies", "movie", "cinemas", "cinema", "search", "book",
		"register", "login", "my_list", "admin", "movie_form", "error",
	} {
		assert.Contains(t, r.pages, name)
	}
}

func TestRenderErrorPage(t *testing.T) {
	r := MustNew()
	var buf bytes.Buffer
	err := r.Render(&buf, "error", map[string]any{
		"Title": "Not Found", "Status": 404, "Message": "<gone>", "Query": "",
	}, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "&lt;gone&gt;")
	assert.Contains(t, buf.String(), "<title>Not Found · Cinema</title>")

	assert.Error(t, r.Render(&buf, "missing", nil, nil))
}

func TestFlashIsShownOnce(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	SetFlash(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec), FlashError, "Access denied.")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	c := e.NewContext(req, rec)
	assert.True(t, HasFlash(c))

	f := PopFlash(c)
	require.NotNil(t, f)
	assert.Equal(t, FlashError, f.Kind)
	assert.Equal(t, "Access denied.", f.Message)

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)

	assert.Nil(t, PopFlash(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())))
}
