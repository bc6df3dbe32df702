package router_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/router"
	"github.com/iliyamo/cinema-booking/internal/service"
	"github.com/iliyamo/cinema-booking/internal/testutil"
)

type site struct {
	t  *testing.T
	e  *echo.Echo
	sc *model.Screening
	mv *model.Movie
}

func newSite(t *testing.T) *site {
	t.Helper()
	db := testutil.OpenDB(t)
	e, _, err := router.New(router.Deps{
		Cfg: config.Config{
			SessionSecret: "router-test-secret",
			SessionTTL:    time.Hour,
			BcryptCost:    4,
		},
		Cache:     config.CacheConfig{},
		RateLimit: config.RateLimitConfig{},
		DB:        db,
		Events:    service.NopPublisher{},
		Log:       logger.Discard(),
	})
	require.NoError(t, err)

	movie := testutil.Movie(t, db, "Dune", true)
	_, hall := testutil.Venue(t, db, "Grand")
	sc := testutil.Screening(t, db, movie, hall, time.Now().Add(48*time.Hour))
	return &site{t: t, e: e, sc: sc, mv: movie}
}

// browser keeps the cookies a real client would send back.
type browser struct {
	s       *site
	cookies map[string]*http.Cookie
}

func (s *site) browser() *browser { return &browser{s: s, cookies: map[string]*http.Cookie{}} }

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range b.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	b.s.e.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(b.cookies, ck.Name)
			continue
		}
		b.cookies[ck.Name] = ck
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return b.do(req)
}

func (b *browser) flash() string {
	ck, ok := b.cookies["flash"]
	if !ok {
		return ""
	}
	v, _ := url.QueryUnescape(ck.Value)
	return v
}

func (b *browser) signUp(name string) {
	t := b.s.t
	t.Helper()
	rec := b.post("/register", url.Values{
		"username": {name}, "email": {name + "@example.com"}, "password": {"pw123"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(t, "/login", rec.Header().Get("Location"))

	rec = b.post("/login", url.Values{"email": {name + "@example.com"}, "password": {"pw123"}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Contains(t, b.cookies, "session")
}

func (s *site) bookPath() string { return "/book/" + strconv.FormatUint(s.sc.ID, 10) }

func TestBookingScenario(t *testing.T) {
	s := newSite(t)

	alice := s.browser()
	alice.signUp("alice")

	rec := alice.get(s.bookPath())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dune")

	rec = alice.post(s.bookPath(), url.Values{"seat_number": {"A5"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Contains(t, alice.flash(), "Booking successful!")

	rec = alice.get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Booking successful!")
	assert.Empty(t, alice.flash(), "flash is shown once")

	bob := s.browser()
	bob.signUp("bob")
	rec = bob.post(s.bookPath(), url.Values{"seat_number": {"A5"}})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already booked")

	rec = alice.get("/my-list")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "A5")
}

func TestGuards(t *testing.T) {
	s := newSite(t)
	anon := s.browser()

	rec := anon.get("/my-list")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login"))

	rec = anon.post(s.bookPath(), url.Values{"seat_number": {"A1"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	alice := s.browser()
	alice.signUp("alice")
	rec = alice.get("/admin")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Contains(t, alice.flash(), "Access denied")

	rec = alice.get("/logout")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.NotContains(t, alice.cookies, "session")
	rec = alice.get("/my-list")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestPublicPages(t *testing.T) {
	s := newSite(t)
	anon := s.browser()

	for _, path := range []string{
		"/", "/movies/showing", "/movies/top-rated", "/movies/most-commented", "/cinemas",
		"/movie/" + strconv.FormatUint(s.mv.ID, 10), "/register", "/login",
	} {
		rec := anon.get(path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := anon.get("/search?query=dun")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dune")

	rec = anon.get("/search?query=zzz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `href="/movie/`)

	rec = anon.get("/movie/9999")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = anon.get("/no-such-page")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = anon.get("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJSONClients(t *testing.T) {
	s := newSite(t)
	api := s.browser()

	post := func(path, body, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		if token != "" {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		}
		return api.do(req)
	}

	rec := post("/register", `{"username":"carol","email":"carol@example.com","password":"pw123"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = post("/register", `{"username":"carol","email":"carol@example.com","password":"pw123"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = post("/login", `{"email":"carol@example.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post("/login", `{"email":"carol@example.com","password":"pw123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	rec = post(s.bookPath(), `{"seat_number":"b2"}`, login.Token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"seat_number":"B2"`)

	rec = post(s.bookPath(), `{"seat_number":"B2"}`, login.Token)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = post("/favorite/"+strconv.FormatUint(s.mv.ID, 10), `{}`, login.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"favorited":true`)
}
