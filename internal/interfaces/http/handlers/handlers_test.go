package handlers

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	appDocs "cdrcgi/internal/application/docs"
	"cdrcgi/internal/application/filters"
	"cdrcgi/internal/application/search"
	"cdrcgi/internal/application/sessions"
	domainDocs "cdrcgi/internal/domain/docs"
	domainSession "cdrcgi/internal/domain/session"
	domainUser "cdrcgi/internal/domain/user"
	"cdrcgi/internal/infrastructure/auth"
	"cdrcgi/internal/infrastructure/persistence/models"
	"cdrcgi/internal/infrastructure/ratelimit"
	"cdrcgi/internal/infrastructure/upstream"
	"cdrcgi/internal/interfaces/http/controller"
	"cdrcgi/internal/shared/errors"
	"cdrcgi/internal/shared/logger"
	"cdrcgi/internal/shared/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := utils.RegisterValidators(); err != nil {
		panic(err)
	}
}

// --- mocks ---

type mockUpstream struct {
	upstream.Client
	loginToken  string
	loginUser   string
	logoutCalls int
}

func (m *mockUpstream) Login(_ context.Context, userName, _ string) (string, error) {
	m.loginUser = userName
	if m.loginToken == "" {
		return "", errors.NewAuthError("login failed")
	}
	return m.loginToken, nil
}

func (m *mockUpstream) Logout(_ context.Context, _ string) error {
	m.logoutCalls++
	return nil
}

type mockSessionRepo struct {
	sessions map[string]*domainSession.Session
	ended    []string
}

func (m *mockSessionRepo) GetByToken(_ context.Context, token string) (*domainSession.Session, error) {
	return m.sessions[token], nil
}

func (m *mockSessionRepo) Touch(_ context.Context, _ string) error { return nil }

func (m *mockSessionRepo) End(_ context.Context, token string) error {
	m.ended = append(m.ended, token)
	return nil
}

type mockUserRepo struct {
	users  map[string]*domainUser.User
	hashes map[string]string
}

func (m *mockUserRepo) GetByName(_ context.Context, name string) (*domainUser.User, error) {
	return m.users[name], nil
}

func (m *mockUserRepo) PasswordHash(_ context.Context, name string) (string, error) {
	return m.hashes[name], nil
}

type mockActions struct{}

func (mockActions) Names(_ context.Context) ([]string, error) { return nil, nil }

type mockOracle struct{}

func (mockOracle) Enforce(_, _, _ string) (bool, error) { return false, nil }

func newSessionService(client upstream.Client, repo *mockSessionRepo) *sessions.Service {
	if repo == nil {
		repo = &mockSessionRepo{sessions: map[string]*domainSession.Session{}}
	}
	return sessions.NewService(repo, &mockUserRepo{}, mockActions{}, client,
		mockOracle{}, 24*time.Hour, logger.WithComponent("test"))
}

// --- S1: single sign-on into the admin menu ---

func TestAdminLoginRedirect(t *testing.T) {
	client := &mockUpstream{loginToken: "T"}
	handler := NewAdminHandler(newSessionService(client, nil), nil,
		ratelimit.Limits{}, "https://cdr.cancer.gov")

	router := gin.New()
	router.GET("/admin", handler.Login)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(AuthUserHeader, `NIH\jdoe`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://cdr.cancer.gov/cgi-bin/cdr/admin.py?Session=T",
		w.Header().Get("Location"))
	assert.Equal(t, "jdoe", client.loginUser)
}

func TestAdminLoginMissingHeader(t *testing.T) {
	handler := NewAdminHandler(newSessionService(&mockUpstream{loginToken: "T"}, nil),
		nil, ratelimit.Limits{}, "https://cdr.cancer.gov")

	router := gin.New()
	router.GET("/admin", handler.Login)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminLoginUpstreamRejection(t *testing.T) {
	handler := NewAdminHandler(newSessionService(&mockUpstream{}, nil),
		nil, ratelimit.Limits{}, "https://cdr.cancer.gov")

	router := gin.New()
	router.GET("/admin", handler.Login)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(AuthUserHeader, `NIH\jdoe`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type denyLimiter struct{}

func (denyLimiter) Allow(_ string, _ ratelimit.Limits) (bool, error)     { return false, nil }
func (denyLimiter) GetRemaining(_ string, _ time.Duration) (int64, error) { return 0, nil }
func (denyLimiter) Reset(_ string) error                                  { return nil }

func TestAdminLoginRateLimited(t *testing.T) {
	handler := NewAdminHandler(newSessionService(&mockUpstream{loginToken: "T"}, nil),
		denyLimiter{}, ratelimit.Limits{AttemptsPerMinute: 1}, "https://cdr.cancer.gov")

	router := gin.New()
	router.GET("/admin", handler.Login)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(AuthUserHeader, `NIH\jdoe`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

// --- S3: guest logout is benign ---

func TestLogoutAsGuest(t *testing.T) {
	client := &mockUpstream{}
	handler := NewLogoutHandler(newSessionService(client, nil))

	router := gin.New()
	router.GET("/logout", handler.Logout)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/logout?Session=guest", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "You are not currently logged in.")
	assert.Equal(t, 1, strings.Count(body, `class="alert alert-warning"`))
	assert.Equal(t, 0, client.logoutCalls)
}

func TestLogoutEndsSession(t *testing.T) {
	client := &mockUpstream{}
	repo := &mockSessionRepo{sessions: map[string]*domainSession.Session{
		"T": {Token: "T", UserName: "jdoe", LastActivity: time.Now()},
	}}
	handler := NewLogoutHandler(newSessionService(client, repo))

	router := gin.New()
	router.GET("/logout", handler.Logout)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/logout?Session=T", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Session for jdoe ended.")
	assert.Equal(t, 1, client.logoutCalls)
	assert.Equal(t, []string{"T"}, repo.ended)
}

// --- S2: advanced search by country name ---

func searchRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.DocTypeModel{}, &models.DocumentModel{}, &models.QueryTermModel{},
	))
	require.NoError(t, db.Create(&models.DocTypeModel{ID: 1, Name: "Country", Active: "Y"}).Error)
	require.NoError(t, db.Create(&models.DocumentModel{
		ID: 11, DocType: 1, Title: "Canada",
		XML: "<Country><CountryFullName>Canada</CountryFullName></Country>", ActiveStatus: "A",
	}).Error)
	require.NoError(t, db.Create(&models.QueryTermModel{
		DocID: 11, Path: "/Country/CountryFullName", Value: "Canada",
	}).Error)

	searchService := search.NewService(db,
		filters.NewAdapter(&mockUpstream{}, nil, logger.WithComponent("test")), 500)
	dispatcher := controller.NewDispatcher(newSessionService(&mockUpstream{}, nil), "https://cdr.cancer.gov")
	handler := NewSearchHandler(dispatcher, searchService, search.Definitions())

	router := gin.New()
	router.GET("/search/:doctype", handler.Handle)
	router.POST("/search/:doctype", handler.Handle)
	return router
}

func postForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSearchFormFirstVisit(t *testing.T) {
	router := searchRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search/Country", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `name="name"`)
	assert.Contains(t, body, "Country Advanced Search")
	assert.Contains(t, body, `value="Search"`)
}

func TestSearchOneMatch(t *testing.T) {
	router := searchRouter(t)

	w := postForm(router, "/search/Country", url.Values{
		"Session": {"guest"}, "Request": {"Search"}, "name": {"Canada"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "1 document(s) found")
	assert.Contains(t, body, "CDR0000000011")
	assert.Contains(t, body, "Canada")
}

func TestSearchNoMatches(t *testing.T) {
	router := searchRouter(t)

	w := postForm(router, "/search/Country", url.Values{
		"Session": {"guest"}, "Request": {"Search"}, "name": {"Xyzzy"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "0 document(s) found")
}

func TestSearchPartialMatch(t *testing.T) {
	router := searchRouter(t)

	w := postForm(router, "/search/Country", url.Values{
		"Session": {"guest"}, "Request": {"Search"}, "name": {"can"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CDR0000000011")
}

func TestSearchUnknownDoctype(t *testing.T) {
	router := searchRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search/Bogus", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- S4: schema listing and display ---

type stubDocRepo struct {
	docs  map[uint]*domainDocs.Document
	blobs map[uint][]byte
	lists map[string][]domainDocs.DocTitle
}

func (m *stubDocRepo) GetByID(_ context.Context, id uint) (*domainDocs.Document, error) {
	return m.docs[id], nil
}
func (m *stubDocRepo) GetVersionXML(_ context.Context, _ uint, _ int) (string, error) {
	return "", nil
}
func (m *stubDocRepo) GetBlob(_ context.Context, id uint) ([]byte, error) {
	return m.blobs[id], nil
}
func (m *stubDocRepo) ListByDoctype(_ context.Context, doctype string) ([]domainDocs.DocTitle, error) {
	return m.lists[doctype], nil
}
func (m *stubDocRepo) Doctypes(_ context.Context) ([]string, error) { return nil, nil }

func TestSchemaListing(t *testing.T) {
	repo := &stubDocRepo{lists: map[string][]domainDocs.DocTitle{
		"Schema": {{ID: 1, Title: "Country.xml"}, {ID: 2, Title: "Summary.xml"}},
	}}
	handler := NewSchemaHandler(appDocs.NewSchemaService(repo))

	router := gin.New()
	router.GET("/schemas", handler.Handle)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/schemas", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Country.xml")
	assert.Contains(t, body, "Summary.xml")
	assert.Less(t, strings.Index(body, "Country.xml"), strings.Index(body, "Summary.xml"))
}

func TestSchemaDisplayEscapesXML(t *testing.T) {
	repo := &stubDocRepo{docs: map[uint]*domainDocs.Document{
		123: {ID: 123, Doctype: "Schema", Title: "Country.xml", XML: "<schema attr=\"x\"/>"},
	}}
	handler := NewSchemaHandler(appDocs.NewSchemaService(repo))

	router := gin.New()
	router.GET("/schemas", handler.Handle)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/schemas?id=123", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<pre>")
	assert.Contains(t, body, "&lt;schema attr=&#34;x&#34;/&gt;")
	assert.NotContains(t, body, "<schema")
}

func TestSchemaUnknownID(t *testing.T) {
	handler := NewSchemaHandler(appDocs.NewSchemaService(&stubDocRepo{docs: map[uint]*domainDocs.Document{}}))

	router := gin.New()
	router.GET("/schemas", handler.Handle)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/schemas?id=999", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- S5: image fetch ---

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageFetchScaled(t *testing.T) {
	repo := &stubDocRepo{blobs: map[uint][]byte{12345: pngBytes(t, 400, 300)}}
	handler := NewImageHandler(appDocs.NewImageService(repo))

	router := gin.New()
	router.GET("/GetCdrImage", handler.Handle)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/GetCdrImage?id=CDR0000012345&width=200", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	length, err := strconv.Atoi(w.Header().Get("Content-Length"))
	require.NoError(t, err)
	assert.Equal(t, w.Body.Len(), length)

	decoded, err := jpeg.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 200, decoded.Bounds().Dx())
	assert.Equal(t, 150, decoded.Bounds().Dy())
}

func TestImageFetchBadQualityTolerated(t *testing.T) {
	repo := &stubDocRepo{blobs: map[uint][]byte{1: pngBytes(t, 40, 30)}}
	handler := NewImageHandler(appDocs.NewImageService(repo))

	router := gin.New()
	router.GET("/GetCdrImage", handler.Handle)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/GetCdrImage?id=1&quality=snafu", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestImageFetchBadID(t *testing.T) {
	handler := NewImageHandler(appDocs.NewImageService(&stubDocRepo{}))

	router := gin.New()
	router.GET("/GetCdrImage", handler.Handle)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/GetCdrImage?id=bogus", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

/// --- S6: gateway error reclassification ---

func TestFallbackMissingScript(t *testing.T) {
	handler := NewFallbackHandler(t.TempDir())

	router := gin.New()
	router.GET("/fallback", handler.Handle)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fallback?cgi-bin/gone.py", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "404 - Not Found")
	assert.Contains(t, body, "script not found")
}

func TestFallbackExistingScript(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cgi-bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cgi-bin", "report.py"), []byte("#"), 0o644))

	handler := NewFallbackHandler(root)

	router := gin.New()
	router.GET("/fallback", handler.Handle)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fallback?cgi-bin/report.py", nil))

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "502 - Server Error")
}

func TestFallbackDecodesEncodedPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cgi-bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cgi-bin", "my report.py"), []byte("#"), 0o644))

	handler := NewFallbackHandler(root)

	router := gin.New()
	router.GET("/fallback", handler.Handle)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fallback?cgi-bin/my%20report.py", nil))

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "502 - Server Error")
}

// --- JSON API ---

func apiRouter(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	hasher := auth.NewPasswordHasher(4)
	hash, err := hasher.Hash("secret")
	require.NoError(t, err)

	users := &mockUserRepo{hashes: map[string]string{"apiuser": hash}}
	docRepo := &stubDocRepo{docs: map[uint]*domainDocs.Document{
		99: {ID: 99, Doctype: "Country", Title: "Canada", XML: "<Country/>"},
	}}

	jwtService := auth.NewJWTService("test-secret", 15)
	handler := NewAPIHandler(users, docRepo, hasher, jwtService)

	router := gin.New()
	router.POST("/api/token", handler.Token)
	router.GET("/api/doc/:id", handler.Doc)
	return router, jwtService
}

func TestAPITokenExchange(t *testing.T) {
	router, jwtService := apiRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/token",
		strings.NewReader(`{"username":"apiuser","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "access_token")

	// The issued token carries the account name.
	start := strings.Index(body, `"access_token":"`) + len(`"access_token":"`)
	end := strings.Index(body[start:], `"`)
	claims, err := jwtService.Verify(body[start : start+end])
	require.NoError(t, err)
	assert.Equal(t, "apiuser", claims.UserName)
}

func TestAPITokenBadPassword(t *testing.T) {
	router, _ := apiRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/token",
		strings.NewReader(`{"username":"apiuser","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPITokenMissingFields(t *testing.T) {
	router, _ := apiRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/token", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIDoc(t *testing.T) {
	router, _ := apiRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/doc/CDR0000000099", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "CDR0000000099")
	assert.Contains(t, body, "Canada")
}

func TestAPIDocUnknown(t *testing.T) {
	router, _ := apiRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/doc/42", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
