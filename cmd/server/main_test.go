package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/harveywai/threatscan/pkg/auth"
	"github.com/harveywai/threatscan/pkg/database"
	"github.com/harveywai/threatscan/pkg/intel"
	"github.com/harveywai/threatscan/pkg/middleware"
	"github.com/harveywai/threatscan/pkg/model"
	"github.com/harveywai/threatscan/pkg/notify"
	"github.com/harveywai/threatscan/pkg/osint"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	dir, err := os.MkdirTemp("", "threatscan-test")
	if err != nil {
		panic(err)
	}
	if err := database.Init(filepath.Join(dir, "test.db")); err != nil {
		panic(err)
	}

	classifier = model.Load(dir)
	collector = osint.NewCollector(time.Second)
	intelFeed = intel.NewFeed("", "", "")
	alerts = notify.New("", "", "")

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func createTestUser(t *testing.T, email, password string) database.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	user := database.User{Email: email, PasswordHash: hash}
	if err := database.DB.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	return user
}

func sessionCookie(t *testing.T, user database.User) *http.Cookie {
	t.Helper()
	token, err := auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Cookie{Name: middleware.SessionCookie, Value: token}
}

func postForm(router *gin.Engine, path string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHomeRedirects(t *testing.T) {
	router := setupRouter()

	w := get(router, "/")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Errorf("anonymous / got %d -> %q, want 302 -> /login", w.Code, w.Header().Get("Location"))
	}

	user := createTestUser(t, "home@example.com", "password123")
	w = get(router, "/", sessionCookie(t, user))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/dashboard" {
		t.Errorf("authenticated / got %d -> %q, want 302 -> /dashboard", w.Code, w.Header().Get("Location"))
	}
}

func TestRegisterAndLoginFlow(t *testing.T) {
	router := setupRouter()

	w := postForm(router, "/register", url.Values{
		"email":    {"flow@example.com"},
		"password": {"password123"},
	})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Fatalf("register got %d -> %q, want 302 -> /login", w.Code, w.Header().Get("Location"))
	}

	var user database.User
	if err := database.DB.Where("email = ?", "flow@example.com").First(&user).Error; err != nil {
		t.Fatalf("registered user not persisted: %v", err)
	}
	if user.PasswordHash == "password123" {
		t.Error("password stored in plaintext")
	}

	// Wrong password bounces back to the login page.
	w = postForm(router, "/login", url.Values{
		"email":    {"flow@example.com"},
		"password": {"wrong-password"},
	})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Errorf("bad login got %d -> %q, want 302 -> /login", w.Code, w.Header().Get("Location"))
	}

	w = postForm(router, "/login", url.Values{
		"email":    {"flow@example.com"},
		"password": {"password123"},
	})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/dashboard" {
		t.Fatalf("login got %d -> %q, want 302 -> /dashboard", w.Code, w.Header().Get("Location"))
	}

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			session = c
		}
	}
	if session == nil || session.Value == "" {
		t.Fatal("login did not set a session cookie")
	}

	w = get(router, "/dashboard", session)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard with session got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "flow@example.com") {
		t.Error("dashboard does not show the signed-in user")
	}
}

func TestRegisterValidation(t *testing.T) {
	router := setupRouter()

	cases := []url.Values{
		{"email": {"not-an-email"}, "password": {"password123"}},
		{"email": {"short@example.com"}, "password": {"short"}},
	}
	for _, values := range cases {
		w := postForm(router, "/register", values)
		if w.Code != http.StatusFound || w.Header().Get("Location") != "/register" {
			t.Errorf("register %v got %d -> %q, want 302 -> /register", values, w.Code, w.Header().Get("Location"))
		}
	}

	var count int64
	database.DB.Model(&database.User{}).Where("email IN ?", []string{"not-an-email", "short@example.com"}).Count(&count)
	if count != 0 {
		t.Errorf("%d invalid registrations persisted", count)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router := setupRouter()
	createTestUser(t, "dupe@example.com", "password123")

	// An existing account sends the visitor to the login page instead.
	w := postForm(router, "/register", url.Values{
		"email":    {"dupe@example.com"},
		"password": {"password123"},
	})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Errorf("duplicate register got %d -> %q, want 302 -> /login", w.Code, w.Header().Get("Location"))
	}
}

func TestDashboardRequiresSession(t *testing.T) {
	router := setupRouter()

	w := get(router, "/dashboard")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Errorf("anonymous dashboard got %d -> %q, want 302 -> /login", w.Code, w.Header().Get("Location"))
	}
}

func TestPredictEmptyURL(t *testing.T) {
	router := setupRouter()
	user := createTestUser(t, "predict@example.com", "password123")

	var before int64
	database.DB.Model(&database.Scan{}).Where("user_id = ?", user.ID).Count(&before)

	w := postForm(router, "/predict", url.Values{"url": {"   "}}, sessionCookie(t, user))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/dashboard" {
		t.Fatalf("empty predict got %d -> %q, want 302 -> /dashboard", w.Code, w.Header().Get("Location"))
	}

	var after int64
	database.DB.Model(&database.Scan{}).Where("user_id = ?", user.ID).Count(&after)
	if after != before {
		t.Errorf("empty input persisted a scan: %d -> %d", before, after)
	}

	// The redirect must carry an error flash for the dashboard to show.
	flashed := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "threatscan_flash" && c.Value != "" {
			flashed = true
		}
	}
	if !flashed {
		t.Error("empty predict did not queue a flash message")
	}
}

func TestScanJSONMissingURL(t *testing.T) {
	router := setupRouter()
	user := createTestUser(t, "api@example.com", "password123")

	req := httptest.NewRequest(http.MethodPost, "/api/scan", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(sessionCookie(t, user))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing url got %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "url field is required") {
		t.Errorf("missing url body = %q", w.Body.String())
	}
}

func TestBatchScanRequiresSession(t *testing.T) {
	router := setupRouter()

	w := get(router, "/api/scan?urls=example.com")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous batch scan got %d, want 401", w.Code)
	}
}

func TestScanJSONPublicMissingURL(t *testing.T) {
	// The single-URL API is public; validation still applies without a
	// session.
	router := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/scan", bytes.NewBufferString(`{"url":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("anonymous blank url got %d, want 400", w.Code)
	}
}

func TestBatchScanMissingParam(t *testing.T) {
	router := setupRouter()
	user := createTestUser(t, "batch@example.com", "password123")

	w := get(router, "/api/scan", sessionCookie(t, user))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing urls got %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "urls parameter is required") {
		t.Errorf("missing urls body = %q", w.Body.String())
	}

	w = get(router, "/api/scan?urls=%2C+%2C", sessionCookie(t, user))
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank urls got %d, want 400", w.Code)
	}
}

func TestReportPDF(t *testing.T) {
	router := setupRouter()
	owner := createTestUser(t, "report@example.com", "password123")
	other := createTestUser(t, "other@example.com", "password123")

	scan := database.Scan{
		UserID:             owner.ID,
		URL:                "http://secure-login.evil.example",
		Domain:             "secure-login.evil.example",
		Result:             "Phishing",
		SuspiciousKeywords: 2,
	}
	if err := database.DB.Create(&scan).Error; err != nil {
		t.Fatal(err)
	}

	w := get(router, "/report/"+itoa(scan.ID)+"/pdf", sessionCookie(t, owner))
	if w.Code != http.StatusOK {
		t.Fatalf("owner report got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("report Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("report body missing PDF magic header")
	}

	// Scans are private to their owner.
	w = get(router, "/report/"+itoa(scan.ID)+"/pdf", sessionCookie(t, other))
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign report got %d, want 404", w.Code)
	}

	w = get(router, "/report/not-a-number/pdf", sessionCookie(t, owner))
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed id got %d, want 400", w.Code)
	}
}

func TestDashboardResultPanel(t *testing.T) {
	router := setupRouter()
	owner := createTestUser(t, "panel@example.com", "password123")
	other := createTestUser(t, "panel-other@example.com", "password123")

	scan := database.Scan{
		UserID:             owner.ID,
		URL:                "http://secure-login.evil.example",
		Domain:             "secure-login.evil.example",
		Result:             "Phishing",
		HTTPS:              0,
		SSLValid:           0,
		DomainAgeDays:      12,
		SuspiciousKeywords: 2,
		SubdomainCount:     1,
	}
	if err := database.DB.Create(&scan).Error; err != nil {
		t.Fatal(err)
	}

	w := get(router, "/dashboard?result="+itoa(scan.ID), sessionCookie(t, owner))
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard with result got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"Latest Analysis",
		"secure-login.evil.example",
		"Valid SSL certificate",
		"Domain age",
		"12 days",
		"Suspicious keywords",
		`class="verdict-phishing"`,
		"/report/" + itoa(scan.ID) + "/pdf",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("result panel missing %q", want)
		}
	}

	// Another user's scan id renders no panel.
	w = get(router, "/dashboard?result="+itoa(scan.ID), sessionCookie(t, other))
	if strings.Contains(w.Body.String(), "Latest Analysis") {
		t.Error("result panel leaked to a different user")
	}

	// No result parameter, no panel.
	w = get(router, "/dashboard", sessionCookie(t, owner))
	if strings.Contains(w.Body.String(), "Latest Analysis") {
		t.Error("result panel rendered without a result parameter")
	}
}

func TestScanJSONAnonymousDoesNotPersist(t *testing.T) {
	router := setupRouter()

	var before int64
	database.DB.Model(&database.Scan{}).Count(&before)

	req := httptest.NewRequest(http.MethodPost, "/api/scan", bytes.NewBufferString(`{"url":"http://localhost:1/"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("anonymous scan got %d", w.Code)
	}

	var resp struct {
		URL    string          `json:"url"`
		Result string          `json:"result"`
		OSINT  json.RawMessage `json:"osint"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if resp.URL == "" || resp.Result == "" || len(resp.OSINT) == 0 {
		t.Errorf("response missing url/result/osint: %s", w.Body.String())
	}

	var after int64
	database.DB.Model(&database.Scan{}).Count(&after)
	if after != before {
		t.Errorf("anonymous scan persisted a row: %d -> %d", before, after)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("a", 499) + "é" // the two-byte rune straddles the cap
	got := truncate(s, 500)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got[len(got)-4:])
	}
	if len(got) != 499 {
		t.Errorf("truncated length = %d, want 499", len(got))
	}
	if truncate("short", 500) != "short" {
		t.Error("truncate altered a string under the cap")
	}
}

func TestParseURLs(t *testing.T) {
	got := parseURLs(" example.com , ,evil.example,")
	if len(got) != 2 || got[0] != "example.com" || got[1] != "evil.example" {
		t.Errorf("parseURLs = %v", got)
	}
}

func TestAuthPageServesDOMContract(t *testing.T) {
	router := setupRouter()

	w := get(router, "/login")
	if w.Code != http.StatusOK {
		t.Fatalf("login page got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`class="auth-body"`, `id="themeToggle"`, `id="themeToggleIcon"`, `id="flashData"`, `login-section`, `register-section`} {
		if !strings.Contains(body, want) {
			t.Errorf("auth page missing %q", want)
		}
	}
}

func TestDashboardServesDOMContract(t *testing.T) {
	router := setupRouter()
	user := createTestUser(t, "dom@example.com", "password123")

	w := get(router, "/dashboard", sessionCookie(t, user))
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`class="app-body"`, `id="scanForm"`, `id="urlInput"`, `id="scanBtn"`,
		`id="urlHint"`, `id="loadingOverlay"`, `id="flashData"`,
		`data-target="scan-section"`, `data-target="history-section"`,
		// Toasts carry a dedicated close control and an exit transition,
		// and tab switches scroll smoothly.
		"toast-close", "toast-leaving", `behavior: "smooth"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
