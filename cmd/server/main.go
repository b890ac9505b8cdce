package main

import (
	"context"
	"fmt"
	"html"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/harveywai/threatscan/pkg/auth"
	"github.com/harveywai/threatscan/pkg/config"
	"github.com/harveywai/threatscan/pkg/database"
	"github.com/harveywai/threatscan/pkg/features"
	"github.com/harveywai/threatscan/pkg/flash"
	"github.com/harveywai/threatscan/pkg/intel"
	"github.com/harveywai/threatscan/pkg/middleware"
	"github.com/harveywai/threatscan/pkg/model"
	"github.com/harveywai/threatscan/pkg/notify"
	"github.com/harveywai/threatscan/pkg/osint"
	"github.com/harveywai/threatscan/pkg/report"
)

const (
	// workerPoolSize defines the number of concurrent workers for batch scans
	workerPoolSize = 5
	// maxURLLength caps what gets persisted to the scan history
	maxURLLength = 500
	// historyLimit is the number of recent scans shown on the dashboard
	historyLimit = 10
)

var (
	classifier *model.Classifier
	collector  *osint.Collector
	intelFeed  *intel.Feed
	alerts     *notify.Notifier
)

// ScanRecord is the persisted scan plus blocklist provenance for API clients.
type ScanRecord struct {
	database.Scan
	Blocklisted bool `json:"blocklisted"`
}

// BatchScanResponse represents the batch API response structure
type BatchScanResponse struct {
	Results []ScanRecord `json:"results"`
	Summary SummaryInfo  `json:"summary"`
}

// SummaryInfo contains summary statistics
type SummaryInfo struct {
	TotalScanned int `json:"total_scanned"`
	Phishing     int `json:"phishing"`
}

func main() {
	cfg, err := config.Load(os.Getenv("THREATSCAN_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if err := initDeps(cfg); err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}

	r := setupRouter()
	log.Printf("threatscan listening on %s", cfg.ListenAddr)
	r.Run(cfg.ListenAddr)
}

// initDeps wires the shared services from configuration.
func initDeps(cfg *config.Config) error {
	if err := database.Init(cfg.DatabasePath); err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	auth.SetSecret(cfg.JWTSecret)

	classifier = model.Load(cfg.ModelsDir)
	if classifier.UsingForest() {
		log.Printf("classifier: trained forest loaded from %s", cfg.ModelsDir)
	} else {
		log.Printf("classifier: no artifacts under %s, using heuristic rules", cfg.ModelsDir)
	}

	collector = osint.NewCollector(cfg.HTTPTimeout)
	alerts = notify.New(cfg.WebhookURL, cfg.TelegramToken, cfg.TelegramChatID)

	intelFeed = intel.NewFeed(cfg.IntelRepoURL, cfg.IntelCacheDir, cfg.GitHubToken)
	if cfg.IntelRepoURL != "" {
		go refreshIntelFeed()
	}
	return nil
}

// refreshIntelFeed syncs the blocklist mirror in the background so startup
// is never blocked on a remote clone.
func refreshIntelFeed() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := intelFeed.Refresh(ctx); err != nil {
		log.Printf("intel feed refresh failed: %v", err)
		return
	}
	if pushed, err := intelFeed.UpstreamPushedAt(ctx); err != nil {
		log.Printf("intel feed freshness check failed: %v", err)
	} else if !pushed.IsZero() {
		log.Printf("intel feed upstream last pushed %s", pushed.Format(time.RFC3339))
	}
}

func setupRouter() *gin.Engine {
	r := gin.Default()

	// Public pages and authentication actions.
	r.GET("/", handleHome)
	r.GET("/login", handleAuthPage)
	r.GET("/register", handleAuthPage)
	r.POST("/login", handleLogin)
	r.POST("/register", handleRegister)
	r.GET("/logout", handleLogout)

	// Session-protected pages.
	app := r.Group("/")
	app.Use(middleware.RequireAuth())
	{
		app.GET("/dashboard", handleDashboard)
		app.POST("/predict", handlePredict)
		app.GET("/report/:id/pdf", handleReportPDF)
	}

	// JSON API. Single-URL scans are public like the original API; batch
	// scans stay behind a session.
	r.POST("/api/scan", middleware.OptionalAuth(), handleScanJSON)

	api := r.Group("/api")
	api.Use(middleware.RequireAuthJSON())
	{
		api.GET("/scan", handleBatchScan)
	}

	return r
}

// ---- scan pipeline ----

// analyzeURL runs collection and classification for one URL without
// persisting anything.
func analyzeURL(rawURL string) (osint.Details, string, bool) {
	details := collector.Collect(rawURL)
	vector := features.Extract(rawURL, details)
	verdict := classifier.Classify(vector, details)

	blocklisted := intelFeed.Lookup(details.Domain)
	if blocklisted {
		verdict = model.VerdictPhishing
	}
	return details, verdict, blocklisted
}

// scanFromDetails builds the scan row for a completed analysis.
func scanFromDetails(userID uint, rawURL, verdict string, d osint.Details) database.Scan {
	return database.Scan{
		UserID:             userID,
		URL:                truncate(osint.NormalizeURL(rawURL), maxURLLength),
		Result:             verdict,
		Domain:             d.Domain,
		HTTPS:              d.HTTPS,
		SSLValid:           d.SSLValid,
		DomainAgeDays:      d.DomainAgeDays,
		Redirects:          d.Redirects,
		SuspiciousKeywords: d.SuspiciousKeywords,
		SubdomainCount:     d.SubdomainCount,
	}
}

// persistScan stores the scan and fires alerting for phishing verdicts.
func persistScan(scan database.Scan, userEmail string) database.Scan {
	if err := database.DB.Create(&scan).Error; err != nil {
		log.Printf("failed to persist scan of %s: %v", scan.URL, err)
	}

	if scan.Result == model.VerdictPhishing && alerts.Enabled() {
		go func(s database.Scan) {
			if err := alerts.PhishingDetected(s, userEmail); err != nil {
				log.Printf("alert delivery failed for %s: %v", s.URL, err)
			}
		}(scan)
	}
	return scan
}

// runScan executes the full pipeline for one URL: OSINT collection, feature
// extraction, classification, blocklist override, persistence, alerting.
func runScan(userID uint, userEmail, rawURL string) ScanRecord {
	details, verdict, blocklisted := analyzeURL(rawURL)
	scan := persistScan(scanFromDetails(userID, rawURL, verdict, details), userEmail)
	return ScanRecord{Scan: scan, Blocklisted: blocklisted}
}

// truncate cuts s at limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// scanURLs performs concurrent scanning using worker pool pattern
func scanURLs(userID uint, userEmail string, urls []string) []ScanRecord {
	jobs := make(chan string, len(urls))
	results := make(chan ScanRecord, len(urls))

	var wg sync.WaitGroup
	for i := 0; i < workerPoolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for raw := range jobs {
				results <- runScan(userID, userEmail, raw)
			}
		}()
	}

	for _, raw := range urls {
		jobs <- raw
	}
	close(jobs)

	wg.Wait()
	close(results)

	var records []ScanRecord
	for rec := range results {
		records = append(records, rec)
	}
	return records
}

// parseURLs splits a comma-separated URL list and trims whitespace
func parseURLs(param string) []string {
	parts := strings.Split(param, ",")
	var urls []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls
}

// printScanResult prints one scan verdict with colored status
func printScanResult(rec ScanRecord) {
	verdict := color.GreenString(rec.Result)
	if rec.Result == model.VerdictPhishing {
		verdict = color.RedString(rec.Result)
	}
	fmt.Printf("URL: %s | Verdict: %s | Keywords: %d | Age: %d days | Redirects: %d\n",
		rec.URL,
		verdict,
		rec.SuspiciousKeywords,
		rec.DomainAgeDays,
		rec.Redirects,
	)
}

// printScanSummary prints batch statistics with colored output
func printScanSummary(totalScanned, phishing int) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Cyan("Scan Summary:")
	fmt.Printf("Total Scanned: %d\n", totalScanned)
	if phishing > 0 {
		color.Yellow("Phishing Detected: %d\n", phishing)
	} else {
		color.Green("Phishing Detected: %d\n", phishing)
	}
	fmt.Println(strings.Repeat("=", 60))
}

// ---- page handlers ----

func handleHome(c *gin.Context) {
	if middleware.IsAuthenticated(c) {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

func handleAuthPage(c *gin.Context) {
	if middleware.IsAuthenticated(c) {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}

	payload := flash.PayloadJSON(flash.Take(c))
	page := strings.NewReplacer(
		"__STYLES__", pageStyles,
		"__SCRIPT__", pageScript,
		"__FLASH_PAYLOAD__", payload,
	).Replace(authPage)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

func handleDashboard(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	email, _ := middleware.CurrentEmail(c)

	stats, err := database.StatsForUser(database.DB, userID)
	if err != nil {
		log.Printf("failed to load stats for user %d: %v", userID, err)
	}
	scans, err := database.RecentScans(database.DB, userID, historyLimit)
	if err != nil {
		log.Printf("failed to load scan history for user %d: %v", userID, err)
	}

	payload := flash.PayloadJSON(flash.Take(c))
	page := strings.NewReplacer(
		"__STYLES__", pageStyles,
		"__SCRIPT__", pageScript,
		"__FLASH_PAYLOAD__", payload,
		"__USER_EMAIL__", html.EscapeString(email),
		"__STATS__", renderStats(stats),
		"__RESULT_PANEL__", renderResultPanel(c, userID),
		"__SCAN_ROWS__", renderScanRows(scans),
	).Replace(dashboardPage)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// renderResultPanel shows the verdict and collected intelligence of the scan
// named by the result query parameter. Empty when the parameter is absent or
// the scan is not the user's own.
func renderResultPanel(c *gin.Context, userID uint) string {
	id, err := strconv.ParseUint(c.Query("result"), 10, 64)
	if err != nil {
		return ""
	}
	var scan database.Scan
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&scan).Error; err != nil {
		return ""
	}

	verdictClass := "verdict-legitimate"
	if scan.Result == model.VerdictPhishing {
		verdictClass = "verdict-phishing"
	}
	blocklistNote := ""
	if intelFeed.Lookup(scan.Domain) {
		blocklistNote = `<p class="blocklist-note">This domain is on the threat intelligence blocklist.</p>`
	}

	rows := []struct {
		label string
		value string
	}{
		{"Domain", scan.Domain},
		{"HTTPS", yesNo(scan.HTTPS)},
		{"Valid SSL certificate", yesNo(scan.SSLValid)},
		{"Domain age", fmt.Sprintf("%d days", scan.DomainAgeDays)},
		{"Redirects followed", fmt.Sprintf("%d", scan.Redirects)},
		{"Suspicious keywords", fmt.Sprintf("%d", scan.SuspiciousKeywords)},
		{"Subdomain labels", fmt.Sprintf("%d", scan.SubdomainCount)},
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="card" id="resultPanel"><h2>Latest Analysis</h2>`)
	fmt.Fprintf(&b, `<p>%s <span class="%s">%s</span></p>%s<table><tbody>`,
		html.EscapeString(scan.URL), verdictClass, html.EscapeString(scan.Result), blocklistNote)
	for _, row := range rows {
		fmt.Fprintf(&b, `<tr><td>%s</td><td>%s</td></tr>`,
			html.EscapeString(row.label), html.EscapeString(row.value))
	}
	b.WriteString(`</tbody></table><a class="report-link" href="/report/` +
		strconv.FormatUint(uint64(scan.ID), 10) + `/pdf">Download PDF report</a></div>`)
	return b.String()
}

func yesNo(flag int) string {
	if flag == 1 {
		return "Yes"
	}
	return "No"
}

func renderStats(stats database.UserStats) string {
	lastScan := stats.LastScan
	if lastScan == "" {
		lastScan = "never"
	}
	cards := []struct {
		value string
		label string
	}{
		{strconv.Itoa(stats.Total), "Total scans"},
		{strconv.Itoa(stats.Phish), "Phishing"},
		{strconv.Itoa(stats.Legit), "Legitimate"},
		{fmt.Sprintf("%d%%", stats.PhishRate), "Phishing rate"},
		{lastScan, "Last scan"},
	}

	var b strings.Builder
	for _, card := range cards {
		fmt.Fprintf(&b,
			`<div class="stat"><div class="value">%s</div><div class="label">%s</div></div>`,
			html.EscapeString(card.value), html.EscapeString(card.label))
	}
	return b.String()
}

func renderScanRows(scans []database.Scan) string {
	if len(scans) == 0 {
		return `<tr><td colspan="6">No scans yet. Run your first deep analysis above.</td></tr>`
	}

	var b strings.Builder
	for _, scan := range scans {
		verdictClass := "verdict-legitimate"
		if scan.Result == model.VerdictPhishing {
			verdictClass = "verdict-phishing"
		}
		fmt.Fprintf(&b,
			`<tr><td>%s</td><td class="%s">%s</td><td>%d</td><td>%d</td><td>%s</td>`+
				`<td><a class="report-link" href="/report/%d/pdf">PDF</a></td></tr>`,
			html.EscapeString(scan.URL),
			verdictClass,
			html.EscapeString(scan.Result),
			scan.SuspiciousKeywords,
			scan.DomainAgeDays,
			scan.CreatedAt.Format("2006-01-02 15:04"),
			scan.ID,
		)
	}
	return b.String()
}

// ---- authentication handlers ----

func handleLogin(c *gin.Context) {
	email := strings.TrimSpace(strings.ToLower(c.PostForm("email")))
	password := c.PostForm("password")

	if email == "" || password == "" {
		flash.Add(c, flash.Error, "Email and password are required.")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	var user database.User
	if err := database.DB.Where("email = ?", email).First(&user).Error; err != nil {
		flash.Add(c, flash.Error, "Invalid email or password.")
		c.Redirect(http.StatusFound, "/login")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		flash.Add(c, flash.Error, "Invalid email or password.")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		log.Printf("failed to generate session token for %s: %v", email, err)
		flash.Add(c, flash.Error, "Could not start a session. Try again.")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	c.SetCookie(middleware.SessionCookie, token, int(auth.SessionDuration.Seconds()), "/", "", false, true)
	flash.Add(c, flash.Success, "Welcome back.")
	c.Redirect(http.StatusFound, "/dashboard")
}

func handleRegister(c *gin.Context) {
	email := strings.TrimSpace(strings.ToLower(c.PostForm("email")))
	password := c.PostForm("password")

	if email == "" || !strings.Contains(email, "@") {
		flash.Add(c, flash.Error, "A valid email address is required.")
		c.Redirect(http.StatusFound, "/register")
		return
	}
	if len(password) < 8 {
		flash.Add(c, flash.Error, "Password must be at least 8 characters.")
		c.Redirect(http.StatusFound, "/register")
		return
	}

	var existing database.User
	if err := database.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		flash.Add(c, flash.Error, "User already exists.")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Printf("failed to hash password for %s: %v", email, err)
		flash.Add(c, flash.Error, "Registration failed. Try again.")
		c.Redirect(http.StatusFound, "/register")
		return
	}

	user := database.User{Email: email, PasswordHash: hash}
	if err := database.DB.Create(&user).Error; err != nil {
		log.Printf("failed to create user %s: %v", email, err)
		flash.Add(c, flash.Error, "Registration failed. Try again.")
		c.Redirect(http.StatusFound, "/register")
		return
	}

	flash.Add(c, flash.Success, "Registration successful. Please login.")
	c.Redirect(http.StatusFound, "/login")
}

func handleLogout(c *gin.Context) {
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	flash.Add(c, flash.Info, "You have been signed out.")
	c.Redirect(http.StatusFound, "/login")
}

// ---- scan handlers ----

func handlePredict(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	email, _ := middleware.CurrentEmail(c)

	raw := strings.TrimSpace(c.PostForm("url"))
	if raw == "" {
		flash.Add(c, flash.Error, "Please enter a URL before scanning.")
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	if len(raw) > maxURLLength {
		flash.Add(c, flash.Error, "That URL is too long to scan.")
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}

	rec := runScan(userID, email, raw)
	printScanResult(rec)

	switch {
	case rec.Blocklisted:
		flash.Add(c, flash.Error, rec.Domain+" is on the threat intelligence blocklist.")
	case rec.Result == model.VerdictPhishing:
		flash.Add(c, flash.Warning, rec.URL+" was classified as Phishing.")
	default:
		flash.Add(c, flash.Success, rec.URL+" was classified as Legitimate.")
	}

	// The dashboard renders the verdict and OSINT panel for this scan.
	target := "/dashboard"
	if rec.ID != 0 {
		target = "/dashboard?result=" + strconv.FormatUint(uint64(rec.ID), 10)
	}
	c.Redirect(http.StatusFound, target)
}

// ScanResponse is the single-URL API response shape.
type ScanResponse struct {
	URL         string        `json:"url"`
	Result      string        `json:"result"`
	OSINT       osint.Details `json:"osint"`
	Blocklisted bool          `json:"blocklisted"`
}

func handleScanJSON(c *gin.Context) {
	var req struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "url field is required",
		})
		return
	}
	raw := strings.TrimSpace(req.URL)

	details, verdict, blocklisted := analyzeURL(raw)
	scan := scanFromDetails(0, raw, verdict, details)

	// Anonymous calls classify without leaving a history entry; a session
	// records the scan like the form flow does.
	if userID, ok := middleware.CurrentUserID(c); ok {
		email, _ := middleware.CurrentEmail(c)
		scan.UserID = userID
		scan = persistScan(scan, email)
	}

	printScanResult(ScanRecord{Scan: scan, Blocklisted: blocklisted})
	c.JSON(http.StatusOK, ScanResponse{
		URL:         scan.URL,
		Result:      verdict,
		OSINT:       details,
		Blocklisted: blocklisted,
	})
}

func handleBatchScan(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	email, _ := middleware.CurrentEmail(c)

	urlsParam := c.Query("urls")
	if urlsParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "urls parameter is required",
		})
		return
	}
	urls := parseURLs(urlsParam)
	if len(urls) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "at least one valid url is required",
		})
		return
	}

	records := scanURLs(userID, email, urls)

	phishing := 0
	for _, rec := range records {
		printScanResult(rec)
		if rec.Result == model.VerdictPhishing {
			phishing++
		}
	}
	printScanSummary(len(records), phishing)

	c.JSON(http.StatusOK, BatchScanResponse{
		Results: records,
		Summary: SummaryInfo{
			TotalScanned: len(records),
			Phishing:     phishing,
		},
	})
}

func handleReportPDF(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	email, _ := middleware.CurrentEmail(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid report id")
		return
	}

	var scan database.Scan
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&scan).Error; err != nil {
		c.String(http.StatusNotFound, "scan not found")
		return
	}

	data, err := report.Generate(scan, email)
	if err != nil {
		log.Printf("failed to render report for scan %d: %v", scan.ID, err)
		c.String(http.StatusInternalServerError, "failed to render report")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=threatscan-report-%d.pdf", scan.ID))
	c.Data(http.StatusOK, "application/pdf", data)
}
