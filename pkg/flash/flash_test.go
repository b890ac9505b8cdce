package flash

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestAddTakeRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	r.GET("/set", func(c *gin.Context) {
		Add(c, Error, "Invalid credentials")
		Add(c, Success, "Welcome")
		c.Status(http.StatusOK)
	})
	var got []Entry
	r.GET("/get", func(c *gin.Context) {
		got = Take(c)
		c.Status(http.StatusOK)
	})

	// First request queues the entries into a cookie.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/set", nil))
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no flash cookie set")
	}

	// Second request consumes them in order.
	req := httptest.NewRequest("GET", "/get", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)

	want := []Entry{
		{Category: Error, Message: "Invalid credentials"},
		{Category: Success, Message: "Welcome"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Take = %v, want %v", got, want)
	}

	// Take clears the cookie so the entries are consumed exactly once.
	var cleared bool
	for _, ck := range w2.Result().Cookies() {
		if ck.Name == "threatscan_flash" && ck.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("flash cookie was not cleared after Take")
	}
}

func TestTakeWithoutCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var got []Entry
	r.GET("/get", func(c *gin.Context) {
		got = Take(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/get", nil))
	if got != nil {
		t.Fatalf("Take = %v, want nil", got)
	}
}

func TestTakeUnparsableCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var got []Entry
	r.GET("/get", func(c *gin.Context) {
		got = Take(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/get", nil)
	req.AddCookie(&http.Cookie{Name: "threatscan_flash", Value: "%%%not-base64%%%"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got != nil {
		t.Fatalf("Take = %v, want nil for unparsable cookie", got)
	}
}

func TestPayloadJSON(t *testing.T) {
	entries := []Entry{
		{Category: Error, Message: "Invalid credentials"},
		{Category: Success, Message: "Welcome"},
	}
	got := PayloadJSON(entries)
	want := `[["error","Invalid credentials"],["success","Welcome"]]`
	if got != want {
		t.Errorf("PayloadJSON = %s, want %s", got, want)
	}

	if PayloadJSON(nil) != "[]" {
		t.Errorf("PayloadJSON(nil) = %s, want []", PayloadJSON(nil))
	}
}
