// internal/fetch/fetcher_test.go
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bkaplan/brickwatch/internal/config"
)

func testFetcher(cfg config.FetchConfig) *Fetcher {
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 1000
	}
	return New(cfg, nil)
}

func TestFetchCategorySinglePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "" {
			// Pages beyond the first are empty; pagination stops.
			return
		}
		fmt.Fprint(w, "<div class='product-item'>one</div>")
	}))
	defer server.Close()

	f := testFetcher(config.FetchConfig{MaxPages: 5})

	content, err := f.FetchCategory(context.Background(), "Icons", server.URL)
	if err != nil {
		t.Fatalf("FetchCategory failed: %v", err)
	}
	if content.PagesScraped != 1 {
		t.Errorf("expected 1 page, got %d", content.PagesScraped)
	}
	if !strings.Contains(content.HTMLContent, "product-item") {
		t.Errorf("unexpected content: %q", content.HTMLContent)
	}
	if content.CategoryName != "Icons" {
		t.Errorf("unexpected category: %q", content.CategoryName)
	}
}

func TestFetchCategoryPaginates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		switch page {
		case "", "1":
			fmt.Fprint(w, "page one")
		case "2":
			fmt.Fprint(w, "page two")
		default:
			// Same content as page 2; repeat ends the walk.
			fmt.Fprint(w, "page two")
		}
	}))
	defer server.Close()

	f := testFetcher(config.FetchConfig{MaxPages: 10})

	content, err := f.FetchCategory(context.Background(), "Icons", server.URL)
	if err != nil {
		t.Fatalf("FetchCategory failed: %v", err)
	}
	if content.PagesScraped != 2 {
		t.Errorf("expected 2 pages, got %d", content.PagesScraped)
	}
	if !strings.Contains(content.HTMLContent, "page one") || !strings.Contains(content.HTMLContent, "page two") {
		t.Errorf("pages not joined: %q", content.HTMLContent)
	}
}

func TestFetchCategoryFirstPageFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := testFetcher(config.FetchConfig{MaxPages: 3})

	if _, err := f.FetchCategory(context.Background(), "Icons", server.URL); err == nil {
		t.Error("expected error when the first page fails")
	}
}

func TestFetchCategoryLaterPageFailureStopsQuietly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "page one")
	}))
	defer server.Close()

	f := testFetcher(config.FetchConfig{MaxPages: 5})

	content, err := f.FetchCategory(context.Background(), "Icons", server.URL)
	if err != nil {
		t.Fatalf("later page failure should not error: %v", err)
	}
	if content.PagesScraped != 1 {
		t.Errorf("expected 1 page, got %d", content.PagesScraped)
	}
}

func TestFetchCategorySendsUserAgent(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	f := testFetcher(config.FetchConfig{
		MaxPages:   1,
		UserAgents: []string{"test-agent/1.0"},
		Headers:    map[string]string{"Accept-Language": "tr-TR"},
	})

	if _, err := f.FetchCategory(context.Background(), "Icons", server.URL); err != nil {
		t.Fatalf("FetchCategory failed: %v", err)
	}
	if got != "test-agent/1.0" {
		t.Errorf("unexpected user agent: %q", got)
	}
}

func TestBuildPageURL(t *testing.T) {
	f := testFetcher(config.FetchConfig{PageParameter: "sayfa"})

	first, err := f.buildPageURL("https://example.com/icons?sort=new", 1)
	if err != nil {
		t.Fatalf("buildPageURL failed: %v", err)
	}
	if first != "https://example.com/icons?sort=new" {
		t.Errorf("page 1 must be unchanged, got %q", first)
	}

	second, err := f.buildPageURL("https://example.com/icons?sort=new", 2)
	if err != nil {
		t.Fatalf("buildPageURL failed: %v", err)
	}
	if !strings.Contains(second, "sayfa=2") || !strings.Contains(second, "sort=new") {
		t.Errorf("unexpected page URL: %q", second)
	}
}
