package pubmed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docuchat/medreview/internal/domain"
)

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/esearch.fcgi" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("db") != "pubmed" {
			t.Errorf("expected db=pubmed, got %q", q.Get("db"))
		}
		if q.Get("term") != "semaglutide" {
			t.Errorf("unexpected term: %q", q.Get("term"))
		}
		if q.Get("retmax") != "30" {
			t.Errorf("unexpected retmax: %q", q.Get("retmax"))
		}
		if q.Get("mindate") != "2020/01/01" || q.Get("maxdate") != "2025/12/31" {
			t.Errorf("unexpected date range: %q..%q", q.Get("mindate"), q.Get("maxdate"))
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"esearchresult": map[string]any{
				"count":  "1234",
				"idlist": []string{"111", "222"},
			},
		})
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL})
	ids, total, err := c.Search(context.Background(), "semaglutide", 30,
		DateRange{Min: "2020/01/01", Max: "2025/12/31"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 1234 {
		t.Errorf("expected total=1234, got %d", total)
	}
	if len(ids) != 2 || ids[0] != "111" || ids[1] != "222" {
		t.Errorf("unexpected ids: %v", ids)
	}
}

func TestClient_Search_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL})
	_, _, err := c.Search(context.Background(), "anything", 10, DateRange{})
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if !errors.Is(err, domain.ErrRemoteService) {
		t.Errorf("expected ErrRemoteService, got %v", err)
	}
}

func TestClient_Fetch(t *testing.T) {
	const xmlBody = `<?xml version="1.0"?><PubmedArticleSet></PubmedArticleSet>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/efetch.fcgi" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("id") != "111,222" {
			t.Errorf("unexpected id param: %q", q.Get("id"))
		}
		if q.Get("retmode") != "xml" {
			t.Errorf("unexpected retmode: %q", q.Get("retmode"))
		}
		_, _ = w.Write([]byte(xmlBody))
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL})
	raw, err := c.Fetch(context.Background(), []string{"111", "222"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(raw) != xmlBody {
		t.Errorf("unexpected body: %q", raw)
	}
}

func TestClient_Fetch_EmptyIDs(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://unused"})

	_, err := c.Fetch(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for empty id list")
	}
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestClient_Fetch_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // closed before the call: connection refused

	c := NewClient(Config{BaseURL: server.URL})
	_, err := c.Fetch(context.Background(), []string{"1"})
	if err == nil {
		t.Fatal("expected error for refused connection")
	}
	if !errors.Is(err, domain.ErrRemoteService) {
		t.Errorf("expected ErrRemoteService, got %v", err)
	}
}
