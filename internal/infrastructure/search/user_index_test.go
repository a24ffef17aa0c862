package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/homeservices/user-service/internal/domain/entity"
)

type recorded struct {
	method string
	path   string
	body   map[string]any
}

func fakeES(t *testing.T, reply string) (*UserIndex, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		if len(b) > 0 {
			_ = json.Unmarshal(b, &rec.body)
		}
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	es, err := NewClient([]string{srv.URL}, "", "")
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return NewUserIndex(es, "users"), rec
}

func TestClampSize(t *testing.T) {
	cases := map[int]int{0: 10, -1: 10, 1: 1, 50: 50, 51: 10}
	for in, want := range cases {
		if got := ClampSize(in); got != want {
			t.Fatalf("ClampSize(%d): expected %d, got %d", in, want, got)
		}
	}
}

func TestIndexUserPutsDocumentByID(t *testing.T) {
	idx, rec := fakeES(t, `{"result":"created"}`)

	err := idx.IndexUser(context.Background(), entity.UserView{ID: "u1", Email: "a@b.co", Roles: []string{"customer"}})
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if rec.method != http.MethodPut || rec.path != "/users/_doc/u1" {
		t.Fatalf("unexpected request %s %s", rec.method, rec.path)
	}
	if rec.body["email"] != "a@b.co" {
		t.Fatalf("expected email in document, got %v", rec.body)
	}
	if _, ok := rec.body["password_hash"]; ok {
		t.Fatal("document must not carry a hash")
	}
}

func TestSearchUsersDecodesHits(t *testing.T) {
	idx, rec := fakeES(t, `{"hits":{"hits":[
		{"_id":"u1","_source":{"id":"u1","email":"thabo@example.com","first_name":"Thabo","roles":["customer"]}},
		{"_id":"u2","_source":{"id":"u2","email":"lerato@example.com","first_name":"Lerato","roles":["admin"]}}
	]}}`)

	got, err := idx.SearchUsers(context.Background(), "example", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if rec.path != "/users/_search" {
		t.Fatalf("unexpected path %s", rec.path)
	}
	if size, _ := rec.body["size"].(float64); size != DefaultSearchSize {
		t.Fatalf("expected default size, got %v", rec.body["size"])
	}
	if len(got) != 2 || got[0].Email != "thabo@example.com" || got[1].Roles[0] != "admin" {
		t.Fatalf("unexpected hits %+v", got)
	}
}

func TestSearchUsersFiltersInactive(t *testing.T) {
	idx, rec := fakeES(t, `{"hits":{"hits":[]}}`)

	if _, err := idx.SearchUsers(context.Background(), "thabo", 5); err != nil {
		t.Fatalf("search: %v", err)
	}
	query, _ := rec.body["query"].(map[string]any)
	boolQ, _ := query["bool"].(map[string]any)
	must, _ := boolQ["must"].(map[string]any)
	match, _ := must["multi_match"].(map[string]any)
	if match["query"] != "thabo" {
		t.Fatalf("expected multi_match on the search text, got %v", rec.body["query"])
	}
	filter, _ := boolQ["filter"].(map[string]any)
	term, _ := filter["term"].(map[string]any)
	if active, ok := term["is_active"].(bool); !ok || !active {
		t.Fatalf("expected is_active=true filter, got %v", rec.body["query"])
	}
}

func TestSearchUsersSurfacesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"bad"}`)
	}))
	defer srv.Close()
	es, err := NewClient([]string{srv.URL}, "", "")
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if _, err := NewUserIndex(es, "users").SearchUsers(context.Background(), "x", 5); err == nil {
		t.Fatal("expected an error for a 400 response")
	}
}
