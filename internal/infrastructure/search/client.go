package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// usersMapping keeps email exact-matchable while still searchable as text.
const usersMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "email":       {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "first_name":  {"type": "text"},
      "last_name":   {"type": "text"},
      "phone":       {"type": "keyword"},
      "avatar_url":  {"type": "keyword", "index": false},
      "roles":       {"type": "keyword"},
      "is_verified": {"type": "boolean"},
      "is_active":   {"type": "boolean"},
      "last_login":  {"type": "date"},
      "created_at":  {"type": "date"},
      "updated_at":  {"type": "date"}
    }
  }
}`

// NewClient builds an Elasticsearch client for addrs. Basic auth is used when user is set.
func NewClient(addrs []string, user, pass string) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{Addresses: addrs}
	if user != "" {
		cfg.Username = user
		cfg.Password = pass
	}
	return elasticsearch.NewClient(cfg)
}

// EnsureIndex creates index with the users mapping when it does not exist yet.
func EnsureIndex(ctx context.Context, es *elasticsearch.Client, index string) error {
	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := es.Indices.Exists([]string{index}, es.Indices.Exists.WithContext(c))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	_ = res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = es.Indices.Create(index,
		es.Indices.Create.WithContext(c),
		es.Indices.Create.WithBody(strings.NewReader(usersMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer func() { _ = res.Body.Close() }()
	// a concurrent replica may have created it first
	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return fmt.Errorf("create index %s: %s", index, res.Status())
	}
	return nil
}
