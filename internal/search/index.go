// Package search indexes archived documents in Elasticsearch for full-text lookup.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/models"
)

// Mapping is the index mapping for document entries.
const Mapping = `{
  "mappings": {
    "properties": {
      "kind":       { "type": "keyword" },
      "category":   { "type": "keyword" },
      "title":      { "type": "text", "fields": { "raw": { "type": "keyword" } } },
      "budget":     { "type": "keyword" },
      "content":    { "type": "text" },
      "created_at": { "type": "date" }
    }
  }
}`

// Entry is the indexed form of a document.
type Entry struct {
	Kind      models.DocumentKind `json:"kind"`
	Category  models.Category     `json:"category"`
	Title     string              `json:"title"`
	Budget    string              `json:"budget"`
	Content   string              `json:"content"`
	CreatedAt time.Time           `json:"created_at"`
}

// Query filters a search. Empty fields do not filter.
type Query struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	Kind     string `json:"kind"`
	From     int    `json:"from"`
	Size     int    `json:"size"`
}

type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Entry
}

type Result struct {
	Total int   `json:"total"`
	Hits  []Hit `json:"hits"`
}

type DocumentIndex struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewDocumentIndex(client *elasticsearch.Client, index string, log logger.Logger) *DocumentIndex {
	return &DocumentIndex{
		client: client,
		index:  index,
		logger: log.With(map[string]interface{}{"component": "document-index", "index": index}),
	}
}

// NewEntry builds the indexed form of doc.
func NewEntry(category models.Category, doc models.Document, createdAt time.Time) Entry {
	return Entry{
		Kind:      doc.Kind(),
		Category:  category,
		Title:     doc.Title(),
		Budget:    doc.Budget(),
		Content:   models.Render(doc),
		CreatedAt: createdAt.UTC(),
	}
}

// Index stores entry under id, replacing any previous version.
func (i *DocumentIndex) Index(ctx context.Context, id string, entry Entry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return apperrors.NewIndexFailedError("index", err)
	}

	res, err := i.client.Index(
		i.index,
		bytes.NewReader(body),
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentID(id),
		i.client.Index.WithRefresh("wait_for"),
	)
	if err != nil {
		return apperrors.NewIndexFailedError("index", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewIndexFailedError("index", fmt.Errorf("elasticsearch: %s", res.Status()))
	}

	i.logger.Debug("document indexed", map[string]interface{}{"documentId": id})
	return nil
}

func buildQuery(q Query) map[string]interface{} {
	must := []interface{}{}
	filter := []interface{}{}

	if strings.TrimSpace(q.Text) != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": []string{"title^3", "content"},
				"type":   "best_fields",
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}
	if q.Category != "" {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"category": q.Category}})
	}
	if q.Kind != "" {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"kind": q.Kind}})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string  `json:"_id"`
			Score  float64 `json:"_score"`
			Source Entry   `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs q against the index.
func (i *DocumentIndex) Search(ctx context.Context, q Query) (*Result, error) {
	if q.Size <= 0 {
		q.Size = 10
	}
	if q.From < 0 {
		q.From = 0
	}
	body, err := json.Marshal(buildQuery(q))
	if err != nil {
		return nil, apperrors.NewIndexFailedError("search", err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.index),
		i.client.Search.WithBody(bytes.NewReader(body)),
		i.client.Search.WithFrom(q.From),
		i.client.Search.WithSize(q.Size),
	)
	if err != nil {
		return nil, apperrors.NewIndexFailedError("search", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewIndexFailedError("search", fmt.Errorf("elasticsearch: %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewIndexFailedError("search", err)
	}

	out := &Result{Total: parsed.Hits.Total.Value, Hits: make([]Hit, 0, len(parsed.Hits.Hits))}
	for _, h := range parsed.Hits.Hits {
		out.Hits = append(out.Hits, Hit{ID: h.ID, Score: h.Score, Entry: h.Source})
	}
	return out, nil
}
