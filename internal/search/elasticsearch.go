package search

import (
	"bytes"
	"context"
	"encoding/json"

	"example.com/govevents/config"
	"example.com/govevents/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// EventIndexer provides full-text event search via Elasticsearch. Indexing
// is best-effort: the relational store stays the source of truth.
type EventIndexer struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewEventIndexer creates a new Elasticsearch-backed event indexer.
func NewEventIndexer(cfg config.ElasticConfig) (*EventIndexer, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &EventIndexer{
		client: client,
		config: cfg,
	}, nil
}

// IndexEvent indexes an event document, overwriting any previous version.
func (c *EventIndexer) IndexEvent(ctx context.Context, event *models.Event, structureName string) error {
	eventDoc := map[string]interface{}{
		"id":                 event.ID.String(),
		"name":               event.Name,
		"description":        event.Description,
		"address":            event.Address,
		"datetime":           event.Datetime,
		"gov_structure_id":   event.GovStructureID.String(),
		"gov_structure_name": structureName,
		"is_active":          event.IsActive,
	}

	docJSON, err := json.Marshal(eventDoc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event document")
	}

	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: event.ID.String(),
		Body:       bytes.NewReader(docJSON),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return errors.Errorf("Elasticsearch index error: %v", e)
	}

	log.Debug().Str("event_id", event.ID.String()).Msg("Event indexed")
	return nil
}

// SearchEvents runs a match query against event names and descriptions.
func (c *EventIndexer) SearchEvents(ctx context.Context, text string) ([]map[string]interface{}, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"name", "description", "address", "gov_structure_name"},
			},
		},
	}

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	indexName := config.FormatIndex(c.config, c.config.Index)
	res, err := c.client.Search(
		c.client.Search.WithContext(ctx),
		c.client.Search.WithIndex(indexName),
		c.client.Search.WithBody(bytes.NewReader(queryJSON)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search")
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.Errorf("Elasticsearch search error: %s", res.String())
	}

	var response struct {
		Hits struct {
			Hits []struct {
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}

	results := make([]map[string]interface{}, 0, len(response.Hits.Hits))
	for _, hit := range response.Hits.Hits {
		results = append(results, hit.Source)
	}
	return results, nil
}

// DeleteEvent removes an event document from the index.
func (c *EventIndexer) DeleteEvent(ctx context.Context, eventID string) error {
	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.DeleteRequest{
		Index:      indexName,
		DocumentID: eventID,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch delete request")
	}
	defer res.Body.Close()

	// 404 means the document was never indexed; nothing to clean up.
	if res.IsError() && res.StatusCode != 404 {
		return errors.Errorf("Elasticsearch delete error: %s", res.String())
	}
	return nil
}
