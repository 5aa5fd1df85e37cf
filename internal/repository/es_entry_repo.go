package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"

	"github.com/weiawesome/wes-directory/internal/domain"
)

// esTextFields are keyword fields matched with case-insensitive wildcards.
var esTextFields = []string{
	"name",
	"name_en",
	"nickname",
	"nickname_en",
	"company",
	"position",
	"tagline",
}

// ESEntryRepository implements EntryRepository on an Elasticsearch index
// whose text fields are mapped as keyword.
type ESEntryRepository struct {
	client *elasticsearch.Client
	index  string
}

// NewESEntryRepository creates a new Elasticsearch-based entry repository.
func NewESEntryRepository(client *elasticsearch.Client, index string) *ESEntryRepository {
	return &ESEntryRepository{
		client: client,
		index:  index,
	}
}

// FindByFields returns field or exact category matches ordered by name.
func (r *ESEntryRepository) FindByFields(ctx context.Context, filter EntryFilter, offset, limit int) ([]*domain.Entry, error) {
	if filter.TenantID == "" {
		return nil, ErrTenantRequired
	}
	body := map[string]interface{}{
		"from":  offset,
		"size":  limit,
		"query": fieldsQuery(filter),
		"sort":  esSort(),
	}
	return r.search(ctx, body)
}

// CountByFields counts field or exact category matches.
func (r *ESEntryRepository) CountByFields(ctx context.Context, filter EntryFilter) (int, error) {
	if filter.TenantID == "" {
		return 0, ErrTenantRequired
	}
	data, err := json.Marshal(map[string]interface{}{"query": fieldsQuery(filter)})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := r.client.Count(
		r.client.Count.WithContext(ctx),
		r.client.Count.WithIndex(r.index),
		r.client.Count.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var out struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Count, nil
}

// FindByTagsOnly returns tag matches that FindByFields would not return.
func (r *ESEntryRepository) FindByTagsOnly(ctx context.Context, filter EntryFilter, scanLimit int) ([]*domain.Entry, error) {
	if filter.CategoryCode != "" || filter.Term == "" {
		return nil, nil
	}
	if filter.TenantID == "" {
		return nil, ErrTenantRequired
	}
	body := map[string]interface{}{
		"size":  scanLimit,
		"query": tagsOnlyQuery(filter),
		"sort":  esSort(),
	}
	return r.search(ctx, body)
}

// Upsert indexes an entry under its id.
func (r *ESEntryRepository) Upsert(ctx context.Context, entry *domain.Entry) error {
	if entry.TenantID == "" {
		return ErrTenantRequired
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Status == "" {
		entry.Status = domain.StatusActive
	}

	data, err := json.Marshal(toESDocument(entry))
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	res, err := r.client.Index(
		r.index,
		bytes.NewReader(data),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(entry.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to index entry: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

func (r *ESEntryRepository) search(ctx context.Context, body map[string]interface{}) ([]*domain.Entry, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search entries: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var result esResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	entries := make([]*domain.Entry, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		var doc esDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			continue
		}
		entries = append(entries, doc.toDomain())
	}
	return entries, nil
}

// scopeFilters are the non-scoring clauses applied to every query.
func scopeFilters(filter EntryFilter) []interface{} {
	statuses := filter.Statuses
	if len(statuses) == 0 {
		statuses = domain.SearchableStatuses
	}
	return []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"tenant_id": filter.TenantID}},
		map[string]interface{}{"terms": map[string]interface{}{"status": statuses}},
	}
}

// fieldShoulds are the disjunctive predicates of a free-text match.
func fieldShoulds(filter EntryFilter) []interface{} {
	pattern := "*" + esWildcardEscape(strings.ToLower(filter.Term)) + "*"
	shoulds := make([]interface{}, 0, len(esTextFields)+1)
	for _, f := range esTextFields {
		shoulds = append(shoulds, map[string]interface{}{
			"wildcard": map[string]interface{}{
				f: map[string]interface{}{"value": pattern, "case_insensitive": true},
			},
		})
	}
	if len(filter.CategoryCodes) > 0 {
		shoulds = append(shoulds, map[string]interface{}{
			"terms": map[string]interface{}{"category_code": filter.CategoryCodes},
		})
	}
	return shoulds
}

func fieldsQuery(filter EntryFilter) map[string]interface{} {
	filters := scopeFilters(filter)
	if filter.CategoryCode != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"category_code": filter.CategoryCode},
		})
		return map[string]interface{}{"bool": map[string]interface{}{"filter": filters}}
	}
	filters = append(filters, map[string]interface{}{
		"bool": map[string]interface{}{
			"should":               fieldShoulds(filter),
			"minimum_should_match": 1,
		},
	})
	return map[string]interface{}{"bool": map[string]interface{}{"filter": filters}}
}

func tagsOnlyQuery(filter EntryFilter) map[string]interface{} {
	pattern := "*" + esWildcardEscape(strings.ToLower(filter.Term)) + "*"
	filters := append(scopeFilters(filter), map[string]interface{}{
		"wildcard": map[string]interface{}{
			"tags": map[string]interface{}{"value": pattern, "case_insensitive": true},
		},
	})
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"filter":   filters,
			"must_not": fieldShoulds(filter),
		},
	}
}

func esSort() []interface{} {
	return []interface{}{
		map[string]interface{}{"name": "asc"},
		map[string]interface{}{"id": "asc"},
	}
}

func esWildcardEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`).Replace(s)
}

// IndexMapping is the mapping the wildcard queries above rely on.
const IndexMapping = `{
  "mappings": {
    "properties": {
      "id":            {"type": "keyword"},
      "tenant_id":     {"type": "keyword"},
      "status":        {"type": "keyword"},
      "name":          {"type": "keyword"},
      "name_en":       {"type": "keyword"},
      "nickname":      {"type": "keyword"},
      "nickname_en":   {"type": "keyword"},
      "company":       {"type": "keyword"},
      "position":      {"type": "keyword"},
      "tagline":       {"type": "keyword"},
      "category_code": {"type": "keyword"},
      "tags":          {"type": "keyword"}
    }
  }
}`

// EnsureIndex creates the index with IndexMapping if it does not exist.
func (r *ESEntryRepository) EnsureIndex(ctx context.Context) error {
	res, err := r.client.Indices.Exists([]string{r.index}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = r.client.Indices.Create(
		r.index,
		r.client.Indices.Create.WithContext(ctx),
		r.client.Indices.Create.WithBody(strings.NewReader(IndexMapping)),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

// esDocument is the indexed form of an entry.
type esDocument struct {
	ID            string   `json:"id"`
	TenantID      string   `json:"tenant_id"`
	Name          string   `json:"name"`
	NameEN        string   `json:"name_en,omitempty"`
	Nickname      string   `json:"nickname,omitempty"`
	NicknameEN    string   `json:"nickname_en,omitempty"`
	Position      string   `json:"position,omitempty"`
	Company       string   `json:"company,omitempty"`
	Tagline       string   `json:"tagline,omitempty"`
	CategoryCode  string   `json:"category_code,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	Email         string   `json:"email,omitempty"`
	ChannelUserID string   `json:"channel_user_id,omitempty"`
	PhotoKey      string   `json:"photo_key,omitempty"`
	Status        string   `json:"status"`
}

func toESDocument(e *domain.Entry) esDocument {
	return esDocument{
		ID:            e.ID,
		TenantID:      e.TenantID,
		Name:          e.Name,
		NameEN:        e.NameEN,
		Nickname:      e.Nickname,
		NicknameEN:    e.NicknameEN,
		Position:      e.Position,
		Company:       e.Company,
		Tagline:       e.Tagline,
		CategoryCode:  e.CategoryCode,
		Tags:          e.Tags,
		Phone:         e.Phone,
		Email:         e.Email,
		ChannelUserID: e.ChannelUserID,
		PhotoKey:      e.PhotoKey,
		Status:        e.Status,
	}
}

func (d esDocument) toDomain() *domain.Entry {
	return &domain.Entry{
		ID:            d.ID,
		TenantID:      d.TenantID,
		Name:          d.Name,
		NameEN:        d.NameEN,
		Nickname:      d.Nickname,
		NicknameEN:    d.NicknameEN,
		Position:      d.Position,
		Company:       d.Company,
		Tagline:       d.Tagline,
		CategoryCode:  d.CategoryCode,
		Tags:          d.Tags,
		Phone:         d.Phone,
		Email:         d.Email,
		ChannelUserID: d.ChannelUserID,
		PhotoKey:      d.PhotoKey,
		Status:        d.Status,
	}
}

// esResponse is the generic Elasticsearch search response structure.
type esResponse struct {
	Hits struct {
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
