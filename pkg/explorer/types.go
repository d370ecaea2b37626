package explorer

import (
	"encoding/json"
	"fmt"
)

// ResourceKind identifies what a query lists.
type ResourceKind string

// Resource kinds. The first four are explorer view types.
const (
	KindModules         ResourceKind = "modules"
	KindWorkspaces      ResourceKind = "workspaces"
	KindProviders       ResourceKind = "providers"
	KindTFVersions      ResourceKind = "tf_versions"
	KindRegistryModules ResourceKind = "registry_modules"
)

func (k ResourceKind) String() string { return string(k) }

// ExplorerKinds returns the kinds served by the explorer endpoint.
func ExplorerKinds() []ResourceKind {
	return []ResourceKind{KindModules, KindWorkspaces, KindProviders, KindTFVersions}
}

// Record is one opaque entry of a page's data array.
type Record = json.RawMessage

// Page is the response envelope shared by the explorer and registry endpoints.
type Page struct {
	Data  []Record  `json:"data"  yaml:"data"`
	Links PageLinks `json:"links" yaml:"links"`
	Meta  PageMeta  `json:"meta"  yaml:"meta"`
}

// PageLinks holds the pagination cursor.
type PageLinks struct {
	Next *string `json:"next,omitempty" yaml:"next,omitempty"`
}

// PageMeta wraps pagination metadata.
type PageMeta struct {
	Pagination Pagination `json:"pagination" yaml:"pagination"`
}

// Pagination represents pagination information.
type Pagination struct {
	CurrentPage int  `json:"current-page"          yaml:"current-page"`
	NextPage    *int `json:"next-page"             yaml:"next-page"`
	PrevPage    *int `json:"prev-page,omitempty"   yaml:"prev-page,omitempty"`
	TotalPages  int  `json:"total-pages"           yaml:"total-pages"`
	TotalCount  int  `json:"total-count,omitempty" yaml:"total-count,omitempty"`
}

// NextURL returns the link to follow, or "" when the server reports no next
// page. links.next is ignored whenever next-page is null.
func (p *Page) NextURL() string {
	if p.Meta.Pagination.NextPage == nil || p.Links.Next == nil {
		return ""
	}

	return *p.Links.Next
}

// Resource is the JSON:API shape of an individual record.
type Resource struct {
	ID         string                 `json:"id"         yaml:"id"`
	Type       string                 `json:"type"       yaml:"type"`
	Attributes map[string]interface{} `json:"attributes" yaml:"attributes"`
}

// DecodeResource decodes a record into its JSON:API shape.
func DecodeResource(r Record) (*Resource, error) {
	var res Resource

	err := json.Unmarshal(r, &res)
	if err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}

	return &res, nil
}

// DecodeRecords decodes every record into T, preserving order.
func DecodeRecords[T any](records []Record) ([]T, error) {
	out := make([]T, 0, len(records))

	for i, r := range records {
		var v T

		err := json.Unmarshal(r, &v)
		if err != nil {
			return nil, fmt.Errorf("decoding record %d: %w", i, err)
		}

		out = append(out, v)
	}

	return out, nil
}
