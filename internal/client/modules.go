package client

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/fivetwenty-io/minthcm-client/pkg/minthcm"
)

var _ minthcm.ModuleClient = (*ModuleClient)(nil)

// ModuleClient implements minthcm.ModuleClient on top of a session. It holds
// no network state of its own.
type ModuleClient struct {
	name    string
	session minthcm.Session
}

// NewModuleClient creates an accessor for the named module.
func NewModuleClient(name string, session minthcm.Session) *ModuleClient {
	return &ModuleClient{
		name:    name,
		session: session,
	}
}

// Name implements minthcm.ModuleClient.Name.
func (m *ModuleClient) Name() string {
	return m.name
}

func (m *ModuleClient) validate() error {
	if m.name == "" {
		return minthcm.NewRequestError("module name is required", 0, "", minthcm.ErrModuleNameRequired)
	}

	return nil
}

// Create implements minthcm.ModuleClient.Create.
func (m *ModuleClient) Create(ctx context.Context, attributes minthcm.Attributes) (minthcm.Document, error) {
	err := m.validate()
	if err != nil {
		return nil, err
	}

	return m.session.Post(ctx, "/module", map[string]any{
		"type":       m.name,
		"attributes": attributes,
	})
}

// Update implements minthcm.ModuleClient.Update.
func (m *ModuleClient) Update(ctx context.Context, recordID string, attributes minthcm.Attributes) (minthcm.Document, error) {
	err := m.validate()
	if err != nil {
		return nil, err
	}

	return m.session.Patch(ctx, "/module", map[string]any{
		"type":       m.name,
		"id":         recordID,
		"attributes": attributes,
	})
}

// Delete implements minthcm.ModuleClient.Delete.
func (m *ModuleClient) Delete(ctx context.Context, recordID string) (minthcm.Document, error) {
	err := m.validate()
	if err != nil {
		return nil, err
	}

	return m.session.Delete(ctx, fmt.Sprintf("/module/%s/%s", m.name, recordID))
}

// Fields implements minthcm.ModuleClient.Fields.
func (m *ModuleClient) Fields(ctx context.Context) (minthcm.Document, error) {
	err := m.validate()
	if err != nil {
		return nil, err
	}

	return m.session.Get(ctx, "/meta/fields/"+m.name)
}

// Query implements minthcm.ModuleClient.Query. A nil params queries all
// records with the default "and" combinator.
func (m *ModuleClient) Query(ctx context.Context, params *minthcm.QueryParams) (minthcm.Document, error) {
	err := m.validate()
	if err != nil {
		return nil, err
	}

	query, err := params.Encode(m.name)
	if err != nil {
		return nil, err
	}

	return m.session.Get(ctx, "/module/"+m.name+query)
}

// GetAllRecords implements minthcm.ModuleClient.GetAllRecords.
func (m *ModuleClient) GetAllRecords(ctx context.Context) (minthcm.Document, error) {
	err := m.validate()
	if err != nil {
		return nil, err
	}

	return m.session.Get(ctx, "/module/"+m.name)
}

// GetRelationship implements minthcm.ModuleClient.GetRelationship.
func (m *ModuleClient) GetRelationship(ctx context.Context, recordID, relatedModule string) (minthcm.Document, error) {
	err := m.validate()
	if err != nil {
		return nil, err
	}

	return m.session.Get(ctx, m.relationshipPath(recordID, relatedModule))
}

// CreateRelationship implements minthcm.ModuleClient.CreateRelationship.
func (m *ModuleClient) CreateRelationship(ctx context.Context, recordID, relatedModule, relatedID string) (minthcm.Document, error) {
	err := m.validate()
	if err != nil {
		return nil, err
	}

	return m.session.Post(ctx, m.relationshipPath(recordID, relatedModule), map[string]any{
		"type": capitalize(relatedModule),
		"id":   relatedID,
	})
}

// DeleteRelationship implements minthcm.ModuleClient.DeleteRelationship.
func (m *ModuleClient) DeleteRelationship(ctx context.Context, recordID, relatedModule, relatedID string) (minthcm.Document, error) {
	err := m.validate()
	if err != nil {
		return nil, err
	}

	return m.session.Delete(ctx, m.relationshipPath(recordID, relatedModule)+"/"+relatedID)
}

// relationshipPath is /module/{name}/{id}/relationships/{related}, with the
// related module name lowercased.
func (m *ModuleClient) relationshipPath(recordID, relatedModule string) string {
	return fmt.Sprintf("/module/%s/%s/relationships/%s", m.name, recordID, strings.ToLower(relatedModule))
}

// capitalize upper-cases the first character and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])

	return string(runes)
}
