package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/vpm/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for vpm resources.
	uriScheme = "vpm://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "schemas",
		Name:        "schemas",
		Description: "Record schemas with their fields",
		MIMEType:    "application/json",
	}, s.handleSchemasResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "schemas/{schema}",
		Name:        "schema-template",
		Description: "An empty record of a schema with every field present",
		MIMEType:    "application/json",
	}, s.handleSchemaTemplateResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "store",
		Name:        "store",
		Description: "Reference store statistics",
		MIMEType:    "application/json",
	}, s.handleStoreResource)
}

// handleSchemasResource lists every schema with its fields.
func (s *Server) handleSchemasResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type schemaInfo struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Fields      []string `json:"fields"`
		Required    []string `json:"required"`
	}

	schemas := domain.AllSchemas()
	infos := make([]schemaInfo, len(schemas))
	for i, schema := range schemas {
		infos[i] = schemaInfo{
			Name:        schema.String(),
			Description: schema.Description(),
			Fields:      schema.Fields(),
			Required:    schema.RequiredFields(),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling schemas: %w", err)
	}
	return jsonResource(req.Params.URI, data), nil
}

// handleSchemaTemplateResource returns the empty record of a schema.
func (s *Server) handleSchemaTemplateResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	schema, err := domain.ParseSchema(extractSchemaName(req.Params.URI))
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	data, err := domain.EncodeRecord(schema.Empty())
	if err != nil {
		return nil, fmt.Errorf("encoding %s template: %w", schema, err)
	}
	return jsonResource(req.Params.URI, data), nil
}

// handleStoreResource reports how many documents the reference store holds.
func (s *Server) handleStoreResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type storeInfo struct {
		Enabled   bool `json:"enabled"`
		Documents int  `json:"documents"`
	}

	info := storeInfo{}
	if s.ports.Knowledge != nil {
		count, err := s.ports.Knowledge.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting documents: %w", err)
		}
		info = storeInfo{Enabled: true, Documents: count}
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling store info: %w", err)
	}
	return jsonResource(req.Params.URI, data), nil
}

func jsonResource(uri string, data []byte) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}
}

// extractSchemaName extracts the schema from a URI like vpm://schemas/{schema}.
func extractSchemaName(uri string) string {
	const prefix = uriScheme + "schemas/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
