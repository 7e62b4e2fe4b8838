package mcp

import (
	"context"
	_ "embed"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// GuidanceURI identifies the operations guidance resource.
const GuidanceURI = "file://kdbai_operations_guidance"

//go:embed guidance.txt
var guidance string

func (s *Server) registerResources() {
	s.srv.AddResource(&sdk.Resource{
		URI:  GuidanceURI,
		Name: "kdbai_operations_guidance",
		Description: "Guidance for KDB.AI query, similarity search and hybrid search: " +
			"syntax, filter usage, parameters and examples.",
		MIMEType: "text/plain",
	}, readGuidance)
}

func readGuidance(_ context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     guidance,
		}},
	}, nil
}
