package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
)

// PlayerURIPrefix prefixes player resource URIs.
const PlayerURIPrefix = "scoutsearch://player/"

func (s *Server) registerResources() {
	s.mcp.AddResourceTemplate(
		&mcp.ResourceTemplate{
			Name:        "player",
			URITemplate: PlayerURIPrefix + "{id}",
			MIMEType:    "application/json",
			Description: "Full player record by playerId",
		},
		s.readPlayerResource,
	)
}

func (s *Server) readPlayerResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	id, ok := strings.CutPrefix(uri, PlayerURIPrefix)
	if !ok || id == "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	p, err := s.searcher.GetPlayer(ctx, id)
	if err != nil {
		if serrors.GetCode(err) == serrors.ErrCodePlayerNotFound {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		return nil, MapError(err)
	}

	text, err := FormatPlayer(p)
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: "application/json", Text: text}},
	}, nil
}
