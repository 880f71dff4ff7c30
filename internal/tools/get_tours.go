package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/tourchat/tourchat-go/internal/catalog"
)

// GetToursTool searches and lists tours in a destination.
type GetToursTool struct {
	svc Service
}

// getToursInput is the JSON-serialisable input schema for GetToursTool.
type getToursInput struct {
	// Place is the optional destination to search in.
	Place string `json:"place,omitempty"`

	// Query is an optional free-text search over tour titles and prices.
	Query string `json:"query,omitempty"`

	// Type is an optional vector metadata filter for semantic searches.
	Type string `json:"type,omitempty"`

	// PageSize caps the number of results per page.
	PageSize int `json:"page_size,omitempty"`

	// PageToken continues a previous listing.
	PageToken string `json:"page_token,omitempty"`
}

// NewGetToursTool constructs a GetToursTool over the catalog service.
func NewGetToursTool(svc Service) *GetToursTool {
	return &GetToursTool{svc: svc}
}

// Name returns the tool name registered with the agent.
func (t *GetToursTool) Name() string { return "get_tours" }

// Description returns the LLM-facing description of this tool.
func (t *GetToursTool) Description() string {
	return "Searches tours, optionally scoped to a Vietnamese destination (e.g. Hue, Hoi An, Ha Long). " +
		"With a query it finds the best semantic matches, honoring price bounds like 'under 500,000 VND'. " +
		"Without a query it lists tours from the catalog, filtered to the place when one is given. " +
		"Pass the returned nextToken as page_token to fetch more results."
}

// Info returns the Eino tool metadata including the JSON input schema.
func (t *GetToursTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: t.Name(),
		Desc: t.Description(),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"place": {
				Type: schema.String,
				Desc: "Optional destination filter, e.g. \"Hue\" or \"Hoi An\". Omit to cover the whole catalog.",
			},
			"query": {
				Type: schema.String,
				Desc: "Optional free-text search, e.g. \"river cruise under 400,000 VND\". Omit for a plain listing.",
			},
			"type": {
				Type: schema.String,
				Desc: "Optional result type filter: \"tour_info\" (default) or \"heritage_guide\".",
			},
			"page_size": {
				Type: schema.Integer,
				Desc: "Maximum results per page (default 10, max 50).",
			},
			"page_token": {
				Type: schema.String,
				Desc: "Continuation token from a previous call's nextToken.",
			},
		}),
	}, nil
}

// InvokableRun executes the tool given a JSON-encoded input string.
func (t *GetToursTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	var input getToursInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &input); err != nil {
		return "", fmt.Errorf("get_tours: invalid input: %w", err)
	}

	page, err := t.svc.Tours(ctx, catalog.ToursRequest{
		Place:     input.Place,
		Query:     input.Query,
		Type:      input.Type,
		PageSize:  input.PageSize,
		PageToken: input.PageToken,
	})
	if err != nil {
		return renderError(err)
	}
	return render(page)
}
