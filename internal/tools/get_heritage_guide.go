package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/tourchat/tourchat-go/internal/catalog"
)

// GetHeritageGuideTool retrieves heritage-guide passages for a tour.
type GetHeritageGuideTool struct {
	svc Service
}

// getHeritageGuideInput is the JSON-serialisable input schema for GetHeritageGuideTool.
type getHeritageGuideInput struct {
	// Place is the destination the tour runs in.
	Place string `json:"place"`

	// TourName optionally pins the tour, by approximate name or explicit ID.
	TourName string `json:"tour_name,omitempty"`

	// Query is an optional question about the heritage sites.
	Query string `json:"query,omitempty"`

	// PageSize caps the number of passages per page.
	PageSize int `json:"page_size,omitempty"`

	// PageToken continues a previous listing.
	PageToken string `json:"page_token,omitempty"`
}

// NewGetHeritageGuideTool constructs a GetHeritageGuideTool over the catalog service.
func NewGetHeritageGuideTool(svc Service) *GetHeritageGuideTool {
	return &GetHeritageGuideTool{svc: svc}
}

// Name returns the tool name registered with the agent.
func (t *GetHeritageGuideTool) Name() string { return "get_heritage_guide" }

// Description returns the LLM-facing description of this tool.
func (t *GetHeritageGuideTool) Description() string {
	return "Answers questions about the heritage sites of a destination, using the " +
		"official heritage guide of the place's best-matching tour. Optionally pin the " +
		"tour by name (e.g. \"Imperial City walking tour\") or by ID (e.g. \"tour id: hue-01\"). " +
		"An empty result means no heritage data exists for the place. " +
		"Pass the returned nextToken as page_token to read more passages."
}

// Info returns the Eino tool metadata including the JSON input schema.
func (t *GetHeritageGuideTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: t.Name(),
		Desc: t.Description(),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"place": {
				Type:     schema.String,
				Desc:     "Destination the tour runs in, e.g. \"Hue\".",
				Required: true,
			},
			"tour_name": {
				Type: schema.String,
				Desc: "Optional tour name, or an explicit ID like \"tour id: hue-01\". Omit to use the place's best match.",
			},
			"query": {
				Type: schema.String,
				Desc: "Optional question about the heritage sites, e.g. \"what dynasty built the citadel?\".",
			},
			"page_size": {
				Type: schema.Integer,
				Desc: "Maximum passages per page (default 10, max 50).",
			},
			"page_token": {
				Type: schema.String,
				Desc: "Continuation token from a previous call's nextToken.",
			},
		}),
	}, nil
}

// InvokableRun executes the tool given a JSON-encoded input string.
func (t *GetHeritageGuideTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	var input getHeritageGuideInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &input); err != nil {
		return "", fmt.Errorf("get_heritage_guide: invalid input: %w", err)
	}

	page, err := t.svc.HeritageGuide(ctx, catalog.GuideRequest{
		Place:     input.Place,
		TourName:  input.TourName,
		Query:     input.Query,
		PageSize:  input.PageSize,
		PageToken: input.PageToken,
	})
	if err != nil {
		return renderError(err)
	}
	return render(page)
}
