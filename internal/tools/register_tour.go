package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// RegisterTourTool registers a customer for a tour.
type RegisterTourTool struct {
	svc Service
}

// registerTourInput is the JSON-serialisable input schema for RegisterTourTool.
type registerTourInput struct {
	// TourID is the exact ID of the tour to register for.
	TourID string `json:"tour_id"`

	// PhoneNumber is the customer's phone number.
	PhoneNumber string `json:"phone_number"`
}

// NewRegisterTourTool constructs a RegisterTourTool over the catalog service.
func NewRegisterTourTool(svc Service) *RegisterTourTool {
	return &RegisterTourTool{svc: svc}
}

// Name returns the tool name registered with the agent.
func (t *RegisterTourTool) Name() string { return "register_tour" }

// Description returns the LLM-facing description of this tool.
func (t *RegisterTourTool) Description() string {
	return "Registers the customer for a tour by its exact tour ID. " +
		"A phone number can register for each tour only once; a duplicate attempt " +
		"returns a CONFLICT error. Confirm the tour ID and phone number with the " +
		"customer before calling this."
}

// Info returns the Eino tool metadata including the JSON input schema.
func (t *RegisterTourTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: t.Name(),
		Desc: t.Description(),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"tour_id": {
				Type:     schema.String,
				Desc:     "Exact tour ID, e.g. \"hue-01\". Look it up with get_tours first if unsure.",
				Required: true,
			},
			"phone_number": {
				Type:     schema.String,
				Desc:     "Customer's phone number, e.g. \"+84901234567\".",
				Required: true,
			},
		}),
	}, nil
}

// InvokableRun executes the tool given a JSON-encoded input string.
func (t *RegisterTourTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	var input registerTourInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &input); err != nil {
		return "", fmt.Errorf("register_tour: invalid input: %w", err)
	}

	reg, err := t.svc.Register(ctx, input.TourID, input.PhoneNumber)
	if err != nil {
		return renderError(err)
	}
	return render(reg)
}
