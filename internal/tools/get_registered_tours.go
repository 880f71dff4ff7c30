package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/tourchat/tourchat-go/internal/models"
)

// GetRegisteredToursTool lists a customer's tour registrations.
type GetRegisteredToursTool struct {
	svc Service
}

// getRegisteredToursInput is the JSON-serialisable input schema for GetRegisteredToursTool.
type getRegisteredToursInput struct {
	// PhoneNumber is the customer's phone number.
	PhoneNumber string `json:"phone_number"`
}

// registeredToursOutput is the JSON result envelope.
type registeredToursOutput struct {
	Registrations []models.Registration `json:"registrations"`
}

// NewGetRegisteredToursTool constructs a GetRegisteredToursTool over the catalog service.
func NewGetRegisteredToursTool(svc Service) *GetRegisteredToursTool {
	return &GetRegisteredToursTool{svc: svc}
}

// Name returns the tool name registered with the agent.
func (t *GetRegisteredToursTool) Name() string { return "get_registered_tours" }

// Description returns the LLM-facing description of this tool.
func (t *GetRegisteredToursTool) Description() string {
	return "Lists the tours a customer has registered for, newest first, " +
		"looked up by their phone number."
}

// Info returns the Eino tool metadata including the JSON input schema.
func (t *GetRegisteredToursTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: t.Name(),
		Desc: t.Description(),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"phone_number": {
				Type:     schema.String,
				Desc:     "Customer's phone number, e.g. \"+84901234567\".",
				Required: true,
			},
		}),
	}, nil
}

// InvokableRun executes the tool given a JSON-encoded input string.
func (t *GetRegisteredToursTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	var input getRegisteredToursInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &input); err != nil {
		return "", fmt.Errorf("get_registered_tours: invalid input: %w", err)
	}

	regs, err := t.svc.RegisteredTours(ctx, input.PhoneNumber)
	if err != nil {
		return renderError(err)
	}
	return render(registeredToursOutput{Registrations: regs})
}
