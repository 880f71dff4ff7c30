// Package tools defines the catalog tool implementations the chat agent can
// invoke during a conversation: tour search, heritage-guide retrieval, tour
// registration, and registration listing. Each tool satisfies both this
// package's interface and Eino's tool.BaseTool interface so they can be
// registered directly with a sub-agent.
package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/tourchat/tourchat-go/internal/catalog"
	"github.com/tourchat/tourchat-go/internal/models"
)

// CatalogTool is the interface all catalog tools satisfy. It extends the
// basic Eino tool contract with Name and Description accessors so agents can
// route and log tool calls without type assertions.
type CatalogTool interface {
	// Name returns the unique tool name registered with the agent.
	Name() string

	// Description returns the LLM-facing description of what the tool does.
	Description() string
}

// Service is the catalog surface the tools call into. *catalog.Service
// satisfies it; tests substitute fakes.
type Service interface {
	Tours(ctx context.Context, req catalog.ToursRequest) (catalog.TourPage, error)
	HeritageGuide(ctx context.Context, req catalog.GuideRequest) (catalog.GuidePage, error)
	RegisteredTours(ctx context.Context, phoneNumber string) ([]models.Registration, error)
	Register(ctx context.Context, tourID, phoneNumber string) (models.Registration, error)
}

// toolError is the JSON envelope returned to the model when an operation
// fails in a way the model should explain to the user (unknown tour,
// duplicate registration, backend outage). Unexpected failures propagate as
// Go errors instead and trigger the agent's recovery path.
type toolError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// render marshals a successful tool result to the JSON string the model sees.
func render(v any) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// renderError folds a classified catalog failure into the error envelope.
// Unclassified errors are returned as-is.
func renderError(err error) (string, error) {
	var cerr *catalog.Error
	if !errors.As(err, &cerr) {
		return "", err
	}
	var env toolError
	env.Error.Code = string(cerr.Code)
	env.Error.Message = cerr.Reason
	return render(env)
}
