package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// SubAgent owns a named capability set: a group of tools that belong to one
// area of the conversation (searching, registering). The controller routes
// each tool call to the sub-agent whose set contains the tool's name.
type SubAgent struct {
	// name labels the capability set in logs.
	name string
	// tools maps tool name to implementation.
	tools map[string]tool.InvokableTool
}

// NewSubAgent builds a SubAgent from its tools. Tool names are read from
// each tool's Info metadata.
func NewSubAgent(ctx context.Context, name string, tools []tool.InvokableTool) (*SubAgent, error) {
	byName := make(map[string]tool.InvokableTool, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("agent: tool info for %q sub-agent: %w", name, err)
		}
		if _, dup := byName[info.Name]; dup {
			return nil, fmt.Errorf("agent: duplicate tool %q in %q sub-agent", info.Name, name)
		}
		byName[info.Name] = t
	}
	return &SubAgent{name: name, tools: byName}, nil
}

// Name returns the capability-set label.
func (s *SubAgent) Name() string { return s.name }

// Owns reports whether this sub-agent's capability set contains the tool.
func (s *SubAgent) Owns(toolName string) bool {
	_, ok := s.tools[toolName]
	return ok
}

// ToolInfos returns the schema metadata for every tool in the set, for
// binding to the chat model.
func (s *SubAgent) ToolInfos(ctx context.Context) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(s.tools))
	for name, t := range s.tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("agent: tool info for %q: %w", name, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Invoke runs one tool call and returns its tool-role response message.
func (s *SubAgent) Invoke(ctx context.Context, call schema.ToolCall) (*schema.Message, error) {
	t, ok := s.tools[call.Function.Name]
	if !ok {
		return nil, fmt.Errorf("agent: sub-agent %q does not own tool %q", s.name, call.Function.Name)
	}
	out, err := t.InvokableRun(ctx, call.Function.Arguments)
	if err != nil {
		return nil, fmt.Errorf("agent: tool %q failed: %w", call.Function.Name, err)
	}
	return schema.ToolMessage(out, call.ID), nil
}
