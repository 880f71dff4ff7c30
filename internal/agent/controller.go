// Package agent implements the conversational controller for the tour chat
// assistant. A single chat model decides which tools to call; the controller
// routes each call to the sub-agent owning that capability, feeds tool
// results back to the model, and repeats until the model answers in plain
// text. Tool-call failures never escape to the caller: the turn degrades to
// an apology message instead.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tourchat/tourchat-go/internal/budget"
	"github.com/tourchat/tourchat-go/internal/logging"
	"github.com/tourchat/tourchat-go/internal/store"
)

// recoveryMessage is returned when a turn fails irrecoverably. Partial tool
// results from the failed turn are discarded rather than half-answered.
const recoveryMessage = "I encountered an issue while handling your request. Please try again or rephrase your request."

// unknownToolMessage is the tool-role response for a tool name no sub-agent
// owns, so the model can tell the user and carry on.
const unknownToolMessage = "It looks like the tool %q isn't available in my current set of capabilities."

// defaultMaxRounds bounds the tool-calling loop per turn. A run that is
// still calling tools after this many model rounds is cut off and recovered.
const defaultMaxRounds = 8

// Config holds the dependencies required to construct a Controller.
type Config struct {
	// ChatModel is the LLM backend constructed by the provider factory.
	ChatModel model.ToolCallingChatModel

	// SubAgents are the capability sets available to the conversation. All
	// of their tools are bound to the chat model.
	SubAgents []*SubAgent

	// History is the optional conversation store used to persist and replay
	// prior turns. If nil, each turn is stateless.
	History store.ConversationStore

	// HistoryDepth is the number of prior turns (user+assistant pairs) to
	// inject per turn. Defaults to 10 if zero.
	HistoryDepth int

	// MaxContextTokens is the estimated token budget for the full input
	// context (system prompt + history + user message). History is trimmed
	// oldest-first to fit. Defaults to budget.DefaultMaxContextTokens if zero.
	MaxContextTokens int

	// MaxRounds bounds the number of model rounds per turn. Defaults to 8.
	MaxRounds int
}

// Controller runs the tool-routing conversation loop.
type Controller struct {
	chatModel model.ToolCallingChatModel
	subAgents []*SubAgent

	history          store.ConversationStore
	historyDepth     int
	maxContextTokens int
	maxRounds        int
}

// New constructs a Controller, binding every sub-agent's tools to the model.
func New(ctx context.Context, cfg *Config) (*Controller, error) {
	if cfg.ChatModel == nil {
		return nil, fmt.Errorf("agent: ChatModel must not be nil")
	}
	if len(cfg.SubAgents) == 0 {
		return nil, fmt.Errorf("agent: at least one sub-agent is required")
	}

	var infos []*schema.ToolInfo
	seen := map[string]string{}
	for _, sa := range cfg.SubAgents {
		saInfos, err := sa.ToolInfos(ctx)
		if err != nil {
			return nil, err
		}
		for _, info := range saInfos {
			if owner, dup := seen[info.Name]; dup {
				return nil, fmt.Errorf("agent: tool %q owned by both %q and %q sub-agents", info.Name, owner, sa.Name())
			}
			seen[info.Name] = sa.Name()
		}
		infos = append(infos, saInfos...)
	}

	bound, err := cfg.ChatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("agent: failed to bind tools: %w", err)
	}

	depth := cfg.HistoryDepth
	if depth <= 0 {
		depth = 10
	}
	maxCtx := cfg.MaxContextTokens
	if maxCtx <= 0 {
		maxCtx = budget.DefaultMaxContextTokens
	}
	rounds := cfg.MaxRounds
	if rounds <= 0 {
		rounds = defaultMaxRounds
	}

	return &Controller{
		chatModel:        bound,
		subAgents:        cfg.SubAgents,
		history:          cfg.History,
		historyDepth:     depth,
		maxContextTokens: maxCtx,
		maxRounds:        rounds,
	}, nil
}

// Chat runs one conversation turn for the session and returns the
// assistant's final text. Failures inside the turn are logged and collapsed
// into a single recovery message; Chat itself only errors on context
// cancellation.
func (c *Controller) Chat(ctx context.Context, sessionID, userMessage string) (string, error) {
	log := logging.Component(ctx, "agent")

	messages := c.buildMessages(ctx, sessionID, userMessage)

	answer, err := c.runLoop(ctx, log, messages)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Error("turn failed, recovering", slog.Any("error", err))
		answer = recoveryMessage
	}

	c.persistTurn(ctx, log, sessionID, userMessage, answer)
	return answer, nil
}

// runLoop drives the ask-model / dispatch cycle until the model produces a
// plain-text answer or the round limit is hit.
func (c *Controller) runLoop(ctx context.Context, log *slog.Logger, messages []*schema.Message) (string, error) {
	for round := 0; round < c.maxRounds; round++ {
		resp, err := c.chatModel.Generate(ctx, messages)
		if err != nil {
			return "", fmt.Errorf("agent: model generate: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		messages = append(messages, resp)
		for _, call := range resp.ToolCalls {
			result, err := c.dispatch(ctx, log, call)
			if err != nil {
				return "", err
			}
			messages = append(messages, result)
		}
	}
	return "", fmt.Errorf("agent: no final answer after %d rounds", c.maxRounds)
}

// dispatch routes one tool call to the owning sub-agent. A name no sub-agent
// owns produces a tool-role message saying so, keeping the conversation
// alive instead of failing the turn.
func (c *Controller) dispatch(ctx context.Context, log *slog.Logger, call schema.ToolCall) (*schema.Message, error) {
	for _, sa := range c.subAgents {
		if !sa.Owns(call.Function.Name) {
			continue
		}
		log.Info("dispatching tool call",
			slog.String("tool", call.Function.Name),
			slog.String("sub_agent", sa.Name()),
		)
		result, err := sa.Invoke(ctx, call)
		if err != nil {
			toolInvocationsTotal.WithLabelValues(call.Function.Name, "error").Inc()
			return nil, err
		}
		toolInvocationsTotal.WithLabelValues(call.Function.Name, "ok").Inc()
		return result, nil
	}

	log.Warn("model requested unknown tool", slog.String("tool", call.Function.Name))
	toolInvocationsTotal.WithLabelValues(call.Function.Name, "unknown").Inc()
	return schema.ToolMessage(fmt.Sprintf(unknownToolMessage, call.Function.Name), call.ID), nil
}

// buildMessages assembles system prompt, trimmed session history, and the
// current user message.
func (c *Controller) buildMessages(ctx context.Context, sessionID, userMessage string) []*schema.Message {
	system := schema.SystemMessage(systemPrompt)
	user := schema.UserMessage(userMessage)

	var historyMsgs []*schema.Message
	if c.history != nil {
		prior, err := c.history.Recent(ctx, sessionID, c.historyDepth*2)
		if err != nil {
			logging.FromContext(ctx).Warn("history: failed to load prior messages", slog.Any("error", err))
		} else {
			for _, m := range prior {
				switch m.Role {
				case store.RoleUser:
					historyMsgs = append(historyMsgs, schema.UserMessage(m.Content))
				case store.RoleAssistant:
					historyMsgs = append(historyMsgs, schema.AssistantMessage(m.Content, nil))
				}
			}
		}
	}

	fixed := []*schema.Message{system, user}
	before := len(historyMsgs)
	historyMsgs = budget.TrimHistory(fixed, historyMsgs, c.maxContextTokens)
	if dropped := before - len(historyMsgs); dropped > 0 {
		logging.FromContext(ctx).Warn("budget: dropped history messages to fit context window",
			slog.Int("dropped", dropped),
			slog.Int("retained", len(historyMsgs)),
			slog.Int("max_tokens", c.maxContextTokens),
		)
	}

	result := make([]*schema.Message, 0, len(historyMsgs)+2)
	result = append(result, system)
	result = append(result, historyMsgs...)
	result = append(result, user)
	return result
}

// persistTurn records the user and assistant messages (non-fatal on error).
func (c *Controller) persistTurn(ctx context.Context, log *slog.Logger, sessionID, userMessage, answer string) {
	if c.history == nil {
		return
	}
	if err := c.history.Append(ctx, sessionID, store.RoleUser, userMessage); err != nil {
		log.Warn("history: failed to persist user message", slog.Any("error", err))
	}
	if err := c.history.Append(ctx, sessionID, store.RoleAssistant, answer); err != nil {
		log.Warn("history: failed to persist assistant message", slog.Any("error", err))
	}
}
