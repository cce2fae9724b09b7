package processor

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpclient/chatmodel"
	"github.com/effective-security/mcpclient/conversation"
	"github.com/effective-security/mcpclient/mcp"
	"github.com/effective-security/mcpclient/pkg/llms"
	"github.com/effective-security/mcpclient/pkg/llmutils"
	"github.com/effective-security/mcpclient/pkg/metricskey"
	"github.com/effective-security/mcpclient/tools"
	xslices "github.com/effective-security/x/slices"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/mcpclient", "processor")

// Processor answers queries using the LLM and the tools of the session.
// It processes one query at a time.
type Processor struct {
	llm     llms.Model
	session mcp.Session
	cfg     *Config

	last []llms.Message
}

// New returns the Processor.
func New(llm llms.Model, session mcp.Session, opts ...Option) *Processor {
	return &Processor{
		llm:     llm,
		session: session,
		cfg:     NewConfig(opts...),
	}
}

// LastConversation returns the messages of the last processed query.
func (p *Processor) LastConversation() []llms.Message {
	return slices.Clone(p.last)
}

// ProcessQuery returns the answer to the query.
// An error is returned only when the tools can not be listed,
// or the first LLM call fails.
func (p *Processor) ProcessQuery(ctx context.Context, query string) (string, error) {
	started := time.Now()
	modelName := p.llm.GetName()
	defer metricskey.PerfQuery.MeasureSince(started, modelName)

	if chatmodel.GetQueryContext(ctx) == nil {
		ctx = chatmodel.WithQueryContext(ctx, chatmodel.NewQueryContext("", query))
	}

	cb := p.cfg.CallbackHandler
	if cb != nil {
		cb.OnQueryStart(ctx, query)
	}

	state := conversation.New(query)
	result, err := p.process(ctx, state)
	p.last = state.Snapshot()

	if err != nil {
		metricskey.StatsQueriesFailed.IncrCounter(1, modelName)
		logger.ContextKV(ctx, xlog.ERROR,
			"status", "query_failed",
			"query", xslices.StringUpto(query, 64),
			"err", err.Error(),
		)
		if cb != nil {
			cb.OnQueryError(ctx, query, err)
		}
		return "", err
	}

	metricskey.StatsQueriesSucceeded.IncrCounter(1, modelName)
	if cb != nil {
		cb.OnQueryEnd(ctx, query, result)
	}
	return result, nil
}

func (p *Processor) process(ctx context.Context, state *conversation.State) (string, error) {
	list, err := p.session.ListTools(ctx)
	if err != nil {
		return "", err
	}
	defs := tools.Adapt(list, tools.WithSchemaMode(p.cfg.SchemaMode))

	var extra []llms.CallOption
	if len(defs) > 0 {
		extra = append(extra, llms.WithTools(defs))
	}

	resp, err := p.generate(ctx, state, extra...)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate content from LLM")
	}

	reply, err := llms.ReplyFromResponse(resp)
	if err != nil {
		return "", errors.WithMessage(err, "failed to interpret LLM response")
	}

	switch r := reply.(type) {
	case llms.TextAnswer:
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "answered",
			"tools", len(defs),
		)
		return r.Text, nil

	case llms.ToolRequests:
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "tools_requested",
			"tools", len(defs),
			"calls", len(r.Calls),
		)

		calls := withCallIDs(r.Calls)
		fragments := make([]string, 0, 2*len(calls))
		for _, call := range calls {
			fragments = append(fragments, p.dispatch(ctx, state, call)...)
		}
		return strings.Join(fragments, "\n"), nil
	}

	return "", errors.Newf("unexpected reply: %T", reply)
}

// dispatch calls the tool, folds the result into the state and asks the LLM
// for a follow-up. It returns the outcome fragments of this call.
func (p *Processor) dispatch(ctx context.Context, state *conversation.State, call llms.ToolCall) []string {
	name := call.Name()
	call.Type = values.StringsCoalesce(call.Type, "function")

	content, err := p.callTool(ctx, call)
	if err != nil {
		return []string{toolErrorFragment(name, err)}
	}

	fragments := []string{fmt.Sprintf("[Tool %s result: %s]", name, content)}

	err = state.Append(
		llms.MessageFromToolCalls(llms.RoleAI, call),
		llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{
			ToolCallID: call.ID,
			Name:       name,
			Content:    content,
		}),
	)
	if err != nil {
		return append(fragments, toolErrorFragment(name, err))
	}

	metricskey.StatsToolFollowUps.IncrCounter(1, name)

	// the follow-up is a plain completion, tools are not offered again
	resp, err := p.generate(ctx, state)
	if err == nil && (resp == nil || len(resp.Choices) == 0) {
		err = llms.ErrEmptyResponse
	}
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "follow_up_failed",
			"tool", name,
			"err", err.Error(),
		)
		return append(fragments, toolErrorFragment(name, err))
	}

	return append(fragments, llms.ResponseText(resp))
}

// withCallIDs returns a copy of calls where every call has a unique ID.
// Missing or repeated IDs are replaced with a generated `call_<uuid>`.
func withCallIDs(calls []llms.ToolCall) []llms.ToolCall {
	res := slices.Clone(calls)
	seen := make(map[string]bool, len(res))
	for i := range res {
		if res[i].ID == "" || seen[res[i].ID] {
			res[i].ID = "call_" + uuid.NewString()
		}
		seen[res[i].ID] = true
	}
	return res
}

func (p *Processor) callTool(ctx context.Context, call llms.ToolCall) (string, error) {
	name := call.Name()
	input := call.Arguments()

	cb := p.cfg.CallbackHandler
	if cb != nil {
		cb.OnToolStart(ctx, name, input)
	}

	started := time.Now()

	var res mcp.Result
	args, err := call.Args()
	if err == nil {
		res, err = p.session.CallTool(ctx, name, args)
	}
	metricskey.PerfToolCall.MeasureSince(started, name)

	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, name)
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_failed",
			"tool", name,
			"call_id", call.ID,
			"err", err.Error(),
		)
		if cb != nil {
			cb.OnToolError(ctx, name, input, err)
		}
		return "", err
	}

	var content string
	if res != nil {
		content = res.String()
	}

	metricskey.StatsToolCallsSucceeded.IncrCounter(1, name)
	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "tool_called",
		"tool", name,
		"call_id", call.ID,
		"result", xslices.StringUpto(content, 64),
	)
	if cb != nil {
		cb.OnToolEnd(ctx, name, input, content)
	}
	return content, nil
}

func (p *Processor) generate(ctx context.Context, state *conversation.State, extra ...llms.CallOption) (*llms.ContentResponse, error) {
	messages := state.Snapshot()
	provider := string(p.llm.GetProviderType())
	modelName := p.llm.GetName()

	cb := p.cfg.CallbackHandler
	if cb != nil {
		cb.OnLLMCallStart(ctx, p.llm, messages)
	}

	bytesSent := llmutils.CountMessagesContentSize(messages)
	metricskey.StatsLLMMessagesSent.IncrCounter(float64(len(messages)), provider, modelName)
	metricskey.StatsLLMBytesSent.IncrCounter(float64(bytesSent), provider, modelName)

	started := time.Now()
	resp, err := p.llm.GenerateContent(ctx, messages, p.cfg.GetCallOptions(extra...)...)
	metricskey.PerfLLMCall.MeasureSince(started, provider, modelName)
	if err != nil {
		metricskey.StatsLLMCallsFailed.IncrCounter(1, provider, modelName)
		return nil, err
	}

	if cb != nil {
		cb.OnLLMCallEnd(ctx, p.llm, resp)
	}

	metricskey.StatsLLMBytesReceived.IncrCounter(float64(llmutils.CountResponseContentSize(resp)), provider, modelName)

	tokensIn, tokensOut, tokensTotal := llmutils.CountTokens(resp)
	metricskey.StatsLLMInputTokens.IncrCounter(float64(tokensIn), provider, modelName)
	metricskey.StatsLLMOutputTokens.IncrCounter(float64(tokensOut), provider, modelName)
	metricskey.StatsLLMTotalTokens.IncrCounter(float64(tokensTotal), provider, modelName)

	return resp, nil
}

func toolErrorFragment(name string, err error) string {
	return fmt.Sprintf("Error executing tool %s: %s", name, err.Error())
}
