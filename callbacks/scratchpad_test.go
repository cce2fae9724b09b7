package callbacks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/effective-security/mcpclient/chatmodel"
	"github.com/effective-security/mcpclient/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct{}

func (m *fakeModel) GetName() string                     { return "M1" }
func (m *fakeModel) GetProviderType() llms.ProviderType { return llms.ProviderGroq }
func (m *fakeModel) GenerateContent(context.Context, []llms.Message, ...llms.CallOption) (*llms.ContentResponse, error) {
	return nil, nil
}

func newTestQueryContext(id string) (context.Context, chatmodel.QueryContext) {
	qctx := chatmodel.NewQueryContext(id, "test query")
	return chatmodel.WithQueryContext(context.Background(), qctx), qctx
}

func TestScratchpad_StartRun_EndRun(t *testing.T) {
	t.Parallel()
	sp := NewScratchpad(ModeVerbose)
	ctx, qctx := newTestQueryContext("q1")
	sp.StartRun(ctx)

	r := sp.runs[qctx.GetQueryID()]
	require.NotNil(t, r)
	r.stats.ToolsCalls = 3
	r.stats.ToolsCallsFailed = 2
	r.stats.LLMCalls = 1
	r.stats.TotalMessages = 4
	r.stats.LLMBytesOut = 10
	r.stats.LLMBytesIn = 11

	stats, buf := sp.EndRun(ctx)
	require.NotNil(t, stats)
	assert.Equal(t, "q1", stats.QueryID)
	require.Contains(t, string(buf), "Run Started")
	require.Contains(t, string(buf), "Run Ended")
	require.Contains(t, string(buf), "Tool calls: 3, Failed: 2")
	require.Contains(t, string(buf), "Bytes Total: 21")

	_, ok := sp.runs[qctx.GetQueryID()]
	assert.False(t, ok)

	s2, _ := sp.EndRun(ctx)
	assert.Nil(t, s2)
}

func TestScratchpad_getRun_nil(t *testing.T) {
	t.Parallel()
	sp := NewScratchpad(ModeDefault)
	assert.Nil(t, sp.getRun(context.Background()))

	// no QueryContext, no run
	sp.StartRun(context.Background())
	assert.Empty(t, sp.runs)

	ctx, _ := newTestQueryContext("q2")
	assert.Nil(t, sp.getRun(ctx))
}

func TestScratchpad_OnCallbacks(t *testing.T) {
	t.Parallel()
	sp := NewScratchpad(ModeVerbose)
	ctx, _ := newTestQueryContext("q3")
	sp.StartRun(ctx)

	llm := &fakeModel{}
	msgs := []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "foo"),
		llms.MessageFromToolCalls(llms.RoleAI, llms.ToolCall{ID: "c1", Type: "function", FunctionCall: &llms.FunctionCall{Name: "T1", Arguments: "{}"}}),
		llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{ToolCallID: "c1", Name: "T1", Content: "bar"}),
	}
	resp := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content: "Answer 1",
			GenerationInfo: map[string]any{
				"InputTokens":  10,
				"OutputTokens": 5,
				"TotalTokens":  15,
			},
		}},
	}

	sp.OnQueryStart(ctx, "input")
	sp.OnLLMCallStart(ctx, llm, msgs)
	sp.OnLLMCallEnd(ctx, llm, resp)
	sp.OnToolStart(ctx, "T1", "tinput")
	sp.OnToolEnd(ctx, "T1", "tinput", "toutput")
	sp.OnToolError(ctx, "T1", "tinput", errors.New("terr"))
	sp.OnQueryEnd(ctx, "input", "result")
	sp.OnQueryError(ctx, "input", errors.New("fail"))

	stats, output := sp.EndRun(ctx)
	require.NotNil(t, stats)
	assert.Equal(t, uint32(1), stats.LLMCalls)
	assert.Equal(t, uint32(3), stats.TotalMessages)
	assert.Equal(t, uint32(1), stats.ToolsCalls)
	assert.Equal(t, uint32(1), stats.ToolsCallsSucceeded)
	assert.Equal(t, uint32(1), stats.ToolsCallsFailed)
	assert.True(t, stats.Failed)
	assert.NotZero(t, stats.LLMBytesOut)
	assert.NotZero(t, stats.LLMBytesIn)

	outStr := string(output)
	assert.Contains(t, outStr, "Query Start")
	assert.Contains(t, outStr, "Input: input")
	assert.Contains(t, outStr, "LLM Call *** M1 model, 3 messages")
	assert.Contains(t, outStr, "[1] ai:")
	assert.Contains(t, outStr, "ToolCallResponse: c1 (T1)")
	assert.Contains(t, outStr, "T1 *** Tool Start ***")
	assert.Contains(t, outStr, "T1 Output: toutput")
	assert.Contains(t, outStr, "T1 *** Tool Error *** terr")
	assert.Contains(t, outStr, "Output: result")
	assert.Contains(t, outStr, "*** Error *** fail")

	// no run, no panic
	sp.OnQueryStart(ctx, "input")
	sp.OnLLMCallStart(ctx, llm, nil)
	sp.OnLLMCallEnd(ctx, llm, nil)
	sp.OnToolStart(ctx, "T1", "tinput")
	sp.OnToolEnd(ctx, "T1", "tinput", "toutput")
	sp.OnToolError(ctx, "T1", "tinput", errors.New("terr2"))
	sp.OnQueryEnd(ctx, "input", "result")
	sp.OnQueryError(ctx, "input", errors.New("fail2"))
}

func Test_run_print_format(t *testing.T) {
	r := &run{queryID: "q4"}
	oldTimeFn := TimeNowFn
	TimeNowFn = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	defer func() { TimeNowFn = oldTimeFn }()

	r.print("hello", "again")
	lines := strings.Split(r.w.String(), "\n")
	require.NotEmpty(t, lines[0])
	assert.Equal(t, "2024-01-01 12:00:00 q4 hello again", lines[0])
}
