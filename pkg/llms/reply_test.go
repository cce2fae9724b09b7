package llms_test

import (
	"testing"

	"github.com/effective-security/mcpclient/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyFromResponse(t *testing.T) {
	t.Parallel()

	_, err := llms.ReplyFromResponse(nil)
	assert.ErrorIs(t, err, llms.ErrEmptyResponse)

	_, err = llms.ReplyFromResponse(&llms.ContentResponse{})
	assert.ErrorIs(t, err, llms.ErrEmptyResponse)

	t.Run("text", func(t *testing.T) {
		r, err := llms.ReplyFromResponse(&llms.ContentResponse{
			Choices: []*llms.ContentChoice{{Content: "Hello"}, nil, {Content: "World"}},
		})
		require.NoError(t, err)
		assert.Equal(t, llms.TextAnswer{Text: "Hello\nWorld"}, r)
	})

	t.Run("empty text", func(t *testing.T) {
		r, err := llms.ReplyFromResponse(&llms.ContentResponse{
			Choices: []*llms.ContentChoice{{}},
		})
		require.NoError(t, err)
		assert.Equal(t, llms.TextAnswer{}, r)
	})

	t.Run("tools", func(t *testing.T) {
		c1 := llms.ToolCall{ID: "1", FunctionCall: &llms.FunctionCall{Name: "a"}}
		c2 := llms.ToolCall{ID: "2", FunctionCall: &llms.FunctionCall{Name: "b"}}
		c3 := llms.ToolCall{ID: "3", FunctionCall: &llms.FunctionCall{Name: "c"}}
		r, err := llms.ReplyFromResponse(&llms.ContentResponse{
			Choices: []*llms.ContentChoice{
				{Content: "let me check", ToolCalls: []llms.ToolCall{c1, c2}},
				{ToolCalls: []llms.ToolCall{c3}},
			},
		})
		require.NoError(t, err)
		tr, ok := r.(llms.ToolRequests)
		require.True(t, ok)
		assert.Equal(t, []llms.ToolCall{c1, c2, c3}, tr.Calls)
		assert.Equal(t, "let me check", tr.Text)
	})
}

func TestResponseText(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", llms.ResponseText(nil))
	assert.Equal(t, "a\nb", llms.ResponseText(&llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "a"}, {Content: ""}, {Content: "b"}},
	}))
}
