package mcp

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commandOf(t *testing.T, tr mcpsdk.Transport) *exec.Cmd {
	t.Helper()
	ct, ok := tr.(*mcpsdk.CommandTransport)
	require.True(t, ok, "transport type %T", tr)
	return ct.Command
}

func TestNewTransport(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tr, err := NewTransport(ctx, "weather.py")
	require.NoError(t, err)
	assert.Equal(t, []string{"python", "weather.py"}, commandOf(t, tr).Args)

	tr, err = NewTransport(ctx, "/srv/weather.JS")
	require.NoError(t, err)
	assert.Equal(t, []string{"node", "/srv/weather.JS"}, commandOf(t, tr).Args)

	var stderr bytes.Buffer
	tr, err = NewTransport(ctx, " weather.py ", WithCommand(".py", "python3"), WithCommand(".js", ""), WithStderr(&stderr))
	require.NoError(t, err)
	cmd := commandOf(t, tr)
	assert.Equal(t, []string{"python3", "weather.py"}, cmd.Args)
	assert.Same(t, &stderr, cmd.Stderr)

	tr, err = NewTransport(ctx, "https://example.com/mcp")
	require.NoError(t, err)
	st, ok := tr.(*mcpsdk.StreamableClientTransport)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/mcp", st.Endpoint)
	assert.Equal(t, -1, st.MaxRetries)

	for _, target := range []string{"", "weather.sh", "weather", "http://", "ftp://example.com/x.txt"} {
		_, err = NewTransport(ctx, target)
		assert.ErrorIs(t, err, ErrUnsupportedTarget, target)
	}
	assert.Equal(t, "server script must be a .py or .js file", ErrUnsupportedTarget.Error())
}

func TestHeaderTransport(t *testing.T) {
	t.Parallel()

	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	o := newOptions(WithHeader("Authorization", "Bearer token"), WithHTTPClient(srv.Client()))
	client := o.client()
	require.NotSame(t, srv.Client(), client)

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "Bearer token", got.Get("Authorization"))
	// the original request is not modified
	assert.Empty(t, req.Header.Get("Authorization"))

	assert.Same(t, srv.Client(), newOptions(WithHTTPClient(srv.Client())).client())
}
