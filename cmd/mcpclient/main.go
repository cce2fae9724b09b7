// Package main provides the mcpclient CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpclient/callbacks"
	"github.com/effective-security/mcpclient/mcp"
	"github.com/effective-security/mcpclient/pkg/llmfactory"
	"github.com/effective-security/mcpclient/pkg/llms"
	"github.com/effective-security/mcpclient/processor"
	"github.com/effective-security/mcpclient/tools"
	"github.com/effective-security/xlog"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/mcpclient", "cmd")

const usage = "Usage: mcpclient <path_to_server_script>"

var errUsage = errors.New(usage)

// connectSession is replaced in tests
var connectSession = func(ctx context.Context, target string, opts ...mcp.Option) (mcp.Session, error) {
	return mcp.Connect(ctx, target, opts...)
}

type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configFile string
	provider   string
	model      string
	fullSchema bool
	verbose    bool
	logLevel   string
	python     string
	node       string
}

func main() {
	// a missing .env file is fine
	_ = godotenv.Load()

	color.NoColor = !term.IsTerminal(int(os.Stdout.Fd()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the exit code.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	c := &cli{in: in, out: out, errOut: errOut}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(errOut, usage)
		} else {
			fmt.Fprintf(errOut, "Error: %s\n", err.Error())
		}
		return 1
	}
	return 0
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mcpclient <path_to_server_script>",
		Short:         "Chat with a language model that uses the tools of an MCP server",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setupLogging()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errUsage
			}
			return c.chat(cmd.Context(), args[0])
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configFile, "config", "", "LLM config file, YAML, JSON or TOML")
	pf.StringVar(&c.provider, "provider", "", "LLM provider: GROQ, OPENAI, ANTHROPIC, BEDROCK or GOOGLEAI")
	pf.StringVar(&c.model, "model", "", "LLM model name")
	pf.BoolVar(&c.fullSchema, "full-schema", false, "Send the tool input schemas to the LLM")
	pf.StringVar(&c.logLevel, "log-level", "error", "Log level: trace, debug, info, notice, warning, error, critical")
	pf.StringVar(&c.python, "python", "", "Interpreter for .py server scripts")
	pf.StringVar(&c.node, "node", "", "Interpreter for .js server scripts")
	root.Flags().BoolVar(&c.verbose, "verbose", false, "Print the tool events and the transcript of each query")

	root.AddCommand(c.toolsCmd(), c.schemaCmd())
	return root
}

var logLevels = map[string]xlog.LogLevel{
	"critical": xlog.CRITICAL,
	"error":    xlog.ERROR,
	"warning":  xlog.WARNING,
	"notice":   xlog.NOTICE,
	"info":     xlog.INFO,
	"debug":    xlog.DEBUG,
	"trace":    xlog.TRACE,
}

func (c *cli) setupLogging() error {
	level, ok := logLevels[strings.ToLower(c.logLevel)]
	if !ok {
		return errors.Newf("unsupported log level: %s", c.logLevel)
	}
	xlog.SetFormatter(xlog.NewStringFormatter(c.errOut))
	xlog.SetGlobalLogLevel(level)
	return nil
}

func (c *cli) sessionOptions() []mcp.Option {
	return []mcp.Option{
		mcp.WithCommand(".py", c.python),
		mcp.WithCommand(".js", c.node),
		mcp.WithStderr(c.errOut),
	}
}

func (c *cli) schemaMode() tools.SchemaMode {
	if c.fullSchema {
		return tools.SchemaModeFull
	}
	return tools.SchemaModeDefault
}

func (c *cli) loadLLM(ctx context.Context) (llms.Model, *llmfactory.Config, error) {
	cfg, err := llmfactory.LoadConfig(c.configFile)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "failed to load LLM config")
	}
	if c.provider != "" {
		cfg.Provider = strings.ToUpper(c.provider)
	}
	if c.model != "" {
		cfg.Model = c.model
	}

	model, err := llmfactory.NewLLM(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return model, cfg, nil
}

func (c *cli) chat(ctx context.Context, target string) error {
	model, cfg, err := c.loadLLM(ctx)
	if err != nil {
		return err
	}

	session, err := connectSession(ctx, target, c.sessionOptions()...)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.KV(xlog.DEBUG, "reason", "close", "err", err.Error())
		}
	}()

	list, err := session.ListTools(ctx)
	if err != nil {
		return errors.WithMessage(err, "failed to list tools")
	}
	names := make([]string, len(list))
	for i, t := range list {
		names[i] = t.Name
	}
	fmt.Fprintf(c.out, "\nConnected to server with tools: %v\n", names)

	handler := callbacks.NewFanout(callbacks.NewPackageLogger(logger))
	var pad *callbacks.Scratchpad
	if c.verbose {
		pad = callbacks.NewScratchpad(callbacks.ModeVerbose)
		handler.Add(callbacks.NewPrinter(c.errOut, callbacks.ModeDefault))
		handler.Add(pad)
	}

	opts := []processor.Option{
		processor.WithSchemaMode(c.schemaMode()),
		processor.WithCallback(handler),
	}
	if cfg.MaxTokens > 0 {
		opts = append(opts, processor.WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.Temperature != nil {
		opts = append(opts, processor.WithTemperature(*cfg.Temperature))
	}
	proc := processor.New(model, session, opts...)

	return chatLoop(ctx, c.in, c.out, c.answerFunc(proc, pad))
}
