// internal/agent/invoker.go
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const systemPrompt = `You are a code analysis agent. You inspect a repository using only the provided read-only tools (read_file, glob, grep) and then produce documentation about it. All file paths are relative to the repository root. You cannot write files, execute code, or access the network. Explore the repository as needed before answering. When you are done, reply with your final answer and no further tool calls.`

// Config holds the provider settings for LLMInvoker.
type Config struct {
	Model         string
	BaseURL       string
	APIKey        string
	MaxTokens     int
	MaxIterations int
}

// LLMInvoker runs agent sessions through an openai-compatible chat endpoint,
// driving a tool-calling loop until the model stops requesting tools or the
// iteration budget runs out.
type LLMInvoker struct {
	llm           *openai.LLM
	maxTokens     int
	maxIterations int
	logger        *zap.Logger
}

var _ Invoker = (*LLMInvoker)(nil)

// NewLLMInvoker builds an invoker from the given provider config.
func NewLLMInvoker(cfg Config, logger *zap.Logger) (*LLMInvoker, error) {
	if cfg.Model == "" {
		return nil, errors.New("agent model is required")
	}
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating llm client: %w", err)
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 50
	}
	return &LLMInvoker{
		llm:           llm,
		maxTokens:     cfg.MaxTokens,
		maxIterations: cfg.MaxIterations,
		logger:        logger,
	}, nil
}

// Invoke runs one session sandboxed to targetPath. A context deadline that
// expires mid-session yields a Result with StopTimeout rather than an error;
// transport failures are returned as errors.
func (inv *LLMInvoker) Invoke(ctx context.Context, instructions, targetPath string, responseSchema any) (*Result, error) {
	tb := newToolbox(targetPath)

	system := systemPrompt
	if responseSchema != nil {
		schemaJSON, err := json.Marshal(responseSchema)
		if err != nil {
			return nil, fmt.Errorf("marshaling response schema: %w", err)
		}
		system += "\n\nYour final answer must be exactly one JSON object conforming to this schema, with no code fences and no surrounding prose:\n" + string(schemaJSON)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, instructions),
	}

	callOpts := []llms.CallOption{
		llms.WithTools(toolDefinitions()),
		llms.WithTemperature(0),
	}
	if inv.maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(inv.maxTokens))
	}

	for i := 0; i < inv.maxIterations; i++ {
		resp, err := inv.llm.GenerateContent(ctx, messages, callOpts...)
		if err != nil {
			if ctx.Err() != nil {
				return &Result{StopReason: StopTimeout}, nil
			}
			return nil, fmt.Errorf("agent session failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, errors.New("agent session failed: empty response")
		}
		choice := resp.Choices[0]

		if len(choice.ToolCalls) == 0 {
			reason := mapStopReason(choice.StopReason)
			return &Result{
				RawText:    choice.Content,
				StopReason: reason,
				Success:    reason == StopCompleted && choice.Content != "",
			}, nil
		}

		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			assistant.Parts = append(assistant.Parts, llms.TextPart(choice.Content))
		}
		for _, tc := range choice.ToolCalls {
			assistant.Parts = append(assistant.Parts, tc)
		}
		messages = append(messages, assistant)

		for _, tc := range choice.ToolCalls {
			content := inv.dispatchTool(tb, tc)
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       tc.FunctionCall.Name,
					Content:    content,
				}},
			})
		}
	}

	inv.logger.Warn("agent session hit iteration budget",
		zap.Int("max_iterations", inv.maxIterations),
		zap.String("target", targetPath))
	return &Result{StopReason: StopMaxOutput}, nil
}

func (inv *LLMInvoker) dispatchTool(tb *toolbox, tc llms.ToolCall) string {
	name := tc.FunctionCall.Name
	var args struct {
		Path    string `json:"path"`
		Pattern string `json:"pattern"`
	}
	if err := json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args); err != nil {
		return "error: malformed tool arguments: " + err.Error()
	}

	inv.logger.Debug("agent tool call",
		zap.String("tool", name),
		zap.String("path", args.Path),
		zap.String("pattern", args.Pattern))

	switch name {
	case "read_file":
		out, err := tb.ReadFile(args.Path)
		if err != nil {
			return "error: " + err.Error()
		}
		return out
	case "glob":
		paths, err := tb.Glob(args.Pattern)
		if err != nil {
			return "error: " + err.Error()
		}
		if len(paths) == 0 {
			return "no files matched"
		}
		out, _ := json.Marshal(paths)
		return string(out)
	case "grep":
		matches, err := tb.Grep(args.Pattern, args.Path)
		if err != nil {
			return "error: " + err.Error()
		}
		if len(matches) == 0 {
			return "no matches"
		}
		var b []byte
		for _, m := range matches {
			b = append(b, fmt.Sprintf("%s:%d: %s\n", m.Path, m.Line, m.Text)...)
		}
		return string(b)
	default:
		return "error: unknown tool " + name
	}
}

func mapStopReason(s string) StopReason {
	switch s {
	case "stop", "end_turn":
		return StopCompleted
	case "length", "max_tokens":
		return StopMaxOutput
	case "content_filter", "refusal":
		return StopRefused
	default:
		return StopUnknown
	}
}

func toolDefinitions() []llms.Tool {
	return []llms.Tool{
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "read_file",
				Description: "Read the contents of one file in the repository. Large files are truncated.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"path": map[string]any{
							"type":        "string",
							"description": "File path relative to the repository root",
						},
					},
					"required": []string{"path"},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "glob",
				Description: "List files in the repository matching a glob pattern, e.g. '**/*.go' or 'src/*.ts'.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"pattern": map[string]any{
							"type":        "string",
							"description": "Glob pattern matched against paths relative to the repository root",
						},
					},
					"required": []string{"pattern"},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "grep",
				Description: "Search file contents for a regular expression. Returns matching lines as path:line: text.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"pattern": map[string]any{
							"type":        "string",
							"description": "Regular expression to search for",
						},
						"path": map[string]any{
							"type":        "string",
							"description": "Directory to search, relative to the repository root. Defaults to the whole repository.",
						},
					},
					"required": []string{"pattern"},
				},
			},
		},
	}
}
