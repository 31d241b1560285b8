package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/shubh-37/ideaflow/config"
)

// ContentGenerator is the slice of the Gemini client the agent needs.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenerationError wraps any failed or unusable generation: transport errors,
// empty payloads and JSON that does not match the requested schema.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

var (
	ErrEmptyResponse = errors.New("empty response from model")
	ErrNoImage       = errors.New("no inline image in response")
)

// IdeaAgent issues schema-constrained calls to Gemini and turns the replies
// into typed records. Every exported operation absorbs its own failures.
type IdeaAgent struct {
	gen        ContentGenerator
	textModel  string
	imageModel string
	logger     *zap.Logger
}

// NewIdeaAgent creates a Gemini-backed agent from configuration
func NewIdeaAgent(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*IdeaAgent, error) {
	if cfg.GeminiKey == "" {
		return nil, &config.ConfigurationError{Key: "GEMINI_API_KEY", Reason: "is required"}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return NewIdeaAgentWithGenerator(client.Models, cfg.TextModel, cfg.ImageModel, logger), nil
}

func NewIdeaAgentWithGenerator(gen ContentGenerator, textModel, imageModel string, logger *zap.Logger) *IdeaAgent {
	if textModel == "" {
		textModel = config.DefaultTextModel
	}
	if imageModel == "" {
		imageModel = config.DefaultImageModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &IdeaAgent{
		gen:        gen,
		textModel:  textModel,
		imageModel: imageModel,
		logger:     logger,
	}
}

// callJSON runs a text-model request constrained to schema and decodes the
// reply into out.
func (a *IdeaAgent) callJSON(ctx context.Context, op, prompt string, schema *genai.Schema, out any) error {
	resp, err := a.gen.GenerateContent(ctx, a.textModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return &GenerationError{Op: op, Err: fmt.Errorf("failed to call Gemini API: %w", err)}
	}
	if resp == nil {
		return &GenerationError{Op: op, Err: ErrEmptyResponse}
	}

	text := stripCodeFence(resp.Text())
	if text == "" {
		return &GenerationError{Op: op, Err: ErrEmptyResponse}
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return &GenerationError{Op: op, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	return nil
}

func (a *IdeaAgent) logFailure(err error, fields ...zap.Field) {
	a.logger.Warn("⚠️ Generation failed", append(fields, zap.Error(err))...)
}

// stripCodeFence removes a markdown fence some models wrap around JSON even
// in JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl != -1 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
