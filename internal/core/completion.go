package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/unova-mun/unova-server/internal/logger"
	"github.com/unova-mun/unova-server/internal/store"
)

type AssistanceType string

const (
	AssistanceGeneral       AssistanceType = "GENERAL"
	AssistanceResearch      AssistanceType = "RESEARCH"
	AssistanceSpeechwriting AssistanceType = "SPEECHWRITING"
	AssistanceDebate        AssistanceType = "DEBATE"
	AssistanceResolution    AssistanceType = "RESOLUTION"
)

var systemInstructions = map[AssistanceType]string{
	AssistanceGeneral: "You are UNova, an AI assistant specialized in helping Model United Nations delegates. " +
		"You provide accurate, concise information about international relations, UN procedures, and diplomatic strategies. " +
		"You can help with research, speechwriting, debate strategy, and resolution drafting.",
	AssistanceResearch: "You are UNova's Research Assistant. You provide accurate, up-to-date information on country policies, " +
		"UN history, international relations, and global issues. Cite sources when possible and focus on factual, " +
		"unbiased information useful for MUN delegates.",
	AssistanceSpeechwriting: "You are UNova's Speechwriting Assistant. You help delegates craft compelling speeches for Model UN conferences. " +
		"Structure speeches with formal address, problem definition, national position, policy proposals, and a call to action. " +
		"Maintain diplomatic tone and formal language appropriate for UN settings.",
	AssistanceDebate: "You are UNova's Debate Strategy Assistant. You help delegates prepare arguments, counterarguments, and rebuttals " +
		"based on their country's position. Provide tactical advice for moderated and unmoderated caucuses, point out potential " +
		"allies and opponents, and suggest diplomatic language for challenging situations.",
	AssistanceResolution: "You are UNova's Resolution Drafting Assistant. You help delegates create well-structured UN resolutions " +
		"with appropriate preambulatory and operative clauses. Ensure proper formatting, clear language, and logical flow " +
		"while maintaining diplomatic terminology consistent with UN documents.",
}

const (
	temperature     = float32(0.7)
	topP            = float32(0.95)
	topK            = int32(40)
	maxOutputTokens = int32(2048)

	roleModel = "model"
)

// ParseAssistanceType falls back to GENERAL for empty or unknown values.
func ParseAssistanceType(s string) AssistanceType {
	t := AssistanceType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := systemInstructions[t]; ok {
		return t
	}
	return AssistanceGeneral
}

func SystemInstructionFor(t AssistanceType) string {
	if instruction, ok := systemInstructions[t]; ok {
		return instruction
	}
	return systemInstructions[AssistanceGeneral]
}

// GenerationBackend performs the network call. Contents keep the
// "system" role for instruction entries; the backend decides how to send
// them.
type GenerationBackend interface {
	Generate(ctx context.Context, contents []*genai.Content) (string, error)
	Close() error
}

type CompletionOptions struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type CompletionClient struct {
	backend GenerationBackend
	timeout time.Duration
	log     *logger.Logger
}

// NewCompletionClient builds a Gemini-backed client. Without an API key
// it still returns a client; every GenerateReply call then fails with a
// ConfigurationError.
func NewCompletionClient(ctx context.Context, opts CompletionOptions, log *logger.Logger) (*CompletionClient, error) {
	c := &CompletionClient{timeout: opts.Timeout, log: log}
	if opts.APIKey == "" {
		log.Warn("GEMINI_API_KEY is not set; chat requests will fail until it is configured")
		return c, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	c.backend = &geminiBackend{client: client, model: opts.Model}
	return c, nil
}

// NewCompletionClientWithBackend wires an explicit backend, e.g. a stub.
func NewCompletionClientWithBackend(backend GenerationBackend, timeout time.Duration, log *logger.Logger) *CompletionClient {
	return &CompletionClient{backend: backend, timeout: timeout, log: log}
}

func (c *CompletionClient) Close() {
	if c.backend == nil {
		return
	}
	if err := c.backend.Close(); err != nil {
		c.log.Warn("Error closing GenAI client", "error", err)
	} else {
		c.log.Info("GenAI client closed")
	}
}

// GenerateReply sends the whole history in one call and returns the full
// reply text. There is no retry.
func (c *CompletionClient) GenerateReply(ctx context.Context, history []store.Message, assistanceType string) (string, error) {
	if c.backend == nil {
		return "", &ConfigurationError{Message: "Gemini API key not configured"}
	}

	contents := formatHistory(history, ParseAssistanceType(assistanceType))

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := c.backend.Generate(ctx, contents)
	if err != nil {
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			return "", err
		}
		return "", &UpstreamError{Err: err}
	}
	c.log.Debug("Generated reply", "messages", len(contents), "duration", time.Since(start))
	return reply, nil
}

// formatHistory prepends the instruction for t unless the history already
// opens with a system message, and maps roles to Gemini's names.
func formatHistory(history []store.Message, t AssistanceType) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	if len(history) == 0 || history[0].Role != store.RoleSystem {
		contents = append(contents, &genai.Content{
			Role:  string(store.RoleSystem),
			Parts: []genai.Part{genai.Text(SystemInstructionFor(t))},
		})
	}
	for _, msg := range history {
		role := string(msg.Role)
		if msg.Role == store.RoleAssistant {
			role = roleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return contents
}

type geminiBackend struct {
	client *genai.Client
	model  string
}

func (b *geminiBackend) Close() error {
	return b.client.Close()
}

func (b *geminiBackend) Generate(ctx context.Context, contents []*genai.Content) (string, error) {
	model := b.client.GenerativeModel(b.model)
	configureModel(model)

	system, turns := splitSystem(contents)
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: system}
	}
	if len(turns) == 0 {
		return "", fmt.Errorf("prompt history is empty for chat completion")
	}

	last := turns[len(turns)-1]
	if last.Role != string(store.RoleUser) {
		return "", fmt.Errorf("last message in history is not from 'user', cannot proceed with chat completion")
	}

	chatSession := model.StartChat()
	chatSession.History = turns[:len(turns)-1]

	resp, err := chatSession.SendMessage(ctx, last.Parts...)
	if err != nil {
		return "", &UpstreamError{Err: fmt.Errorf("gemini chat SendMessage failed: %w", err)}
	}
	return extractText(resp)
}

// configureModel applies the fixed sampling parameters and safety
// thresholds used for every request.
func configureModel(model *genai.GenerativeModel) {
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetTopK(topK)
	model.SetMaxOutputTokens(maxOutputTokens)
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockMediumAndAbove},
	}
}

func splitSystem(contents []*genai.Content) ([]genai.Part, []*genai.Content) {
	var system []genai.Part
	turns := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		if c.Role == string(store.RoleSystem) {
			system = append(system, c.Parts...)
			continue
		}
		turns = append(turns, c)
	}
	return system, turns
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &UpstreamError{Err: errors.New("invalid response structure from Gemini API")}
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}
	if responseText.Len() == 0 {
		return "", &UpstreamError{Err: errors.New("empty response from Gemini API")}
	}
	return responseText.String(), nil
}
