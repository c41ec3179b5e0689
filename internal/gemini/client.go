package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rcliao/agent-tutor/internal/logging"
	"github.com/rcliao/agent-tutor/internal/model"
)

const (
	defaultBaseURL       = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel         = "gemini-2.5-flash"
	defaultAnalysisModel = "gemini-3-pro-preview"
	defaultTTSModel      = "gemini-2.5-flash-preview-tts"
	defaultVoice         = "Kore"
	defaultHTTPTimeout   = 120 * time.Second
)

// Config captures the runtime settings required to talk to Gemini.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	AnalysisModel  string
	TTSModel       string
	Voice          string
	TimeoutSeconds int
}

// Result is a successful text reply with any grounding sources.
type Result struct {
	Text    string
	Sources []model.Source
}

// Client calls the Gemini REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *logging.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the logger used for per-call logging.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient constructs a client, filling unset config fields with defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          orDefault(cfg.Model, defaultModel),
			AnalysisModel:  orDefault(cfg.AnalysisModel, defaultAnalysisModel),
			TTSModel:       orDefault(cfg.TTSModel, defaultTTSModel),
			Voice:          orDefault(cfg.Voice, defaultVoice),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		log:        logging.Nop(),
	}
	if c.cfg.BaseURL == "" {
		c.cfg.BaseURL = defaultBaseURL
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

// SummarizeMedia analyzes an inline media payload (video, audio, or a
// binary document) in the context of a course.
func (c *Client) SummarizeMedia(ctx context.Context, typ model.MaterialType, data []byte, mimeType, instruction, hint string) (Result, error) {
	op := "summarize_" + string(typ)
	if len(data) == 0 {
		return Result{}, &Error{Op: op, Kind: KindConfig, Message: "media payload is empty"}
	}
	parts := []part{{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}}}
	parts = append(parts, part{Text: joinPrompt(contextPrompt(typ, hint), instruction)})

	modelName := c.cfg.AnalysisModel
	if typ == model.MaterialAudio {
		modelName = c.cfg.Model
	}
	resp, err := c.generate(ctx, op, modelName, generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Text: textOr(resp.text(), emptyAnalysisText(typ))}, nil
}

// SummarizeText analyzes plain document text in the context of a course.
func (c *Client) SummarizeText(ctx context.Context, text, instruction, hint string) (Result, error) {
	const op = "summarize_text"
	if strings.TrimSpace(text) == "" {
		return Result{}, &Error{Op: op, Kind: KindConfig, Message: "document text is empty"}
	}
	parts := []part{
		{Text: text},
		{Text: joinPrompt(contextPrompt(model.MaterialDocument, hint), instruction)},
	}
	resp, err := c.generate(ctx, op, c.cfg.AnalysisModel, generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Text: textOr(resp.text(), "No analysis generated.")}, nil
}

// Chat continues a conversation. Prior turns are sent as history and
// systemInstruction carries the grounding context. Discovered web sources are
// appended to the reply text as a markdown list.
func (c *Client) Chat(ctx context.Context, history []model.Message, text, systemInstruction string, webSearch bool) (Result, error) {
	contents := make([]content, 0, len(history)+1)
	for _, m := range history {
		contents = append(contents, content{Role: string(m.Role), Parts: []part{{Text: m.Content}}})
	}
	contents = append(contents, textContent(text))

	req := generateRequest{Contents: contents, Tools: searchTools(webSearch)}
	if systemInstruction != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: systemInstruction}}}
	}
	resp, err := c.generate(ctx, "chat", c.cfg.Model, req)
	if err != nil {
		return Result{}, err
	}
	sources := resp.sources()
	return Result{
		Text:    textOr(resp.text(), "I couldn't generate a response.") + formatSources(sources),
		Sources: sources,
	}, nil
}

// Research produces a web-grounded overview of query.
func (c *Client) Research(ctx context.Context, query, hint string) (Result, error) {
	var ctxPrompt string
	if hint != "" {
		ctxPrompt = fmt.Sprintf("The user is studying %q. Tailor the research to this field.", hint)
	}
	prompt := fmt.Sprintf("Provide a comprehensive educational overview for the following topic/query. %s Be detailed and structured: %s", ctxPrompt, query)
	resp, err := c.generate(ctx, "research", c.cfg.Model, generateRequest{
		Contents: []content{textContent(prompt)},
		Tools:    searchTools(true),
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Text: textOr(resp.text(), "No result found."), Sources: resp.sources()}, nil
}

// Synthesize builds a course-wide summary and syllabus from materials.
func (c *Client) Synthesize(ctx context.Context, materials []model.Material, courseTitle string) (Result, error) {
	if len(materials) == 0 {
		return Result{Text: "No materials available to synthesize."}, nil
	}
	resp, err := c.generate(ctx, "synthesize", c.cfg.Model, generateRequest{
		Contents: []content{textContent(synthesisPrompt(materials, courseTitle))},
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Text: textOr(resp.text(), "Could not generate synthesis.")}, nil
}

// TitleFor generates a short conversation title from its first message.
func (c *Client) TitleFor(ctx context.Context, message string) (string, error) {
	const op = "title"
	prompt := fmt.Sprintf("Generate a very short, concise title (max 4-5 words) for a chat conversation that begins with this user message. Do not use quotes or prefixes. Message: %q", message)
	resp, err := c.generate(ctx, op, c.cfg.Model, generateRequest{
		Contents: []content{textContent(prompt)},
	})
	if err != nil {
		return "", err
	}
	title := stripQuotes(strings.TrimSpace(resp.text()))
	if title == "" {
		return "", &Error{Op: op, Kind: KindEmpty, Message: "no title generated"}
	}
	return title, nil
}

// TextToSpeech returns raw PCM audio (mono, 24kHz, signed 16-bit little
// endian) for text.
func (c *Client) TextToSpeech(ctx context.Context, text string) ([]byte, error) {
	const op = "speech"
	resp, err := c.generate(ctx, op, c.cfg.TTSModel, generateRequest{
		Contents: []content{{Parts: []part{{Text: text}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: c.cfg.Voice}},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	encoded := resp.audio()
	if encoded == "" {
		return nil, &Error{Op: op, Kind: KindEmpty, Message: "no audio returned"}
	}
	pcm, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindBadResponse, Message: "decode audio", Err: err}
	}
	return pcm, nil
}

func (c *Client) generate(ctx context.Context, op, modelName string, payload generateRequest) (resp *generateResponse, err error) {
	start := time.Now()
	defer func() {
		collaboratorCalls.WithLabelValues(op, statusLabel(err)).Inc()
		collaboratorDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		if err != nil {
			c.log.Warn("gemini call failed", "op", op, "model", modelName, "duration", time.Since(start), "error", err)
			return
		}
		c.log.Debug("gemini call", "op", op, "model", modelName, "duration", time.Since(start))
	}()

	if c.cfg.APIKey == "" {
		return nil, &Error{Op: op, Kind: KindConfig, Message: "api key not configured; set GEMINI_API_KEY"}
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "models", modelName+":generateContent")
	if err != nil {
		return nil, &Error{Op: op, Kind: KindConfig, Message: "build url", Err: err}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindConfig, Message: "encode request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Op: op, Kind: KindConfig, Message: "new request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindNetwork, Message: "request failed", Err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindNetwork, Message: "read response", Err: err}
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &Error{
			Op:      op,
			Kind:    statusKind(httpResp.StatusCode),
			Status:  httpResp.StatusCode,
			Message: apiErrorMessage(raw),
		}
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &Error{Op: op, Kind: KindBadResponse, Message: "decode response", Err: err}
	}
	if len(parsed.Candidates) == 0 {
		return nil, &Error{Op: op, Kind: KindEmpty, Message: "no candidates"}
	}
	return &parsed, nil
}

// sources returns unique web grounding links in first-seen order.
func (r *generateResponse) sources() []model.Source {
	if len(r.Candidates) == 0 || r.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	seen := map[string]int{}
	var out []model.Source
	for _, chunk := range r.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" || chunk.Web.Title == "" {
			continue
		}
		if i, ok := seen[chunk.Web.URI]; ok {
			out[i].Title = chunk.Web.Title
			continue
		}
		seen[chunk.Web.URI] = len(out)
		out = append(out, model.Source{Title: chunk.Web.Title, URL: chunk.Web.URI})
	}
	return out
}

// FormatSources renders sources as the markdown list appended to replies.
func FormatSources(sources []model.Source) string {
	return formatSources(sources)
}

func formatSources(sources []model.Source) string {
	if len(sources) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n**Search Sources:**\n")
	for _, s := range sources {
		fmt.Fprintf(&b, "- [%s](%s)\n", s.Title, s.URL)
	}
	return b.String()
}

func textOr(text, fallback string) string {
	if text == "" {
		return fallback
	}
	return text
}

func stripQuotes(s string) string {
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimPrefix(s, `'`)
	s = strings.TrimSuffix(s, `"`)
	return strings.TrimSuffix(s, `'`)
}
