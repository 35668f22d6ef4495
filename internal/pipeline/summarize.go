// =============================================================================
// summarize.go - batched LLM annotation with provider fallback
// =============================================================================
package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// provider is one entry in the fallback chain. retryRateLimit providers get
// three attempts with a pause between them when rate-limited; the others
// yield to the next provider on any failure.
type provider struct {
	name           string
	call           func(prompt string) (string, error)
	retryRateLimit bool
}

// Annotator sends one batched prompt per run and maps the indexed response
// back onto the records.
type Annotator struct {
	Providers []provider
	Backoff   time.Duration
}

// Placeholder annotations used when no provider answers for a record.
const (
	ArticlePlaceholder = "★★★☆☆ (unrated)"
	ReportPlaceholder  = "(no summary)"
)

// ArticlePrompt asks for a relevance rating per article title.
const ArticlePrompt = "You are a sociology professor triaging new journal articles for a research group. " +
	"For each numbered article below, rate its likely interest to quantitative social scientists " +
	"from ★☆☆☆☆ to ★★★★★ and add a clause explaining the rating. " +
	"Respond with ONLY a JSON array, one object per article, " +
	`in the form [{"index": 1, "text": "★★★★☆ ..."}]. Articles:`

// ReportPrompt asks for a one-line summary per report title.
const ReportPrompt = "You are a policy analyst. For each numbered report title below, write one short " +
	"sentence saying what the report is about and who should read it. " +
	"Respond with ONLY a JSON array, one object per report, " +
	`in the form [{"index": 1, "text": "..."}]. Reports:`

// DefaultAnnotator builds the provider chain from the environment: every
// configured Gemini key in order, then Groq, then OpenRouter.
func DefaultAnnotator(cfg SourceConfig) *Annotator {
	a := &Annotator{Backoff: 10 * time.Second}
	for i, env := range []string{"GEMINI_API_KEY", "GEMINI_API_KEY_2", "GEMINI_API_KEY_3"} {
		if key := os.Getenv(env); key != "" {
			a.Providers = append(a.Providers, newGeminiProvider(
				fmt.Sprintf("gemini-%d", i+1), key,
				"https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent",
				cfg))
		}
	}
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		a.Providers = append(a.Providers, newChatProvider("groq", key,
			"https://api.groq.com/openai/v1/chat/completions",
			"llama-3.3-70b-versatile", false, cfg))
	}
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		a.Providers = append(a.Providers, newChatProvider("openrouter", key,
			"https://openrouter.ai/api/v1/chat/completions",
			"meta-llama/llama-3.3-70b-instruct:free", true, cfg))
	}
	return a
}

// Annotate fills each record's Annotation in place. The whole batch is one
// prompt; records the model skipped, and the whole batch when every provider
// fails, get the placeholder. Never returns an error: annotation is
// best-effort by contract.
func (a *Annotator) Annotate(recs []Record, intro, placeholder string) {
	if len(recs) == 0 {
		return
	}
	prompt := buildPrompt(recs, intro)
	byIndex := map[int]string{}
	for _, p := range a.Providers {
		attempts := 1
		if p.retryRateLimit {
			attempts = 3
		}
		ok := false
		for attempt := 0; attempt < attempts; attempt++ {
			raw, err := p.call(prompt)
			if err == nil {
				if parsed := parseAnnotations(raw); len(parsed) > 0 {
					byIndex = parsed
					ok = true
					break
				}
				warnf("annotator %s: unparseable response", p.name)
				break
			}
			if isRateLimited(err) && attempt < attempts-1 {
				pause := time.Duration(attempt+1) * a.Backoff
				warnf("annotator %s rate-limited, retrying in %v", p.name, pause)
				time.Sleep(pause)
				continue
			}
			warnf("annotator %s: %v", p.name, err)
			break
		}
		if ok {
			break
		}
	}
	for i := range recs {
		if text, found := byIndex[i+1]; found && strings.TrimSpace(text) != "" {
			recs[i].Annotation = strings.TrimSpace(text)
		} else {
			recs[i].Annotation = placeholder
		}
	}
}

func buildPrompt(recs []Record, intro string) string {
	var b strings.Builder
	b.WriteString(intro)
	b.WriteString("\n")
	for i, r := range recs {
		label := r.Institution
		if label == "" {
			label = r.Source
		}
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, label, r.Title)
	}
	return b.String()
}

// parseAnnotations extracts the JSON array from a model response, tolerating
// fenced code blocks and leading prose by slicing from the first '[' to the
// last ']'. Returns a 1-based index map.
func parseAnnotations(raw string) map[int]string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil
	}
	var items []struct {
		Index int    `json:"index"`
		Text  string `json:"text"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &items); err != nil {
		return nil
	}
	out := map[int]string{}
	for _, it := range items {
		if it.Index > 0 {
			out[it.Index] = it.Text
		}
	}
	return out
}

func isRateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

// newGeminiProvider calls the Gemini generateContent endpoint directly.
// Gemini keys are rate-limit retried like openrouter; thinking is disabled
// to keep latency and token use down.
func newGeminiProvider(name, key, endpoint string, cfg SourceConfig) provider {
	call := func(prompt string) (string, error) {
		payload := map[string]any{
			"contents": []map[string]any{
				{"parts": []map[string]string{{"text": prompt}}},
			},
			"generationConfig": map[string]any{
				"maxOutputTokens": 2000,
				"thinkingConfig":  map[string]int{"thinkingBudget": 0},
			},
		}
		body, err := postJSON(endpoint+"?key="+key, "", payload, cfg)
		if err != nil {
			return "", err
		}
		var resp struct {
			Candidates []struct {
				Content struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"content"`
			} `json:"candidates"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("decode gemini response: %w", err)
		}
		if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
			return "", fmt.Errorf("gemini returned no candidates")
		}
		parts := resp.Candidates[0].Content.Parts
		return parts[len(parts)-1].Text, nil
	}
	return provider{name: name, call: call, retryRateLimit: true}
}

// newChatProvider covers the OpenAI-compatible chat endpoints (Groq,
// OpenRouter).
func newChatProvider(name, key, endpoint, model string, retryRateLimit bool, cfg SourceConfig) provider {
	call := func(prompt string) (string, error) {
		payload := map[string]any{
			"model": model,
			"messages": []map[string]string{
				{"role": "user", "content": prompt},
			},
		}
		body, err := postJSON(endpoint, key, payload, cfg)
		if err != nil {
			return "", err
		}
		var resp struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("decode %s response: %w", name, err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("%s returned no choices", name)
		}
		return resp.Choices[0].Message.Content, nil
	}
	return provider{name: name, call: call, retryRateLimit: retryRateLimit}
}

// postJSON posts a JSON payload and returns the body. Non-2xx responses
// become errors carrying the status code so rate limits are classifiable.
func postJSON(endpoint, bearer string, payload any, cfg SourceConfig) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := cfg.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncateRunes(string(body), 200))
	}
	return body, nil
}
