package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"seo-assistant/cmd/seomock/repositories"
)

// SuggestRequest is the conversation context a suggestion is generated from.
type SuggestRequest struct {
	SessionTitle string
	// Anchor is the first user message of the session.
	Anchor      string
	Instruction string
	// Draft is the latest agent suggestion of the session, if any.
	Draft *repositories.Suggestion
}

type Suggester interface {
	Suggest(ctx context.Context, req SuggestRequest) (repositories.Suggestion, error)
}

// CannedSuggester answers instantly with text derived from the prompt.
type CannedSuggester struct{}

func (CannedSuggester) Suggest(_ context.Context, req SuggestRequest) (repositories.Suggestion, error) {
	return Suggest(req.SessionTitle, req.Instruction), nil
}

const systemInstruction = `
You are an SEO writing assistant that generates optimized content and metadata.
Your response MUST be a valid JSON object with exactly these keys:
  "page_title": string, a clear H1-style heading with the primary keyword
  "page_content": string, well-structured content, 300+ words unless asked otherwise; use \n\n between paragraphs
  "title_tag": string, 50-60 characters, includes the primary keyword
  "meta_description": string, 150-160 characters, includes the primary keyword and a call to action
  "meta_keywords": array of 5-10 strings focused on search intent
All string values are plain text without HTML or markdown.
You MUST NOT wrap the JSON output in a markdown code block. The response should contain ONLY the raw JSON.
`

// GeminiSuggester generates suggestions with a Gemini model.
type GeminiSuggester struct {
	client *genai.Client
	model  string
}

func NewGeminiSuggester(ctx context.Context, apiKey, model string) (*GeminiSuggester, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiSuggester{client: client, model: model}, nil
}

func (g *GeminiSuggester) Suggest(ctx context.Context, req SuggestRequest) (repositories.Suggestion, error) {
	result, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(BuildPrompt(req)),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
			ResponseMIMEType:  "application/json",
			Temperature:       genai.Ptr[float32](0.2),
		},
	)
	if err != nil {
		return repositories.Suggestion{}, fmt.Errorf("generate content: %w", err)
	}
	return ParseSuggestion(result.Text())
}

// BuildPrompt renders the user turn sent to the model.
func BuildPrompt(req SuggestRequest) string {
	parts := []string{fmt.Sprintf("Session Title: %q", req.SessionTitle)}

	if anchor := strings.TrimSpace(req.Anchor); anchor != "" {
		parts = append(parts, fmt.Sprintf("Original Request: \"\"\"%s\"\"\"", anchor))
	}
	if d := req.Draft; d != nil {
		var draft []string
		for _, kv := range [][2]string{
			{"page_title", d.PageTitle},
			{"page_content", d.PageContent},
			{"title_tag", d.TitleTag},
			{"meta_description", d.MetaDescription},
			{"meta_keywords", strings.Join(d.MetaKeywords, ", ")},
		} {
			if kv[1] != "" {
				draft = append(draft, kv[0]+": "+kv[1])
			}
		}
		if len(draft) > 0 {
			parts = append(parts, "Current Draft:\n"+strings.Join(draft, "\n"))
		}
	}
	if instr := strings.TrimSpace(req.Instruction); instr != "" {
		parts = append(parts, fmt.Sprintf("Current User Instruction: \"\"\"%s\"\"\"", instr))
	}

	parts = append(parts, "Return JSON only.")
	return strings.Join(parts, "\n")
}

// modelSuggestion accepts both the plain keys and the suggested_* spelling models sometimes echo back.
type modelSuggestion struct {
	PageTitle                string   `json:"page_title"`
	PageContent              string   `json:"page_content"`
	TitleTag                 string   `json:"title_tag"`
	MetaDescription          string   `json:"meta_description"`
	MetaKeywords             []string `json:"meta_keywords"`
	SuggestedPageTitle       string   `json:"suggested_page_title"`
	SuggestedPageContent     string   `json:"suggested_page_content"`
	SuggestedTitleTag        string   `json:"suggested_title_tag"`
	SuggestedMetaDescription string   `json:"suggested_meta_description"`
	SuggestedMetaKeywords    []string `json:"suggested_meta_keywords"`
}

// ParseSuggestion decodes a model reply into a suggestion. A surrounding markdown code fence is
// tolerated.
func ParseSuggestion(text string) (repositories.Suggestion, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	var raw modelSuggestion
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return repositories.Suggestion{}, fmt.Errorf("decode suggestion: %w", err)
	}

	s := repositories.Suggestion{
		PageTitle:       firstNonEmpty(raw.PageTitle, raw.SuggestedPageTitle),
		PageContent:     firstNonEmpty(raw.PageContent, raw.SuggestedPageContent),
		TitleTag:        firstNonEmpty(raw.TitleTag, raw.SuggestedTitleTag),
		MetaDescription: firstNonEmpty(raw.MetaDescription, raw.SuggestedMetaDescription),
		MetaKeywords:    raw.MetaKeywords,
	}
	if len(s.MetaKeywords) == 0 {
		s.MetaKeywords = raw.SuggestedMetaKeywords
	}
	if s.PageContent == "" && s.PageTitle == "" {
		return repositories.Suggestion{}, fmt.Errorf("decode suggestion: empty reply")
	}
	return s, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
