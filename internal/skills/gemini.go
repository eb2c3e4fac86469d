package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"github.com/ticketwise-io/ticketwise/internal/models"
)

const extractPrompt = `You are an IT service management triage assistant.
Given a support ticket, extract the skills required to resolve it.

Respond with JSON only, in this exact shape:
{"critical_skills": [...], "important_skills": [...], "nice_to_have": [...]}

critical_skills: skills without which the ticket cannot be resolved.
important_skills: skills that significantly speed up resolution.
nice_to_have: skills that help but are optional.
Use short lowercase skill names ("aws", "networking", "postgresql").

Category: %s
Ticket:
%s`

// GeminiExtractor asks Gemini for skill requirements in JSON mode, with
// the keyword extractor as fallback when the model is unreachable.
type GeminiExtractor struct {
	client   *genai.Client
	model    string
	fallback KeywordExtractor
	logger   *log.Logger
}

func NewGeminiExtractor(client *genai.Client, model string, logger *log.Logger) *GeminiExtractor {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if logger == nil {
		logger = log.Default()
	}
	return &GeminiExtractor{client: client, model: model, logger: logger}
}

func (g *GeminiExtractor) ExtractSkills(ctx context.Context, text, category string) (models.SkillRequirements, error) {
	if g.client == nil {
		return g.fallback.ExtractSkills(ctx, text, category)
	}

	prompt := fmt.Sprintf(extractPrompt, category, text)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		g.logger.Printf("skill extraction fell back to keywords: %v", err)
		return g.fallback.ExtractSkills(ctx, text, category)
	}

	raw, err := responseText(resp)
	if err != nil {
		g.logger.Printf("skill extraction fell back to keywords: %v", err)
		return g.fallback.ExtractSkills(ctx, text, category)
	}

	var req models.SkillRequirements
	if err := json.Unmarshal([]byte(cleanJSONBlock(raw)), &req); err != nil {
		return models.SkillRequirements{}, fmt.Errorf("failed to parse skill extraction response: %w", err)
	}
	return req.Normalize(), nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

// cleanJSONBlock strips markdown fences the model sometimes wraps around
// JSON despite the response MIME type.
func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}
