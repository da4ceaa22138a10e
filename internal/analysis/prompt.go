package analysis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rewired-gh/outlierscope/internal/models"
)

// maxCaptionRunes bounds the caption context included in the prompt.
const maxCaptionRunes = 1000

const promptTemplate = `Analyze this short-form video focusing on CONTENT STRUCTURE and HOOK TECHNIQUE.

CAPTION/TITLE CONTEXT:
%s

Return a JSON object with exactly these keys:

{
  "hook_technique": "<one of: pattern-interrupt, question, bold-claim, story-tease, visual-shock, curiosity-gap, direct-address, controversial-take, relatable-pain, transformation-preview> followed by the opening line and why it grabs attention",
  "content_structure": "<one of: problem-solution, listicle, story, tutorial, before-after, day-in-life, reaction, transformation, hot-take, tool-demo> with the sections in order, pacing and retention techniques",
  "delivery_style": "<speaking style, energy, text overlays and visual editing style>",
  "cta_strategy": "<one of: comment-keyword, link-bio, follow, save, share, dm, none> with the exact CTA text and where it appears",
  "why_it_works": "<2-3 sentences on why this content performs well>"
}

Focus on ACTIONABLE insights that could be replicated. Be specific about techniques.
Return ONLY valid JSON, no other text.`

// BuildPrompt returns the fixed analysis prompt with the item's caption as context.
func BuildPrompt(caption string) string {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		caption = "No caption"
	}
	if r := []rune(caption); len(r) > maxCaptionRunes {
		caption = string(r[:maxCaptionRunes])
	}
	return fmt.Sprintf(promptTemplate, caption)
}

var codeFence = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// analysisFields maps response keys onto the analysis fields, in assignment
// order. "hook" is accepted for answers that nest the hook under a shorter key;
// hook_technique comes after it and wins when both are present.
var analysisFields = []struct {
	key string
	set func(*models.Analysis, string)
}{
	{"hook", func(a *models.Analysis, v string) { a.HookTechnique = v }},
	{"hook_technique", func(a *models.Analysis, v string) { a.HookTechnique = v }},
	{"content_structure", func(a *models.Analysis, v string) { a.ContentStructure = v }},
	{"delivery_style", func(a *models.Analysis, v string) { a.DeliveryStyle = v }},
	{"cta_strategy", func(a *models.Analysis, v string) { a.CTAStrategy = v }},
	{"why_it_works", func(a *models.Analysis, v string) { a.WhyItWorks = v }},
}

// StripCodeFence returns the contents of the first fenced code block of text,
// or text itself when it has none.
func StripCodeFence(text string) string {
	if m := codeFence.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// ParseAnalysis parses the model's answer. It reports false unless the answer
// is a JSON object carrying at least one of the expected keys. Non-string
// values are kept as compact JSON text.
func ParseAnalysis(text string) (*models.Analysis, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(StripCodeFence(text)), &obj); err != nil {
		return nil, false
	}

	a := &models.Analysis{}
	matched := false
	for _, f := range analysisFields {
		v, ok := obj[f.key]
		if !ok || v == nil {
			continue
		}
		f.set(a, stringify(v))
		matched = true
	}
	if !matched {
		return nil, false
	}
	return a, true
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
