package generation

import (
	"fmt"
	"strings"

	"github.com/phrazzld/newsmaker-api/internal/domain"
)

// maxNewsRunes caps the news text included in the analysis prompt.
const maxNewsRunes = 10000

const analysisSystem = "You are an expert PR Strategist. Output ONLY JSON. Always reply in Russian."

const analysisTask = `
Task:
1. Extract key facts, quotes, and summary.
2. Determine sentiment specifically towards the BRAND (if mentioned) or the market.
3. Decide on a PR Verdict: Should we respond? Ignore? Newsjack?
4. Provide a Relevance Score (0-100) based on:
   - Direct Brand Mention: +40
   - Market Impact: +30
   - Urgency: +30
5. Determine the Category:
   - CRISIS: Negative sentiment, scandals, threats.
   - PRODUCT: Launches, updates, features.
   - COMPETITOR: Competitor news.
   - ROUTINE: General industry news, lists.
6. Provide 3 actionable TIPS on how to execute this strategy.

IMPORTANT: Output MUST be valid JSON matching the schema. All text fields in RUSSIAN.
Sentiment MUST be one of: "Позитивная", "Негативная", "Нейтральная".

Schema:
{
  "summary": "string",
  "facts": ["string"],
  "quotes": ["string"],
  "sentiment": "Позитивная|Негативная|Нейтральная",
  "topics": ["string"],
  "relevance_score": 0-100,
  "pr_verdict": "Отвечать|Игнорировать|Мониторить|Ньюсджекинг",
  "pr_reasoning": "string",
  "category": "CRISIS|PRODUCT|COMPETITOR|ROUTINE",
  "tips": ["string"]
}`

// AnalysisPrompt builds the prompt for the analyze stage.
func AnalysisPrompt(req domain.Request, newsText string) Prompt {
	var role, brandContext string

	if req.EffectiveMode() == domain.ModeBlogger {
		target := req.TargetBrand
		if target == "" {
			target = "Unknown Brand"
		}
		role = fmt.Sprintf("YOUR ROLE: You are a tech/business BLOGGER analyzing news about %s.\n"+
			"You provide independent, objective analysis with your own opinion.", target)
		if req.Brand != nil {
			brandContext = fmt.Sprintf("YOUR PERSONAL STYLE:\nTone of Voice: %s\nTarget Audience: %s",
				req.Brand.ToneOfVoice, req.Brand.TargetAudience)
		}
	} else if req.Brand != nil {
		b := req.Brand
		role = fmt.Sprintf("YOUR ROLE: You are a PR Strategist for %s.", b.Name)
		brandContext = fmt.Sprintf("BRAND PROFILE:\nName: %s\nDescription: %s\nTone of Voice: %s\nTarget Audience: %s",
			b.Name, b.Description, b.ToneOfVoice, b.TargetAudience)
	} else {
		role = "YOUR ROLE: You are a PR Strategist."
	}

	var sb strings.Builder
	sb.WriteString(role)
	sb.WriteString("\n\nAnalyze the following news text.\n\n")
	if brandContext != "" {
		sb.WriteString(brandContext)
		sb.WriteString("\n\n")
	}
	sb.WriteString("News Text:\n")
	sb.WriteString(truncateRunes(newsText, maxNewsRunes))
	sb.WriteString("\n")
	sb.WriteString(analysisTask)

	return Prompt{System: analysisSystem, User: sb.String(), JSON: true}
}

// StyleGuide returns the structural template a platform's draft must follow.
func StyleGuide(p domain.Platform) string {
	switch p {
	case domain.PlatformEmail:
		return `ФОРМАТ СЛУЖЕБНОЙ ЗАПИСКИ.
Структура:
Тема: [Четкая, побуждающая к действию тема]
Кому: [Целевые стейкхолдеры]
Рекомендация: [Конкретный совет]

Текст:
[Краткий анализ ситуации и обоснование позиции. Официально, но прямо.]`
	case domain.PlatformPressRelease:
		return `ФОРМАТ ОФИЦИАЛЬНОГО ПРЕСС-РЕЛИЗА.
Структура:
ДЛЯ НЕМЕДЛЕННОГО РАСПРОСТРАНЕНИЯ

[ЗАГОЛОВОК]

[Город, Дата] — [Лид-абзац]

[Основной текст]

[О компании]

Контакты для СМИ:
[Имя/Email]`
	case domain.PlatformTelegram:
		return "Telegram Channel Style. Use Markdown (*bold*) and Emojis. Short paragraphs."
	default:
		return "Engaging social media style. Emojis allowed. NO Markdown headers. Ready to publish."
	}
}

// DraftPrompt builds the compose prompt for one platform.
func DraftPrompt(req domain.Request, analysis domain.Analysis, snippets []string, p domain.Platform) Prompt {
	var role, voice string
	if req.EffectiveMode() == domain.ModeBlogger {
		brand := req.TargetBrand
		if brand == "" {
			brand = "Unknown Brand"
		}
		role = fmt.Sprintf("You are a TECH/BUSINESS BLOGGER reviewing news about %s.", brand)
		voice = fmt.Sprintf("Write as an independent blogger giving your opinion on %s.", brand)
	} else {
		brand := req.EffectiveBrand().Name
		role = fmt.Sprintf("You are the Head of Communications for %s.", brand)
		voice = fmt.Sprintf("Write AS %s. You are the official voice of the brand.", brand)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n", voice)
	sb.WriteString("CRITICAL RULES:\n")
	fmt.Fprintf(&sb, "1. Perspective: %s\n", voice)
	sb.WriteString("2. Language: The post MUST be in RUSSIAN (except for the Image Prompt).\n")
	fmt.Fprintf(&sb, "3. Structure: Follow the Style Guide for %s strictly.\n", p)
	sb.WriteString("4. Grounding: Base content on facts.\n\n")

	sb.WriteString("Analysis:\n")
	fmt.Fprintf(&sb, "- Summary: %s\n", analysis.Summary)
	fmt.Fprintf(&sb, "- Facts: %s\n", strings.Join(analysis.Facts, ", "))
	fmt.Fprintf(&sb, "- Sentiment: %s\n", analysis.Sentiment)
	fmt.Fprintf(&sb, "- PR Verdict: %s (%s)\n\n", analysis.Verdict, analysis.Reasoning)

	sb.WriteString("Brand Context:\n")
	sb.WriteString(strings.Join(snippets, "\n"))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Style Guide: %s\n\n", StyleGuide(p))

	sb.WriteString("REQUIRED OUTPUT FORMAT:\n")
	sb.WriteString("1. Output ONLY the final post text.\n")
	sb.WriteString("2. For Email/Press Release, include the headers (Subject, Title) as part of the text.\n")
	sb.WriteString("3. Do NOT include \"Image Prompt:\" label.\n\n")
	fmt.Fprintf(&sb, "At the very end, strictly separated by %q, provide the Image Prompt in English.\n", DraftDelimiter)

	return Prompt{System: role, User: sb.String()}
}

// truncateRunes returns at most n runes of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
