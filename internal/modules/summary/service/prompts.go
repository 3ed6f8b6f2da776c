package service

import (
	"strings"
	"text/template"

	newsdomain "github.com/reshetovitsme/news-digest-bot/internal/modules/news/domain"
	"github.com/samber/oops"
)

const sectionsFormat = `1. 🔍 KEY FACTS:
• [Fact 1]
• [Fact 2]
...
2. 📈 MARKET IMPACTS:
• [Impact 1]
• [Impact 2]
...
3. 🏢 BUSINESS INSIGHTS:
• [Insight 1]
• [Insight 2]
...
4. OVERALL SENTIMENT:
• [Positive/Negative/Neutral]`

var individualPrompt = template.Must(template.New("individual").Parse(`
Analyze the following news article and summarize it in exactly 3 sections plus an overall sentiment.

ARTICLE:
Title: {{.Title}}
Content: {{.Summary}}
Source: {{.Source}}
Keyword: {{.Keyword}}
URL: {{.URL}}

SECTIONS:
1. 🔍 KEY FACTS: the main factual points, events and details.
2. 📈 MARKET IMPACTS: likely effects on markets, economy or industries, marked positive or negative.
3. 🏢 BUSINESS INSIGHTS: strategic implications for companies and sectors.

RULES:
- Use the section headers above with their emojis
- 2-4 bullet points (•) per section
- Stay factual, no speculation
- If a section does not apply, write "No significant impacts identified"
- End with a "Read More" line containing the article URL

FORMAT:
` + sectionsFormat + `

Please provide the analysis:
`))

var combinedPrompt = template.Must(template.New("combined").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`
Analyze the following {{len .}} news articles and write one combined summary in exactly 3 sections plus an overall sentiment.

ARTICLES:
{{range $i, $a := .}}
ARTICLE {{inc $i}}:
Title: {{$a.Title}}
Content: {{$a.Summary}}
Source: {{$a.Source}}
Keyword: {{$a.Keyword}}
URL: {{$a.URL}}
---
{{end}}
SECTIONS:
1. 🔍 KEY FACTS: the most important developments across all articles, grouped by topic.
2. 📈 MARKET IMPACTS: the collective effect on markets, economy or industries.
3. 🏢 BUSINESS INSIGHTS: overall trends and what they mean for companies and sectors.

RULES:
- Use the section headers above with their emojis
- 3-6 bullet points (•) per section
- Point out patterns, contradictions and connections between articles
- Stay factual, no speculation
- End with a "Read More" section listing the article URLs with their sources

FORMAT:
` + sectionsFormat + `

Please provide the combined analysis:
`))

// IndividualPrompt renders the prompt for one article
func IndividualPrompt(item newsdomain.NewsItem) (string, error) {
	var sb strings.Builder
	if err := individualPrompt.Execute(&sb, item); err != nil {
		return "", oops.With("url", item.URL).Wrap(err)
	}
	return sb.String(), nil
}

// CombinedPrompt renders the prompt covering all items at once
func CombinedPrompt(items []newsdomain.NewsItem) (string, error) {
	var sb strings.Builder
	if err := combinedPrompt.Execute(&sb, items); err != nil {
		return "", oops.With("items", len(items)).Wrap(err)
	}
	return sb.String(), nil
}
