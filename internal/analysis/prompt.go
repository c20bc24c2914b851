package analysis

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/orgball2608/insta-post-analyzer/internal/domain"
)

const promptTemplate = `You are an expert in social media content evaluation.

Your task is to analyze an Instagram post consisting of an image and a caption.
Evaluate the post in four categories:

1. **Engagement** – How engaging is the post for its audience?
2. **Quality** – Is the post visually and linguistically well-made?
3. **Relevance** – Is the post relevant to its niche or topic?
4. **Audience Behavior** – How likely is the audience to interact with the post?

Post Information:
Author: {{.Author}}
Caption: {{.Caption}}
Hashtags: {{.Hashtags}}
Likes: {{.Likes}}
Comments: {{.Comments}}
Location: {{.Location}}
Media Type: {{.MediaType}}

For each category, provide:

- "score": a number from 1 to 100 (realistic use of the full range)
- "commentary": three fields:
  - "positive" – One short sentence describing what works well
  - "neutral" – One short sentence suggesting possible improvement
  - "negative" – One short sentence pointing out what doesn't work
- "pros": 2–3 clear bullet points summarizing strengths
- "cons": 2–3 clear bullet points summarizing weaknesses
- "tips": 2–3 specific, practical suggestions for improving this category

Be direct, constructive, and avoid vague or generic advice.

Return only a valid JSON object in the following format:

{{.Schema}}

Do not include any explanation or extra text.`

var tmpl = template.Must(template.New("prompt").Parse(promptTemplate))

// schema is rendered once; it only depends on the category list
var schema = renderSchema()

type promptData struct {
	Author    string
	Caption   string
	Hashtags  string
	Likes     string
	Comments  string
	Location  string
	MediaType string
	Schema    string
}

// BuildPrompt renders the evaluation request for a post. The output only
// depends on the post value.
func BuildPrompt(post domain.Post) string {
	data := promptData{
		Author:    authorLine(post.Author),
		Caption:   post.Caption,
		Hashtags:  strings.Join(post.Hashtags, ", "),
		Likes:     countText(post.LikeCount),
		Comments:  countText(post.CommentCount),
		Location:  locationText(post.Location),
		MediaType: post.MediaType(),
		Schema:    schema,
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		// promptData only holds strings, execution cannot fail
		panic(fmt.Sprintf("analysis: render prompt: %v", err))
	}
	return sb.String()
}

func authorLine(a domain.Author) string {
	if a.FullName != nil && *a.FullName != "" {
		return fmt.Sprintf("%s (%s)", a.Username, *a.FullName)
	}
	return a.Username
}

func countText(n *int) string {
	if n == nil {
		return "unknown"
	}
	return strconv.Itoa(*n)
}

func locationText(l domain.Location) string {
	if l.Name == nil || *l.Name == "" {
		return "Not specified"
	}
	return *l.Name
}

func renderSchema() string {
	var sb strings.Builder
	sb.WriteString("{\n")
	for i, c := range domain.Categories {
		fmt.Fprintf(&sb, "  %q: {\n", string(c))
		sb.WriteString(`    "score": 0,
    "commentary": {
      "positive": "",
      "neutral": "",
      "negative": ""
    },
    "pros": [],
    "cons": [],
    "tips": []
  }`)
		if i < len(domain.Categories)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}")
	return sb.String()
}
