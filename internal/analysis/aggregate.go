package analysis

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/orgball2608/insta-post-analyzer/internal/domain"
	"github.com/orgball2608/insta-post-analyzer/pkg/errors"
)

type commentaryPayload struct {
	Positive *string `json:"positive" validate:"required"`
	Neutral  *string `json:"neutral" validate:"required"`
	Negative *string `json:"negative" validate:"required"`
}

type categoryPayload struct {
	Score      *int               `json:"score" validate:"required"`
	Commentary *commentaryPayload `json:"commentary" validate:"required"`
	Pros       []string           `json:"pros" validate:"required"`
	Cons       []string           `json:"cons" validate:"required"`
	Tips       []string           `json:"tips" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Aggregate validates the model output and builds the composite result.
// Either every category is valid or an error is returned; there is no
// partial result.
func Aggregate(raw string) (*domain.Result, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &top); err != nil {
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &typeErr) {
			return nil, errors.WithField(errors.CodeAnalysisShape, "", "model output is not a JSON object", err)
		}
		return nil, errors.WrapWithCode(err, errors.CodeAnalysisParse, "model output is not valid JSON")
	}
	if top == nil {
		return nil, errors.WithField(errors.CodeAnalysisShape, "", "model output is not a JSON object", nil)
	}

	if extra := unknownKeys(top); len(extra) > 0 {
		return nil, errors.WithField(errors.CodeAnalysisShape, extra[0], "unexpected category in model output", nil)
	}

	analyses := make(map[domain.Category]domain.CategoryAnalysis, len(domain.Categories))
	for _, c := range domain.Categories {
		ca, err := parseCategory(c, top[string(c)])
		if err != nil {
			return nil, err
		}
		analyses[c] = ca
	}

	result := &domain.Result{
		Engagement:       analyses[domain.CategoryEngagement],
		Quality:          analyses[domain.CategoryQuality],
		Relevance:        analyses[domain.CategoryRelevance],
		AudienceBehavior: analyses[domain.CategoryAudienceBehavior],
		OverallPros:      []string{},
		OverallCons:      []string{},
	}

	sum := 0
	for _, c := range domain.Categories {
		ca := analyses[c]
		sum += ca.Score
		result.OverallPros = append(result.OverallPros, ca.Pros...)
		result.OverallCons = append(result.OverallCons, ca.Cons...)
	}
	result.AverageScore = AverageScore(sum)
	result.Detail = RenderDetail(result)

	return result, nil
}

// AverageScore floors the mean of the four category scores
func AverageScore(sum int) int {
	n := len(domain.Categories)
	// Go division truncates toward zero; keep floor semantics for negatives
	if sum < 0 && sum%n != 0 {
		return sum/n - 1
	}
	return sum / n
}

// RenderDetail formats every category as a readable text block
func RenderDetail(r *domain.Result) string {
	var lines []string
	for _, c := range domain.Categories {
		ca := r.Category(c)
		lines = append(lines,
			c.Title()+" Analysis:",
			fmt.Sprintf("Score: %d", ca.Score),
			"Commentary:",
			"Positive: "+ca.Commentary.Positive,
			"Neutral: "+ca.Commentary.Neutral,
			"Negative: "+ca.Commentary.Negative,
			"Tips:",
		)
		for _, tip := range ca.Tips {
			lines = append(lines, "- "+tip)
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func parseCategory(c domain.Category, raw json.RawMessage) (domain.CategoryAnalysis, error) {
	name := string(c)
	if raw == nil || string(raw) == "null" {
		return domain.CategoryAnalysis{}, errors.WithField(errors.CodeAnalysisShape, name, "category is missing", nil)
	}

	var p categoryPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		field := name
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &typeErr) && typeErr.Field != "" {
			field = name + "." + typeErr.Field
		}
		return domain.CategoryAnalysis{}, errors.WithField(errors.CodeAnalysisShape, field, "category field has unexpected type", err)
	}

	if err := validate.Struct(&p); err != nil {
		field := name
		var fieldErrs validator.ValidationErrors
		if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			field = name + fieldErrs[0].Namespace()[strings.IndexByte(fieldErrs[0].Namespace(), '.'):]
		}
		return domain.CategoryAnalysis{}, errors.WithField(errors.CodeAnalysisShape, field, "category field is missing", nil)
	}

	return domain.CategoryAnalysis{
		Score: *p.Score,
		Commentary: domain.Commentary{
			Positive: *p.Commentary.Positive,
			Neutral:  *p.Commentary.Neutral,
			Negative: *p.Commentary.Negative,
		},
		Pros: p.Pros,
		Cons: p.Cons,
		Tips: p.Tips,
	}, nil
}

func unknownKeys(top map[string]json.RawMessage) []string {
	known := make(map[string]bool, len(domain.Categories))
	for _, c := range domain.Categories {
		known[string(c)] = true
	}
	var extra []string
	for k := range top {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return extra
}

// stripCodeFence removes a ```json ... ``` wrapper some models add
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSuffix(s, "```")
}
