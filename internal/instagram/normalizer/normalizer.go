// Package normalizer maps a raw content graph document onto domain.Post.
package normalizer

import (
	"encoding/json"
	stderrors "errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/orgball2608/insta-post-analyzer/internal/domain"
	"github.com/orgball2608/insta-post-analyzer/pkg/errors"
)

// MediaPath is the location of the post node inside the document
const MediaPath = "data.xdt_shortcode_media"

// hashtagRe matches # followed by Unicode word characters
var hashtagRe = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

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

// Normalize decodes raw and returns the canonical post. Errors carry
// errors.CodeUpstreamShape and the JSON path of the offending field.
func Normalize(raw []byte) (*domain.Post, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, decodeError(err)
	}

	if doc.Data == nil || doc.Data.Media == nil {
		return nil, errors.WithField(errors.CodeUpstreamShape, MediaPath,
			"post not found: it may be deleted, private or the shortcode is wrong", nil)
	}
	m := doc.Data.Media

	if err := validate.Struct(m); err != nil {
		return nil, validationError(err)
	}

	mediaURL := resolveMediaURL(*m.IsVideo, m.VideoURL, m.DisplayURL)
	if mediaURL == "" {
		return nil, errors.WithField(errors.CodeUpstreamShape, MediaPath+".display_url", "post has no media URL", nil)
	}

	carousel, err := carouselItems(m.Children)
	if err != nil {
		return nil, err
	}

	caption := captionText(m.Caption)

	return &domain.Post{
		Shortcode: m.Shortcode,
		Author: domain.Author{
			Username: *m.Owner.Username,
			FullName: m.Owner.FullName,
			ID:       *m.Owner.ID,
		},
		Caption:              caption,
		Hashtags:             ExtractHashtags(caption),
		MediaURL:             mediaURL,
		IsVideo:              *m.IsVideo,
		Timestamp:            *m.TakenAt,
		LikeCount:            count(m.Likes),
		CommentCount:         commentCount(m),
		AccessibilityCaption: m.AccessibilityCaption,
		Location:             toLocation(m.Location),
		TaggedUsers:          []string{},
		Carousel:             carousel,
	}, nil
}

// ExtractHashtags returns tags in order of appearance, duplicates and case kept
func ExtractHashtags(caption string) []string {
	matches := hashtagRe.FindAllStringSubmatch(caption, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}

func resolveMediaURL(isVideo bool, videoURL, displayURL *string) string {
	if isVideo && videoURL != nil && *videoURL != "" {
		return *videoURL
	}
	if displayURL != nil {
		return *displayURL
	}
	return ""
}

func captionText(c *captionEdges) string {
	if c == nil || len(c.Edges) == 0 {
		return ""
	}
	return c.Edges[0].Node.Text
}

func count(c *counter) *int {
	if c == nil {
		return nil
	}
	return c.Count
}

func commentCount(m *media) *int {
	if n := count(m.Comments); n != nil {
		return n
	}
	return count(m.ParentComments)
}

func toLocation(l *location) domain.Location {
	if l == nil {
		return domain.Location{}
	}
	return domain.Location{Name: l.Name, Lat: l.Lat, Lng: l.Lng}
}

func carouselItems(children *sidecarEdges) ([]domain.CarouselItem, error) {
	if children == nil || len(children.Edges) == 0 {
		return nil, nil
	}

	items := make([]domain.CarouselItem, 0, len(children.Edges))
	for i, edge := range children.Edges {
		node := edge.Node
		url := resolveMediaURL(*node.IsVideo, node.VideoURL, node.DisplayURL)
		if url == "" {
			return nil, errors.WithField(errors.CodeUpstreamShape,
				MediaPath+".edge_sidecar_to_children.edges["+strconv.Itoa(i)+"].node.display_url",
				"carousel item has no media URL", nil)
		}
		items = append(items, domain.CarouselItem{
			MediaURL:             url,
			IsVideo:              *node.IsVideo,
			AccessibilityCaption: node.AccessibilityCaption,
		})
	}
	return items, nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "document"
		}
		return errors.WithField(errors.CodeUpstreamShape, field, "content graph field has unexpected type", err)
	}
	return errors.WithField(errors.CodeUpstreamShape, "document", "content graph response is not valid JSON", err)
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return errors.WithField(errors.CodeUpstreamShape, mediaFieldPath(fe.Namespace()),
			"content graph field is missing or empty", nil)
	}
	return errors.WithField(errors.CodeUpstreamShape, MediaPath, "content graph media node is invalid", err)
}

// mediaFieldPath rewrites "media.owner.username" to the document path
func mediaFieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return MediaPath + namespace[i:]
	}
	return MediaPath
}
