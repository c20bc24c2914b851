package normalizer

// Typed view of the content graph document. Pointers distinguish a field
// that is absent from one that carries a zero value.

type document struct {
	Data *struct {
		Media *media `json:"xdt_shortcode_media"`
	} `json:"data"`
}

type media struct {
	Shortcode            string        `json:"shortcode"`
	Owner                *owner        `json:"owner" validate:"required"`
	Caption              *captionEdges `json:"edge_media_to_caption"`
	IsVideo              *bool         `json:"is_video" validate:"required"`
	VideoURL             *string       `json:"video_url"`
	DisplayURL           *string       `json:"display_url"`
	TakenAt              *int64        `json:"taken_at_timestamp" validate:"required"`
	Likes                *counter      `json:"edge_media_preview_like"`
	Comments             *counter      `json:"edge_media_to_comment"`
	ParentComments       *counter      `json:"edge_media_to_parent_comment"`
	AccessibilityCaption *string       `json:"accessibility_caption"`
	Location             *location     `json:"location"`
	Children             *sidecarEdges `json:"edge_sidecar_to_children"`
}

type owner struct {
	ID       *string `json:"id" validate:"required,min=1"`
	Username *string `json:"username" validate:"required,min=1"`
	FullName *string `json:"full_name"`
}

type captionEdges struct {
	Edges []struct {
		Node struct {
			Text string `json:"text"`
		} `json:"node"`
	} `json:"edges"`
}

type counter struct {
	Count *int `json:"count"`
}

type location struct {
	Name *string  `json:"name"`
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
}

type sidecarEdges struct {
	Edges []sidecarEdge `json:"edges" validate:"dive"`
}

type sidecarEdge struct {
	Node *sidecarNode `json:"node" validate:"required"`
}

type sidecarNode struct {
	IsVideo              *bool   `json:"is_video" validate:"required"`
	VideoURL             *string `json:"video_url"`
	DisplayURL           *string `json:"display_url"`
	AccessibilityCaption *string `json:"accessibility_caption"`
}
