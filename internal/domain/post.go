package domain

// Author is the account that published a post
type Author struct {
	Username string  `json:"username"`
	FullName *string `json:"full_name"`
	ID       string  `json:"id"`
}

// Location is always present on a Post; unknown parts are nil
type Location struct {
	Name *string  `json:"name"`
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
}

type CarouselItem struct {
	MediaURL             string  `json:"media_url"`
	IsVideo              bool    `json:"is_video"`
	AccessibilityCaption *string `json:"accessibility_caption"`
}

// Post is the normalized view of a single Instagram post.
// Nil pointers mean the upstream did not report the value.
type Post struct {
	Shortcode            string   `json:"shortcode,omitempty"`
	Author               Author   `json:"author"`
	Caption              string   `json:"caption"`
	Hashtags             []string `json:"hashtags"`
	MediaURL             string   `json:"media_url"`
	IsVideo              bool     `json:"is_video"`
	Timestamp            int64    `json:"timestamp"`
	LikeCount            *int     `json:"like_count"`
	CommentCount         *int     `json:"comment_count"`
	AccessibilityCaption *string  `json:"accessibility_caption"`
	Location             Location `json:"location"`
	TaggedUsers          []string `json:"tagged_users"`
	// Carousel is nil for single-media posts, never an empty slice
	Carousel []CarouselItem `json:"carousel"`
}

// MediaType returns a human label for the post format
func (p Post) MediaType() string {
	switch {
	case len(p.Carousel) > 0:
		return "Carousel"
	case p.IsVideo:
		return "Video"
	default:
		return "Image"
	}
}
