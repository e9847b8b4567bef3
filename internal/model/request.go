package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SubmitRequest is the body of a post submission.
type SubmitRequest struct {
	Title           string  `json:"title"`
	BookTitle       string  `json:"bookTitle"`
	AuthorName      string  `json:"authorName"`
	Rating          *Rating `json:"rating"`
	Content         string  `json:"content"`
	Excerpt         string  `json:"excerpt"`
	BookCover       *string `json:"bookCover"`
	UserID          string  `json:"userId"`
	UserName        string  `json:"userName"`
	Genre           Genres  `json:"genre"`
	Slug            string  `json:"slug"`
	Status          Status  `json:"status"`
	PublicationYear *int    `json:"publicationYear"`
}

// Genres accepts either a single label or a list of labels.
// A nil value means the caller sent nothing.
type Genres []string

func (g *Genres) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*g = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		if single == "" {
			*g = nil
			return nil
		}
		*g = Genres{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("genre must be a string or a list of strings: %w", err)
	}
	*g = list
	return nil
}

// Rating accepts a JSON number or a numeric string.
type Rating float64

func (r *Rating) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if strings.HasPrefix(text, `"`) {
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			return err
		}
		text = strings.TrimSpace(unquoted)
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("rating must be numeric: %w", err)
	}
	*r = Rating(value)
	return nil
}

type SortMode string

const (
	SortLatest  SortMode = "latest"
	SortPopular SortMode = "popular"
)

const (
	DefaultFeedLimit = 10
	MaxFeedLimit     = 100
)

// FeedQuery holds the feed filters. UserID wins over Genre when both are set.
type FeedQuery struct {
	UserID string
	Genre  string
	SortBy SortMode
	Limit  int
}
