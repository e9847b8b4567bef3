package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusReview    Status = "review"
	StatusPublished Status = "published"
)

const DefaultGenre = "General"

// Post is the stored shape of a review in the posts collection.
type Post struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Title           string             `bson:"title"`
	Slug            string             `bson:"slug"`
	Excerpt         string             `bson:"excerpt"`
	Content         string             `bson:"content"`
	BookTitle       string             `bson:"bookTitle"`
	AuthorName      string             `bson:"authorName"`
	Genre           []string           `bson:"genre"`
	Rating          float64            `bson:"rating"`
	CoverImage      *string            `bson:"coverImage"`
	PublicationYear *int               `bson:"publicationYear"`
	Status          Status             `bson:"status"`
	AuthorID        string             `bson:"authorId"`
	AuthorRole      Role               `bson:"authorRole"`
	Likes           int64              `bson:"likes"`
	CommentCount    int64              `bson:"commentCount"`
	CreatedAt       primitive.DateTime `bson:"createdAt"`
	UpdatedAt       primitive.DateTime `bson:"updatedAt"`
}

// PostView is what callers see: the document id attached and store datetimes turned into time.Time.
type PostView struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Excerpt         string    `json:"excerpt"`
	Content         string    `json:"content"`
	BookTitle       string    `json:"bookTitle"`
	AuthorName      string    `json:"authorName"`
	Genre           []string  `json:"genre"`
	Rating          float64   `json:"rating"`
	CoverImage      *string   `json:"coverImage"`
	PublicationYear *int      `json:"publicationYear"`
	Status          Status    `json:"status"`
	AuthorID        string    `json:"authorId"`
	AuthorRole      Role      `json:"authorRole"`
	Likes           int64     `json:"likes"`
	CommentCount    int64     `json:"commentCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (p Post) View() PostView {
	return PostView{
		ID:              p.ID.Hex(),
		Title:           p.Title,
		Slug:            p.Slug,
		Excerpt:         p.Excerpt,
		Content:         p.Content,
		BookTitle:       p.BookTitle,
		AuthorName:      p.AuthorName,
		Genre:           p.Genre,
		Rating:          p.Rating,
		CoverImage:      p.CoverImage,
		PublicationYear: p.PublicationYear,
		Status:          p.Status,
		AuthorID:        p.AuthorID,
		AuthorRole:      p.AuthorRole,
		Likes:           p.Likes,
		CommentCount:    p.CommentCount,
		CreatedAt:       p.CreatedAt.Time().UTC(),
		UpdatedAt:       p.UpdatedAt.Time().UTC(),
	}
}

func Views(posts []Post) []PostView {
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, p.View())
	}
	return views
}
