package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/klass-lk/reviewpress/internal/apperr"
	"github.com/klass-lk/reviewpress/internal/model"
	"github.com/klass-lk/reviewpress/internal/publishing"
	"github.com/klass-lk/reviewpress/internal/repository"
)

var tracer = otel.Tracer("post")

type SubmissionService struct {
	posts  PostWriter
	users  UserReader
	logger logrus.FieldLogger
}

func NewSubmissionService(posts PostWriter, users UserReader, logger logrus.FieldLogger) *SubmissionService {
	return &SubmissionService{
		posts:  posts,
		users:  users,
		logger: logger,
	}
}

// Submit validates req, checks the submitter's role, derives the workflow status
// and stores exactly one new post.
func (s *SubmissionService) Submit(ctx context.Context, req model.SubmitRequest) (model.PostView, error) {
	ctx, span := tracer.Start(ctx, "Post.Service.Submit")
	defer span.End()

	if err := validateSubmission(req); err != nil {
		return model.PostView{}, err
	}
	span.SetAttributes(attribute.String("UserId", req.UserID))

	user, err := s.users.FindByID(ctx, req.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.PostView{}, apperr.Missing("User not found")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user lookup failed")
		s.logger.WithError(err).WithField("user_id", req.UserID).Error("user lookup failed")
		return model.PostView{}, apperr.Unavailable(err, "Failed to create post: "+err.Error())
	}

	if !user.CanSubmit() {
		return model.PostView{}, apperr.Denied("Only admins and editors can create posts")
	}
	status, ok := publishing.DeriveStatus(user.Role, req.Status)
	if !ok {
		return model.PostView{}, apperr.Invalid("Status must be one of draft, review or published")
	}

	created, err := s.posts.Create(ctx, buildPost(req, user, status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		s.logger.WithError(err).WithField("user_id", req.UserID).Error("error creating post")
		return model.PostView{}, apperr.Unavailable(err, "Failed to create post: "+err.Error())
	}

	s.logger.WithFields(logrus.Fields{
		"post_id": created.ID.Hex(),
		"user_id": created.AuthorID,
		"status":  created.Status,
	}).Info("post created")
	return created.View(), nil
}

func validateSubmission(req model.SubmitRequest) error {
	if req.Title == "" || req.BookTitle == "" || req.Content == "" || req.UserID == "" {
		return apperr.Invalid("Missing required fields")
	}
	if req.Rating == nil || !(*req.Rating >= 1 && *req.Rating <= 5) {
		return apperr.Invalid("Rating must be between 1 and 5")
	}
	return nil
}

func buildPost(req model.SubmitRequest, user model.User, status model.Status) model.Post {
	slug := req.Slug
	if slug == "" {
		slug = publishing.Slugify(req.Title)
	}
	excerpt := req.Excerpt
	if excerpt == "" {
		excerpt = publishing.Excerpt(req.Content)
	}

	var cover *string
	if req.BookCover != nil && *req.BookCover != "" {
		cover = req.BookCover
	}
	var year *int
	if req.PublicationYear != nil && *req.PublicationYear != 0 {
		year = req.PublicationYear
	}

	return model.Post{
		Title:           req.Title,
		Slug:            slug,
		Excerpt:         excerpt,
		Content:         req.Content,
		BookTitle:       req.BookTitle,
		AuthorName:      firstNonEmpty(req.AuthorName, req.UserName, user.DisplayName),
		Genre:           publishing.NormalizeGenres(req.Genre),
		Rating:          float64(*req.Rating),
		CoverImage:      cover,
		PublicationYear: year,
		Status:          status,
		AuthorID:        req.UserID,
		AuthorRole:      user.Role,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
