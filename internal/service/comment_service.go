package service

import (
	"context"

	"blog/internal/auth"
	"blog/internal/dto"
	"blog/internal/models"
	"blog/internal/notifications"
	"blog/internal/observability"
	"blog/internal/repository"
	"blog/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type CommentService struct {
	comments repository.CommentRepository
	articles repository.ArticleRepository
	users    repository.UserRepository
	events   EventPublisher
	now      Clock
}

type CommentInput struct {
	Content string
}

func NewCommentService(
	comments repository.CommentRepository,
	articles repository.ArticleRepository,
	users repository.UserRepository,
	events EventPublisher,
) *CommentService {
	return &CommentService{
		comments: comments,
		articles: articles,
		users:    users,
		events:   events,
		now:      systemClock,
	}
}

// ListByArticle returns the article's comments in insertion order.
func (s *CommentService) ListByArticle(ctx context.Context, articleID uuid.UUID) ([]dto.Comment, error) {
	if _, err := s.articles.GetByID(ctx, articleID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return dto.ToComments(comments), nil
}

func (s *CommentService) ListAll(ctx context.Context) ([]dto.Comment, error) {
	comments, err := s.comments.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return dto.ToComments(comments), nil
}

func (s *CommentService) Create(ctx context.Context, articleID uuid.UUID, in CommentInput, p auth.Principal) (_ *dto.Comment, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "CommentService", "Create", attribute.String("article.id", articleID.String()))
	defer func() { observability.EndSpan(span, err) }()

	if err := validation.CommentRequest(in.Content); err != nil {
		return nil, err
	}
	article, err := s.articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	author, err := resolvePrincipal(ctx, s.users, p)
	if err != nil {
		return nil, err
	}

	now := s.now()
	comment := &models.Comment{
		Content:     in.Content,
		DateCreated: now,
		DateEdited:  now,
		ArticleID:   article.ID,
		Article:     article,
		AuthorID:    author.ID,
		Author:      author,
		EditorID:    &author.ID,
		Editor:      author,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	publish(ctx, s.events, notifications.NewCommentEvent(notifications.EventCommentCreated, comment.ID, article.ID, author.Username))
	return dto.ToComment(comment), nil
}

// Edit overwrites the comment content and stamps p as editor. The comment
// is not required to belong to articleID.
func (s *CommentService) Edit(ctx context.Context, articleID, commentID uuid.UUID, in CommentInput, p auth.Principal) (_ *dto.Comment, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "CommentService", "Edit", attribute.String("comment.id", commentID.String()))
	defer func() { observability.EndSpan(span, err) }()

	if err := validation.CommentRequest(in.Content); err != nil {
		return nil, err
	}
	editor, err := resolvePrincipal(ctx, s.users, p)
	if err != nil {
		return nil, err
	}
	if _, err := s.articles.GetByID(ctx, articleID); err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}

	comment.Content = in.Content
	comment.DateEdited = s.now()
	comment.EditorID = &editor.ID
	comment.Editor = editor
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}

	publish(ctx, s.events, notifications.NewCommentEvent(notifications.EventCommentUpdated, comment.ID, comment.ArticleID, editor.Username))
	return dto.ToComment(comment), nil
}

// Delete checks the article, then the comment, and removes the comment.
// No ownership check is made.
func (s *CommentService) Delete(ctx context.Context, articleID, commentID uuid.UUID, p auth.Principal) (err error) {
	ctx, span := observability.StartServiceSpan(ctx, "CommentService", "Delete", attribute.String("comment.id", commentID.String()))
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.articles.GetByID(ctx, articleID); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return err
	}

	publish(ctx, s.events, notifications.NewCommentEvent(notifications.EventCommentDeleted, commentID, articleID, p.Username))
	return nil
}
