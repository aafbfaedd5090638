package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"blog/internal/auth"
	"blog/internal/dto"
	"blog/internal/imaging"
	"blog/internal/middleware"
	"blog/internal/models"
	"blog/internal/notifications"
	"blog/internal/observability"
	"blog/internal/repository"
	"blog/internal/storage"
	"blog/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type ArticleService struct {
	articles repository.ArticleRepository
	users    repository.UserRepository
	files    *storage.FileStore
	previews *imaging.Previewer
	events   EventPublisher
	now      Clock
}

type ListArticlesInput struct {
	Filter repository.ArticleFilter
	Sort   string
	Size   int
	Page   int
}

type ArticleInput struct {
	Title    string
	Content  string
	Category *string
}

// NewArticleService wires the article use cases. previews and events may be nil.
func NewArticleService(
	articles repository.ArticleRepository,
	users repository.UserRepository,
	files *storage.FileStore,
	previews *imaging.Previewer,
	events EventPublisher,
) *ArticleService {
	return &ArticleService{
		articles: articles,
		users:    users,
		files:    files,
		previews: previews,
		events:   events,
		now:      systemClock,
	}
}

// List runs the composed search. Page size is not capped.
func (s *ArticleService) List(ctx context.Context, in ListArticlesInput) (_ []dto.Article, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "ArticleService", "List")
	defer func() { observability.EndSpan(span, err) }()

	if in.Size < 1 {
		return nil, models.NewValidationError("Page size must not be less than one")
	}
	if in.Page < 0 {
		return nil, models.NewValidationError("Page index must not be less than zero")
	}
	sort, err := repository.ParseSort(in.Sort)
	if err != nil {
		return nil, err
	}

	articles, err := s.articles.List(ctx, in.Filter, sort, repository.PageRequest{Size: in.Size, Page: in.Page})
	if err != nil {
		return nil, err
	}
	return dto.ToArticles(articles), nil
}

func (s *ArticleService) GetByID(ctx context.Context, id uuid.UUID) (*dto.Article, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.ToArticle(article), nil
}

// Create stores a new article authored and last edited by p.
func (s *ArticleService) Create(ctx context.Context, in ArticleInput, p auth.Principal) (_ *dto.Article, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "ArticleService", "Create")
	defer func() { observability.EndSpan(span, err) }()

	if err := validation.ArticleRequest(in.Title, in.Content); err != nil {
		return nil, err
	}
	user, err := resolvePrincipal(ctx, s.users, p)
	if err != nil {
		return nil, err
	}

	now := s.now()
	article := &models.Article{
		Title:       in.Title,
		Content:     in.Content,
		Summary:     Summarize(in.Content),
		CreatedDate: now,
		UpdatedDate: now,
		MediaURLs:   []string{},
		Category:    in.Category,
		AuthorID:    user.ID,
		Author:      user,
		EditorID:    &user.ID,
		Editor:      user,
	}
	if err := s.articles.Create(ctx, article); err != nil {
		return nil, err
	}

	publish(ctx, s.events, notifications.NewArticleEvent(notifications.EventArticleCreated, article.ID, user.Username))
	return dto.ToArticle(article), nil
}

// nextUpdate returns a timestamp strictly after prev.
func (s *ArticleService) nextUpdate(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func stampEditor(article *models.Article, editor *models.User) {
	article.EditorID = &editor.ID
	article.Editor = editor
}

// Update overwrites title, content and summary. The author is kept and p
// becomes the editor.
func (s *ArticleService) Update(ctx context.Context, id uuid.UUID, in ArticleInput, p auth.Principal) (_ *dto.Article, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "ArticleService", "Update", attribute.String("article.id", id.String()))
	defer func() { observability.EndSpan(span, err) }()

	if err := validation.ArticleRequest(in.Title, in.Content); err != nil {
		return nil, err
	}
	editor, err := resolvePrincipal(ctx, s.users, p)
	if err != nil {
		return nil, err
	}
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	article.Title = in.Title
	article.Content = in.Content
	article.Summary = Summarize(in.Content)
	if in.Category != nil {
		article.Category = in.Category
	}
	article.UpdatedDate = s.nextUpdate(article.UpdatedDate)
	stampEditor(article, editor)

	if err := s.articles.Update(ctx, article); err != nil {
		return nil, err
	}

	publish(ctx, s.events, notifications.NewArticleEvent(notifications.EventArticleUpdated, article.ID, editor.Username))
	return dto.ToArticle(article), nil
}

// Delete removes the article and its comments.
func (s *ArticleService) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := observability.StartServiceSpan(ctx, "ArticleService", "Delete", attribute.String("article.id", id.String()))
	defer func() { observability.EndSpan(span, err) }()

	if err := s.articles.Delete(ctx, id); err != nil {
		return err
	}
	publish(ctx, s.events, notifications.NewArticleEvent(notifications.EventArticleDeleted, id, ""))
	return nil
}

// ImageName is the stored file name of an article's image.
func ImageName(id uuid.UUID, ext string) string {
	return fmt.Sprintf("article-%s%s", id, ext)
}

// PreviewName is the stored file name of an article image's crop preview.
func PreviewName(id uuid.UUID) string {
	return fmt.Sprintf("article-%s-crop.webp", id)
}

// MediaName is the stored file name of the index'th media upload.
func MediaName(id uuid.UUID, index int, ext string) string {
	return fmt.Sprintf("article-%s-%d%s", id, index, ext)
}

func (s *ArticleService) store(ctx context.Context, kind, dir, name string, up Upload, failure string) error {
	n, err := s.files.Save(dir, name, up.Reader)
	if err != nil {
		observability.UploadsTotal.WithLabelValues(kind, "error").Inc()
		middleware.Logger.ErrorContext(ctx, "upload write failed",
			slog.String("kind", kind), slog.String("file", name), slog.String("error", err.Error()))
		return models.NewInternalError(failure, err)
	}
	observability.UploadsTotal.WithLabelValues(kind, "ok").Inc()
	observability.UploadBytes.WithLabelValues(kind).Observe(float64(n))
	return nil
}

// UploadImage replaces the article image and its crop metadata. Repeated
// uploads overwrite the same file.
func (s *ArticleService) UploadImage(ctx context.Context, id uuid.UUID, up Upload, meta models.CropMeta, p auth.Principal) (_ *dto.Article, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "ArticleService", "UploadImage", attribute.String("article.id", id.String()))
	defer func() { observability.EndSpan(span, err) }()

	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	editor, err := resolvePrincipal(ctx, s.users, p)
	if err != nil {
		return nil, err
	}

	name := ImageName(id, storage.Ext(up.Filename))
	if err := s.store(ctx, "article_image", storage.DirArticleImages, name, up, "Failed to upload article image"); err != nil {
		return nil, err
	}

	article.ImageURL = name
	article.ApplyCrop(meta)
	article.UpdatedDate = s.nextUpdate(article.UpdatedDate)
	stampEditor(article, editor)

	if err := s.articles.Update(ctx, article); err != nil {
		return nil, err
	}

	if s.previews != nil {
		if err := s.previews.Generate(storage.DirArticleImages, name, PreviewName(id), meta); err != nil {
			middleware.Logger.WarnContext(ctx, "crop preview not generated",
				slog.String("article_id", id.String()), slog.String("error", err.Error()))
		}
	}

	publish(ctx, s.events, notifications.NewArticleEvent(notifications.EventArticleUpdated, article.ID, editor.Username))
	return dto.ToArticle(article), nil
}

// UploadMedia appends a media file. The name comes from the current media
// count, so concurrent uploads to one article can collide. Editor and
// updatedDate are left untouched.
func (s *ArticleService) UploadMedia(ctx context.Context, id uuid.UUID, up Upload, p auth.Principal) (_ *dto.Article, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "ArticleService", "UploadMedia", attribute.String("article.id", id.String()))
	defer func() { observability.EndSpan(span, err) }()

	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := MediaName(id, len(article.MediaURLs), storage.Ext(up.Filename))
	if err := s.store(ctx, "article_media", storage.DirArticleMedia, name, up, "Failed to upload article media"); err != nil {
		return nil, err
	}

	article.MediaURLs = append(article.MediaURLs, name)
	if err := s.articles.Update(ctx, article); err != nil {
		return nil, err
	}

	publish(ctx, s.events, notifications.NewArticleEvent(notifications.EventArticleUpdated, article.ID, p.Username))
	return dto.ToArticle(article), nil
}
