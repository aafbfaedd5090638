package server

import (
	"blog/internal/repository"
	"blog/internal/service"

	"github.com/gofiber/fiber/v2"
)

type articleRequest struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	Category *string `json:"category"`
}

func (r articleRequest) input() service.ArticleInput {
	return service.ArticleInput{Title: r.Title, Content: r.Content, Category: r.Category}
}

// ListArticles godoc
// @Summary List articles
// @Description Filter, sort and page articles
// @Tags articles
// @Produce json
// @Param size query int false "Page size (default 10)"
// @Param from query int false "Page index (default 0)"
// @Param title query string false "Exact title, case-insensitive"
// @Param author query string false "Author username, case-insensitive"
// @Param createdDate query string false "Created at or after (RFC 3339 or 2006-01-02T15:04:05)"
// @Param category query string false "Category"
// @Param sort query string false "e.g. title asc,createdDate desc"
// @Success 200 {array} dto.Article
// @Failure 400 {object} models.ErrorResponse
// @Router /articles [get]
func (s *Server) ListArticles(c *fiber.Ctx) error {
	size, ok := queryInt(c, "size", 10)
	if !ok {
		return nil
	}
	page, ok := queryInt(c, "from", 0)
	if !ok {
		return nil
	}

	filter := repository.ArticleFilter{
		Title:    optionalQuery(c, "title"),
		Author:   optionalQuery(c, "author"),
		Category: optionalQuery(c, "category"),
	}
	if raw := c.Query("createdDate"); raw != "" {
		t, err := parseDateTime(raw)
		if err != nil {
			return badRequest(c, "Invalid createdDate")
		}
		filter.CreatedAfter = &t
	}

	articles, err := s.articleService.List(c.UserContext(), service.ListArticlesInput{
		Filter: filter,
		Sort:   c.Query("sort"),
		Size:   size,
		Page:   page,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(articles)
}

// GetArticle godoc
// @Summary Get an article
// @Tags articles
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {object} dto.Article
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{id} [get]
func (s *Server) GetArticle(c *fiber.Ctx) error {
	id, ok := parseUUID(c, "id", "article ID")
	if !ok {
		return nil
	}
	article, err := s.articleService.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(article)
}

// CreateArticle godoc
// @Summary Create an article
// @Tags articles
// @Accept json
// @Produce json
// @Param article body articleRequest true "Article"
// @Success 201 {object} dto.Article
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /articles [post]
func (s *Server) CreateArticle(c *fiber.Ctx) error {
	p, ok := requirePrincipal(c)
	if !ok {
		return nil
	}
	var req articleRequest
	if !parseBody(c, &req) {
		return nil
	}
	article, err := s.articleService.Create(c.UserContext(), req.input(), p)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(article)
}

// UpdateArticle godoc
// @Summary Update an article
// @Tags articles
// @Accept json
// @Produce json
// @Param id path string true "Article ID"
// @Param article body articleRequest true "Article"
// @Success 200 {object} dto.Article
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /articles/{id} [put]
func (s *Server) UpdateArticle(c *fiber.Ctx) error {
	p, ok := requirePrincipal(c)
	if !ok {
		return nil
	}
	id, ok := parseUUID(c, "id", "article ID")
	if !ok {
		return nil
	}
	var req articleRequest
	if !parseBody(c, &req) {
		return nil
	}
	article, err := s.articleService.Update(c.UserContext(), id, req.input(), p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(article)
}

// DeleteArticle godoc
// @Summary Delete an article and its comments
// @Tags articles
// @Param id path string true "Article ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /articles/{id} [delete]
func (s *Server) DeleteArticle(c *fiber.Ctx) error {
	id, ok := parseUUID(c, "id", "article ID")
	if !ok {
		return nil
	}
	if err := s.articleService.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UploadArticleImage godoc
// @Summary Upload the article image
// @Tags articles
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Article ID"
// @Param file formData file true "Image"
// @Param cropX formData number false "Crop left, 0..1"
// @Param cropY formData number false "Crop top, 0..1"
// @Param cropWidth formData number false "Crop width, 0..1"
// @Param cropHeight formData number false "Crop height, 0..1"
// @Param cropScale formData number false "Display scale"
// @Success 200 {object} dto.Article
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /articles/{id}/upload-image [post]
func (s *Server) UploadArticleImage(c *fiber.Ctx) error {
	p, ok := requirePrincipal(c)
	if !ok {
		return nil
	}
	id, ok := parseUUID(c, "id", "article ID")
	if !ok {
		return nil
	}
	meta, ok := parseCrop(c)
	if !ok {
		return nil
	}
	up, done, ok := readUpload(c)
	if !ok {
		return nil
	}
	defer done()

	article, err := s.articleService.UploadImage(c.UserContext(), id, up, meta, p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(article)
}

// UploadArticleMedia godoc
// @Summary Append a media file to the article
// @Tags articles
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Article ID"
// @Param file formData file true "Media"
// @Success 200 {object} dto.Article
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /articles/{id}/upload-media [post]
func (s *Server) UploadArticleMedia(c *fiber.Ctx) error {
	p, ok := requirePrincipal(c)
	if !ok {
		return nil
	}
	id, ok := parseUUID(c, "id", "article ID")
	if !ok {
		return nil
	}
	up, done, ok := readUpload(c)
	if !ok {
		return nil
	}
	defer done()

	article, err := s.articleService.UploadMedia(c.UserContext(), id, up, p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(article)
}
