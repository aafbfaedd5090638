package server

import (
	"blog/internal/middleware"
	"blog/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Content string `json:"content"`
}

// ListComments godoc
// @Summary List an article's comments
// @Tags comments
// @Produce json
// @Param id path string true "Article ID"
// @Success 200 {array} dto.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{id}/comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	articleID, ok := parseUUID(c, "id", "article ID")
	if !ok {
		return nil
	}
	comments, err := s.commentService.ListByArticle(c.UserContext(), articleID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// ListAllComments godoc
// @Summary List every comment
// @Tags comments
// @Produce json
// @Success 200 {array} dto.Comment
// @Router /comments [get]
func (s *Server) ListAllComments(c *fiber.Ctx) error {
	comments, err := s.commentService.ListAll(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment godoc
// @Summary Comment on an article
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Article ID"
// @Param comment body commentRequest true "Comment"
// @Success 201 {object} dto.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /articles/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	p, ok := requirePrincipal(c)
	if !ok {
		return nil
	}
	articleID, ok := parseUUID(c, "id", "article ID")
	if !ok {
		return nil
	}
	var req commentRequest
	if !parseBody(c, &req) {
		return nil
	}
	comment, err := s.commentService.Create(c.UserContext(), articleID, service.CommentInput{Content: req.Content}, p)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// EditComment godoc
// @Summary Edit a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param articleId path string true "Article ID"
// @Param commentId path string true "Comment ID"
// @Param comment body commentRequest true "Comment"
// @Success 200 {object} dto.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /articles/{articleId}/comments/{commentId} [put]
func (s *Server) EditComment(c *fiber.Ctx) error {
	p, ok := requirePrincipal(c)
	if !ok {
		return nil
	}
	articleID, ok := parseUUID(c, "articleId", "article ID")
	if !ok {
		return nil
	}
	commentID, ok := parseUUID(c, "commentId", "comment ID")
	if !ok {
		return nil
	}
	var req commentRequest
	if !parseBody(c, &req) {
		return nil
	}
	comment, err := s.commentService.Edit(c.UserContext(), articleID, commentID, service.CommentInput{Content: req.Content}, p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment godoc
// @Summary Delete a comment
// @Tags comments
// @Param articleId path string true "Article ID"
// @Param commentId path string true "Comment ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{articleId}/comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	articleID, ok := parseUUID(c, "articleId", "article ID")
	if !ok {
		return nil
	}
	commentID, ok := parseUUID(c, "commentId", "comment ID")
	if !ok {
		return nil
	}
	// Anonymous deletes are allowed; the event then carries no actor.
	p, _ := middleware.PrincipalFrom(c)
	if err := s.commentService.Delete(c.UserContext(), articleID, commentID, p); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
