package server

import (
	"github.com/gofiber/fiber/v2"

	"haven/internal/models"
	"haven/internal/service"
)

type articlePayload struct {
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	Tags        []string `json:"tags"`
}

type createArticleRequest struct {
	Article articlePayload `json:"article"`
}

type updateArticlePayload struct {
	Title       *string  `json:"title"`
	Body        *string  `json:"body"`
	Description *string  `json:"description"`
	ImageURL    *string  `json:"image_url"`
	Tags        []string `json:"tags"`
}

type updateArticleRequest struct {
	Article updateArticlePayload `json:"article"`
}

type rateArticleRequest struct {
	Rate struct {
		Rating int `json:"rating"`
	} `json:"rate"`
}

// CreateArticle publishes a new article by the authenticated user.
func (s *Server) CreateArticle(c *fiber.Ctx) error {
	var req createArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	article, err := s.articleService.CreateArticle(c.UserContext(), service.CreateArticleInput{
		UserID:      currentUserID(c),
		Title:       req.Article.Title,
		Body:        req.Article.Body,
		Description: req.Article.Description,
		ImageURL:    req.Article.ImageURL,
		Tags:        req.Article.Tags,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"article": article})
}

// GetArticle returns one article by slug.
func (s *Server) GetArticle(c *fiber.Ctx) error {
	viewerID, _ := s.optionalUserID(c)

	article, err := s.articleService.GetArticle(c.UserContext(), c.Params("slug"), viewerID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"article": article})
}

// ListArticles returns a page of articles, newest first. Filter by tag with
// ?tag=, page with ?page= and ?page_size=.
func (s *Server) ListArticles(c *fiber.Ctx) error {
	viewerID, _ := s.optionalUserID(c)
	limit, offset := parsePagination(c)

	articles, total, err := s.articleService.ListArticles(c.UserContext(), service.ListArticlesInput{
		Tag:           c.Query("tag"),
		Limit:         limit,
		Offset:        offset,
		CurrentUserID: viewerID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"articles":       articles,
		"articles_count": total,
	})
}

// UpdateArticle updates an article. Only the author may edit; the slug
// never changes once assigned.
func (s *Server) UpdateArticle(c *fiber.Ctx) error {
	var req updateArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	article, err := s.articleService.UpdateArticle(c.UserContext(), service.UpdateArticleInput{
		UserID:      currentUserID(c),
		Slug:        c.Params("slug"),
		Title:       req.Article.Title,
		Body:        req.Article.Body,
		Description: req.Article.Description,
		ImageURL:    req.Article.ImageURL,
		Tags:        req.Article.Tags,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"article": article})
}

// DeleteArticle removes an article and everything attached to it.
func (s *Server) DeleteArticle(c *fiber.Ctx) error {
	if err := s.articleService.DeleteArticle(c.UserContext(), currentUserID(c), c.Params("slug")); err != nil {
		return respondServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RateArticle records or revises the caller's star rating and returns the
// article's current average.
func (s *Server) RateArticle(c *fiber.Ctx) error {
	var req rateArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	average, err := s.articleService.RateArticle(c.UserContext(), service.RateArticleInput{
		UserID: currentUserID(c),
		Slug:   c.Params("slug"),
		Stars:  req.Rate.Rating,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"rate": average})
}

// LikeArticle toggles the caller's like on the article.
func (s *Server) LikeArticle(c *fiber.Ctx) error {
	article, err := s.articleService.LikeArticle(c.UserContext(), currentUserID(c), c.Params("slug"))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"article": article})
}

// DislikeArticle toggles the caller's dislike on the article.
func (s *Server) DislikeArticle(c *fiber.Ctx) error {
	article, err := s.articleService.DislikeArticle(c.UserContext(), currentUserID(c), c.Params("slug"))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"article": article})
}

// FavoriteArticle adds the article to the caller's favorites.
func (s *Server) FavoriteArticle(c *fiber.Ctx) error {
	article, err := s.articleService.FavoriteArticle(c.UserContext(), currentUserID(c), c.Params("slug"))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"article": article})
}

// UnfavoriteArticle removes the article from the caller's favorites.
func (s *Server) UnfavoriteArticle(c *fiber.Ctx) error {
	article, err := s.articleService.UnfavoriteArticle(c.UserContext(), currentUserID(c), c.Params("slug"))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"article": article})
}

// BookmarkArticle saves the article to the caller's reading list.
func (s *Server) BookmarkArticle(c *fiber.Ctx) error {
	bookmark, err := s.articleService.BookmarkArticle(c.UserContext(), currentUserID(c), c.Params("slug"))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"bookmark": bookmark})
}

// UnbookmarkArticle removes a saved article from the reading list.
func (s *Server) UnbookmarkArticle(c *fiber.Ctx) error {
	if err := s.articleService.UnbookmarkArticle(c.UserContext(), currentUserID(c), c.Params("slug")); err != nil {
		return respondServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListBookmarks returns the caller's reading list, newest first.
func (s *Server) ListBookmarks(c *fiber.Ctx) error {
	bookmarks, err := s.articleService.ListBookmarks(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"bookmarks": bookmarks,
		"count":     len(bookmarks),
	})
}

// ListTags returns every tag text in use.
func (s *Server) ListTags(c *fiber.Ctx) error {
	tags, err := s.articleService.ListTags(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}

	texts := make([]string, 0, len(tags))
	for _, tag := range tags {
		texts = append(texts, tag.Text)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"tags": texts})
}
