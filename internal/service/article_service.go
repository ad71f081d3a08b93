package service

import (
	"context"
	"strings"

	"haven/internal/cache"
	"haven/internal/events"
	"haven/internal/models"
	"haven/internal/repository"
	"haven/internal/validation"
)

// ArticleService handles article CRUD, reactions, ratings, favorites and
// bookmarks.
type ArticleService struct {
	articleRepo  repository.ArticleRepository
	profileRepo  repository.ProfileRepository
	ratingRepo   repository.RatingRepository
	bookmarkRepo repository.BookmarkRepository
	dispatcher   *events.Dispatcher
}

type CreateArticleInput struct {
	UserID      uint
	Title       string
	Body        string
	Description string
	ImageURL    string
	Tags        []string
}

type UpdateArticleInput struct {
	UserID      uint
	Slug        string
	Title       *string
	Body        *string
	Description *string
	ImageURL    *string
	Tags        []string
}

type ListArticlesInput struct {
	Tag           string
	Limit         int
	Offset        int
	CurrentUserID uint
}

type RateArticleInput struct {
	UserID uint
	Slug   string
	Stars  int
}

// NewArticleService creates a new article service.
func NewArticleService(
	articleRepo repository.ArticleRepository,
	profileRepo repository.ProfileRepository,
	ratingRepo repository.RatingRepository,
	bookmarkRepo repository.BookmarkRepository,
	dispatcher *events.Dispatcher,
) *ArticleService {
	return &ArticleService{
		articleRepo:  articleRepo,
		profileRepo:  profileRepo,
		ratingRepo:   ratingRepo,
		bookmarkRepo: bookmarkRepo,
		dispatcher:   dispatcher,
	}
}

// currentProfileID resolves a user ID to its profile ID, 0 for anonymous.
func (s *ArticleService) currentProfileID(ctx context.Context, userID uint) (uint, error) {
	if userID == 0 {
		return 0, nil
	}
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return profile.ID, nil
}

// CreateArticle slugifies the title, picks the first free slug in the
// base, base-1, base-2 sequence, stores the article and publishes the
// creation event.
func (s *ArticleService) CreateArticle(ctx context.Context, in CreateArticleInput) (*models.Article, error) {
	if err := validation.ValidateArticleTitle(in.Title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if strings.TrimSpace(in.Body) == "" {
		return nil, models.NewValidationError("Body is required")
	}

	author, err := s.profileRepo.GetByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	slug, err := uniquifySlug(ctx, Slugify(in.Title), s.articleRepo.SlugExists)
	if err != nil {
		return nil, err
	}

	article := &models.Article{
		Title:       strings.TrimSpace(in.Title),
		Slug:        slug,
		Body:        in.Body,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		AuthorID:    author.ID,
	}
	if err := s.articleRepo.Create(ctx, article, in.Tags); err != nil {
		return nil, err
	}
	article.Author = *author

	s.dispatcher.ArticleCreated(ctx, events.ArticleCreated{
		ArticleID:       article.ID,
		Slug:            article.Slug,
		Title:           article.Title,
		AuthorProfileID: author.ID,
		AuthorUserID:    author.UserID,
		AuthorUsername:  author.User.Username,
	})

	return article, nil
}

// GetArticle returns the article with counts computed for the requesting
// user (0 for anonymous).
func (s *ArticleService) GetArticle(ctx context.Context, slug string, currentUserID uint) (*models.Article, error) {
	profileID, err := s.currentProfileID(ctx, currentUserID)
	if err != nil {
		return nil, err
	}
	return s.articleRepo.GetBySlug(ctx, slug, profileID)
}

// ListArticles returns a page of articles, optionally narrowed to a tag.
func (s *ArticleService) ListArticles(ctx context.Context, in ListArticlesInput) ([]*models.Article, int64, error) {
	profileID, err := s.currentProfileID(ctx, in.CurrentUserID)
	if err != nil {
		return nil, 0, err
	}
	return s.articleRepo.List(ctx, in.Tag, in.Limit, in.Offset, profileID)
}

// UpdateArticle applies the provided fields. Only the author may update,
// and the slug never changes after creation.
func (s *ArticleService) UpdateArticle(ctx context.Context, in UpdateArticleInput) (*models.Article, error) {
	author, err := s.profileRepo.GetByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	article, err := s.articleRepo.GetBySlug(ctx, in.Slug, author.ID)
	if err != nil {
		return nil, err
	}
	if article.AuthorID != author.ID {
		return nil, models.NewForbiddenError("Only the author can edit this article")
	}

	if in.Title != nil {
		if err := validation.ValidateArticleTitle(*in.Title); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		article.Title = strings.TrimSpace(*in.Title)
	}
	if in.Body != nil {
		if strings.TrimSpace(*in.Body) == "" {
			return nil, models.NewValidationError("Body cannot be empty")
		}
		article.Body = *in.Body
	}
	if in.Description != nil {
		article.Description = *in.Description
	}
	if in.ImageURL != nil {
		article.ImageURL = *in.ImageURL
	}

	if err := s.articleRepo.Update(ctx, article, in.Tags); err != nil {
		return nil, err
	}
	return article, nil
}

// DeleteArticle removes the article and everything attached to it. Only the
// author may delete.
func (s *ArticleService) DeleteArticle(ctx context.Context, currentUserID uint, slug string) error {
	author, err := s.profileRepo.GetByUserID(ctx, currentUserID)
	if err != nil {
		return err
	}

	article, err := s.articleRepo.GetBySlug(ctx, slug, author.ID)
	if err != nil {
		return err
	}
	if article.AuthorID != author.ID {
		return models.NewForbiddenError("Only the author can delete this article")
	}

	return s.articleRepo.Delete(ctx, article)
}

// RateArticle records or revises the caller's star rating and returns the
// live average. A rating may be revised at most five times; after that the
// request is refused.
func (s *ArticleService) RateArticle(ctx context.Context, in RateArticleInput) (float64, error) {
	if err := validation.ValidateStars(in.Stars); err != nil {
		return 0, models.NewValidationError(err.Error())
	}

	rater, err := s.profileRepo.GetByUserID(ctx, in.UserID)
	if err != nil {
		return 0, err
	}
	article, err := s.articleRepo.GetBySlug(ctx, in.Slug, rater.ID)
	if err != nil {
		return 0, err
	}

	rating, err := s.ratingRepo.GetByRaterAndArticle(ctx, rater.ID, article.ID)
	if err != nil {
		return 0, err
	}

	if rating == nil {
		rating = &models.Rating{
			RaterID:   rater.ID,
			ArticleID: article.ID,
			Stars:     in.Stars,
		}
		if err := s.ratingRepo.Create(ctx, rating); err != nil {
			return 0, err
		}
	} else {
		if rating.Counter >= models.MaxRatingEdits {
			return 0, models.NewForbiddenError("You are not allowed to change your rating anymore")
		}
		rating.Stars = in.Stars
		rating.Counter++
		if err := s.ratingRepo.Update(ctx, rating); err != nil {
			return 0, err
		}
	}

	cache.InvalidateArticle(ctx, article.Slug)
	return s.ratingRepo.Average(ctx, article.ID)
}

// LikeArticle toggles the caller's like. Liking while a dislike is set
// clears the dislike first; likes and dislikes never coexist.
func (s *ArticleService) LikeArticle(ctx context.Context, currentUserID uint, slug string) (*models.Article, error) {
	return s.react(ctx, currentUserID, slug, true)
}

// DislikeArticle toggles the caller's dislike, clearing any like first.
func (s *ArticleService) DislikeArticle(ctx context.Context, currentUserID uint, slug string) (*models.Article, error) {
	return s.react(ctx, currentUserID, slug, false)
}

func (s *ArticleService) react(ctx context.Context, currentUserID uint, slug string, like bool) (*models.Article, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, currentUserID)
	if err != nil {
		return nil, err
	}
	article, err := s.articleRepo.GetBySlug(ctx, slug, profile.ID)
	if err != nil {
		return nil, err
	}

	if like {
		liked, err := s.articleRepo.IsLiked(ctx, currentUserID, article.ID)
		if err != nil {
			return nil, err
		}
		if liked {
			err = s.articleRepo.Unlike(ctx, currentUserID, article.ID)
		} else {
			if err = s.articleRepo.Undislike(ctx, currentUserID, article.ID); err == nil {
				err = s.articleRepo.Like(ctx, currentUserID, article.ID)
			}
		}
		if err != nil {
			return nil, err
		}
	} else {
		disliked, err := s.articleRepo.IsDisliked(ctx, currentUserID, article.ID)
		if err != nil {
			return nil, err
		}
		if disliked {
			err = s.articleRepo.Undislike(ctx, currentUserID, article.ID)
		} else {
			if err = s.articleRepo.Unlike(ctx, currentUserID, article.ID); err == nil {
				err = s.articleRepo.Dislike(ctx, currentUserID, article.ID)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	cache.InvalidateArticle(ctx, slug)
	return s.articleRepo.GetBySlug(ctx, slug, profile.ID)
}

// FavoriteArticle adds the article to the caller's favorites. Favoriting
// twice is harmless.
func (s *ArticleService) FavoriteArticle(ctx context.Context, currentUserID uint, slug string) (*models.Article, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, currentUserID)
	if err != nil {
		return nil, err
	}
	article, err := s.articleRepo.GetBySlug(ctx, slug, profile.ID)
	if err != nil {
		return nil, err
	}
	if err := s.profileRepo.Favorite(ctx, profile.ID, article.ID); err != nil {
		return nil, err
	}
	cache.InvalidateArticle(ctx, slug)
	return s.articleRepo.GetBySlug(ctx, slug, profile.ID)
}

// UnfavoriteArticle removes the article from the caller's favorites.
func (s *ArticleService) UnfavoriteArticle(ctx context.Context, currentUserID uint, slug string) (*models.Article, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, currentUserID)
	if err != nil {
		return nil, err
	}
	article, err := s.articleRepo.GetBySlug(ctx, slug, profile.ID)
	if err != nil {
		return nil, err
	}
	if err := s.profileRepo.Unfavorite(ctx, profile.ID, article.ID); err != nil {
		return nil, err
	}
	cache.InvalidateArticle(ctx, slug)
	return s.articleRepo.GetBySlug(ctx, slug, profile.ID)
}

// BookmarkArticle saves the article for later reading. Each call inserts a
// fresh bookmark row.
func (s *ArticleService) BookmarkArticle(ctx context.Context, currentUserID uint, slug string) (*models.Bookmark, error) {
	article, err := s.articleRepo.GetBySlug(ctx, slug, 0)
	if err != nil {
		return nil, err
	}

	bookmark := &models.Bookmark{UserID: currentUserID, ArticleID: article.ID}
	if err := s.bookmarkRepo.Create(ctx, bookmark); err != nil {
		return nil, err
	}
	return bookmark, nil
}

// UnbookmarkArticle removes the caller's bookmarks on the article. Removing
// a bookmark that does not exist is an error.
func (s *ArticleService) UnbookmarkArticle(ctx context.Context, currentUserID uint, slug string) error {
	article, err := s.articleRepo.GetBySlug(ctx, slug, 0)
	if err != nil {
		return err
	}

	deleted, err := s.bookmarkRepo.DeleteByUserAndArticle(ctx, currentUserID, article.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Bookmark", slug)
	}
	return nil
}

// ListBookmarks returns the caller's bookmarks, newest first.
func (s *ArticleService) ListBookmarks(ctx context.Context, currentUserID uint) ([]*models.Bookmark, error) {
	return s.bookmarkRepo.ListByUser(ctx, currentUserID)
}

// ListTags returns every tag in use.
func (s *ArticleService) ListTags(ctx context.Context) ([]*models.Tag, error) {
	return s.articleRepo.ListTags(ctx)
}
