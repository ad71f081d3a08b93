package service

import (
	"context"
	"strings"

	"haven/internal/events"
	"haven/internal/models"
	"haven/internal/repository"
)

// CommentService handles threaded comments, their reactions and edit
// histories.
type CommentService struct {
	commentRepo repository.CommentRepository
	articleRepo repository.ArticleRepository
	profileRepo repository.ProfileRepository
	dispatcher  *events.Dispatcher
}

type CreateCommentInput struct {
	UserID   uint
	Slug     string
	ParentID *uint
	Body     string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Body      string
}

// NewCommentService creates a new comment service.
func NewCommentService(
	commentRepo repository.CommentRepository,
	articleRepo repository.ArticleRepository,
	profileRepo repository.ProfileRepository,
	dispatcher *events.Dispatcher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		articleRepo: articleRepo,
		profileRepo: profileRepo,
		dispatcher:  dispatcher,
	}
}

// CreateComment adds a comment, or a reply when ParentID is set. The parent
// must exist and belong to the same article. Publishes the creation event.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if strings.TrimSpace(in.Body) == "" {
		return nil, models.NewValidationError("Comment body is required")
	}

	author, err := s.profileRepo.GetByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	article, err := s.articleRepo.GetBySlug(ctx, in.Slug, 0)
	if err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.ArticleID != article.ID {
			return nil, models.NewValidationError("Parent comment belongs to a different article")
		}
	}

	comment := &models.Comment{
		Body:      in.Body,
		AuthorID:  author.ID,
		ArticleID: article.ID,
		ParentID:  in.ParentID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.dispatcher.CommentCreated(ctx, events.CommentCreated{
		CommentID:       comment.ID,
		ArticleID:       article.ID,
		ArticleSlug:     article.Slug,
		ArticleTitle:    article.Title,
		ArticleAuthor:   article.Author.User.Username,
		CommenterUserID: author.UserID,
		Commenter:       author.User.Username,
		Body:            comment.Body,
	})

	return comment, nil
}

// ListComments returns the article's comments as a tree: root comments in
// creation order, each carrying its replies recursively. Assembled in
// memory from one flat query.
func (s *CommentService) ListComments(ctx context.Context, slug string) ([]*models.Comment, error) {
	article, err := s.articleRepo.GetBySlug(ctx, slug, 0)
	if err != nil {
		return nil, err
	}

	flat, err := s.commentRepo.ListByArticle(ctx, article.ID)
	if err != nil {
		return nil, err
	}

	byParent := make(map[uint][]*models.Comment)
	var roots []*models.Comment
	for _, c := range flat {
		c.Replies = []*models.Comment{}
		if c.ParentID == nil {
			roots = append(roots, c)
		} else {
			byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
		}
	}
	// flat is ordered oldest first, so children attach in creation order.
	for _, c := range flat {
		c.Replies = append(c.Replies, byParent[c.ID]...)
	}

	if roots == nil {
		roots = []*models.Comment{}
	}
	return roots, nil
}

// GetComment returns a single comment with its reaction counts.
func (s *CommentService) GetComment(ctx context.Context, commentID uint) (*models.Comment, error) {
	return s.commentRepo.GetByID(ctx, commentID)
}

// UpdateComment overwrites the body, snapshotting the previous body into
// the edit history first. Only the comment's author may edit. Submitting
// the unchanged body is a no-op and records nothing.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	if strings.TrimSpace(in.Body) == "" {
		return nil, models.NewValidationError("Comment body is required")
	}

	author, err := s.profileRepo.GetByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != author.ID {
		return nil, models.NewForbiddenError("Only the author can edit this comment")
	}

	if comment.Body == in.Body {
		return comment, nil
	}

	if err := s.commentRepo.UpdateBody(ctx, comment, in.Body); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes the comment and its whole reply subtree. Only the
// comment's author may delete.
func (s *CommentService) DeleteComment(ctx context.Context, currentUserID, commentID uint) error {
	author, err := s.profileRepo.GetByUserID(ctx, currentUserID)
	if err != nil {
		return err
	}
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != author.ID {
		return models.NewForbiddenError("Only the author can delete this comment")
	}
	return s.commentRepo.Delete(ctx, commentID)
}

// History returns the comment's edit snapshots, oldest first. A comment
// that was never edited has no history to show.
func (s *CommentService) History(ctx context.Context, commentID uint) ([]*models.CommentEditHistory, error) {
	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return nil, err
	}
	history, err := s.commentRepo.ListHistory(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, models.NewNotFoundError("Edit history", commentID)
	}
	return history, nil
}

// LikeComment toggles the caller's like, clearing any dislike first.
func (s *CommentService) LikeComment(ctx context.Context, currentUserID, commentID uint) (*models.Comment, error) {
	return s.react(ctx, currentUserID, commentID, true)
}

// DislikeComment toggles the caller's dislike, clearing any like first.
func (s *CommentService) DislikeComment(ctx context.Context, currentUserID, commentID uint) (*models.Comment, error) {
	return s.react(ctx, currentUserID, commentID, false)
}

func (s *CommentService) react(ctx context.Context, currentUserID, commentID uint, like bool) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}

	if like {
		liked, err := s.commentRepo.IsLiked(ctx, currentUserID, comment.ID)
		if err != nil {
			return nil, err
		}
		if liked {
			err = s.commentRepo.Unlike(ctx, currentUserID, comment.ID)
		} else {
			if err = s.commentRepo.Undislike(ctx, currentUserID, comment.ID); err == nil {
				err = s.commentRepo.Like(ctx, currentUserID, comment.ID)
			}
		}
		if err != nil {
			return nil, err
		}
	} else {
		disliked, err := s.commentRepo.IsDisliked(ctx, currentUserID, comment.ID)
		if err != nil {
			return nil, err
		}
		if disliked {
			err = s.commentRepo.Undislike(ctx, currentUserID, comment.ID)
		} else {
			if err = s.commentRepo.Unlike(ctx, currentUserID, comment.ID); err == nil {
				err = s.commentRepo.Dislike(ctx, currentUserID, comment.ID)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	return s.commentRepo.GetByID(ctx, commentID)
}
