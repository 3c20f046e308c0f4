package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"noteify/internal/config"
	"noteify/internal/models"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const DefaultCategory = "general"

type PostInput struct {
	Title    string `json:"title" form:"title"`
	Content  string `json:"content" form:"content"`
	Category string `json:"category" form:"category"`
}

// ForumService stores discussion posts and their comments. In snapshot mode
// posts show the author name and avatar captured when they were written; in
// live mode they are resolved from the current user record when it exists.
type ForumService struct {
	db   *gorm.DB
	mode string
	log  *zap.Logger
}

func NewForumService(db *gorm.DB, mode string, log *zap.Logger) *ForumService {
	if mode != config.AuthorModeLive {
		mode = config.AuthorModeSnapshot
	}
	return &ForumService{db: db, mode: mode, log: log}
}

// NormalizeCategory maps free-form input to a slug, "" becoming the default.
func NormalizeCategory(category string) string {
	s := slug.Make(strings.TrimSpace(category))
	if s == "" {
		return DefaultCategory
	}
	return s
}

func (s *ForumService) ListPosts(ctx context.Context, category string) ([]models.ForumPost, error) {
	q := s.db.WithContext(ctx).Model(&models.ForumPost{}).
		Select("forum_posts.*, (SELECT COUNT(*) FROM forum_comments WHERE forum_comments.post_id = forum_posts.id) AS replies")

	if category = strings.TrimSpace(category); category != "" && category != "all" {
		q = q.Where("forum_posts.category = ?", NormalizeCategory(category))
	}

	posts := []models.ForumPost{}
	if err := q.Order("forum_posts.created_at DESC, forum_posts.id DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	if err := s.resolvePostAuthors(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *ForumService) CreatePost(ctx context.Context, author *models.User, in PostInput) (*models.ForumPost, error) {
	post := &models.ForumPost{
		Title:        strings.TrimSpace(in.Title),
		Content:      strings.TrimSpace(in.Content),
		Category:     NormalizeCategory(in.Category),
		AuthorName:   author.DisplayName(),
		AuthorAvatar: author.Avatar(),
		AuthorID:     &author.ID,
	}
	if post.Title == "" {
		return nil, invalid("title", "title is required")
	}
	if post.Content == "" {
		return nil, invalid("content", "content is required")
	}
	if len(post.Title) > 200 {
		return nil, invalid("title", "title is limited to 200 characters")
	}

	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return post, nil
}

// GetPost returns a post with its comments in the order they were written.
func (s *ForumService) GetPost(ctx context.Context, id uint) (*models.ForumPost, error) {
	var post models.ForumPost
	err := s.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("forum_comments.created_at ASC, forum_comments.id ASC")
		}).
		First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: post %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	post.Replies = int64(len(post.Comments))

	posts := []models.ForumPost{post}
	if err := s.resolvePostAuthors(ctx, posts); err != nil {
		return nil, err
	}
	if err := s.resolveCommentAuthors(ctx, posts[0].Comments); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (s *ForumService) postExists(ctx context.Context, id uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.ForumPost{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: post %d", ErrNotFound, id)
	}
	return nil
}

// ListComments returns the comments of one post, oldest first.
func (s *ForumService) ListComments(ctx context.Context, postID uint) ([]models.ForumComment, error) {
	if err := s.postExists(ctx, postID); err != nil {
		return nil, err
	}
	comments := []models.ForumComment{}
	err := s.db.WithContext(ctx).Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	if err := s.resolveCommentAuthors(ctx, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *ForumService) AddComment(ctx context.Context, author *models.User, postID uint, text string) (*models.ForumComment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("text", "comment text is required")
	}
	if err := s.postExists(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.ForumComment{
		PostID:       postID,
		AuthorName:   author.DisplayName(),
		AuthorAvatar: author.Avatar(),
		AuthorID:     &author.ID,
		Text:         text,
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return comment, nil
}

// ListAllComments is the moderation view: every comment, newest first, with
// the title of the post it belongs to.
func (s *ForumService) ListAllComments(ctx context.Context) ([]models.ForumComment, error) {
	comments := []models.ForumComment{}
	err := s.db.WithContext(ctx).Model(&models.ForumComment{}).
		Select("forum_comments.*, forum_posts.title AS post_title").
		Joins("LEFT JOIN forum_posts ON forum_posts.id = forum_comments.post_id").
		Order("forum_comments.created_at DESC, forum_comments.id DESC").
		Find(&comments).Error
	return comments, err
}

// DeletePost removes a post together with all of its comments.
func (s *ForumService) DeletePost(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.ForumComment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.ForumPost{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: post %d", ErrNotFound, id)
		}
		return nil
	})
}

func (s *ForumService) DeleteComment(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.ForumComment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: comment %d", ErrNotFound, id)
	}
	return nil
}

// liveAuthors loads the users behind ids; nil in snapshot mode.
func (s *ForumService) liveAuthors(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	if s.mode != config.AuthorModeLive || len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

func (s *ForumService) resolvePostAuthors(ctx context.Context, posts []models.ForumPost) error {
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		if p.AuthorID != nil {
			ids = append(ids, *p.AuthorID)
		}
	}
	authors, err := s.liveAuthors(ctx, ids)
	if err != nil || authors == nil {
		return err
	}
	for i := range posts {
		if posts[i].AuthorID == nil {
			continue
		}
		if u, ok := authors[*posts[i].AuthorID]; ok {
			posts[i].AuthorName = u.DisplayName()
			posts[i].AuthorAvatar = u.Avatar()
		}
	}
	return nil
}

func (s *ForumService) resolveCommentAuthors(ctx context.Context, comments []models.ForumComment) error {
	ids := make([]uint, 0, len(comments))
	for _, c := range comments {
		if c.AuthorID != nil {
			ids = append(ids, *c.AuthorID)
		}
	}
	authors, err := s.liveAuthors(ctx, ids)
	if err != nil || authors == nil {
		return err
	}
	for i := range comments {
		if comments[i].AuthorID == nil {
			continue
		}
		if u, ok := authors[*comments[i].AuthorID]; ok {
			comments[i].AuthorName = u.DisplayName()
			comments[i].AuthorAvatar = u.Avatar()
		}
	}
	return nil
}
