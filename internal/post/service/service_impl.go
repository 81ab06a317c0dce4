package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	accountdomain "github.com/smallbiznis/inkpost/internal/account/domain"
	"github.com/smallbiznis/inkpost/internal/clock"
	"github.com/smallbiznis/inkpost/internal/observability/metrics"
	"github.com/smallbiznis/inkpost/internal/post/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxTitleLength = 100
	maxSlugLength  = 250
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Accounts accountdomain.Service
	Clock    clock.Clock
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	accounts accountdomain.Service
	clock    clock.Clock
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("post.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		accounts: p.Accounts,
		clock:    p.Clock,
		metrics:  p.Metrics,
	}
}

func (s *Service) ListPublished(ctx context.Context) ([]domain.Post, error) {
	items, err := s.repo.List(ctx, s.db, domain.ListFilter{Status: domain.StatusPublished})
	if err != nil {
		return nil, err
	}
	return flatten(items), nil
}

func (s *Service) Create(ctx context.Context, callerID snowflake.ID, req domain.CreatePostRequest) (*domain.Post, error) {
	authorID := callerID
	if raw := strings.TrimSpace(req.AuthorID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil || parsed == 0 {
			return nil, domain.ErrInvalidAuthor
		}
		authorID = parsed
	}
	if callerID == 0 || authorID != callerID {
		return nil, domain.ErrForbidden
	}

	title, err := validateTitle(req.Title)
	if err != nil {
		return nil, err
	}
	body, err := validateBody(req.Body)
	if err != nil {
		return nil, err
	}

	status := domain.StatusDraft
	if strings.TrimSpace(req.Status) != "" {
		parsed, ok := domain.ParseStatus(req.Status)
		if !ok {
			return nil, domain.ErrInvalidStatus
		}
		status = parsed
	}

	id := s.genID.Generate()
	postSlug, err := resolveSlug(req.Slug, title, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	publish := now
	if req.Publish != nil && !req.Publish.IsZero() {
		publish = req.Publish.UTC()
	}

	post := &domain.Post{
		ID:        id,
		Title:     title,
		Slug:      postSlug,
		Body:      body,
		AuthorID:  authorID,
		Publish:   publish,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    status,
	}
	if err := s.repo.Insert(ctx, s.db, post); err != nil {
		return nil, err
	}

	if status == domain.StatusPublished {
		s.metrics.RecordPostPublished(ctx)
	}
	s.log.Info("post created",
		zap.String("post_id", post.ID.String()),
		zap.String("status", string(post.Status)),
	)
	return post, nil
}

func (s *Service) Get(ctx context.Context, postID string) (*domain.Post, error) {
	id, err := parseID(postID)
	if err != nil {
		return nil, err
	}
	return s.findPublished(ctx, id)
}

func (s *Service) Update(ctx context.Context, postID string, callerID snowflake.ID, req domain.UpdatePostRequest) (*domain.Post, error) {
	id, err := parseID(postID)
	if err != nil {
		return nil, err
	}
	post, err := s.findPublished(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != callerID {
		return nil, domain.ErrForbidden
	}

	wasPublished := post.Status == domain.StatusPublished
	if req.Title != nil {
		if post.Title, err = validateTitle(*req.Title); err != nil {
			return nil, err
		}
	}
	if req.Body != nil {
		if post.Body, err = validateBody(*req.Body); err != nil {
			return nil, err
		}
	}
	if req.Slug != nil {
		if post.Slug, err = resolveSlug(*req.Slug, post.Title, post.ID); err != nil {
			return nil, err
		}
	}
	if req.Status != nil {
		status, ok := domain.ParseStatus(*req.Status)
		if !ok {
			return nil, domain.ErrInvalidStatus
		}
		post.Status = status
	}
	if req.Publish != nil && !req.Publish.IsZero() {
		post.Publish = req.Publish.UTC()
	}
	post.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, post); err != nil {
		return nil, err
	}
	if !wasPublished && post.Status == domain.StatusPublished {
		s.metrics.RecordPostPublished(ctx)
	}
	return post, nil
}

func (s *Service) Delete(ctx context.Context, postID string, callerID snowflake.ID) (*domain.Post, error) {
	id, err := parseID(postID)
	if err != nil {
		return nil, err
	}
	post, err := s.findPublished(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != callerID {
		return nil, domain.ErrForbidden
	}

	if err := s.repo.Delete(ctx, s.db, post.ID); err != nil {
		return nil, err
	}
	s.log.Info("post deleted", zap.String("post_id", post.ID.String()))
	return post, nil
}

func (s *Service) ListByAuthor(ctx context.Context, authorID string) ([]domain.Post, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(authorID))
	if err != nil || id == 0 {
		return nil, domain.ErrAuthorNotFound
	}
	if _, err := s.accounts.GetByID(ctx, id); err != nil {
		if errors.Is(err, accountdomain.ErrNotFound) {
			return nil, domain.ErrAuthorNotFound
		}
		return nil, err
	}

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{AuthorID: id})
	if err != nil {
		return nil, err
	}
	return flatten(items), nil
}

// Mutations look posts up among published ones only, same as reads.
func (s *Service) findPublished(ctx context.Context, id snowflake.ID) (*domain.Post, error) {
	post, err := s.repo.FindByID(ctx, s.db, id, domain.StatusPublished)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, domain.ErrNotFound
	}
	return post, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrNotFound
	}
	return id, nil
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" || utf8.RuneCountInString(title) > maxTitleLength {
		return "", domain.ErrInvalidTitle
	}
	return title, nil
}

func validateBody(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", domain.ErrInvalidBody
	}
	return raw, nil
}

func resolveSlug(raw, title string, id snowflake.ID) (string, error) {
	value := strings.TrimSpace(raw)
	if value != "" {
		if len(value) > maxSlugLength || !slug.IsSlug(value) {
			return "", domain.ErrInvalidSlug
		}
		return value, nil
	}

	generated := slug.Make(title)
	if generated == "" {
		generated = id.String()
	}
	if len(generated) > maxSlugLength {
		generated = strings.TrimRight(generated[:maxSlugLength], "-")
	}
	return generated, nil
}

func flatten(items []*domain.Post) []domain.Post {
	posts := make([]domain.Post, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		posts = append(posts, *item)
	}
	return posts
}
