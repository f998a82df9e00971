package catalog

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/abduss/goshop/internal/apperr"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultMaxImageSize = 5 * 1024 * 1024 // 5MB

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

type repository interface {
	List(ctx context.Context, q ListQuery) ([]Product, int, error)
	FindBySlug(ctx context.Context, slug string) (Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (Product, error)
	Create(ctx context.Context, in CreateInput) (Product, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateInput) (Product, error)
	SetImage(ctx context.Context, id uuid.UUID, object string) (Product, error)
	Delete(ctx context.Context, id uuid.UUID) (Product, error)
}

type imageStore interface {
	Put(ctx context.Context, object string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, object string) error
	URL(ctx context.Context, object string) (string, time.Time, error)
}

// Service implements catalog browsing and administration.
type Service struct {
	repo         repository
	images       imageStore
	logger       *zap.Logger
	maxImageSize int64
}

// NewService constructs a catalog Service.
func NewService(repo repository, images imageStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, images: images, logger: logger, maxImageSize: defaultMaxImageSize}
}

// List returns a page of active products.
func (s *Service) List(ctx context.Context, q ListQuery) (Page, error) {
	q, err := normalizeQuery(q)
	if err != nil {
		return Page{}, err
	}

	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, Total: total, Skip: q.Skip, Take: q.Take}, nil
}

func normalizeQuery(q ListQuery) (ListQuery, error) {
	q.Q = strings.TrimSpace(q.Q)
	q.Category = strings.TrimSpace(q.Category)
	if q.Skip < 0 || q.Take < 0 {
		return q, apperr.New(apperr.ErrInvalidInput, "skip and take must not be negative")
	}
	if q.Take == 0 {
		q.Take = defaultTake
	}
	if q.Take > maxTake {
		q.Take = maxTake
	}
	if q.Min != nil && q.Max != nil && *q.Min > *q.Max {
		return q, apperr.New(apperr.ErrInvalidInput, "min must not exceed max")
	}
	switch q.Sort {
	case "":
		q.Sort = SortTitleAsc
	case SortTitleAsc, SortTitleDesc, SortPriceAsc, SortPriceDesc:
	default:
		return q, apperr.New(apperr.ErrInvalidInput, fmt.Sprintf("unknown sort %q", q.Sort))
	}
	return q, nil
}

// GetBySlug returns one product with a presigned image URL when it has an image.
func (s *Service) GetBySlug(ctx context.Context, slug string) (Product, error) {
	p, err := s.repo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return Product{}, err
	}
	if p.ImageObject != nil && s.images != nil {
		url, _, err := s.images.URL(ctx, *p.ImageObject)
		if err != nil {
			s.logger.Warn("presign product image", zap.String("product_id", p.ID.String()), zap.Error(err))
		} else {
			p.ImageURL = url
		}
	}
	return p, nil
}

// Get returns a product by id regardless of whether it is active.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	return s.repo.FindByID(ctx, id)
}

// Create validates and inserts a product. A blank slug is derived from the title.
func (s *Service) Create(ctx context.Context, in CreateInput) (Product, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	if in.Title == "" {
		return Product{}, apperr.New(apperr.ErrInvalidInput, "title is required")
	}
	if in.PriceCents < 0 {
		return Product{}, apperr.New(apperr.ErrInvalidInput, "price_cents must not be negative")
	}
	in.Slug = Slugify(in.Slug)
	if in.Slug == "" {
		in.Slug = Slugify(in.Title)
	}
	if in.Slug == "" {
		return Product{}, ErrInvalidProduct
	}

	p, err := s.repo.Create(ctx, in)
	if err != nil {
		return Product{}, err
	}
	s.logger.Info("product created", zap.String("product_id", p.ID.String()), zap.String("slug", p.Slug))
	return p, nil
}

// Update changes the given fields of a product.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (Product, error) {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return Product{}, apperr.New(apperr.ErrInvalidInput, "title must not be empty")
		}
		in.Title = &title
	}
	if in.Slug != nil {
		slug := Slugify(*in.Slug)
		if slug == "" {
			return Product{}, apperr.New(apperr.ErrInvalidInput, "slug must not be empty")
		}
		in.Slug = &slug
	}
	if in.PriceCents != nil && *in.PriceCents < 0 {
		return Product{}, apperr.New(apperr.ErrInvalidInput, "price_cents must not be negative")
	}
	return s.repo.Update(ctx, id, in)
}

// Delete removes a product and its image.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (Product, error) {
	p, err := s.repo.Delete(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if p.ImageObject != nil && s.images != nil {
		if err := s.images.Remove(ctx, *p.ImageObject); err != nil {
			s.logger.Warn("remove product image", zap.String("object", *p.ImageObject), zap.Error(err))
		}
	}
	s.logger.Info("product deleted", zap.String("product_id", id.String()))
	return p, nil
}

// UploadImage stores an image for the product, replacing any previous one,
// and returns a presigned URL for it.
func (s *Service) UploadImage(ctx context.Context, id uuid.UUID, filename, contentType string, size int64, r io.Reader) (Image, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Image{}, err
	}
	if size > s.maxImageSize {
		return Image{}, ErrImageTooLarge
	}
	if !strings.HasPrefix(contentType, "image/") {
		return Image{}, ErrUnsupportedImage
	}

	object := fmt.Sprintf("products/%s/%s%s", id, uuid.New(), imageExtension(filename, contentType))
	if err := s.images.Put(ctx, object, r, size, contentType); err != nil {
		return Image{}, err
	}

	if _, err := s.repo.SetImage(ctx, id, object); err != nil {
		_ = s.images.Remove(ctx, object)
		return Image{}, err
	}
	if current.ImageObject != nil {
		if err := s.images.Remove(ctx, *current.ImageObject); err != nil {
			s.logger.Warn("remove replaced image", zap.String("object", *current.ImageObject), zap.Error(err))
		}
	}

	url, expires, err := s.images.URL(ctx, object)
	if err != nil {
		return Image{}, err
	}
	s.logger.Info("product image uploaded", zap.String("product_id", id.String()), zap.String("object", object))
	return Image{ProductID: id, Object: object, URL: url, ExpiresAt: expires}, nil
}

func imageExtension(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && len(ext) <= 5 {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-"), "-")
}
