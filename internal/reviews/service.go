package reviews

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
	"github.com/snaapconnections/storefront/pkg/logger"
	"github.com/snaapconnections/storefront/pkg/pagination"
	"github.com/snaapconnections/storefront/pkg/storefrontapi"
)

const (
	msgRequired    = "Name, rating, and comment are required."
	msgRateLimited = "You can only submit one review per minute."
)

type upstream interface {
	ProductReviews(ctx context.Context, productID string) ([]storefrontapi.Review, error)
	SubmitReview(ctx context.Context, productID string, in storefrontapi.ReviewInput) (*storefrontapi.Review, error)
	RecentReviews(ctx context.Context) ([]storefrontapi.Review, error)
	AdminReviews(ctx context.Context, limit, skip int) (*storefrontapi.ReviewPage, error)
	ApproveReview(ctx context.Context, id string) error
	DeleteReview(ctx context.Context, id string) error
}

// Service covers shopper review reads and submissions plus admin moderation.
type Service interface {
	ForProduct(ctx context.Context, productID string, query Query) (*ProductReviews, error)
	Submit(ctx context.Context, sessionID, productID string, input SubmitInput) (*storefrontapi.Review, error)
	Recent(ctx context.Context) ([]storefrontapi.Review, error)
	Moderation(ctx context.Context, page int) (*ModerationPage, error)
	Approve(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// Query narrows a product's review list.
type Query struct {
	Stars int
	Sort  SortOrder
}

type ProductReviews struct {
	Reviews     []storefrontapi.Review `json:"reviews"`
	Summary     Summary                `json:"summary"`
	TopComments []TopComment           `json:"topComments"`
}

type SubmitInput struct {
	Name     string `json:"name"`
	WhatsApp string `json:"whatsapp"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

type ModerationPage struct {
	Reviews []storefrontapi.Review `json:"reviews"`
	Meta    pagination.Meta        `json:"meta"`
}

type service struct {
	api     upstream
	limiter Limiter
	logg    *logger.Logger
}

func NewService(api upstream, limiter Limiter, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("storefront api client required")
	}
	if limiter == nil {
		return nil, fmt.Errorf("limiter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{api: api, limiter: limiter, logg: logg}, nil
}

// Validate trims the input and checks the required fields.
func Validate(in SubmitInput) (SubmitInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.WhatsApp = strings.TrimSpace(in.WhatsApp)
	in.Comment = strings.TrimSpace(in.Comment)
	if in.Name == "" || in.Comment == "" || in.Rating == 0 {
		return in, pkgerrors.New(pkgerrors.CodeValidation, msgRequired)
	}
	if in.Rating < 1 || in.Rating > 5 {
		return in, pkgerrors.New(pkgerrors.CodeValidation, "Rating must be between 1 and 5.").
			WithDetails(map[string]any{"rating": in.Rating})
	}
	return in, nil
}

func (s *service) ForProduct(ctx context.Context, productID string, query Query) (*ProductReviews, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if query.Stars < 0 || query.Stars > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stars must be between 0 and 5")
	}
	switch query.Sort {
	case "":
		query.Sort = SortNewest
	case SortNewest, SortOldest:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sort must be newest or oldest")
	}

	all, err := s.api.ProductReviews(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &ProductReviews{
		Reviews:     Arrange(all, query.Stars, query.Sort),
		Summary:     Summarize(all),
		TopComments: TopComments(all),
	}, nil
}

func (s *service) Submit(ctx context.Context, sessionID, productID string, input SubmitInput) (*storefrontapi.Review, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	in, err := Validate(input)
	if err != nil {
		return nil, err
	}

	allowed, err := s.limiter.Allow(ctx, sessionID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "review rate limiter unavailable; allowing submission")
	} else if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, msgRateLimited)
	}

	return s.api.SubmitReview(ctx, productID, storefrontapi.ReviewInput{
		Name:     in.Name,
		WhatsApp: in.WhatsApp,
		Rating:   in.Rating,
		Comment:  in.Comment,
	})
}

func (s *service) Recent(ctx context.Context) ([]storefrontapi.Review, error) {
	return s.api.RecentReviews(ctx)
}

// Moderation lists every review a page at a time for the admin queue.
func (s *service) Moderation(ctx context.Context, page int) (*ModerationPage, error) {
	params := pagination.Params{Page: page, Limit: pagination.ModerationPageSize}
	res, err := s.api.AdminReviews(ctx, pagination.ModerationPageSize, params.Skip())
	if err != nil {
		return nil, err
	}
	return &ModerationPage{
		Reviews: res.Reviews,
		Meta:    pagination.NewMeta(params, res.Total),
	}, nil
}

func (s *service) Approve(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "review id is required")
	}
	return s.api.ApproveReview(ctx, id)
}

func (s *service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "review id is required")
	}
	return s.api.DeleteReview(ctx, id)
}
