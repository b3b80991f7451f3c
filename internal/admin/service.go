package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/snaapconnections/storefront/pkg/enums"
	pkgerrors "github.com/snaapconnections/storefront/pkg/errors"
	"github.com/snaapconnections/storefront/pkg/logger"
	"github.com/snaapconnections/storefront/pkg/pagination"
	"github.com/snaapconnections/storefront/pkg/storefrontapi"
)

// StatusAll disables the order status filter.
const StatusAll = "all"

type upstream interface {
	Login(ctx context.Context, password string) (string, error)
	CheckAuth(ctx context.Context) error
	CreateResource(ctx context.Context, r storefrontapi.Resource, body json.RawMessage) (json.RawMessage, error)
	UpdateResource(ctx context.Context, r storefrontapi.Resource, id string, body json.RawMessage) (json.RawMessage, error)
	DeleteResource(ctx context.Context, r storefrontapi.Resource, id string) error
	ListCustomers(ctx context.Context, query url.Values) (*storefrontapi.CustomerPage, error)
	UpdateCustomer(ctx context.Context, id string, body json.RawMessage) (json.RawMessage, error)
	ListOrders(ctx context.Context, query url.Values) (*storefrontapi.OrderPage, error)
	GetOrder(ctx context.Context, id string) (*storefrontapi.Order, error)
	UpdateOrderStatus(ctx context.Context, id, status string) (*storefrontapi.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	Dashboard(ctx context.Context) (json.RawMessage, error)
}

// Service is the back-office surface. Every call except Login expects the
// admin bearer token on ctx.
type Service interface {
	Login(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context) error
	Create(ctx context.Context, r storefrontapi.Resource, body json.RawMessage) (json.RawMessage, error)
	Update(ctx context.Context, r storefrontapi.Resource, id string, body json.RawMessage) (json.RawMessage, error)
	Delete(ctx context.Context, r storefrontapi.Resource, id string) error
	Customers(ctx context.Context, q ListQuery) (*CustomerList, error)
	UpdateCustomer(ctx context.Context, id string, body json.RawMessage) (json.RawMessage, error)
	Orders(ctx context.Context, q ListQuery) (*OrderList, error)
	Order(ctx context.Context, id string) (*storefrontapi.Order, error)
	SetOrderStatus(ctx context.Context, id, status string) (*storefrontapi.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	Dashboard(ctx context.Context) (json.RawMessage, error)
}

// ListQuery is the paging and filter state of an admin table.
type ListQuery struct {
	Page   int
	Limit  int
	Search string
	Status string
}

type CustomerList struct {
	Customers []storefrontapi.Customer `json:"customers"`
	Meta      pagination.Meta          `json:"meta"`
}

type OrderList struct {
	Orders []storefrontapi.Order `json:"orders"`
	Meta   pagination.Meta       `json:"meta"`
}

type service struct {
	api  upstream
	logg *logger.Logger
}

func NewService(api upstream, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("storefront api client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{api: api, logg: logg}, nil
}

func (s *service) Login(ctx context.Context, password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}
	token, err := s.api.Login(ctx, password)
	if err != nil {
		if pkgerrors.CodeOf(err) == pkgerrors.CodeValidation || pkgerrors.CodeOf(err) == pkgerrors.CodeUnauthorized {
			return "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid password")
		}
		return "", err
	}
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "login response carried no token")
	}
	s.logg.Info(ctx, "admin login succeeded")
	return token, nil
}

func (s *service) Verify(ctx context.Context) error {
	return s.api.CheckAuth(ctx)
}

func (s *service) Create(ctx context.Context, r storefrontapi.Resource, body json.RawMessage) (json.RawMessage, error) {
	if err := checkResource(r); err != nil {
		return nil, err
	}
	if err := requireObject(body); err != nil {
		return nil, err
	}
	return s.api.CreateResource(ctx, r, body)
}

func (s *service) Update(ctx context.Context, r storefrontapi.Resource, id string, body json.RawMessage) (json.RawMessage, error) {
	if err := checkResource(r); err != nil {
		return nil, err
	}
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := requireObject(body); err != nil {
		return nil, err
	}
	return s.api.UpdateResource(ctx, r, id, body)
}

func (s *service) Delete(ctx context.Context, r storefrontapi.Resource, id string) error {
	if err := checkResource(r); err != nil {
		return err
	}
	if err := requireID(id); err != nil {
		return err
	}
	if err := s.api.DeleteResource(ctx, r, id); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"resource": string(r), "id": id}), "admin resource deleted")
	return nil
}

func (s *service) Customers(ctx context.Context, q ListQuery) (*CustomerList, error) {
	params, values := q.values()
	page, err := s.api.ListCustomers(ctx, values)
	if err != nil {
		return nil, err
	}
	return &CustomerList{Customers: page.Customers, Meta: pagination.NewMeta(params, page.Count)}, nil
}

func (s *service) UpdateCustomer(ctx context.Context, id string, body json.RawMessage) (json.RawMessage, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := requireObject(body); err != nil {
		return nil, err
	}
	return s.api.UpdateCustomer(ctx, id, body)
}

func (s *service) Orders(ctx context.Context, q ListQuery) (*OrderList, error) {
	params, values := q.values()
	status := strings.ToLower(strings.TrimSpace(q.Status))
	if status != "" && status != StatusAll {
		parsed, err := enums.ParseOrderStatus(status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown order status").
				WithDetails(map[string]any{"status": q.Status})
		}
		values.Set("status", parsed.String())
	}
	page, err := s.api.ListOrders(ctx, values)
	if err != nil {
		return nil, err
	}
	return &OrderList{Orders: page.Orders, Meta: pagination.NewMeta(params, page.Total)}, nil
}

func (s *service) Order(ctx context.Context, id string) (*storefrontapi.Order, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return s.api.GetOrder(ctx, id)
}

func (s *service) SetOrderStatus(ctx context.Context, id, status string) (*storefrontapi.Order, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	parsed, err := enums.ParseOrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown order status").
			WithDetails(map[string]any{"status": status})
	}
	order, err := s.api.UpdateOrderStatus(ctx, id, parsed.String())
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"order_id": id, "status": parsed.String()}), "order status updated")
	return order, nil
}

func (s *service) DeleteOrder(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return s.api.DeleteOrder(ctx, id)
}

func (s *service) Dashboard(ctx context.Context) (json.RawMessage, error) {
	return s.api.Dashboard(ctx)
}

func (q ListQuery) values() (pagination.Params, url.Values) {
	params := pagination.Params{Page: q.Page, Limit: q.Limit}.Normalize()
	values := url.Values{}
	values.Set("page", strconv.Itoa(params.Page))
	values.Set("limit", strconv.Itoa(params.Limit))
	if search := strings.TrimSpace(q.Search); search != "" {
		values.Set("search", search)
	}
	return params, values
}

func checkResource(r storefrontapi.Resource) error {
	switch r {
	case storefrontapi.ResourceProducts, storefrontapi.ResourceCategories, storefrontapi.ResourceBrands:
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "unknown admin resource")
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "id is required")
	}
	return nil
}

func requireObject(body json.RawMessage) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body must be a JSON object")
	}
	return nil
}
