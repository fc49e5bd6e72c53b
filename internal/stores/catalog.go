package stores

import (
	"context"
	"net/url"
	"strconv"

	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/internal/gateway"
	"github.com/baechuer/tutorhub/services/web-bff/internal/session"
)

const DefaultCourseLimit = 20

// CourseQuery filters the public course listing.
type CourseQuery struct {
	Page     int
	Limit    int
	Search   string
	Category string
	Sort     string
}

func (q CourseQuery) values() url.Values {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultCourseLimit
	}
	v := url.Values{}
	v.Set("pageNumber", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	return v
}

// Catalog reads the public catalog. It holds no state; every call goes to
// the backend.
type Catalog struct {
	gw session.Gateway
}

func NewCatalog(gw session.Gateway) *Catalog {
	return &Catalog{gw: gw}
}

func (c *Catalog) Courses(ctx context.Context, q CourseQuery) (domain.Page[domain.Course], error) {
	resp, err := c.gw.Get(ctx, "/course/get-courses", q.values())
	if err != nil {
		return domain.Page[domain.Course]{}, gateway.ToDomain(err)
	}
	items, meta, err := decodeList[domain.Course](resp, "courses")
	if err != nil {
		return domain.Page[domain.Course]{}, err
	}
	p := toPage(items, meta)
	if meta.CurrentPage == 0 && q.Page > 0 {
		p.CurrentPage = q.Page
	}
	return p, nil
}

func (c *Catalog) Featured(ctx context.Context) ([]domain.Course, error) {
	return c.list(ctx, "/course/get-featured-courses", nil)
}

func (c *Catalog) Popular(ctx context.Context, limit int) ([]domain.Course, error) {
	v := url.Values{}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	return c.list(ctx, "/course/get-popular-courses", v)
}

func (c *Catalog) list(ctx context.Context, path string, q url.Values) ([]domain.Course, error) {
	resp, err := c.gw.Get(ctx, path, q)
	if err != nil {
		return nil, gateway.ToDomain(err)
	}
	items, _, err := decodeList[domain.Course](resp, "courses")
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Course{}
	}
	return items, nil
}

func (c *Catalog) Course(ctx context.Context, id string) (*domain.Course, error) {
	resp, err := c.gw.Get(ctx, "/course/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, gateway.ToDomain(err)
	}
	env, err := gateway.Decode[struct {
		Course *domain.Course `json:"course"`
	}](resp)
	if err != nil {
		return nil, err
	}
	if env.Course == nil {
		return nil, domain.New(domain.KindNotFound, "course_not_found", "Course not found")
	}
	return env.Course, nil
}

func (c *Catalog) Categories(ctx context.Context) ([]domain.Category, error) {
	resp, err := c.gw.Get(ctx, "/category", nil)
	if err != nil {
		return nil, gateway.ToDomain(err)
	}
	items, _, err := decodeList[domain.Category](resp, "categories")
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Category{}
	}
	return items, nil
}
