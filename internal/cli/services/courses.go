package services

import (
	"context"
	"net/url"
	"strconv"

	"github.com/coursehub-dev/coursehub/internal/models"
)

const (
	DefaultPageSize = 10
	DefaultSortBy   = "createdAt"
	DefaultSortDir  = "desc"
)

// PageParams selects a page of the published catalog. Zero values take the defaults.
type PageParams struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
}

func (p PageParams) values() url.Values {
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.SortBy == "" {
		p.SortBy = DefaultSortBy
	}
	if p.SortDir == "" {
		p.SortDir = DefaultSortDir
	}
	if p.Page < 0 {
		p.Page = 0
	}
	return url.Values{
		"page":    {strconv.Itoa(p.Page)},
		"size":    {strconv.Itoa(p.Size)},
		"sortBy":  {p.SortBy},
		"sortDir": {p.SortDir},
	}
}

// SearchFilters narrows a catalog search. Empty fields are not sent.
type SearchFilters struct {
	Query    string
	Category string
	Level    models.CourseLevel
	MinPrice *float64
	MaxPrice *float64
	Page     *int
	Size     *int
}

func (f SearchFilters) values() url.Values {
	v := url.Values{}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.Level != "" {
		v.Set("level", string(f.Level))
	}
	if f.MinPrice != nil {
		v.Set("minPrice", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		v.Set("maxPrice", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	if f.Page != nil {
		v.Set("page", strconv.Itoa(*f.Page))
	}
	if f.Size != nil {
		v.Set("size", strconv.Itoa(*f.Size))
	}
	return v
}

// CourseService talks to the /courses endpoints
type CourseService struct {
	api Requester
}

func NewCourseService(api Requester) *CourseService {
	return &CourseService{api: api}
}

// Published lists the public catalog
func (s *CourseService) Published(ctx context.Context, params PageParams) (*models.Page[models.Course], error) {
	var page models.Page[models.Course]
	if err := s.api.Get(ctx, "/courses/public", params.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *CourseService) Search(ctx context.Context, filters SearchFilters) (*models.Page[models.Course], error) {
	var page models.Page[models.Course]
	if err := s.api.Get(ctx, "/courses/search", filters.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := s.api.Get(ctx, pathOf("/courses", id), nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create submits a new course; the backend assigns the instructor
func (s *CourseService) Create(ctx context.Context, course *models.Course) (*models.Course, error) {
	var created models.Course
	if err := s.api.Post(ctx, "/courses", course, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *CourseService) Update(ctx context.Context, id string, course *models.Course) (*models.Course, error) {
	var updated models.Course
	if err := s.api.Put(ctx, pathOf("/courses", id), course, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Enroll enrolls the current user in the course
func (s *CourseService) Enroll(ctx context.Context, id string) (*models.EnrollmentResponse, error) {
	var resp models.EnrollmentResponse
	if err := s.api.Post(ctx, pathOf("/courses", id, "enroll"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *CourseService) Publish(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := s.api.Post(ctx, pathOf("/courses", id, "publish"), nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// Statistics returns the catalog-wide aggregate figures
func (s *CourseService) Statistics(ctx context.Context) (models.Statistics, error) {
	var stats models.Statistics
	if err := s.api.Get(ctx, "/courses/statistics", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
