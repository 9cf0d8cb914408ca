package fakeapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coursehub-dev/coursehub/internal/models"
)

func (s *Server) publishedCourses(c *gin.Context) {
	page, size := pageParams(c)
	sortBy := c.DefaultQuery("sortBy", "createdAt")
	desc := strings.EqualFold(c.DefaultQuery("sortDir", "desc"), "desc")

	courses := s.filterCourses(func(course models.Course) bool {
		return course.Status == models.CoursePublished
	})
	sortCourses(courses, sortBy, desc)

	c.JSON(http.StatusOK, paginate(courses, page, size))
}

func (s *Server) searchCourses(c *gin.Context) {
	page, size := pageParams(c)
	q := strings.ToLower(c.Query("q"))
	category := c.Query("category")
	level := models.CourseLevel(strings.ToUpper(c.Query("level")))
	minPrice, hasMin := floatQuery(c, "minPrice")
	maxPrice, hasMax := floatQuery(c, "maxPrice")

	courses := s.filterCourses(func(course models.Course) bool {
		if course.Status != models.CoursePublished {
			return false
		}
		if q != "" && !strings.Contains(strings.ToLower(course.Title), q) &&
			!strings.Contains(strings.ToLower(course.Description), q) {
			return false
		}
		if category != "" && !strings.EqualFold(course.Category, category) {
			return false
		}
		if level != "" && course.Level != level {
			return false
		}
		price := 0.0
		if course.Price != nil {
			price = *course.Price
		}
		if hasMin && price < minPrice {
			return false
		}
		if hasMax && price > maxPrice {
			return false
		}
		return true
	})
	sortCourses(courses, "createdAt", true)

	c.JSON(http.StatusOK, paginate(courses, page, size))
}

func (s *Server) courseStatistics(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	published, enrollments := 0, 0
	byCategory := map[string]int{}
	for _, course := range s.courses {
		if course.Status == models.CoursePublished {
			published++
		}
		enrollments += course.EnrollmentCount
		byCategory[course.Category]++
	}

	c.JSON(http.StatusOK, gin.H{
		"totalCourses":      len(s.courses),
		"publishedCourses":  published,
		"totalEnrollments":  enrollments,
		"coursesByCategory": byCategory,
		"totalUsers":        len(s.accounts),
	})
}

func (s *Server) getCourse(c *gin.Context) {
	course, ok := s.Course(c.Param("id"))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, course)
}

func (s *Server) createCourse(c *gin.Context) {
	var course models.Course
	if err := c.ShouldBindJSON(&course); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := checkCourse(course); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	acct := currentAccount(c)
	course.ID = ""
	course.InstructorID = acct.ID
	course.InstructorName = acct.Name
	course.Status = models.CourseDraft
	course.EnrollmentCount = 0
	course.CreatedAt = nil
	course.UpdatedAt = nil

	c.JSON(http.StatusOK, s.AddCourse(course))
}

func (s *Server) updateCourse(c *gin.Context) {
	existing, ok := s.Course(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Course not found"})
		return
	}
	if !canManage(currentAccount(c), existing) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not the course owner"})
		return
	}

	var course models.Course
	if err := c.ShouldBindJSON(&course); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := checkCourse(course); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	course.ID = existing.ID
	course.InstructorID = existing.InstructorID
	course.InstructorName = existing.InstructorName
	course.Status = existing.Status
	course.EnrollmentCount = existing.EnrollmentCount
	course.CreatedAt = existing.CreatedAt
	now := time.Now().UTC()
	course.UpdatedAt = &now

	c.JSON(http.StatusOK, s.AddCourse(course))
}

func (s *Server) enroll(c *gin.Context) {
	id := c.Param("id")
	acct := currentAccount(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	course, ok := s.courses[id]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Course not found"})
		return
	}
	if course.Status != models.CoursePublished {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Course is not published"})
		return
	}

	stored := s.accounts[acct.ID]
	for _, enrolled := range stored.Enrolled {
		if enrolled == id {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Already enrolled in this course"})
			return
		}
	}

	stored.Enrolled = append(stored.Enrolled, id)
	s.accounts[acct.ID] = stored
	course.EnrollmentCount++
	s.courses[id] = course

	c.JSON(http.StatusOK, gin.H{"message": "Enrolled successfully"})
}

func (s *Server) publishCourse(c *gin.Context) {
	existing, ok := s.Course(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Course not found"})
		return
	}
	if !canManage(currentAccount(c), existing) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not the course owner"})
		return
	}

	existing.Status = models.CoursePublished
	now := time.Now().UTC()
	existing.UpdatedAt = &now

	c.JSON(http.StatusOK, s.AddCourse(existing))
}

func (s *Server) filterCourses(keep func(models.Course) bool) []models.Course {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Course, 0, len(s.courses))
	for _, course := range s.courses {
		if keep(course) {
			out = append(out, course)
		}
	}
	return out
}

func checkCourse(course models.Course) string {
	switch {
	case strings.TrimSpace(course.Title) == "":
		return "Course title is required"
	case strings.TrimSpace(course.Description) == "":
		return "Course description is required"
	case strings.TrimSpace(course.Category) == "":
		return "Course category is required"
	case course.Price != nil && *course.Price < 0:
		return "Price must be positive"
	}
	return ""
}

func canManage(acct account, course models.Course) bool {
	return acct.Role == models.RoleAdmin || course.InstructorID == acct.ID
}

// sortCourses orders by createdAt (ULID order breaks ties) or title
func sortCourses(courses []models.Course, sortBy string, desc bool) {
	less := func(a, b models.Course) bool {
		if sortBy == "title" {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
		at, bt := timeOf(a.CreatedAt), timeOf(b.CreatedAt)
		if at.Equal(bt) {
			return a.ID < b.ID
		}
		return at.Before(bt)
	}
	sort.SliceStable(courses, func(i, j int) bool {
		if desc {
			return less(courses[j], courses[i])
		}
		return less(courses[i], courses[j])
	})
}

func timeOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func pageParams(c *gin.Context) (page, size int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		page = 0
	}
	size, err = strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size <= 0 {
		size = 10
	}
	return page, size
}

func floatQuery(c *gin.Context, key string) (float64, bool) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func paginate[T any](items []T, page, size int) models.Page[T] {
	total := len(items)
	totalPages := (total + size - 1) / size

	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	content := items[start:end]

	return models.Page[T]{
		Content:       content,
		TotalElements: int64(total),
		TotalPages:    totalPages,
		Number:        page,
		Size:          size,
		First:         page == 0,
		Last:          page >= totalPages-1,
		Empty:         len(content) == 0,
	}
}
