package repository

import (
	"context"
	"time"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/pkg/kvstore"
)

// CourseRepository stores the catalog in insertion order. Course ids come from a
// persisted high-water mark that never goes down, so a deleted course's id is never
// handed out again.
type CourseRepository struct {
	courses  *collection[[]models.Course]
	seq      *collection[int64]
	defaults func(time.Time) []models.Course
}

// NewCourseRepository creates a course repository. defaults seeds the catalog the first
// time it is read; pass nil to start empty.
func NewCourseRepository(store kvstore.Store, defaults func(time.Time) []models.Course) *CourseRepository {
	return &CourseRepository{
		courses:  newCollection(store, KeyCourses, func() []models.Course { return []models.Course{} }),
		seq:      newCollection(store, KeyCourseSeq, func() int64 { return 0 }),
		defaults: defaults,
	}
}

// List returns every course in stored order.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	var out []models.Course
	err := r.courses.update(ctx, func(courses *[]models.Course, exists bool) (bool, error) {
		seeded := r.seed(courses, exists)
		out = append([]models.Course(nil), (*courses)...)
		return seeded, nil
	})
	return out, err
}

// SaveAll replaces the whole catalog.
func (r *CourseRepository) SaveAll(ctx context.Context, courses []models.Course) error {
	return r.courses.update(ctx, func(doc *[]models.Course, _ bool) (bool, error) {
		*doc = append([]models.Course{}, courses...)
		return true, nil
	})
}

// FindByID returns a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	courses, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range courses {
		if courses[i].ID == id {
			return &courses[i], nil
		}
	}
	return nil, ErrNotFound
}

// Create assigns the next id and appends the course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.courses.update(ctx, func(courses *[]models.Course, exists bool) (bool, error) {
		r.seed(courses, exists)
		id, err := r.nextID(ctx, maxCourseID(*courses))
		if err != nil {
			return false, err
		}
		course.ID = id
		*courses = append(*courses, *course)
		return true, nil
	})
}

// Update applies fn to the stored course and persists the result.
func (r *CourseRepository) Update(ctx context.Context, id int64, fn func(*models.Course) error) (*models.Course, error) {
	var updated models.Course
	err := r.courses.update(ctx, func(courses *[]models.Course, exists bool) (bool, error) {
		r.seed(courses, exists)
		for i := range *courses {
			if (*courses)[i].ID != id {
				continue
			}
			candidate := (*courses)[i]
			if err := fn(&candidate); err != nil {
				return false, err
			}
			(*courses)[i] = candidate
			updated = candidate
			return true, nil
		}
		return false, ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a course.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	return r.courses.update(ctx, func(courses *[]models.Course, exists bool) (bool, error) {
		r.seed(courses, exists)
		for i := range *courses {
			if (*courses)[i].ID == id {
				if err := r.raiseMark(ctx, maxCourseID(*courses)); err != nil {
					return false, err
				}
				*courses = append((*courses)[:i], (*courses)[i+1:]...)
				return true, nil
			}
		}
		return false, ErrNotFound
	})
}

func (r *CourseRepository) seed(courses *[]models.Course, exists bool) bool {
	if exists || r.defaults == nil {
		return false
	}
	*courses = r.defaults(time.Now().UTC())
	return true
}

// nextID advances the high-water mark past floor and returns the new value.
func (r *CourseRepository) nextID(ctx context.Context, floor int64) (int64, error) {
	var next int64
	err := r.seq.update(ctx, func(mark *int64, _ bool) (bool, error) {
		if *mark < floor {
			*mark = floor
		}
		*mark++
		next = *mark
		return true, nil
	})
	return next, err
}

// raiseMark records floor as used so a later Create skips it.
func (r *CourseRepository) raiseMark(ctx context.Context, floor int64) error {
	return r.seq.update(ctx, func(mark *int64, _ bool) (bool, error) {
		if *mark >= floor {
			return false, nil
		}
		*mark = floor
		return true, nil
	})
}

func maxCourseID(courses []models.Course) int64 {
	var maxID int64
	for _, c := range courses {
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	return maxID
}
