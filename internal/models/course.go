package models

import "time"

// CourseStatus is the moderation state of a course. Only published courses are listed.
type CourseStatus string

const (
	CourseDraft     CourseStatus = "draft"
	CoursePending   CourseStatus = "pending"
	CoursePublished CourseStatus = "published"
	CourseRejected  CourseStatus = "rejected"
)

// Course levels.
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
)

// Course is a catalog entry stored in the courses collection.
type Course struct {
	ID               int64        `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	ShortDescription string       `json:"short_description,omitempty"`
	Image            string       `json:"image,omitempty"`
	Category         string       `json:"category"`
	Subcategory      string       `json:"subcategory,omitempty"`
	InstructorID     string       `json:"instructor_id,omitempty"`
	InstructorName   string       `json:"instructor_name,omitempty"`
	Price            float64      `json:"price"`
	OriginalPrice    float64      `json:"original_price"`
	Level            string       `json:"level,omitempty"`
	Language         string       `json:"language,omitempty"`
	Tags             []string     `json:"tags,omitempty"`
	Status           CourseStatus `json:"status"`
	Rating           float64      `json:"rating"`
	RatingCount      int          `json:"rating_count"`
	Students         int          `json:"students"`
	Bestseller       bool         `json:"bestseller"`
	Featured         bool         `json:"featured"`
	Curriculum       []Section    `json:"curriculum"`
	CouponCode       string       `json:"coupon_code,omitempty"`
	DiscountPercent  float64      `json:"discount_percent,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
	PublishedAt      *time.Time   `json:"published_at,omitempty"`
	RejectedAt       *time.Time   `json:"rejected_at,omitempty"`
}

// EffectiveLevel treats a missing level as Beginner.
func (c *Course) EffectiveLevel() string {
	if c.Level == "" {
		return LevelBeginner
	}
	return c.Level
}

// TotalLessons counts lessons across every section.
func (c *Course) TotalLessons() int {
	total := 0
	for _, s := range c.Curriculum {
		total += len(s.Lessons)
	}
	return total
}

// Section groups ordered lessons.
type Section struct {
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

// Lesson is one playable unit. Completion is tracked per user in Progress.
type Lesson struct {
	Title    string `json:"title"`
	URL      string `json:"url,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// Price buckets accepted by SearchFilter.Price.
const (
	PriceFree     = "free"
	PricePaid     = "paid"
	PriceUnder50  = "under50"
	Price50To100  = "50-100"
	PriceOver100  = "over100"
	FilterAll     = "all"
	SortRating    = "rating"
	SortStudents  = "students"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortNewest    = "newest"
)

// SearchFilter narrows catalog search. Empty fields do not filter.
type SearchFilter struct {
	Category  string  `form:"category"`
	Price     string  `form:"price" validate:"omitempty,oneof=free paid under50 50-100 over100"`
	MinRating float64 `form:"min_rating" validate:"gte=0,lte=5"`
	Level     string  `form:"level"`
	Sort      string  `form:"sort" validate:"omitempty,oneof=rating students price-low price-high newest"`
}

// CreateCourseRequest is submitted by teachers and admins.
type CreateCourseRequest struct {
	Title            string    `json:"title" validate:"required"`
	Description      string    `json:"description"`
	ShortDescription string    `json:"short_description"`
	Image            string    `json:"image"`
	Category         string    `json:"category" validate:"required"`
	Subcategory      string    `json:"subcategory"`
	InstructorID     string    `json:"instructor_id"`
	Price            float64   `json:"price" validate:"gte=0"`
	OriginalPrice    float64   `json:"original_price" validate:"gte=0"`
	Level            string    `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Language         string    `json:"language"`
	Tags             []string  `json:"tags"`
	Curriculum       []Section `json:"curriculum"`
	CurriculumText   string    `json:"curriculum_text"`
	CouponCode       string    `json:"coupon_code"`
	DiscountPercent  float64   `json:"discount_percent" validate:"gte=0,lte=100"`
}

// CatalogStats summarises the catalog for the admin dashboard.
type CatalogStats struct {
	Courses          int `json:"courses"`
	Published        int `json:"published"`
	Pending          int `json:"pending"`
	TotalEnrollments int `json:"total_enrollments"`
	Users            int `json:"users"`
}
