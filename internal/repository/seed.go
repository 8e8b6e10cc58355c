package repository

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
)

// SeedAccount is a well-known login recreated whenever it is missing.
type SeedAccount struct {
	ID       string
	Name     string
	Email    string
	Password string
	Role     models.UserRole
}

// DefaultSeedAccounts are the recoverable admin and teacher logins.
var DefaultSeedAccounts = []SeedAccount{
	{ID: "1", Name: "Admin User", Email: "admin@cosmos.com", Password: "admin", Role: models.RoleAdmin},
	{ID: "2", Name: "Teacher User", Email: "teacher@cosmos.com", Password: "teacher", Role: models.RoleTeacher},
}

// BuildSeedUsers hashes the seed passwords once at startup.
func BuildSeedUsers(accounts []SeedAccount, cost int) ([]models.User, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	now := time.Now().UTC()
	users := make([]models.User, 0, len(accounts))
	for _, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password for %s: %w", a.Email, err)
		}
		users = append(users, models.User{
			ID:              a.ID,
			Name:            a.Name,
			Email:           a.Email,
			PasswordHash:    string(hash),
			Role:            a.Role,
			EnrolledCourses: []int64{},
			AuthProvider:    models.AuthProviderPassword,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return users, nil
}

// DefaultCourses is the catalog written when the courses key has never been saved.
func DefaultCourses(now time.Time) []models.Course {
	welcome := func() []models.Section {
		return []models.Section{{
			Title:   "Course Content",
			Lessons: []models.Lesson{{Title: "Welcome", Duration: "1:00"}},
		}}
	}
	course := func(id int64, title, category, instructor string, rating float64, students int, price, original float64, bestseller bool, desc, img string) models.Course {
		published := now
		return models.Course{
			ID:             id,
			Title:          title,
			Description:    desc,
			Image:          img,
			Category:       category,
			InstructorName: instructor,
			Price:          price,
			OriginalPrice:  original,
			Level:          models.LevelBeginner,
			Language:       "English",
			Status:         models.CoursePublished,
			Rating:         rating,
			Students:       students,
			Bestseller:     bestseller,
			Curriculum:     welcome(),
			CreatedAt:      now,
			UpdatedAt:      now,
			PublishedAt:    &published,
		}
	}
	const img = "https://images.unsplash.com/"
	return []models.Course{
		course(1, "Programming Fundamentals", "Programming", "Tech Experts", 4.8, 50000, 99, 199, true,
			"Master the fundamentals of programming and learn to code like a professional.", img+"photo-1515879218367-8466d910aaa4"),
		course(2, "JavaScript Mastery", "Programming", "John Doer", 4.9, 85000, 129, 249, true,
			"Become proficient in interactive web development with modern JavaScript.", img+"photo-1579468118864-1b9ea3c0db4a"),
		course(3, "Web Development Complete", "Programming", "Sarah Smith", 4.7, 95000, 159, 299, false,
			"Build complete web applications with HTML, CSS, React, and Node.js.", img+"photo-1547658719-da2b51169166"),
		course(4, "Data Science Essentials", "Data Science", "Data Whiz", 4.8, 42000, 149, 199, true,
			"Analyze data and derive meaningful insights using Python and Pandas.", img+"photo-1551288049-bebda4e38f71"),
		course(5, "Machine Learning Advanced", "Data Science", "AI Labs", 4.9, 38000, 199, 299, false,
			"Build intelligent systems using neural networks and deep learning.", img+"photo-1555949963-aa79dcee981c"),
		course(6, "UI/UX Design Masterclass", "Design", "Pro Designers", 4.6, 21000, 0, 89, false,
			"Learn to design beautiful interfaces and user experiences that convert.", img+"photo-1586717791821-3f44a5638d48"),
	}
}
