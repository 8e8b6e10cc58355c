package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/pkg/kvstore"
)

// UserRepository stores users and keeps the seed accounts present.
type UserRepository struct {
	users *collection[[]models.User]
	seeds []models.User
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(store kvstore.Store, seeds []models.User) *UserRepository {
	return &UserRepository{
		users: newCollection(store, KeyUsers, func() []models.User { return []models.User{} }),
		seeds: seeds,
	}
}

// NormalizeEmail is the comparison form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// List returns every user, recreating missing seed accounts first.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := r.users.update(ctx, func(users *[]models.User, _ bool) (bool, error) {
		changed := r.ensureSeeds(users)
		out = append([]models.User(nil), (*users)...)
		return changed, nil
	})
	return out, err
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, ErrNotFound
}

// FindByEmail returns a user by email, compared case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	want := NormalizeEmail(email)
	for i := range users {
		if NormalizeEmail(users[i].Email) == want {
			return &users[i], nil
		}
	}
	return nil, ErrNotFound
}

// Create appends the user, failing with ErrDuplicate when the email is taken.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.users.update(ctx, func(users *[]models.User, _ bool) (bool, error) {
		r.ensureSeeds(users)
		want := NormalizeEmail(user.Email)
		for _, u := range *users {
			if NormalizeEmail(u.Email) == want || u.ID == user.ID {
				return false, ErrDuplicate
			}
		}
		if user.EnrolledCourses == nil {
			user.EnrolledCourses = []int64{}
		}
		*users = append(*users, *user)
		return true, nil
	})
}

// Update applies fn to the stored user and persists the result.
func (r *UserRepository) Update(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error) {
	var updated models.User
	err := r.users.update(ctx, func(users *[]models.User, _ bool) (bool, error) {
		r.ensureSeeds(users)
		for i := range *users {
			if (*users)[i].ID != id {
				continue
			}
			candidate := (*users)[i]
			if err := fn(&candidate); err != nil {
				return false, err
			}
			want := NormalizeEmail(candidate.Email)
			for j, other := range *users {
				if j != i && NormalizeEmail(other.Email) == want {
					return false, ErrDuplicate
				}
			}
			(*users)[i] = candidate
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

// Delete removes the user. Seed accounts reappear on the next read.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.users.update(ctx, func(users *[]models.User, _ bool) (bool, error) {
		r.ensureSeeds(users)
		for i := range *users {
			if (*users)[i].ID == id {
				*users = append((*users)[:i], (*users)[i+1:]...)
				return true, nil
			}
		}
		return false, ErrNotFound
	})
}

// ensureSeeds re-adds seed accounts whose email is missing. A seed whose fixed id now
// belongs to another account (an admin who changed their email) gets a fresh id.
func (r *UserRepository) ensureSeeds(users *[]models.User) bool {
	changed := false
	for _, seed := range r.seeds {
		want := NormalizeEmail(seed.Email)
		found, idTaken := false, false
		for _, u := range *users {
			if NormalizeEmail(u.Email) == want {
				found = true
				break
			}
			if u.ID == seed.ID {
				idTaken = true
			}
		}
		if found {
			continue
		}
		s := seed
		if idTaken {
			s.ID = uuid.NewString()
		}
		s.EnrolledCourses = append([]int64{}, seed.EnrolledCourses...)
		*users = append(*users, s)
		changed = true
	}
	return changed
}
