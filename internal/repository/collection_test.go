package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/pkg/kvstore"
)

func TestCollectionSerialisesWriters(t *testing.T) {
	ctx := context.Background()
	repo := NewCouponRepository(kvstore.NewMemoryStore())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			require.NoError(t, repo.Create(ctx, &models.Coupon{ID: fmt.Sprint(i), Code: fmt.Sprintf("C%d", i), DiscountPercent: 10}))
		}(i)
	}
	wg.Wait()

	coupons, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, coupons, 50)
}

func TestCollectionSurfacesCorruptDocuments(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, KeyRefunds, []byte("{not json")))

	_, err := NewRefundRepository(store).List(ctx, "")
	assert.ErrorContains(t, err, "decode refunds")
}

func TestCourseRepositorySaveLoadFixedPoint(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepository(kvstore.NewMemoryStore(), DefaultCourses)

	_, err := repo.List(ctx)
	require.NoError(t, err)
	first, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 6)

	require.NoError(t, repo.SaveAll(ctx, first))
	second, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCourseRepositorySeedsOnlyWhenAbsent(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	repo := NewCourseRepository(store, DefaultCourses)

	require.NoError(t, repo.SaveAll(ctx, []models.Course{}))
	courses, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestCourseRepositoryCreateAssignsNextID(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepository(kvstore.NewMemoryStore(), DefaultCourses)

	course := &models.Course{Title: "Go in Practice", Status: models.CoursePending, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, course))
	assert.Equal(t, int64(7), course.ID)

	found, err := repo.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Go in Practice", found.Title)

	require.NoError(t, repo.Delete(ctx, 7))
	_, err = repo.FindByID(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepositoryReseedsDeletedSeedAccounts(t *testing.T) {
	ctx := context.Background()
	seeds := []models.User{{ID: "1", Email: "admin@cosmos.com", Role: models.RoleAdmin}}
	repo := NewUserRepository(kvstore.NewMemoryStore(), seeds)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	require.NoError(t, repo.Delete(ctx, "1"))
	admin, err := repo.FindByEmail(ctx, "ADMIN@cosmos.com ")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
}

func TestCourseRepositoryNeverReusesDeletedIDs(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	repo := NewCourseRepository(store, DefaultCourses)

	require.NoError(t, repo.Delete(ctx, 6))
	first := &models.Course{Title: "New Premium", Price: 500}
	require.NoError(t, repo.Create(ctx, first))
	assert.Equal(t, int64(7), first.ID)

	require.NoError(t, repo.Delete(ctx, 7))
	second := &models.Course{Title: "Another"}
	require.NoError(t, NewCourseRepository(store, DefaultCourses).Create(ctx, second))
	assert.Equal(t, int64(8), second.ID)
}

func TestUserRepositorySeedIDTakenByRenamedAccount(t *testing.T) {
	ctx := context.Background()
	seeds := []models.User{{ID: "1", Email: "admin@cosmos.com", Role: models.RoleAdmin}}
	repo := NewUserRepository(kvstore.NewMemoryStore(), seeds)

	_, err := repo.Update(ctx, "1", func(u *models.User) error {
		u.Email = "boss@example.com"
		return nil
	})
	require.NoError(t, err)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.NotEqual(t, users[0].ID, users[1].ID)

	seed, err := repo.FindByEmail(ctx, "admin@cosmos.com")
	require.NoError(t, err)
	assert.NotEqual(t, "1", seed.ID)
	renamed, err := repo.FindByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "boss@example.com", renamed.Email)
}

func TestUserRepositoryDeleteSeedOnFreshStore(t *testing.T) {
	ctx := context.Background()
	seeds := []models.User{
		{ID: "1", Email: "admin@cosmos.com", Role: models.RoleAdmin},
		{ID: "2", Email: "teacher@cosmos.com", Role: models.RoleTeacher},
	}
	store := kvstore.NewMemoryStore()
	require.NoError(t, NewUserRepository(store, seeds).Delete(ctx, "2"))

	_, err := NewUserRepository(store, nil).FindByID(ctx, "2")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = NewUserRepository(store, nil).FindByID(ctx, "1")
	assert.NoError(t, err)
}

func TestUserRepositoryRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(kvstore.NewMemoryStore(), nil)

	require.NoError(t, repo.Create(ctx, &models.User{ID: "a", Email: "ann@x.com"}))
	err := repo.Create(ctx, &models.User{ID: "b", Email: "Ann@X.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	require.NoError(t, repo.Create(ctx, &models.User{ID: "c", Email: "bob@x.com"}))
	_, err = repo.Update(ctx, "c", func(u *models.User) error {
		u.Email = "ANN@x.com"
		return nil
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestProgressRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewProgressRepository(kvstore.NewMemoryStore())

	_, err := repo.Find(ctx, "u1", 1)
	require.ErrorIs(t, err, ErrNotFound)

	init := func() models.Progress { return models.Progress{UserID: "u1", CourseID: 1, CompletedLessons: []string{}} }
	_, err = repo.Upsert(ctx, "u1", 1, init, func(p *models.Progress) error {
		p.CompletedLessons = append(p.CompletedLessons, "0_0")
		return nil
	})
	require.NoError(t, err)

	p, err := repo.Find(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"0_0"}, p.CompletedLessons)

	list, err := repo.ListForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestWishlistRepositorySetSemantics(t *testing.T) {
	ctx := context.Background()
	repo := NewWishlistRepository(kvstore.NewMemoryStore())

	added, err := repo.Add(ctx, "u1", 3)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = repo.Add(ctx, "u1", 3)
	require.NoError(t, err)
	assert.False(t, added)

	ids, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids)

	removed, err := repo.Remove(ctx, "u1", 3)
	require.NoError(t, err)
	assert.True(t, removed)
	ids, err = repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCertificateRepositoryCreateOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewCertificateRepository(kvstore.NewMemoryStore())

	first, created, err := repo.CreateOnce(ctx, &models.Certificate{ID: "c1", UserID: "u1", CourseID: 1, CertificateNumber: "N1"})
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := repo.CreateOnce(ctx, &models.Certificate{ID: "c2", UserID: "u1", CourseID: 1, CertificateNumber: "N2"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	_, _, err = repo.CreateOnce(ctx, &models.Certificate{ID: "c3", UserID: "u2", CourseID: 1, CertificateNumber: "N1"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSessionRepositoryExpiry(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(kvstore.NewMemoryStore())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Create(ctx, &models.Session{ID: "s1", UserID: "u1", ExpiresAt: now.Add(time.Hour)}))
	_, err := repo.FindByID(ctx, "s1")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = repo.FindByID(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "s1"))
	assert.ErrorIs(t, repo.Delete(ctx, "s1"), ErrNotFound)
}

func TestCouponRepositoryFindApplicable(t *testing.T) {
	ctx := context.Background()
	repo := NewCouponRepository(kvstore.NewMemoryStore())
	scoped := int64(2)
	require.NoError(t, repo.Create(ctx, &models.Coupon{ID: "1", Code: "ONLY2", DiscountPercent: 20, CourseID: &scoped}))
	require.NoError(t, repo.Create(ctx, &models.Coupon{ID: "2", Code: "ALL", DiscountPercent: 5}))

	_, err := repo.FindApplicable(ctx, "only2", 1)
	assert.ErrorIs(t, err, ErrNotFound)
	c, err := repo.FindApplicable(ctx, "only2", 2)
	require.NoError(t, err)
	assert.Equal(t, "1", c.ID)
	c, err = repo.FindApplicable(ctx, "all", 9)
	require.NoError(t, err)
	assert.Equal(t, "2", c.ID)
}
