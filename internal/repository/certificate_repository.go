package repository

import (
	"context"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/pkg/kvstore"
)

// CertificateRepository stores issued certificates.
type CertificateRepository struct {
	certs *collection[[]models.Certificate]
}

// NewCertificateRepository creates a certificate repository.
func NewCertificateRepository(store kvstore.Store) *CertificateRepository {
	return &CertificateRepository{
		certs: newCollection(store, KeyCertificates, func() []models.Certificate { return []models.Certificate{} }),
	}
}

// CreateOnce stores cert unless one already exists for the same user and course, in which
// case the existing certificate is returned with created=false. A clashing certificate
// number yields ErrDuplicate.
func (r *CertificateRepository) CreateOnce(ctx context.Context, cert *models.Certificate) (*models.Certificate, bool, error) {
	var out models.Certificate
	created := false
	err := r.certs.update(ctx, func(certs *[]models.Certificate, _ bool) (bool, error) {
		for _, c := range *certs {
			if c.UserID == cert.UserID && c.CourseID == cert.CourseID {
				out = c
				return false, nil
			}
			if c.CertificateNumber == cert.CertificateNumber {
				return false, ErrDuplicate
			}
		}
		*certs = append(*certs, *cert)
		out = *cert
		created = true
		return true, nil
	})
	if err != nil {
		return nil, false, err
	}
	return &out, created, nil
}

// FindByUserCourse returns the certificate for (userID, courseID).
func (r *CertificateRepository) FindByUserCourse(ctx context.Context, userID string, courseID int64) (*models.Certificate, error) {
	certs, err := r.certs.read(ctx)
	if err != nil {
		return nil, err
	}
	for i := range certs {
		if certs[i].UserID == userID && certs[i].CourseID == courseID {
			return &certs[i], nil
		}
	}
	return nil, ErrNotFound
}

// FindByID returns a certificate by identifier.
func (r *CertificateRepository) FindByID(ctx context.Context, id string) (*models.Certificate, error) {
	certs, err := r.certs.read(ctx)
	if err != nil {
		return nil, err
	}
	for i := range certs {
		if certs[i].ID == id {
			return &certs[i], nil
		}
	}
	return nil, ErrNotFound
}

// NumberExists reports whether a certificate number is taken.
func (r *CertificateRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	certs, err := r.certs.read(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range certs {
		if c.CertificateNumber == number {
			return true, nil
		}
	}
	return false, nil
}

// ListByUser returns a user's certificates in issue order.
func (r *CertificateRepository) ListByUser(ctx context.Context, userID string) ([]models.Certificate, error) {
	certs, err := r.certs.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Certificate, 0)
	for _, c := range certs {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

// SetFilePath records where the rendered PDF was stored.
func (r *CertificateRepository) SetFilePath(ctx context.Context, id, path string) error {
	return r.certs.update(ctx, func(certs *[]models.Certificate, _ bool) (bool, error) {
		for i := range *certs {
			if (*certs)[i].ID == id {
				(*certs)[i].FilePath = path
				return true, nil
			}
		}
		return false, ErrNotFound
	})
}
