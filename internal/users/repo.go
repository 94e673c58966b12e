package users

import (
	"context"

	"github.com/clinica-salud/pacientes-api/internal/repo"
	"github.com/clinica-salud/pacientes-api/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a new user, filling its ID.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.DB(ctx).Create(user).Error
}

// FindByUsername matches the username exactly (case-sensitive).
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by id.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns every user ordered by id.
func (r *Repository) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	if err := r.DB(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MarkVerified flags the user verified and clears the pending code.
func (r *Repository) MarkVerified(ctx context.Context, id uint) error {
	return r.update(r.DB(ctx).Where("id = ?", id), map[string]any{
		"verified":          true,
		"verification_code": nil,
	})
}

// SetVerificationCode overwrites any outstanding code.
func (r *Repository) SetVerificationCode(ctx context.Context, id uint, code string) error {
	return r.update(r.DB(ctx).Where("id = ?", id), map[string]any{
		"verification_code": code,
	})
}

// ResetPassword replaces the hash of the user holding (username, code) and
// clears the code. A pair that matches nobody yields gorm.ErrRecordNotFound.
func (r *Repository) ResetPassword(ctx context.Context, username, code, passwordHash string) error {
	scope := r.DB(ctx).
		Where("username = ?", username).
		Where("verification_code = ?", code)
	return r.update(scope, map[string]any{
		"password_hash":     passwordHash,
		"verification_code": nil,
	})
}

// UpdatePasswordHash swaps the stored hash, e.g. after a parameter upgrade.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uint, passwordHash string) error {
	return r.update(r.DB(ctx).Where("id = ?", id), map[string]any{
		"password_hash": passwordHash,
	})
}

// CountPatients counts the patients linked to the user.
func (r *Repository) CountPatients(ctx context.Context, id uint) (int64, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.Patient{}).Where("user_id = ?", id).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes the user row.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return repo.Affected(r.DB(ctx).Delete(&models.User{}, id))
}

func (r *Repository) update(scope *gorm.DB, values map[string]any) error {
	return repo.Affected(scope.Model(&models.User{}).Updates(values))
}
