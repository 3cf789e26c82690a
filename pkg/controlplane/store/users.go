package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marmos91/dittodrive/pkg/controlplane/models"
)

func (s *GORMStore) GetUser(ctx context.Context, username string) (*models.User, error) {
	return findOne[models.User](s.db, ctx, "username", username, models.ErrUserNotFound)
}

func (s *GORMStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](s.db, ctx, "id", id, models.ErrUserNotFound)
}

func (s *GORMStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	return findAll[models.User](s.db, ctx, "username", nil)
}

func (s *GORMStore) CreateUser(ctx context.Context, user *models.User) (string, error) {
	if err := user.Validate(); err != nil {
		return "", err
	}
	if user.Role == "" {
		user.Role = string(models.RoleUser)
	}
	user.CreatedAt = time.Now()
	return insert(s.db, ctx, user, &user.ID, models.ErrDuplicateUser)
}

func (s *GORMStore) UpdateUser(ctx context.Context, user *models.User) error {
	var existing models.User
	if err := s.db.WithContext(ctx).Where("id = ?", user.ID).First(&existing).Error; err != nil {
		return convertNotFoundError(err, models.ErrUserNotFound)
	}

	err := s.db.WithContext(ctx).
		Model(&existing).
		Select("Username", "Enabled", "Role", "DisplayName", "Email").
		Updates(user).Error
	if isUniqueConstraintError(err) {
		return models.ErrDuplicateUser
	}
	return err
}

// DeleteUser removes the account with every grant it holds or issued on
// its files, its namespace entries and its blob rows. Blob files on disk are
// the caller's to remove.
func (s *GORMStore) DeleteUser(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			return convertNotFoundError(err, models.ErrUserNotFound)
		}

		owned := tx.Model(&models.FileEntry{}).Select("id").Where("owner_id = ?", id)
		steps := []func() *gorm.DB{
			func() *gorm.DB {
				return tx.Where("grantee_id = ? OR file_id IN (?)", id, owned).Delete(&models.PermissionGrant{})
			},
			func() *gorm.DB { return tx.Where("owner_id = ?", id).Delete(&models.FileEntry{}) },
			func() *gorm.DB { return tx.Where("owner_id = ?", id).Delete(&models.Blob{}) },
			func() *gorm.DB { return tx.Delete(&user) },
		}
		for _, step := range steps {
			if err := step().Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GORMStore) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	return s.setUserColumn(ctx, username, "password_hash", passwordHash)
}

func (s *GORMStore) UpdateLastLogin(ctx context.Context, username string, timestamp time.Time) error {
	return s.setUserColumn(ctx, username, "last_login", timestamp)
}

func (s *GORMStore) setUserColumn(ctx context.Context, username, column string, value any) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Update(column, value)
	switch {
	case res.Error != nil:
		return res.Error
	case res.RowsAffected == 0:
		return models.ErrUserNotFound
	}
	return nil
}

// ValidateCredentials checks a login. Unknown users and wrong passwords both
// yield ErrInvalidCredentials; disabled accounts are only reported once the
// password matched.
func (s *GORMStore) ValidateCredentials(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.GetUser(ctx, username)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !models.VerifyPassword(user.PasswordHash, password) {
		return nil, models.ErrInvalidCredentials
	}
	if !user.Enabled {
		return nil, models.ErrUserDisabled
	}
	return user, nil
}

// EnsureAdminUser creates the bootstrap admin on first start and returns its
// password. It returns "" when the user already exists.
func (s *GORMStore) EnsureAdminUser(ctx context.Context, username, email string) (string, error) {
	if username == "" {
		username = models.AdminUsername
	}
	switch _, err := s.GetUser(ctx, username); {
	case err == nil:
		return "", nil
	case !errors.Is(err, models.ErrUserNotFound):
		return "", err
	}

	password, err := models.GetOrGenerateAdminPassword()
	if err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	if _, err := s.CreateUser(ctx, models.DefaultAdminUser(username, email, hash)); err != nil {
		return "", fmt.Errorf("failed to create admin user: %w", err)
	}

	return password, nil
}
