package repositories

import (
	"errors"

	"github.com/padosi-app/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(user *models.User) error
	GetUserByID(id uint) (*models.User, error)
	GetUserByPhone(phone string) (*models.User, error)
	GetUsersWithLocation() ([]models.User, error)
	UpdateUser(user *models.User) error
	IncrementHelpedCount(id uint) error
	IncrementRequestedCount(id uint) error
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUser creates a new user in PostgreSQL
func (r *PostgresUserRepository) CreateUser(user *models.User) error {
	return r.db.Create(user).Error
}

// GetUserByID retrieves a user by ID from PostgreSQL
func (r *PostgresUserRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByPhone retrieves a user by phone number from PostgreSQL
func (r *PostgresUserRepository) GetUserByPhone(phone string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("phone = ?", phone).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUsersWithLocation retrieves all users that have shared a location fix.
// Used to fan out NEW_REQUEST notifications to nearby neighbors.
func (r *PostgresUserRepository) GetUsersWithLocation() ([]models.User, error) {
	var users []models.User
	if err := r.db.Where("lat IS NOT NULL AND lng IS NOT NULL").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser updates an existing user in PostgreSQL
func (r *PostgresUserRepository) UpdateUser(user *models.User) error {
	return r.db.Save(user).Error
}

// IncrementHelpedCount bumps the helped-neighbors counter on a profile.
func (r *PostgresUserRepository) IncrementHelpedCount(id uint) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("helped_count", gorm.Expr("helped_count + 1")).Error
}

// IncrementRequestedCount bumps the posted-requests counter on a profile.
func (r *PostgresUserRepository) IncrementRequestedCount(id uint) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("requested_count", gorm.Expr("requested_count + 1")).Error
}
