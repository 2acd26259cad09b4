package repositories

import (
	"errors"

	"github.com/padosi-app/backend/internal/models"
	"gorm.io/gorm"
)

// RequestRepository defines the interface for help request lifecycle
// operations. Status only ever moves OPEN -> RESOLVED; the conditional
// updates below are what enforce that, and the at-most-once helper
// assignment, at the storage layer.
type RequestRepository interface {
	Create(req *models.HelpRequest) error
	GetByID(id string) (*models.HelpRequest, error)
	GetOpen() ([]models.HelpRequest, error)
	GetByRequesterID(requesterID uint) ([]models.HelpRequest, error)
	Update(req *models.HelpRequest) error
	Resolve(id string) (*models.HelpRequest, bool, error)
	Delete(id string) error
	AcceptOffer(id string, helperID uint, helperName string) (*models.HelpRequest, error)
	MarkGifted(id string) error
}

// PostgresRequestRepository implements RequestRepository for PostgreSQL
type PostgresRequestRepository struct {
	db *gorm.DB
}

// NewPostgresRequestRepository creates a new PostgresRequestRepository
func NewPostgresRequestRepository(db *gorm.DB) *PostgresRequestRepository {
	return &PostgresRequestRepository{db: db}
}

// Create stores a new help request
func (r *PostgresRequestRepository) Create(req *models.HelpRequest) error {
	return r.db.Create(req).Error
}

// GetByID retrieves a help request by ID
func (r *PostgresRequestRepository) GetByID(id string) (*models.HelpRequest, error) {
	var req models.HelpRequest
	if err := r.db.First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// GetOpen retrieves all open requests, newest first
func (r *PostgresRequestRepository) GetOpen() ([]models.HelpRequest, error) {
	var reqs []models.HelpRequest
	if err := r.db.Where("status = ?", models.StatusOpen).
		Order("created_at DESC").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

// GetByRequesterID retrieves a user's own requests, newest first
func (r *PostgresRequestRepository) GetByRequesterID(requesterID uint) ([]models.HelpRequest, error) {
	var reqs []models.HelpRequest
	if err := r.db.Where("requester_id = ?", requesterID).
		Order("created_at DESC").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

// Update saves edited content fields of a request
func (r *PostgresRequestRepository) Update(req *models.HelpRequest) error {
	return r.db.Save(req).Error
}

// Resolve transitions a request OPEN -> RESOLVED. Idempotent: resolving an
// already-resolved request is a no-op. The bool reports whether this call
// performed the transition.
func (r *PostgresRequestRepository) Resolve(id string) (*models.HelpRequest, bool, error) {
	res := r.db.Model(&models.HelpRequest{}).
		Where("id = ? AND status = ?", id, models.StatusOpen).
		Update("status", models.StatusResolved)
	if res.Error != nil {
		return nil, false, res.Error
	}

	req, err := r.GetByID(id)
	if err != nil {
		return nil, false, err
	}
	return req, res.RowsAffected > 0, nil
}

// Delete removes a request. Irreversible; the conversation, if any, survives
// as chat history.
func (r *PostgresRequestRepository) Delete(id string) error {
	res := r.db.Delete(&models.HelpRequest{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AcceptOffer binds a helper to an open, unclaimed request. The guarded
// update sets the helper at most once; on a miss the current row decides
// between the conflict kinds.
func (r *PostgresRequestRepository) AcceptOffer(id string, helperID uint, helperName string) (*models.HelpRequest, error) {
	res := r.db.Model(&models.HelpRequest{}).
		Where("id = ? AND status = ? AND helper_id IS NULL", id, models.StatusOpen).
		Updates(map[string]interface{}{"helper_id": helperID, "helper_name": helperName})
	if res.Error != nil {
		return nil, res.Error
	}

	req, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected > 0 {
		return req, nil
	}
	if req.Status != models.StatusOpen {
		return nil, ErrAlreadyResolved
	}
	if req.HelperID != nil && *req.HelperID == helperID {
		// Same helper offering again is the idempotent path.
		return req, nil
	}
	return nil, ErrAlreadyOffered
}

// MarkGifted flips the tokens-gifted flag exactly once, and only on a
// resolved request. Callers verify requester ownership first.
func (r *PostgresRequestRepository) MarkGifted(id string) error {
	res := r.db.Model(&models.HelpRequest{}).
		Where("id = ? AND status = ? AND tokens_gifted = false", id, models.StatusResolved).
		Update("tokens_gifted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	req, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if req.Status != models.StatusResolved {
		return ErrNotResolved
	}
	return ErrAlreadyGifted
}
