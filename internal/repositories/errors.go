package repositories

import "errors"

// Sentinel errors returned by the repositories. Handlers map these onto HTTP
// status codes; none of them is fatal to the process.
var (
	ErrNotFound             = errors.New("not found")
	ErrNotOwner             = errors.New("caller does not own this entity")
	ErrAlreadyResolved      = errors.New("request already resolved")
	ErrAlreadyOffered       = errors.New("request already has a helper")
	ErrNotResolved          = errors.New("request is not resolved yet")
	ErrAlreadyGifted        = errors.New("tokens already gifted for this request")
	ErrInvalidGiftAmount    = errors.New("gift amount not in the allowed menu")
	ErrInsufficientBalance  = errors.New("balance below withdrawal threshold")
	ErrWithdrawalInProgress = errors.New("a withdrawal is already pending")
	ErrEmptyMessage         = errors.New("message text is empty")
)
