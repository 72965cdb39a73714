package errors

import "errors"

var (
	ErrPlaceNotFound           = errors.New("place not found")
	ErrShoraNotFound           = errors.New("shora not found")
	ErrShoraExists             = errors.New("place already has a shora")
	ErrRepresentativeNotFound  = errors.New("representative not found")
	ErrInvalidDirectoryInput   = errors.New("invalid directory input")
	ErrInvalidQuorumPolicy     = errors.New("quorum policy must be between 1 and 100")
	ErrSeatLimitReached        = errors.New("shora has no free seats")
	ErrRepresentativeNotSeated = errors.New("user holds no seat on this shora")
)
