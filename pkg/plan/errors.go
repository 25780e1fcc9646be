package plan

import "errors"

var (
	ErrPlanNotFound             = errors.New("plan not found")
	ErrUnknownTier              = errors.New("unknown plan tier")
	ErrInvalidPlanConfiguration = errors.New("invalid plan configuration")
	ErrFailedToLoadPlans        = errors.New("failed to load plans")
)
