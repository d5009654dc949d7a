package plant

import "errors"

var (
	ErrDuplicateComponent = errors.New("plant: duplicate component name")
	ErrUnknownComponent   = errors.New("plant: unknown component")
	ErrPortOwnership      = errors.New("plant: port does not belong to component")
	ErrPortConnected      = errors.New("plant: port already connected")
	ErrInvalidFraction    = errors.New("plant: incoming fraction outside [0, 1]")
	ErrInvalidParameter   = errors.New("plant: invalid component parameter")
	ErrNonFiniteFlow      = errors.New("plant: non-finite flow")
)
