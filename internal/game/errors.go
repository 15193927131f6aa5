package game

import "errors"

var (
	ErrUnknownResource = errors.New("unknown resource type")
	ErrUnknownBuilding = errors.New("unknown building type")
	ErrNotFound        = errors.New("building not found")
	ErrOccupied        = errors.New("cell already occupied")
	ErrSelfLink        = errors.New("building cannot link to itself")
	ErrNoSlot          = errors.New("building has no slot for this resource")
	ErrOverCapacity    = errors.New("slot capacity exceeded")
	ErrInsufficient    = errors.New("not enough resource in slot")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidCatalog  = errors.New("invalid building catalog")
)
