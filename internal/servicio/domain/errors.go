package domain

import "errors"

var (
	// ErrServicioNotFound возвращается когда сервис не найден
	ErrServicioNotFound = errors.New("servicio not found")

	// ErrConductorNotFound возвращается когда водитель не найден
	ErrConductorNotFound = errors.New("conductor not found")

	// ErrUnauthorized возвращается при несовпадении актора
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidTransition возвращается при недопустимом переходе состояния
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrDuplicateSettlement — идемпотентный короткий путь, не сбой
	ErrDuplicateSettlement = errors.New("duplicate settlement")

	// ErrCollaboratorUnavailable — отказ внешнего коллаборатора
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrInvalidCoordinates возвращается при невалидных координатах
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)
