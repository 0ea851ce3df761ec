package immunization

import (
	"errors"
	"fmt"
)

var (
	// Rechazado antes de escribir nada; seguro reintentar corrigiendo el input.
	ErrValidation = errors.New("validation error")

	ErrNotFound = errors.New("not found")

	// Nada quedó aplicado.
	ErrConflict            = errors.New("conflict")
	ErrScheduleExists      = fmt.Errorf("%w: schedule already generated for child", ErrConflict)
	ErrDuplicateObligation = fmt.Errorf("%w: obligation already exists", ErrConflict)
	ErrInvalidTransition   = fmt.Errorf("%w: invalid status transition", ErrConflict)

	// No se pudo abrir/confirmar la transacción; reintentar la operación completa.
	ErrUnavailable = errors.New("dependency unavailable")

	// El cambio de estado ya se confirmó; solo falló el aviso.
	ErrNotificationFailed = errors.New("notification failed")

	// Solo advertencia: se registra la dosis igual.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// NotificationError acompaña a un resultado válido: no reintentar el cambio de estado,
// solo (opcionalmente) el aviso.
type NotificationError struct {
	ChildID     string
	Destination string
	Detail      string
	Err         error
}

func (e *NotificationError) Error() string {
	msg := "notification failed"
	if e.Destination != "" {
		msg += " to " + e.Destination
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NotificationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNotificationFailed}
	}
	return []error{ErrNotificationFailed, e.Err}
}

// IsNotificationOnly indica que la operación sí se aplicó y solo falló el aviso.
func IsNotificationOnly(err error) bool {
	return err != nil && errors.Is(err, ErrNotificationFailed)
}
