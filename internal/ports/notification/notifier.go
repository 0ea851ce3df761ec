package notification

import "context"

// Delivery es el resultado que reporta el canal (SMS u otro).
type Delivery struct {
	Delivered         bool
	ProviderReference string
	ErrorDetail       string
}

// Notifier envía un mensaje de texto a un destino (teléfono del tutor).
// Un error o Delivered=false nunca invalida el cambio de estado que lo originó.
type Notifier interface {
	Notify(ctx context.Context, destination, message string) (Delivery, error)
}
