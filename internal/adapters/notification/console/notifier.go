package console

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"immunization-scheduler/internal/platform/logger"
	"immunization-scheduler/internal/ports/notification"
)

// Message es lo que quedó "enviado" (útil para inspeccionar en dev/tests).
type Message struct {
	Destination string
	Body        string
	Reference   string
}

// Notifier escribe los SMS en el log en vez de enviarlos. Modo dev.
type Notifier struct {
	log logger.Logger

	mu   sync.Mutex
	sent []Message
}

var _ notification.Notifier = (*Notifier)(nil)

func New(log logger.Logger) *Notifier {
	if log == nil {
		log = logger.Nop()
	}
	return &Notifier{log: log}
}

func (n *Notifier) Notify(ctx context.Context, destination, message string) (notification.Delivery, error) {
	ref := "console-" + uuid.NewString()

	n.log.Info("sms (console)", map[string]any{
		"to":        destination,
		"message":   message,
		"reference": ref,
	})

	n.mu.Lock()
	n.sent = append(n.sent, Message{Destination: destination, Body: message, Reference: ref})
	n.mu.Unlock()

	return notification.Delivery{Delivered: true, ProviderReference: ref}, nil
}

// Sent devuelve una copia de los mensajes registrados.
func (n *Notifier) Sent() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Message, len(n.sent))
	copy(out, n.sent)
	return out
}
