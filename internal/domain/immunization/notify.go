package immunization

import (
	"context"
	"fmt"
	"strings"
	"time"
)

func reminderMessage(childName, vaccineName string, doseNumber int, due time.Time) string {
	name := strings.TrimSpace(childName)
	if name == "" {
		name = "su hijo/a"
	}
	return fmt.Sprintf("Recordatorio: %s dosis %d de %s programada para el %s.",
		vaccineName, doseNumber, name, due.Format("2006-01-02"))
}

// notifyDue avisa al tutor de la próxima dosis. Corre siempre después del commit:
// nil si se entregó o no hay destino; *NotificationError si falló.
func (s *Service) notifyDue(ctx context.Context, childID, vaccineName string, doseNumber int, due time.Time) error {
	if s.notifier == nil || s.children == nil {
		return nil
	}

	child, err := s.children.LookupChild(ctx, childID)
	if err != nil {
		return s.notificationFailed(childID, "", "child lookup failed", err)
	}
	dest := strings.TrimSpace(child.Phone)
	if dest == "" {
		s.log.Debug("notification skipped: no guardian phone", map[string]any{"child_id": childID})
		return nil
	}

	d, err := s.notifier.Notify(ctx, dest, reminderMessage(child.Name, vaccineName, doseNumber, due))
	if err != nil {
		return s.notificationFailed(childID, dest, d.ErrorDetail, err)
	}
	if !d.Delivered {
		detail := d.ErrorDetail
		if detail == "" {
			detail = "not delivered"
		}
		return s.notificationFailed(childID, dest, detail, nil)
	}

	s.log.Info("reminder sent", map[string]any{
		"child_id":  childID,
		"reference": d.ProviderReference,
		"due_date":  due.Format("2006-01-02"),
	})
	return nil
}

func (s *Service) notificationFailed(childID, dest, detail string, err error) error {
	ne := &NotificationError{ChildID: childID, Destination: dest, Detail: detail, Err: err}
	s.log.Warn("notification failed", map[string]any{"child_id": childID, "error": ne})
	return ne
}
