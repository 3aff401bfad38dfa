package lending

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Notifier confirms a stored reservation to the requester
type Notifier interface {
	Notify(ctx context.Context, r Reservation, id string) error
}

// NopNotifier drops every confirmation
type NopNotifier struct{}

// Notify implements Notifier
func (NopNotifier) Notify(context.Context, Reservation, string) error { return nil }

// Service is the lending use cases on top of a Catalog
type Service struct {
	catalog  Catalog
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a service. A nil notifier disables confirmations and
// a nil logger disables logging.
func NewService(catalog Catalog, notifier Notifier, logger *zap.Logger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: catalog, notifier: notifier, logger: logger, now: time.Now}
}

// Today returns the current calendar date as YYYY-MM-DD
func (s *Service) Today() string {
	return s.now().Format(time.DateOnly)
}

// Kits lists the published kits with today's availability
func (s *Service) Kits(ctx context.Context) ([]KitOverview, error) {
	return s.catalog.Kits(ctx, s.Today())
}

// Kit returns a kit and its booked slots
func (s *Service) Kit(ctx context.Context, id string) (*KitDetail, error) {
	return s.catalog.Kit(ctx, id, s.Today())
}

// KitBySerial returns a kit addressed by its serial number
func (s *Service) KitBySerial(ctx context.Context, serial int) (*KitDetail, error) {
	return s.catalog.KitBySerial(ctx, serial, s.Today())
}

// Text returns a named text page
func (s *Service) Text(ctx context.Context, name string) (Document, error) {
	return s.catalog.Text(ctx, name)
}

// Settings returns the site settings
func (s *Service) Settings(ctx context.Context) (map[string]string, error) {
	return s.catalog.Settings(ctx)
}

// Reserve validates and stores a booking request, then sends the
// confirmation. The kit name is taken from the catalog. A failed
// confirmation is logged and does not undo the reservation.
func (s *Service) Reserve(ctx context.Context, r Reservation) (string, error) {
	if err := ValidateReservation(r); err != nil {
		return "", err
	}

	detail, err := s.catalog.Kit(ctx, r.KitID, s.Today())
	if err != nil {
		return "", fmt.Errorf("failed to look up kit: %w", err)
	}
	r.KitName = detail.Kit.Name

	if err := ctx.Err(); err != nil {
		return "", err
	}
	id, err := s.catalog.Reserve(ctx, r)
	if err != nil {
		return "", err
	}
	s.logger.Info("reservation created",
		zap.String("id", id),
		zap.String("kit", r.KitID),
		zap.String("start", r.StartDate),
		zap.String("end", r.EndDate),
	)

	// The reservation exists from here on; a cancelled request must not
	// suppress its confirmation.
	if err := s.notifier.Notify(context.WithoutCancel(ctx), r, id); err != nil {
		s.logger.Warn("failed to send confirmation", zap.String("id", id), zap.Error(err))
	}
	return id, nil
}
