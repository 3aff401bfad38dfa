package lending

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCatalog struct {
	kits     []KitOverview
	detail   *KitDetail
	err      error
	today    string
	reserved []Reservation
}

func (s *stubCatalog) Kits(_ context.Context, today string) ([]KitOverview, error) {
	s.today = today
	return s.kits, s.err
}

func (s *stubCatalog) Kit(_ context.Context, id, today string) (*KitDetail, error) {
	s.today = today
	if s.detail == nil || s.detail.Kit.ID != id {
		return nil, ErrNotFound
	}
	return s.detail, nil
}

func (s *stubCatalog) KitBySerial(_ context.Context, serial int, today string) (*KitDetail, error) {
	s.today = today
	if s.detail == nil || s.detail.Kit.Serial != serial {
		return nil, ErrNotFound
	}
	return s.detail, nil
}

func (s *stubCatalog) Reserve(_ context.Context, r Reservation) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.reserved = append(s.reserved, r)
	return "res-1", nil
}

func (s *stubCatalog) Text(context.Context, string) (Document, error) {
	return Document{}, s.err
}

func (s *stubCatalog) Settings(context.Context) (map[string]string, error) {
	return map[string]string{}, s.err
}

type recordingNotifier struct {
	err  error
	sent []string
}

func (n *recordingNotifier) Notify(ctx context.Context, r Reservation, id string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	n.sent = append(n.sent, id+":"+r.KitName)
	return n.err
}

func newTestService(catalog Catalog, notifier Notifier) *Service {
	s := NewService(catalog, notifier, zap.NewNop())
	s.now = func() time.Time { return time.Date(2024, 5, 5, 10, 0, 0, 0, time.UTC) }
	return s
}

func stubWithKit() *stubCatalog {
	return &stubCatalog{detail: &KitDetail{Kit: Kit{KitOverview: KitOverview{ID: "k1", Serial: 1, Name: "Mic"}}}}
}

func TestServicePassesToday(t *testing.T) {
	catalog := stubWithKit()
	s := newTestService(catalog, nil)

	_, err := s.Kits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-05-05", catalog.today)

	detail, err := s.KitBySerial(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Mic", detail.Kit.Name)
}

func TestServiceReserve(t *testing.T) {
	catalog := stubWithKit()
	notifier := &recordingNotifier{}
	s := newTestService(catalog, notifier)

	r := validReservation()
	r.KitName = "whatever the client sent"
	id, err := s.Reserve(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "res-1", id)

	require.Len(t, catalog.reserved, 1)
	assert.Equal(t, "Mic", catalog.reserved[0].KitName)
	assert.Equal(t, []string{"res-1:Mic"}, notifier.sent)
}

func TestServiceReserveInvalid(t *testing.T) {
	catalog := stubWithKit()
	s := newTestService(catalog, nil)

	_, err := s.Reserve(context.Background(), Reservation{KitID: "k1"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Empty(t, catalog.reserved)
}

func TestServiceReserveUnknownKit(t *testing.T) {
	catalog := stubWithKit()
	s := newTestService(catalog, nil)

	r := validReservation()
	r.KitID = "k9"
	_, err := s.Reserve(context.Background(), r)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, catalog.reserved)
}

func TestServiceReserveCancelled(t *testing.T) {
	catalog := stubWithKit()
	s := newTestService(catalog, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Reserve(ctx, validReservation())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, catalog.reserved)
}

func TestServiceReserveNotifyFailure(t *testing.T) {
	catalog := stubWithKit()
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	s := newTestService(catalog, notifier)

	id, err := s.Reserve(context.Background(), validReservation())
	require.NoError(t, err)
	assert.Equal(t, "res-1", id)
	assert.Len(t, notifier.sent, 1)
}

func TestServiceReserveCatalogError(t *testing.T) {
	catalog := stubWithKit()
	catalog.err = errors.New("backend down")
	notifier := &recordingNotifier{}
	s := newTestService(catalog, notifier)

	_, err := s.Reserve(context.Background(), validReservation())
	assert.EqualError(t, err, "backend down")
	assert.Empty(t, notifier.sent)
}
