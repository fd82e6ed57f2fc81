package museum

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Museum 67 is a permanently invalid catalog entry on the provider side.
const excludedMuseumID = 67

const catalogTTL = time.Hour

var (
	// ErrNotFound means the museum id is not in the catalog.
	ErrNotFound = errors.New("museum not found")
	// ErrUnavailable means the catalog has never been fetched successfully.
	ErrUnavailable = errors.New("museum catalog unavailable")
)

// API is the slice of the provider client the service needs.
type API interface {
	Museums(ctx context.Context) ([]Museum, error)
	Tickets(ctx context.Context, museumID int, date time.Time) ([]Ticket, error)
	Capacities(ctx context.Context, date time.Time, ticketIDs []int) (map[string]Capacities, error)
}

// Service caches the museum catalog and probes ticket capacities.
type Service struct {
	api API
	log *zap.Logger

	mu         sync.Mutex
	catalog    []Museum
	fetchedAt  time.Time
	refreshing bool
}

func NewService(api API, log *zap.Logger) *Service {
	return &Service{api: api, log: log}
}

// Museums returns the catalog sorted by id, excluding the known-invalid
// entry. The catalog is refreshed at most once per TTL; a failed refresh
// keeps the previous snapshot.
func (s *Service) Museums(ctx context.Context) ([]Museum, error) {
	s.mu.Lock()
	if s.refreshing || (s.catalog != nil && time.Since(s.fetchedAt) < catalogTTL) {
		catalog := s.catalog
		s.mu.Unlock()
		if catalog == nil {
			return nil, ErrUnavailable
		}
		return catalog, nil
	}
	s.refreshing = true
	s.mu.Unlock()

	fresh, err := s.api.Museums(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshing = false

	switch {
	case err != nil:
		s.log.Warn("museum catalog refresh failed", zap.Error(err))
	case len(fresh) == 0:
		s.log.Warn("museum catalog refresh returned no museums")
	default:
		filtered := make([]Museum, 0, len(fresh))
		for _, m := range fresh {
			if m.ID != excludedMuseumID {
				filtered = append(filtered, m)
			}
		}
		sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID < filtered[j].ID })
		s.catalog = filtered
		s.fetchedAt = time.Now()
	}

	if s.catalog == nil {
		return nil, ErrUnavailable
	}
	return s.catalog, nil
}

// Museum looks up a single catalog entry by id.
func (s *Service) Museum(ctx context.Context, id int) (*Museum, error) {
	museums, err := s.Museums(ctx)
	if err != nil {
		return nil, err
	}
	for i := range museums {
		if museums[i].ID == id {
			return &museums[i], nil
		}
	}
	return nil, fmt.Errorf("museum %d: %w", id, ErrNotFound)
}

// Capacities returns the free and total slot counts for a museum on the
// given date. No bookable ticket means no slots, not an error. More than
// one ticket or capacity row is a known provider anomaly: log and carry on
// with what came back.
func (s *Service) Capacities(ctx context.Context, museumID int, date time.Time) (available, total int, err error) {
	tickets, err := s.api.Tickets(ctx, museumID, date)
	if err != nil {
		return 0, 0, err
	}
	if len(tickets) == 0 {
		return 0, 0, nil
	}
	if len(tickets) > 1 {
		s.log.Warn("more than one ticket for museum",
			zap.Int("museum", museumID),
			zap.Int("tickets", len(tickets)))
	}

	ticketID := tickets[0].ID
	data, err := s.api.Capacities(ctx, date, []int{ticketID})
	if err != nil {
		return 0, 0, err
	}
	if len(data) > 1 {
		s.log.Warn("more than one capacity row for ticket",
			zap.Int("museum", museumID),
			zap.Int("ticket", ticketID))
	}

	for _, row := range data {
		for _, n := range row.Capacities {
			available += n
		}
		for _, n := range row.TotalCapacities {
			total += n
		}
	}
	return available, total, nil
}
