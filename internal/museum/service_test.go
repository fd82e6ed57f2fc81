package museum

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeAPI struct {
	museums     []Museum
	museumsErr  error
	museumCalls int

	tickets    []Ticket
	ticketsErr error

	capacities    map[string]Capacities
	capacitiesErr error
	lastTicketIDs []int
}

func (f *fakeAPI) Museums(ctx context.Context) ([]Museum, error) {
	f.museumCalls++
	return f.museums, f.museumsErr
}

func (f *fakeAPI) Tickets(ctx context.Context, museumID int, date time.Time) ([]Ticket, error) {
	return f.tickets, f.ticketsErr
}

func (f *fakeAPI) Capacities(ctx context.Context, date time.Time, ticketIDs []int) (map[string]Capacities, error) {
	f.lastTicketIDs = ticketIDs
	return f.capacities, f.capacitiesErr
}

func TestService_MuseumsSortsAndFilters(t *testing.T) {
	api := &fakeAPI{museums: []Museum{
		{ID: excludedMuseumID, Title: "Broken"},
		{ID: 9, Title: "Nine"},
		{ID: 2, Title: "Two"},
	}}
	svc := NewService(api, zap.NewNop())

	museums, err := svc.Museums(context.Background())
	if err != nil {
		t.Fatalf("museums: %v", err)
	}
	if len(museums) != 2 {
		t.Fatalf("expected excluded id filtered out, got %v", museums)
	}
	if museums[0].ID != 2 || museums[1].ID != 9 {
		t.Fatalf("expected sorted by id, got %v", museums)
	}
}

func TestService_MuseumsMemoizes(t *testing.T) {
	api := &fakeAPI{museums: []Museum{{ID: 1, Title: "One"}}}
	svc := NewService(api, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Museums(ctx); err != nil {
			t.Fatalf("museums: %v", err)
		}
	}
	if api.museumCalls != 1 {
		t.Fatalf("expected one provider call within the TTL, got %d", api.museumCalls)
	}
}

func TestService_MuseumsKeepsStaleOnRefreshFailure(t *testing.T) {
	api := &fakeAPI{museums: []Museum{{ID: 1, Title: "One"}}}
	svc := NewService(api, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.Museums(ctx); err != nil {
		t.Fatalf("initial fetch: %v", err)
	}

	// Expire the snapshot and break the provider.
	svc.mu.Lock()
	svc.fetchedAt = time.Now().Add(-2 * catalogTTL)
	svc.mu.Unlock()
	api.museumsErr = errors.New("provider down")

	museums, err := svc.Museums(ctx)
	if err != nil {
		t.Fatalf("expected stale snapshot, got error %v", err)
	}
	if len(museums) != 1 || museums[0].Title != "One" {
		t.Fatalf("expected previous catalog, got %v", museums)
	}
}

func TestService_MuseumsUnavailableBeforeFirstFetch(t *testing.T) {
	api := &fakeAPI{museumsErr: errors.New("provider down")}
	svc := NewService(api, zap.NewNop())

	if _, err := svc.Museums(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	// An empty catalog is treated the same as a failed fetch.
	api.museumsErr = nil
	api.museums = nil
	if _, err := svc.Museums(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for empty catalog, got %v", err)
	}
}

func TestService_MuseumNotFound(t *testing.T) {
	api := &fakeAPI{museums: []Museum{{ID: 1, Title: "One"}}}
	svc := NewService(api, zap.NewNop())

	m, err := svc.Museum(context.Background(), 1)
	if err != nil {
		t.Fatalf("museum: %v", err)
	}
	if m.Title != "One" {
		t.Fatalf("wrong museum: %+v", m)
	}

	if _, err := svc.Museum(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_CapacitiesNoTickets(t *testing.T) {
	api := &fakeAPI{}
	svc := NewService(api, zap.NewNop())

	available, total, err := svc.Capacities(context.Background(), 1, time.Now())
	if err != nil {
		t.Fatalf("capacities: %v", err)
	}
	if available != 0 || total != 0 {
		t.Fatalf("expected (0, 0) for no tickets, got (%d, %d)", available, total)
	}
}

func TestService_CapacitiesSumsSlots(t *testing.T) {
	api := &fakeAPI{
		tickets: []Ticket{{ID: 11}},
		capacities: map[string]Capacities{
			"11": {
				Capacities:      map[string]int{"10:00": 2, "12:00": 1},
				TotalCapacities: map[string]int{"10:00": 20, "12:00": 15},
			},
		},
	}
	svc := NewService(api, zap.NewNop())

	available, total, err := svc.Capacities(context.Background(), 1, time.Now())
	if err != nil {
		t.Fatalf("capacities: %v", err)
	}
	if available != 3 || total != 35 {
		t.Fatalf("expected (3, 35), got (%d, %d)", available, total)
	}
}

func TestService_CapacitiesToleratesAnomalies(t *testing.T) {
	// Two tickets is a provider anomaly: the probe proceeds with the first
	// and still sums every capacity row that comes back.
	api := &fakeAPI{
		tickets: []Ticket{{ID: 11}, {ID: 12}},
		capacities: map[string]Capacities{
			"11": {
				Capacities:      map[string]int{"10:00": 1},
				TotalCapacities: map[string]int{"10:00": 10},
			},
			"12": {
				Capacities:      map[string]int{"10:00": 2},
				TotalCapacities: map[string]int{"10:00": 10},
			},
		},
	}
	svc := NewService(api, zap.NewNop())

	available, total, err := svc.Capacities(context.Background(), 1, time.Now())
	if err != nil {
		t.Fatalf("capacities: %v", err)
	}
	if len(api.lastTicketIDs) != 1 || api.lastTicketIDs[0] != 11 {
		t.Fatalf("expected probe with first ticket only, got %v", api.lastTicketIDs)
	}
	if available != 3 || total != 20 {
		t.Fatalf("expected sums across rows (3, 20), got (%d, %d)", available, total)
	}
}

func TestService_CapacitiesProviderError(t *testing.T) {
	api := &fakeAPI{ticketsErr: fmt.Errorf("boom")}
	svc := NewService(api, zap.NewNop())

	if _, _, err := svc.Capacities(context.Background(), 1, time.Now()); err == nil {
		t.Fatal("expected provider error to surface")
	}
}
