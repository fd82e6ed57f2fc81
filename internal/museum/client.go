package museum

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Museum is one entry of the provider catalog.
type Museum struct {
	ID      int     `json:"id"`
	Title   string  `json:"title"`
	Picture Picture `json:"picture"`
}

// Picture holds the display image references for a museum.
type Picture struct {
	Detail string `json:"detail"`
}

// Ticket is a bookable time-slot offering for one museum and date.
type Ticket struct {
	ID int `json:"id"`
}

// Capacities maps slot timestamps to free and total seat counts.
type Capacities struct {
	Capacities      map[string]int `json:"capacities"`
	TotalCapacities map[string]int `json:"total_capacities"`
}

type museumsResponse struct {
	Museums []Museum `json:"museums"`
}

type ticketsResponse struct {
	Tickets []Ticket `json:"tickets"`
}

type capacitiesResponse struct {
	Data map[string]Capacities `json:"data"`
}

// Client talks to the ticketing provider's REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Museums fetches the full museum catalog.
func (c *Client) Museums(ctx context.Context) ([]Museum, error) {
	q := url.Values{}
	q.Set("locale", "de")
	q.Set("per_page", "1000")

	var resp museumsResponse
	if err := c.get(ctx, "/museums", q, &resp); err != nil {
		return nil, fmt.Errorf("fetch museums: %w", err)
	}
	return resp.Museums, nil
}

// Tickets lists bookable time-slot tickets for a museum on the given date.
func (c *Client) Tickets(ctx context.Context, museumID int, date time.Time) ([]Ticket, error) {
	q := url.Values{}
	q.Set("by_bookable", "true")
	q.Set("by_free_timing", "false")
	q.Set("by_museum_ids[]", strconv.Itoa(museumID))
	q.Set("by_ticket_type", "time_slot")
	q.Set("locale", "de")
	q.Set("per_page", "1000")
	q.Set("valid_at", date.Format("2006-01-02"))

	var resp ticketsResponse
	if err := c.get(ctx, "/tickets", q, &resp); err != nil {
		return nil, fmt.Errorf("fetch tickets for museum %d: %w", museumID, err)
	}
	return resp.Tickets, nil
}

// Capacities fetches per-slot seat counts for the given tickets and date,
// keyed by ticket id.
func (c *Client) Capacities(ctx context.Context, date time.Time, ticketIDs []int) (map[string]Capacities, error) {
	q := url.Values{}
	q.Set("date", date.Format("2006-01-02"))
	for _, id := range ticketIDs {
		q.Add("ticket_ids[]", strconv.Itoa(id))
	}

	var resp capacitiesResponse
	if err := c.get(ctx, "/tickets/capacities", q, &resp); err != nil {
		return nil, fmt.Errorf("fetch capacities: %w", err)
	}
	return resp.Data, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
