// Package environment supplies read-only entity states (sensors, sun
// position) used to pick a theme automatically.
package environment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var ErrBadEntity = errors.New("bad entity")

type Entity struct {
	ID    string `json:"entity_id"`
	State string `json:"state"`
}

type Snapshot []Entity

func (s Snapshot) Find(id string) (Entity, bool) {
	for _, e := range s {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}

type Provider interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Static always returns the same entities.
type Static Snapshot

func (s Static) Snapshot(context.Context) (Snapshot, error) {
	return Snapshot(s), nil
}

// ParseStatic reads "id=state" pairs separated by commas, e.g.
// "sun.sun=below_horizon,sensor.lux=12".
func ParseStatic(raw string) (Static, error) {
	out := Static{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, state, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadEntity, pair)
		}
		out = append(out, Entity{ID: strings.TrimSpace(id), State: strings.TrimSpace(state)})
	}
	return out, nil
}

// HTTPProvider reads entity states from a Home Assistant style REST API
// (GET <BaseURL>/api/states).
type HTTPProvider struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPProvider(baseURL, token string) *HTTPProvider {
	return &HTTPProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (p *HTTPProvider) Snapshot(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/api/states", nil)
	if err != nil {
		return nil, fmt.Errorf("build states request: %w", err)
	}
	if p.Token != "" {
		req.Header.Set("Authorization", "Bearer "+p.Token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch states: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch states: unexpected status %d", resp.StatusCode)
	}

	var out Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode states: %w", err)
	}
	return out, nil
}
