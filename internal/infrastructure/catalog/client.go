package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wms-platform/stocktake-service/internal/domain"
	"github.com/wms-platform/stocktake-service/pkg/logging"
	"github.com/wms-platform/stocktake-service/pkg/metrics"
)

// itemPositionDTO is the catalog-service representation of an item position
type itemPositionDTO struct {
	ItemPositionID    string `json:"itemPositionId"`
	StoragePositionID string `json:"storagePositionId"`
	ItemID            string `json:"itemId"`
	ItemName          string `json:"itemName"`
	ExpectedQty       int    `json:"expectedQty"`
	Position          struct {
		Branch  string `json:"branch"`
		Zone    string `json:"zone"`
		Section string `json:"section"`
		Rack    string `json:"rack"`
		Level   string `json:"level"`
	} `json:"position"`
}

// Client talks to the catalog service over HTTP. Calls run through a
// circuit breaker so a struggling catalog does not stall distribution.
// Implements domain.CatalogGateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logging.Logger
}

// NewClient creates a new catalog Client
func NewClient(baseURL string, logger *logging.Logger, m *metrics.Metrics) *Client {
	settings := gobreaker.Settings{
		Name:        "catalog-service",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			if m != nil {
				m.SetCircuitBreakerState(name, int(to))
				if to == gobreaker.StateOpen {
					m.RecordCircuitBreakerTrip(name)
				}
			}
		},
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// GetItemPosition fetches a single item position by ID
func (c *Client) GetItemPosition(ctx context.Context, itemPositionID string) (*domain.ItemPosition, error) {
	url := fmt.Sprintf("%s/api/v1/item-positions/%s", c.baseURL, itemPositionID)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch item position: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return (*itemPositionDTO)(nil), nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("catalog service returned status %d", resp.StatusCode)
		}

		var dto itemPositionDTO
		if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
			return nil, fmt.Errorf("failed to decode item position response: %w", err)
		}
		return &dto, nil
	})
	if err != nil {
		return nil, err
	}

	dto := result.(*itemPositionDTO)
	if dto == nil {
		return nil, nil
	}
	return toItemPosition(dto), nil
}

// GetItemPositions fetches a batch of item positions. Unknown IDs are
// simply absent from the result.
func (c *Client) GetItemPositions(ctx context.Context, itemPositionIDs []string) ([]*domain.ItemPosition, error) {
	url := fmt.Sprintf("%s/api/v1/item-positions/batch", c.baseURL)

	payload, err := json.Marshal(map[string][]string{"itemPositionIds": itemPositionIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch request: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch item positions: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("catalog service returned status %d", resp.StatusCode)
		}

		var response struct {
			Data []itemPositionDTO `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
			return nil, fmt.Errorf("failed to decode batch response: %w", err)
		}
		return response.Data, nil
	})
	if err != nil {
		c.logger.WithError(err).Error("Catalog batch lookup failed", "requested", len(itemPositionIDs))
		return nil, err
	}

	dtos := result.([]itemPositionDTO)
	positions := make([]*domain.ItemPosition, 0, len(dtos))
	for i := range dtos {
		positions = append(positions, toItemPosition(&dtos[i]))
	}
	return positions, nil
}

func toItemPosition(dto *itemPositionDTO) *domain.ItemPosition {
	return &domain.ItemPosition{
		ItemPositionID:    dto.ItemPositionID,
		StoragePositionID: dto.StoragePositionID,
		ItemID:            dto.ItemID,
		ItemName:          dto.ItemName,
		ExpectedQty:       dto.ExpectedQty,
		Position: domain.PositionCode{
			Branch:  dto.Position.Branch,
			Zone:    dto.Position.Zone,
			Section: dto.Position.Section,
			Rack:    dto.Position.Rack,
			Level:   dto.Position.Level,
		},
	}
}
