package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type StorageHealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

type ComponentHealth struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Latency int64  `json:"latency_ms"`
	Error   string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status     Status            `json:"status"`
	Components []ComponentHealth `json:"components,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

type Checker struct {
	storage StorageHealthChecker
	redis   *redis.Client
}

func NewChecker(storage StorageHealthChecker) *Checker {
	return &Checker{storage: storage}
}

func (c *Checker) WithRedis(client *redis.Client) *Checker {
	c.redis = client
	return c
}

func (c *Checker) CheckAll(ctx context.Context) HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	components := make([]ComponentHealth, 0, 2)

	if c.storage != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			comp := c.checkStorage(ctx)
			mu.Lock()
			components = append(components, comp)
			mu.Unlock()
		}()
	}

	if c.redis != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			comp := c.checkRedis(ctx)
			mu.Lock()
			components = append(components, comp)
			mu.Unlock()
		}()
	}

	wg.Wait()

	overall := StatusHealthy
	for _, comp := range components {
		if comp.Status != StatusHealthy {
			overall = StatusUnhealthy
			break
		}
	}

	return HealthResponse{
		Status:     overall,
		Components: components,
		Timestamp:  time.Now().UTC(),
	}
}

func (c *Checker) checkStorage(ctx context.Context) ComponentHealth {
	start := time.Now()
	comp := ComponentHealth{Name: "storage", Status: StatusHealthy}

	if err := c.storage.HealthCheck(ctx); err != nil {
		comp.Status = StatusUnhealthy
		comp.Error = err.Error()
	}
	comp.Latency = time.Since(start).Milliseconds()
	return comp
}

func (c *Checker) checkRedis(ctx context.Context) ComponentHealth {
	start := time.Now()
	comp := ComponentHealth{Name: "redis", Status: StatusHealthy}

	if err := c.redis.Ping(ctx).Err(); err != nil {
		comp.Status = StatusUnhealthy
		comp.Error = err.Error()
	}
	comp.Latency = time.Since(start).Milliseconds()
	return comp
}

func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := c.CheckAll(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != StatusHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
