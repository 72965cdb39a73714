package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/consul/api"
)

const checkTTL = 15 * time.Second

// Consul registers the process with a local agent and keeps its TTL
// check passing. Registration is optional; builders skip it when no
// agent address is configured.
type Consul struct {
	client    *api.Client
	serviceID string
	checkID   string
	logger    *slog.Logger
}

func Register(addr string, serviceName string, httpPort string, logger *slog.Logger) (*Consul, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := api.NewClient(&api.Config{Address: addr})
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	port, err := strconv.Atoi(httpPort)
	if err != nil {
		return nil, fmt.Errorf("parse http port %q: %w", httpPort, err)
	}

	serviceID := fmt.Sprintf("%s-%s", serviceName, uuid.NewString()[:8])
	checkID := serviceID + "-ttl"
	registration := &api.AgentServiceRegistration{
		ID:   serviceID,
		Name: serviceName,
		Port: port,
		Tags: []string{"go", serviceName},
		Check: &api.AgentServiceCheck{
			CheckID:                        checkID,
			TTL:                            checkTTL.String(),
			DeregisterCriticalServiceAfter: (2 * checkTTL).String(),
		},
	}
	if err := client.Agent().ServiceRegister(registration); err != nil {
		return nil, fmt.Errorf("register service: %w", err)
	}

	registry := &Consul{
		client:    client,
		serviceID: serviceID,
		checkID:   checkID,
		logger:    logger,
	}
	logger.Info("service registered with consul",
		"event", "registry_registered",
		"module", "internal/platform/registry",
		"layer", "platform",
		"service_id", serviceID,
	)
	return registry, nil
}

// KeepAlive refreshes the TTL check until ctx is cancelled.
func (c *Consul) KeepAlive(ctx context.Context) {
	ticker := time.NewTicker(checkTTL / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.client.Agent().UpdateTTL(c.checkID, "online", api.HealthPassing); err != nil {
				c.logger.Warn("consul ttl update failed",
					"event", "registry_ttl_failed",
					"module", "internal/platform/registry",
					"layer", "platform",
					"service_id", c.serviceID,
					"error", err.Error(),
				)
			}
		}
	}
}

func (c *Consul) Deregister() {
	if err := c.client.Agent().ServiceDeregister(c.serviceID); err != nil {
		c.logger.Warn("consul deregister failed",
			"event", "registry_deregister_failed",
			"module", "internal/platform/registry",
			"layer", "platform",
			"service_id", c.serviceID,
			"error", err.Error(),
		)
	}
}
