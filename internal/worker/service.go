package worker

import (
	"context"
	"errors"

	"github.com/somar/dispatch/internal/config"
	"github.com/somar/dispatch/internal/logger"
	"github.com/somar/dispatch/internal/queue"

	"github.com/hibiken/asynq"
)

// Service runs the asynq consumer as a runnable app service. With the queue
// disabled it idles until shutdown so "-mode all" still works without redis.
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	disabled bool
}

// NewService creates the worker service.
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	if cfg == nil || !cfg.Enabled {
		logger.Warnw("worker_queue_disabled", "hint", "background tasks will not run")
		return &Service{name: "worker", disabled: true}, nil
	}

	redisOpt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(redisOpt, serverCfg)

	mux := asynq.NewServeMux()
	consumer.Register(mux)

	return &Service{
		name:   "worker",
		server: server,
		mux:    mux,
	}, nil
}

// Name is the service name.
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start runs the consumer until the context is canceled.
func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return errors.New("worker service not initialized")
	}
	if s.disabled {
		<-ctx.Done()
		return nil
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Stop shuts the consumer down, letting in-flight tasks finish.
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}
