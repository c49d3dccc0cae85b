package scheduler

import (
	"github.com/pulso-app/pulso/internal/server"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Service runs periodic proxy maintenance: sweeping expired cached
// responses and logging cache pressure
type Service struct {
	server *server.Server
	cron   *cron.Cron
}

// NewService creates a new maintenance scheduler
func NewService(srv *server.Server) *Service {
	return &Service{
		server: srv,
		cron:   cron.New(cron.WithSeconds()),
	}
}

// Start begins the scheduled maintenance
func (s *Service) Start() error {
	// Sweep expired cache entries every 10 minutes, aligned with the
	// shortest route TTL
	_, err := s.cron.AddFunc("0 */10 * * * *", func() {
		s.server.SweepCache()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Info("Maintenance scheduler started (cache sweep every 10 minutes)")
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Maintenance scheduler stopped")
	}
}
