package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"duw-notifier/internal/config"
	"duw-notifier/internal/logging"
)

const startupMessage = "✅ Status monitor started successfully!"

var ErrStartupNotification = errors.New("startup test notification failed")

type Fetcher interface {
	Fetch(ctx context.Context) (*StatusResponse, error)
}

type Notifier interface {
	Notify(message string) error
}

// Monitor runs the poll, evaluate and notify cycle for one queue.
type Monitor struct {
	fetcher   Fetcher
	evaluator *Evaluator
	notifier  Notifier
	logger    *logging.Logger

	interval   time.Duration
	retryDelay time.Duration

	after func(time.Duration) <-chan time.Time
	now   func() time.Time
}

func NewMonitor(appConfig *config.AppConfig, fetcher Fetcher, notifier Notifier, logger *logging.Logger) *Monitor {
	return &Monitor{
		fetcher:    fetcher,
		evaluator:  NewEvaluator(appConfig.Region, appConfig.QueueID, appConfig.AlwaysNotify, logger),
		notifier:   notifier,
		logger:     logger,
		interval:   appConfig.CheckInterval,
		retryDelay: appConfig.RetryDelay,
		after:      time.After,
		now:        time.Now,
	}
}

// StartupTestNotification checks that the Telegram configuration works.
func (m *Monitor) StartupTestNotification() error {
	if err := m.notifier.Notify(startupMessage); err != nil {
		return fmt.Errorf("%w: %w", ErrStartupNotification, err)
	}
	return nil
}

// Start sends the startup notification and, if it went through, runs the
// monitoring loop until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) error {
	if err := m.StartupTestNotification(); err != nil {
		return err
	}
	m.logger.Infof("Telegram connection test successful")
	m.Run(ctx)
	return nil
}

// RunCheck performs a single cycle. Only failures that should trigger the
// retry delay are returned; missing data and failed notifications are logged.
func (m *Monitor) RunCheck(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during status check: %v", r)
		}
	}()

	cycleID := uuid.NewString()[:8]
	m.logger.Infof("Starting status check... (cycle %s)", cycleID)

	status, err := m.fetcher.Fetch(ctx)
	if err != nil {
		if errors.Is(err, ErrStatusUnavailable) || errors.Is(err, ErrEmptyStatus) {
			m.logger.Warnf("No data received (cycle %s)", cycleID)
			return nil
		}
		return fmt.Errorf("cycle %s: %w", cycleID, err)
	}

	m.logger.Infof("Received data: %s", status.Preview())

	evaluation := m.evaluator.Evaluate(status)
	if !evaluation.Met {
		m.logger.Infof("No alert conditions met (%s)", evaluation.Outcome)
		return nil
	}

	if notifyErr := m.notifier.Notify(FormatAlert(evaluation.Message, m.now())); notifyErr != nil {
		m.logger.Errorf("Failed to send alert")
		return nil
	}
	m.logger.Infof("Alert sent: %s", evaluation.Message)
	return nil
}

// Run repeats RunCheck every interval, waiting retryDelay instead after a
// failed cycle. It returns once ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Infof("Starting continuous monitoring (every %v)", m.interval)

	for {
		delay := m.interval
		if err := m.RunCheck(ctx); err != nil {
			m.logger.Errorf("Unexpected error: %v", err)
			delay = m.retryDelay
		}

		select {
		case <-ctx.Done():
			m.logger.Infof("Monitoring stopped by user")
			return
		case <-m.after(delay):
		}
	}
}
