package bot

import (
	"fmt"
	"html"
	"time"

	"duw-notifier/internal/logging"
)

const timestampLayout = "2006-01-02 15:04:05"

type Outcome int

const (
	OutcomeNoData Outcome = iota
	OutcomeRegionMissing
	OutcomeQueueMissing
	OutcomeNoTickets
	OutcomeTicketsAvailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoData:
		return "no-data"
	case OutcomeRegionMissing:
		return "region-missing"
	case OutcomeQueueMissing:
		return "queue-missing"
	case OutcomeNoTickets:
		return "no-tickets"
	case OutcomeTicketsAvailable:
		return "tickets-available"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Evaluation is the result of checking one status document. Message is set
// only when Met is true.
type Evaluation struct {
	Outcome Outcome
	Met     bool
	Message string
	Queue   QueueRecord
}

// Evaluator looks up a single queue in a single region.
//
// By default only a positive ticket count meets the condition. AlwaysNotify
// reports every successful lookup, zero tickets included.
type Evaluator struct {
	Region       string
	QueueID      int
	AlwaysNotify bool

	logger *logging.Logger
	now    func() time.Time
}

func NewEvaluator(region string, queueID int, alwaysNotify bool, logger *logging.Logger) *Evaluator {
	return &Evaluator{
		Region:       region,
		QueueID:      queueID,
		AlwaysNotify: alwaysNotify,
		logger:       logger,
		now:          time.Now,
	}
}

func (e *Evaluator) Evaluate(status *StatusResponse) Evaluation {
	if status == nil {
		return Evaluation{Outcome: OutcomeNoData}
	}

	queues, ok := status.Queues(e.Region)
	if !ok {
		e.logger.Warnf("Expected structure not found in API response")
		return Evaluation{Outcome: OutcomeRegionMissing}
	}

	var target *QueueRecord
	for i := range queues {
		if queues[i].ID == e.QueueID {
			target = &queues[i]
			break
		}
	}
	if target == nil {
		e.logger.Warnf("Queue with ID %d not found in %s", e.QueueID, e.Region)
		return Evaluation{Outcome: OutcomeQueueMissing}
	}

	outcome := OutcomeNoTickets
	if target.TicketCount > 0 {
		outcome = OutcomeTicketsAvailable
	}

	if outcome == OutcomeNoTickets && !e.AlwaysNotify {
		e.logger.Infof("Queue ID %d ('%s'): %d tickets available", target.ID, target.Name, target.TicketCount)
		return Evaluation{Outcome: outcome, Queue: *target}
	}

	message := fmt.Sprintf("🎫 Currently there are %d tickets available for '%s' at %s",
		target.TicketCount, html.EscapeString(target.Name), e.now().Format(timestampLayout))
	return Evaluation{Outcome: outcome, Met: true, Message: message, Queue: *target}
}

// FormatAlert wraps an evaluation message in the Telegram HTML alert layout.
func FormatAlert(message string, at time.Time) string {
	return fmt.Sprintf("🚨 <b>Status Alert</b> 🚨\n\n%s\n\n<i>Time: %s</i>", message, at.Format(timestampLayout))
}
