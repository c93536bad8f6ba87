package notifications

import (
	"context"
	"time"

	"example.com/govevents/internal/metrics"
	"example.com/govevents/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Notifier fans one rendered message out to every subscriber of an event.
// Recipients are streamed in bounded batches; within a batch sends run
// concurrently, and a batch must settle completely before the next one
// starts. One recipient's failure never aborts its siblings.
type Notifier struct {
	recipients  RecipientSource
	mailer      Mailer
	renderer    *Renderer
	batchSize   int
	sendTimeout time.Duration
}

// NewNotifier creates a notifier.
func NewNotifier(recipients RecipientSource, mailer Mailer, renderer *Renderer,
	batchSize int, sendTimeout time.Duration) *Notifier {
	if batchSize <= 0 {
		batchSize = 500
	}
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Notifier{
		recipients:  recipients,
		mailer:      mailer,
		renderer:    renderer,
		batchSize:   batchSize,
		sendTimeout: sendTimeout,
	}
}

// Notify resolves the recipient set of the event and sends the
// kind-specific message to each subscriber.
func (n *Notifier) Notify(ctx context.Context, event *models.Event, kind ReminderKind,
	changes map[string]string) error {

	sent := 0
	err := n.recipients.ForEachRecipientBatch(ctx, event.ID, event.GovStructureID, n.batchSize,
		func(users []models.User) error {
			g := new(errgroup.Group)
			for _, user := range users {
				user := user
				g.Go(func() error {
					n.sendOne(ctx, user, event, kind, changes)
					return nil
				})
			}
			sent += len(users)
			// Batch boundary: wait for every send in this chunk to settle.
			return g.Wait()
		})
	if err != nil {
		return err
	}

	log.Info().
		Str("event_id", event.ID.String()).
		Str("kind", string(kind)).
		Int("recipients", sent).
		Msg("Notification fan-out finished")

	return nil
}

// sendOne renders and sends a single message. Failures are logged and
// counted, never propagated: delivery is attempted-or-failed per
// recipient, and a hung send is cut off by the per-message timeout.
func (n *Notifier) sendOne(ctx context.Context, user models.User, event *models.Event,
	kind ReminderKind, changes map[string]string) {

	sendCtx, cancel := context.WithTimeout(ctx, n.sendTimeout)
	defer cancel()

	subject, body := n.renderer.Render(kind, user, event, changes)
	if err := n.mailer.Send(sendCtx, user.Email, subject, body); err != nil {
		metrics.EmailsFailed.Inc()
		log.Error().Err(err).
			Str("event_id", event.ID.String()).
			Str("kind", string(kind)).
			Str("recipient", user.Email).
			Msg("Failed to send notification email")
		return
	}

	metrics.EmailsSent.Inc()
}
