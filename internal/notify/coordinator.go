// internal/notify/coordinator.go
package notify

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	apperrors "opportune-notifier/internal/common/errors"
	"opportune-notifier/internal/common/logger"
	"opportune-notifier/internal/common/metrics"
	"opportune-notifier/internal/common/observability"
	"opportune-notifier/internal/email"
	"opportune-notifier/internal/models"
	"opportune-notifier/internal/store"
)

// Coordinator runs reminder sweeps and manual reminders. At most one sweep
// runs per process; overlapping triggers are rejected, not queued.
type Coordinator struct {
	store  store.Store
	sender email.Sender
	policy *Policy
	obs    *observability.Observability
	log    logger.Logger

	digestLookaheadDays int

	sweepMu sync.Mutex
	clock   func() time.Time
}

func NewCoordinator(s store.Store, sender email.Sender, policy *Policy, obs *observability.Observability, log logger.Logger, digestLookaheadDays int) *Coordinator {
	return &Coordinator{
		store:               s,
		sender:              sender,
		policy:              policy,
		obs:                 obs,
		log:                 log,
		digestLookaheadDays: digestLookaheadDays,
		clock:               time.Now,
	}
}

// RunSweep evaluates all due records and sends one reminder email per record.
// The trigger label distinguishes scheduled, backup and manual runs in logs
// and metrics. Per-record failures never abort the sweep; only an unavailable
// store or a concurrent sweep does.
func (c *Coordinator) RunSweep(ctx context.Context, trigger string) (*models.SweepResult, error) {
	if !c.sweepMu.TryLock() {
		return nil, apperrors.NewSweepInProgressError()
	}
	defer c.sweepMu.Unlock()

	start := c.clock()
	metrics.SweepsRun.WithLabelValues(trigger).Inc()
	defer func() {
		duration := c.clock().Sub(start)
		metrics.SweepDuration.Observe(duration.Seconds())
		c.obs.RecordSweepDuration(ctx, duration, "completed")
	}()

	log := c.log.WithFields(map[string]interface{}{"trigger": trigger})
	log.Info("Checking for applications requiring reminders", nil)

	if err := c.store.Ping(ctx); err != nil {
		log.WithError(err).Warn("Record store not connected, skipping sweep", nil)
		c.obs.RecordSweep(ctx, "store_unavailable")
		return nil, apperrors.NewDatabaseNotConnectedError(err)
	}

	candidates, err := c.policy.SelectCandidates(ctx, c.store)
	if err != nil {
		c.obs.RecordSweep(ctx, "query_failed")
		return nil, apperrors.NewQueryExecutionFailedError("select candidates", err)
	}

	log.Info("Found applications needing reminders", map[string]interface{}{
		"total":    len(candidates.Custom) + len(candidates.Followup),
		"custom":   len(candidates.Custom),
		"followup": len(candidates.Followup),
	})

	result := &models.SweepResult{}

	if !c.sender.Configured() {
		log.Warn("Email not configured, skipping all reminders", nil)
		result.Skipped = append(result.Skipped, models.SweepSkip{Reason: "email not configured"})
		c.obs.RecordSweep(ctx, "email_not_configured")
		return result, nil
	}

	byUser := make(map[string][]models.Application)
	for _, app := range candidates.All() {
		byUser[app.UserID] = append(byUser[app.UserID], app)
	}

	userIDs := make([]string, 0, len(byUser))
	for userID := range byUser {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	for _, userID := range userIDs {
		c.sweepUser(ctx, log, userID, byUser[userID], result)
	}

	log.Info("Reminder sweep finished", map[string]interface{}{
		"sent":    result.Sent,
		"skipped": len(result.Skipped),
		"errors":  len(result.Errors),
	})
	c.obs.RecordSweep(ctx, "completed")
	return result, nil
}

// sweepUser delivers reminders for one user's due records. Users without a
// record or with email disabled are skipped as a group.
func (c *Coordinator) sweepUser(ctx context.Context, log logger.Logger, userID string, apps []models.Application, result *models.SweepResult) {
	user, err := c.store.GetUser(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.WithError(err).Error("Failed to load user", map[string]interface{}{"userId": userID})
		result.Errors = append(result.Errors, models.SweepError{UserID: userID, Error: err.Error()})
		return
	}
	if user == nil || !user.Settings.EmailEnabled {
		log.Info("Skipping notifications for user", map[string]interface{}{
			"userId": userID,
			"reason": "disabled or no user",
		})
		result.Skipped = append(result.Skipped, models.SweepSkip{
			UserID:       userID,
			Reason:       "notifications disabled or user unknown",
			Applications: len(apps),
		})
		return
	}

	for _, app := range apps {
		sendResult, err := c.sender.Send(ctx, userID, email.TemplateFollowupReminder, email.NewReminderData(app))
		if err != nil {
			log.WithError(err).Error("Failed to send reminder", map[string]interface{}{
				"userId":        userID,
				"applicationId": app.ID,
			})
			metrics.ReminderSendFailures.WithLabelValues("email").Inc()
			result.Errors = append(result.Errors, models.SweepError{
				UserID:        userID,
				ApplicationID: app.ID,
				Error:         err.Error(),
			})
			continue
		}
		if !sendResult.Success {
			result.Skipped = append(result.Skipped, models.SweepSkip{
				UserID:       userID,
				Reason:       sendResult.Message,
				Applications: 1,
			})
			continue
		}

		// Mark only after a confirmed delivery so failed records are
		// retried on the next sweep.
		if err := c.store.MarkReminderSent(ctx, app.ID, c.clock()); err != nil {
			log.WithError(err).Error("Failed to mark reminder as sent", map[string]interface{}{
				"applicationId": app.ID,
			})
			result.Errors = append(result.Errors, models.SweepError{
				UserID:        userID,
				ApplicationID: app.ID,
				Error:         err.Error(),
			})
			continue
		}

		metrics.RemindersSent.WithLabelValues("email").Inc()
		result.Sent++
	}
}

// SendManualReminder sends a reminder for one record on demand. It records
// the send time but never flips the reminder flag, so the automatic sweep
// still fires on its own schedule.
func (c *Coordinator) SendManualReminder(ctx context.Context, applicationID, userEmail string) (*email.SendResult, error) {
	app, err := c.store.GetApplication(ctx, applicationID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NewApplicationNotFoundError(applicationID)
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get application", err)
	}

	result, err := c.sender.Send(ctx, userEmail, email.TemplateFollowupReminder, email.NewReminderData(*app))
	if err != nil {
		return nil, err
	}

	if result.Success {
		if err := c.store.RecordManualReminder(ctx, applicationID, c.clock()); err != nil {
			c.log.WithError(err).Error("Failed to record manual reminder", map[string]interface{}{
				"applicationId": applicationID,
			})
		}
		metrics.RemindersSent.WithLabelValues("email").Inc()
	}
	return result, nil
}

// VerifyEmail reports whether the configured provider is ready to send.
func (c *Coordinator) VerifyEmail(ctx context.Context) error {
	return c.sender.Verify(ctx)
}
