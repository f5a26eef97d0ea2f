// internal/notify/digest.go
package notify

import (
	"context"

	apperrors "opportune-notifier/internal/common/errors"
	"opportune-notifier/internal/common/metrics"
	"opportune-notifier/internal/email"
	"opportune-notifier/internal/models"
)

// RunDigest sends one summary email per opted-in user, listing their active
// records with a follow-up date inside the lookahead window. Users with
// nothing upcoming get no email. Digests never touch per-record reminder
// state.
func (c *Coordinator) RunDigest(ctx context.Context) (*models.DigestResult, error) {
	c.log.Info("Preparing daily digests", nil)

	if err := c.store.Ping(ctx); err != nil {
		return nil, apperrors.NewDatabaseNotConnectedError(err)
	}

	users, err := c.store.FindDigestUsers(ctx)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("find digest users", err)
	}

	result := &models.DigestResult{}
	for _, user := range users {
		apps, err := c.policy.UpcomingFollowups(ctx, c.store, user.Email, c.digestLookaheadDays)
		if err != nil {
			c.log.WithError(err).Error("Failed to load upcoming follow-ups", map[string]interface{}{
				"userId": user.Email,
			})
			continue
		}
		if len(apps) == 0 {
			continue
		}

		sendResult, err := c.sender.Send(ctx, user.Email, email.TemplateDailyDigest, email.NewDigestData(user, apps))
		if err != nil {
			c.log.WithError(err).Error("Failed to send digest", map[string]interface{}{
				"userId": user.Email,
			})
			continue
		}
		if sendResult.Success {
			metrics.DigestsSent.Inc()
			result.Sent++
		}
	}

	c.log.Info("Daily digest run finished", map[string]interface{}{"sent": result.Sent})
	return result, nil
}
