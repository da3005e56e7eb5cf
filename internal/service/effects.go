package service

import (
	"context"
	"time"

	domainSub "github.com/elevatehq/elevate-api/internal/domain/subscription"
	"github.com/elevatehq/elevate-api/internal/integration/convertkit"
	"github.com/elevatehq/elevate-api/internal/types"
	"github.com/samber/lo"
)

const (
	userEmailCachePrefix = "user_email:"
	backgroundTimeout    = 30 * time.Second
)

// dispatchEffects runs the derived effects that follow a subscription sync.
// Each effect swallows its own errors: a marketing or portfolio failure must
// never surface as a webhook failure, the subscription row is already
// committed.
func (s *billingService) dispatchEffects(ctx context.Context, sub *domainSub.Subscription, upgradeFromTrial bool) {
	s.UnpublishIfIneligible(ctx, sub.UserID, sub.Plan, sub.Status)
	s.syncMarketingTag(ctx, sub)

	if upgradeFromTrial {
		s.cancelTrialSequence(sub.UserID)
	}
}

func (s *billingService) UnpublishIfIneligible(ctx context.Context, userID string, plan types.PlanType, status types.SubscriptionStatus) {
	log := s.Logger.WithContext(ctx)

	if types.PortfolioEligible(plan, status) {
		return
	}

	pf, err := s.PortfolioRepo.GetByUserID(ctx, userID)
	if err != nil {
		log.Errorw("failed to load portfolio for gating",
			"user_id", userID,
			"error", err,
		)
		return
	}
	if pf == nil || !pf.IsPublished {
		return
	}

	if err := s.PortfolioRepo.SetPublished(ctx, userID, false); err != nil {
		log.Errorw("failed to unpublish portfolio",
			"user_id", userID,
			"error", err,
		)
		return
	}

	log.Infow("unpublished portfolio after eligibility change",
		"user_id", userID,
		"plan", plan,
		"status", status,
	)
}

// syncMarketingTag applies the plan's marketing tag when the user holds an
// entitled paid subscription. Tags are additive on the marketing side, so no
// untagging happens on downgrade.
func (s *billingService) syncMarketingTag(ctx context.Context, sub *domainSub.Subscription) {
	log := s.Logger.WithContext(ctx)

	if !sub.Status.IsEntitled() || !sub.Plan.IsPaid() {
		return
	}

	tagID, ok := s.Config.ConvertKit.Tags[string(sub.Plan)]
	if !ok || tagID == "" {
		log.Debugw("no marketing tag configured for plan", "plan", sub.Plan)
		return
	}

	email, err := s.resolveUserEmail(ctx, sub.UserID)
	if err != nil {
		log.Errorw("failed to resolve user email for marketing tag",
			"user_id", sub.UserID,
			"error", err,
		)
		return
	}
	if email == "" {
		log.Warnw("user has no email, skipping marketing tag", "user_id", sub.UserID)
		return
	}

	if err := s.ConvertKit.TagSubscriber(ctx, tagID, email); err != nil {
		log.Errorw("failed to apply marketing tag",
			"user_id", sub.UserID,
			"tag_id", tagID,
			"error", err,
		)
		return
	}
}

// cancelTrialSequence stops the trial-nurture email drip for a user who just
// converted to a paid plan. It runs detached from the request: the sequence
// lookup and cancellation are two network calls and the webhook response must
// not wait on them.
func (s *billingService) cancelTrialSequence(userID string) {
	s.bg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()

		email, err := s.resolveUserEmail(ctx, userID)
		if err != nil || email == "" {
			s.Logger.Errorw("failed to resolve user email for trial sequence cancel",
				"user_id", userID,
				"error", err,
			)
			return
		}

		sequences, err := s.ConvertKit.ListSequences(ctx)
		if err != nil {
			s.Logger.Errorw("failed to list marketing sequences",
				"user_id", userID,
				"error", err,
			)
			return
		}

		seq, found := lo.Find(sequences, func(seq convertkit.Sequence) bool {
			return seq.Name == s.Config.ConvertKit.TrialSequence
		})
		if !found {
			s.Logger.Warnw("trial sequence not found in marketing account",
				"sequence_name", s.Config.ConvertKit.TrialSequence,
			)
			return
		}

		cancelled, err := s.ConvertKit.CancelPendingEmails(ctx, email, seq.ID)
		if err != nil {
			s.Logger.Errorw("failed to cancel trial sequence emails",
				"user_id", userID,
				"sequence_id", seq.ID,
				"error", err,
			)
			return
		}

		s.Logger.Infow("cancelled pending trial sequence emails",
			"user_id", userID,
			"sequence_id", seq.ID,
			"cancelled", cancelled,
		)
	})
}

// resolveUserEmail looks up a user's email with a short-lived cache in front
// of the profiles table. The webhook path can hit the same user several times
// in a burst of related events.
func (s *billingService) resolveUserEmail(ctx context.Context, userID string) (string, error) {
	key := userEmailCachePrefix + userID
	if cached, ok := s.Cache.Get(ctx, key); ok {
		if email, ok := cached.(string); ok {
			return email, nil
		}
	}

	profile, err := s.UserRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", nil
	}

	s.Cache.Set(ctx, key, profile.Email)
	return profile.Email, nil
}
