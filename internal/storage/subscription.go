package storage // import "jobwatch.app/internal/storage"

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"jobwatch.app/internal/model"
)

const subscriptionColumns = `
  id,
  user_id,
  label,
  filters,
  channel,
  target,
  seen_offer_ids,
  is_active,
  created_at,
  updated_at`

// Subscriptions returns all subscriptions that belong to the given user.
func (s *Storage) Subscriptions(ctx context.Context, userID int64,
) (model.Subscriptions, error) {
	rows, _ := s.db.Query(ctx, `
SELECT`+subscriptionColumns+`
FROM subscriptions
WHERE user_id = $1
ORDER BY label ASC`, userID)

	subs, err := pgx.CollectRows(rows,
		pgx.RowToAddrOfStructByName[model.Subscription])
	if err != nil {
		return nil, fmt.Errorf("storage: unable to get subscriptions: %w", err)
	}
	return subs, nil
}

// ActiveSubscriptions returns all active subscriptions across all users.
func (s *Storage) ActiveSubscriptions(ctx context.Context,
) (model.Subscriptions, error) {
	rows, _ := s.db.Query(ctx, `
SELECT`+subscriptionColumns+`
FROM subscriptions
WHERE is_active
ORDER BY id ASC`)

	subs, err := pgx.CollectRows(rows,
		pgx.RowToAddrOfStructByName[model.Subscription])
	if err != nil {
		return nil, fmt.Errorf(
			"storage: unable to get active subscriptions: %w", err)
	}
	return subs, nil
}

// Subscription returns one subscription of the given user, or nil when the
// user has no subscription with this ID.
func (s *Storage) Subscription(ctx context.Context, userID, id int64,
) (*model.Subscription, error) {
	rows, _ := s.db.Query(ctx, `
SELECT`+subscriptionColumns+`
FROM subscriptions
WHERE user_id = $1 AND id = $2`, userID, id)

	sub, err := pgx.CollectExactlyOneRow(rows,
		pgx.RowToAddrOfStructByName[model.Subscription])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("storage: unable to get subscription #%d: %w",
			id, err)
	}
	return sub, nil
}

// SubscriptionExists checks if the given user has this subscription.
func (s *Storage) SubscriptionExists(ctx context.Context, userID, id int64,
) (bool, error) {
	rows, _ := s.db.Query(ctx, `
SELECT EXISTS (
  SELECT FROM subscriptions WHERE user_id = $1 AND id = $2)`, userID, id)

	exists, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[bool])
	if err != nil {
		return false, fmt.Errorf(
			"storage: check subscription #%d exists: %w", id, err)
	}
	return exists, nil
}

// CreateSubscription stores a new subscription and fills in the generated
// fields.
func (s *Storage) CreateSubscription(ctx context.Context,
	sub *model.Subscription,
) error {
	err := s.db.QueryRow(ctx, `
INSERT INTO subscriptions (user_id, label, filters, channel, target)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, seen_offer_ids, is_active, created_at, updated_at`,
		sub.UserID, sub.Label, sub.Filters, sub.Channel, sub.Target).
		Scan(&sub.ID, &sub.SeenOfferIDs, &sub.Active, &sub.CreatedAt,
			&sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("storage: create subscription: %w", err)
	}
	return nil
}

// UpdateSubscription stores the modified subscription.
func (s *Storage) UpdateSubscription(ctx context.Context,
	sub *model.Subscription,
) error {
	_, err := s.db.Exec(ctx, `
UPDATE subscriptions
   SET label = $3,
       filters = $4,
       channel = $5,
       target = $6,
       is_active = $7,
       updated_at = now()
 WHERE user_id = $1 AND id = $2`,
		sub.UserID,
		sub.ID,
		sub.Label,
		sub.Filters,
		sub.Channel,
		sub.Target,
		sub.Active)
	if err != nil {
		return fmt.Errorf("storage: update subscription #%d: %w", sub.ID, err)
	}
	return nil
}

// RemoveSubscription deletes a subscription of the given user.
func (s *Storage) RemoveSubscription(ctx context.Context, userID, id int64,
) error {
	result, err := s.db.Exec(ctx, `
DELETE FROM subscriptions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("storage: remove subscription #%d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("storage: subscription #%d not found", id)
	}
	return nil
}

// ExtendSeenOffers appends offer IDs to the subscription seen set. The set
// only ever grows and duplicates are collapsed in the database, so repeated
// worker runs are safe.
func (s *Storage) ExtendSeenOffers(ctx context.Context, subscriptionID int64,
	offerIDs []int64,
) error {
	if len(offerIDs) == 0 {
		return nil
	}

	_, err := s.db.Exec(ctx, `
UPDATE subscriptions
   SET seen_offer_ids = (
         SELECT coalesce(array_agg(DISTINCT o ORDER BY o), '{}')
           FROM unnest(seen_offer_ids || $2::bigint[]) AS o),
       updated_at = now()
 WHERE id = $1`, subscriptionID, offerIDs)
	if err != nil {
		return fmt.Errorf(
			"storage: extend seen offers of subscription #%d: %w",
			subscriptionID, err)
	}
	return nil
}

func (s *Storage) CountActiveSubscriptions(ctx context.Context) (int, error) {
	rows, _ := s.db.Query(ctx,
		`SELECT count(*) FROM subscriptions WHERE is_active`)
	count, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[int])
	if err != nil {
		return 0, fmt.Errorf("storage: count subscriptions: %w", err)
	}
	return count, nil
}
