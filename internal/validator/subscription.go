// Package validator checks API payloads before they reach storage.
package validator // import "jobwatch.app/internal/validator"

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"jobwatch.app/internal/model"
)

// ValidateSubscriptionCreation validates subscription creation.
func ValidateSubscriptionCreation(request *model.SubscriptionCreationRequest,
) error {
	if strings.TrimSpace(request.Label) == "" {
		return errors.New("label is required")
	}
	if err := validateTarget(request.Channel, request.Target); err != nil {
		return err
	}
	return validateFilters(&request.Filters)
}

// ValidateSubscriptionModification validates subscription modification.
func ValidateSubscriptionModification(
	request *model.SubscriptionModificationRequest, sub *model.Subscription,
) error {
	if request.Label != nil && strings.TrimSpace(*request.Label) == "" {
		return errors.New("label is required")
	}

	channel := sub.Channel
	if request.Channel != nil {
		channel = *request.Channel
	}
	target := sub.Target
	if request.Target != nil {
		target = *request.Target
	}
	if err := validateTarget(channel, target); err != nil {
		return err
	}

	if request.Filters != nil {
		return validateFilters(request.Filters)
	}
	return nil
}

// ValidateTestNotification validates a standalone test notification.
func ValidateTestNotification(request *model.TestNotificationRequest) error {
	return validateTarget(request.Channel, request.Target)
}

func validateTarget(channel, target string) error {
	if !model.ValidChannel(channel) {
		return fmt.Errorf("unknown notification channel %q", channel)
	}
	if strings.TrimSpace(target) == "" {
		return errors.New("notification target is required")
	}

	switch channel {
	case model.ChannelTelegram:
		if !strings.HasPrefix(target, "@") {
			if _, err := strconv.ParseInt(target, 10, 64); err != nil {
				return errors.New(
					"telegram target must be a chat id or a @channel name")
			}
		}
	case model.ChannelDiscord:
		if !strings.HasPrefix(target, "https://") &&
			!strings.HasPrefix(target, "http://") {
			return errors.New("discord target must be a webhook URL")
		}
	case model.ChannelEmail:
		if !strings.Contains(target, "@") {
			return errors.New("email target must be an email address")
		}
	}
	return nil
}

func validateFilters(f *model.SubscriptionFilters) error {
	if f.StartDateAfter != "" {
		if _, ok := f.StartAfter(); !ok {
			return fmt.Errorf("invalid start date filter %q", f.StartDateAfter)
		}
	}
	if f.StartDateBefore != "" {
		if _, ok := f.StartBefore(); !ok {
			return fmt.Errorf("invalid start date filter %q",
				f.StartDateBefore)
		}
	}

	if f.MinStipend != nil && *f.MinStipend < 0 {
		return errors.New("minimum stipend must not be negative")
	}
	if f.MaxStipend != nil && *f.MaxStipend < 0 {
		return errors.New("maximum stipend must not be negative")
	}
	if f.MinStipend != nil && f.MaxStipend != nil &&
		*f.MinStipend > *f.MaxStipend {
		return errors.New("minimum stipend is greater than maximum stipend")
	}
	return nil
}
