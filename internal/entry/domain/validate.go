package domain

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type formRules struct {
	Title         string             `validate:"required,max=200"`
	Currency      string             `validate:"required,len=3,alpha"`
	Notifications []notificationRule `validate:"dive"`
}

type notificationRule struct {
	Event string   `validate:"required"`
	To    []string `validate:"min=1,dive,email"`
}

// Validate checks the form definition before it is stored.
func (f Form) Validate() error {
	rules := formRules{
		Title:    strings.TrimSpace(f.Title),
		Currency: strings.TrimSpace(f.Currency),
	}
	for _, n := range f.Notifications {
		rules.Notifications = append(rules.Notifications, notificationRule{Event: n.Event, To: n.To})
	}
	if err := validate.Struct(rules); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	return nil
}
