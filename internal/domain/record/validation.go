package record

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rpggio/padron/internal/domain/audit"
)

var fields = validator.New(validator.WithRequiredStructEnabled())

// CheckFields validates the `validate` struct tags of v and reports the
// failing fields as an ErrInvalidInput failure.
func CheckFields(entity audit.EntityKind, id string, v any) error {
	err := fields.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Invalid(entity, id, err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return Invalid(entity, id, strings.Join(msgs, "; "))
}

// ContainsFold reports whether any of values contains text, ignoring case.
// An empty text matches everything.
func ContainsFold(text string, values ...string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}
	text = strings.ToLower(text)
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), text) {
			return true
		}
	}
	return false
}
