package model

import (
	"fmt"
	"regexp"
	"strconv"

	"telegram-course-store/internal/domain"
)

// customIDPattern is the only accepted shape for the provider custom_id
// field that round-trips user+course identity through the payment order.
var customIDPattern = regexp.MustCompile(`^user_([0-9]+)_course_([a-z0-9][a-z0-9-]*)$`)

// CustomID encodes a (user, course) pair for the provider order metadata.
func CustomID(userID int64, courseID string) string {
	return fmt.Sprintf("user_%d_course_%s", userID, courseID)
}

// ParseCustomID extracts the (user, course) pair from a provider custom_id.
// Anything that does not match the fixed pattern exactly is rejected with
// ErrBadCustomID; events carrying such ids are dropped by the webhook layer.
func ParseCustomID(s string) (userID int64, courseID string, err error) {
	m := customIDPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, "", fmt.Errorf("%w: %q", domain.ErrBadCustomID, s)
	}
	userID, err = strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %q", domain.ErrBadCustomID, s)
	}
	return userID, m[2], nil
}
