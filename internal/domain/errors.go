package domain

import (
	"fmt"

	appErrors "issueboard/internal/errors"
)

func invalidStatusError(status string) error {
	return appErrors.New(appErrors.CodeInvalidStatus, fmt.Sprintf("invalid status: %s", status), nil)
}

func invalidPriorityError(priority string) error {
	return appErrors.New(appErrors.CodeInvalidPriority, fmt.Sprintf("invalid priority: %s", priority), nil)
}

func invalidSeverityError(severity int) error {
	return appErrors.New(appErrors.CodeInvalidSeverity, fmt.Sprintf("invalid severity: %d (want %d-%d)", severity, MinSeverity, MaxSeverity), nil)
}

func invalidIssueError(reason string, err error) error {
	return appErrors.New(appErrors.CodeInvalidIssueData, reason, err)
}
