package remote

import (
	"errors"
	"fmt"

	appErrors "issueboard/internal/errors"
)

var (
	// ErrNotFound indicates the remote has no issue with the requested id.
	ErrNotFound = errors.New("remote: issue not found")
	// ErrUnavailable is returned by the mock API when it simulates an outage.
	ErrUnavailable = errors.New("remote: service unavailable")
)

func fetchError(err error) error {
	return appErrors.Fetch(err)
}

func updateError(id string, err error) error {
	if errors.Is(err, ErrNotFound) {
		err = appErrors.New(appErrors.CodeNotFound, fmt.Sprintf("issue %s not found", id), err)
	}
	return appErrors.Update(id, err)
}
