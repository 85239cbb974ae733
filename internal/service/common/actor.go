//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"

	"github.com/oshokin/fall-guard/internal/domain/alert"
)

// DetectActor gathers host and user information attached to raised alerts.
func DetectActor() (*alert.Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &alert.Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}
