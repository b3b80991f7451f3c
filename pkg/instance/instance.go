package instance

import (
	"os"
	"strings"
)

// GetID names the running process in logs. Platform-provided ids win over
// the host name.
func GetID() string {
	for _, key := range []string{"STOREFRONT_INSTANCE_ID", "DYNO", "HOSTNAME"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	return "local"
}
