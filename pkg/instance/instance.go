package instance

import "os"

// GetID returns the API instance identifier attached to every log line.
// Falls back to the hostname, then a fixed default.
func GetID() string {
	if id := os.Getenv("STOREFRONT_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "api-0"
}
