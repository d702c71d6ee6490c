// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by everything that talks to the profile service.
// Sync batches are small JSON payloads; anything slower than this is down.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}
