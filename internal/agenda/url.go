package agenda

import (
	"fmt"
	"net/url"
)

// ExternalIDFromURL pulls the Id query parameter (a GUID) from an eScribe
// Meeting.aspx URL. That token is the stable reconciliation key for the
// meeting across re-scrapes.
func ExternalIDFromURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse source url: %w", err)
	}

	params := parsed.Query()
	for _, key := range []string{"Id", "id"} {
		if id := params.Get(key); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("no Id parameter found in URL: %s", rawURL)
}
