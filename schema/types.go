package schema

// UserID identifies a user in the system.
type UserID string

// TabID is the opaque, stable identifier of a tab.
type TabID string

// SessionID identifies one connected UI session. Commands carry the session
// that issued them so the resulting snapshot can be attributed back to it.
type SessionID string

// FaviconRef points at a favicon resource; resolution is up to the shell.
type FaviconRef string

// TabItem is a single tab owned by the registry. Identity is immutable;
// Title and Loading mutate in place by registry push.
type TabItem struct {
	ID      TabID      `json:"id"`
	URL     string     `json:"url"`
	Title   string     `json:"title"`
	Favicon FaviconRef `json:"faviconRef,omitempty"`
	Loading bool       `json:"isLoading"`
}
