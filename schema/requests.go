package schema

// Tab lifecycle.

// CreateTabRequest describes a request to create a tab.
type CreateTabRequest struct {
	UserID   UserID
	Origin   SessionID
	URL      string
	Title    string
	Pin      bool
	Activate bool
}

// CreateTabResponse reports the created tab.
type CreateTabResponse struct {
	Tab TabItem
}

// CloseTabRequest describes a request to close a tab.
type CloseTabRequest struct {
	UserID UserID
	Origin SessionID
	TabID  TabID
}

// CloseTabResponse reports the closed tab.
type CloseTabResponse struct {
	Tab TabItem
}

// ActivateTabRequest describes a request to switch the active tab.
type ActivateTabRequest struct {
	UserID UserID
	Origin SessionID
	TabID  TabID
}

// ActivateTabResponse reports the newly active tab.
type ActivateTabResponse struct {
	Tab TabItem
}

// Ordering.

// ReorderTabRequest describes a request to move a tab to a target index.
type ReorderTabRequest struct {
	UserID      UserID
	Origin      SessionID
	TabID       TabID
	TargetIndex int
}

// ReorderTabResponse reports the resulting order.
type ReorderTabResponse struct {
	Order []TabID
}

// Registry-initiated mutation.

// SetTitleRequest updates the title of a tab in place.
type SetTitleRequest struct {
	UserID UserID
	TabID  TabID
	Title  string
}

// SetTitleResponse reports the updated tab.
type SetTitleResponse struct {
	Tab TabItem
}

// SetLoadingRequest updates the loading flag of a tab in place.
type SetLoadingRequest struct {
	UserID  UserID
	TabID   TabID
	Loading bool
}

// SetLoadingResponse reports the updated tab.
type SetLoadingResponse struct {
	Tab TabItem
}

// Reads.

// ListTabsRequest describes a request for the current tab set.
type ListTabsRequest struct {
	UserID UserID
}

// ListTabsResponse reports the full tab set as a snapshot.
type ListTabsResponse struct {
	Snapshot Snapshot
}
