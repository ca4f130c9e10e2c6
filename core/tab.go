package core

import "pkt.systems/tabdeck/schema"

// tab tracks the state of a single tab. Identity is fixed at creation;
// title and loading mutate in place as the content view reports progress.
type tab struct {
	ID      schema.TabID
	URL     string
	Title   string
	Favicon schema.FaviconRef
	Loading bool
}

// Item returns a transport-friendly view of the tab.
func (t *tab) Item() schema.TabItem {
	return schema.TabItem{
		ID:      t.ID,
		URL:     t.URL,
		Title:   t.Title,
		Favicon: t.Favicon,
		Loading: t.Loading,
	}
}
