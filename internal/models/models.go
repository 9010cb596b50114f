package models

import "strings"

// Status is the lifecycle tag of a board item
type Status string

const (
	StatusAvailable   Status = "Available"
	StatusDrafted     Status = "Drafted"
	StatusUnavailable Status = "Unavailable"
	StatusWatch       Status = "Watch"
)

// Statuses lists every valid status in display order
var Statuses = []Status{StatusAvailable, StatusDrafted, StatusUnavailable, StatusWatch}

// ParseStatus matches s against the status enum, ignoring case and surrounding whitespace.
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, st := range Statuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return StatusAvailable, false
}

// Item is one ranked entry (a player) on a board
type Item struct {
	Rank   int    `json:"rank"` // 0 means unset
	Name   string `json:"name"`
	Group  string `json:"group"`
	Cycle  *int   `json:"cycle"` // nil means unset
	Notes  string `json:"notes"`
	Status Status `json:"status"`
}

// Board is the ordered list of items for one category (a position)
type Board struct {
	Category string `json:"category"`
	Items    []Item `json:"items"`
}

// WatchItem is an item on the watchlist, tagged with the board it came from
type WatchItem struct {
	Item
	Category   string `json:"category"`
	SourceRank int    `json:"sourceRank"`
}

// WatchlistView is the derived cross-category projection of Watch items
type WatchlistView struct {
	Items []WatchItem `json:"items"`
	Order []string    `json:"order"`
}

// BoardState is a full snapshot of a board store
type BoardState struct {
	Categories     []string `json:"categories"`
	Boards         []Board  `json:"boards"`
	WatchlistOrder []string `json:"watchlistOrder"`
}

// Summary holds the counters shown above the boards
type Summary struct {
	Total      int            `json:"total"`
	Drafted    int            `json:"drafted"`
	NextPick   int            `json:"nextPick"`
	ByStatus   map[Status]int `json:"byStatus"`
	ByCategory map[string]int `json:"byCategory"`
}

// Outcome reports the result of a mutating operation
type Outcome struct {
	Changed  bool   `json:"changed"`
	Count    int    `json:"count"`
	Message  string `json:"message,omitempty"`
	Board    *Board `json:"board,omitempty"`
	Kept     int    `json:"kept,omitempty"`
	Dropped  int    `json:"dropped,omitempty"`
	Inserted int    `json:"inserted,omitempty"`

	// Categories touched by an import, in file order
	Categories []string `json:"categories,omitempty"`
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
