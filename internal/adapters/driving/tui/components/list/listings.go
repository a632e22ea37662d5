// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/carsweep/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// ListingList displays aggregated listings in a navigable list.
type ListingList struct {
	listings []domain.Listing
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewListingList creates a new listing list component.
func NewListingList(s *styles.Styles) *ListingList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ListingList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the listing list.
func (r *ListingList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ListingList) Update(msg tea.Msg) (*ListingList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the listing list.
func (r *ListingList) View() string {
	if len(r.listings) == 0 {
		return r.styles.Muted.Render("No listings")
	}

	lines := make([]string, 0, len(r.listings)*2+2)

	header := r.styles.Subtitle.Render(fmt.Sprintf("Listings (%d)", len(r.listings)))
	lines = append(lines, header, "")

	// Each listing renders as two lines plus one of slack.
	visibleCount := (r.height - 4) / 3
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if r.selected >= visibleCount {
		start = r.selected - visibleCount + 1
	}
	end := min(start+visibleCount, len(r.listings))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderListing(i, &r.listings[i]))
	}

	return strings.Join(lines, "\n")
}

// renderListing formats a listing as a title line and a detail line.
func (r *ListingList) renderListing(index int, listing *domain.Listing) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	title := listing.Title
	if title == "" {
		title = "(Untitled)"
	}

	maxTitleLen := max(r.width-20, 10)
	title = truncate(title, maxTitleLen)

	price := listing.Price
	if price == "" {
		price = "-"
	}

	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxTitleLen, title, price))
	} else {
		titleLine = r.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxTitleLen, title)) +
			r.styles.Success.Render(price)
	}

	details := make([]string, 0, 4)
	for _, part := range []string{listing.SourceName, listing.Location, listing.Year, listing.Mileage} {
		if part != "" {
			details = append(details, part)
		}
	}
	detailLine := r.styles.Subtitle.Render("    " + strings.Join(details, " · "))
	urlLine := r.styles.Muted.Render("    " + truncate(listing.URL, max(r.width-6, 20)))

	return titleLine + "\n" + detailLine + "\n" + urlLine
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// SetListings replaces the list contents and resets the selection.
func (r *ListingList) SetListings(listings []domain.Listing) {
	r.listings = listings
	r.selected = 0
}

// Append adds listings to the end without moving the selection.
func (r *ListingList) Append(listings ...domain.Listing) {
	r.listings = append(r.listings, listings...)
}

// Listings returns the current listings.
func (r *ListingList) Listings() []domain.Listing {
	return r.listings
}

// Selected returns the index of the selected listing.
func (r *ListingList) Selected() int {
	return r.selected
}

// SetSelected sets the selected index.
func (r *ListingList) SetSelected(index int) {
	if index >= 0 && index < len(r.listings) {
		r.selected = index
	}
}

// SelectedListing returns the currently selected listing, or nil if none.
func (r *ListingList) SelectedListing() *domain.Listing {
	if len(r.listings) == 0 || r.selected < 0 || r.selected >= len(r.listings) {
		return nil
	}
	return &r.listings[r.selected]
}

// MoveUp moves selection up.
func (r *ListingList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ListingList) MoveDown() {
	if r.selected < len(r.listings)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ListingList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Width returns the current width.
func (r *ListingList) Width() int {
	return r.width
}

// Height returns the current height.
func (r *ListingList) Height() int {
	return r.height
}

// Count returns the number of listings.
func (r *ListingList) Count() int {
	return len(r.listings)
}

// IsEmpty returns whether the list is empty.
func (r *ListingList) IsEmpty() bool {
	return len(r.listings) == 0
}
