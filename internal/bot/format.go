package bot

import (
	"fmt"
	"sort"
	"strings"

	"game-hunter/internal/aggregate"
	"game-hunter/internal/models"
)

const (
	welcomeText = "Hi! Type the name of a game to compare its prices across stores."
	noMatchText = "Nothing found T_T\nMaybe you meant:"
	pickText    = "Pick a game:"
	reportPromptText = "Please describe the problem. If you spotted a wrong price, " +
		"mention the game it concerns or your search query.\n\n" +
		"To just go back to searching, use /cancel."
	reportAckText = "Thanks for letting us know! You can keep searching for games."
	cancelText    = "Back to search mode. Type a game title to look it up."
	notFoundText  = "Could not find any data for that game."
	errorText     = "Something went wrong on our side, please try again in a moment."
	helpText      = "Sorry, I did not get that. Try another game title or one of the commands:\n\n" +
		"/start - start searching for games.\n" +
		"/report - report a problem."
)

// numberEmoji renders 1 -> 1️⃣ and so on, matching the keycap sequence.
func numberEmoji(n int) string {
	return fmt.Sprintf("%d️⃣", n)
}

// FormatDetails renders the per-vendor price comparison as a Telegram
// HTML message. Vendors are listed cheapest first; names of vendors
// that can actually sell the game are bold, sold-out ones struck out.
func FormatDetails(prices map[string]aggregate.Snapshot) string {
	type vendorPrice struct {
		name string
		snap aggregate.Snapshot
	}
	vendors := make([]vendorPrice, 0, len(prices))
	for name, snap := range prices {
		vendors = append(vendors, vendorPrice{name: name, snap: snap})
	}
	sort.Slice(vendors, func(i, j int) bool {
		if vendors[i].snap.Price.Equal(vendors[j].snap.Price) {
			return vendors[i].name < vendors[j].name
		}
		return vendors[i].snap.Price.LessThan(vendors[j].snap.Price)
	})

	var b strings.Builder
	for i, v := range vendors {
		nameTag := "s"
		if v.snap.InStock == models.StockInStock || v.snap.InStock == models.StockComingSoon {
			nameTag = "b"
		}
		fmt.Fprintf(&b, "%s <%s>%s</%s>\n", numberEmoji(i+1), nameTag, v.name, nameTag)
		fmt.Fprintf(&b, "Price: <u>%s</u>\n", v.snap.Price.StringFixed(2))
		fmt.Fprintf(&b, "Status: %s\n", stockLabel(v.snap.InStock))
		fmt.Fprintf(&b, "Title: <a href=\"%s\">%s</a>\n", v.snap.URL, v.snap.Title)
		fmt.Fprintf(&b, "Last checked: %02d.%02d\n\n", v.snap.LastChecked.Day(), int(v.snap.LastChecked.Month()))
	}

	b.WriteString("If you notice a mistake or an outdated price, you can report it with /report")
	return b.String()
}

func stockLabel(status string) string {
	switch status {
	case models.StockInStock:
		return "In stock"
	case models.StockComingSoon:
		return "Coming soon"
	case models.StockOutOfStock:
		return "Out of stock"
	default:
		return "Unknown"
	}
}
