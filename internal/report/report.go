// Package report renders the final results of a tasting as plain-text tables.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/Alschn/Beerdegu/internal/domain"
)

var (
	userSheetHeader = []string{"NUMER", "KOLOR", "PIANA", "ZAPACH", "SMAK", "OPINIA", "OCENA KOŃCOWA"}
	beerSheetHeader = []string{"NUMER", "NAZWA", "BROWAR", "STYL", "ŚREDNIA OCENA"}
)

// Report is everything needed to render one user's export of a room.
type Report struct {
	Room     string
	Username string
	User     []domain.UserResult
	Beers    []domain.BeerResult
}

// Filename is the suggested download name for a report made on day.
func Filename(day time.Time) string {
	return "beerdegu_degustacja_" + day.Format("02_01_2006") + ".txt"
}

// Render writes both sections to w: the user's own ratings, then the room averages.
func Render(w io.Writer, r Report) error {
	if _, err := fmt.Fprintf(w, "Oceny użytkownika %s (pokój %s)\n\n", r.Username, r.Room); err != nil {
		return err
	}
	userTable := newTable(w, userSheetHeader)
	for _, row := range r.User {
		userTable.Append([]string{
			strconv.Itoa(row.Order),
			row.Color,
			row.Foam,
			row.Smell,
			row.Taste,
			row.Opinion,
			formatNote(row.Note),
		})
	}
	userTable.Render()

	if _, err := fmt.Fprintf(w, "\nWyniki pokoju %s\n\n", r.Room); err != nil {
		return err
	}
	beerTable := newTable(w, beerSheetHeader)
	for _, row := range r.Beers {
		beerTable.Append([]string{
			strconv.Itoa(row.Order),
			row.Beer.Name,
			row.Beer.Brewery,
			row.Beer.Style,
			formatAverage(row.AverageRating),
		})
	}
	beerTable.Render()
	return nil
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func formatNote(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n)
}

func formatAverage(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
