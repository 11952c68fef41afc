package render

import (
	htmlpkg "html"
	"strconv"
	"strings"

	"github.com/mcdev12/racer/go/internal/models"
)

// SelfSuffix marks the player's own racer in leaderboards
const SelfSuffix = " (you)"

// DisplayName returns the driver name as shown on a leaderboard
func DisplayName(s models.Standing) string {
	if s.Self {
		return s.Position.DriverName + SelfSuffix
	}
	return s.Position.DriverName
}

// TrackCards generates HTML for the selectable track list
func TrackCards(tracks []models.Track) string {
	if len(tracks) == 0 {
		return `<h4>Loading Tracks...</h4>`
	}

	var b strings.Builder
	b.WriteString(`<ul id="tracks">`)
	for _, t := range tracks {
		b.WriteString(`<h4 id="`)
		b.WriteString(strconv.Itoa(t.ID))
		b.WriteString(`" class="card track">`)
		b.WriteString(htmlpkg.EscapeString(t.Name))
		b.WriteString(`</h4>`)
	}
	b.WriteString(`</ul>`)
	return b.String()
}

// RacerCards generates HTML for the selectable racer list
func RacerCards(racers []models.Racer) string {
	if len(racers) == 0 {
		return `<h4>Loading Racers...</h4>`
	}

	var b strings.Builder
	b.WriteString(`<ul id="racers">`)
	for _, r := range racers {
		b.WriteString(`<h4 class="card racer" id="`)
		b.WriteString(strconv.Itoa(r.ID))
		b.WriteString(`">`)
		b.WriteString(htmlpkg.EscapeString(r.DriverName))
		b.WriteString(`</h4><p>Top speed: `)
		b.WriteString(strconv.Itoa(r.TopSpeed))
		b.WriteString(`</p><p>Acceleration: `)
		b.WriteString(strconv.Itoa(r.Acceleration))
		b.WriteString(`</p><p>Handling: `)
		b.WriteString(strconv.Itoa(r.Handling))
		b.WriteString(`</p>`)
	}
	b.WriteString(`</ul>`)
	return b.String()
}

// Countdown generates the countdown block
func Countdown(count int) string {
	var b strings.Builder
	b.WriteString(`<h2>Race Starts In...</h2><p id="big-numbers">`)
	b.WriteString(strconv.Itoa(count))
	b.WriteString(`</p>`)
	return b.String()
}

// RaceStartView generates the race screen shown while the race is created
// and counted down
func RaceStartView(trackName string, from int) string {
	var b strings.Builder
	b.WriteString(`<header><h1>Race: `)
	b.WriteString(htmlpkg.EscapeString(trackName))
	b.WriteString(`</h1></header><main id="two-columns"><section id="leaderBoard">`)
	b.WriteString(Countdown(from))
	b.WriteString(`</section><section id="accelerate"><h2>Directions</h2>`)
	b.WriteString(`<p>Click the button as fast as you can to make your racer go faster!</p>`)
	b.WriteString(`<button id="gas-peddle">Click Me To Win!</button></section></main><footer></footer>`)
	return b.String()
}

// ProgressTable generates the live leaderboard
func ProgressTable(standings []models.Standing) string {
	var b strings.Builder
	b.WriteString(`<table>`)
	writeRows(&b, standings)
	b.WriteString(`</table>`)
	return b.String()
}

// ResultsView generates the final results screen
func ResultsView(standings []models.Standing) string {
	var b strings.Builder
	b.WriteString(`<header><h1>Race Results</h1></header><main><h3>Race Results</h3>`)
	b.WriteString(`<p>The race is done! Here are the final results:</p><table>`)
	writeRows(&b, standings)
	b.WriteString(`</table><a href="/">Start a new race</a></main>`)
	return b.String()
}

// ErrorView generates the message shown when a race could not start
func ErrorView(message string) string {
	var b strings.Builder
	b.WriteString(`<div class="card error"><h3>Race could not start</h3><p>`)
	b.WriteString(htmlpkg.EscapeString(message))
	b.WriteString(`</p><a href="/">Try again</a></div>`)
	return b.String()
}

func writeRows(b *strings.Builder, standings []models.Standing) {
	for _, s := range standings {
		class := "standing"
		if s.Self {
			class = "standing self"
		}
		b.WriteString(`<tr class="`)
		b.WriteString(class)
		b.WriteString(`"><td><h3>`)
		b.WriteString(strconv.Itoa(s.Rank))
		b.WriteString(` - `)
		b.WriteString(htmlpkg.EscapeString(DisplayName(s)))
		b.WriteString(`</h3></td></tr>`)
	}
}
