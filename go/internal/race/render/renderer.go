// Package render turns race lifecycle updates into presentation output.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mcdev12/racer/go/internal/models"
)

// ErrSinkUnavailable is returned when there is nobody to present to, e.g.
// every browser view has been closed.
var ErrSinkUnavailable = errors.New("render sink unavailable")

// Target selectors of the race page
const (
	TargetRace        = "#race"
	TargetLeaderBoard = "#leaderBoard"
	TargetCountdown   = "#big-numbers"
	TargetTracks      = "#tracks"
	TargetRacers      = "#racers"
)

// Kind tells clients what a render instruction carries
type Kind string

const (
	KindRaceStart Kind = "race_start"
	KindCountdown Kind = "countdown"
	KindProgress  Kind = "progress"
	KindResults   Kind = "results"
	KindError     Kind = "error"
)

// Instruction replaces the content of Target with HTML
type Instruction struct {
	Kind   Kind   `json:"kind"`
	Target string `json:"target"`
	HTML   string `json:"html"`
}

// Publisher delivers instructions to whatever is displaying the race
type Publisher interface {
	Publish(ctx context.Context, in Instruction) error
}

// HTMLRenderer renders HTML fragments and hands them to a Publisher
type HTMLRenderer struct {
	pub  Publisher
	from int
}

func NewHTMLRenderer(pub Publisher, countdownFrom int) *HTMLRenderer {
	return &HTMLRenderer{pub: pub, from: countdownFrom}
}

func (r *HTMLRenderer) RenderRaceStart(ctx context.Context, trackName string) error {
	return r.pub.Publish(ctx, Instruction{Kind: KindRaceStart, Target: TargetRace, HTML: RaceStartView(trackName, r.from)})
}

func (r *HTMLRenderer) RenderCountdown(ctx context.Context, remaining int) error {
	return r.pub.Publish(ctx, Instruction{Kind: KindCountdown, Target: TargetLeaderBoard, HTML: Countdown(remaining)})
}

func (r *HTMLRenderer) RenderProgress(ctx context.Context, standings []models.Standing) error {
	return r.pub.Publish(ctx, Instruction{Kind: KindProgress, Target: TargetLeaderBoard, HTML: ProgressTable(standings)})
}

func (r *HTMLRenderer) RenderResults(ctx context.Context, standings []models.Standing) error {
	return r.pub.Publish(ctx, Instruction{Kind: KindResults, Target: TargetRace, HTML: ResultsView(standings)})
}

func (r *HTMLRenderer) RenderError(ctx context.Context, err error) error {
	return r.pub.Publish(ctx, Instruction{Kind: KindError, Target: TargetRace, HTML: ErrorView(err.Error())})
}

// TextRenderer writes a plain text transcript, used by the headless runner
type TextRenderer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (r *TextRenderer) RenderRaceStart(ctx context.Context, trackName string) error {
	return r.printf("Race: %s\n", trackName)
}

func (r *TextRenderer) RenderCountdown(ctx context.Context, remaining int) error {
	return r.printf("Race starts in... %d\n", remaining)
}

func (r *TextRenderer) RenderProgress(ctx context.Context, standings []models.Standing) error {
	return r.printf("%s\n", textBoard(standings))
}

func (r *TextRenderer) RenderResults(ctx context.Context, standings []models.Standing) error {
	return r.printf("Race Results\n%s\n", textBoard(standings))
}

func (r *TextRenderer) RenderError(ctx context.Context, err error) error {
	return r.printf("Race could not start: %v\n", err)
}

func (r *TextRenderer) printf(format string, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := fmt.Fprintf(r.w, format, args...)
	return err
}

func textBoard(standings []models.Standing) string {
	lines := make([]string, len(standings))
	for i, s := range standings {
		lines[i] = fmt.Sprintf("%d - %s", s.Rank, DisplayName(s))
	}
	return strings.Join(lines, "\n")
}
