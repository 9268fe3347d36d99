package viewer

import (
	"fmt"
	"math"

	"github.com/burkap/osu-replay-analyzer/curve"
	"github.com/burkap/osu-replay-analyzer/dotosr"
	"github.com/burkap/osu-replay-analyzer/dotosu"
	"github.com/burkap/osu-replay-analyzer/judge"
	"github.com/gdamore/tcell/v2"
)

const hudRows = 2

var (
	styleDefault = tcell.StyleDefault
	styleBorder  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	stylePending = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleBody    = tcell.StyleDefault.Foreground(tcell.ColorDarkCyan)
	styleTick    = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleTrail   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleCursor  = tcell.StyleDefault.Foreground(tcell.ColorFuchsia).Bold(true)
	stylePressed = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true).Reverse(true)

	tierStyles = map[judge.Tier]tcell.Style{
		judge.Perfect: tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true),
		judge.Good:    tcell.StyleDefault.Foreground(tcell.ColorBlue).Bold(true),
		judge.Meh:     tcell.StyleDefault.Foreground(tcell.ColorOlive).Bold(true),
		judge.Miss:    tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true),
	}
)

// Canvas maps the 512x384 playfield onto the screen below the HUD. Cells
// are about twice as tall as they are wide, so y is squashed by half.
type Canvas struct {
	screen tcell.Screen

	ox, oy int     // top-left cell of the playfield
	scale  float64 // cells per playfield pixel, horizontally
	w, h   int     // playfield size in cells
}

func NewCanvas(screen tcell.Screen) *Canvas {
	c := &Canvas{screen: screen}
	c.Resize()
	return c
}

func (c *Canvas) Resize() {
	sw, sh := c.screen.Size()
	avail := max(sh-hudRows-2, 1)
	c.scale = math.Min(float64(sw-2)/dotosu.PlayfieldWidth, 2*float64(avail)/dotosu.PlayfieldHeight)
	if c.scale <= 0 {
		c.scale = 1.0 / dotosu.PlayfieldWidth
	}
	c.w = int(dotosu.PlayfieldWidth * c.scale)
	c.h = int(dotosu.PlayfieldHeight * c.scale / 2)
	c.ox = max((sw-c.w)/2, 1)
	c.oy = hudRows + 1
}

// Cell returns the screen cell of playfield point (x, y).
func (c *Canvas) Cell(x, y float64) (int, int) {
	return c.ox + int(math.Round(x*c.scale)), c.oy + int(math.Round(y*c.scale/2))
}

func (c *Canvas) Plot(x, y float64, r rune, style tcell.Style) {
	cx, cy := c.Cell(x, y)
	c.screen.SetContent(cx, cy, r, nil, style)
}

// Text writes s starting at cell (col, row) and returns the column after
// it.
func (c *Canvas) Text(col, row int, s string, style tcell.Style) int {
	for _, r := range s {
		c.screen.SetContent(col, row, r, nil, style)
		col++
	}
	return col
}

func (c *Canvas) frame() {
	x0, y0 := c.ox-1, c.oy-1
	x1, y1 := c.ox+c.w+1, c.oy+c.h+1
	for x := x0 + 1; x < x1; x++ {
		c.screen.SetContent(x, y0, '─', nil, styleBorder)
		c.screen.SetContent(x, y1, '─', nil, styleBorder)
	}
	for y := y0 + 1; y < y1; y++ {
		c.screen.SetContent(x0, y, '│', nil, styleBorder)
		c.screen.SetContent(x1, y, '│', nil, styleBorder)
	}
	c.screen.SetContent(x0, y0, '┌', nil, styleBorder)
	c.screen.SetContent(x1, y0, '┐', nil, styleBorder)
	c.screen.SetContent(x0, y1, '└', nil, styleBorder)
	c.screen.SetContent(x1, y1, '┘', nil, styleBorder)
}

// Drawable is anything the scene can put on the canvas.
type Drawable interface {
	Draw(c *Canvas)
}

// Scene is the set of drawables for one frame, drawn in order.
type Scene struct {
	items []Drawable
}

func (s *Scene) Add(d Drawable) { s.items = append(s.items, d) }

func (s *Scene) Draw(c *Canvas) {
	c.frame()
	for _, d := range s.items {
		d.Draw(c)
	}
}

// Circle is a hit circle, coloured by its tier once judged.
type Circle struct {
	X, Y   float64
	Judged bool
	Tier   judge.Tier
}

func (o Circle) Draw(c *Canvas) {
	style := stylePending
	r := 'O'
	if o.Judged {
		style = tierStyles[o.Tier]
		if o.Tier == judge.Miss {
			r = 'X'
		}
	}
	c.Plot(o.X, o.Y, r, style)
}

// Slider draws the body, ticks, head and, while active, the ball.
type Slider struct {
	Head Circle
	Path *curve.Path
	Ball *curve.Vec
}

func (o Slider) Draw(c *Canvas) {
	if o.Path != nil {
		for _, p := range o.Path.Points {
			c.Plot(p.X, p.Y, '·', styleBody)
		}
		for _, p := range o.Path.Ticks {
			c.Plot(p.X, p.Y, '+', styleTick)
		}
	}
	o.Head.Draw(c)
	if o.Ball != nil {
		c.Plot(o.Ball.X, o.Ball.Y, '@', styleBody.Bold(true))
	}
}

// Cursor is the current sample and the trail behind it.
type Cursor struct {
	Trail   []dotosr.Sample
	Pressed bool
}

func (o Cursor) Draw(c *Canvas) {
	if len(o.Trail) == 0 {
		return
	}
	for _, s := range o.Trail[:len(o.Trail)-1] {
		c.Plot(s.X, s.Y, '.', styleTrail)
	}
	cur := o.Trail[len(o.Trail)-1]
	style := styleCursor
	if o.Pressed {
		style = stylePressed
	} else if cur.Buttons&(dotosr.ButtonPrimary|dotosr.ButtonSecondary) != 0 {
		style = styleCursor.Reverse(true)
	}
	c.Plot(cur.X, cur.Y, '+', style)
}

// HUD is the two status lines above the playfield.
type HUD struct {
	Player  string
	Mods    judge.Mods
	Time    int64
	Speed   float64
	Paused  bool
	Counts  judge.Counts
	Buttons dotosr.Buttons
}

func (o HUD) Draw(c *Canvas) {
	state := "▶"
	if o.Paused {
		state = "⏸"
	}
	c.Text(0, 0, fmt.Sprintf("%s %s  %s  %s  x%.2g  keys %-16s", state, o.Player, o.Mods, clockText(o.Time), o.Speed, o.Buttons), styleDefault)

	col := c.Text(0, 1, fmt.Sprintf("300 %d", o.Counts.Perfect), tierStyles[judge.Perfect])
	col = c.Text(col+2, 1, fmt.Sprintf("100 %d", o.Counts.Good), tierStyles[judge.Good])
	col = c.Text(col+2, 1, fmt.Sprintf("50 %d", o.Counts.Meh), tierStyles[judge.Meh])
	col = c.Text(col+2, 1, fmt.Sprintf("miss %d", o.Counts.Miss), tierStyles[judge.Miss])
	c.Text(col+2, 1, fmt.Sprintf("acc %.2f%%", o.Counts.Accuracy()*100), styleDefault)
}

func clockText(ms int64) string {
	sign := ""
	if ms < 0 {
		sign, ms = "-", -ms
	}
	return fmt.Sprintf("%s%d:%02d.%03d", sign, ms/60000, ms/1000%60, ms%1000)
}
