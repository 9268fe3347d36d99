package viewer

import (
	"sync"
	"testing"
	"time"

	"github.com/burkap/osu-replay-analyzer/dotosr"
	"github.com/burkap/osu-replay-analyzer/dotosu"
	"github.com/burkap/osu-replay-analyzer/session"
	"github.com/gdamore/tcell/v2"
)

type fakeTime struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeTime) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeTime) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type fakeAudio struct {
	seeks  []int64
	paused bool
	speed  float64
}

func (a *fakeAudio) SeekTo(ms int64) error  { a.seeks = append(a.seeks, ms); return nil }
func (a *fakeAudio) SetPaused(paused bool)  { a.paused = paused }
func (a *fakeAudio) SetSpeed(speed float64) { a.speed = speed }

func TestPace(t *testing.T) {
	cases := []struct {
		next, now int64
		speed     float64
		want      time.Duration
	}{
		{1016, 1000, 1, 16 * time.Millisecond},
		{1016, 1000, 2, 8 * time.Millisecond},
		{1016, 1000, 0.5, 32 * time.Millisecond},
		{1000, 1016, 1, 0},
		{1016, 1000, 0, 0},
	}
	for _, c := range cases {
		if got := Pace(c.next, c.now, c.speed); got != c.want {
			t.Errorf("Pace(%d, %d, %g) = %v, want %v", c.next, c.now, c.speed, got, c.want)
		}
	}
}

func TestPlayClock(t *testing.T) {
	src := &fakeTime{now: time.Unix(100, 0)}
	c := NewPlayClock(src, 500, 1)
	src.Advance(250 * time.Millisecond)
	if got := c.Time(); got != 750 {
		t.Errorf("time %d, want 750", got)
	}

	c.SetSpeed(2)
	src.Advance(100 * time.Millisecond)
	if got := c.Time(); got != 950 {
		t.Errorf("after 2x: %d, want 950", got)
	}

	c.SetPaused(true)
	src.Advance(time.Second)
	if got := c.Time(); got != 950 {
		t.Errorf("paused: %d, want 950", got)
	}
	c.SetPaused(false)
	src.Advance(10 * time.Millisecond)
	if got := c.Time(); got != 970 {
		t.Errorf("resumed: %d, want 970", got)
	}

	c.Jump(5000)
	if got := c.Time(); got != 5000 {
		t.Errorf("jump: %d", got)
	}
}

func TestClockText(t *testing.T) {
	if got := clockText(83456); got != "1:23.456" {
		t.Errorf("got %q", got)
	}
	if got := clockText(-20); got != "-0:00.020" {
		t.Errorf("got %q", got)
	}
}

func testSession() *session.Session {
	bm := &dotosu.Beatmap{
		Difficulty: dotosu.Difficulty{CircleSize: 4, OverallDifficulty: 8},
		HitObjects: []dotosu.HitObject{
			dotosu.Circle{BaseHO: dotosu.BaseHO{PosXY: dotosu.Vec2{X: 256, Y: 192}, Time: 1000}},
			dotosu.Circle{BaseHO: dotosu.BaseHO{PosXY: dotosu.Vec2{X: 0, Y: 0}, Time: 3000}},
		},
	}
	rep := &dotosr.Replay{PlayerName: "heyronii"}
	for tm := int64(0); tm <= 4000; tm += 10 {
		var b dotosr.Buttons
		if tm == 1000 {
			b = dotosr.ButtonPrimary
		}
		rep.Samples = append(rep.Samples, dotosr.Sample{Time: tm, TimeDelta: 10, X: 256, Y: 192, Buttons: b})
	}
	return session.New(rep, bm, nil)
}

func testViewer(t *testing.T) (*Viewer, tcell.SimulationScreen, *fakeTime, *fakeAudio) {
	t.Helper()
	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(130, 50)

	src := &fakeTime{now: time.Unix(0, 0)}
	audio := &fakeAudio{}
	v := New(screen, testSession(), NewPlayClock(src, 0, 1), audio, nil)
	return v, screen, src, audio
}

func key(r rune) *tcell.EventKey { return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone) }

func TestKeys(t *testing.T) {
	v, _, _, audio := testViewer(t)

	v.handleKey(key(']'))
	if v.pb.Time() != 1000 || v.clock.Time() != 1000 {
		t.Errorf("seek forward: playback %d clock %d", v.pb.Time(), v.clock.Time())
	}
	if len(audio.seeks) != 1 || audio.seeks[0] != 1000 {
		t.Errorf("audio seeks %v", audio.seeks)
	}

	v.handleKey(key(' '))
	if !v.clock.Paused() || !audio.paused {
		t.Error("space should pause")
	}
	v.handleKey(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone))
	if v.pb.Time() != 1010 || !v.clock.Paused() {
		t.Errorf("step: %d", v.pb.Time())
	}
	v.handleKey(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone))
	v.handleKey(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone))
	if v.pb.Time() != 990 {
		t.Errorf("step back: %d", v.pb.Time())
	}

	v.handleKey(key('4'))
	if v.clock.Speed() != 2 || audio.speed != 2 {
		t.Errorf("speed %g / %g", v.clock.Speed(), audio.speed)
	}
	v.handleKey(key('9'))
	if v.clock.Speed() != 2 {
		t.Error("unbound digit changed speed")
	}

	v.handleKey(tcell.NewEventKey(tcell.KeyEnd, 0, tcell.ModNone))
	if !v.pb.AtEnd() {
		t.Error("end key")
	}
	v.handleKey(tcell.NewEventKey(tcell.KeyHome, 0, tcell.ModNone))
	if v.pb.SampleIndex() != 0 {
		t.Error("home key")
	}

	if v.handleKey(key('q')) || v.handleKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("q and escape quit")
	}
}

func TestAdvanceFollowsClock(t *testing.T) {
	v, _, src, _ := testViewer(t)
	src.Advance(1234 * time.Millisecond)
	v.advance()
	if v.pb.Time() != 1230 {
		t.Errorf("playback at %d, want 1230", v.pb.Time())
	}
	if c := v.pb.Counts(); c.Perfect != 1 {
		t.Errorf("counts %+v", c)
	}

	src.Advance(time.Hour)
	v.advance()
	if !v.pb.AtEnd() || !v.clock.Paused() {
		t.Error("should pause at the end")
	}
}

func TestSceneDraws(t *testing.T) {
	v, screen, _, _ := testViewer(t)
	v.seek(1000)
	v.draw()

	cx, cy := v.canvas.Cell(256, 192)
	r, _, _, _ := screen.GetContent(cx, cy)
	if r != '+' {
		t.Errorf("cursor cell holds %q", r)
	}

	v.seek(2900)
	v.draw()
	cx, cy = v.canvas.Cell(0, 0)
	if r, _, _, _ := screen.GetContent(cx, cy); r != 'O' {
		t.Errorf("pending circle cell holds %q", r)
	}

	v.seek(3200)
	v.draw()
	if r, _, _, _ := screen.GetContent(cx, cy); r != 'X' {
		t.Errorf("missed circle cell holds %q", r)
	}
	if r, _, _, _ := screen.GetContent(0, 1); r != '3' {
		t.Errorf("hud starts with %q", r)
	}
}

func TestCanvasFitsScreen(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	defer screen.Fini()
	screen.SetSize(80, 24)
	c := NewCanvas(screen)
	x0, y0 := c.Cell(0, 0)
	x1, y1 := c.Cell(dotosu.PlayfieldWidth, dotosu.PlayfieldHeight)
	if x0 < 1 || y0 <= hudRows || x1 >= 80 || y1 >= 24 {
		t.Errorf("playfield spans (%d,%d)-(%d,%d) on 80x24", x0, y0, x1, y1)
	}
}

func TestPreemptLimitsLookAhead(t *testing.T) {
	v, screen, _, _ := testViewer(t)
	cx, cy := v.canvas.Cell(0, 0)

	// Approach rate 0 shows objects 1800ms early.
	v.seek(1300)
	v.draw()
	if r, _, _, _ := screen.GetContent(cx, cy); r != 'O' {
		t.Errorf("circle 1700ms ahead not shown, cell holds %q", r)
	}

	v.sess.Preempt = 450
	v.draw()
	if r, _, _, _ := screen.GetContent(cx, cy); r == 'O' {
		t.Error("circle shown before its preempt")
	}
}
