// Package viewer plays a judged session back in the terminal.
package viewer

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/burkap/osu-replay-analyzer/dotosu"
	"github.com/burkap/osu-replay-analyzer/judge"
	"github.com/burkap/osu-replay-analyzer/session"
	"github.com/gdamore/tcell/v2"
)

const (
	trailLength = 10
	lookBehind  = 10000 // longest slider we bother finding
	linger      = 300   // ms an object stays after it ends
	seekStep    = 1000
)

// Speeds are the playback speeds bound to keys 1 to 5.
var Speeds = []float64{0.25, 0.5, 1, 2, 4}

// Audio is what the viewer needs from a music player. Times are replay
// milliseconds.
type Audio interface {
	SeekTo(ms int64) error
	SetPaused(paused bool)
	SetSpeed(speed float64)
}

type Viewer struct {
	screen tcell.Screen
	canvas *Canvas
	sess   *session.Session
	pb     *judge.Playback
	clock  *PlayClock
	audio  Audio
	log    *log.Logger
}

// New prepares a viewer on an initialised screen. audio and logger may be
// nil.
func New(screen tcell.Screen, sess *session.Session, clock *PlayClock, audio Audio, logger *log.Logger) *Viewer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	v := &Viewer{
		screen: screen,
		canvas: NewCanvas(screen),
		sess:   sess,
		pb:     sess.Playback,
		clock:  clock,
		audio:  audio,
		log:    logger,
	}
	v.pb.SeekTo(clock.Time())
	return v
}

// Run drives playback until the user quits or ctx ends.
func (v *Viewer) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	if v.audio != nil {
		v.audio.SetSpeed(v.clock.Speed())
		v.audio.SetPaused(v.clock.Paused())
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	v.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !v.handleKey(ev) {
					return nil
				}
			case *tcell.EventResize:
				v.canvas.Resize()
				v.screen.Sync()
			}
		case <-timer.C:
			v.advance()
		}
		v.draw()
		v.schedule(timer)
	}
}

// schedule arms timer for the next sample, or stops it while paused or at
// the end.
func (v *Viewer) schedule(timer *time.Timer) {
	next, ok := v.pb.Next()
	if !ok || v.clock.Paused() {
		timer.Stop()
		return
	}
	timer.Reset(Pace(next.Time, v.clock.Time(), v.clock.Speed()))
}

// advance moves the playback up to the clock, pausing at the end.
func (v *Viewer) advance() {
	now := v.clock.Time()
	for {
		next, ok := v.pb.Next()
		if !ok || next.Time > now {
			break
		}
		v.pb.StepForward()
	}
	if v.pb.AtEnd() {
		v.setPaused(true)
	}
}

func (v *Viewer) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyLeft:
		v.step(-1)
	case tcell.KeyRight:
		v.step(1)
	case tcell.KeyHome:
		v.seek(-1 << 62)
	case tcell.KeyEnd:
		v.seek(1 << 62)
	case tcell.KeyRune:
		switch r := ev.Rune(); {
		case r == 'q':
			return false
		case r == ' ':
			v.setPaused(!v.clock.Paused())
		case r == '[':
			v.seek(v.pb.Time() - seekStep)
		case r == ']':
			v.seek(v.pb.Time() + seekStep)
		case r >= '1' && int(r-'1') < len(Speeds):
			v.setSpeed(Speeds[r-'1'])
		}
	}
	return true
}

func (v *Viewer) setPaused(paused bool) {
	if !paused {
		v.clock.Jump(v.pb.Time())
	}
	v.clock.SetPaused(paused)
	if v.audio != nil {
		if !paused {
			v.seekAudio()
		}
		v.audio.SetPaused(paused)
	}
}

func (v *Viewer) setSpeed(speed float64) {
	v.clock.SetSpeed(speed)
	if v.audio != nil {
		v.audio.SetSpeed(speed)
	}
}

// step moves one sample and pauses.
func (v *Viewer) step(dir int) {
	v.setPaused(true)
	if dir < 0 {
		v.pb.StepBack()
	} else {
		v.pb.StepForward()
	}
	v.clock.Jump(v.pb.Time())
}

func (v *Viewer) seek(t int64) {
	v.pb.SeekTo(t)
	v.clock.Jump(v.pb.Time())
	v.seekAudio()
}

func (v *Viewer) seekAudio() {
	if v.audio == nil {
		return
	}
	if err := v.audio.SeekTo(v.pb.Time()); err != nil {
		v.log.Printf("audio seek: %v", err)
	}
}

func (v *Viewer) draw() {
	v.screen.Clear()
	v.scene().Draw(v.canvas)
	v.screen.Show()
}

// scene collects what is visible at the current sample.
func (v *Viewer) scene() *Scene {
	t := v.pb.Time()
	objects := v.sess.Chart.Objects
	s := &Scene{}

	lo, hi := v.pb.Window(t-lookBehind, t+int64(v.sess.Preempt))
	// Later objects first so earlier ones end up on top.
	for i := hi - 1; i >= lo; i-- {
		o := objects[i]
		end := int64(o.Time + o.HoldDuration)
		if t > end+linger {
			continue
		}
		head := Circle{X: o.X, Y: o.Y}
		if v.pb.Judged(i) {
			rec, _ := v.pb.RecordFor(i)
			head.Judged, head.Tier = true, rec.Tier
		}
		if o.Kind != dotosu.KindSlider {
			s.Add(head)
			continue
		}
		sl := Slider{Head: head, Path: v.sess.Paths[i]}
		if sl.Path != nil && t >= int64(o.Time) && t <= end {
			ball := sl.Path.PositionAtTime(float64(t-int64(o.Time)), o.Slides)
			sl.Ball = &ball
		}
		s.Add(sl)
	}

	cur, _ := v.pb.Current()
	s.Add(Cursor{Trail: v.pb.Trail(trailLength), Pressed: v.pb.Pressed()})
	s.Add(HUD{
		Player:  v.sess.Replay.PlayerName,
		Mods:    judge.Mods(v.sess.Replay.Mods),
		Time:    t,
		Speed:   v.clock.Speed(),
		Paused:  v.clock.Paused(),
		Counts:  v.pb.Counts(),
		Buttons: cur.Buttons,
	})
	return s
}
