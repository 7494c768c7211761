// Package track follows the shadow center across a span of an ephemeris
// table and summarizes the resulting path.
package track

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/echoflaresat/eclipse/eclipse"
	"github.com/echoflaresat/eclipse/ephemeris"
	"github.com/echoflaresat/eclipse/vectors"
)

var ErrStep = errors.New("track: step must be positive")

// Options controls a trace. Times are table milliseconds. A zero Start
// means the first table row, a zero End the last.
type Options struct {
	Start, End float64
	Step       float64
	Workers    int // 0 = GOMAXPROCS
	Logger     *zap.Logger
}

// Point is the state at one traced instant. Shadow is only meaningful when
// Visible is set.
type Point struct {
	Time    float64
	Sun     vectors.Vec3
	Moon    vectors.Vec3
	Shadow  eclipse.Shadow
	Visible bool
}

// Trace evaluates the shadow center every Step from Start through End,
// inclusive. Instants are independent and computed on a bounded worker
// pool; the result is in time order. A span reaching outside the table
// fails before any instant is evaluated.
func Trace(ctx context.Context, e *eclipse.Engine, table ephemeris.Table, opt Options) ([]Point, error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if !(opt.Step > 0) {
		return nil, fmt.Errorf("%w: %v", ErrStep, opt.Step)
	}

	first, last := table.Span()
	start, end := opt.Start, opt.End
	if start == 0 {
		start = first
	}
	if end == 0 {
		end = last
	}
	if end < start {
		return nil, fmt.Errorf("track: end %v before start %v", end, start)
	}
	for _, t := range []float64{start, end} {
		if !table.Covers(t) {
			return nil, &ephemeris.OutOfRangeError{Time: t, First: first, Last: last}
		}
	}

	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	n := int(math.Floor((end-start)/opt.Step+1e-9)) + 1
	log.Debug("trace started",
		zap.Float64("start", start),
		zap.Float64("end", end),
		zap.Int("points", n),
		zap.Int("workers", workers),
	)
	began := time.Now()

	points := make([]Point, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t := math.Min(start+float64(i)*opt.Step, end)
			s, err := ephemeris.Interpolate(table, t)
			if err != nil {
				return err
			}
			sun, moon := eclipse.Positions(s)
			shadow, ok := e.ShadowCenter(sun, moon)
			points[i] = Point{Time: t, Sun: sun, Moon: moon, Shadow: shadow, Visible: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// the loop stops early on cancellation without any worker failing
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	visible := 0
	for _, p := range points {
		if p.Visible {
			visible++
		}
	}
	log.Info("trace finished",
		zap.Int("points", n),
		zap.Int("visible", visible),
		zap.Duration("elapsed", time.Since(began)),
	)
	return points, nil
}

// Label formats a table time as HH:MM, rounded to the minute. Hours keep
// counting past midnight.
func Label(ms float64) string {
	m := int64(math.Round(ms / 60000))
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
