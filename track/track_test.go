package track

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/soniakeys/meeus/v3/globe"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/echoflaresat/eclipse/almanac"
	"github.com/echoflaresat/eclipse/earth"
	"github.com/echoflaresat/eclipse/eclipse"
	"github.com/echoflaresat/eclipse/ephemeris"
)

const (
	minute = 60 * 1000.0
	hour   = 60 * minute
)

func loadFixture(t *testing.T) ephemeris.Table {
	t.Helper()
	a, err := almanac.Load("../almanac/testdata/2024-04-08.yaml")
	if err != nil {
		t.Fatal(err)
	}
	return a.Table
}

func TestTraceFixture(t *testing.T) {
	table := loadFixture(t)
	points, err := Trace(context.Background(), eclipse.New(nil), table, Options{
		Step:    10 * minute,
		Workers: 4,
		Logger:  zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 37 {
		t.Fatalf("got %d points, want 37", len(points))
	}
	for i, p := range points {
		if want := 15*hour + float64(i)*10*minute; p.Time != want {
			t.Errorf("point %d at %v, want %v", i, p.Time, want)
		}
	}

	byLabel := make(map[string]Point)
	for _, p := range points {
		byLabel[Label(p.Time)] = p
	}
	for _, l := range []string{"15:00", "16:00", "21:00"} {
		if byLabel[l].Visible {
			t.Errorf("%s: shadow should miss the Earth, got %v", l, byLabel[l].Shadow.Location)
		}
	}
	for _, l := range []string{"17:00", "18:00", "19:00"} {
		p := byLabel[l]
		if !p.Visible {
			t.Errorf("%s: shadow should be on the Earth", l)
			continue
		}
		if p.Shadow.Type != eclipse.Total {
			t.Errorf("%s: type %v, want TOTAL", l, p.Shadow.Type)
		}
	}

	noon := byLabel["18:00"]
	lat, lon := noon.Shadow.Location.Degrees()
	if lat < 15 || lat > 30 || lon < -115 || lon > -100 {
		t.Errorf("18:00 shadow at (%.2f, %.2f), want off western Mexico", lat, lon)
	}
}

func TestTraceMatchesSequential(t *testing.T) {
	table := loadFixture(t)
	e := eclipse.New(earth.DefaultSphere)
	opt := Options{Start: 16 * hour, End: 20 * hour, Step: 7 * minute}

	opt.Workers = 1
	serial, err := Trace(context.Background(), e, table, opt)
	if err != nil {
		t.Fatal(err)
	}
	opt.Workers = 8
	parallel, err := Trace(context.Background(), e, table, opt)
	if err != nil {
		t.Fatal(err)
	}
	if len(serial) != len(parallel) {
		t.Fatalf("%d vs %d points", len(serial), len(parallel))
	}
	for i := range serial {
		if serial[i] != parallel[i] {
			t.Errorf("point %d differs: %+v vs %+v", i, serial[i], parallel[i])
		}
	}
	if last := serial[len(serial)-1].Time; last > 20*hour {
		t.Errorf("last point %v past end", last)
	}
}

func TestTraceOneBound(t *testing.T) {
	table := loadFixture(t)
	e := eclipse.New(nil)

	points, err := Trace(context.Background(), e, table, Options{Start: 20 * hour, Step: 30 * minute})
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 3 || points[0].Time != 20*hour || points[2].Time != 21*hour {
		t.Errorf("start only: %d points from %s", len(points), Label(points[0].Time))
	}

	points, err = Trace(context.Background(), e, table, Options{End: 16 * hour, Step: 30 * minute})
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 3 || points[0].Time != 15*hour || points[2].Time != 16*hour {
		t.Errorf("end only: %d points to %s", len(points), Label(points[len(points)-1].Time))
	}
}

func TestTraceErrors(t *testing.T) {
	table := loadFixture(t)
	e := eclipse.New(nil)
	ctx := context.Background()

	_, err := Trace(ctx, e, table, Options{Start: 14 * hour, End: 16 * hour, Step: minute})
	if !errors.Is(err, ephemeris.ErrOutOfRange) {
		t.Errorf("early start error = %v", err)
	}
	_, err = Trace(ctx, e, table, Options{Start: 20 * hour, End: 22 * hour, Step: minute})
	if !errors.Is(err, ephemeris.ErrOutOfRange) {
		t.Errorf("late end error = %v", err)
	}
	if _, err := Trace(ctx, e, table, Options{Step: 0}); !errors.Is(err, ErrStep) {
		t.Errorf("zero step error = %v", err)
	}
	if _, err := Trace(ctx, e, table, Options{Step: math.NaN()}); !errors.Is(err, ErrStep) {
		t.Errorf("NaN step error = %v", err)
	}
	if _, err := Trace(ctx, e, table, Options{Start: 18 * hour, End: 17 * hour, Step: minute}); err == nil {
		t.Error("reversed span accepted")
	}
	if _, err := Trace(ctx, e, nil, Options{Step: minute}); !errors.Is(err, ephemeris.ErrEmptyTable) {
		t.Errorf("empty table error = %v", err)
	}
}

func TestTraceCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Trace(ctx, eclipse.New(nil), loadFixture(t), Options{Step: minute})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestTraceLogs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	_, err := Trace(context.Background(), eclipse.New(nil), loadFixture(t), Options{
		Step:   30 * minute,
		Logger: zap.New(core),
	})
	if err != nil {
		t.Fatal(err)
	}
	if n := logs.FilterMessage("trace started").Len(); n != 1 {
		t.Errorf("got %d start entries", n)
	}
	done := logs.FilterMessage("trace finished").All()
	if len(done) != 1 {
		t.Fatalf("got %d finish entries", len(done))
	}
	fields := done[0].ContextMap()
	if fields["points"] != int64(13) {
		t.Errorf("points field = %v", fields["points"])
	}
	if v, ok := fields["visible"].(int64); !ok || v == 0 {
		t.Errorf("visible field = %v", fields["visible"])
	}
}

func TestSummarizeFixture(t *testing.T) {
	e := eclipse.New(nil)
	points, err := Trace(context.Background(), e, loadFixture(t), Options{Step: minute})
	if err != nil {
		t.Fatal(err)
	}
	s := Summarize(points, Geoid(e.EarthModel()))

	if s.Points != len(points) || s.Visible == 0 || s.Visible >= s.Points {
		t.Fatalf("visible %d of %d", s.Visible, s.Points)
	}
	if !(s.First > 16*hour && s.First < 18*hour) || !(s.Last > 18*hour && s.Last < 21*hour) {
		t.Errorf("visible from %s to %s", Label(s.First), Label(s.Last))
	}
	if s.PathLength < 3000 || s.PathLength > 25000 {
		t.Errorf("path length %.0f km", s.PathLength)
	}
	if s.MeanSpeed < 0.3 || s.MaxSpeed < s.MeanSpeed {
		t.Errorf("speeds mean %.3f max %.3f km/s", s.MeanSpeed, s.MaxSpeed)
	}
	if s.Types[eclipse.Total] == 0 || s.Types[eclipse.Total]+s.Types[eclipse.Annular] != s.Visible {
		t.Errorf("type counts %v for %d visible", s.Types, s.Visible)
	}
}

func TestSummarizeSynthetic(t *testing.T) {
	deg := math.Pi / 180
	at := func(ms, lonDeg float64) Point {
		return Point{
			Time:    ms,
			Visible: true,
			Shadow:  eclipse.Shadow{Location: earth.LatLon{Lon: lonDeg * deg}},
		}
	}
	g := Geoid(earth.DefaultEllipsoid)

	points := []Point{
		at(0, 0),
		at(100e3, 1),
		{Time: 200e3}, // shadow off the Earth
		at(300e3, 40),
		at(400e3, 42),
	}
	s := Summarize(points, g)
	if s.Visible != 4 || s.First != 0 || s.Last != 400e3 {
		t.Errorf("summary %+v", s)
	}
	// one degree and two degrees of equator, the gap is not counted
	if want := 3 * 111.319; !scalar.EqualWithinAbs(s.PathLength, want, 0.5) {
		t.Errorf("path length %.3f km, want %.3f", s.PathLength, want)
	}
	if !scalar.EqualWithinAbs(s.MaxSpeed, 2*1.11319, 0.01) || !scalar.EqualWithinAbs(s.MeanSpeed, 1.5*1.11319, 0.01) {
		t.Errorf("speeds mean %.4f max %.4f", s.MeanSpeed, s.MaxSpeed)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize([]Point{{Time: 1}, {Time: 2}}, globe.Ellipsoid{Er: earth.MeanRadius})
	if !math.IsNaN(s.First) || !math.IsNaN(s.Last) || s.PathLength != 0 || s.MeanSpeed != 0 || s.MaxSpeed != 0 {
		t.Errorf("summary %+v", s)
	}
	if s.Points != 2 || s.Visible != 0 {
		t.Errorf("counts %d/%d", s.Visible, s.Points)
	}
}

func TestSurfaceDistance(t *testing.T) {
	g := Geoid(earth.DefaultSphere)
	p := earth.LatLon{Lat: 0.3, Lon: -1.2}
	if d := SurfaceDistance(g, p, p); d != 0 {
		t.Errorf("same point distance %v", d)
	}
	q := earth.LatLon{Lat: 0.3 + math.Pi/180, Lon: -1.2}
	// sphere: one degree of meridian
	if d, want := SurfaceDistance(g, p, q), earth.MeanRadius*math.Pi/180; !scalar.EqualWithinAbs(d, want, 1e-6) {
		t.Errorf("distance %v, want %v", d, want)
	}
}

func TestLabel(t *testing.T) {
	cases := []struct {
		ms   float64
		want string
	}{
		{0, "00:00"},
		{59.6 * 1000, "00:01"},
		{18*hour + 30*minute, "18:30"},
		{9*hour + 5*minute + 29*1000, "09:05"},
		{25 * hour, "25:00"},
	}
	for _, c := range cases {
		if got := Label(c.ms); got != c.want {
			t.Errorf("Label(%v) = %q, want %q", c.ms, got, c.want)
		}
	}
}
