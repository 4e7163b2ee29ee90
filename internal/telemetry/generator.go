package telemetry

import (
	"math"
	"math/rand"
	"time"
)

// Channel step constants.
const (
	InitialBattery  = 85.0
	BatteryDrain    = 0.3
	BatteryFloor    = 15.0
	SignalMin       = 70.0
	SignalMax       = 100.0
	InitialAltitude = 120.0
	AltitudeStep    = 5.0
	AltitudeMin     = 50.0
	AltitudeMax     = 200.0
	NDVIBase        = 0.65
	NDVIAmplitude   = 0.15
	NDVIPeriodMs    = 10000.0
	NDVINoise       = 0.05
	HealthOffset    = 20.0
	CoordJitter     = 0.00025
	MissionStepMax  = 3.0
	AreaRate        = 1000.0
	FlightBarSpan   = 3600 // seconds shown as a full flight bar
)

// Generator produces the next value of each telemetry channel. It holds no
// channel state; callers pass the previous value where a channel walks.
type Generator struct {
	rand   *rand.Rand
	now    func() time.Time
	origin Position
}

// NewGenerator creates a generator around origin. A nil rng is seeded from
// the clock and a nil now falls back to time.Now.
func NewGenerator(origin Position, rng *rand.Rand, now func() time.Time) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{rand: rng, now: now, origin: origin}
}

// Origin returns the position coordinates jitter around.
func (g *Generator) Origin() Position { return g.origin }

// Initial returns the snapshot shown right after a connection completes.
func (g *Generator) Initial() Snapshot {
	return Snapshot{
		Signal:      SignalMax,
		Battery:     InitialBattery,
		Altitude:    InitialAltitude,
		Coordinates: g.origin,
	}
}

// Battery drains one step, never below the floor.
func (g *Generator) Battery(prev float64) float64 {
	if prev <= 0 {
		prev = InitialBattery
	}
	return math.Max(BatteryFloor, math.Min(100, prev-BatteryDrain))
}

// Signal draws a fresh signal strength.
func (g *Generator) Signal() float64 {
	return SignalMin + g.rand.Float64()*(SignalMax-SignalMin)
}

// Altitude walks at most AltitudeStep metres from prev.
func (g *Generator) Altitude(prev float64) float64 {
	if prev <= 0 {
		prev = InitialAltitude
	}
	next := prev + (g.rand.Float64()-0.5)*2*AltitudeStep
	return clamp(next, AltitudeMin, AltitudeMax)
}

// NDVI follows a slow sine over wall-clock milliseconds plus noise.
func (g *Generator) NDVI() float64 {
	ms := float64(g.now().UnixMilli())
	base := NDVIBase + math.Sin(ms/NDVIPeriodMs)*NDVIAmplitude
	return clamp(base+(g.rand.Float64()-0.5)*2*NDVINoise, 0, 1)
}

// Health derives a crop health percentage from an NDVI value.
func (g *Generator) Health(ndvi float64) float64 {
	h := ndvi*100 - HealthOffset + g.rand.Float64()*HealthOffset
	return clamp(math.Round(h), 0, 100)
}

// FlightTime advances the flight clock by one second.
func (g *Generator) FlightTime(prev FlightTime) FlightTime {
	return prev + 1
}

// AreaCovered grows with mission progress, capped at the field area.
func (g *Generator) AreaCovered(prev, progress, fieldArea float64) float64 {
	if progress <= 0 {
		return clamp(prev, 0, fieldArea)
	}
	return clamp(prev+progress/AreaRate, 0, fieldArea)
}

// Coordinates jitters around the origin.
func (g *Generator) Coordinates() Position {
	return Position{
		Lat: g.origin.Lat + (g.rand.Float64()-0.5)*2*CoordJitter,
		Lon: g.origin.Lon + (g.rand.Float64()-0.5)*2*CoordJitter,
	}
}

// MissionProgress advances progress by up to MissionStepMax percent.
func (g *Generator) MissionProgress(prev float64) float64 {
	return clamp(prev+g.rand.Float64()*MissionStepMax, 0, 100)
}

// FlightBar converts flight time into a percentage of one hour.
func FlightBar(f FlightTime) float64 {
	return clamp(float64(f)/FlightBarSpan*100, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
