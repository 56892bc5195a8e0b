// Command coilplan lays out decoupled coil arrays on a triangulated
// surface: load an STL substrate, optionally trim it, optimize the
// configured circles, and write the resulting layout as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/emwerks/coilplan"
	"github.com/emwerks/coilplan/coil"
	"github.com/emwerks/coilplan/diag"
	"github.com/emwerks/coilplan/geom"
	"github.com/emwerks/coilplan/optimize"
	"github.com/emwerks/coilplan/surface/stl"
	"github.com/go-gl/mathgl/mgl64"
)

type planeConfig struct {
	Normal mgl64.Vec3 `json:"normal"`
	Offset float64    `json:"offset"`
}

type circleConfig struct {
	Center           mgl64.Vec3 `json:"center"`
	Radius           float64    `json:"radius"`
	BreakCount       int        `json:"breakCount"`
	BreakAngleOffset float64    `json:"breakAngleOffset"`
	OnSymmetryPlane  bool       `json:"onSymmetryPlane"`
}

type config struct {
	Circles   []circleConfig `json:"circles"`
	CoilCount int            `json:"coilCount"`

	Method   string  `json:"method"`
	StepSize float64 `json:"stepSize"`

	WireRadius    float64 `json:"wireRadius"`
	Epsilon       float64 `json:"epsilon"`
	Clearance     float64 `json:"clearance"`
	CloseCutoff   float64 `json:"closeCutoff"`
	CenterFreedom float64 `json:"centerFreedom"`
	RadiusFreedom float64 `json:"radiusFreedom"`
	Iterations    int     `json:"iterations"`
	Workers       int     `json:"workers"`

	SymmetryPlane *planeConfig `json:"symmetryPlane"`
	TrimPlane     *planeConfig `json:"trimPlane"`
	FlattenCut    bool         `json:"flattenCut"`

	StaticLayout string `json:"staticLayout"`
}

func main() {
	meshPath := flag.String("mesh", "", "substrate surface (STL)")
	configPath := flag.String("config", "", "layout configuration (JSON)")
	outPath := flag.String("out", "layout.json", "output layout path")
	verbose := flag.Bool("v", false, "log per-iteration diagnostics")
	flag.Parse()

	if *meshPath == "" || *configPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*meshPath, *configPath, *outPath, *verbose); err != nil {
		log.Fatal(err)
	}
}

func run(meshPath, configPath, outPath string, verbose bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	surf, err := stl.Load(meshPath)
	if err != nil {
		return err
	}
	if cfg.TrimPlane != nil {
		plane := geom.NewPlane(cfg.TrimPlane.Normal, cfg.TrimPlane.Offset)
		trimmed, cut, err := surf.TrimByPlane(plane, cfg.FlattenCut)
		if err != nil {
			return err
		}
		log.Printf("trimmed surface: %d vertices (%d on cut)", len(trimmed.Vertices), len(cut))
		surf = trimmed
	}

	method, err := buildMethod(cfg)
	if err != nil {
		return err
	}

	sink := diag.NewSink()
	if verbose {
		sink.Subscribe(diag.ITERATION, func(e diag.Event) {
			ev := e.(diag.IterationEvent)
			log.Printf("iteration %d: objective=%.6g closePairs=%d", ev.Iteration, ev.Objective, ev.ClosePairs)
		})
		sink.Subscribe(diag.BOUNDARY_CONTACT, func(e diag.Event) {
			ev := e.(diag.BoundaryContactEvent)
			log.Printf("circle %d shifted off boundary (distance %.4g, clamped=%v)", ev.Circle, ev.Distance, ev.Clamped)
		})
		sink.Subscribe(diag.RADIUS_CLAMP, func(e diag.Event) {
			ev := e.(diag.RadiusClampEvent)
			log.Printf("circle %d radius clamped %.4g -> %.4g", ev.Circle, ev.Requested, ev.Clamped)
		})
	}

	session := &coilplan.Session{
		Surf:          surf,
		Method:        method,
		Sink:          sink,
		Circles:       buildCircles(cfg),
		WireRadius:    cfg.WireRadius,
		Epsilon:       cfg.Epsilon,
		Clearance:     cfg.Clearance,
		CloseCutoff:   cfg.CloseCutoff,
		CenterFreedom: cfg.CenterFreedom,
		RadiusFreedom: cfg.RadiusFreedom,
		Iterations:    cfg.Iterations,
		Workers:       cfg.Workers,
	}
	if cfg.StaticLayout != "" {
		static, err := coilplan.LoadLayout(cfg.StaticLayout)
		if err != nil {
			return err
		}
		session.Static = static
	}

	layout, err := session.Run()
	if err != nil {
		return err
	}
	if err := coilplan.SaveLayout(outPath, layout); err != nil {
		return err
	}
	log.Printf("wrote %d coils to %s", len(layout.Coils), outPath)
	return nil
}

func loadConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.WireRadius <= 0 {
		return nil, fmt.Errorf("config: wireRadius must be positive")
	}
	if cfg.Iterations < 0 {
		return nil, fmt.Errorf("config: iterations must not be negative")
	}
	if len(cfg.Circles) == 0 && cfg.CoilCount == 0 {
		return nil, fmt.Errorf("config: need circles or coilCount")
	}
	for i, c := range cfg.Circles {
		if c.Radius <= 0 {
			return nil, fmt.Errorf("config: circle %d radius must be positive", i)
		}
	}
	return &cfg, nil
}

func buildMethod(cfg *config) (optimize.Method, error) {
	step := cfg.StepSize
	if step == 0 {
		step = 0.1
	}
	switch cfg.Method {
	case "adam", "":
		m := optimize.NewAdam(step)
		if cfg.SymmetryPlane != nil {
			plane := geom.NewPlane(cfg.SymmetryPlane.Normal, cfg.SymmetryPlane.Offset)
			m.SymmetryPlane = &plane
		}
		return m, nil
	case "gradient":
		return optimize.NewGradient(step), nil
	case "alternating":
		return optimize.NewAlternating(step), nil
	case "kmeans":
		if cfg.CoilCount < 1 {
			return nil, fmt.Errorf("config: kmeans needs coilCount")
		}
		return optimize.NewKMeans(cfg.CoilCount, step), nil
	default:
		return nil, fmt.Errorf("config: unknown method %q", cfg.Method)
	}
}

func buildCircles(cfg *config) []coil.Circle {
	circles := make([]coil.Circle, len(cfg.Circles))
	for i, c := range cfg.Circles {
		circles[i] = coil.Circle{
			Center:           c.Center,
			Radius:           c.Radius,
			BreakCount:       c.BreakCount,
			BreakAngleOffset: c.BreakAngleOffset,
			OnSymmetryPlane:  c.OnSymmetryPlane,
		}
	}
	return circles
}
