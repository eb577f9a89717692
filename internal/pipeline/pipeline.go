// Package pipeline assembles C1-C9 into one running unit and owns their
// ordered startup/shutdown. Grounded on lkumar3-iitr-Sensor-Logger's
// cmd/main.go pipeline-assembly block (sensors -> fusion -> recording,
// goto-shutdown draining), generalized to this pipeline's
// capture -> detect -> gate -> package / record stages.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"vision-pipeline/internal/actuator"
	"vision-pipeline/internal/bus"
	"vision-pipeline/internal/camerafsm"
	"vision-pipeline/internal/capture"
	"vision-pipeline/internal/detect"
	"vision-pipeline/internal/framesrc"
	"vision-pipeline/internal/gate"
	"vision-pipeline/internal/metrics"
	"vision-pipeline/internal/model"
	"vision-pipeline/internal/obslog"
	"vision-pipeline/internal/packaging"
	"vision-pipeline/internal/recorder"
	"vision-pipeline/internal/report"
	"vision-pipeline/internal/settings"
)

// Options bundles the dependencies the coordinator does not construct
// itself: the frame source, the actuators, and the settings surface.
type Options struct {
	Source    framesrc.Source
	Actuators []actuator.Actuator
	Settings  *settings.Core
	Metrics   *metrics.Registry
	ReportDir string
}

// Pipeline owns every C1-C9 component and coordinates their lifecycle.
type Pipeline struct {
	opts Options

	fsm     *camerafsm.Machine
	bus     *bus.Bus
	capture *capture.Worker
	engine  *detect.Engine
	gate    *gate.Counter
	pkg     *packaging.Controller
	rec     *recorder.Recorder
	rpt     *report.Writer

	runStart time.Time
}

// New assembles a pipeline from opts. The returned Pipeline is not yet
// running; call Run to start it.
func New(opts Options) *Pipeline {
	b := bus.New(opts.Settings.StorageSnapshot().RecorderQueueLen)
	engine := detect.NewEngine()
	gateCounter := gate.New(engine.Reset)
	pkgCtrl := packaging.New(opts.Actuators...)

	return &Pipeline{
		opts:   opts,
		fsm:    camerafsm.New(),
		bus:    b,
		engine: engine,
		gate:   gateCounter,
		pkg:    pkgCtrl,
		rec:    recorder.New(opts.Settings.StorageSnapshot()),
		rpt:    report.New(opts.ReportDir),
	}
}

// Run drives the full camera lifecycle and the detection/gate/packaging
// loop until ctx is cancelled or a fatal error occurs. It returns the
// first fatal error encountered by any stage.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.fsm.Transition(model.Connecting); err != nil {
		return err
	}

	camCfg := p.opts.Settings.CameraSnapshot()
	if err := p.opts.Source.Open(); err != nil {
		p.fsm.MustTransition(model.Error)
		return fmt.Errorf("pipeline: open source: %w", err)
	}
	if err := p.opts.Source.Configure(camCfg); err != nil {
		p.fsm.MustTransition(model.Error)
		return fmt.Errorf("pipeline: configure source: %w", err)
	}
	if err := p.fsm.Transition(model.Connected); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if err := p.fsm.Transition(model.StartingGrab); err != nil {
		return err
	}

	fatalCh := make(chan error, 1)
	p.capture = capture.New(p.opts.Source, p.bus, p.readTimeout(camCfg), func(err error) {
		select {
		case fatalCh <- err:
		default:
		}
	})
	p.capture.Start()
	if err := p.fsm.Transition(model.Grabbing); err != nil {
		return err
	}
	p.runStart = time.Now()

	perf := p.opts.Settings.PerformanceSnapshot()
	probe := newProbeMat(camCfg)
	if err := p.rec.Start(p.bus, probe, camCfg.TargetFPS); err != nil {
		obslog.L().Error("pipeline: recorder failed to start: %v", err)
	}
	probe.Close()

	p.pkg.Start(p.opts.Settings.PackagingSnapshot())

	g.Go(func() error {
		return p.detectionLoop(gctx, perf, camCfg.Height)
	})

	g.Go(func() error {
		select {
		case err := <-fatalCh:
			p.fsm.MustTransition(model.Error)
			return err
		case <-gctx.Done():
			return nil
		}
	})

	err := g.Wait()

	p.shutdown()
	return err
}

func (p *Pipeline) readTimeout(cfg settings.CameraConfig) time.Duration {
	if cfg.ReadTimeoutMs <= 0 {
		return 50 * time.Millisecond
	}
	return time.Duration(cfg.ReadTimeoutMs) * time.Millisecond
}

// detectionLoop pulls the latest frame from the bus, runs detection,
// steps the gate counter, and feeds count events to the packaging
// controller. It exits when ctx is cancelled.
func (p *Pipeline) detectionLoop(ctx context.Context, perf settings.PerformanceConfig, frameHeight int) error {
	var since <-chan struct{}
	done := ctx.Done()

	for {
		frame, newSince, ok := p.bus.NextDetectionFrame(since, done)
		since = newSince
		if !ok {
			select {
			case <-done:
				return nil
			default:
				continue
			}
		}

		detCfg := p.opts.Settings.DetectionSnapshot()
		objects, err := p.engine.Process(frame, detCfg, perf)
		frame.Close()
		if err != nil {
			obslog.L().Error("pipeline: detection error: %v", err)
			continue
		}

		roi := toROIGeometry(detCfg)
		gateCfg := p.opts.Settings.GateSnapshot()
		events := p.gate.Step(objects, gateCfg, roi, frameHeight)

		pkgCfg := p.opts.Settings.PackagingSnapshot()
		for _, ev := range events {
			if p.opts.Metrics != nil {
				p.opts.Metrics.GateCount.Inc()
			}
			state := p.pkg.OnCount(ev, pkgCfg)
			if state.Completed {
				p.onRunComplete(state, detCfg)
			}
		}

		select {
		case <-done:
			return nil
		default:
		}
	}
}

func (p *Pipeline) onRunComplete(state model.PackagingState, detCfg settings.DetectionConfig) {
	elapsed := time.Since(p.runStart).Seconds()
	row := report.Row{
		Timestamp:      time.Now(),
		PartType:       "default",
		Method:         "gate-crossing",
		Target:         state.TargetCount,
		Actual:         state.AccumulatedCount,
		ElapsedSeconds: elapsed,
		MinArea:        detCfg.MinArea,
		MaxArea:        detCfg.MaxArea,
		BGVarThreshold: detCfg.BGVarThreshold,
		CannyLow:       detCfg.CannyLowThreshold,
		CannyHigh:      detCfg.CannyHighThreshold,
	}
	if err := p.rpt.Append(row); err != nil {
		obslog.L().Error("pipeline: report append failed: %v", err)
	}
	p.pkg.Reset()
	p.gate.Reset()
}

func (p *Pipeline) shutdown() {
	p.fsm.MustTransition(model.StoppingGrab)
	if p.capture != nil {
		p.capture.RequestStop()
		<-p.capture.Done()
	}
	p.fsm.MustTransition(model.Connected)

	stats := p.rec.Stop()
	obslog.L().Info("pipeline: recorder stopped frames=%d dropped=%d codec=%s path=%s fps=%.2f",
		stats.FramesWritten, stats.FramesDropped, stats.Codec, stats.Path, stats.RealizedFPS)

	p.fsm.MustTransition(model.Disconnecting)
	if err := p.opts.Source.Close(); err != nil {
		obslog.L().Error("pipeline: source close error: %v", err)
	}
	p.fsm.MustTransition(model.Disconnected)

	p.pkg.Reset()
	p.engine.Close()
	p.bus.Close()
	if err := p.rpt.Close(); err != nil {
		obslog.L().Error("pipeline: report close error: %v", err)
	}
}

// State returns the current camera lifecycle state.
func (p *Pipeline) State() model.CameraState { return p.fsm.State() }
