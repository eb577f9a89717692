package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vision-pipeline/internal/actuator"
	"vision-pipeline/internal/framesrc"
	"vision-pipeline/internal/metrics"
	"vision-pipeline/internal/obslog"
	"vision-pipeline/internal/pipeline"
	"vision-pipeline/internal/settings"
)

func main() {
	settingsPath := flag.String("settings", "config/settings.yaml", "path to settings.yaml")
	logFile := flag.String("log", "", "optional log file path (stdout is always included)")
	replayPath := flag.String("replay", "", "play back a video file instead of opening a live camera")
	replayLoop := flag.Bool("replay-loop", false, "loop the replay file at end of stream")
	cameraIndex := flag.Int("camera-index", 0, "device index for the live camera source")
	metricsAddr := flag.String("metrics-addr", ":9108", "address to serve Prometheus metrics on (empty disables)")
	actuatorTransport := flag.String("actuator-transport", "simulated", "actuator transport: simulated|serial|gpio")
	serialPortA := flag.String("actuator-a-serial-port", "/dev/ttyUSB0", "serial port for actuator A")
	serialPortB := flag.String("actuator-b-serial-port", "/dev/ttyUSB1", "serial port for actuator B")
	gpioA := flag.String("actuator-a-gpio", "GPIO18", "PWM-capable GPIO pin name for actuator A")
	gpioB := flag.String("actuator-b-gpio", "GPIO19", "PWM-capable GPIO pin name for actuator B")
	flag.Parse()

	logger := obslog.Init(obslog.INFO, *logFile)
	defer logger.Close()

	obslog.L().Info("═══════════════════════════════════════════════════")
	obslog.L().Info("  vision-pipeline  ·  part counting + feeder control")
	obslog.L().Info("  GOMAXPROCS=%d  ·  PID=%d", runtime.GOMAXPROCS(0), os.Getpid())
	obslog.L().Info("═══════════════════════════════════════════════════")

	core, err := settings.Load(*settingsPath)
	if err != nil {
		obslog.L().Fatal("load settings: %v", err)
	}

	var src framesrc.Source
	if *replayPath != "" {
		src = framesrc.NewFileReplay(*replayPath, *replayLoop)
	} else {
		src = framesrc.NewLiveCamera(*cameraIndex)
	}

	actuators, err := buildActuators(*actuatorTransport, *serialPortA, *serialPortB, *gpioA, *gpioB)
	if err != nil {
		obslog.L().Fatal("build actuators: %v", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewRegistry(reg)
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				obslog.L().Error("metrics server: %v", err)
			}
		}()
		obslog.L().Info("metrics listening on %s/metrics", *metricsAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		obslog.L().Info("received signal: %v — shutting down…", sig)
		cancel()
	}()

	storage := core.StorageSnapshot()
	p := pipeline.New(pipeline.Options{
		Source:    src,
		Actuators: actuators,
		Settings:  core,
		Metrics:   m,
		ReportDir: storage.ReportDir,
	})

	obslog.L().Info("pipeline running — press Ctrl+C to stop")
	if err := p.Run(ctx); err != nil {
		obslog.L().Error("pipeline exited with error: %v", err)
		fmt.Fprintln(os.Stderr, "vision-pipeline: ", err)
		os.Exit(1)
	}

	obslog.L().Info("vision-pipeline finished cleanly")
}

func buildActuators(transport, serialA, serialB, gpioA, gpioB string) ([]actuator.Actuator, error) {
	switch transport {
	case "simulated":
		return []actuator.Actuator{
			actuator.NewSimulated("feeder-a"),
			actuator.NewSimulated("feeder-b"),
		}, nil
	case "serial":
		return []actuator.Actuator{
			actuator.NewSerial("feeder-a", serialA, 115200),
			actuator.NewSerial("feeder-b", serialB, 115200),
		}, nil
	case "gpio":
		return []actuator.Actuator{
			actuator.NewGPIO("feeder-a", gpioA, 200, ""),
			actuator.NewGPIO("feeder-b", gpioB, 200, ""),
		}, nil
	default:
		return nil, fmt.Errorf("unknown actuator transport %q", transport)
	}
}
