package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lanternops/vsyncmirror/internal/logging"
	"github.com/lanternops/vsyncmirror/internal/mirror"
)

var log = logging.L("main")

var (
	flagSource         int
	flagTarget         int
	flagStretch        bool
	flagNoTonemap      bool
	flagSDRWhite       float64
	flagNoCursor       bool
	flagNoWaitable     bool
	flagNoSmartSelect  bool
	flagNoFrameDelay   bool
	flagFrameDelay     int
	flagDebug          bool
	flagList           bool
)

var rootCmd = &cobra.Command{
	Use:   "vsyncmirror",
	Short: "Mirror one display onto another with vsync-locked pacing and HDR tonemapping",
	Long: `vsyncmirror captures one attached display via desktop duplication and
presents it onto another, vsync-locked, with frame-identity pacing for
mismatched refresh rates and maxRGB Reinhard HDR->SDR tonemapping.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().IntVar(&flagSource, "source", 0, "source monitor index")
	rootCmd.Flags().IntVar(&flagTarget, "target", 1, "target monitor index")
	rootCmd.Flags().BoolVar(&flagStretch, "stretch", false, "disable aspect preservation")
	rootCmd.Flags().BoolVar(&flagNoTonemap, "no-tonemap", false, "skip HDR->SDR compression")
	rootCmd.Flags().Float64Var(&flagSDRWhite, "sdr-white", 240, "reference SDR white for HDR scaling (nits)")
	rootCmd.Flags().BoolVar(&flagNoCursor, "no-cursor", false, "suppress cursor overlay")
	rootCmd.Flags().BoolVar(&flagNoWaitable, "no-waitable", false, "disable latency-waitable present")
	rootCmd.Flags().BoolVar(&flagNoSmartSelect, "no-smart-select", false, "disable frame-identity gating")
	rootCmd.Flags().BoolVar(&flagNoFrameDelay, "no-frame-delay", false, "disable microsecond spin")
	rootCmd.Flags().IntVar(&flagFrameDelay, "frame-delay", 1000, "fixed spin interval (microseconds)")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "verbose diagnostic prints")
	rootCmd.Flags().BoolVar(&flagList, "list", false, "print monitor table and exit")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildConfiguration() mirror.Configuration {
	return mirror.Configuration{
		SourceIndex:     flagSource,
		TargetIndex:     flagTarget,
		PreserveAspect:  !flagStretch,
		TonemapEnabled:  !flagNoTonemap,
		SDRWhiteNits:    flagSDRWhite,
		ShowCursor:      !flagNoCursor,
		UseWaitable:     !flagNoWaitable,
		UseSmartSelect:  !flagNoSmartSelect,
		UseFrameDelay:   !flagNoFrameDelay,
		FrameDelayMicro: flagFrameDelay,
		Debug:           flagDebug,
	}
}

// run implements the exit-code and stdout contract: 0 on normal
// shutdown or --list, 1 on argument/initialization error.
func run() error {
	logging.Init(flagDebug, os.Stdout)
	log = logging.L("main")

	if flagList {
		return printMonitorTable()
	}

	cfg := buildConfiguration()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	monitors, err := mirror.ListMonitors()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.SourceIndex >= len(monitors) {
		fmt.Fprintf(os.Stderr, "invalid source monitor index %d (%d monitors attached)\n", cfg.SourceIndex, len(monitors))
		os.Exit(1)
	}
	if cfg.TargetIndex >= len(monitors) {
		fmt.Fprintf(os.Stderr, "invalid target monitor index %d (%d monitors attached)\n", cfg.TargetIndex, len(monitors))
		os.Exit(1)
	}

	source, target := monitors[cfg.SourceIndex], monitors[cfg.TargetIndex]
	printBanner(source, target, cfg)

	engine := mirror.NewEngine(cfg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutdown signal received")
		engine.Stop()
	}()

	if err := engine.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log.Info("shut down cleanly")
	return nil
}

func printMonitorTable() error {
	monitors, err := mirror.ListMonitors()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("%-5s %-24s %-12s %-14s %-8s %s\n", "Index", "Name", "Resolution", "Position", "Hz", "Primary")
	for _, m := range monitors {
		primary := ""
		if m.IsPrimary {
			primary = "yes"
		}
		fmt.Printf("%-5d %-24s %-12s %-14s %-8.2f %s\n",
			m.Index, m.Name, fmt.Sprintf("%dx%d", m.Width, m.Height),
			fmt.Sprintf("(%d,%d)", m.X, m.Y), m.RefreshHz, primary)
	}
	return nil
}

// printBanner implements stdout contract: startup banner
// with resolved geometry, refresh rates, processing and pacing switches,
// and target-frame-skip. It does not print the reported or actual capture
// pixel formats.
func printBanner(source, target mirror.MonitorInfo, cfg mirror.Configuration) {
	skip := mirror.ComputeTargetFrameSkip(source.RefreshHz, target.RefreshHz)
	fmt.Printf("vsyncmirror: source=%d (%dx%d@%.2fHz) -> target=%d (%dx%d@%.2fHz)\n",
		cfg.SourceIndex, source.Width, source.Height, source.RefreshHz,
		cfg.TargetIndex, target.Width, target.Height, target.RefreshHz)
	fmt.Printf("  aspect=%s tonemap=%s cursor=%s waitable=%s smart-select=%s frame-delay=%s(%dus) target-frame-skip=%d\n",
		onOff(cfg.PreserveAspect), onOff(cfg.TonemapEnabled), onOff(cfg.ShowCursor),
		onOff(cfg.UseWaitable), onOff(cfg.UseSmartSelect), onOff(cfg.UseFrameDelay), cfg.FrameDelayMicro, skip)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
