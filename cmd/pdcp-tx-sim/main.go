package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pdcp-tx/internal/alert"
	"pdcp-tx/internal/config"
	"pdcp-tx/internal/pcapsrc"
	"pdcp-tx/internal/pdcp"
	"pdcp-tx/internal/stats"
	"pdcp-tx/internal/telemetry"
	"pdcp-tx/internal/timers"
	"pdcp-tx/pkg/types"
)

var (
	version string = "1.0.0"
	cfgFile string
	dryRun  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "pdcp-tx-sim",
		Short:   "PDCP TX Simulator - replay SDUs from a pcap through one PDCP transmit entity",
		Long:    `Reads SDUs from a pcap file, drives a single PDCP TX entity with them in capture order, and writes the resulting protected PDUs to an output pcap.`,
		Version: version,
		RunE:    run,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "Configuration file path (default: config.yaml)")
	rootCmd.Flags().String("pcap-in", "", "Input PCAP file path")
	rootCmd.Flags().String("pcap-out", "", "Output PCAP file path")
	rootCmd.Flags().String("log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and validate only, do not transmit")

	v := viper.New()
	bindFlag(v, rootCmd, "pcap-in", "pcap.input_file")
	bindFlag(v, rootCmd, "pcap-out", "pcap.output_file")
	bindFlag(v, rootCmd, "log-level", "logging.level")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, flagName, configKey string) {
	_ = v.BindPFlag(configKey, cmd.Flags().Lookup(flagName))
}

func run(cmd *cobra.Command, args []string) error {
	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		log.Debug("no config file found, using defaults and CLI flags")
	}

	bindViperFlags(v, cmd)

	cfg, err := config.LoadWithViper(v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	setupLogging(cfg)

	fmt.Printf("PDCP TX Simulator v%s\n", version)
	fmt.Println("==============================")
	fmt.Print(cfg.Summary())
	fmt.Println()

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Pcap.InputFile == "" {
		return fmt.Errorf("pcap.input_file must be specified")
	}

	entityCfg, secCfg, err := cfg.ToEntityConfig()
	if err != nil {
		return fmt.Errorf("failed to derive entity config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("received shutdown signal")
		cancel()
	}()

	// work funnels every call into the entity through a single
	// goroutine, preserving the single-threaded cooperative contract
	// (no internal locking) the entity itself assumes: the pcap feed
	// loop and discard-timer callbacks both post closures here instead
	// of calling the entity directly.
	work := make(chan func(), 256)
	serialTimers := &serializingTimerService{real: timers.NewRealService(), work: work}

	statsCollector := stats.NewCollector()

	var sink *pcapsrc.Sink
	if cfg.Pcap.OutputFile != "" && !dryRun {
		sink, err = pcapsrc.NewSink(cfg.Pcap.OutputFile, cfg.Pcap.SourcePort)
		if err != nil {
			return fmt.Errorf("failed to open output pcap: %w", err)
		}
		defer sink.Close()
	}

	lowerDN := &pcapSinkNotifier{sink: sink, logger: log.WithField("component", "lower_dn")}

	// ent is wired into the txNextFn closure below before it is
	// assigned; the closure is only ever invoked from inside
	// ent.HandleSDU, by which point construction has completed.
	var ent *pdcp.Entity
	txNextFn := func() uint32 {
		if ent == nil {
			return 0
		}
		return ent.Metrics().TXNext
	}

	entityLabel := uuid.New().String()

	var upperCN pdcp.UpperControlNotifier = &logOnlyNotifier{logger: log.WithField("component", "upper_cn")}
	if cfg.Alert.Enabled {
		upperCN = alert.New(entityLabel, cfg.Alert.URL, time.Duration(cfg.Alert.TimeoutMs)*time.Millisecond, txNextFn, log.WithField("component", "alert"))
	}

	status := &nullStatusProvider{}

	ent, err = pdcp.New(entityCfg, secCfg, upperCN, lowerDN, status, serialTimers, log.StandardLogger(), 0)
	if err != nil {
		return fmt.Errorf("failed to construct PDCP TX entity: %w", err)
	}

	if cfg.Telemetry.Enabled {
		client := redis.NewClient(&redis.Options{Addr: cfg.Telemetry.Addr})
		defer client.Close()
		sinkTel := telemetry.NewRedisSink(client, statsCollector, cfg.Telemetry.Channel, time.Duration(cfg.Telemetry.IntervalSec)*time.Second, log.WithField("component", "telemetry"))
		sinkTel.Start(ctx)
		defer sinkTel.Wait()
	}

	reporter := stats.NewReporter(statsCollector, cfg.Telemetry.IntervalSec, "")

	source := pcapsrc.NewSource(cfg.Pcap.SourcePort, log.WithField("component", "pcap_source"))
	sdus, err := source.ReadSDUs(cfg.Pcap.InputFile)
	if err != nil {
		return fmt.Errorf("failed to read input pcap: %w", err)
	}
	if len(sdus) == 0 {
		return fmt.Errorf("no matching SDUs found in pcap file")
	}
	fmt.Printf("Found %d SDUs\n\n", len(sdus))

	if dryRun {
		fmt.Println("Dry-run mode: skipping transmission")
		return nil
	}

	// Drive the entity: the feeder goroutine only ever posts closures
	// to work, it never calls ent directly. The select loop below is
	// the single goroutine that actually invokes entity methods,
	// whether the call originates from the pcap feed or from a fired
	// discard timer.
	fed := make(chan struct{})
	go func() {
		defer close(fed)
		for _, sdu := range sdus {
			s := sdu
			select {
			case work <- func() { ent.HandleSDU(s) }:
			case <-ctx.Done():
				return
			}
		}
	}()

feedLoop:
	for {
		select {
		case fn := <-work:
			fn()
			statsCollector.Record(ent.ID().String(), ent.Metrics())
		case <-fed:
			break feedLoop
		case <-ctx.Done():
			statsCollector.Finish()
			reporter.PrintFinalReport()
			return nil
		}
	}

	drainPending(work, ent, statsCollector, 50*time.Millisecond)
	statsCollector.Finish()
	reporter.PrintFinalReport()
	return nil
}

// drainPending gives any discard timers armed for the last few SDUs
// a chance to enqueue their callback before the process exits.
func drainPending(work chan func(), ent *pdcp.Entity, collector *stats.Collector, wait time.Duration) {
	timeout := time.After(wait)
	for {
		select {
		case fn := <-work:
			fn()
			collector.Record(ent.ID().String(), ent.Metrics())
		case <-timeout:
			return
		}
	}
}

// serializingTimerService wraps timers.RealService so that a fired
// callback is posted to the owning goroutine's work queue instead of
// running on the Go runtime's own timer goroutine, preserving the
// entity's no-internal-locking, single-threaded contract.
type serializingTimerService struct {
	real timers.Service
	work chan func()
}

func (s *serializingTimerService) Start(d time.Duration, cb timers.Callback) timers.Timer {
	return s.real.Start(d, func() {
		s.work <- cb
	})
}

// pcapSinkNotifier is the default LowerDataNotifier: it writes every
// protected PDU to the capture sink, if configured, and logs discards.
type pcapSinkNotifier struct {
	sink   *pcapsrc.Sink
	logger *log.Entry
}

func (n *pcapSinkNotifier) OnNewPDU(pdu types.TXPDU) {
	if n.sink == nil {
		return
	}
	if err := n.sink.WritePDU(pdu); err != nil {
		n.logger.WithError(err).Warn("failed to write PDU to capture sink")
	}
}

func (n *pcapSinkNotifier) OnDiscardPDU(count uint32) {
	n.logger.WithField("count", count).Info("PDU discarded")
}

// logOnlyNotifier is the default UpperControlNotifier when no alert
// webhook is configured.
type logOnlyNotifier struct {
	logger *log.Entry
}

func (n *logOnlyNotifier) OnProtocolFailure() {
	n.logger.Error("protocol failure: maximum COUNT reached")
}

func (n *logOnlyNotifier) OnMaxCountReached() {
	n.logger.Warn("approaching maximum COUNT")
}

// nullStatusProvider satisfies pdcp.StatusProvider for runs that
// never call SendStatusReport/DataRecovery (most pcap replay runs
// have no RLC AM peer to report to).
type nullStatusProvider struct{}

func (nullStatusProvider) CompileStatusReport() ([]byte, error) {
	return nil, fmt.Errorf("status report compilation is not wired for this run")
}

func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.WithError(err).Warn("failed to open log file, using console only")
		} else {
			log.SetOutput(f)
		}
	}
}

func bindViperFlags(v *viper.Viper, cmd *cobra.Command) {
	if cmd.Flags().Changed("pcap-in") {
		val, _ := cmd.Flags().GetString("pcap-in")
		v.Set("pcap.input_file", val)
	}
	if cmd.Flags().Changed("pcap-out") {
		val, _ := cmd.Flags().GetString("pcap-out")
		v.Set("pcap.output_file", val)
	}
	if cmd.Flags().Changed("log-level") {
		val, _ := cmd.Flags().GetString("log-level")
		v.Set("logging.level", val)
	}
}
