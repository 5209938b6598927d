package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/streamidrouter/element"
	"github.com/xaionaro-go/streamidrouter/logger"
	"github.com/xaionaro-go/streamidrouter/metrics"
	"github.com/xaionaro-go/streamidrouter/router"
	"github.com/xaionaro-go/streamidrouter/scenario"
	"github.com/xaionaro-go/streamidrouter/types"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags] <scenario.yaml>\n", os.Args[0])
		pflag.PrintDefaults()
	}

	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	policyFlag := pflag.String("policy", "", "override the routing policy of the scenario: retain-all, single-active-slot")
	padPrefix := pflag.String("pad-prefix", "", "override the output pad name prefix of the scenario")
	metricsAddr := pflag.String("metrics-listen-addr", "", "an address to serve Prometheus metrics on; the process keeps running after the scenario if set")
	queueSize := pflag.Uint("queue-size", 1024, "how many diagnostic messages to keep")
	pflag.Parse()
	if len(pflag.Args()) != 1 {
		pflag.Usage()
		os.Exit(1)
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()
	logger.SetDefault(func() logger.Logger {
		return l
	})
	defer belt.Flush(ctx)

	s, err := scenario.LoadFile(pflag.Arg(0))
	if err != nil {
		l.Fatal(err)
	}
	opts := s.RouterOptions()
	if *policyFlag != "" {
		policy, err := router.ParsePolicy(*policyFlag)
		if err != nil {
			l.Fatal(err)
		}
		opts = append(opts, router.OptionPolicy(policy))
	}
	if *padPrefix != "" {
		opts = append(opts, router.OptionPadNamePrefix(*padPrefix))
	}

	bus := element.NewBus(*queueSize)
	rec := scenario.NewRecorder()
	defer rec.Release(ctx)
	opts = append(opts, router.OptionReporter(bus), router.OptionObserver(rec))
	r := router.New(ctx, opts...)
	defer func() {
		for _, c := range []types.Closer{r, bus} {
			if err := c.Close(ctx); err != nil {
				l.Errorf("unable to close %T: %v", c, err)
			}
		}
	}()

	if *metricsAddr != "" {
		registry := prometheus.NewRegistry()
		if _, err := metrics.Register(registry, r.Config.Name, r); err != nil {
			l.Fatal(err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		observability.Go(ctx, func(ctx context.Context) {
			l.Error(http.ListenAndServe(*metricsAddr, mux))
			cancelFn()
		})
	}

	l.Debugf("running scenario '%s' with %d steps", s.Name, len(s.Steps))
	if err := s.RunOn(ctx, r); err != nil {
		l.Fatal(err)
	}
	printReport(scenario.NewReport(ctx, s.Name, r, rec, bus))

	if *metricsAddr != "" {
		<-ctx.Done()
	}
}

func printReport(report *scenario.Report) {
	fmt.Printf("scenario: %s\n", report.Scenario)
	for _, msg := range report.Messages {
		fmt.Printf("  %s\n", msg)
	}
	for _, p := range report.Pads {
		state := "exposed"
		if p.Removed {
			state = "removed"
		}
		fmt.Printf("%s (stream '%s', %s):\n", p.Name, p.StreamID, state)
		if p.Caps.IsSet() {
			fmt.Printf("  caps: %s\n", p.Caps.Get())
		}
		var events []string
		for _, kind := range p.Events {
			events = append(events, kind.String())
		}
		fmt.Printf("  events: %s\n", strings.Join(events, ", "))
		fmt.Printf("  buffers: %s\n", strings.Join(p.Buffers, ", "))
		fmt.Printf("  sent: %s\n", formatItem(p.Stats.Buffers.Sent))
	}
	fmt.Printf("input: received %s, dropped %s\n",
		formatItem(report.Stats.Buffers.Received),
		formatItem(report.Stats.Buffers.Dropped),
	)
}

func formatItem(item types.StatisticsItem) string {
	return fmt.Sprintf("%d buffers (%s)", item.Count, humanize.Bytes(item.Bytes))
}
