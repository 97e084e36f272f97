// cmd/root.go
package cmd

import (
	"math/rand"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/faas-sim/sim"
	"github.com/inference-sim/faas-sim/sim/config"
	"github.com/inference-sim/faas-sim/sim/faas"
)

var (
	resourcesPath     string
	invokerPolicy     string
	simulationHorizon int64
	rate              float64
	logLevel          string
	seed              int64

	appCores           int64
	appMemory          int64
	deployTicks        int64
	concurrency        int64
	invocationDuration int64
)

var rootCmd = &cobra.Command{
	Use:   "faas-sim",
	Short: "Discrete-event simulator for serverless (FaaS) platforms",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a FaaS invoker simulation over a resource fleet",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		rf, err := config.LoadResources(resourcesPath)
		if err != nil {
			logrus.Fatalf("loading resources: %v", err)
		}
		if len(rf.Resources) == 0 {
			logrus.Fatal("resources file defines no hosts")
		}
		if !config.IsValidInvokerPolicy(invokerPolicy) {
			logrus.Fatalf("unknown invoker policy %q; valid options: %v", invokerPolicy, config.ValidInvokerPolicyNames())
		}

		logrus.Infof("Starting simulation with %d host(s), policy=%s, horizon=%d, rate=%.4f",
			len(rf.Resources), invokerPolicy, simulationHorizon, rate)

		kernel := sim.NewKernel()
		stats := faas.NewStats()

		app := &faas.Application{
			ID:                    1,
			Resources:             faas.Resources{Cores: appCores, MemoryBytes: appMemory},
			ContainerDeployTime:   deployTicks,
			ConcurrentInvocations: concurrency,
		}
		const funcID = 1

		hosts := make([]*faas.Host, 0, len(rf.Resources))
		for i, r := range rf.Resources {
			h := faas.NewHost(kernel, r.Name, int64(i+1), faas.Resources{Cores: int64(r.Cores), MemoryBytes: int64(r.Memory)}, invokerPolicy, stats)
			h.RegisterApplication(app)
			hosts = append(hosts, h)
		}

		d := newDriver(hosts, funcID, invocationDuration, rate, seed)
		d.ctx = kernel.RegisterHandler("driver", d)
		d.ctx.EmitSelf(arrivalTick{}, 0)
		for _, h := range hosts {
			d.ctx.Emit(faas.SimulationEndEvent{}, h.Name(), simulationHorizon)
		}

		kernel.Run(simulationHorizon)

		stats.Print()
		logrus.Info("Simulation complete.")
	},
}

// arrivalTick is the driver's own self-scheduled wakeup: on delivery it
// submits one invocation to the next host (round robin) and schedules the
// following tick.
type arrivalTick struct{}

// driver is a minimal sim.Handler that generates a Poisson arrival
// process against a fixed app/function and spreads invocations round
// robin across hosts.
type driver struct {
	ctx        *sim.Context
	hosts      []*faas.Host
	funcID     int64
	duration   int64
	rateMicros float64
	rng        *rand.Rand
	next       int
}

func newDriver(hosts []*faas.Host, funcID, duration int64, rate float64, seed int64) *driver {
	if rate < 1e-15 {
		rate = 1e-15
	}
	return &driver{
		hosts:      hosts,
		funcID:     funcID,
		duration:   duration,
		rateMicros: rate,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (d *driver) Handle(ctx *sim.Context, now int64, payload any) {
	if _, ok := payload.(arrivalTick); !ok {
		return
	}
	host := d.hosts[d.next%len(d.hosts)]
	d.next++
	host.Submit(1, d.funcID, d.duration, now)
	ctx.EmitSelf(arrivalTick{}, d.sampleIAT())
}

// sampleIAT draws an exponentially distributed inter-arrival time, always
// at least 1 tick.
func (d *driver) sampleIAT() int64 {
	iat := int64(d.rng.ExpFloat64() / d.rateMicros)
	if iat < 1 {
		return 1
	}
	return iat
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&resourcesPath, "resources", "resources.yaml", "Path to the resources.yaml host capacity file")
	runCmd.Flags().StringVar(&invokerPolicy, "policy", "FIFOInvoker", "Invoker admission policy (NaiveInvoker, FIFOInvoker)")
	runCmd.Flags().Int64Var(&simulationHorizon, "horizon", 100000, "Total simulation horizon in ticks")
	runCmd.Flags().Float64Var(&rate, "rate", 0.1, "Poisson arrival rate (requests per tick)")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "Random seed for the arrival process")

	runCmd.Flags().Int64Var(&appCores, "app-cores", 1, "Cores required per container of the demo application")
	runCmd.Flags().Int64Var(&appMemory, "app-memory", 256, "Memory bytes required per container of the demo application")
	runCmd.Flags().Int64Var(&deployTicks, "app-deploy-ticks", 50, "Ticks to deploy a cold container of the demo application")
	runCmd.Flags().Int64Var(&concurrency, "app-concurrency", 1, "Max concurrent invocations per container of the demo application")
	runCmd.Flags().Int64Var(&invocationDuration, "invocation-duration", 10, "Ticks an invocation runs once started")

	rootCmd.AddCommand(runCmd)
}
