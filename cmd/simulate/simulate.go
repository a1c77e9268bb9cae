package simulate

import (
	"fmt"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/markusressel/thermal2go/internal/simulation"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/ui"
	"github.com/spf13/cobra"
)

var (
	cfg    = simulation.DefaultConfig()
	steps  int
	margin float64
)

var Command = &cobra.Command{
	Use:   "simulate",
	Short: "Run the control loop against a simulated heat source",
	Long: `Runs the control loop in simulated time against a single heat source
cooled by a single fan and plots the resulting temperature and duty.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if steps <= 0 {
			return fmt.Errorf("steps must be > 0")
		}

		sim, err := simulation.New(cfg, nil)
		if err != nil {
			return err
		}
		if err := sim.Control().SetMargin(thermal.Celsius(margin)); err != nil {
			return err
		}

		samples := sim.Run(steps)
		temperatures, duties := series(samples)

		ui.PrintSection("Temperature")
		ui.Println("%s", asciigraph.Plot(temperatures, asciigraph.Height(15), asciigraph.Width(100), asciigraph.Caption("°C / tick")))
		ui.PrintSection("Duty")
		ui.Println("%s", asciigraph.Plot(duties, asciigraph.Height(15), asciigraph.Width(100), asciigraph.Caption("PWM / tick")))

		last := samples[len(samples)-1]
		ui.Println("")
		ui.Info("After %s: %.1f°C at duty %d, state %s", last.Elapsed, last.Temperature, last.Duty, last.State)
		if sim.PoweredDown() {
			ui.Warning("The simulated system was powered down")
		}
		return nil
	},
}

func series(samples []simulation.Sample) (temperatures []float64, duties []float64) {
	for _, sample := range samples {
		temperatures = append(temperatures, float64(sample.Temperature))
		duties = append(duties, float64(sample.Duty))
	}
	return temperatures, duties
}

func init() {
	flags := Command.Flags()
	flags.IntVarP(&steps, "steps", "n", 600, "Number of control ticks to simulate")
	flags.DurationVarP(&cfg.Tick, "tick", "t", time.Second, "Simulated time between control ticks")
	flags.Float64Var(&margin, "margin", 0, "Target margin in °C below the target temperature")

	flags.Float64Var((*float64)(&cfg.Properties.TargetTemperature), "target", float64(cfg.Properties.TargetTemperature), "Target temperature in °C")
	flags.Float64Var((*float64)(&cfg.Properties.CriticalTemperature), "critical", float64(cfg.Properties.CriticalTemperature), "Critical temperature in °C")
	flags.Float64Var((*float64)(&cfg.Properties.PowerDownTemperature), "power-down", float64(cfg.Properties.PowerDownTemperature), "Power down temperature in °C")
	flags.Float64Var(&cfg.Properties.SlewRate, "slew", cfg.Properties.SlewRate, "Maximum rate of change in °C per second")

	flags.Float64VarP(&cfg.Pid.GainP, "gain-p", "p", cfg.Pid.GainP, "Proportional gain")
	flags.Float64VarP(&cfg.Pid.GainI, "gain-i", "i", cfg.Pid.GainI, "Integral gain")
	flags.Float64VarP(&cfg.Pid.GainD, "gain-d", "d", cfg.Pid.GainD, "Derivative gain")

	flags.Float64Var(&cfg.Plant.HeatRate, "heat", cfg.Plant.HeatRate, "Heat added in °C per second")
	flags.IntVar(&cfg.DropEvery, "drop-every", 0, "Make every n-th sensor read fail, 0 disables dropouts")
	flags.BoolVar(&cfg.BrokenFan, "broken-fan", false, "Make every pwm write fail")
}
