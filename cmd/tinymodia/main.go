// Command tinymodia simulates equation-based physical models from the
// built-in library: assemble a scenario from presets, config files and
// flags, run it over the chosen scalar representation, then inspect,
// plot, replay, linearize or export the stored results.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/modiasim/tinymodia/internal/config"
	"github.com/modiasim/tinymodia/internal/integrators"
	"github.com/modiasim/tinymodia/internal/linearize"
	"github.com/modiasim/tinymodia/internal/model"
	"github.com/modiasim/tinymodia/internal/models"
	"github.com/modiasim/tinymodia/internal/num"
	"github.com/modiasim/tinymodia/internal/sim"
	"github.com/modiasim/tinymodia/internal/storage"
	"github.com/modiasim/tinymodia/internal/tui"
)

var (
	dataDir string

	configFile   string
	presetName   string
	reprFlag     string
	integFlag    string
	startFlag    float64
	durFlag      float64
	intervalFlag float64
	tolFlag      float64
	minStepFlag  float64
	maxStepFlag  float64
	stateFlag    string
	paramFlags   []string

	noSaveFlag  bool
	numericFlag bool
	atFlag      float64
	outFlag     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tinymodia",
		Short: "Equation-based physical system simulator",
		Long: `tinymodia compiles acausal equation models into simulation plans and
integrates them over exchangeable scalar representations: plain floats,
unit-checked quantities, dual numbers for exact Jacobians, or values
with propagated uncertainty.`,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".tinymodia", "directory for stored runs")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "Run a simulation and store the trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&noSaveFlag, "no-save", false, "print the summary without storing the run")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List the model library",
		RunE:  listModels,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "List named scenario presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listModelPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "Plot a stored run as ASCII charts",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	linearizeCmd := &cobra.Command{
		Use:   "linearize [model]",
		Short: "Linearize a model and report its eigenvalues",
		Args:  cobra.MaximumNArgs(1),
		RunE:  linearizeModel,
	}
	addScenarioFlags(linearizeCmd)
	linearizeCmd.Flags().BoolVar(&numericFlag, "numeric", false, "use central differences instead of dual-number derivatives")
	linearizeCmd.Flags().Float64Var(&atFlag, "at", 0, "linearization time; past the start time the model is integrated there first")

	compareCmd := &cobra.Command{
		Use:   "compare [model] [methods...]",
		Short: "Run one scenario under several integrators",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	addScenarioFlags(compareCmd)

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "Export a stored trajectory as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVar(&outFlag, "out", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "Export a stored run with metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVar(&outFlag, "out", "", "output file (default stdout)")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "Run a simulation and replay it in the terminal player",
		Args:  cobra.MaximumNArgs(1),
		RunE:  liveReplay,
	}
	addScenarioFlags(liveCmd)

	replayCmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "Replay a stored run in the terminal player",
		Args:  cobra.ExactArgs(1),
		RunE:  replayRun,
	}

	saveScenarioCmd := &cobra.Command{
		Use:   "save-scenario [model] [path]",
		Short: "Write the assembled scenario to a YAML file",
		Args:  cobra.ExactArgs(2),
		RunE:  saveScenario,
	}
	addScenarioFlags(saveScenarioCmd)

	rootCmd.AddCommand(runCmd, modelsCmd, presetsCmd, listCmd, plotCmd,
		linearizeCmd, compareCmd, exportCSVCmd, exportJSONCmd,
		liveCmd, replayCmd, saveScenarioCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "scenario YAML file")
	f.StringVar(&presetName, "preset", "", "named preset for the model")
	f.StringVar(&reprFlag, "repr", "real", "scalar representation: "+strings.Join(config.Representations(), ", "))
	f.StringVar(&integFlag, "integrator", "rk45", "integration method: "+strings.Join(integrators.Names(), ", "))
	f.Float64Var(&startFlag, "start", 0, "start time [s]")
	f.Float64Var(&durFlag, "duration", config.DefaultDuration, "simulated duration [s]")
	f.Float64Var(&intervalFlag, "interval", config.DefaultInterval, "communication interval [s]")
	f.Float64Var(&tolFlag, "tolerance", config.DefaultTolerance, "adaptive error tolerance")
	f.Float64Var(&minStepFlag, "min-step", 0, "smallest adaptive step (0 picks the default)")
	f.Float64Var(&maxStepFlag, "max-step", 0, "largest adaptive step (0 picks the default)")
	f.StringVar(&stateFlag, "state", "", "initial state as comma-separated values")
	f.StringArrayVar(&paramFlags, "param", nil, "parameter override name=value (repeatable)")
}

// buildScenario assembles the run description in precedence order:
// defaults, then the model's preset, then the config file, then any
// flag the user actually set.
func buildScenario(cmd *cobra.Command, args []string) (*config.Scenario, error) {
	scn := config.DefaultScenario()
	if len(args) > 0 {
		scn.Model = args[0]
	}
	if presetName != "" {
		p := config.GetPreset(scn.Model, presetName)
		if p == nil {
			return nil, fmt.Errorf("no preset %q for model %q (have %s)",
				presetName, scn.Model, strings.Join(config.ListPresets(scn.Model), ", "))
		}
		scn = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		scn = loaded
	}
	if len(args) > 0 {
		scn.Model = args[0]
	}

	flags := cmd.Flags()
	if flags.Changed("repr") {
		scn.Representation = reprFlag
	}
	if flags.Changed("integrator") {
		scn.Integrator = integFlag
	}
	if flags.Changed("start") {
		scn.StartTime = startFlag
	}
	if flags.Changed("duration") {
		scn.Duration = durFlag
	}
	if flags.Changed("interval") {
		scn.Interval = intervalFlag
	}
	if flags.Changed("tolerance") {
		scn.Tolerance = tolFlag
	}
	if flags.Changed("min-step") {
		scn.MinStep = minStepFlag
	}
	if flags.Changed("max-step") {
		scn.MaxStep = maxStepFlag
	}
	if flags.Changed("state") {
		xs, err := parseFloats(stateFlag)
		if err != nil {
			return nil, err
		}
		scn.InitState = xs
	}
	for _, kv := range paramFlags {
		name, val, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("malformed --param %q, want name=value", kv)
		}
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed --param %q: %w", kv, err)
		}
		if scn.Parameters == nil {
			scn.Parameters = make(map[string]float64)
		}
		scn.Parameters[name] = v
	}

	if err := scn.Validate(); err != nil {
		return nil, err
	}
	return scn, nil
}

// runResult erases the scalar type of a finished run so the commands
// can print, store and replay trajectories uniformly.
type runResult struct {
	columns []string
	rows    [][]float64
	repr    string
	outcome *sim.Outcome
	evals   int
	states  []string
	final   []float64
}

func buildAndRun[T num.Scalar[T]](ctx context.Context, scn *config.Scenario) (*model.SimulationModel[T], *sim.Outcome, error) {
	def, x0, err := models.Build[T](scn.Model)
	if err != nil {
		return nil, nil, err
	}
	if len(scn.InitState) > 0 {
		x0 = scn.InitState
	}
	m, err := model.New(def, x0, scn.Parameters)
	if err != nil {
		return nil, nil, err
	}
	out, err := sim.Run(ctx, m, scn.Options())
	if err != nil {
		return nil, nil, err
	}
	return m, out, nil
}

func finish[T num.Scalar[T]](m *model.SimulationModel[T], out *sim.Outcome, err error) (*runResult, error) {
	if err != nil {
		return nil, err
	}
	columns, rows := m.Table()
	return &runResult{
		columns: columns,
		rows:    rows,
		repr:    m.Representation(),
		outcome: out,
		evals:   m.NGetDerivatives(),
		states:  m.StateNames(),
		final:   append([]float64(nil), m.State()...),
	}, nil
}

func runScenario(ctx context.Context, scn *config.Scenario) (*runResult, error) {
	switch scn.Representation {
	case "real":
		return finish(buildAndRun[num.Real](ctx, scn))
	case "units":
		return finish(buildAndRun[num.Quantity](ctx, scn))
	case "dual":
		return finish(buildAndRun[num.Dual](ctx, scn))
	case "uncertain":
		return finish(buildAndRun[num.Uncertain](ctx, scn))
	default:
		return nil, fmt.Errorf("unknown representation %q", scn.Representation)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	scn, err := buildScenario(cmd, args)
	if err != nil {
		return err
	}

	fmt.Printf("Running %s (%s, %s) over [%g, %g]\n",
		scn.Model, scn.Representation, scn.Integrator,
		scn.StartTime, scn.StartTime+scn.Duration)

	res, err := runScenario(cmd.Context(), scn)
	if err != nil {
		return err
	}

	st := res.outcome.Stats
	fmt.Printf("Finished in %v: %d steps (%d rejected), %d derivative evaluations\n",
		res.outcome.Elapsed.Round(time.Microsecond), st.Steps, st.Rejected, res.evals)
	for _, ev := range res.outcome.Events {
		fmt.Printf("  event %q at t = %.6g\n", ev.Label, ev.Time)
	}
	for i, name := range res.states {
		fmt.Printf("  %s(%g) = %.6g\n", name, res.outcome.FinalTime, res.final[i])
	}

	if noSaveFlag {
		return nil
	}
	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	id, err := store.Save(storage.RunMetadata{
		Model:          scn.Model,
		Representation: res.repr,
		Integrator:     scn.Integrator,
		StartTime:      scn.StartTime,
		StopTime:       scn.StartTime + scn.Duration,
		Interval:       scn.Interval,
		Tolerance:      scn.Tolerance,
		Steps:          st.Steps,
		Rejected:       st.Rejected,
		Evaluations:    res.evals,
		EventTimes:     eventTimes(res.outcome.Events),
	}, res.columns, res.rows)
	if err != nil {
		return err
	}
	fmt.Printf("Saved as %s\n", id)
	return nil
}

func listModels(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATES\tDESCRIPTION")
	for _, in := range models.List() {
		fmt.Fprintf(w, "%s\t%d\t%s\n", in.Name, in.States, in.Description)
	}
	return w.Flush()
}

func listModelPresets(cmd *cobra.Command, args []string) error {
	names := models.Names()
	if len(args) > 0 {
		names = args[:1]
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tPRESET\tREPR\tMETHOD\tDURATION\tINTERVAL")
	for _, name := range names {
		for _, p := range config.ListPresets(name) {
			s := config.GetPreset(name, p)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%g\n",
				name, p, s.Representation, s.Integrator, s.Duration, s.Interval)
		}
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No stored runs. Start one with: tinymodia run <model>")
		return nil
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tREPR\tMETHOD\tWINDOW\tSTEPS\tEVENTS\tWHEN")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t[%g, %g]\t%d\t%d\t%s\n",
			r.ID, r.Model, r.Representation, r.Integrator,
			r.StartTime, r.StopTime, r.Steps, len(r.EventTimes),
			r.Timestamp.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	columns, rows, err := storage.New(dataDir).LoadResults(args[0])
	if err != nil {
		return err
	}

	const maxPlots = 6
	n := len(columns) - 1
	if n > maxPlots {
		n = maxPlots
	}
	series := make([]float64, len(rows))
	for j := 1; j <= n; j++ {
		for i, row := range rows {
			series[i] = row[j]
		}
		fmt.Println(asciigraph.Plot(series,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(columns[j]),
		))
		fmt.Println()
	}
	if len(columns)-1 > maxPlots {
		fmt.Printf("(%d more columns not shown)\n", len(columns)-1-maxPlots)
	}
	return nil
}

// positionedModel builds the model and, when the linearization point
// lies past the start time, integrates up to it first.
func positionedModel[T num.Scalar[T]](ctx context.Context, scn *config.Scenario, at float64) (*model.SimulationModel[T], error) {
	def, x0, err := models.Build[T](scn.Model)
	if err != nil {
		return nil, err
	}
	if len(scn.InitState) > 0 {
		x0 = scn.InitState
	}
	m, err := model.New(def, x0, scn.Parameters)
	if err != nil {
		return nil, err
	}
	if at > scn.StartTime {
		opts := scn.Options()
		opts.StopTime = at
		if _, err := sim.Run(ctx, m, opts); err != nil {
			return nil, err
		}
		return m, nil
	}
	if err := m.Init(scn.StartTime); err != nil {
		return nil, err
	}
	return m, nil
}

func linearizeModel(cmd *cobra.Command, args []string) error {
	scn, err := buildScenario(cmd, args)
	if err != nil {
		return err
	}
	at := scn.StartTime
	if cmd.Flags().Changed("at") {
		at = atFlag
	}

	var a *mat.Dense
	var states []string
	if numericFlag {
		m, err := positionedModel[num.Real](cmd.Context(), scn, at)
		if err != nil {
			return err
		}
		states = m.StateNames()
		if a, err = linearize.Numeric(m, at); err != nil {
			return err
		}
	} else {
		m, err := positionedModel[num.Dual](cmd.Context(), scn, at)
		if err != nil {
			return err
		}
		states = m.StateNames()
		if a, err = linearize.Analytic(m, at); err != nil {
			return err
		}
	}

	fmt.Printf("Jacobian of %s at t = %g:\n", scn.Model, at)
	rowsN, colsN := a.Dims()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "\t%s\t\n", strings.Join(states, "\t"))
	for i := 0; i < rowsN; i++ {
		fmt.Fprintf(w, "der(%s)\t", states[i])
		for j := 0; j < colsN; j++ {
			fmt.Fprintf(w, "%.6g\t", a.At(i, j))
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	eigs, err := linearize.Eigenvalues(a)
	if err != nil {
		return err
	}
	fmt.Println("Eigenvalues:")
	stable := true
	for _, ev := range eigs {
		fmt.Printf("  %.6g %+.6gi\n", real(ev), imag(ev))
		if real(ev) > 0 {
			stable = false
		}
	}
	if stable {
		fmt.Println("No eigenvalue in the right half plane.")
	} else {
		fmt.Println("Unstable: eigenvalue(s) with positive real part.")
	}
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	scn, err := buildScenario(cmd, args[:1])
	if err != nil {
		return err
	}
	methods := args[1:]
	if len(methods) == 0 {
		methods = integrators.Names()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tSTEPS\tREJECTED\tEVALS\tEVENTS\tFINAL STATE\tELAPSED")
	for _, method := range methods {
		s := *scn
		s.Integrator = method
		res, err := runScenario(cmd.Context(), &s)
		if err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
		finals := make([]string, len(res.final))
		for i, v := range res.final {
			finals[i] = fmt.Sprintf("%s=%.6g", res.states[i], v)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\t%v\n",
			method, res.outcome.Stats.Steps, res.outcome.Stats.Rejected,
			res.evals, len(res.outcome.Events), strings.Join(finals, " "),
			res.outcome.Elapsed.Round(time.Microsecond))
	}
	return w.Flush()
}

func exportCSV(cmd *cobra.Command, args []string) error {
	columns, rows, err := storage.New(dataDir).LoadResults(args[0])
	if err != nil {
		return err
	}
	w, closeOut, err := outputWriter()
	if err != nil {
		return err
	}
	defer closeOut()
	return storage.WriteCSV(w, columns, rows)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	columns, rows, err := st.LoadResults(args[0])
	if err != nil {
		return err
	}
	w, closeOut, err := outputWriter()
	if err != nil {
		return err
	}
	defer closeOut()
	return storage.WriteJSON(w, *meta, columns, rows)
}

func liveReplay(cmd *cobra.Command, args []string) error {
	scn, err := buildScenario(cmd, args)
	if err != nil {
		return err
	}
	res, err := runScenario(cmd.Context(), scn)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("%s (%s, %s)", scn.Model, res.repr, scn.Integrator)
	player := tui.New(title, res.columns, res.rows, eventTimes(res.outcome.Events))
	_, err = tea.NewProgram(player, tea.WithAltScreen()).Run()
	return err
}

func replayRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	columns, rows, err := st.LoadResults(args[0])
	if err != nil {
		return err
	}
	title := fmt.Sprintf("%s (%s, %s)", meta.Model, meta.Representation, meta.Integrator)
	player := tui.New(title, columns, rows, meta.EventTimes)
	_, err = tea.NewProgram(player, tea.WithAltScreen()).Run()
	return err
}

func saveScenario(cmd *cobra.Command, args []string) error {
	scn, err := buildScenario(cmd, args[:1])
	if err != nil {
		return err
	}
	if err := config.Save(args[1], scn); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", args[1])
	return nil
}

func outputWriter() (io.Writer, func(), error) {
	if outFlag == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(outFlag)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad state value %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func eventTimes(events []sim.Event) []float64 {
	if len(events) == 0 {
		return nil
	}
	ts := make([]float64, len(events))
	for i, ev := range events {
		ts[i] = ev.Time
	}
	return ts
}
