// Package main provides the CLI entrypoint for examtrack.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Christopherwdev/ALevelChat-sub000/internal/catalog"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/config"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/examrange"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/exclusion"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/model"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/persist"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/stats"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/store"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/tracker"
	"github.com/Christopherwdev/ALevelChat-sub000/internal/tui"
)

const (
	defaultSubject    = "Mathematics"
	defaultDebounceMs = 500
	defaultWeakTop    = 3
)

var (
	trackerMode       string
	trackerSubject    string
	trackerDebounceMs int

	rangeFrom  string
	rangeTo    string
	rangeSlots []string

	setPaper string
	setSlot  string

	papersAll  bool
	papersNone bool

	summaryGrid    bool
	summaryWeakTop int
	summaryColor   bool

	resetPurge bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "examtrack",
		Short:         "Past-paper score tracker",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runGridCmd,
	}

	rootCmd.PersistentFlags().StringVar(&trackerMode, "mode", "", "qualification mode (IAL or IGCSE; default: last used)")
	rootCmd.PersistentFlags().StringVar(&trackerSubject, "subject", defaultSubject, "subject name")
	rootCmd.PersistentFlags().IntVar(&trackerDebounceMs, "debounce-ms", defaultDebounceMs, "quiet period before state is saved")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newRangeCmd())
	rootCmd.AddCommand(newSetCmd())
	rootCmd.AddCommand(newPapersCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newPercentileCmd())
	rootCmd.AddCommand(newModeCmd())
	rootCmd.AddCommand(newResetCmd())

	return rootCmd
}

// session bundles the store, the loaded tracker and its autosaver.
type session struct {
	cfg     model.Config
	hasMode bool
	store   *store.Store
	adapter *persist.Adapter
	tracker *tracker.Tracker
	rules   *exclusion.Set
	saver   *persist.AutoSaver
}

func openSession(cmd *cobra.Command) (*session, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "mode", &trackerMode, fileCfg.Tracker.Mode)
	applyStringConfig(cmd, "subject", &trackerSubject, fileCfg.Tracker.Subject)
	applyIntConfig(cmd, "debounce-ms", &trackerDebounceMs, fileCfg.Tracker.DebounceMs)

	cfg, err := resolveConfig(trackerMode, trackerSubject, trackerDebounceMs)
	if err != nil {
		return nil, err
	}

	cat, err := fileCfg.Catalog(catalog.Default())
	if err != nil {
		return nil, err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	adapter := persist.NewAdapter(st, cat, logErrf)
	tr := tracker.New(cat, adapter.Load(context.Background()))
	s := &session{
		cfg:     cfg,
		hasMode: cfg.Mode != "",
		store:   st,
		adapter: adapter,
		tracker: tr,
		rules:   exclusion.NewSet(cat.Rules()),
		saver:   persist.NewAutoSaver(tr, adapter, cfg.Debounce),
	}
	return s, nil
}

// mode returns the mode chosen on the command line or in the config file,
// falling back to the stored current mode.
func (s *session) mode() model.Mode {
	if s.hasMode {
		return s.cfg.Mode
	}
	return s.tracker.CurrentMode()
}

func (s *session) subject() (string, error) {
	mode := s.mode()
	cat := s.tracker.Catalog()
	if !cat.HasSubject(mode, s.cfg.Subject) {
		return "", fmt.Errorf("unknown %s subject %q (available: %s)", mode, s.cfg.Subject, strings.Join(cat.Subjects(mode), ", "))
	}
	return s.cfg.Subject, nil
}

func (s *session) Close() {
	s.saver.Close()
	if err := s.store.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
}

func runGridCmd(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if s.hasMode {
		if err := s.tracker.SetCurrentMode(s.cfg.Mode); err != nil {
			return err
		}
	}
	m := tui.NewModel(s.tracker, s.rules, s.cfg.Subject)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newRangeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "range",
		Short: "Show or replace the tracked session range",
		Args:  cobra.NoArgs,
		RunE:  runRangeCmd,
	}
	cmd.Flags().StringVar(&rangeFrom, "from", "", "first session (e.g. 2019-Jan)")
	cmd.Flags().StringVar(&rangeTo, "to", "", "last session (e.g. 2025-Jun); clamped to the latest available")
	cmd.Flags().StringSliceVar(&rangeSlots, "slots", nil, "track exactly these sessions (e.g. 2024-Jun,2023-Nov)")
	return cmd
}

func runRangeCmd(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	mode := s.mode()
	if len(rangeSlots) > 0 && (rangeFrom != "" || rangeTo != "") {
		return fmt.Errorf("--slots cannot be combined with --from or --to")
	}
	if len(rangeSlots) > 0 {
		slots, err := parseSlotArgs(s.tracker.Catalog(), mode, rangeSlots)
		if err != nil {
			return err
		}
		s.tracker.SetRange(mode, slots)
	}
	if rangeFrom != "" || rangeTo != "" {
		start, end, err := resolveRangeBounds(s.tracker.Catalog(), mode, rangeFrom, rangeTo)
		if err != nil {
			return err
		}
		if err := s.tracker.RequestRange(mode, start, end); err != nil {
			return err
		}
	}

	slots := s.tracker.Range(mode)
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "%s: %d sessions\n", mode, len(slots)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	for _, ys := range slots {
		if _, err := fmt.Fprintln(out, ys.String()); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// resolveRangeBounds fills a missing bound with the mode's default start or ceiling.
func resolveRangeBounds(cat *catalog.Catalog, mode model.Mode, from, to string) (model.YearSession, model.YearSession, error) {
	start := cat.DefaultStart(mode)
	end := cat.Ceiling(mode)
	if from != "" {
		ys, err := model.ParseYearSession(from)
		if err != nil {
			return start, end, fmt.Errorf("invalid --from value: %w", err)
		}
		start = ys
	}
	if to != "" {
		ys, err := model.ParseYearSession(to)
		if err != nil {
			return start, end, fmt.Errorf("invalid --to value: %w", err)
		}
		end = ys
	}
	return start, end, nil
}

// parseSlotArgs parses explicit sessions; every session must be offered by mode.
func parseSlotArgs(cat *catalog.Catalog, mode model.Mode, args []string) ([]model.YearSession, error) {
	slots := make([]model.YearSession, 0, len(args))
	for _, arg := range args {
		ys, err := model.ParseYearSession(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid --slots value: %w", err)
		}
		if !cat.HasSession(mode, ys.Session) {
			return nil, fmt.Errorf("%s has no %s session (available: %s)", mode, ys.Session, joinSessions(cat.Sessions(mode)))
		}
		slots = append(slots, ys)
	}
	return slots, nil
}

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set VALUE",
		Short: "Record a score (a number, N/A, or an empty string to clear)",
		Args:  cobra.ExactArgs(1),
		RunE:  runSetCmd,
	}
	cmd.Flags().StringVar(&setPaper, "paper", "", "paper code (e.g. P1)")
	cmd.Flags().StringVar(&setSlot, "slot", "", "session (e.g. 2024-Jun)")
	_ = cmd.MarkFlagRequired("paper")
	_ = cmd.MarkFlagRequired("slot")
	return cmd
}

func runSetCmd(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	subject, err := s.subject()
	if err != nil {
		return err
	}
	mode := s.mode()
	cat := s.tracker.Catalog()

	paper, ok := cat.Paper(mode, subject, setPaper)
	if !ok {
		return fmt.Errorf("unknown %s paper %q (available: %s)", subject, setPaper, strings.Join(cat.Papers(mode, subject), ", "))
	}
	ys, err := model.ParseYearSession(setSlot)
	if err != nil {
		return fmt.Errorf("invalid --slot value: %w", err)
	}
	if !cat.HasSession(mode, ys.Session) {
		return fmt.Errorf("%s has no %s session (available: %s)", mode, ys.Session, joinSessions(cat.Sessions(mode)))
	}
	key := model.CellKey{Mode: mode, Year: ys.Year, Session: ys.Session, Subject: subject, Paper: paper.Code}
	if s.rules.IsDisabled(key) {
		return fmt.Errorf("%s %s was not examined in %s", subject, paper.Code, ys)
	}

	value, err := normalizeScoreArg(args[0])
	if err != nil {
		return err
	}
	if value == "" {
		s.tracker.ClearScore(key)
		return nil
	}
	if v, ok := stats.ParseScore(value); ok && v > float64(paper.MaxMark) {
		logErrf("warning: %s exceeds the maximum mark of %s (%d)\n", value, paper.Code, paper.MaxMark)
	}
	s.tracker.SetScore(key, value)
	if !examrange.Contains(s.tracker.Range(mode), ys) {
		logErrf("note: %s is outside the tracked %s range\n", ys, mode)
	}
	return nil
}

func joinSessions(sessions []model.Session) string {
	names := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		names = append(names, string(sess))
	}
	return strings.Join(names, ", ")
}

// normalizeScoreArg accepts a number, any casing of N/A, or blank to clear.
func normalizeScoreArg(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", nil
	}
	if strings.EqualFold(value, model.NotApplicable) {
		return model.NotApplicable, nil
	}
	if _, ok := stats.ParseScore(value); !ok {
		return "", fmt.Errorf("%q is not a score (use a number or N/A)", raw)
	}
	return value, nil
}

func newPapersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "papers [CODES...]",
		Short: "Show or choose the tracked papers of a subject",
		RunE:  runPapersCmd,
	}
	cmd.Flags().BoolVar(&papersAll, "all", false, "track every paper")
	cmd.Flags().BoolVar(&papersNone, "none", false, "track no papers")
	return cmd
}

func runPapersCmd(cmd *cobra.Command, args []string) error {
	if papersAll && papersNone {
		return fmt.Errorf("--all and --none are mutually exclusive")
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	subject, err := s.subject()
	if err != nil {
		return err
	}
	mode := s.mode()
	cat := s.tracker.Catalog()

	switch {
	case papersAll || papersNone:
		if len(args) > 0 {
			return fmt.Errorf("paper codes cannot be combined with --all or --none")
		}
		s.tracker.ToggleAllPapers(mode, subject, papersAll)
	case len(args) > 0:
		codes, err := parsePaperArgs(args, cat.Papers(mode, subject))
		if err != nil {
			return err
		}
		s.tracker.SetSelectedPapers(mode, subject, codes)
	}

	selected := map[string]bool{}
	for _, code := range s.tracker.SelectedPapers(mode, subject) {
		selected[code] = true
	}
	out := cmd.OutOrStdout()
	for _, code := range cat.Papers(mode, subject) {
		mark := " "
		if selected[code] {
			mark = "x"
		}
		maxMark, _ := cat.MaxMark(mode, code)
		if _, err := fmt.Fprintf(out, "[%s] %s (%d)\n", mark, code, maxMark); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// parsePaperArgs accepts codes separated by spaces or commas and returns
// them in catalog order without duplicates.
func parsePaperArgs(args []string, available []string) ([]string, error) {
	requested := map[string]bool{}
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			found := false
			for _, code := range available {
				if strings.EqualFold(code, part) {
					requested[code] = true
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("unknown paper %q (available: %s)", part, strings.Join(available, ", "))
			}
		}
	}
	if len(requested) == 0 {
		return nil, fmt.Errorf("no paper codes given")
	}
	codes := make([]string, 0, len(requested))
	for _, code := range available {
		if requested[code] {
			codes = append(codes, code)
		}
	}
	return codes, nil
}

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show per-paper means, bands and percentiles",
		Args:  cobra.NoArgs,
		RunE:  runSummaryCmd,
	}
	cmd.Flags().BoolVar(&summaryGrid, "grid", false, "also print every recorded score")
	cmd.Flags().IntVar(&summaryWeakTop, "weak-top", defaultWeakTop, "number of weakest papers to list (0 disables)")
	cmd.Flags().BoolVar(&summaryColor, "color", false, "force colored output")
	return cmd
}

func runSummaryCmd(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	subject, err := s.subject()
	if err != nil {
		return err
	}
	report := stats.BuildReport(s.tracker, s.tracker.Catalog(), s.mode(), subject, s.rules.IsDisabled)
	out := cmd.OutOrStdout()
	useColor := shouldUseColor(summaryColor)

	if err := stats.RenderSummary(out, report, useColor); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if summaryWeakTop > 0 {
		if err := stats.RenderWeakest(out, stats.WeakestPapers(report.Papers, summaryWeakTop)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if summaryGrid {
		if err := stats.RenderGrid(out, s.tracker, report, s.rules.IsDisabled, useColor); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func shouldUseColor(force bool) bool {
	if force {
		return true
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func newPercentileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "percentile PERCENT",
		Short: "Estimate the percentile of a percentage score",
		Args:  cobra.ExactArgs(1),
		RunE:  runPercentileCmd,
	}
}

func runPercentileCmd(cmd *cobra.Command, args []string) error {
	pct, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(args[0]), "%"), 64)
	if err != nil {
		return fmt.Errorf("invalid percentage %q: %w", args[0], err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "P%d (%s)\n", stats.PercentileOf(pct), stats.ColorBand(pct)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newModeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mode [IAL|IGCSE]",
		Short: "Show or switch the current mode",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runModeCmd,
	}
}

func runModeCmd(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if len(args) == 1 {
		mode, err := model.ParseMode(args[0])
		if err != nil {
			return err
		}
		if err := s.tracker.SetCurrentMode(mode); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), s.tracker.CurrentMode()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore default state for every mode",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVar(&resetPurge, "purge", false, "delete the stored record instead of saving defaults")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if resetPurge {
		s.saver.Discard()
		if err := s.adapter.Clear(context.Background()); err != nil {
			return err
		}
	} else {
		s.tracker.Reset()
	}
	logErrln("State reset.")
	return nil
}

func resolveConfig(mode, subject string, debounceMs int) (model.Config, error) {
	cfg := model.Config{
		Subject:  strings.TrimSpace(subject),
		Debounce: time.Duration(debounceMs) * time.Millisecond,
	}
	if strings.TrimSpace(mode) != "" {
		parsed, err := model.ParseMode(mode)
		if err != nil {
			return model.Config{}, fmt.Errorf("--mode: %w", err)
		}
		cfg.Mode = parsed
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg model.Config) error {
	if cfg.Subject == "" {
		return fmt.Errorf("--subject must not be empty")
	}
	if cfg.Debounce < 0 {
		return fmt.Errorf("--debounce-ms must be >= 0")
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# examtrack configuration
# Uncomment a value to enable it. CLI flags override config values.

[tracker]
# mode = "IAL"            # IAL or IGCSE (default: last used)
# subject = %q   # Subject shown by default
# debounce-ms = %d        # Quiet period before state is saved

# First session of a freshly generated range, per mode.
# [range.IAL]
# year = 2019
# session = "Jan"

# Latest session that has been sat, per mode.
# [ceiling.IGCSE]
# year = 2025
# session = "Jun"

# Extra cells that were never examined. Omitted fields match anything.
# [[exclusions]]
# mode = "IAL"
# subject = "Physics"
# session = "Oct"
# year = 2021
`,
		defaultSubject,
		defaultDebounceMs,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
