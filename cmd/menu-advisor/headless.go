package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"menu-advisor/internal/engine/render"
	"menu-advisor/internal/engine/session"
	"menu-advisor/internal/engine/store"
	"menu-advisor/internal/engine/views"
	"menu-advisor/internal/models"
	"menu-advisor/pkg/registry"
)

var errCatalogUnavailable = errors.New(session.LoadFailureMessage)

// headless runs a session against a Recorder for one command.
type headless struct {
	app    *app
	rec    *render.Recorder
	ctx    context.Context
	cancel context.CancelFunc
}

func startHeadless(cmd *cobra.Command) (*headless, error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	rec := render.NewRecorder()

	a, err := newApp(ctx, cfg, zapLog, rec)
	if err != nil {
		cancel()
		return nil, err
	}
	h := &headless{app: a, rec: rec, ctx: ctx, cancel: cancel}
	a.start(ctx)

	if err := h.flush(); err != nil {
		h.stop()
		return nil, err
	}
	if h.loadFailed() {
		h.stop()
		return nil, errCatalogUnavailable
	}
	return h, nil
}

func (h *headless) dispatch(events ...session.Event) error {
	for _, ev := range events {
		if !h.app.session.Dispatch(ev) {
			return session.ErrClosed
		}
	}
	return h.flush()
}

func (h *headless) flush() error {
	return h.app.session.Flush(h.ctx)
}

func (h *headless) stop() {
	h.cancel()
	h.app.close()
}

func (h *headless) loadFailed() bool {
	for _, in := range h.rec.OfKind(render.ShowNotification) {
		if in.Notification.Text == session.LoadFailureMessage {
			return true
		}
	}
	return false
}

func runMenu(cmd *cobra.Command, args []string) error {
	h, err := startHeadless(cmd)
	if err != nil {
		return err
	}
	defer h.stop()

	var events []session.Event
	if cmd.Flags().Changed("category") {
		category, _ := cmd.Flags().GetString("category")
		events = append(events, session.SelectCategory{Category: category})
	}
	if cmd.Flags().Changed("budget") {
		budget, _ := cmd.Flags().GetInt("budget")
		events = append(events, session.ChangeBudget{Budget: budget})
	}
	if err := h.dispatch(events...); err != nil {
		return err
	}

	state := h.app.store.Snapshot()
	printMenu(cmd.OutOrStdout(), state.Filter, views.Compute(state))
	return nil
}

func runRecommend(cmd *cobra.Command, args []string) error {
	h, err := startHeadless(cmd)
	if err != nil {
		return err
	}
	defer h.stop()

	cultural, _ := cmd.Flags().GetStringSlice("cultural")
	nutritional, _ := cmd.Flags().GetStringSlice("nutritional")
	mood, _ := cmd.Flags().GetString("mood")

	var events []session.Event
	for _, v := range cultural {
		events = append(events, session.ToggleCultural{Value: strings.TrimSpace(v)})
	}
	for _, tag := range nutritional {
		events = append(events, session.ToggleNutritional{Tag: strings.TrimSpace(tag)})
	}
	if mood != "" {
		events = append(events, session.SelectMood{Mood: mood})
	}
	if cmd.Flags().Changed("budget") {
		budget, _ := cmd.Flags().GetInt("budget")
		events = append(events, session.ChangeBudget{Budget: budget})
	}
	events = append(events, session.SubmitPreferences{})

	if err := h.dispatch(events...); err != nil {
		return err
	}
	if note, ok := h.rec.Last(render.ShowNotification); ok && note.Notification.Kind == render.NotificationError {
		return errors.New(note.Notification.Text)
	}
	return printOutcome(cmd.OutOrStdout(), h.rec, h.app.store.Snapshot())
}

func runSay(cmd *cobra.Command, args []string) error {
	h, err := startHeadless(cmd)
	if err != nil {
		return err
	}
	defer h.stop()

	out := cmd.OutOrStdout()
	for _, text := range args {
		before := len(h.rec.OfKind(render.ShowNotification))
		if err := h.dispatch(session.Transcript{Text: text}); err != nil {
			return err
		}
		for _, in := range h.rec.OfKind(render.ShowNotification)[before:] {
			if in.Notification.Kind == render.NotificationVoice {
				fmt.Fprintln(out, in.Notification.Text)
			}
		}
	}

	form := h.app.store.Snapshot().Form
	fmt.Fprintf(out, "Preferencias culturales: %s\n", joinOrDash(form.CulturalList()))
	fmt.Fprintf(out, "Estado de ánimo: %s\n", orDash(form.Mood))

	if _, submitted := h.rec.Last(render.ShowLoading); !submitted {
		return nil
	}
	return printOutcome(out, h.rec, h.app.store.Snapshot())
}

func runRules(cmd *cobra.Command, args []string) error {
	rules, err := activeRules(cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, e := range registry.FromRules(rules).Rules {
		target := e.Action
		if e.Value != "" {
			target += " " + e.Value
		}
		fmt.Fprintf(out, "%d. %-12s %-28s %s\n", i+1, e.Name, target, strings.Join(e.Patterns, " | "))
	}
	return nil
}

func printMenu(w io.Writer, filter models.FilterState, view views.View) {
	fmt.Fprintf(w, "Categoría: %s\n", filter.Category)
	for _, d := range view.Menu {
		fmt.Fprintf(w, "  %-30s $%8.2f  %-12s %3d min\n", d.Name, d.Price, d.Category, d.PrepMinutesOrZero())
	}
	fmt.Fprintf(w, "%s · tiempo promedio %d min\n", view.CountLabel, view.Stats.AvgPrepMinutes)
	fmt.Fprintf(w, "Presupuesto $%d: %s\n", filter.Budget, view.AvailabilityLabel)
}

// printOutcome prints the outcome of the last request. A failed request
// still prints the results that were on screen before it.
func printOutcome(w io.Writer, rec *render.Recorder, state store.State) error {
	empty, hasEmpty := rec.Last(render.ShowNoResults)
	if hasEmpty && lastIndex(rec, render.ShowNoResults) > lastIndex(rec, render.ShowResults) {
		if !empty.IsError {
			fmt.Fprintln(w, empty.Message)
			return nil
		}
		printResults(w, state)
		return errors.New(empty.Message)
	}
	printResults(w, state)
	return nil
}

func printResults(w io.Writer, state store.State) {
	if len(state.Recommendations) == 0 {
		return
	}
	fmt.Fprintln(w, views.ResultsCountLabel(len(state.Recommendations)))
	for _, d := range state.Recommendations {
		fmt.Fprintf(w, "  %-30s $%8.2f  %s\n", d.Name, d.Price, d.Description)
	}
	if names := views.Highlights(state.Catalog, state.Recommendations); len(names) > 0 {
		fmt.Fprintf(w, "En el menú: %s\n", strings.Join(names, ", "))
	}
}

func lastIndex(rec *render.Recorder, kind render.Kind) int {
	kinds := rec.Kinds()
	for i := len(kinds) - 1; i >= 0; i-- {
		if kinds[i] == kind {
			return i
		}
	}
	return -1
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
