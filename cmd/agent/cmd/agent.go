package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cherryfit/cherryfit/internal/app"
	"github.com/cherryfit/cherryfit/internal/config"
	"github.com/cherryfit/cherryfit/internal/logger"
	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/spf13/cobra"
)

// withAgent opens the local store for the duration of one command.
func withAgent(cmd *cobra.Command, run func(ctx context.Context, a *app.Agent) error) error {
	cfg := config.LoadAgent()
	logger.Init(logger.Options{Dev: cfg.IsDevelopment(), SentryDSN: cfg.SentryDSN, File: cfg.LogFile})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.NewAgent(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return run(ctx, a)
}

// parseWhen accepts a full timestamp, "YYYY-MM-DD HH:MM" in local time, or "".
func parseWhen(value string) (*model.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", value, time.Local); err == nil {
		at := model.NewTime(t)
		return &at, nil
	}
	at, err := model.ParseTime(value)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q (expected YYYY-MM-DD HH:MM or RFC 3339)", value)
	}
	return &at, nil
}

func dateOrToday(value string) (string, error) {
	if value == "" {
		return time.Now().UTC().Format(model.DateLayout), nil
	}
	if _, err := time.Parse(model.DateLayout, value); err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", value)
	}
	return value, nil
}

// floatFlag returns a pointer to the flag's value when it was set.
func floatFlag(cmd *cobra.Command, name string) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		return nil
	}
	return &v
}

func stringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil
	}
	return &v
}

func addMacroFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("calories", 0, "Calories per serving")
	cmd.Flags().Float64("protein", 0, "Protein grams per serving")
	cmd.Flags().Float64("carbs", 0, "Carbohydrate grams per serving")
	cmd.Flags().Float64("fat", 0, "Fat grams per serving")
	cmd.Flags().Float64("fiber", 0, "Fiber grams per serving")
	cmd.Flags().Float64("sugar", 0, "Sugar grams per serving")
	cmd.Flags().Float64("sodium", 0, "Sodium milligrams per serving")
}

func macrosFromFlags(cmd *cobra.Command) model.Macros {
	m := model.Macros{
		FiberG:   floatFlag(cmd, "fiber"),
		SugarG:   floatFlag(cmd, "sugar"),
		SodiumMg: floatFlag(cmd, "sodium"),
	}
	m.Calories, _ = cmd.Flags().GetFloat64("calories")
	m.ProteinG, _ = cmd.Flags().GetFloat64("protein")
	m.CarbsG, _ = cmd.Flags().GetFloat64("carbs")
	m.FatG, _ = cmd.Flags().GetFloat64("fat")
	return m
}

func formatMacros(m model.Macros) string {
	return fmt.Sprintf("%.0f kcal | P %.1fg | C %.1fg | F %.1fg", m.Calories, m.ProteinG, m.CarbsG, m.FatG)
}
