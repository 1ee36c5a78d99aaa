package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/courtside/internal/plan"
)

func main() {
	plansDir := flag.String("plans", "", "directory of extra plan files to validate with the built-in library")
	quiet := flag.Bool("quiet", false, "only report errors")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	catalog, err := plan.Load(*plansDir)
	if err != nil {
		log.Error("failed to load plans", "dir", *plansDir, "error", err)
		os.Exit(1)
	}

	var stats struct {
		plans, exercises, errors, warnings int
	}
	for _, s := range catalog.List() {
		p, err := catalog.Get(s.ID)
		if err != nil {
			log.Error("plan vanished from catalog", "id", s.ID, "error", err)
			os.Exit(1)
		}
		stats.plans++
		stats.exercises += len(p.Exercises)

		for _, prob := range plan.Validate(p) {
			if prob.Severity == plan.SeverityError {
				stats.errors++
			} else {
				stats.warnings++
				if *quiet {
					continue
				}
			}
			fmt.Println(prob)
		}
	}

	log.Info("validation complete",
		"plans", stats.plans,
		"exercises", stats.exercises,
		"errors", stats.errors,
		"warnings", stats.warnings,
	)
	if stats.errors > 0 {
		os.Exit(1)
	}
}
