// Command batsim drives the charging-demand pipeline from the command
// line: run the full population pipeline, dry-run just the capability
// resolver, or watch a scenario file and re-run on every change.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/arup-group/batsim/internal/capability"
	"github.com/arup-group/batsim/internal/driver"
	"github.com/arup-group/batsim/internal/obslog"
	"github.com/arup-group/batsim/internal/obsmetrics"
	"github.com/arup-group/batsim/internal/population"
	"github.com/arup-group/batsim/internal/report"
	"github.com/arup-group/batsim/internal/scenarioio"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		cmdRun(os.Args[2:])
	case "dryrun":
		cmdDryrun(os.Args[2:])
	case "watch":
		cmdWatch(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  batsim run --scenario s.yaml --population p.json --out-dir results/")
	fmt.Println("  batsim dryrun --scenario s.yaml --population p.json --out dryrun.csv")
	fmt.Println("  batsim watch --scenario s.yaml --population p.json --out-dir results/")
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	scenarioPath := fs.String("scenario", "", "Path to scenario YAML")
	populationPath := fs.String("population", "", "Path to population JSON")
	outDir := fs.String("out-dir", "results", "Output directory")
	concurrency := fs.Int("concurrency", 0, "Worker pool size (0 = GOMAXPROCS)")
	_ = fs.Parse(args)

	if *scenarioPath == "" || *populationPath == "" {
		fmt.Println("--scenario and --population are required")
		os.Exit(2)
	}

	log, err := obslog.New("info")
	must(err)

	if err := runOnce(*scenarioPath, *populationPath, *outDir, *concurrency, log); err != nil {
		log.Errorf("run failed: %v", err)
		os.Exit(1)
	}
}

func runOnce(scenarioPath, populationPath, outDir string, concurrency int, log obslog.Sink) error {
	scn, err := scenarioio.Load(scenarioPath)
	if err != nil {
		return err
	}
	agents, err := population.Load(populationPath)
	if err != nil {
		return err
	}

	metrics := obsmetrics.New()
	d := driver.New(scn, concurrency, log, metrics)
	result, err := d.Run(context.Background(), agents)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	if err := report.WriteEventsCSV(filepath.Join(outDir, "events.csv"), result.Events); err != nil {
		return err
	}
	if err := report.WriteAgentSummaryCSV(filepath.Join(outDir, "agents.csv"), result.Agents); err != nil {
		return err
	}
	if err := report.WriteScenarioSummaryJSON(filepath.Join(outDir, "summary.json"), result.RunID, result.Summary); err != nil {
		return err
	}

	fmt.Printf("run %s complete: %d eligible, %d ineligible, %d infeasible\n",
		result.RunID, result.Summary.AgentsEligible, result.Summary.AgentsIneligible, result.Summary.AgentsInfeasible)
	return nil
}

func cmdDryrun(args []string) {
	fs := flag.NewFlagSet("dryrun", flag.ExitOnError)
	scenarioPath := fs.String("scenario", "", "Path to scenario YAML")
	populationPath := fs.String("population", "", "Path to population JSON")
	outPath := fs.String("out", "dryrun.csv", "Output CSV path")
	_ = fs.Parse(args)

	if *scenarioPath == "" || *populationPath == "" {
		fmt.Println("--scenario and --population are required")
		os.Exit(2)
	}

	scn, err := scenarioio.Load(*scenarioPath)
	must(err)
	agents, err := population.Load(*populationPath)
	must(err)

	rows := make([]report.DryRunRow, 0, len(agents))
	for _, a := range agents {
		caps, ineligible := capability.Resolve(scn, a.ID, a.Attributes)
		if ineligible != nil {
			rows = append(rows, report.DryRunRow{AgentID: a.ID, Reason: ineligible.Reason})
			continue
		}
		rows = append(rows, report.DryRunRow{
			AgentID:  a.ID,
			Battery:  caps.AssignedNames.Battery,
			Trigger:  caps.AssignedNames.Trigger,
			EnRoute:  caps.AssignedNames.EnRoute,
			Activity: caps.AssignedNames.Activity,
		})
	}

	must(report.WriteDryRunCSV(*outPath, rows))
	fmt.Printf("wrote %d rows to %s\n", len(rows), *outPath)
}

func cmdWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	scenarioPath := fs.String("scenario", "", "Path to scenario YAML")
	populationPath := fs.String("population", "", "Path to population JSON")
	outDir := fs.String("out-dir", "results", "Output directory")
	_ = fs.Parse(args)

	if *scenarioPath == "" || *populationPath == "" {
		fmt.Println("--scenario and --population are required")
		os.Exit(2)
	}

	log, err := obslog.New("info")
	must(err)

	watcher, err := fsnotify.NewWatcher()
	must(err)
	defer watcher.Close()
	must(watcher.Add(filepath.Dir(*scenarioPath)))

	log.Infof("watching %s for changes", *scenarioPath)
	if err := runOnce(*scenarioPath, *populationPath, *outDir, 0, log); err != nil {
		log.Errorf("initial run failed: %v", err)
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(*scenarioPath) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Infof("scenario changed, re-running")
			if err := runOnce(*scenarioPath, *populationPath, *outDir, 0, log); err != nil {
				log.Errorf("run failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("watcher error: %v", err)
		}
	}
}

func must(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
