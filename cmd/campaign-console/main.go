// Command campaign-console is the line-oriented interface to the campaign:
// the same engine as the server, driven from a terminal.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"log/slog"

	"github.com/talgya/mystara/internal/config"
	"github.com/talgya/mystara/internal/engine"
	"github.com/talgya/mystara/internal/fortune"
	"github.com/talgya/mystara/internal/llm"
	"github.com/talgya/mystara/internal/persistence"
)

func main() {
	// Console output is the interface; keep slog to warnings only.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	cfgPath := "campaign.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "database:", err)
		os.Exit(1)
	}
	defer db.Close()

	eng, err := engine.New(db, llm.NewClient(cfg.AnthropicAPIKey), fortune.NewField(cfg.FortuneSeed))
	if err != nil {
		fmt.Fprintln(os.Stderr, "engine:", err)
		os.Exit(1)
	}

	fmt.Printf("Mystara campaign console — %s\n", eng.DisplayDate())
	fmt.Println(`Commands: date, advance N d|w|m, set-date D M Y, accounts,
objectives, pending, choose EVENT_ID N, quit`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "quit", "exit":
			fmt.Printf("The campaign rests at %s.\n", eng.DisplayDate())
			return
		case "date":
			fmt.Println(eng.DisplayDate())
		case "advance":
			runAdvance(eng, args[1:])
		case "set-date":
			runSetDate(eng, args[1:])
		case "accounts":
			listAccounts(db)
		case "objectives":
			listObjectives(db)
		case "pending":
			listPending(eng)
		case "choose":
			runChoose(eng, args[1:])
		default:
			fmt.Printf("unknown command %q\n", args[0])
		}
	}
}

func runAdvance(eng *engine.Engine, args []string) {
	if len(args) != 2 {
		fmt.Println("usage: advance N d|w|m")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Println("count must be a number")
		return
	}

	var result engine.AdvanceResult
	switch args[1] {
	case "d":
		result = eng.AdvanceDays(n)
	case "w":
		result = eng.AdvanceWeeks(n)
	case "m":
		result = eng.AdvanceMonths(n)
	default:
		fmt.Println("unit must be d, w, or m")
		return
	}

	for _, line := range result.LogLines {
		fmt.Println(" ", line)
	}
	fmt.Println(result.NewDisplayDate)
}

func runSetDate(eng *engine.Engine, args []string) {
	if len(args) != 3 {
		fmt.Println("usage: set-date DAY MONTH_INDEX YEAR")
		return
	}
	day, err1 := strconv.Atoi(args[0])
	month, err2 := strconv.Atoi(args[1])
	year, err3 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil || err3 != nil {
		fmt.Println("all arguments must be numbers")
		return
	}

	result := eng.SetDateManually(day, month, year)
	for _, line := range result.LogLines {
		fmt.Println(" ", line)
	}
}

func listAccounts(db *persistence.DB) {
	accounts, err := db.ListAccounts()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, a := range accounts {
		fmt.Printf("  [%d] %-24s %12s gp  (%s%% interest)\n",
			a.ID, a.Name, a.Balance.StringFixed(2), a.InterestPercent.String())
	}
}

func listObjectives(db *persistence.DB) {
	objectives, err := db.ListObjectives()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, o := range objectives {
		fmt.Printf("  [%d] %-24s %-12s %6s%%  %d months, %s gp\n",
			o.ID, o.Name, o.Status, o.ProgressPercentage.StringFixed(2),
			o.EstimatedMonths, o.TotalCost.StringFixed(2))
	}
}

func listPending(eng *engine.Engine) {
	pending, err := eng.ListPendingEvents()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if len(pending) == 0 {
		fmt.Println("  no pending imprevisti")
		return
	}
	for _, p := range pending {
		fmt.Printf("  %s — %s: %s\n", p.EventID, p.ObjectiveName, p.Description)
		for i, opt := range p.Options {
			fmt.Printf("    %d) %s (+%d months, +%s gp",
				i, opt.OptionText, opt.ExtraMonths, opt.ExtraCost.StringFixed(2))
			if opt.IsFailure {
				fmt.Print(", abandons the objective")
			}
			fmt.Println(")")
		}
		if p.ChoiceMade {
			fmt.Println("    choice registered, resolves on next advance")
		}
	}
}

func runChoose(eng *engine.Engine, args []string) {
	if len(args) != 2 {
		fmt.Println("usage: choose EVENT_ID OPTION_INDEX")
		return
	}
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Println("option index must be a number")
		return
	}
	if err := eng.RegisterChoice(args[0], idx); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("choice registered, resolves on next advance")
}
