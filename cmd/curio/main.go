package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/curioworks/curio/internal/config"
	"github.com/curioworks/curio/internal/factory"
	"github.com/curioworks/curio/internal/logging"
)

// quickActions are canned queries reachable by number from the prompt.
var quickActions = []string{
	"What time is it right now in UTC?",
	"What is 234 * 19 + 7?",
	"How many days are there between 01/01/2026 and today?",
	"What did we talk about recently?",
}

func main() {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("curio", flag.ExitOnError)
	docsFlag := fs.String("docs", "", "Documentation directory to index for doc_search (overrides CURIO_DOCS_DIR)")
	memFlag := fs.String("memory", "", "Path to the conversation database (overrides CURIO_MEMORY_PATH)")
	budgetFlag := fs.Int("budget", 0, "Step budget per query (overrides CURIO_STEP_BUDGET)")
	selfTest := fs.Bool("selftest", false, "Run the built-in checks and exit")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	log := logging.Setup(true)

	if *selfTest {
		if err := runSelfTest(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "self test failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid CURIO_* environment")
	}
	if *docsFlag != "" {
		settings.DocsDir = *docsFlag
	}
	if *memFlag != "" {
		settings.MemoryPath = *memFlag
	}
	if *budgetFlag > 0 {
		settings.StepBudget = *budgetFlag
	}

	var prefs *config.Preferences
	if manager, merr := config.NewManager(); merr == nil {
		if loaded, lerr := manager.Load(); lerr == nil {
			prefs = loaded
		} else {
			log.Warn().Err(lerr).Msg("could not load preferences, continuing without them")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent, err := factory.BuildAgent(ctx, settings, prefs, log)
	if err != nil {
		log.Fatal().Err(err).Msg("could not build agent")
	}
	defer agent.Close()

	fmt.Printf("🦉 curio ready (model: %s, memory entries: %d)\n", agent.ModelName, agent.Memory.Len())
	fmt.Println("Type a question, a number for a quick action, 'test' for the built-in checks, 'new' to reset, or 'exit'.")
	printQuickActions()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "exit", "quit":
			fmt.Println("bye 👋")
			return
		case "new":
			fmt.Println("Starting a fresh exchange. Memory is kept.")
			continue
		case "test":
			if err := runSelfTest(os.Stdout); err != nil {
				fmt.Printf("self test failed: %v\n", err)
			}
			continue
		case "help", "?":
			printQuickActions()
			continue
		}

		query := line
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(quickActions) {
			query = quickActions[n-1]
			fmt.Printf("→ %s\n", query)
		}

		reply, err := agent.Orchestrator.HandleQuery(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Println("\ninterrupted")
				return
			}
			log.Error().Err(err).Msg("query failed")
			continue
		}

		for _, f := range reply.Findings {
			if f.Severity != "info" {
				fmt.Printf("  ⚠ %s\n", f.Message)
			}
		}
		fmt.Printf("\ncurio> %s\n", reply.Answer)
		if len(reply.ToolsUsed) > 0 {
			fmt.Printf("  (steps: %d, tools: %s)\n", reply.Steps, strings.Join(reply.ToolsUsed, ", "))
		}
		for _, w := range reply.Warnings {
			fmt.Printf("  ⚠ %s\n", w)
		}
		fmt.Println()
	}
}

func printQuickActions() {
	fmt.Println("Quick actions:")
	for i, q := range quickActions {
		fmt.Printf("  %d. %s\n", i+1, q)
	}
}
