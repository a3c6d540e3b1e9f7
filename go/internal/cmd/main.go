// Command deadpool drives the draft and season-transition engine from
// the terminal. The HTTP surface lives elsewhere; this binary covers the
// operational paths: who drafts next, committing a pick, standings, and
// the year-end rollover.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/mcdev12/deadpool/go/internal/draft"
	"github.com/mcdev12/deadpool/go/internal/transition"
)

const usage = `usage: deadpool <command> [flags]

commands:
  next-drafter -year <year>
  commit       -player <id> -name <person name> -year <year>
  find-person  -name <person name>
  picks        -year <year>
  leaderboard  -year <year>
  transition   -from <year> -to <year> [-dry-run] [-verbose]
`

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env file: %v\n", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	services, err := setupServices(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up services")
	}

	if err := run(ctx, os.Args[1], os.Args[2:], services); err != nil {
		logger.Fatal().Err(err).Msg("command failed")
	}
}

func run(ctx context.Context, command string, args []string, services *Services) error {
	switch command {
	case "next-drafter":
		fs := flag.NewFlagSet("next-drafter", flag.ExitOnError)
		year := fs.Int("year", 0, "target year")
		fs.Parse(args)

		next, err := services.Draft.NextDrafter(ctx, *year)
		if err != nil {
			return err
		}
		if next == nil {
			fmt.Printf("no eligible drafter for %d; draft phase complete\n", *year)
			return nil
		}
		return printJSON(next)

	case "commit":
		fs := flag.NewFlagSet("commit", flag.ExitOnError)
		player := fs.String("player", "", "player id")
		name := fs.String("name", "", "person name to draft")
		year := fs.Int("year", 0, "target year")
		fs.Parse(args)

		result, err := services.Draft.CommitDraft(ctx, draft.CommitDraftRequest{
			PlayerID:   *player,
			PersonName: *name,
			Year:       *year,
		})
		if err != nil {
			return err
		}
		return printJSON(result)

	case "find-person":
		fs := flag.NewFlagSet("find-person", flag.ExitOnError)
		name := fs.String("name", "", "person name to look up")
		fs.Parse(args)

		match, err := services.Draft.FindPerson(ctx, *name)
		if err != nil {
			return err
		}
		if match == nil {
			fmt.Printf("no existing person matches %q\n", *name)
			return nil
		}
		return printJSON(match)

	case "picks":
		fs := flag.NewFlagSet("picks", flag.ExitOnError)
		year := fs.Int("year", 0, "target year")
		fs.Parse(args)

		picks, err := services.Draft.ListPicks(ctx, *year)
		if err != nil {
			return err
		}
		return printJSON(picks)

	case "leaderboard":
		fs := flag.NewFlagSet("leaderboard", flag.ExitOnError)
		year := fs.Int("year", 0, "target year")
		fs.Parse(args)

		entries, err := services.Scoring.ComputeLeaderboard(ctx, *year)
		if err != nil {
			return err
		}
		return printJSON(entries)

	case "transition":
		fs := flag.NewFlagSet("transition", flag.ExitOnError)
		from := fs.Int("from", 0, "outgoing year")
		to := fs.Int("to", 0, "incoming year")
		dryRun := fs.Bool("dry-run", false, "compute and validate without writing")
		verbose := fs.Bool("verbose", false, "log per-player detail")
		fs.Parse(args)

		report, err := services.Transition.Run(ctx, transition.Request{
			FromYear: *from,
			ToYear:   *to,
			DryRun:   *dryRun,
			Verbose:  *verbose,
		})
		if err != nil {
			return err
		}
		return printJSON(report)

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
