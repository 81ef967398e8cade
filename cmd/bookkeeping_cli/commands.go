package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/platform/bootstrap"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/config"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/logger"
	"github.com/SscSPs/bookkeeping_engine/internal/utils"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/statement"
	"github.com/alecthomas/kong"
)

// Globals are flags shared by every command.
type Globals struct {
	User     string `help:"User ID recorded as the actor." default:"system" env:"BOOKKEEPING_USER"`
	LogLevel string `help:"Overrides LOG_LEVEL." name:"log-level"`
}

// Commands lists the subcommands.
type Commands struct {
	GenerateRecurring GenerateRecurringCmd `cmd:"" help:"Create entries for every recurring pattern due by a date."`
	ImportStatement   ImportStatementCmd   `cmd:"" help:"Import a bank statement CSV into a bank account."`
	IssueToken        IssueTokenCmd        `cmd:"" help:"Print a bearer token for the API, signed with JWT_SECRET."`
}

func open(globals *Globals) (*bootstrap.App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if globals.LogLevel != "" {
		level = globals.LogLevel
	}
	return bootstrap.Open(context.Background(), logger.New(os.Stderr, level), cfg)
}

// GenerateRecurringCmd runs the recurring generator once.
type GenerateRecurringCmd struct {
	AsOf string `help:"Cut-off date (YYYY-MM-DD). Defaults to today." name:"as-of"`
}

func (cmd *GenerateRecurringCmd) Run(ctx *kong.Context, globals *Globals) error {
	asOf := time.Now().UTC()
	if cmd.AsOf != "" {
		parsed, err := time.Parse("2006-01-02", cmd.AsOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of %q: %w", cmd.AsOf, err)
		}
		asOf = parsed
	}

	app, err := open(globals)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	resp, err := app.Services.Recurring.GenerateDueRecurring(context.Background(), asOf, globals.User)
	if err != nil {
		return err
	}
	if err := printJSON(ctx, resp); err != nil {
		return err
	}
	if len(resp.Failures) > 0 {
		return fmt.Errorf("%d recurring pattern(s) failed", len(resp.Failures))
	}
	return nil
}

// ImportStatementCmd parses and imports one CSV export.
type ImportStatementCmd struct {
	BankAccount string `help:"Bank account ID." arg:""`
	File        string `help:"Statement CSV." arg:"" type:"existingfile"`
	Profile     string `help:"Column profile name from the profiles file."`
	Profiles    string `help:"Profiles file. Defaults to STATEMENT_PROFILES_PATH." type:"path"`
}

func (cmd *ImportStatementCmd) Run(ctx *kong.Context, globals *Globals) error {
	mapping := statement.DefaultMapping()
	if cmd.Profile != "" {
		path := cmd.Profiles
		if path == "" {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			path = cfg.StatementProfilesPath
		}
		profiles, err := statement.LoadProfiles(path)
		if err != nil {
			return err
		}
		if mapping, err = profiles.Get(cmd.Profile); err != nil {
			return err
		}
	}

	f, err := os.Open(cmd.File)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := statement.Parse(f, mapping)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.File, err)
	}

	app, err := open(globals)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	result, err := app.Services.Statement.ImportStatement(context.Background(), cmd.BankAccount, rows, globals.User)
	if err != nil {
		return err
	}
	return printJSON(ctx, result)
}

// IssueTokenCmd mints a token for schedulers and other service callers.
type IssueTokenCmd struct {
	TTL time.Duration `help:"Token lifetime." default:"24h" name:"ttl"`
}

func (cmd *IssueTokenCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	token, err := utils.IssueAccessToken(globals.User, cfg.JWTSecret, cfg.JWTIssuer, cmd.TTL, time.Now())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(ctx.Stdout, token)
	return err
}

func printJSON(ctx *kong.Context, v any) error {
	enc := json.NewEncoder(ctx.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
