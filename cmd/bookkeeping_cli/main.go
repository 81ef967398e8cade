package main

import "github.com/alecthomas/kong"

var (
	// Version is set via ldflags when building.
	Version = ""

	cli struct {
		Version kong.VersionFlag `help:"Show version information"`
		Globals
		Commands
	}
)

func main() {
	ctx := kong.Parse(&cli,
		kong.Vars{
			"version": buildVersion(),
		},
		kong.Name("bookkeeping"),
		kong.Description("Batch jobs for the bookkeeping engine."),
		kong.UsageOnError(),
		kong.Bind(&cli.Globals),
	)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

func buildVersion() string {
	if Version == "" {
		return "dev"
	}
	return Version
}
