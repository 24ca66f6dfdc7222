package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pageassets/cmd/pageassets/commands"
	"git.home.luguber.info/inful/pageassets/internal/foundation/errors"
	"git.home.luguber.info/inful/pageassets/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("pageassets"),
		kong.Description("Copy the assets referenced by rendered pages into the output tree."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{}, cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
