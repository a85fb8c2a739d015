package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/imeiguard/cmd/app/commands"
	"github.com/allisson/imeiguard/internal/app"
	"github.com/allisson/imeiguard/internal/config"
)

func getAccountCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-account",
			Usage: "Create an account directly in the database (bootstrap the first admin)",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "username",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "Account username",
				},
				&cli.StringFlag{
					Name:     "password",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Account password",
				},
				&cli.StringFlag{
					Name:    "role",
					Aliases: []string{"r"},
					Value:   "admin",
					Usage:   "Account role (superadmin, admin, or user)",
				},
				&cli.StringFlag{
					Name:    "tenant-id",
					Aliases: []string{"t"},
					Value:   "",
					Usage:   "Tenant ID (UUID, required for user-role accounts)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				accountUseCase, err := container.AccountUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateAccount(
					ctx,
					accountUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("username"),
					cmd.String("password"),
					cmd.String("role"),
					cmd.String("tenant-id"),
					cmd.String("format"),
				)
			},
		},
	}
}
