package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/imeiguard/cmd/app/commands"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-encryption-keys",
			Usage: "Generate the AES-256 key and fixed IV used for identifier encryption",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "kms-key-uri",
					Aliases: []string{"k"},
					Value:   "",
					Usage:   "KMS keeper URI used to wrap the key material (omit for plain base64 output)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunCreateEncryptionKeys(ctx, commands.DefaultIO().Writer, cmd.String("kms-key-uri"))
			},
		},
	}
}
