package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/erp/receipt/internal/infrastructure/auth"
)

func newTerminalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terminal",
		Short: "Manage POS terminal credentials",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "hash-secret [secret]",
		Short: "Print the bcrypt hash to configure as a terminal secret_hash",
		Long: `hash-secret hashes the secret given as argument, or the first line of
stdin when no argument is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var secret string
			if len(args) == 1 {
				secret = args[0]
			} else {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				if !scanner.Scan() {
					if err := scanner.Err(); err != nil {
						return err
					}
					return errors.New("no secret given")
				}
				secret = strings.TrimSpace(scanner.Text())
			}

			hash, err := auth.HashSecret(secret)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	})
	return cmd
}
