package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newCreateCommand(services serviceFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [JSON data map]",
		Short: "Anchor a JSON object and print its certificate",
		Long: `Anchor a JSON object with the trust service and print the certificate.

The object is read from the argument, from the file given with --file, or
from standard input when the file is "-".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			data, err := readPayload(cmd, args, file)
			if err != nil {
				return err
			}

			cfg, certifier, logger, err := setup(cmd, services, true)
			if err != nil {
				return err
			}
			if err := cfg.RequireIdentity(); err != nil {
				return err
			}

			cert, err := certifier.CreateJSON(cmd.Context(), data, cfg.IdentityID)
			if err != nil {
				return logFailure(logger, err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cert)
			return err
		},
	}
	cmd.Flags().StringP("file", "i", "", "read the JSON data map from a file")
	return cmd
}

func readPayload(cmd *cobra.Command, args []string, file string) ([]byte, error) {
	switch {
	case len(args) == 1 && file != "":
		return nil, errors.New("pass the JSON data map either as argument or with --file, not both")
	case len(args) == 1:
		return []byte(args[0]), nil
	case file == "-":
		return io.ReadAll(cmd.InOrStdin())
	case file != "":
		return os.ReadFile(file)
	default:
		return nil, errors.New("missing JSON data map")
	}
}
