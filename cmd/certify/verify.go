package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var errNotVerified = errors.New("certificate payload hash could not be verified by the trust service")

func newVerifyCommand(services serviceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <certificate>",
		Short: "Verify a certificate and print its payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, certifier, logger, err := setup(cmd, services, false)
			if err != nil {
				return err
			}

			res, err := certifier.Verify(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return logFailure(logger, err)
			}
			if !res.Verified {
				return errNotVerified
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Payload.String())
			return err
		},
	}
}
