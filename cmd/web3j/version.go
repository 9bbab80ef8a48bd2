package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperledger/web3j-cli-sub000/pkg/version"
)

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// version needs no configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(*cobra.Command, []string) error {
			versionJSON, err := json.Marshal(version.GetVersion())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, string(versionJSON))
			return nil
		},
	}
}
