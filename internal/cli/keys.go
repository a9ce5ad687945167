// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keypairgen.
//
// go-keypairgen is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newKeysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage saved key pairs",
	}
	cmd.AddCommand(a.newKeysListCommand(), a.newKeysShowCommand(), a.newKeysDeleteCommand(), a.newKeysAgreeCommand())
	return cmd
}

func (a *app) newKeysListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved key pairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.keyStore()
			if err != nil {
				return err
			}
			keys, err := store.List()
			if err != nil {
				return fmt.Errorf("failed to list keys: %w", err)
			}
			return a.printer().PrintKeyList(keys)
		},
	}
}

func (a *app) newKeysShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a saved key pair's metadata and public key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.keyStore()
			if err != nil {
				return err
			}
			meta, err := store.Metadata(args[0])
			if err != nil {
				return err
			}
			pubPEM, err := store.PublicPEM(meta.ID)
			if err != nil {
				return err
			}
			return a.printer().PrintKeyInfo(meta, pubPEM)
		},
	}
}

func (a *app) newKeysDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a saved key pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.keyStore()
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			return a.printer().PrintSuccess(fmt.Sprintf("Deleted key pair %s", args[0]))
		},
	}
}
