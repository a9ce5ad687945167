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
	"github.com/spf13/cobra"
)

func (a *app) newCurvesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "curves",
		Short: "List the curves and key sizes the engine supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := a.provider.Registry()
			return a.printer().PrintCurves(r.EnabledCurves(), r.EnabledKeySizes(), r.Features())
		},
	}
}
