package main

import (
	"github.com/spf13/cobra"

	"github.com/bower-dev/bower/internal/doctor"
)

func newDoctorCmd() *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:     "doctor",
		Short:   "Audit and repair workspace bookkeeping",
		GroupID: GroupUtility,
		Args:    cobra.NoArgs,
		Long: `Check the registry, retarget records, backup refs, and cache
bindings against what git and the filesystem actually hold.

With --fix, the registry is rebuilt from the worktree layout (it is
derived state: nothing in it is authoritative), stale records and refs
are removed, and missing cache bindings are restored.`,
		Example: `  bower doctor
  bower doctor --fix`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			return doctor.Run(cmd.Context(), ws, fix)
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Repair the issues found")

	return cmd
}
