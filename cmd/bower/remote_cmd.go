package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bower-dev/bower/internal/output"
	"github.com/bower-dev/bower/internal/remote"
	"github.com/bower-dev/bower/internal/ui/static"
)

func newRemoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remote",
		Short:   "Manage the remote-access policy",
		GroupID: GroupRemote,
		Long: `Manage the workspace's remote bindings.

Every remote is read-only unless explicitly bound read-write, and only
one remote (the fork) may ever be writable. origin and upstream are
always read-only regardless of bindings. An unbound remote denies all
writes.`,
	}

	cmd.AddCommand(newRemoteBindCmd())
	cmd.AddCommand(newRemoteListCmd())
	cmd.AddCommand(newRemoteCheckCmd())

	return cmd
}

func newRemoteBindCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "bind <name> <url>",
		Short: "Bind a remote name to a URL with a permission tag",
		Args:  cobra.ExactArgs(2),
		Example: `  bower remote bind fork git@github.com:me/repo.git --write
  bower remote bind mirror https://github.com/org/repo.git`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			policy, err := remote.Load(ws)
			if err != nil {
				return err
			}

			perm := remote.ReadOnly
			if write {
				perm = remote.ReadWrite
			}
			if err := policy.Bind(args[0], args[1], perm); err != nil {
				return err
			}
			if err := policy.Save(ws); err != nil {
				return err
			}

			out.Printf("Bound %s -> %s (%s)\n", args[0], args[1], perm)
			return nil
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "Bind read-write (allowed for exactly one non-protected remote)")

	return cmd
}

func newRemoteListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List remote bindings",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			policy, err := remote.Load(ws)
			if err != nil {
				return err
			}

			if jsonOutput {
				return out.JSON(policy.Bindings)
			}

			if len(policy.Bindings) == 0 {
				out.Println("No remotes bound; all writes are denied")
				return nil
			}

			rows := make([][]string, len(policy.Bindings))
			for i, b := range policy.Bindings {
				rows[i] = []string{b.Name, b.URL, string(b.Permission)}
			}
			out.Print(static.RenderTable([]string{"NAME", "URL", "PERMISSION"}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newRemoteCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <name> <operation>",
		Short: "Check whether an operation on a remote would be allowed",
		Args:  cobra.ExactArgs(2),
		Long: `Check an operation (fetch, view, push, pr-create) against the
policy without performing it. Exits non-zero when the operation would
be denied.`,
		Example: `  bower remote check fork push
  bower remote check origin push    # always denied`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			policy, err := remote.Load(ws)
			if err != nil {
				return err
			}

			op := remote.Operation(args[1])
			switch op {
			case remote.OpFetch, remote.OpView, remote.OpPush, remote.OpCreatePR:
			default:
				return fmt.Errorf("unknown operation %q (fetch, view, push, pr-create)", args[1])
			}

			if err := policy.Authorize(args[0], op); err != nil {
				return err
			}
			out.Printf("%s on %s: allowed\n", op, args[0])
			return nil
		},
	}
}
