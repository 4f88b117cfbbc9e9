package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/obtainable/pkg/obtainable"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "obtainctl",
		Short:         "Inspect and invalidate obtainable cache entries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}
	root.SetOut(a.out)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", getEnv("OBTAINABLE_CONFIG", ""),
		"config file (default: obtainable.yaml in /etc/obtainable, $HOME/.obtainable or .)")
	root.PersistentFlags().StringVar(&a.redisAddr, "redis", "", "Redis address (overrides redis.addr)")

	root.AddCommand(
		newKeyCmd(a),
		newKeysCmd(a),
		newFlushCmd(a),
		newFlushAllCmd(a),
		newPurgeCmd(a),
		newServeCmd(a),
	)
	return root
}

func newKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Render and parse cache keys",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "build <owner> <key> [name=value...]",
		Short: "Print the cache key for a semantic key and arguments",
		Example: `  obtainctl key build user orders id=42 status=open
  obtainctl key build app/obtainables.User orders id=42 status=open limit=10`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := a.offline(args[0])
			if err != nil {
				return err
			}
			params, err := parseArgs(args[2:])
			if err != nil {
				return err
			}
			cacheKey, err := o.BuildKey(args[1], params)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cacheKey)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "parse <owner> <cache-key>",
		Short: "Map a cache key back to its semantic key and arguments",
		Long: `Map a cache key back to its semantic key and arguments.

Only keys with a configured template can be recognised; computations
are bound in application code and unknown here.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := a.offline(args[0])
			if err != nil {
				return err
			}
			r, err := o.ReverseKeyMap(args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "key:      %s\n", r.Key)
			fmt.Fprintf(out, "template: %s\n", r.Template)
			fmt.Fprintf(out, "args:     %s\n", formatArgs(r.Args))
			fmt.Fprintf(out, "tags:     %v\n", o.Tags(r.Key))
			return nil
		},
	})

	return cmd
}

func newKeysCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keys <owner> [key]",
		Short: "List live cache keys of an owner type or one semantic key",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := a.online(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			key := ""
			if len(args) == 2 {
				key = args[1]
			}
			keys, err := o.Keys(cmd.Context(), key)
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}

func newFlushCmd(a *app) *cobra.Command {
	var pairs []string

	cmd := &cobra.Command{
		Use:   "flush <owner> <key>...",
		Short: "Flush every variant of keys, or one variant with --arg",
		Example: `  obtainctl flush user orders
  obtainctl flush user orders --arg id=42 --arg status=open`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := a.online(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			params, err := parseArgs(pairs)
			if err != nil {
				return err
			}
			ok, err := o.Flush(cmd.Context(), args[1:], params)
			if err != nil {
				return err
			}
			return report(cmd, ok, "flushed %v", args[1:])
		},
	}
	cmd.Flags().StringArrayVar(&pairs, "arg", nil, "name=value argument selecting a single variant (repeatable)")
	return cmd
}

func newFlushAllCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "flush-all <owner>",
		Short: "Flush every entry of an owner type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := a.online(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ok, err := o.FlushAll(cmd.Context())
			if err != nil {
				return err
			}
			return report(cmd, ok, "flushed %s", o.OwnerTag())
		},
	}
}

func newPurgeCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Flush every entry of every owner type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("purge removes every cached entry; pass --yes to confirm")
			}
			reg, err := a.onlineRegistry(cmd.Context())
			if err != nil {
				return err
			}
			ok, err := reg.Purge(cmd.Context())
			if err != nil {
				return err
			}
			return report(cmd, ok, "purged %s", obtainable.GlobalTag)
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the purge")
	return cmd
}

func report(cmd *cobra.Command, ok bool, format string, args ...any) error {
	if !ok {
		return fmt.Errorf("not every entry was removed")
	}
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
	return nil
}
