package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cratemod/pkg/errors"
)

type rmOptions struct {
	dev   bool
	build bool

	target       string
	manifestPath string
	dryRun       bool
	quiet        bool
}

// newRmCmd creates the "rm" command.
func newRmCmd() *cobra.Command {
	opts := &rmOptions{}

	cmd := &cobra.Command{
		Use:     "rm [flags] <crate>...",
		Aliases: []string{"remove"},
		Short:   "Remove dependencies from a Cargo.toml manifest",
		Long: `Remove dependencies from a Cargo.toml manifest.

Entries are removed from the chosen section, empty section tables are
dropped, and [features] entries that only exist to activate the removed
dependency are pruned.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRm(cmd.Context(), args, opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.dev, "dev", "D", false, "remove from [dev-dependencies]")
	flags.BoolVarP(&opts.build, "build", "B", false, "remove from [build-dependencies]")
	flags.StringVar(&opts.target, "target", "", "remove from the section for the given target triple or cfg() expression")
	flags.StringVar(&opts.manifestPath, "manifest-path", "", "path to the Cargo.toml to edit")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "show what would change without writing the manifest")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress status output")

	return cmd
}

func runRm(_ context.Context, args []string, opts *rmOptions) error {
	if opts.dev && opts.build {
		return errors.New(errors.ErrCodeConflictingArgs, "cannot specify both --dev and --build")
	}

	m, err := loadManifest(opts.manifestPath)
	if err != nil {
		return err
	}

	sectionPath, kind, targetSuffix := depSection(opts.dev, opts.build, opts.target)
	for _, name := range args {
		if err := validateCrateName(name); err != nil {
			return err
		}
		if err := m.RemoveFromTable(sectionPath, name); err != nil {
			if errors.Is(err, errors.ErrCodeTableNotFound) || errors.Is(err, errors.ErrCodeDepNotFound) {
				return errors.New(errors.ErrCodeDepNotFound,
					"the dependency `%s` could not be found in `%s`%s", name, kind, targetSuffix)
			}
			return err
		}
		m.GcDep(name)
		if !opts.quiet {
			printAction("Removing", "%s from %s%s", name, kind, targetSuffix)
		}
	}

	if opts.dryRun {
		if !opts.quiet {
			printWarning("dry run: %s not modified", m.Path)
		}
		return nil
	}
	return m.Write()
}
