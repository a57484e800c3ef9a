package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/cratemod/pkg/cache"
	"github.com/matzehuels/cratemod/pkg/errors"
	"github.com/matzehuels/cratemod/pkg/integrations"
	"github.com/matzehuels/cratemod/pkg/integrations/crates"
	"github.com/matzehuels/cratemod/pkg/io"
	"github.com/matzehuels/cratemod/pkg/manifest"
	"github.com/matzehuels/cratemod/pkg/vcs"
	"github.com/matzehuels/cratemod/pkg/workspace"
)

// cacheTTL is how long registry and git manifest responses stay cached.
const cacheTTL = 24 * time.Hour

type addOptions struct {
	dev   bool
	build bool

	target string
	rename string

	optional          bool
	noOptional        bool
	defaultFeatures   bool
	noDefaultFeatures bool
	features          []string

	registry string
	path     string
	git      string
	branch   string
	tag      string
	rev      string

	manifestPath string
	sortSection  bool
	dryRun       bool
	offline      bool
	interactive  bool
	quiet        bool
}

// newAddCmd creates the "add" command.
func newAddCmd() *cobra.Command {
	opts := &addOptions{}

	cmd := &cobra.Command{
		Use:   "add [flags] <crate>[@<req>]...",
		Short: "Add dependencies to a Cargo.toml manifest",
		Long: `Add dependencies to a Cargo.toml manifest.

Crates are named with an optional version requirement (serde@1.0). Bare
names resolve to the latest published version on crates.io. The existing
formatting and comments of the manifest are preserved; an entry that
already exists is updated in place.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd.Context(), args, opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.dev, "dev", "D", false, "add to [dev-dependencies]")
	flags.BoolVarP(&opts.build, "build", "B", false, "add to [build-dependencies]")
	flags.StringVar(&opts.target, "target", "", "add to the section for the given target triple or cfg() expression")
	flags.StringVar(&opts.rename, "rename", "", "use this name for the dependency key (renamed dependency)")
	flags.BoolVar(&opts.optional, "optional", false, "mark the dependency as optional")
	flags.BoolVar(&opts.noOptional, "no-optional", false, "mark the dependency as not optional")
	flags.BoolVar(&opts.defaultFeatures, "default-features", false, "enable the dependency's default features")
	flags.BoolVar(&opts.noDefaultFeatures, "no-default-features", false, "disable the dependency's default features")
	flags.StringArrayVarP(&opts.features, "features", "F", nil, "features to activate (comma or space separated, repeatable)")
	flags.StringVar(&opts.registry, "registry", "", "registry to use, as named in .cargo/config.toml")
	flags.StringVar(&opts.path, "path", "", "filesystem path to a local crate to add")
	flags.StringVar(&opts.git, "git", "", "git repository URL to add the crate from")
	flags.StringVar(&opts.branch, "branch", "", "branch to use when adding from git")
	flags.StringVar(&opts.tag, "tag", "", "tag to use when adding from git")
	flags.StringVar(&opts.rev, "rev", "", "revision to use when adding from git")
	flags.StringVar(&opts.manifestPath, "manifest-path", "", "path to the Cargo.toml to edit")
	flags.BoolVar(&opts.sortSection, "sort", false, "sort the dependency section alphabetically")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "show what would change without writing the manifest")
	flags.BoolVar(&opts.offline, "offline", false, "do not contact the network")
	flags.BoolVar(&opts.interactive, "interactive", false, "pick features interactively")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress status output")

	return cmd
}

func runAdd(ctx context.Context, args []string, opts *addOptions) error {
	if err := validateAddArgs(args, opts); err != nil {
		return err
	}

	m, err := loadManifest(opts.manifestPath)
	if err != nil {
		return err
	}

	backend, err := newCache(ctx, false)
	if err != nil {
		backend = cache.NewNullCache()
	}
	defer backend.Close()

	resolver := &crateResolver{
		manifest: m,
		opts:     opts,
		crates:   crates.NewClient(backend, cacheTTL),
		vcs:      vcs.NewFetcher(backend, cacheTTL),
	}
	if ws, err := workspace.Find(m.Dir()); err == nil {
		resolver.workspace = ws
	}

	// --path with no crate names adds the named crate itself.
	if len(args) == 0 {
		name, err := resolver.pathCrateName()
		if err != nil {
			return err
		}
		args = []string{name}
	}

	deps, err := resolver.resolveAll(ctx, args)
	if err != nil {
		return err
	}

	sectionPath, kind, targetSuffix := depSection(opts.dev, opts.build, opts.target)
	sectionName := kind + targetSuffix
	for _, dep := range deps {
		if opts.interactive && len(dep.AvailableFeatures) > 0 {
			selected, err := pickFeatures(dep.Name, dep.AvailableFeatures, dep.Features)
			if err != nil {
				return err
			}
			dep.Features = selected
		}
		if err := validateFeatures(dep); err != nil {
			return err
		}
		if err := m.InsertIntoTable(sectionPath, dep); err != nil {
			return err
		}
		if !opts.quiet {
			printAddStatus(dep, sectionName, opts.optional)
		}
	}

	if opts.sortSection {
		if table, err := m.GetTable(sectionPath); err == nil {
			table.SortKeys()
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

func validateAddArgs(args []string, opts *addOptions) error {
	conflict := func(a, b string) error {
		return errors.New(errors.ErrCodeConflictingArgs, "cannot specify both %s and %s", a, b)
	}
	switch {
	case opts.dev && opts.build:
		return conflict("--dev", "--build")
	case opts.optional && opts.noOptional:
		return conflict("--optional", "--no-optional")
	case opts.defaultFeatures && opts.noDefaultFeatures:
		return conflict("--default-features", "--no-default-features")
	case opts.git != "" && opts.path != "":
		return conflict("--git", "--path")
	case opts.git != "" && opts.registry != "":
		return conflict("--git", "--registry")
	case opts.registry != "" && opts.path != "":
		return conflict("--registry", "--path")
	}

	refs := 0
	for _, ref := range []string{opts.branch, opts.tag, opts.rev} {
		if ref != "" {
			refs++
		}
	}
	if refs > 1 {
		return errors.New(errors.ErrCodeConflictingArgs, "cannot specify more than one of --branch, --tag and --rev")
	}
	if refs > 0 && opts.git == "" {
		return errors.New(errors.ErrCodeConflictingArgs, "--branch, --tag and --rev require --git")
	}

	if len(args) > 1 {
		if opts.rename != "" {
			return errors.New(errors.ErrCodeConflictingArgs, "cannot add multiple crates with --rename")
		}
		if opts.git != "" {
			return errors.New(errors.ErrCodeConflictingArgs, "cannot add multiple crates from the same git repository")
		}
	}
	if len(args) == 0 && opts.path == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no crates specified; name at least one crate or use --path")
	}

	if opts.git != "" {
		if err := errors.ValidateGitURL(opts.git); err != nil {
			return err
		}
	}
	if opts.registry != "" {
		if err := errors.ValidateRegistryName(opts.registry); err != nil {
			return err
		}
	}
	return nil
}

// loadManifest opens the manifest named by --manifest-path, defaulting
// to the Cargo.toml found by walking up from the working directory.
func loadManifest(path string) (*manifest.LocalManifest, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "unable to determine working directory")
		}
		path, err = io.FindManifest(cwd)
		if err != nil {
			return nil, err
		}
	}
	return manifest.Load(path)
}

// depSection maps the section flags to a table path, the section kind,
// and a " for target `T`" suffix used in status and error messages.
func depSection(dev, build bool, target string) (path []string, kind, suffix string) {
	kind = "dependencies"
	if dev {
		kind = "dev-dependencies"
	} else if build {
		kind = "build-dependencies"
	}
	if target == "" {
		return []string{kind}, kind, ""
	}
	return []string{"target", target, kind}, kind, fmt.Sprintf(" for target `%s`", target)
}

// crateResolver turns crate specs into fully populated dependencies.
type crateResolver struct {
	manifest  *manifest.LocalManifest
	workspace *workspace.Workspace
	opts      *addOptions
	crates    *crates.Client
	vcs       *vcs.Fetcher
}

// resolveAll resolves every crate spec concurrently, preserving argument
// order in the result.
func (r *crateResolver) resolveAll(ctx context.Context, args []string) ([]*manifest.Dependency, error) {
	deps := make([]*manifest.Dependency, len(args))

	var spin *Spinner
	if !r.opts.quiet && !r.opts.offline {
		spin = newSpinnerWithContext(ctx, "Resolving crates...")
		spin.Start()
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range args {
		i, spec := i, spec
		g.Go(func() error {
			dep, err := r.resolve(gctx, spec)
			if err != nil {
				return err
			}
			deps[i] = dep
			return nil
		})
	}
	err := g.Wait()
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return nil, err
	}
	return deps, nil
}

func (r *crateResolver) resolve(ctx context.Context, spec string) (*manifest.Dependency, error) {
	name, req, err := parseCrateSpec(spec)
	if err != nil {
		return nil, err
	}

	dep := manifest.NewDependency(name)
	if r.opts.rename != "" {
		dep.Rename = &r.opts.rename
	}
	if r.opts.optional {
		v := true
		dep.Optional = &v
	} else if r.opts.noOptional {
		v := false
		dep.Optional = &v
	}
	if r.opts.defaultFeatures {
		v := true
		dep.DefaultFeatures = &v
	} else if r.opts.noDefaultFeatures {
		v := false
		dep.DefaultFeatures = &v
	}
	dep.Features = splitFeatures(r.opts.features)

	switch {
	case r.opts.git != "":
		if req != "" {
			return nil, errors.New(errors.ErrCodeConflictingArgs, "cannot specify a version requirement when adding from git")
		}
		if err := r.fromGit(ctx, dep); err != nil {
			return nil, err
		}
	case r.opts.path != "":
		if err := r.fromPath(dep); err != nil {
			return nil, err
		}
	default:
		if member, ok := r.workspaceMember(name); ok && req == "" && r.opts.registry == "" {
			dep.Source = manifest.NewPathSource(member.Dir).SetVersion(member.Version)
		} else if err := r.fromRegistry(ctx, dep, req); err != nil {
			return nil, err
		}
	}
	return dep, nil
}

func (r *crateResolver) fromGit(ctx context.Context, dep *manifest.Dependency) error {
	src := manifest.NewGitSource(r.opts.git)
	switch {
	case r.opts.branch != "":
		src.SetBranch(r.opts.branch)
	case r.opts.tag != "":
		src.SetTag(r.opts.tag)
	case r.opts.rev != "":
		src.SetRev(r.opts.rev)
	}
	dep.Source = src

	if r.opts.offline {
		return nil
	}
	remote, err := r.vcs.FetchCrate(ctx, r.opts.git, src.Ref(), false)
	if err != nil {
		// The repository is advisory here: without it the dependency is
		// still written, just without feature validation.
		return nil
	}
	if features, err := remote.Features(); err == nil {
		dep.AvailableFeatures = features
	}
	return nil
}

func (r *crateResolver) fromPath(dep *manifest.Dependency) error {
	name, version, features, err := localCrate(r.opts.path)
	if err != nil {
		return err
	}
	if name != dep.Name {
		return errors.New(errors.ErrCodeInvalidSpec,
			"the crate at `%s` is named `%s`, not `%s`", r.opts.path, name, dep.Name)
	}
	abs, err := filepath.Abs(r.opts.path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "invalid path %s", r.opts.path)
	}
	src := manifest.NewPathSource(abs)
	if version != "" {
		src.SetVersion(version)
	}
	dep.Source = src
	dep.AvailableFeatures = features
	return nil
}

func (r *crateResolver) fromRegistry(ctx context.Context, dep *manifest.Dependency, req string) error {
	if r.opts.registry != "" {
		if req == "" {
			return errors.New(errors.ErrCodeInvalidSpec,
				"a version requirement is required when adding `%s` from the `%s` registry", dep.Name, r.opts.registry)
		}
		ok, err := workspace.HasRegistry(r.manifest.Dir(), r.opts.registry)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New(errors.ErrCodeNotFound,
				"the registry `%s` is not defined in any reachable .cargo/config.toml", r.opts.registry)
		}
		dep.Registry = &r.opts.registry
		dep.Source = manifest.NewRegistrySource(req)
		return nil
	}

	if r.opts.offline {
		if req == "" {
			req = r.knownVersion(dep.Name)
		}
		if req == "" {
			return errors.New(errors.ErrCodeNetwork,
				"cannot resolve the latest version of `%s` while offline; specify a version requirement", dep.Name)
		}
		dep.Source = manifest.NewRegistrySource(req)
		return nil
	}

	resolved, err := r.crates.Resolve(ctx, dep.Name, req, false)
	if err != nil {
		switch {
		case stderrors.Is(err, integrations.ErrNotFound):
			return errors.Wrap(errors.ErrCodeCrateNotFound, err, "the crate `%s` could not be found on crates.io", dep.Name)
		case stderrors.Is(err, crates.ErrNoMatch):
			return errors.Wrap(errors.ErrCodeCrateNotFound, err, "no published version of `%s` matches `%s`", dep.Name, req)
		case req != "":
			// A pinned requirement can be written even when the registry
			// is unreachable.
			dep.Source = manifest.NewRegistrySource(req)
			return nil
		}
		return errors.Wrap(errors.ErrCodeNetwork, err, "unable to resolve crate `%s`", dep.Name)
	}

	version := req
	if version == "" {
		version = resolved.Num
	}
	dep.Source = manifest.NewRegistrySource(version)
	dep.AvailableFeatures = resolved.Features
	return nil
}

// knownVersion reuses a version requirement already present for the same
// crate elsewhere in the manifest.
func (r *crateResolver) knownVersion(name string) string {
	for _, dep := range r.manifest.DependencyVersions() {
		if dep.Name != name {
			continue
		}
		if version, ok := dep.Version(); ok {
			return version
		}
	}
	return ""
}

func (r *crateResolver) workspaceMember(name string) (*workspace.Member, bool) {
	if r.workspace == nil {
		return nil, false
	}
	member, ok := r.workspace.Member(name)
	if !ok {
		return nil, false
	}
	// Adding a crate to itself makes no sense; skip the self-member.
	if self, ok := r.manifest.PackageName(); ok && self == name {
		return nil, false
	}
	return member, true
}

// pathCrateName reads the package name of the crate --path points at.
func (r *crateResolver) pathCrateName() (string, error) {
	name, _, _, err := localCrate(r.opts.path)
	return name, err
}

// localCrate reads identity and features of the crate in dir.
func localCrate(dir string) (name, version string, features map[string][]string, err error) {
	local, err := manifest.Load(filepath.Join(dir, "Cargo.toml"))
	if err != nil {
		return "", "", nil, err
	}
	name, ok := local.PackageName()
	if !ok {
		return "", "", nil, errors.New(errors.ErrCodeMissingPackage,
			"the manifest at `%s` has no `package` section", dir)
	}
	version, _ = local.PackageVersion()
	features, ferr := local.Features()
	if ferr != nil {
		features = nil
	}
	return name, version, features, nil
}

// validateFeatures rejects requested features the crate does not have.
// Validation only happens when the available set could be discovered.
func validateFeatures(dep *manifest.Dependency) error {
	if len(dep.AvailableFeatures) == 0 || len(dep.Features) == 0 {
		return nil
	}
	for _, f := range dep.Features {
		if _, ok := dep.AvailableFeatures[f]; !ok {
			return errors.New(errors.ErrCodeInvalidInput,
				"the crate `%s` does not have the feature `%s`; available features: %s",
				dep.Name, f, joinSorted(featureNames(dep.AvailableFeatures)))
		}
	}
	return nil
}

func printAddStatus(dep *manifest.Dependency, sectionName string, optional bool) {
	section := sectionName
	if optional {
		section = "optional " + section
	}
	printAction("Adding", "%s %s to %s", dep.Name, describeSource(dep), section)

	if len(dep.AvailableFeatures) == 0 {
		return
	}
	requested := map[string]bool{}
	for _, f := range dep.Features {
		requested[f] = true
	}
	for _, f := range sortedFeatureNames(dep.AvailableFeatures) {
		if f == "default" {
			continue
		}
		printFeature(f, requested[f])
	}
}

// describeSource renders the source for status output: a version for
// registry deps, the location otherwise.
func describeSource(dep *manifest.Dependency) string {
	switch src := dep.Source.(type) {
	case *manifest.RegistrySource:
		return "v" + src.Version
	case *manifest.PathSource:
		return fmt.Sprintf("(path: %s)", src.Path)
	case *manifest.GitSource:
		return fmt.Sprintf("(git: %s)", src.String())
	}
	return ""
}

func featureNames(features map[string][]string) []string {
	names := make([]string, 0, len(features))
	for name := range features {
		names = append(names, name)
	}
	return names
}

func sortedFeatureNames(features map[string][]string) []string {
	names := featureNames(features)
	sort.Strings(names)
	return names
}

func joinSorted(names []string) string {
	sort.Strings(names)
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
