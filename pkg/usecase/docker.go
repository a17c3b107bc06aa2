package usecase

import (
	"context"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"gopkg.in/yaml.v3"

	"github.com/m-mizutani/bellwether/pkg/domain/model"
	"github.com/m-mizutani/bellwether/pkg/domain/types"
)

// DockerDetector extracts image tag changes from Dockerfile and compose files
type DockerDetector struct{}

// NewDockerDetector creates a new DockerDetector
func NewDockerDetector() *DockerDetector {
	return &DockerDetector{}
}

// FileRevision holds a file's content at the PR's base and head revisions
type FileRevision struct {
	Base string
	Head string
}

// IsDockerFile reports whether a path matches the Docker file patterns
func IsDockerFile(filename string) bool {
	base := path.Base(filename)
	switch {
	case strings.HasPrefix(base, "Dockerfile"):
		return true
	case strings.HasPrefix(base, "docker-compose") && (strings.HasSuffix(base, ".yml") || strings.HasSuffix(base, ".yaml")):
		return true
	case base == "compose.yml" || base == "compose.yaml":
		return true
	}
	return false
}

// Detect diffs base and head revisions of Docker-pattern files into per-image
// dependency changes. Identical (name, current, new, file) tuples collapse;
// the same change in different files is reported once per file.
func (d *DockerDetector) Detect(ctx context.Context, files map[string]FileRevision) []model.DependencyChange {
	logger := ctxlog.From(ctx)

	var changes []model.DependencyChange
	seen := map[string]bool{}

	for filename, rev := range files {
		if !IsDockerFile(filename) {
			continue
		}

		baseImages := imagesByName(filename, rev.Base)
		headImages := imagesByName(filename, rev.Head)

		for name, head := range headImages {
			base, ok := baseImages[name]
			if !ok || base.Reference() == head.Reference() {
				continue
			}

			change := model.DependencyChange{
				Name:           name,
				CurrentVersion: base.VersionString(),
				NewVersion:     head.VersionString(),
				Manager:        types.ManagerDocker,
				UpdateType:     ClassifyTagChange(base, head),
				SourceFile:     filename,
			}
			if seen[change.Key()] {
				continue
			}
			seen[change.Key()] = true
			changes = append(changes, change)
		}
	}

	if len(changes) > 0 {
		logger.Info("Detected Docker image changes", "count", len(changes))
	}

	return changes
}

// imagesByName collects all external image references in a file, keyed by
// the image name (registry/namespace/name without tag).
func imagesByName(filename, content string) map[string]*ImageReference {
	refs := map[string]*ImageReference{}

	var images []*ImageReference
	base := path.Base(filename)
	if strings.HasPrefix(base, "Dockerfile") {
		images = ParseDockerfile(content)
	} else {
		for _, image := range ParseComposeFile(content) {
			if ref := ParseImageReference(image); ref != nil {
				images = append(images, ref)
			}
		}
	}

	for _, ref := range images {
		refs[ref.FullName()] = ref
	}
	return refs
}

// ImageReference is a parsed container image reference
type ImageReference struct {
	Registry  string
	Namespace string
	Name      string
	Tag       string
	Digest    string
}

// FullName returns the reference without tag or digest
func (r *ImageReference) FullName() string {
	parts := make([]string, 0, 3)
	if r.Registry != "" {
		parts = append(parts, r.Registry)
	}
	if r.Namespace != "" {
		parts = append(parts, r.Namespace)
	}
	parts = append(parts, r.Name)
	return strings.Join(parts, "/")
}

// VersionString returns the tag, or the digest when no tag is present
func (r *ImageReference) VersionString() string {
	if r.Tag != "" {
		return r.Tag
	}
	return r.Digest
}

// Reference returns the complete reference string
func (r *ImageReference) Reference() string {
	ref := r.FullName()
	if r.Tag != "" {
		ref += ":" + r.Tag
	}
	if r.Digest != "" {
		ref += "@" + r.Digest
	}
	return ref
}

var imageNameRe = regexp.MustCompile(`^[\w.\-]+$`)

// ParseImageReference parses [registry/][namespace/]name[:tag|@digest].
// The first path segment is a registry only when it contains a dot or colon.
// Malformed references return nil rather than partial garbage.
func ParseImageReference(ref string) *ImageReference {
	ref = strings.Trim(strings.TrimSpace(ref), `"'`)
	if ref == "" || strings.ContainsAny(ref, " \t") {
		return nil
	}

	var digest string
	if idx := strings.Index(ref, "@"); idx >= 0 {
		digest = ref[idx+1:]
		ref = ref[:idx]
		if !strings.HasPrefix(digest, "sha256:") {
			return nil
		}
	}

	segments := strings.Split(ref, "/")
	result := &ImageReference{Digest: digest}

	if len(segments) > 1 && (strings.Contains(segments[0], ".") || strings.Contains(segments[0], ":")) {
		result.Registry = segments[0]
		segments = segments[1:]
	}

	last := segments[len(segments)-1]
	if len(segments) > 1 {
		result.Namespace = strings.Join(segments[:len(segments)-1], "/")
	}

	name := last
	if idx := strings.LastIndex(last, ":"); idx >= 0 {
		name = last[:idx]
		result.Tag = last[idx+1:]
		if result.Tag == "" {
			return nil
		}
	}
	if name == "" || !imageNameRe.MatchString(name) {
		return nil
	}
	result.Name = name

	return result
}

var (
	fromLineRe = regexp.MustCompile(`(?i)^\s*FROM\s+(?:--platform=\S+\s+)?(\S+)(?:\s+AS\s+(\S+))?\s*$`)
	copyFromRe = regexp.MustCompile(`(?i)^\s*COPY\s+--from=(\S+)\s+`)
)

// ParseDockerfile scans for FROM and COPY --from external image references.
// COPY --from references to build stage names or numeric indices are ignored.
func ParseDockerfile(content string) []*ImageReference {
	var refs []*ImageReference

	for _, line := range strings.Split(content, "\n") {
		if m := fromLineRe.FindStringSubmatch(line); m != nil {
			if ref := ParseImageReference(m[1]); ref != nil {
				refs = append(refs, ref)
			}
			continue
		}

		if m := copyFromRe.FindStringSubmatch(line); m != nil {
			from := m[1]
			// A value without a registry, namespace, tag, or digest separator
			// is a stage name or index, whether or not it was declared with AS.
			if !strings.ContainsAny(from, "/:@") {
				continue
			}
			if ref := ParseImageReference(from); ref != nil {
				refs = append(refs, ref)
			}
		}
	}

	return refs
}

type composeFile struct {
	Services map[string]struct {
		Image string `yaml:"image"`
	} `yaml:"services"`
}

// ParseComposeFile extracts services.<name>.image values. Invalid YAML
// yields an empty result rather than an error; services without an image
// key produce no entry.
func ParseComposeFile(content string) map[string]string {
	var parsed composeFile
	if err := yaml.Unmarshal([]byte(content), &parsed); err != nil {
		return map[string]string{}
	}

	images := map[string]string{}
	for name, svc := range parsed.Services {
		if svc.Image != "" {
			images[name] = svc.Image
		}
	}
	return images
}

var numericTagRe = regexp.MustCompile(`^v?(\d+)(?:\.(\d+))?(?:\.(\d+))?$`)

// ClassifyTagChange classifies an image version change. Dotted numeric tags
// classify by the first differing component, where a patch-component
// difference reports minor (known heuristic limitation, kept deliberately).
// Digest-to-digest changes and everything else classify as patch.
func ClassifyTagChange(current, next *ImageReference) types.BumpType {
	if current.Tag == "" && next.Tag == "" && current.Digest != "" && next.Digest != "" {
		return types.BumpPatch
	}

	cur := numericTagRe.FindStringSubmatch(current.Tag)
	nxt := numericTagRe.FindStringSubmatch(next.Tag)
	if cur == nil || nxt == nil {
		return types.BumpPatch
	}

	for i := 1; i <= 3; i++ {
		a, _ := strconv.Atoi(cur[i])
		b, _ := strconv.Atoi(nxt[i])
		if a == b {
			continue
		}
		switch i {
		case 1:
			return types.BumpMajor
		default:
			return types.BumpMinor
		}
	}
	return types.BumpPatch
}
