package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/bellwether/pkg/domain/types"
	"github.com/m-mizutani/bellwether/pkg/usecase"
)

func TestIsDockerFile(t *testing.T) {
	gt.True(t, usecase.IsDockerFile("Dockerfile"))
	gt.True(t, usecase.IsDockerFile("build/Dockerfile.prod"))
	gt.True(t, usecase.IsDockerFile("docker-compose.yml"))
	gt.True(t, usecase.IsDockerFile("docker-compose.override.yaml"))
	gt.True(t, usecase.IsDockerFile("compose.yaml"))
	gt.False(t, usecase.IsDockerFile("package.json"))
	gt.False(t, usecase.IsDockerFile("docker-compose.txt"))
}

func TestParseImageReference(t *testing.T) {
	t.Run("name with tag", func(t *testing.T) {
		ref := usecase.ParseImageReference("node:20.11.0")
		gt.V(t, ref).NotNil()
		gt.Equal(t, ref.Name, "node")
		gt.Equal(t, ref.Tag, "20.11.0")
		gt.Equal(t, ref.FullName(), "node")
	})

	t.Run("registry and namespace", func(t *testing.T) {
		ref := usecase.ParseImageReference("ghcr.io/acme/api:v2.1.0")
		gt.V(t, ref).NotNil()
		gt.Equal(t, ref.Registry, "ghcr.io")
		gt.Equal(t, ref.Namespace, "acme")
		gt.Equal(t, ref.Name, "api")
		gt.Equal(t, ref.Tag, "v2.1.0")
		gt.Equal(t, ref.FullName(), "ghcr.io/acme/api")
	})

	t.Run("namespace without registry", func(t *testing.T) {
		ref := usecase.ParseImageReference("library/alpine:3.19")
		gt.V(t, ref).NotNil()
		gt.Equal(t, ref.Registry, "")
		gt.Equal(t, ref.Namespace, "library")
	})

	t.Run("digest pinned", func(t *testing.T) {
		ref := usecase.ParseImageReference("alpine@sha256:abc123def456")
		gt.V(t, ref).NotNil()
		gt.Equal(t, ref.Tag, "")
		gt.Equal(t, ref.Digest, "sha256:abc123def456")
		gt.Equal(t, ref.VersionString(), "sha256:abc123def456")
	})

	t.Run("quoted compose value", func(t *testing.T) {
		ref := usecase.ParseImageReference(`"redis:7.2"`)
		gt.V(t, ref).NotNil()
		gt.Equal(t, ref.Name, "redis")
		gt.Equal(t, ref.Tag, "7.2")
	})

	t.Run("malformed references", func(t *testing.T) {
		gt.V(t, usecase.ParseImageReference("")).Nil()
		gt.V(t, usecase.ParseImageReference("node:")).Nil()
		gt.V(t, usecase.ParseImageReference("has space:1.0")).Nil()
		gt.V(t, usecase.ParseImageReference("alpine@notadigest")).Nil()
	})
}

func TestParseDockerfile(t *testing.T) {
	t.Run("multi-stage with external copy source", func(t *testing.T) {
		content := `FROM golang:1.22 AS build
WORKDIR /app
COPY . .
RUN go build -o server .

FROM alpine:3.19
COPY --from=build /app/server /server
COPY --from=ghcr.io/acme/certs:1.0 /certs /certs
ENTRYPOINT ["/server"]
`
		refs := usecase.ParseDockerfile(content)
		gt.Equal(t, len(refs), 3)
		gt.Equal(t, refs[0].Name, "golang")
		gt.Equal(t, refs[0].Tag, "1.22")
		gt.Equal(t, refs[1].Name, "alpine")
		gt.Equal(t, refs[2].FullName(), "ghcr.io/acme/certs")
	})

	t.Run("copy from undeclared stage name is skipped", func(t *testing.T) {
		content := "FROM node:16\nFROM nginx:1.21 AS web\nCOPY --from=build /a /b"
		refs := usecase.ParseDockerfile(content)
		gt.Equal(t, len(refs), 2)
		gt.Equal(t, refs[0].Name, "node")
		gt.Equal(t, refs[1].Name, "nginx")
	})

	t.Run("copy from numeric stage index is skipped", func(t *testing.T) {
		content := `FROM node:20
FROM nginx:1.25
COPY --from=0 /dist /usr/share/nginx/html
`
		refs := usecase.ParseDockerfile(content)
		gt.Equal(t, len(refs), 2)
	})

	t.Run("platform flag", func(t *testing.T) {
		refs := usecase.ParseDockerfile("FROM --platform=linux/amd64 python:3.12-slim\n")
		gt.Equal(t, len(refs), 1)
		gt.Equal(t, refs[0].Name, "python")
		gt.Equal(t, refs[0].Tag, "3.12-slim")
	})
}

func TestParseComposeFile(t *testing.T) {
	t.Run("services with images", func(t *testing.T) {
		content := `services:
  web:
    image: nginx:1.25.3
  db:
    image: postgres:16.1
  worker:
    build: .
`
		images := usecase.ParseComposeFile(content)
		gt.Equal(t, len(images), 2)
		gt.Equal(t, images["web"], "nginx:1.25.3")
		gt.Equal(t, images["db"], "postgres:16.1")
	})

	t.Run("invalid yaml yields empty map", func(t *testing.T) {
		images := usecase.ParseComposeFile("services:\n  web:\n image: [broken")
		gt.Equal(t, len(images), 0)
	})
}

func TestClassifyTagChange(t *testing.T) {
	tests := []struct {
		name    string
		current string
		next    string
		want    types.BumpType
	}{
		{"major component diff", "node:18.19.0", "node:20.11.0", types.BumpMajor},
		{"minor component diff", "node:20.10.0", "node:20.11.0", types.BumpMinor},
		// Patch-level tag changes report minor: the classifier only
		// distinguishes the first component from the rest.
		{"patch component diff", "node:20.11.0", "node:20.11.1", types.BumpMinor},
		{"two component patch diff", "nginx:1.25", "nginx:1.26", types.BumpMinor},
		{"v-prefixed tags", "app:v1.2.3", "app:v2.0.0", types.BumpMajor},
		{"named tag", "node:lts", "node:current", types.BumpPatch},
		{"alpine suffix tag", "node:20-alpine", "node:22-alpine", types.BumpPatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := usecase.ParseImageReference(tt.current)
			nxt := usecase.ParseImageReference(tt.next)
			gt.V(t, cur).NotNil()
			gt.V(t, nxt).NotNil()
			gt.Equal(t, usecase.ClassifyTagChange(cur, nxt), tt.want)
		})
	}

	t.Run("digest to digest is patch", func(t *testing.T) {
		cur := usecase.ParseImageReference("alpine@sha256:aaa111")
		nxt := usecase.ParseImageReference("alpine@sha256:bbb222")
		gt.Equal(t, usecase.ClassifyTagChange(cur, nxt), types.BumpPatch)
	})
}

func TestDockerDetector_Detect(t *testing.T) {
	ctx := context.Background()
	d := usecase.NewDockerDetector()

	t.Run("dockerfile tag change", func(t *testing.T) {
		changes := d.Detect(ctx, map[string]usecase.FileRevision{
			"Dockerfile": {
				Base: "FROM node:20.10.0\n",
				Head: "FROM node:20.11.0\n",
			},
		})
		gt.Equal(t, len(changes), 1)
		gt.Equal(t, changes[0].Name, "node")
		gt.Equal(t, changes[0].CurrentVersion, "20.10.0")
		gt.Equal(t, changes[0].NewVersion, "20.11.0")
		gt.Equal(t, changes[0].Manager, types.ManagerDocker)
		gt.Equal(t, changes[0].UpdateType, types.BumpMinor)
		gt.Equal(t, changes[0].SourceFile, "Dockerfile")
	})

	t.Run("compose image change", func(t *testing.T) {
		changes := d.Detect(ctx, map[string]usecase.FileRevision{
			"docker-compose.yml": {
				Base: "services:\n  db:\n    image: postgres:15.4\n",
				Head: "services:\n  db:\n    image: postgres:16.1\n",
			},
		})
		gt.Equal(t, len(changes), 1)
		gt.Equal(t, changes[0].Name, "postgres")
		gt.Equal(t, changes[0].UpdateType, types.BumpMajor)
	})

	t.Run("unchanged image produces nothing", func(t *testing.T) {
		changes := d.Detect(ctx, map[string]usecase.FileRevision{
			"Dockerfile": {
				Base: "FROM node:20.11.0\n",
				Head: "FROM node:20.11.0\n",
			},
		})
		gt.Equal(t, len(changes), 0)
	})

	t.Run("same change in two files is reported per file", func(t *testing.T) {
		changes := d.Detect(ctx, map[string]usecase.FileRevision{
			"Dockerfile":      {Base: "FROM node:20\n", Head: "FROM node:22\n"},
			"Dockerfile.test": {Base: "FROM node:20\n", Head: "FROM node:22\n"},
		})
		gt.Equal(t, len(changes), 2)
	})
}
