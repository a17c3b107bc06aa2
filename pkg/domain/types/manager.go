package types

// Manager identifies the package ecosystem governing a dependency
type Manager string

const (
	ManagerNPM           Manager = "npm"
	ManagerPNPM          Manager = "pnpm"
	ManagerYarn          Manager = "yarn"
	ManagerDocker        Manager = "docker"
	ManagerPip           Manager = "pip"
	ManagerPipenv        Manager = "pipenv"
	ManagerPoetry        Manager = "poetry"
	ManagerGradle        Manager = "gradle"
	ManagerMaven         Manager = "maven"
	ManagerGoMod         Manager = "gomod"
	ManagerNuget         Manager = "nuget"
	ManagerComposer      Manager = "composer"
	ManagerCargo         Manager = "cargo"
	ManagerHelm          Manager = "helm"
	ManagerTerraform     Manager = "terraform"
	ManagerAnsible       Manager = "ansible"
	ManagerPreCommit     Manager = "pre-commit"
	ManagerGitLabCI      Manager = "gitlab-ci"
	ManagerCircleCI      Manager = "circleci"
	ManagerGitHubActions Manager = "github-actions"
	ManagerBundler       Manager = "bundler"
	ManagerUnknown       Manager = "unknown"
)
