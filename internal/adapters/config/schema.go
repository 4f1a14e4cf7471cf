package config

// Kilnfile is the schema of kiln.yaml.
type Kilnfile struct {
	Version  string               `yaml:"version"`
	Prefix   string               `yaml:"prefix"`
	WorkDir  string               `yaml:"workdir"`
	Tools    []string             `yaml:"tools"`
	Defaults []string             `yaml:"defaults"`
	Targets  map[string]TargetDTO `yaml:"targets"`
}

// TargetDTO is the on-disk form of a build target.
type TargetDTO struct {
	Download  DownloadDTO `yaml:"download"`
	Folder    []string    `yaml:"folder"`
	Strategy  string      `yaml:"strategy"`
	Options   []string    `yaml:"options"`
	DependsOn []string    `yaml:"dependsOn"`
	Platforms []string    `yaml:"platforms"`
}

// DownloadDTO describes where a target's archive comes from.
type DownloadDTO struct {
	URL      string `yaml:"url"`
	Filename string `yaml:"filename"`
	Dir      string `yaml:"dir"`
}
