// Copyright 2025 Quantdists
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"runtime/debug"
)

// Overridden at build time through -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type VersionInfo struct {
	Version    string `json:"version"`
	CommitSHA  string `json:"commit_sha"`
	CommitDate string `json:"commit_date"`
}

// NewVersionInfo prefers linker-injected values and falls back to the
// binary's embedded build info.
func NewVersionInfo() VersionInfo {
	ver, sha, buildDate := version, commit, date

	if ver == "dev" || sha == "unknown" || buildDate == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.Main.Version != "" {
				ver = info.Main.Version
			} else {
				ver = "(devel)"
			}

			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" && sha == "unknown" {
					sha = setting.Value
				}

				if setting.Key == "vcs.time" && buildDate == "unknown" {
					buildDate = setting.Value
				}
			}
		}
	}

	return VersionInfo{
		Version:    ver,
		CommitSHA:  sha,
		CommitDate: buildDate,
	}
}

func (v VersionInfo) String() string {
	return fmt.Sprintf(`:
    version: %s
    commit sha: %s
    commit date: %s`,
		v.Version,
		v.CommitSHA,
		v.CommitDate,
	)
}
