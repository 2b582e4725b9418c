// Copyright 2026 basketcf Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Set at build time with -ldflags "-X github.com/basketcf/basketcf/cmd/version.Version=...".
var (
	Version   = "unknown-version"
	GitCommit = "unknown-commit"
	BuildTime = "unknown-buildtime"
)

func BuildInfo() string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "Version:\t%s\n", Version)
	_, _ = fmt.Fprintf(&b, "Go version:\t%s\n", runtime.Version())
	_, _ = fmt.Fprintf(&b, "Git commit:\t%s\n", GitCommit)
	_, _ = fmt.Fprintf(&b, "Built:\t\t%s\n", BuildTime)
	_, _ = fmt.Fprintf(&b, "OS/Arch:\t%s/%s\n", runtime.GOOS, runtime.GOARCH)
	return b.String()
}
