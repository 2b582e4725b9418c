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

package base

import "github.com/juju/errors"

// Errors raised by the recommendation pipeline. Callers wrap them with
// errors.Annotate and match them with errors.Is.
const (
	// ErrDataIntegrity means a record reaching the core violates the cleaning contract.
	ErrDataIntegrity = errors.ConstError("data integrity violation")
	// ErrUnknownKey means an identifier was never seen while building the encoder.
	ErrUnknownKey = errors.ConstError("unknown key")
	// ErrConvergenceFailure means latent factors became non-finite during training.
	ErrConvergenceFailure = errors.ConstError("convergence failure")
	// ErrEmptyInput means there is nothing to train on.
	ErrEmptyInput = errors.ConstError("empty input")
)
