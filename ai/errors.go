// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import "errors"

var (
	// ErrServiceUnavailable indicates the inference capability or its
	// credential is missing. Reported when a question is asked, not at startup.
	ErrServiceUnavailable = errors.New("inference service unavailable")

	// ErrInference indicates the call reached the service but it reported a failure.
	ErrInference = errors.New("inference failed")

	// ErrUnknownBackend indicates a Config names a backend that does not exist.
	ErrUnknownBackend = errors.New("unknown inference backend")

	// ErrInvalidConfig indicates a Config failed validation.
	ErrInvalidConfig = errors.New("invalid ai config")
)
