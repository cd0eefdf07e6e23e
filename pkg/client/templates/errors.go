/*
Copyright 2026 The KubeEdge Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package templates

import (
	"errors"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// ValidationError is returned when a request fails validation. Nothing is
// sent to the backend in that case.
type ValidationError struct {
	Errs field.ErrorList
}

func (e *ValidationError) Error() string {
	return "invalid template: " + e.Errs.ToAggregate().Error()
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
