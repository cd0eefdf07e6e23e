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

// Package resourcekey owns the "/{objectId}/0/{resourceId}" encoding that
// identifies a resource instance across every selected LwM2M object.
package resourcekey

import (
	"fmt"
	"strings"
	"unicode"
)

// InstanceID is the only object instance the template builder addresses.
const InstanceID = "0"

// Format returns the key for resourceID of objectID.
func Format(objectID, resourceID string) string {
	return "/" + objectID + "/" + InstanceID + "/" + resourceID
}

// Parse splits key into its object and resource ids.
func Parse(key string) (objectID, resourceID string, err error) {
	if !strings.HasPrefix(key, "/") {
		return "", "", fmt.Errorf("invalid resource key %q: missing leading slash", key)
	}
	parts := strings.Split(key[1:], "/")
	if len(parts) != 3 {
		return "", "", fmt.Errorf("invalid resource key %q: want /{object}/%s/{resource}", key, InstanceID)
	}
	if parts[1] != InstanceID {
		return "", "", fmt.Errorf("invalid resource key %q: unsupported instance %q", key, parts[1])
	}
	if !isID(parts[0]) || !isID(parts[2]) {
		return "", "", fmt.Errorf("invalid resource key %q: ids must be numeric", key)
	}
	return parts[0], parts[2], nil
}

// ObjectPrefix is the prefix every key of objectID starts with.
func ObjectPrefix(objectID string) string {
	return "/" + objectID + "/"
}

// BelongsTo reports whether key addresses a resource of objectID.
func BelongsTo(key, objectID string) bool {
	return strings.HasPrefix(key, ObjectPrefix(objectID))
}

// DefaultDisplayName lowercases name and drops whitespace and underscores.
func DefaultDisplayName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsSpace(r) || r == '_' {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func isID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
