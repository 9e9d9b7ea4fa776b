package notify

import (
	"context"
	"fmt"
)

// Permission mirrors the platform's three-state notification permission.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// PermissionKey is where the decision is stored in the backend.
const PermissionKey = "notification_permission"

// ParsePermission accepts the three state names; empty means default.
func ParsePermission(s string) (Permission, error) {
	switch Permission(s) {
	case "", PermissionDefault:
		return PermissionDefault, nil
	case PermissionGranted, PermissionDenied:
		return Permission(s), nil
	}
	return "", fmt.Errorf("unknown permission %q", s)
}

// Prompter asks the user for notification permission. Returning
// PermissionDefault means the prompt was dismissed without an answer.
type Prompter interface {
	Prompt(ctx context.Context) (Permission, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context) (Permission, error)

func (f PrompterFunc) Prompt(ctx context.Context) (Permission, error) { return f(ctx) }

// Answer is a Prompter that always returns p.
func Answer(p Permission) Prompter {
	return PrompterFunc(func(context.Context) (Permission, error) { return p, nil })
}
