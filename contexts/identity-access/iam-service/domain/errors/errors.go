package errors

import (
	"errors"
	"fmt"
)

// Kind sentinels. Every condition-specific error below wraps exactly one of
// these, so the request layer can dispatch with a single errors.Is test.
// Conflict conditions are folded into ErrValidation.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrInvalidField = errors.New("invalid field")
)

var (
	ErrPermissionNotFound = fmt.Errorf("permission %w", ErrNotFound)
	ErrPolicyNotFound     = fmt.Errorf("policy %w", ErrNotFound)
	ErrRoleNotFound       = fmt.Errorf("role %w", ErrNotFound)

	ErrDuplicatePermission = fmt.Errorf("%w: permission with this module and action already exists", ErrValidation)
	ErrDuplicatePolicyName = fmt.Errorf("%w: policy with this name already exists for the tenant", ErrValidation)
	ErrDuplicateRoleName   = fmt.Errorf("%w: role with this name already exists for the tenant", ErrValidation)

	ErrInactivePermissions = fmt.Errorf("%w: one or more permissions are invalid or inactive", ErrValidation)
	ErrInactivePolicies    = fmt.Errorf("%w: one or more policies are invalid or inactive", ErrValidation)

	ErrPermissionCapExceeded = fmt.Errorf("%w: cannot assign more than 100 permissions to a policy", ErrValidation)
	ErrPolicyCapExceeded     = fmt.Errorf("%w: cannot assign more than 50 policies to a role", ErrValidation)

	ErrPermissionInUse = fmt.Errorf("%w: cannot delete permission as it is assigned to one or more policies", ErrValidation)
	ErrPolicyInUse     = fmt.Errorf("%w: cannot delete policy as it is assigned to one or more roles", ErrValidation)
	ErrRoleInUse       = fmt.Errorf("%w: cannot delete role as it is assigned to one or more users", ErrValidation)

	ErrSystemPolicy = fmt.Errorf("%w: cannot delete system policy", ErrValidation)
	ErrSystemRole   = fmt.Errorf("%w: cannot delete system role", ErrValidation)
)

// InvalidFieldf reports a request-shape violation caught at the boundary.
func InvalidFieldf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidField, fmt.Sprintf(format, args...))
}

// StoreError wraps an unclassified entity-store failure. The message names
// the failed operation only; the cause stays attached for diagnostics.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "store failure: " + e.Op
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Store classifies err for the caller: domain errors pass through unchanged,
// anything else is wrapped once with the operation name.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidField) {
		return err
	}
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
