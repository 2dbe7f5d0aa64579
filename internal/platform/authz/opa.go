package authz

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	userdomain "care-link-platform/backend/internal/user/domain"
)

// Default Rego policy for care-resource access. Admins see everything;
// everyone else needs an ownership or care-link relationship to the
// resource's subject.
const defaultRegoPolicy = `package carelink.access

default allow = false

allow if {
	input.subject.role == "ADMIN"
}

allow if {
	input.subject.user_id == input.resource.subject_id
}

allow if {
	input.subject.role == "GUARDIAN"
	input.resource.subject_id in input.subject.linked_user_ids
}

allow if {
	input.subject.role == "COUNSELOR"
	input.resource.subject_id in input.subject.assigned_user_ids
	input.action != "delete"
}
`

// AccessRequest is the input to an access decision.
type AccessRequest struct {
	SubjectID       string          // caller's user ID
	Role            userdomain.Role // caller's role
	LinkedUserIDs   []string        // elderly users this guardian is linked to
	AssignedUserIDs []string        // elderly users this counselor is assigned to
	Action          string          // read, write, delete, ...
	ResourceType    string          // care_record, checkin, ...
	ResourceSubject string          // user ID the resource is about
}

// OPAEvaluator decides care-resource access with in-process OPA Rego.
// Custom policy modules can extend or replace the default module.
type OPAEvaluator struct {
	modules map[string]string
}

// NewOPAEvaluator returns an evaluator using the default access policy plus
// any extra Rego modules, keyed by file name.
func NewOPAEvaluator(extraModules map[string]string) *OPAEvaluator {
	modules := map[string]string{"access_default.rego": defaultRegoPolicy}
	for name, src := range extraModules {
		modules[name] = src
	}
	return &OPAEvaluator{modules: modules}
}

// HealthCheck verifies that the configured policy modules compile and
// evaluate. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.Allowed(ctx, AccessRequest{
		SubjectID:       "health",
		Role:            userdomain.RoleAdmin,
		Action:          "read",
		ResourceType:    "care_record",
		ResourceSubject: "health",
	})
	return err
}

// Allowed evaluates the access request against the policy modules.
func (e *OPAEvaluator) Allowed(ctx context.Context, req AccessRequest) (bool, error) {
	compiler, err := ast.CompileModules(e.modules)
	if err != nil {
		return false, fmt.Errorf("compile access policies: %w", err)
	}
	input := map[string]interface{}{
		"subject": map[string]interface{}{
			"user_id":           req.SubjectID,
			"role":              string(req.Role),
			"linked_user_ids":   stringSlice(req.LinkedUserIDs),
			"assigned_user_ids": stringSlice(req.AssignedUserIDs),
		},
		"action": req.Action,
		"resource": map[string]interface{}{
			"type":       req.ResourceType,
			"subject_id": req.ResourceSubject,
		},
	}
	q := rego.New(
		rego.Query("data.carelink.access.allow"),
		rego.Compiler(compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("eval access policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("access policy query returned no result")
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("access policy result is not a boolean")
	}
	return allowed, nil
}

// stringSlice converts to []interface{} for the Rego input document; nil
// slices become empty arrays so `in` checks never see null.
func stringSlice(in []string) []interface{} {
	out := make([]interface{}, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}
