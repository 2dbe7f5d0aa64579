package audit

import "strings"

// ActionResource is the audit action/resource pair derived from an RPC method.
type ActionResource struct {
	Action   string
	Resource string
}

// Session lifecycle overrides: these methods get domain-specific actions
// instead of the generic verb mapping.
const (
	sessionRotateRefresh = "/carelink.auth.v1.AuthService/Refresh"
	sessionLogout        = "/carelink.auth.v1.AuthService/Logout"
	sessionCompleteLogin = "/carelink.auth.v1.AuthService/CompleteLogin"
)

// ParseFullMethod returns action and resource for a gRPC full method
// (e.g. /carelink.user.v1.UserService/GetUser). Action is a verb: get, list,
// create, update, delete, or a lowercase method name for others. Resource is
// derived from the service name (UserService -> user).
func ParseFullMethod(fullMethod string) ActionResource {
	switch fullMethod {
	case sessionRotateRefresh:
		return ActionResource{Action: "refresh_rotated", Resource: "session"}
	case sessionLogout:
		return ActionResource{Action: "logout", Resource: "session"}
	case sessionCompleteLogin:
		return ActionResource{Action: "login_completed", Resource: "session"}
	}
	// fullMethod format: /carelink.package.v1.ServiceName/MethodName
	slash := strings.LastIndex(fullMethod, "/")
	if slash < 0 {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	method := fullMethod[slash+1:]
	beforeSlash := fullMethod[:slash]
	dot := strings.LastIndex(beforeSlash, ".")
	if dot < 0 {
		return ActionResource{Action: strings.ToLower(method), Resource: "unknown"}
	}
	return ActionResource{
		Action:   methodToAction(method),
		Resource: serviceToResource(beforeSlash[dot+1:]),
	}
}

func serviceToResource(serviceName string) string {
	// SessionService -> session, UserService -> user
	s := strings.TrimSuffix(serviceName, "Service")
	if s == "" {
		return "unknown"
	}
	return strings.ToLower(s[0:1]) + s[1:]
}

func methodToAction(method string) string {
	switch {
	case strings.HasPrefix(method, "Get") && method != "Get":
		return "get"
	case strings.HasPrefix(method, "List"):
		return "list"
	case strings.HasPrefix(method, "Create"):
		return "create"
	case strings.HasPrefix(method, "Update"):
		return "update"
	case strings.HasPrefix(method, "Delete"):
		return "delete"
	case strings.HasPrefix(method, "Login"):
		return "login"
	case strings.HasPrefix(method, "Evict"):
		return "evict"
	case strings.HasPrefix(method, "Peek"):
		return "peek"
	case strings.HasPrefix(method, "Touch"):
		return "touch"
	default:
		return strings.ToLower(method)
	}
}
