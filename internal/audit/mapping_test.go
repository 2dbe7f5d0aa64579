package audit

import "testing"

func TestParseFullMethod(t *testing.T) {
	cases := []struct {
		fullMethod string
		action     string
		resource   string
	}{
		{"/carelink.user.v1.UserService/GetUser", "get", "user"},
		{"/carelink.session.v1.SessionService/PeekSession", "peek", "session"},
		{"/carelink.session.v1.SessionService/EvictSession", "evict", "session"},
		{"/carelink.auth.v1.AuthService/Login", "login", "auth"},
		{"/carelink.auth.v1.AuthService/Refresh", "refresh_rotated", "session"},
		{"/carelink.auth.v1.AuthService/Logout", "logout", "session"},
		{"/carelink.auth.v1.AuthService/CompleteLogin", "login_completed", "session"},
		{"/carelink.audit.v1.AuditService/ListAuditLogs", "list", "audit"},
		{"no-slash", "unknown", "unknown"},
		{"/nopackage/Method", "method", "unknown"},
	}
	for _, tc := range cases {
		got := ParseFullMethod(tc.fullMethod)
		if got.Action != tc.action || got.Resource != tc.resource {
			t.Errorf("ParseFullMethod(%q) = %+v, want {%s %s}", tc.fullMethod, got, tc.action, tc.resource)
		}
	}
}
