package authz

// Management API scopes carried in the JWT "scopes" claim.
const (
	ScopeReadCodes  = "read_codes"
	ScopeWriteCodes = "write_codes"
)

func HasScope(granted []string, want string) bool {
	for _, s := range granted {
		if s == want {
			return true
		}
	}
	return false
}
