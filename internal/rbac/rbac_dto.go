package rbac

type EnforceRequest struct {
	Roles    []string
	Resource string
	Action   string
}

type GrantResponse struct {
	Role     string `json:"role"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}
