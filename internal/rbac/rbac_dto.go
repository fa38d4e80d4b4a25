package rbac

type PoliciesResponse struct {
	Policies []PolicyRow `json:"policies"`
}

type PolicyRow struct {
	Role     string `json:"role"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}
