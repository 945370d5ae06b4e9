package user

// RegisterRequest is the public sign-up payload.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Phone    string `json:"phone" validate:"required,bdphone"`
	Password string `json:"password" validate:"required,min=6"`
	Role     Role   `json:"role" validate:"signup_role"`
}

// ListFilter selects users for admin listings.
type ListFilter struct {
	Role          *Role
	PendingAgents bool
	Status        *Status
	Page          int
	Limit         int
}

func (f ListFilter) normalized() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return f
}

func (f ListFilter) offset() int {
	return (f.Page - 1) * f.Limit
}
