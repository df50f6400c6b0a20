package dto

// AdminUpdateAccountRequest changes privilege and role related fields of an account
type AdminUpdateAccountRequest struct {
	Role                *string `json:"role,omitempty" validate:"omitempty,oneof=business_owner admin collection_agent"`
	IsSuperuser         *bool   `json:"is_superuser,omitempty"`
	IsStaff             *bool   `json:"is_staff,omitempty"`
	IsActive            *bool   `json:"is_active,omitempty"`
	DTIOffice           *string `json:"dti_office,omitempty" validate:"omitempty,max=255"`
	OfficialDesignation *string `json:"official_designation,omitempty" validate:"omitempty,max=255"`
}

// AdminListAccountsRequest filters the account listing and export
type AdminListAccountsRequest struct {
	Role       string `query:"role" validate:"omitempty,oneof=business_owner admin collection_agent"`
	IsVerified *bool  `query:"is_verified"`
	IsActive   *bool  `query:"is_active"`
	Page       int    `query:"page" validate:"omitempty,min=1"`
	PageSize   int    `query:"page_size" validate:"omitempty,min=1,max=100"`
}

type AdminListAccountsResponse struct {
	Items      []AccountDTO   `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}

// SendNotificationRequest lets an admin notify a single account
type SendNotificationRequest struct {
	Title   string  `json:"title" validate:"required,max=255"`
	Message string  `json:"message" validate:"required,max=2000"`
	Link    *string `json:"link,omitempty" validate:"omitempty,max=255"`
}
