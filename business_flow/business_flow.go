// Package businessflow contains the business logic for the application.
package businessflow

import (
	"strings"

	"github.com/amirphl/dti-portal/app/dto"
	"github.com/amirphl/dti-portal/models"
	"github.com/amirphl/dti-portal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ClientMetadata holds client information used for logging
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

func (cm *ClientMetadata) String() string {
	if cm == nil {
		return "-"
	}
	return strings.Join([]string{cm.IPAddress, cm.RequestID}, " ")
}

// ToAccountDTO converts an account model to its public representation
func ToAccountDTO(a models.Account) dto.AccountDTO {
	return dto.AccountDTO{
		ID:                  a.ID,
		UUID:                a.UUID.String(),
		Username:            a.Username,
		Email:               a.Email,
		FirstName:           a.FirstName,
		MiddleName:          a.MiddleName,
		LastName:            a.LastName,
		FullName:            a.FullName(),
		Role:                string(a.Role),
		RoleDisplayName:     a.Role.DisplayName(),
		IsSuperuser:         a.IsSuperuser,
		IsStaff:             a.IsStaff,
		IsActive:            a.IsActive,
		IsVerified:          a.IsVerified,
		ProfilePicture:      a.ProfilePicture,
		ProfileURL:          a.AbsoluteURL(),
		DefaultAddress:      a.DefaultAddress,
		DefaultPhone:        a.DefaultPhone,
		Birthday:            a.Birthday,
		DTIOffice:           a.DTIOffice,
		OfficialDesignation: a.OfficialDesignation,
		VerifiedAt:          a.VerifiedAt,
		LastLoginAt:         a.LastLoginAt,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

func ToSessionDTO(accessToken, refreshToken string) dto.SessionDTO {
	return dto.SessionDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    utils.AccessTokenTTLSeconds,
	}
}

func ToNotificationDTO(n models.Notification) dto.NotificationDTO {
	return dto.NotificationDTO{
		ID:        n.ID,
		UUID:      n.UUID.String(),
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// normalizePage applies defaults and bounds to page and page size
func normalizePage(page, pageSize int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	if page < 1 {
		return 0, 0, ErrInvalidPage
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return 0, 0, ErrInvalidPageSize
	}
	return page, pageSize, nil
}

func paginationInfo(total int64, page, pageSize int) dto.PaginationInfo {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return dto.PaginationInfo{
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// maskDestination hides the middle of a phone number or the local part of an email
func maskDestination(dest string) string {
	if at := strings.IndexByte(dest, '@'); at >= 0 {
		local := dest[:at]
		if len(local) <= 2 {
			return strings.Repeat("*", len(local)) + dest[at:]
		}
		return local[:1] + strings.Repeat("*", len(local)-2) + local[len(local)-1:] + dest[at:]
	}
	if len(dest) <= 6 {
		return strings.Repeat("*", len(dest))
	}
	return dest[:4] + strings.Repeat("*", len(dest)-6) + dest[len(dest)-2:]
}
