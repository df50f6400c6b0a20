package dto

import "time"

type NotificationDTO struct {
	ID        uint       `json:"id"`
	UUID      string     `json:"uuid"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Link      *string    `json:"link,omitempty"`
	IsRead    bool       `json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ListNotificationsRequest pages through unread notifications
type ListNotificationsRequest struct {
	Page     int `query:"page" validate:"omitempty,min=1"`
	PageSize int `query:"page_size" validate:"omitempty,min=1,max=100"`
}

type ListNotificationsResponse struct {
	Items      []NotificationDTO `json:"items"`
	Pagination PaginationInfo    `json:"pagination"`
}

type PaginationInfo struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}
