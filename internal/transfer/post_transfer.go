package transfer

// SchedulePostRequest is the body of POST /api/social/posts.
type SchedulePostRequest struct {
	AccountID    int64    `json:"accountId" validate:"required,gt=0"`
	Content      string   `json:"content" validate:"required,max=5000"`
	ScheduledFor string   `json:"scheduledFor" validate:"required"`
	Platform     string   `json:"platform" validate:"omitempty,oneof=facebook instagram twitter"`
	MediaURLs    []string `json:"mediaUrls" validate:"omitempty,max=10,dive,required,url"`
	TipID        *int64   `json:"tipId" validate:"omitempty,gt=0"`
	RoutineID    *int64   `json:"routineId" validate:"omitempty,gt=0"`
}

// UpdatePostStatusRequest is the body of PATCH /api/social/posts/:id, used by
// the external publisher to report the outcome of a post.
type UpdatePostStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=published failed"`
	Reason string `json:"reason" validate:"max=1000"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type MediaUploadResponse struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}
