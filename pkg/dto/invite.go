package dto

type InviteMemberRequest struct {
	Email   string  `json:"email"`
	Role    string  `json:"role"`
	Message *string `json:"message"`
}

type RespondInviteRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
