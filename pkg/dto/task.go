package dto

import "github.com/dkovac/tripmates-api/internal/models"

type AssignTaskRequest struct {
	AssignedTo string `json:"assigned_to"`
}

type AddCommentRequest struct {
	Content string `json:"content"`
}

// ItemsRequest carries the client-generated checklist to overlay ledger
// state onto.
type ItemsRequest struct {
	Items []models.ReadinessItem `json:"items"`
}
