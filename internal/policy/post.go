// Package policy decides which actors may change which records.
package policy

import "quill/internal/models"

// CanMutate reports whether actor may update or delete post. Only the owner
// may; an anonymous actor never may.
func CanMutate(actor *models.User, post *models.Post) bool {
	if actor == nil || post == nil {
		return false
	}
	return actor.ID != 0 && actor.ID == post.UserID
}
